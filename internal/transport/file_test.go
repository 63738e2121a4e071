package transport

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sim-bridge/internal/model"
)

func newSyncFileTransport(t *testing.T) (*FileTransport, string) {
	t.Helper()
	dir := t.TempDir()
	c, err := NewCodec("json")
	require.NoError(t, err)
	tr := NewFileTransport(discardLogger(), c, dir, false, 0, 8)
	require.NoError(t, tr.Start(context.Background()))
	return tr, dir
}

func readEnvelope(t *testing.T, path string) model.Envelope {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var env model.Envelope
	require.NoError(t, jsonCodec{}.Unmarshal(raw, &env))
	return env
}

func writeEnvelope(t *testing.T, path string, env model.Envelope) {
	t.Helper()
	data, err := jsonCodec{}.Marshal(env)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestFileTransport_SendWritesAtomically(t *testing.T) {
	tr, dir := newSyncFileTransport(t)

	ok := tr.Send(model.Envelope{Kind: model.KindSnapshot, Sequence: 1})
	require.True(t, ok)

	got := readEnvelope(t, filepath.Join(dir, "game_state.json"))
	assert.Equal(t, model.KindSnapshot, got.Kind)
	assert.Equal(t, uint64(1), got.Sequence)

	_, err := os.Stat(filepath.Join(dir, "game_state.json.tmp"))
	assert.True(t, os.IsNotExist(err), "no temporary file left behind")
}

func TestFileTransport_KindsLandInSeparateFiles(t *testing.T) {
	tr, dir := newSyncFileTransport(t)

	require.True(t, tr.Send(model.Envelope{Kind: model.KindHeartbeat}))
	require.True(t, tr.Send(model.Envelope{Kind: model.KindDeckManifest}))
	require.True(t, tr.SendResult(model.Envelope{Kind: model.KindActionResult, Sequence: 4}))

	assert.FileExists(t, filepath.Join(dir, "heartbeat.json"))
	assert.FileExists(t, filepath.Join(dir, "deck.json"))
	got := readEnvelope(t, filepath.Join(dir, "action_result.json"))
	assert.Equal(t, uint64(4), got.Sequence)
}

func TestFileTransport_PollConsumesActionsOnce(t *testing.T) {
	tr, dir := newSyncFileTransport(t)
	actionsPath := filepath.Join(dir, "actions.json")

	_, ok := tr.Poll()
	assert.False(t, ok, "no actions file is the normal idle case")

	writeEnvelope(t, actionsPath, model.Envelope{Kind: model.KindActionRequest, Sequence: 3})

	env, ok := tr.Poll()
	require.True(t, ok)
	assert.Equal(t, uint64(3), env.Sequence)
	assert.NoFileExists(t, actionsPath, "actions file consumed on read")

	_, ok = tr.Poll()
	assert.False(t, ok)
}

func TestFileTransport_PoisonActionsFileRemoved(t *testing.T) {
	tr, dir := newSyncFileTransport(t)
	actionsPath := filepath.Join(dir, "actions.json")
	require.NoError(t, os.WriteFile(actionsPath, []byte("{not json"), 0o644))

	_, ok := tr.Poll()
	assert.False(t, ok)
	assert.NoFileExists(t, actionsPath, "undecodable file must not wedge polling")
}

func TestFileTransport_PollRetriesQueuedResults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "share")
	c, err := NewCodec("json")
	require.NoError(t, err)
	tr := NewFileTransport(discardLogger(), c, dir, false, 0, 8)
	require.NoError(t, tr.Start(context.Background()))
	resultPath := filepath.Join(dir, "action_result.json")

	// Knock the share directory out so the first delivery attempt fails.
	require.NoError(t, os.RemoveAll(dir))
	require.True(t, tr.SendResult(model.Envelope{Kind: model.KindActionResult, Sequence: 3}))
	assert.NoFileExists(t, resultPath)

	require.NoError(t, os.MkdirAll(dir, 0o755))
	_, _ = tr.Poll()

	got := readEnvelope(t, resultPath)
	assert.Equal(t, uint64(3), got.Sequence, "the queued result drains on the next poll")
}

func TestFileTransport_AvailableTracksDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "share")
	c, err := NewCodec("json")
	require.NoError(t, err)
	tr := NewFileTransport(discardLogger(), c, dir, false, 0, 8)

	assert.False(t, tr.Available(), "directory does not exist yet")
	require.NoError(t, tr.Start(context.Background()))
	assert.True(t, tr.Available())
}

func TestFileTransport_WorkerModeRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c, err := NewCodec("json")
	require.NoError(t, err)
	tr := NewFileTransport(discardLogger(), c, dir, true, 10*time.Millisecond, 8)
	require.NoError(t, tr.Start(context.Background()))
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		assert.NoError(t, tr.Close(ctx))
	}()

	require.True(t, tr.Send(model.Envelope{Kind: model.KindSnapshot, Sequence: 2}))
	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, "game_state.json"))
		return err == nil
	}, time.Second, 5*time.Millisecond, "worker drains the outbound queue")

	writeEnvelope(t, filepath.Join(dir, "actions.json"), model.Envelope{Kind: model.KindActionRequest, Sequence: 9})
	require.Eventually(t, func() bool {
		env, ok := tr.Poll()
		return ok && env.Sequence == 9
	}, time.Second, 5*time.Millisecond, "worker feeds the inbound queue")
}

func TestFileTransport_CloseFlushesPendingResults(t *testing.T) {
	dir := t.TempDir()
	c, err := NewCodec("json")
	require.NoError(t, err)
	tr := NewFileTransport(discardLogger(), c, dir, true, time.Hour, 8)
	require.NoError(t, tr.Start(context.Background()))

	// The huge poll interval means only shutdown can flush this.
	require.True(t, tr.SendResult(model.Envelope{Kind: model.KindActionResult, Sequence: 6}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, tr.Close(ctx))

	got := readEnvelope(t, filepath.Join(dir, "action_result.json"))
	assert.Equal(t, uint64(6), got.Sequence)
}
