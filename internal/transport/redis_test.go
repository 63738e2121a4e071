package transport

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sim-bridge/internal/model"
)

func newSyncRedisTransport(t *testing.T) (*RedisTransport, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c, err := NewCodec("json")
	require.NoError(t, err)
	tr := NewRedisTransport(discardLogger(), c, client, "bridge", false, 0, 8)
	require.NoError(t, tr.Start(context.Background()))
	return tr, mr, client
}

func TestRedisTransport_LatestWinsKeys(t *testing.T) {
	tr, mr, _ := newSyncRedisTransport(t)

	require.True(t, tr.Send(model.Envelope{Kind: model.KindSnapshot, Sequence: 1}))
	require.True(t, tr.Send(model.Envelope{Kind: model.KindSnapshot, Sequence: 2}))

	raw, err := mr.Get("bridge:game_state")
	require.NoError(t, err)
	var env model.Envelope
	require.NoError(t, jsonCodec{}.Unmarshal([]byte(raw), &env))
	assert.Equal(t, uint64(2), env.Sequence, "newer snapshot replaces the older one")

	require.True(t, tr.Send(model.Envelope{Kind: model.KindHeartbeat}))
	require.True(t, tr.Send(model.Envelope{Kind: model.KindDeckManifest}))
	assert.True(t, mr.Exists("bridge:heartbeat"))
	assert.True(t, mr.Exists("bridge:deck"))
}

func TestRedisTransport_ResultsAccumulateOnList(t *testing.T) {
	tr, mr, _ := newSyncRedisTransport(t)

	require.True(t, tr.SendResult(model.Envelope{Kind: model.KindActionResult, Sequence: 1}))
	require.True(t, tr.SendResult(model.Envelope{Kind: model.KindActionResult, Sequence: 2}))

	items, err := mr.List("bridge:results")
	require.NoError(t, err)
	assert.Len(t, items, 2, "results queue, they do not overwrite each other")
}

func TestRedisTransport_PollRetriesQueuedResults(t *testing.T) {
	tr, mr, _ := newSyncRedisTransport(t)

	// Make the server refuse everything so the first delivery attempt fails.
	mr.SetError("LOADING server is loading the dataset in memory")
	require.True(t, tr.SendResult(model.Envelope{Kind: model.KindActionResult, Sequence: 3}))

	mr.SetError("")
	_, _ = tr.Poll()

	items, err := mr.List("bridge:results")
	require.NoError(t, err)
	assert.Len(t, items, 1, "the queued result drains on the next poll")
}

func TestRedisTransport_PollPopsActions(t *testing.T) {
	tr, _, client := newSyncRedisTransport(t)

	_, ok := tr.Poll()
	assert.False(t, ok, "empty list is the normal idle case")

	data, err := jsonCodec{}.Marshal(model.Envelope{Kind: model.KindActionRequest, Sequence: 5})
	require.NoError(t, err)
	require.NoError(t, client.RPush(context.Background(), "bridge:actions", data).Err())

	env, ok := tr.Poll()
	require.True(t, ok)
	assert.Equal(t, uint64(5), env.Sequence)

	_, ok = tr.Poll()
	assert.False(t, ok, "each action is consumed exactly once")
}

func TestRedisTransport_PoisonActionDiscarded(t *testing.T) {
	tr, _, client := newSyncRedisTransport(t)
	require.NoError(t, client.RPush(context.Background(), "bridge:actions", "{not json").Err())

	_, ok := tr.Poll()
	assert.False(t, ok)

	_, ok = tr.Poll()
	assert.False(t, ok, "the bad message was popped, not left to loop")
}

func TestRedisTransport_AvailableTracksServer(t *testing.T) {
	tr, mr, _ := newSyncRedisTransport(t)
	assert.True(t, tr.Available())

	mr.Close()
	assert.False(t, tr.Available())
}
