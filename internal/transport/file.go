package transport

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"sim-bridge/internal/model"
)

const (
	fileBaseSnapshot  = "game_state"
	fileBaseActions   = "actions"
	fileBaseResult    = "action_result"
	fileBaseDeck      = "deck"
	fileBaseHeartbeat = "heartbeat"
)

// FileTransport exchanges envelopes through files in a well-known directory.
// The controller polls independently, so every write is atomic-replace (write
// to a temporary name, then rename); the bridge never reads back its own
// writes. The actions file is consumed at most once.
//
// With the worker enabled, Send enqueues to a bounded channel drained by one
// background goroutine and Poll pops a bounded inbound channel. Without it,
// Send writes and Poll reads synchronously.
type FileTransport struct {
	logger       *slog.Logger
	codec        Codec
	dir          string
	pollInterval time.Duration
	worker       bool

	snapshotPath  string
	actionsPath   string
	resultPath    string
	deckPath      string
	heartbeatPath string

	outbound  chan model.Envelope
	inbound   chan model.Envelope
	results   *resultQueue
	available atomic.Bool

	cancel context.CancelFunc
	done   chan struct{}
}

func NewFileTransport(logger *slog.Logger, codec Codec, dir string, worker bool, pollInterval time.Duration, queueSize int) *FileTransport {
	if pollInterval <= 0 {
		pollInterval = 200 * time.Millisecond
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	ext := codec.Ext()
	return &FileTransport{
		logger:        logger,
		codec:         codec,
		dir:           dir,
		pollInterval:  pollInterval,
		worker:        worker,
		snapshotPath:  filepath.Join(dir, fileBaseSnapshot+ext),
		actionsPath:   filepath.Join(dir, fileBaseActions+ext),
		resultPath:    filepath.Join(dir, fileBaseResult+ext),
		deckPath:      filepath.Join(dir, fileBaseDeck+ext),
		heartbeatPath: filepath.Join(dir, fileBaseHeartbeat+ext),
		outbound:      make(chan model.Envelope, queueSize),
		inbound:       make(chan model.Envelope, queueSize),
		results:       newResultQueue(queueSize),
		done:          make(chan struct{}),
	}
}

func (t *FileTransport) Start(ctx context.Context) error {
	if err := os.MkdirAll(t.dir, 0o755); err != nil {
		return fmt.Errorf("create share dir: %w", err)
	}
	t.available.Store(true)
	if !t.worker {
		close(t.done)
		return nil
	}
	workerCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	go t.runWorker(workerCtx)
	return nil
}

func (t *FileTransport) Send(env model.Envelope) bool {
	if !t.worker {
		if err := t.write(env); err != nil {
			t.logger.Warn("file write failed, dropping envelope", "kind", env.Kind, "error", err)
			return false
		}
		return true
	}
	select {
	case t.outbound <- env:
		return true
	default:
		return false
	}
}

func (t *FileTransport) SendResult(env model.Envelope) bool {
	t.results.push(t.logger, env)
	if !t.worker {
		t.results.flush(t.write)
	}
	return true
}

func (t *FileTransport) Poll() (model.Envelope, bool) {
	if t.worker {
		select {
		case env := <-t.inbound:
			return env, true
		default:
			return model.Envelope{}, false
		}
	}
	// Without a worker there is no ticker; the tick's poll doubles as the
	// retry pass for queued results.
	t.results.flush(t.write)
	return t.consumeActions()
}

func (t *FileTransport) Available() bool {
	if t.worker {
		return t.available.Load()
	}
	info, err := os.Stat(t.dir)
	return err == nil && info.IsDir()
}

func (t *FileTransport) Close(ctx context.Context) error {
	if t.cancel != nil {
		t.cancel()
	}
	select {
	case <-t.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (t *FileTransport) runWorker(ctx context.Context) {
	defer close(t.done)
	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.drainOutbound()
			t.results.flush(t.write)
			return
		case env := <-t.outbound:
			if err := t.write(env); err != nil {
				t.logger.Warn("file write failed, dropping envelope", "kind", env.Kind, "error", err)
			}
		case <-ticker.C:
			t.results.flush(t.write)
			t.pollActions()
			info, err := os.Stat(t.dir)
			t.available.Store(err == nil && info.IsDir())
		}
	}
}

func (t *FileTransport) drainOutbound() {
	for {
		select {
		case env := <-t.outbound:
			if err := t.write(env); err != nil {
				t.logger.Warn("file write failed during shutdown", "kind", env.Kind, "error", err)
			}
		default:
			return
		}
	}
}

func (t *FileTransport) pollActions() {
	if len(t.inbound) == cap(t.inbound) {
		// Leave the file in place until the tick thread catches up.
		return
	}
	env, ok := t.consumeActions()
	if !ok {
		return
	}
	select {
	case t.inbound <- env:
	default:
	}
}

func (t *FileTransport) consumeActions() (model.Envelope, bool) {
	raw, err := os.ReadFile(t.actionsPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			t.logger.Warn("read actions file failed", "error", err)
		}
		return model.Envelope{}, false
	}
	// Consume-once: the file is removed whether or not it decodes, so a
	// poison message cannot wedge the poll loop.
	if err := os.Remove(t.actionsPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		t.logger.Warn("remove actions file failed", "error", err)
	}
	var env model.Envelope
	if err := t.codec.Unmarshal(raw, &env); err != nil {
		t.logger.Warn("discarding undecodable actions file", "error", err)
		return model.Envelope{}, false
	}
	return env, true
}

func (t *FileTransport) write(env model.Envelope) error {
	path, ok := t.pathFor(env.Kind)
	if !ok {
		t.logger.Warn("no file location for envelope kind", "kind", env.Kind)
		return nil
	}
	data, err := encodeEnvelope(t.codec, env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func (t *FileTransport) pathFor(kind model.Kind) (string, bool) {
	switch kind {
	case model.KindSnapshot, model.KindStatusUpdate:
		return t.snapshotPath, true
	case model.KindActionResult:
		return t.resultPath, true
	case model.KindDeckManifest:
		return t.deckPath, true
	case model.KindHeartbeat:
		return t.heartbeatPath, true
	default:
		return "", false
	}
}
