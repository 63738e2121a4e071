package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"

	"sim-bridge/internal/model"
)

// RedisTransport exchanges envelopes through a shared Redis instance. Latest
// snapshot, deck manifest, and heartbeat each live under one key (most recent
// wins); action requests arrive on a list the controller pushes to and the
// bridge pops; action results go to a list so none is lost between controller
// polls.
type RedisTransport struct {
	logger       *slog.Logger
	codec        Codec
	client       *redis.Client
	pollInterval time.Duration
	worker       bool

	snapshotKey  string
	actionsKey   string
	resultsKey   string
	deckKey      string
	heartbeatKey string

	outbound  chan model.Envelope
	inbound   chan model.Envelope
	results   *resultQueue
	available atomic.Bool

	cancel context.CancelFunc
	done   chan struct{}
}

const redisOpTimeout = 2 * time.Second

func NewRedisTransport(logger *slog.Logger, codec Codec, client *redis.Client, prefix string, worker bool, pollInterval time.Duration, queueSize int) *RedisTransport {
	if pollInterval <= 0 {
		pollInterval = 200 * time.Millisecond
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	if prefix == "" {
		prefix = "bridge"
	}
	return &RedisTransport{
		logger:       logger,
		codec:        codec,
		client:       client,
		pollInterval: pollInterval,
		worker:       worker,
		snapshotKey:  prefix + ":game_state",
		actionsKey:   prefix + ":actions",
		resultsKey:   prefix + ":results",
		deckKey:      prefix + ":deck",
		heartbeatKey: prefix + ":heartbeat",
		outbound:     make(chan model.Envelope, queueSize),
		inbound:      make(chan model.Envelope, queueSize),
		results:      newResultQueue(queueSize),
		done:         make(chan struct{}),
	}
}

func (t *RedisTransport) Start(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	if err := t.client.Ping(pingCtx).Err(); err != nil {
		t.logger.Warn("redis not reachable at startup", "error", err)
	} else {
		t.available.Store(true)
	}
	if !t.worker {
		close(t.done)
		return nil
	}
	workerCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	go t.runWorker(workerCtx)
	return nil
}

func (t *RedisTransport) Send(env model.Envelope) bool {
	if !t.worker {
		if err := t.write(env); err != nil {
			t.logger.Warn("redis write failed, dropping envelope", "kind", env.Kind, "error", err)
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

func (t *RedisTransport) SendResult(env model.Envelope) bool {
	t.results.push(t.logger, env)
	if !t.worker {
		t.results.flush(t.write)
	}
	return true
}

func (t *RedisTransport) Poll() (model.Envelope, bool) {
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
	return t.popAction()
}

func (t *RedisTransport) Available() bool {
	if t.worker {
		return t.available.Load()
	}
	pingCtx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	return t.client.Ping(pingCtx).Err() == nil
}

func (t *RedisTransport) Close(ctx context.Context) error {
	if t.cancel != nil {
		t.cancel()
	}
	select {
	case <-t.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return t.client.Close()
}

func (t *RedisTransport) runWorker(ctx context.Context) {
	defer close(t.done)
	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.results.flush(t.write)
			return
		case env := <-t.outbound:
			if err := t.write(env); err != nil {
				t.logger.Warn("redis write failed, dropping envelope", "kind", env.Kind, "error", err)
				t.available.Store(false)
			} else {
				t.available.Store(true)
			}
		case <-ticker.C:
			t.results.flush(t.write)
			t.pollActions()
		}
	}
}

func (t *RedisTransport) pollActions() {
	if len(t.inbound) == cap(t.inbound) {
		return
	}
	env, ok := t.popAction()
	if !ok {
		return
	}
	select {
	case t.inbound <- env:
	default:
	}
}

func (t *RedisTransport) popAction() (model.Envelope, bool) {
	opCtx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	raw, err := t.client.LPop(opCtx, t.actionsKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			t.logger.Warn("redis action pop failed", "error", err)
			t.available.Store(false)
		}
		return model.Envelope{}, false
	}
	t.available.Store(true)
	var env model.Envelope
	if err := t.codec.Unmarshal(raw, &env); err != nil {
		t.logger.Warn("discarding undecodable action message", "error", err)
		return model.Envelope{}, false
	}
	return env, true
}

func (t *RedisTransport) write(env model.Envelope) error {
	data, err := encodeEnvelope(t.codec, env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	opCtx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	switch env.Kind {
	case model.KindActionResult:
		return t.client.RPush(opCtx, t.resultsKey, data).Err()
	case model.KindDeckManifest:
		return t.client.Set(opCtx, t.deckKey, data, 0).Err()
	case model.KindHeartbeat:
		return t.client.Set(opCtx, t.heartbeatKey, data, 0).Err()
	default:
		return t.client.Set(opCtx, t.snapshotKey, data, 0).Err()
	}
}
