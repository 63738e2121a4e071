// Package transport moves envelopes between the bridge and the controller
// process over a shared medium. Implementations may offload blocking I/O to a
// background worker; the tick thread only ever performs non-blocking queue
// operations against them.
package transport

import (
	"context"
	"log/slog"
	"sync"

	"sim-bridge/internal/model"
)

// Transport is the abstract channel to the controller.
//
// Send is fire-and-forget: a false return means the envelope was dropped
// (queue full, medium unavailable) and the caller moves on — snapshots are
// superseded by the next tick and are never retried. SendResult queues the
// envelope for reliable delivery: action results are unique and not
// reproducible from later state, so they are retried until written.
//
// Poll never blocks; Available is cheap and side-effect free.
type Transport interface {
	Start(ctx context.Context) error
	Send(env model.Envelope) bool
	SendResult(env model.Envelope) bool
	Poll() (model.Envelope, bool)
	Available() bool
	Close(ctx context.Context) error
}

// resultQueue holds action results awaiting reliable delivery. Pushed from
// the tick thread, drained by the transport worker.
type resultQueue struct {
	mu    sync.Mutex
	items []model.Envelope
	limit int
}

func newResultQueue(limit int) *resultQueue {
	if limit <= 0 {
		limit = 64
	}
	return &resultQueue{limit: limit}
}

func (q *resultQueue) push(logger *slog.Logger, env model.Envelope) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) >= q.limit {
		dropped := q.items[0]
		q.items = q.items[1:]
		logger.Warn("result queue full, dropping oldest", "sequence", dropped.Sequence)
	}
	q.items = append(q.items, env)
}

// flush attempts delivery of every queued result in order. The first failure
// stops the pass; the failed result goes back to the front so the next pass
// retries in original order.
//
// The lock is never held across a write: the tick thread pushes through the
// same mutex and must not wait out a slow medium.
func (q *resultQueue) flush(write func(model.Envelope) error) {
	for {
		q.mu.Lock()
		if len(q.items) == 0 {
			q.mu.Unlock()
			return
		}
		env := q.items[0]
		q.items[0] = model.Envelope{}
		q.items = q.items[1:]
		q.mu.Unlock()

		if err := write(env); err != nil {
			q.mu.Lock()
			q.items = append([]model.Envelope{env}, q.items...)
			q.mu.Unlock()
			return
		}
	}
}

func (q *resultQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
