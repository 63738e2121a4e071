package bridge

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTracker_TryAdmitExclusive(t *testing.T) {
	tr := NewTracker(discardLogger(), 5*time.Second)
	now := time.Now()

	assert.True(t, tr.TryAdmit(1, now))
	assert.False(t, tr.TryAdmit(2, now), "at most one pending action at any instant")

	seq, ok := tr.Pending()
	assert.True(t, ok)
	assert.Equal(t, uint64(1), seq)
}

func TestTracker_CompleteReturnsToIdle(t *testing.T) {
	tr := NewTracker(discardLogger(), 5*time.Second)
	now := time.Now()

	assert.True(t, tr.TryAdmit(3, now))
	tr.Complete(3)

	_, ok := tr.Pending()
	assert.False(t, ok)
	assert.True(t, tr.TryAdmit(4, now), "idle tracker admits again")
}

func TestTracker_CompleteIsIdempotent(t *testing.T) {
	tr := NewTracker(discardLogger(), 5*time.Second)
	now := time.Now()

	assert.True(t, tr.TryAdmit(3, now))
	tr.Complete(3)
	tr.Complete(3) // no-op, not an error

	_, ok := tr.Pending()
	assert.False(t, ok)
}

func TestTracker_CompleteWrongSequenceIsNoOp(t *testing.T) {
	tr := NewTracker(discardLogger(), 5*time.Second)
	now := time.Now()

	assert.True(t, tr.TryAdmit(3, now))
	tr.Complete(99)

	seq, ok := tr.Pending()
	assert.True(t, ok, "unrelated completion must not clear the pending action")
	assert.Equal(t, uint64(3), seq)
}

func TestTracker_TickTimesOutStuckAction(t *testing.T) {
	tr := NewTracker(discardLogger(), 5*time.Second)
	start := time.Now()

	assert.True(t, tr.TryAdmit(7, start))
	assert.False(t, tr.Tick(start.Add(4*time.Second)), "not yet expired")

	recovered := tr.Tick(start.Add(6 * time.Second))
	assert.True(t, recovered)

	_, ok := tr.Pending()
	assert.False(t, ok, "terminal state is always idle")
}

func TestTracker_TimeoutClearsRegardlessOfMissedTicks(t *testing.T) {
	tr := NewTracker(discardLogger(), 5*time.Second)
	start := time.Now()

	assert.True(t, tr.TryAdmit(7, start))

	// A single late tick, long after many host updates were skipped, still
	// recovers the stuck action.
	assert.True(t, tr.Tick(start.Add(10*time.Minute)))
	assert.True(t, tr.TryAdmit(8, start.Add(10*time.Minute)))
}

func TestTracker_CompleteAfterTimeoutIsNoOp(t *testing.T) {
	tr := NewTracker(discardLogger(), 5*time.Second)
	start := time.Now()

	assert.True(t, tr.TryAdmit(7, start))
	assert.True(t, tr.Tick(start.Add(6*time.Second)))

	// The late completion races the timeout path and loses quietly.
	tr.Complete(7)
	assert.True(t, tr.TryAdmit(8, start.Add(7*time.Second)))
}

func TestTracker_TickIdleIsNoOp(t *testing.T) {
	tr := NewTracker(discardLogger(), 5*time.Second)
	assert.False(t, tr.Tick(time.Now()))
}
