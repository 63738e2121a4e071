package bridge

import (
	"log/slog"
	"time"
)

// PendingAction is the transient record of the one admitted, not-yet-completed
// controller command.
type PendingAction struct {
	Sequence  uint64
	StartedAt time.Time
}

// Tracker enforces at most one in-flight controller action. An action whose
// completion never arrives is force-cleared after a fixed timeout so a stuck
// command cannot wedge the bridge. Clearing is idempotent: completion and
// timeout may race and the loser is a no-op.
//
// Owned by the tick thread; now is host-simulated time passed in by the host.
type Tracker struct {
	logger  *slog.Logger
	timeout time.Duration
	pending *PendingAction
}

func NewTracker(logger *slog.Logger, timeout time.Duration) *Tracker {
	return &Tracker{logger: logger, timeout: timeout}
}

// TryAdmit admits seq if no action is in flight. A rejected request produces
// no result; the controller retries.
func (t *Tracker) TryAdmit(seq uint64, now time.Time) bool {
	if t.pending != nil {
		return false
	}
	t.pending = &PendingAction{Sequence: seq, StartedAt: now}
	return true
}

// Complete clears the pending record for seq. Completing an action that is
// not pending (already completed, or timed out) is a no-op.
func (t *Tracker) Complete(seq uint64) {
	if t.pending == nil || t.pending.Sequence != seq {
		return
	}
	t.pending = nil
}

// Tick force-clears a pending action older than the timeout and reports
// whether a recovery happened.
func (t *Tracker) Tick(now time.Time) bool {
	if t.pending == nil {
		return false
	}
	if now.Sub(t.pending.StartedAt) <= t.timeout {
		return false
	}
	t.logger.Warn("pending action timed out, force-clearing",
		"sequence", t.pending.Sequence,
		"started_at", t.pending.StartedAt,
		"timeout", t.timeout)
	t.pending = nil
	return true
}

// Pending returns the in-flight sequence, if any.
func (t *Tracker) Pending() (uint64, bool) {
	if t.pending == nil {
		return 0, false
	}
	return t.pending.Sequence, true
}
