package host

import "time"

type timerEntry struct {
	dueAt time.Time
	fn    func(firedAt time.Time)
}

// TickScheduler is an EventScheduler driven by explicit time advancement. The
// standalone runner uses it in place of a real host timer facility; tests use
// it to fire deferred callbacks deterministically.
//
// Not safe for concurrent use: After and Advance run on the tick thread.
type TickScheduler struct {
	now     time.Time
	entries []timerEntry
}

func NewTickScheduler(start time.Time) *TickScheduler {
	return &TickScheduler{now: start}
}

func (s *TickScheduler) After(delay time.Duration, fn func(firedAt time.Time)) {
	if fn == nil {
		return
	}
	s.entries = append(s.entries, timerEntry{dueAt: s.now.Add(delay), fn: fn})
}

// Advance moves host time forward and fires every callback due at or before
// the new time, in due order. Callbacks receive the current host time and may
// register further timers.
func (s *TickScheduler) Advance(now time.Time) {
	if now.After(s.now) {
		s.now = now
	}
	for {
		idx := -1
		for i, e := range s.entries {
			if e.dueAt.After(s.now) {
				continue
			}
			if idx == -1 || e.dueAt.Before(s.entries[idx].dueAt) {
				idx = i
			}
		}
		if idx == -1 {
			return
		}
		fn := s.entries[idx].fn
		s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
		fn(s.now)
	}
}

// Pending returns how many callbacks are still scheduled.
func (s *TickScheduler) Pending() int {
	return len(s.entries)
}

// Now returns the scheduler's current host time.
func (s *TickScheduler) Now() time.Time {
	return s.now
}
