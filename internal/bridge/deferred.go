package bridge

import (
	"log/slog"
	"time"

	"sim-bridge/internal/config"
	"sim-bridge/internal/host"
)

type taskState int

const (
	taskScheduled taskState = iota
	taskFired
	taskDelivered
)

// DeferredTask tracks one scheduled post-action extraction through
// Scheduled -> Fired -> Delivered. If the host's timer facility never fires
// the callback the task stays Scheduled and is abandoned; there is no retry.
type DeferredTask struct {
	Event       string
	Delay       time.Duration
	PendingSeq  uint64
	Correlated  bool
	state       taskState
	scheduledAt time.Time
}

// DeferredScheduler delays snapshot capture until the host has finished
// propagating an action's consequences. Delays come from the settle table
// keyed by action category; the callback is registered with the host's own
// event/timer facility and fires in host-simulated time.
type DeferredScheduler struct {
	logger *slog.Logger
	events host.EventScheduler
	delays config.SettleDelays

	// fire captures a snapshot at firedAt and routes it; it reports whether
	// the result was handed to the transport.
	fire func(task *DeferredTask, firedAt time.Time) bool
}

func NewDeferredScheduler(logger *slog.Logger, events host.EventScheduler, delays config.SettleDelays, fire func(task *DeferredTask, firedAt time.Time) bool) *DeferredScheduler {
	return &DeferredScheduler{logger: logger, events: events, delays: delays, fire: fire}
}

// Schedule registers a one-shot post-action extraction. When correlated is
// true the resulting snapshot is tagged with pendingSeq and delivered as an
// action result; otherwise it goes out as an unsolicited status snapshot.
func (d *DeferredScheduler) Schedule(event string, pendingSeq uint64, correlated bool, now time.Time) *DeferredTask {
	task := &DeferredTask{
		Event:       event,
		Delay:       d.delays.DelayFor(event),
		PendingSeq:  pendingSeq,
		Correlated:  correlated,
		state:       taskScheduled,
		scheduledAt: now,
	}
	d.events.After(task.Delay, func(firedAt time.Time) {
		task.state = taskFired
		if d.fire(task, firedAt) {
			task.state = taskDelivered
		}
	})
	d.logger.Debug("deferred extraction scheduled", "event", event, "delay", task.Delay, "correlated", correlated)
	return task
}

// State exposes the task lifecycle for observation.
func (t *DeferredTask) State() string {
	switch t.state {
	case taskFired:
		return "fired"
	case taskDelivered:
		return "delivered"
	default:
		return "scheduled"
	}
}
