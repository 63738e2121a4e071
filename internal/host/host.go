// Package host defines the collaborator surfaces the bridge needs from the
// simulation it is embedded in: read-only state access, the command surface,
// and the host's own event/timer facility.
package host

import "time"

// StateSource provides read-only access to host state. Paths are dotted,
// rooted at the host's top-level state table (for example "shop.reroll_cost"
// or "hand.cards"). Implementations must not mutate host state.
type StateSource interface {
	// Value returns the scalar at path. The second return is false when the
	// path does not resolve.
	Value(path string) (any, bool)
	// Table returns the array of records at path.
	Table(path string) ([]map[string]any, error)
}

// CommandSurface applies one controller-issued action to host state. The
// bridge defines none of the action semantics; it only invokes them.
type CommandSurface interface {
	Apply(action string, params map[string]any) error
}

// EventScheduler is the host's own timer facility. After registers a one-shot
// callback invoked once delay has elapsed in host-simulated time; the host
// passes its current time into the callback. There is no cancellation; the
// host may discard registrations during state transitions.
type EventScheduler interface {
	After(delay time.Duration, fn func(firedAt time.Time))
}
