package bridge

import (
	"sync/atomic"
	"time"
)

type HealthStatus struct {
	transportAvailable atomic.Bool
	lastSnapshotAt     atomic.Int64
	lastActionAt       atomic.Int64
	recoveredActions   atomic.Int64
	droppedSnapshots   atomic.Int64
}

func NewHealthStatus() *HealthStatus {
	h := &HealthStatus{}
	h.transportAvailable.Store(false)
	return h
}

func (h *HealthStatus) SetTransportAvailable(ok bool) {
	h.transportAvailable.Store(ok)
}

func (h *HealthStatus) TransportAvailable() bool {
	return h.transportAvailable.Load()
}

func (h *HealthStatus) MarkSnapshot(ts time.Time) {
	h.lastSnapshotAt.Store(ts.UnixNano())
}

func (h *HealthStatus) MarkAction(ts time.Time) {
	h.lastActionAt.Store(ts.UnixNano())
}

func (h *HealthStatus) MarkRecovery() {
	h.recoveredActions.Add(1)
}

func (h *HealthStatus) MarkDroppedSnapshot() {
	h.droppedSnapshots.Add(1)
}

func (h *HealthStatus) Snapshot() map[string]any {
	out := map[string]any{
		"transport_available": h.transportAvailable.Load(),
		"recovered_actions":   h.recoveredActions.Load(),
		"dropped_snapshots":   h.droppedSnapshots.Load(),
	}
	if v := h.lastSnapshotAt.Load(); v > 0 {
		out["last_snapshot_at"] = time.Unix(0, v).UTC()
	}
	if v := h.lastActionAt.Load(); v > 0 {
		out["last_action_at"] = time.Unix(0, v).UTC()
	}
	return out
}
