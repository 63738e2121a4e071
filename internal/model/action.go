package model

// ActionRequest is a command issued by the controller. Sequence echoes the
// envelope sequence so results can be correlated even after re-encoding.
type ActionRequest struct {
	Sequence uint64         `json:"sequence" msgpack:"sequence"`
	Action   string         `json:"action" msgpack:"action"`
	Params   map[string]any `json:"params,omitempty" msgpack:"params,omitempty"`
}

// ActionResult reports the outcome of exactly one admitted ActionRequest.
// Snapshot carries the post-action state captured after the settle delay.
type ActionResult struct {
	Sequence uint64    `json:"sequence" msgpack:"sequence"`
	Success  bool      `json:"success" msgpack:"success"`
	Error    string    `json:"error,omitempty" msgpack:"error,omitempty"`
	Snapshot *Snapshot `json:"snapshot,omitempty" msgpack:"snapshot,omitempty"`
}
