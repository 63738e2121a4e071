package extract

import (
	"sim-bridge/internal/host"
	"sim-bridge/internal/model"
)

// NewCoreReader returns the reader for the fixed core section of a snapshot.
// Every field degrades to its zero value when the path does not resolve.
func NewCoreReader(src host.StateSource) func() model.CoreState {
	return func() model.CoreState {
		return model.CoreState{
			Ante:         intAt(src, "round.ante"),
			Round:        intAt(src, "round.number"),
			Money:        intAt(src, "dollars"),
			Chips:        intAt(src, "round.chips"),
			HandsLeft:    intAt(src, "round.hands_left"),
			DiscardsLeft: intAt(src, "round.discards_left"),
			Phase:        stringAt(src, "phase"),
		}
	}
}

func intAt(src host.StateSource, path string) int {
	v, ok := src.Value(path)
	if !ok {
		return 0
	}
	switch v := v.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case uint64:
		return int(v)
	default:
		return 0
	}
}

func stringAt(src host.StateSource, path string) string {
	v, ok := src.Value(path)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
