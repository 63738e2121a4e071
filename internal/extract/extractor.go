// Package extract produces snapshots of host state. Extractors are pluggable
// units each owning one named fragment; the registry treats them uniformly
// and the assembler isolates their failures from each other.
package extract

// Extractor produces one named fragment of a snapshot. Produce reads host
// state only and must not mutate it. Default is the value substituted when
// Produce fails; it must be cheap and always constructible.
type Extractor interface {
	Name() string
	Produce() (any, error)
	Default() any
}

// FuncExtractor adapts a closure into an Extractor.
type FuncExtractor struct {
	FragmentName string
	Fn           func() (any, error)
	Fallback     any
}

func (e FuncExtractor) Name() string { return e.FragmentName }

func (e FuncExtractor) Produce() (any, error) { return e.Fn() }

func (e FuncExtractor) Default() any {
	if e.Fallback == nil {
		return map[string]any{}
	}
	return e.Fallback
}
