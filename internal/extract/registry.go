package extract

import "log/slog"

// Registry maps fragment names to extractors. Registration order is kept for
// stable iteration; registering a name twice replaces the earlier extractor.
type Registry struct {
	logger     *slog.Logger
	order      []string
	extractors map[string]Extractor
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:     logger,
		extractors: make(map[string]Extractor),
	}
}

func (r *Registry) Register(e Extractor) {
	name := e.Name()
	if name == "" {
		r.logger.Warn("ignoring extractor with empty fragment name")
		return
	}
	if _, exists := r.extractors[name]; exists {
		r.logger.Warn("replacing extractor", "fragment", name)
	} else {
		r.order = append(r.order, name)
	}
	r.extractors[name] = e
}

// Names returns registered fragment names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) get(name string) (Extractor, bool) {
	e, ok := r.extractors[name]
	return e, ok
}

func (r *Registry) Len() int {
	return len(r.order)
}
