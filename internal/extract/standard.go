package extract

import (
	"fmt"

	"sim-bridge/internal/host"
)

// tableExtractor reads an array of records from the host state source.
type tableExtractor struct {
	name string
	path string
	src  host.StateSource
}

func (e tableExtractor) Name() string { return e.name }

func (e tableExtractor) Produce() (any, error) {
	rows, err := e.src.Table(e.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", e.path, err)
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	return rows, nil
}

func (e tableExtractor) Default() any { return []map[string]any{} }

// valuesExtractor reads a set of scalars into one keyed fragment.
type valuesExtractor struct {
	name  string
	paths map[string]string
	src   host.StateSource
}

func (e valuesExtractor) Name() string { return e.name }

func (e valuesExtractor) Produce() (any, error) {
	out := make(map[string]any, len(e.paths))
	for key, path := range e.paths {
		if v, ok := e.src.Value(path); ok {
			out[key] = v
		}
	}
	return out, nil
}

func (e valuesExtractor) Default() any { return map[string]any{} }

func NewHandExtractor(src host.StateSource) Extractor {
	return tableExtractor{name: "hand", path: "hand.cards", src: src}
}

func NewJokersExtractor(src host.StateSource) Extractor {
	return tableExtractor{name: "jokers", path: "jokers.cards", src: src}
}

func NewConsumablesExtractor(src host.StateSource) Extractor {
	return tableExtractor{name: "consumables", path: "consumables.cards", src: src}
}

func NewShopExtractor(src host.StateSource) Extractor {
	return tableExtractor{name: "shop", path: "shop.items", src: src}
}

func NewBlindExtractor(src host.StateSource) Extractor {
	return valuesExtractor{
		name: "blind",
		paths: map[string]string{
			"name":        "blind.name",
			"chips":       "blind.chips",
			"chips_due":   "blind.chips_due",
			"multiplier":  "blind.mult",
			"is_boss":     "blind.boss",
			"reward":      "blind.dollars",
		},
		src: src,
	}
}

// RegisterStandard registers the default fragment set for a card-game host.
// Hosts with extra state areas register further extractors on top.
func RegisterStandard(r *Registry, src host.StateSource) {
	r.Register(NewHandExtractor(src))
	r.Register(NewJokersExtractor(src))
	r.Register(NewConsumablesExtractor(src))
	r.Register(NewShopExtractor(src))
	r.Register(NewBlindExtractor(src))
}
