package extract

import (
	"fmt"
	"log/slog"
	"time"

	"sim-bridge/internal/model"
)

const snapshotVersion = "1"

// Assembler builds composite snapshots from the registry. Assembling is
// idempotent and side-effect free; one broken fragment never aborts the
// overall snapshot.
type Assembler struct {
	logger   *slog.Logger
	registry *Registry
	core     func() model.CoreState
}

func NewAssembler(logger *slog.Logger, registry *Registry, core func() model.CoreState) *Assembler {
	return &Assembler{logger: logger, registry: registry, core: core}
}

// Assemble captures every registered fragment. A fragment whose extractor
// fails or panics degrades to its default value; the fragment name is always
// present in the result.
func (a *Assembler) Assemble(now time.Time) model.Snapshot {
	snap := model.Snapshot{
		Version:    snapshotVersion,
		CapturedAt: now,
		Fragments:  make(map[string]any, a.registry.Len()),
	}
	if a.core != nil {
		snap.Core = a.readCore()
	}
	for _, name := range a.registry.Names() {
		e, ok := a.registry.get(name)
		if !ok {
			continue
		}
		value, err := produceSafe(e)
		if err != nil {
			a.logger.Warn("fragment extraction failed", "fragment", name, "error", err)
			value = e.Default()
		}
		snap.Fragments[name] = value
	}
	return snap
}

func (a *Assembler) readCore() (core model.CoreState) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Warn("core extraction panicked", "panic", r)
			core = model.CoreState{}
		}
	}()
	return a.core()
}

func produceSafe(e Extractor) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = fmt.Errorf("extractor panic: %v", r)
		}
	}()
	return e.Produce()
}
