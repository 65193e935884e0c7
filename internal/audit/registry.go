package audit

import (
	"context"
	"fmt"
)

// Snapshotter is implemented by every entity type that can be logged. It
// returns the exact before/after field set to persist, which removes any
// ambiguity about what gets logged (sensitive fields stay out).
type Snapshotter interface {
	Snapshot() map[string]any
}

// SnapshotLoader fetches the current persisted state of a record, used as
// the pre-image for UPDATE and DELETE entries.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context, id int64) (map[string]any, error)
}

// LoaderFunc adapts a function to SnapshotLoader.
type LoaderFunc func(ctx context.Context, id int64) (map[string]any, error)

func (f LoaderFunc) LoadSnapshot(ctx context.Context, id int64) (map[string]any, error) {
	return f(ctx, id)
}

type binding struct {
	table  string
	loader SnapshotLoader
}

// Registry statically maps modules to their table names and snapshot
// loaders. It is populated once at startup and read-only afterwards; there
// is no runtime lookup by string concatenation.
type Registry struct {
	bindings map[Module]binding
}

func NewRegistry() *Registry {
	return &Registry{bindings: map[Module]binding{}}
}

// Register binds a module. Registering the same module twice is a wiring
// bug and panics at startup.
func (r *Registry) Register(m Module, table string, loader SnapshotLoader) {
	if _, exists := r.bindings[m]; exists {
		panic(fmt.Sprintf("audit: module %q registered twice", m))
	}
	r.bindings[m] = binding{table: table, loader: loader}
}

// Table returns the table name bound to the module, or the module name
// itself when unbound.
func (r *Registry) Table(m Module) string {
	if b, ok := r.bindings[m]; ok {
		return b.table
	}
	return string(m)
}

// Loader returns the module's snapshot loader, or nil when unbound.
func (r *Registry) Loader(m Module) SnapshotLoader {
	if b, ok := r.bindings[m]; ok {
		return b.loader
	}
	return nil
}
