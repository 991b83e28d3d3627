// Package modules supplies the embedder-provided resolvers that back
// IMPORT_MODULE/IMPORT_FROM, per spec.md §9's pluggable-import design
// ("a useful default is an empty resolver that fails with 'module not
// found'") and SPEC_FULL.md §B's domain-stack host modules.
package modules

import (
	"fmt"

	"github.com/aquascript/aqua/internal/value"
)

// Resolver resolves an import path (the dotted name that follows
// "import" or "from") to the module's exported value — always a
// Dict, per SPEC_FULL.md §B, so CALL_METHOD/GET_ATTR's existing
// module-member lookup (internal/vm/calls.go, aggregates.go) serves
// both host and file-based modules with no VM changes.
type Resolver interface {
	Resolve(path string) (value.Value, error)
}

// ResolveFunc adapts a plain function to Resolver.
type ResolveFunc func(path string) (value.Value, error)

func (f ResolveFunc) Resolve(path string) (value.Value, error) { return f(path) }

// Empty never resolves anything; it is the spec's stated useful
// default for an embedder that wants imports disabled entirely.
var Empty Resolver = ResolveFunc(func(path string) (value.Value, error) {
	return value.Nil(), fmt.Errorf("module not found: %s", path)
})

// Registry is a fixed, name-keyed table of host modules. internal/vm.New
// installs no resolver by default; cmd/aquavm passes one built on a
// Registry through vm.WithResolver (see cmd/aquavm/cmd/run.go and
// modules.go).
type Registry struct {
	fallback Resolver
	mods     map[string]value.Value
}

// NewRegistry returns an empty Registry; Resolve on an unregistered
// name falls through to fallback (Empty if none is given).
func NewRegistry(fallback Resolver) *Registry {
	if fallback == nil {
		fallback = Empty
	}
	return &Registry{fallback: fallback, mods: map[string]value.Value{}}
}

// Register binds a module's exported Dict to a name. mod must be a
// KDict value; SPEC_FULL.md §B's host modules all build one via
// value.NewDict/value.DictOf.
func (r *Registry) Register(name string, mod value.Value) {
	r.mods[name] = mod
}

func (r *Registry) Resolve(path string) (value.Value, error) {
	if mod, ok := r.mods[path]; ok {
		return mod, nil
	}
	return r.fallback.Resolve(path)
}

// Default returns a Registry with every SPEC_FULL.md §B host module
// registered under its spec-given name: json, uuid, humanize, ws, db,
// falling through to Empty for anything else.
func Default() *Registry {
	return DefaultWithFallback(Empty)
}

// DefaultWithFallback is Default with a caller-supplied fallback in
// place of Empty — cmd/aquavm's runVM uses this to chain the host
// modules ahead of a file-based resolver consulting aqua.yaml's
// module_search_path, per SPEC_FULL.md §A.
func DefaultWithFallback(fallback Resolver) *Registry {
	r := NewRegistry(fallback)
	r.Register("json", jsonModule())
	r.Register("uuid", uuidModule())
	r.Register("humanize", humanizeModule())
	r.Register("ws", wsModule())
	r.Register("db", dbModule())
	return r
}
