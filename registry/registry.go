// Package registry maps source types to Python annotations.
//
// A Registry is built once from the Builtins table and the capability flags,
// optionally extended with Register, and frozen before use. A Resolver then
// resolves type expressions (Go type syntax) and reflect types against it.
package registry

import (
	"sort"
	"sync"

	"github.com/teranos/pystub/errors"
	"github.com/teranos/pystub/stubtype"
)

// Generic builds an annotation from resolved type arguments.
type Generic func(pos stubtype.Position, policy stubtype.Policy, args []stubtype.TypeInfo) (stubtype.TypeInfo, error)

// Registry holds the name-keyed mappings. It is safe for concurrent lookups;
// registrations are rejected once Freeze has been called.
type Registry struct {
	mu       sync.RWMutex
	caps     Capabilities
	stubs    map[string]stubtype.Stub
	gated    map[string]Gate
	generics map[string]Generic
	frozen   bool
}

// New builds a registry holding every builtin allowed by caps.
func New(caps Capabilities) *Registry {
	r := &Registry{
		caps:     caps,
		stubs:    make(map[string]stubtype.Stub),
		gated:    make(map[string]Gate),
		generics: make(map[string]Generic),
	}
	for _, b := range Builtins {
		for _, name := range b.Names {
			if caps.Allows(b.Gate) {
				r.stubs[name] = b.Stub()
			} else {
				r.gated[name] = b.Gate
			}
		}
	}
	for name, g := range defaultGenerics {
		r.generics[name] = g
	}
	return r
}

// Capabilities returns the flags the registry was built with.
func (r *Registry) Capabilities() Capabilities {
	return r.caps
}

// Register adds a mapping for a source type name.
func (r *Registry) Register(name string, s stubtype.Stub) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return errors.Wrapf(errors.ErrRegistryFrozen, "register %s", name)
	}
	if _, exists := r.stubs[name]; exists {
		return errors.Newf("mapping for %s already registered", name)
	}
	r.stubs[name] = s
	return nil
}

// RegisterGeneric adds a generic form such as "mylib.Array".
func (r *Registry) RegisterGeneric(name string, g Generic) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return errors.Wrapf(errors.ErrRegistryFrozen, "register generic %s", name)
	}
	if _, exists := r.generics[name]; exists {
		return errors.Newf("generic %s already registered", name)
	}
	r.generics[name] = g
	return nil
}

// Freeze rejects further registrations.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Has reports whether name is known, even if gated out by capabilities.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.stubs[name]
	_, gated := r.gated[name]
	return ok || gated
}

// Lookup returns the mapping for name.
func (r *Registry) Lookup(name string) (stubtype.Stub, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if s, ok := r.stubs[name]; ok {
		return s, nil
	}
	if g, ok := r.gated[name]; ok {
		return nil, errors.WithHintf(errors.NewUnmappedTypeError(name),
			"%s needs the %s capability: set runtime.limited_api = false or runtime.bridge_version >= 0.25.0", name, g)
	}
	return nil, errors.NewUnmappedTypeError(name)
}

// Generic returns the generic form registered under name.
func (r *Registry) Generic(name string) (Generic, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.generics[name]
	return g, ok
}

// Entry describes one registered name, for listings.
type Entry struct {
	Name      string
	Output    string
	Input     string
	Available bool
}

// Entries lists every known name in lexicographic order.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(r.stubs)+len(r.gated))
	for name, s := range r.stubs {
		entries = append(entries, Entry{
			Name:      name,
			Output:    stubtype.OutputOf(s).Name(),
			Input:     stubtype.InputOf(s).Name(),
			Available: true,
		})
	}
	for name := range r.gated {
		entries = append(entries, Entry{Name: name})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries
}
