// Package display hands out opaque references to poster bytes held in memory.
//
// A reference is acquired when an enrichment run publishes its result and
// released when that result is superseded or the consumer is done with it.
package display

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

const refScheme = "poster://"

// Ref is an opaque handle of the form poster://<uuid>.
type Ref string

// Valid reports whether r has the expected shape.
func (r Ref) Valid() bool {
	id, ok := strings.CutPrefix(string(r), refScheme)
	if !ok {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

type entry struct {
	data        []byte
	contentType string
}

// Registry tracks live references. The zero value is not usable; call
// NewRegistry.
type Registry struct {
	mu      sync.RWMutex
	entries map[Ref]entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[Ref]entry)}
}

// Acquire stores data and returns a fresh reference to it. Empty data yields
// an empty reference.
func (r *Registry) Acquire(data []byte, contentType string) Ref {
	if len(data) == 0 {
		return ""
	}
	ref := Ref(refScheme + uuid.NewString())
	r.mu.Lock()
	r.entries[ref] = entry{data: data, contentType: contentType}
	r.mu.Unlock()
	return ref
}

// Open returns the bytes behind ref.
func (r *Registry) Open(ref Ref) ([]byte, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[ref]
	if !ok {
		return nil, "", false
	}
	return e.data, e.contentType, true
}

// Release drops ref. Releasing an unknown or empty reference is a no-op.
func (r *Registry) Release(ref Ref) {
	if ref == "" {
		return
	}
	r.mu.Lock()
	delete(r.entries, ref)
	r.mu.Unlock()
}

// ReleaseAll drops every reference in refs.
func (r *Registry) ReleaseAll(refs []Ref) {
	r.mu.Lock()
	for _, ref := range refs {
		delete(r.entries, ref)
	}
	r.mu.Unlock()
}

// Len returns the number of live references.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
