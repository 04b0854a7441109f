// ABOUTME: Registry of resolved content types and taxonomies, filled at startup and read per request.
// ABOUTME: Entries are replaced whole, never mutated; Reset exists for test isolation.

package registry

import (
	"errors"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/2389/cpt/internal/config"
)

// ErrFrozen is returned when registering after Freeze.
var ErrFrozen = errors.New("registry is frozen")

// Registry holds the effective configuration of every defined content type
// and taxonomy, in definition order.
type Registry struct {
	mu     sync.RWMutex
	types  *orderedmap.OrderedMap[string, *config.ContentType]
	taxes  *orderedmap.OrderedMap[string, *config.Taxonomy]
	frozen bool
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		types: orderedmap.New[string, *config.ContentType](),
		taxes: orderedmap.New[string, *config.Taxonomy](),
	}
}

// ContentType returns the content type registered under key.
func (r *Registry) ContentType(key string) (*config.ContentType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.types.Get(key)
}

// Taxonomy returns the taxonomy registered under key.
func (r *Registry) Taxonomy(key string) (*config.Taxonomy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.taxes.Get(key)
}

// ContentTypes returns every content type in definition order.
func (r *Registry) ContentTypes() []*config.ContentType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*config.ContentType, 0, r.types.Len())
	for p := r.types.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Value)
	}
	return out
}

// Taxonomies returns every taxonomy in definition order.
func (r *Registry) Taxonomies() []*config.Taxonomy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*config.Taxonomy, 0, r.taxes.Len())
	for p := r.taxes.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Value)
	}
	return out
}

// TaxonomiesFor returns the taxonomies attached to contentType.
func (r *Registry) TaxonomiesFor(contentType string) []*config.Taxonomy {
	var out []*config.Taxonomy
	for _, t := range r.Taxonomies() {
		if t.AttachedTo(contentType) {
			out = append(out, t)
		}
	}
	return out
}

// ContentTypeByQueryVar returns the content type using queryVar.
func (r *Registry) ContentTypeByQueryVar(queryVar string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for p := r.types.Oldest(); p != nil; p = p.Next() {
		if p.Value.QueryVar == queryVar {
			return p.Key, true
		}
	}
	return "", false
}

// TaxonomyByQueryVar returns the taxonomy using queryVar.
func (r *Registry) TaxonomyByQueryVar(queryVar string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for p := r.taxes.Oldest(); p != nil; p = p.Next() {
		if p.Value.QueryVar == queryVar {
			return p.Key, true
		}
	}
	return "", false
}

// putContentType stores ct, replacing any earlier entry under the same key.
func (r *Registry) putContentType(ct *config.ContentType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return ErrFrozen
	}
	r.types.Set(ct.Key, ct)
	return nil
}

func (r *Registry) putTaxonomy(t *config.Taxonomy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return ErrFrozen
	}
	r.taxes.Set(t.Key, t)
	return nil
}

// Freeze stops further registration. Call it once startup definitions are done.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Frozen reports whether Freeze was called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Reset empties and unfreezes the registry.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = orderedmap.New[string, *config.ContentType]()
	r.taxes = orderedmap.New[string, *config.Taxonomy]()
	r.frozen = false
}
