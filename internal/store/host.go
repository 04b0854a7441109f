// ABOUTME: Content type and taxonomy registrations known to the store.
// ABOUTME: post and page exist from the start; others arrive through the registrar.

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/2389/cpt/internal/config"
	"github.com/2389/cpt/internal/names"
)

// builtinTypes are registered before any definition runs.
var builtinTypes = []string{"post", "page"}

type hostType struct {
	key      string
	queryVar string
	labels   names.Labels
	builtin  bool
	public   bool
}

type hostTaxonomy struct {
	key         string
	queryVar    string
	objectTypes []string
}

type host struct {
	mu    sync.RWMutex
	types map[string]*hostType
	taxes map[string]*hostTaxonomy
}

func newHost() *host {
	h := &host{
		types: map[string]*hostType{},
		taxes: map[string]*hostTaxonomy{},
	}
	for _, key := range builtinTypes {
		n := names.Derive(key, names.Overrides{}, "")
		h.types[key] = &hostType{
			key:      key,
			queryVar: key,
			labels:   names.ContentTypeLabels(n, ""),
			builtin:  true,
			public:   true,
		}
	}
	return h
}

// RegisterContentType records ct. It fails when the key is taken or its
// query var is used by a taxonomy; the latter is a *config.ConflictError.
func (s *Store) RegisterContentType(_ context.Context, ct *config.ContentType) error {
	h := s.host
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.types[ct.Key]; exists {
		return fmt.Errorf("content type %q already registered", ct.Key)
	}
	if ct.QueryVar != "" {
		for _, t := range h.taxes {
			if t.queryVar == ct.QueryVar {
				return &config.ConflictError{Kind: "content type", Key: ct.Key, QueryVar: ct.QueryVar, With: t.key, WithKind: "taxonomy"}
			}
		}
	}
	h.types[ct.Key] = &hostType{key: ct.Key, queryVar: ct.QueryVar, labels: ct.Labels.Clone(), public: ct.Public}
	return nil
}

// RegisterTaxonomy records tax, replacing an earlier registration of the same key.
// A query var owned by a known content type, built-ins included, is a
// *config.ConflictError.
func (s *Store) RegisterTaxonomy(_ context.Context, tax *config.Taxonomy) error {
	h := s.host
	h.mu.Lock()
	defer h.mu.Unlock()

	if tax.QueryVar != "" {
		for _, ct := range h.types {
			if ct.queryVar == tax.QueryVar {
				return &config.ConflictError{Kind: "taxonomy", Key: tax.Key, QueryVar: tax.QueryVar, With: ct.key, WithKind: "content type"}
			}
		}
	}
	h.taxes[tax.Key] = &hostTaxonomy{
		key:         tax.Key,
		queryVar:    tax.QueryVar,
		objectTypes: append([]string(nil), tax.ObjectTypes...),
	}
	return nil
}

// ContentTypeLabels returns the labels of a registered content type.
func (s *Store) ContentTypeLabels(_ context.Context, key string) (names.Labels, bool, error) {
	h := s.host
	h.mu.RLock()
	defer h.mu.RUnlock()

	ct, ok := h.types[key]
	if !ok {
		return nil, false, nil
	}
	return ct.labels.Clone(), true, nil
}

// ExtendContentType replaces the labels of a registered content type.
func (s *Store) ExtendContentType(_ context.Context, key string, labels names.Labels) error {
	h := s.host
	h.mu.Lock()
	defer h.mu.Unlock()

	ct, ok := h.types[key]
	if !ok {
		return fmt.Errorf("content type %q: %w", key, ErrNotFound)
	}
	replaced := *ct
	replaced.labels = labels.Clone()
	h.types[key] = &replaced
	return nil
}

// AttachTaxonomy adds contentType to the object types of taxonomy.
func (s *Store) AttachTaxonomy(_ context.Context, taxonomy, contentType string) error {
	h := s.host
	h.mu.Lock()
	defer h.mu.Unlock()

	t, ok := h.taxes[taxonomy]
	if !ok {
		return fmt.Errorf("taxonomy %q: %w", taxonomy, ErrNotFound)
	}
	for _, ot := range t.objectTypes {
		if ot == contentType {
			return nil
		}
	}
	replaced := *t
	replaced.objectTypes = append(append([]string(nil), t.objectTypes...), contentType)
	h.taxes[taxonomy] = &replaced
	return nil
}

// RegisteredTypes lists the content type keys the store knows, sorted.
func (s *Store) RegisteredTypes() []string {
	h := s.host
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]string, 0, len(h.types))
	for k := range h.types {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// BuiltinType reports whether key is one of the store's own content types.
func (s *Store) BuiltinType(key string) bool {
	h := s.host
	h.mu.RLock()
	defer h.mu.RUnlock()
	ct, ok := h.types[key]
	return ok && ct.builtin
}
