// ABOUTME: Ordered, id-keyed sets of filter and column descriptors.
// ABOUTME: Sets are built once at definition time and only read afterwards.

package schema

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// FilterSet is an ordered set of filters keyed by filter id. Boolean entries
// such as {"month": false} are kept as toggles for the host's own controls.
type FilterSet struct {
	filters *orderedmap.OrderedMap[string, Filter]
	toggles map[string]bool
}

// Filters returns an empty FilterSet.
func Filters() *FilterSet {
	return &FilterSet{
		filters: orderedmap.New[string, Filter](),
		toggles: map[string]bool{},
	}
}

// Add appends f under id, replacing any earlier filter with that id.
func (s *FilterSet) Add(id string, f Filter) *FilterSet {
	s.filters.Set(id, f)
	return s
}

// Toggle records a host control switch such as "month" or "seo".
func (s *FilterSet) Toggle(name string, on bool) *FilterSet {
	s.toggles[name] = on
	return s
}

// Get returns the filter with id.
func (s *FilterSet) Get(id string) (Filter, bool) {
	if s == nil {
		return nil, false
	}
	return s.filters.Get(id)
}

// Toggled reports the value of a host control switch and whether it was set.
func (s *FilterSet) Toggled(name string) (on bool, set bool) {
	if s == nil {
		return false, false
	}
	on, set = s.toggles[name]
	return on, set
}

// Len returns the number of filters, not counting toggles.
func (s *FilterSet) Len() int {
	if s == nil {
		return 0
	}
	return s.filters.Len()
}

// IDs returns the filter ids in declaration order.
func (s *FilterSet) IDs() []string {
	var ids []string
	s.Each(func(id string, _ Filter) {
		ids = append(ids, id)
	})
	return ids
}

// Each calls fn for every filter in declaration order.
func (s *FilterSet) Each(fn func(id string, f Filter)) {
	if s == nil {
		return
	}
	for p := s.filters.Oldest(); p != nil; p = p.Next() {
		fn(p.Key, p.Value)
	}
}

// Clone returns a copy that shares the (immutable) filter values.
func (s *FilterSet) Clone() *FilterSet {
	out := Filters()
	if s == nil {
		return out
	}
	s.Each(func(id string, f Filter) {
		out.filters.Set(id, f)
	})
	for k, v := range s.toggles {
		out.toggles[k] = v
	}
	return out
}

// ColumnSet is an ordered set of columns keyed by column id.
type ColumnSet struct {
	columns *orderedmap.OrderedMap[string, Column]
}

// Columns returns an empty ColumnSet.
func Columns() *ColumnSet {
	return &ColumnSet{columns: orderedmap.New[string, Column]()}
}

// Add appends c under id, replacing any earlier column with that id.
func (s *ColumnSet) Add(id string, c Column) *ColumnSet {
	s.columns.Set(id, c)
	return s
}

// Get returns the column with id.
func (s *ColumnSet) Get(id string) (Column, bool) {
	if s == nil {
		return nil, false
	}
	return s.columns.Get(id)
}

// Len returns the number of columns.
func (s *ColumnSet) Len() int {
	if s == nil {
		return 0
	}
	return s.columns.Len()
}

// IDs returns the column ids in declaration order.
func (s *ColumnSet) IDs() []string {
	var ids []string
	s.Each(func(id string, _ Column) {
		ids = append(ids, id)
	})
	return ids
}

// Each calls fn for every column in declaration order.
func (s *ColumnSet) Each(fn func(id string, c Column)) {
	if s == nil {
		return
	}
	for p := s.columns.Oldest(); p != nil; p = p.Next() {
		fn(p.Key, p.Value)
	}
}

// Clone returns a copy that shares the (immutable) column values.
func (s *ColumnSet) Clone() *ColumnSet {
	out := Columns()
	s.Each(func(id string, c Column) {
		out.columns.Set(id, c)
	})
	return out
}
