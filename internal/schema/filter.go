// ABOUTME: Filter descriptors for admin and site list screens.
// ABOUTME: A closed set of variants: meta equals, meta like, meta exists and taxonomy.

package schema

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// FilterKind names a filter variant.
type FilterKind string

const (
	KindMetaEquals FilterKind = "meta_key"
	KindMetaLike   FilterKind = "meta_search_key"
	KindMetaExists FilterKind = "meta_exists"
	KindTaxonomy   FilterKind = "taxonomy"
)

// Filter is implemented only by the variants in this package.
type Filter interface {
	Kind() FilterKind
	Common() FilterBase
}

// FilterBase holds the options shared by every filter variant.
type FilterBase struct {
	Title      string
	Capability string
	// MetaQuery is merged into the emitted meta condition (e.g. {"type": "NUMERIC"}).
	MetaQuery map[string]string
}

// OptionKeyMode selects what a MetaEquals dropdown submits for an option.
type OptionKeyMode int

const (
	// ByValue submits the option text itself.
	ByValue OptionKeyMode = iota
	// ByIndex submits the option's position in the option list.
	ByIndex
)

func (m OptionKeyMode) String() string {
	if m == ByIndex {
		return "by_index"
	}
	return "by_value"
}

// OptionsFunc rewrites the option list of a MetaEquals dropdown.
type OptionsFunc func(options []string, metaKey string) []string

// MetaEquals filters items whose meta value for MetaKey equals the submitted value.
type MetaEquals struct {
	FilterBase
	MetaKey string
	// Options fixes the dropdown choices. When nil they are read from stored values.
	Options     []string
	OptionsFunc OptionsFunc
	KeyMode     OptionKeyMode
}

// MetaLike filters items whose meta value for MetaSearchKey contains the submitted text.
type MetaLike struct {
	FilterBase
	MetaSearchKey string
}

// MetaExists offers several meta keys by label. The submitted value is the
// meta key that must carry a non-empty value.
type MetaExists struct {
	FilterBase
	Candidates *orderedmap.OrderedMap[string, string]
}

// TaxonomyFilter filters by a term of Taxonomy using the taxonomy's own query var.
type TaxonomyFilter struct {
	FilterBase
	Taxonomy string
}

func (f MetaEquals) Kind() FilterKind     { return KindMetaEquals }
func (f MetaLike) Kind() FilterKind       { return KindMetaLike }
func (f MetaExists) Kind() FilterKind     { return KindMetaExists }
func (f TaxonomyFilter) Kind() FilterKind { return KindTaxonomy }

func (f MetaEquals) Common() FilterBase     { return f.FilterBase }
func (f MetaLike) Common() FilterBase       { return f.FilterBase }
func (f MetaExists) Common() FilterBase     { return f.FilterBase }
func (f TaxonomyFilter) Common() FilterBase { return f.FilterBase }

// Candidates builds an ordered value-to-label map from alternating pairs:
// Candidates("featured", "Featured", "cancelled", "Cancelled").
func Candidates(pairs ...string) *orderedmap.OrderedMap[string, string] {
	m := orderedmap.New[string, string]()
	for i := 0; i+1 < len(pairs); i += 2 {
		m.Set(pairs[i], pairs[i+1])
	}
	return m
}
