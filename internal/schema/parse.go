// ABOUTME: Parses loosely typed descriptor maps (from YAML or Go literals) into typed sets.
// ABOUTME: Entries without exactly one discriminant are reported as invalid and skipped.

package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/2389/cpt/internal/names"
)

// ErrInvalidDescriptor marks a descriptor that could not be interpreted.
var ErrInvalidDescriptor = errors.New("invalid descriptor")

// DescriptorError describes one skipped descriptor.
type DescriptorError struct {
	Family string // "filter" or "column"
	ID     string
	Reason string
}

func (e *DescriptorError) Error() string {
	return fmt.Sprintf("invalid %s descriptor %q: %s", e.Family, e.ID, e.Reason)
}

func (e *DescriptorError) Unwrap() error {
	return ErrInvalidDescriptor
}

// Funcs resolves named cell functions referenced by loose column descriptors.
type Funcs map[string]CellFunc

type entry struct {
	key   string
	value any
}

// entries lists the key/value pairs of a loose map, keeping insertion order
// for ordered maps and falling back to sorted keys for plain maps.
func entries(raw any) ([]entry, bool) {
	switch m := raw.(type) {
	case *orderedmap.OrderedMap[string, any]:
		out := make([]entry, 0, m.Len())
		for p := m.Oldest(); p != nil; p = p.Next() {
			out = append(out, entry{p.Key, p.Value})
		}
		return out, true
	case *orderedmap.OrderedMap[string, string]:
		out := make([]entry, 0, m.Len())
		for p := m.Oldest(); p != nil; p = p.Next() {
			out = append(out, entry{p.Key, p.Value})
		}
		return out, true
	case nil:
		return nil, false
	}

	plain, err := cast.ToStringMapE(raw)
	if err != nil {
		return nil, false
	}
	keys := make([]string, 0, len(plain))
	for k := range plain {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]entry, 0, len(keys))
	for _, k := range keys {
		out = append(out, entry{k, plain[k]})
	}
	return out, true
}

func fieldMap(es []entry) map[string]any {
	m := make(map[string]any, len(es))
	for _, e := range es {
		m[e.key] = e.value
	}
	return m
}

func present(fields map[string]any, keys ...string) []string {
	var found []string
	for _, k := range keys {
		if v, ok := fields[k]; ok && v != nil {
			found = append(found, k)
		}
	}
	return found
}

// ParseFilters turns raw into a FilterSet. raw may already be a *FilterSet
// (it is cloned), an ordered map, or a plain map. Invalid entries are
// returned as *DescriptorError values and left out of the set.
func ParseFilters(raw any) (*FilterSet, []error) {
	if set, ok := raw.(*FilterSet); ok {
		return set.Clone(), nil
	}
	out := Filters()
	if raw == nil {
		return out, nil
	}
	es, ok := entries(raw)
	if !ok {
		return out, []error{&DescriptorError{Family: "filter", ID: "*", Reason: fmt.Sprintf("expected a map, got %T", raw)}}
	}

	var errs []error
	for _, e := range es {
		if b, ok := e.value.(bool); ok {
			out.Toggle(e.key, b)
			continue
		}
		f, err := parseFilter(e.key, e.value)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out.Add(e.key, f)
	}
	return out, errs
}

func parseFilter(id string, raw any) (Filter, error) {
	if f, ok := raw.(Filter); ok {
		return f, nil
	}
	es, ok := entries(raw)
	if !ok {
		return nil, &DescriptorError{Family: "filter", ID: id, Reason: fmt.Sprintf("expected a map, got %T", raw)}
	}
	fields := fieldMap(es)

	kinds := present(fields, string(KindMetaEquals), string(KindMetaLike), string(KindMetaExists), string(KindTaxonomy))
	switch len(kinds) {
	case 0:
		return nil, &DescriptorError{Family: "filter", ID: id, Reason: "no meta_key, meta_search_key, meta_exists or taxonomy"}
	case 1:
	default:
		return nil, &DescriptorError{Family: "filter", ID: id, Reason: "conflicting keys " + strings.Join(kinds, ", ")}
	}

	base := FilterBase{
		Title:      cast.ToString(fields["title"]),
		Capability: cast.ToString(fields["cap"]),
	}
	if mq, ok := fields["meta_query"]; ok {
		base.MetaQuery = cast.ToStringMapString(mq)
	}

	switch FilterKind(kinds[0]) {
	case KindMetaEquals:
		f := MetaEquals{FilterBase: base, MetaKey: cast.ToString(fields["meta_key"])}
		if opts, ok := fields["options"]; ok {
			list, err := cast.ToStringSliceE(opts)
			if err != nil {
				return nil, &DescriptorError{Family: "filter", ID: id, Reason: "options must be a list"}
			}
			f.Options = list
		}
		if v, ok := fields["value_as_key"]; ok && !cast.ToBool(v) {
			f.KeyMode = ByIndex
		}
		if fn, ok := fields["options_callback"].(OptionsFunc); ok {
			f.OptionsFunc = fn
		}
		return f, nil

	case KindMetaLike:
		return MetaLike{FilterBase: base, MetaSearchKey: cast.ToString(fields["meta_search_key"])}, nil

	case KindMetaExists:
		candidates := orderedmap.New[string, string]()
		if ces, ok := entries(fields["meta_exists"]); ok {
			for _, c := range ces {
				candidates.Set(c.key, cast.ToString(c.value))
			}
		} else if list, err := cast.ToStringSliceE(fields["meta_exists"]); err == nil {
			for _, key := range list {
				candidates.Set(key, names.Humanize(key))
			}
		}
		if candidates.Len() == 0 {
			return nil, &DescriptorError{Family: "filter", ID: id, Reason: "meta_exists has no candidates"}
		}
		return MetaExists{FilterBase: base, Candidates: candidates}, nil

	case KindTaxonomy:
		return TaxonomyFilter{FilterBase: base, Taxonomy: cast.ToString(fields["taxonomy"])}, nil
	}
	return nil, &DescriptorError{Family: "filter", ID: id, Reason: "unknown kind"}
}

// ParseColumns turns raw into a ColumnSet. String values become Builtin
// columns; nil and false values are dropped. funcs resolves "function" names.
func ParseColumns(raw any, funcs Funcs) (*ColumnSet, []error) {
	if set, ok := raw.(*ColumnSet); ok {
		return set.Clone(), nil
	}
	out := Columns()
	if raw == nil {
		return out, nil
	}
	es, ok := entries(raw)
	if !ok {
		return out, []error{&DescriptorError{Family: "column", ID: "*", Reason: fmt.Sprintf("expected a map, got %T", raw)}}
	}

	var errs []error
	for _, e := range es {
		switch v := e.value.(type) {
		case nil:
			continue
		case bool:
			if !v {
				continue
			}
			errs = append(errs, &DescriptorError{Family: "column", ID: e.key, Reason: "true is not a column"})
			continue
		case string:
			if v == "" {
				continue
			}
			out.Add(e.key, Builtin{Ref: v, Title: v})
			continue
		}
		c, err := parseColumn(e.key, e.value, funcs)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out.Add(e.key, c)
	}
	return out, errs
}

func parseColumn(id string, raw any, funcs Funcs) (Column, error) {
	if c, ok := raw.(Column); ok {
		return c, nil
	}
	es, ok := entries(raw)
	if !ok {
		return nil, &DescriptorError{Family: "column", ID: id, Reason: fmt.Sprintf("expected a map, got %T", raw)}
	}
	fields := fieldMap(es)

	kinds := present(fields,
		string(KindFunction), string(KindMetaValue), string(KindTaxonomyColumn),
		string(KindPostField), string(KindFeaturedImage), string(KindRelation))

	kind := ""
	switch {
	case len(kinds) == 0:
		return nil, &DescriptorError{Family: "column", ID: id, Reason: "no function, meta_key, taxonomy, post_field, featured_image or relation"}
	case len(kinds) == 1:
		kind = kinds[0]
	case len(kinds) == 2 && kinds[0] == string(KindFunction) && kinds[1] == string(KindMetaValue):
		kind = string(KindFunction)
	default:
		return nil, &DescriptorError{Family: "column", ID: id, Reason: "conflicting keys " + strings.Join(kinds, ", ")}
	}

	base := ColumnBase{
		Title:          cast.ToString(fields["title"]),
		Default:        cast.ToString(fields["default"]),
		Capability:     cast.ToString(fields["cap"]),
		PostCapability: cast.ToString(fields["post_cap"]),
	}
	if v, ok := fields["sortable"]; ok && !cast.ToBool(v) {
		base.Unsortable = true
	}
	if v, ok := fields["link"]; ok {
		if b, isBool := v.(bool); isBool && !b {
			base.Link = LinkNone
		} else {
			base.Link = LinkMode(cast.ToString(v))
		}
	}

	switch ColumnKind(kind) {
	case KindFunction:
		c := CustomFunction{ColumnBase: base, MetaKey: cast.ToString(fields["meta_key"])}
		switch fn := fields["function"].(type) {
		case CellFunc:
			c.Fn = fn
		case func(CellContext) string:
			c.Fn = fn
		case string:
			c.Fn = funcs[fn]
		}
		if c.Fn == nil {
			return nil, &DescriptorError{Family: "column", ID: id, Reason: fmt.Sprintf("unknown function %v", fields["function"])}
		}
		return c, nil

	case KindMetaValue:
		return MetaValue{
			ColumnBase:     base,
			MetaKey:        cast.ToString(fields["meta_key"]),
			DateFormat:     cast.ToString(fields["date_format"]),
			BooleanDisplay: cast.ToBool(fields["true_false"]),
		}, nil

	case KindTaxonomyColumn:
		return TaxonomyColumn{ColumnBase: base, Taxonomy: cast.ToString(fields["taxonomy"])}, nil

	case KindPostField:
		return PostField{
			ColumnBase: base,
			Field:      cast.ToString(fields["post_field"]),
			DateFormat: cast.ToString(fields["date_format"]),
		}, nil

	case KindFeaturedImage:
		return FeaturedImage{
			ColumnBase: base,
			Size:       cast.ToString(fields["featured_image"]),
			Width:      cast.ToString(fields["width"]),
			Height:     cast.ToString(fields["height"]),
		}, nil

	case KindRelation:
		return Relation{ColumnBase: base, MetaKey: cast.ToString(fields["relation"])}, nil
	}
	return nil, &DescriptorError{Family: "column", ID: id, Reason: "unknown kind"}
}
