// ABOUTME: Translates filter descriptors plus public request vars into meta clauses.
// ABOUTME: Taxonomy filters are left to the store's own term matching.

package query

import (
	"github.com/2389/cpt/internal/caps"
	"github.com/2389/cpt/internal/schema"
)

// FilterVars returns the meta clauses for every filter in filters whose id
// carries a value in public. "" and "0" count as unset. Filters naming a
// capability the user lacks are skipped.
func FilterVars(public map[string]string, filters *schema.FilterSet, user caps.Checker) Modification {
	var mod Modification
	filters.Each(func(id string, f schema.Filter) {
		value, ok := public[id]
		if !ok || value == "" || value == "0" {
			return
		}
		base := f.Common()
		if base.Capability != "" && (user == nil || !user.Can(base.Capability)) {
			return
		}

		var clause MetaClause
		switch f := f.(type) {
		case schema.MetaEquals:
			clause = MetaClause{Key: f.MetaKey, Value: value}
		case schema.MetaLike:
			clause = MetaClause{Key: f.MetaSearchKey, Value: value, Compare: "LIKE"}
		case schema.MetaExists:
			// The submitted value names the meta key to test.
			if _, known := f.Candidates.Get(value); !known {
				return
			}
			clause = MetaClause{Key: value, Compare: "NOT IN", Values: append([]string(nil), EmptyValues...)}
		case schema.TaxonomyFilter:
			return
		default:
			return
		}
		applyExtra(&clause, base.MetaQuery)
		mod.MetaQuery = append(mod.MetaQuery, clause)
	})
	return mod
}

// applyExtra merges a filter's meta_query map over the generated clause.
func applyExtra(c *MetaClause, extra map[string]string) {
	for k, v := range extra {
		switch k {
		case "key":
			c.Key = v
		case "value":
			c.Value = v
			c.Values = nil
		case "compare":
			c.Compare = upper(v)
		case "type":
			c.Type = upper(v)
		}
	}
}

// ExtendSearch turns a non-blank search term into a LIKE condition over
// keys and clears the search, so the term matches meta values instead of
// titles and content.
func ExtendSearch(search string, keys []string) Modification {
	if isBlank(search) || len(keys) == 0 {
		return Modification{}
	}
	cleared := ""
	return Modification{
		MetaQuery: []MetaClause{{
			Keys:    append([]string(nil), keys...),
			Value:   search,
			Compare: "LIKE",
		}},
		Search: &cleared,
	}
}
