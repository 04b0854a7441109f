// ABOUTME: Translates sortable column descriptors into sort vars or taxonomy SQL clauses.
// ABOUTME: Taxonomy sorting groups by item and orders by the item's concatenated term names.

package query

import (
	"fmt"
	"strings"

	"github.com/2389/cpt/internal/schema"
)

// Sort is a requested or default ordering: a sortable id and a direction.
type Sort struct {
	ID    string
	Order string
}

// Requested returns the orderby and order public vars.
func Requested(public map[string]string) (Sort, bool) {
	id, ok := public["orderby"]
	if !ok || id == "" {
		return Sort{}, false
	}
	return Sort{ID: id, Order: public["order"]}, true
}

// DefaultSort returns the first column in declaration order that declares a
// default direction. The direction is "desc" when the declared default is
// desc (any case), otherwise "asc".
func DefaultSort(cols *schema.ColumnSet) (Sort, bool) {
	var (
		found Sort
		ok    bool
	)
	cols.Each(func(id string, c schema.Column) {
		if ok {
			return
		}
		def := c.Common().Default
		if def == "" {
			return
		}
		order := "asc"
		if strings.EqualFold(def, "desc") {
			order = "desc"
		}
		found, ok = Sort{ID: id, Order: order}, true
	})
	return found, ok
}

// sortKey returns the sort key of the sortable named by s.
func sortKey(s Sort, sortables *schema.ColumnSet) (schema.SortKey, bool) {
	if s.ID == "" {
		return schema.SortKey{}, false
	}
	col, ok := sortables.Get(s.ID)
	if !ok {
		return schema.SortKey{}, false
	}
	return schema.SortKeyOf(col)
}

// SortFieldVars returns the orderby vars for s: meta_value plus the meta key
// for meta sortables, the field name for post field sortables. Unknown or
// unsortable ids give an empty Modification.
func SortFieldVars(s Sort, sortables *schema.ColumnSet) Modification {
	key, ok := sortKey(s, sortables)
	if !ok {
		return Modification{}
	}
	var mod Modification
	switch {
	case key.MetaKey != "":
		mod.OrderBy = "meta_value"
		mod.MetaKey = key.MetaKey
	case key.PostField != "":
		mod.OrderBy = strings.TrimPrefix(key.PostField, "post_")
	default:
		return Modification{}
	}
	mod.Order = s.Order
	return mod
}

// Aliases used by the taxonomy sort joins. Chosen not to collide with the
// store's own aliases.
const (
	aliasRelationships = "cpt_tr"
	aliasTaxonomy      = "cpt_tt"
	aliasTerms         = "cpt_t"
)

// TaxonomySortClauses returns the join, where, group by and order by needed
// to sort by the terms of a taxonomy sortable. ok is false when s does not
// name a sortable taxonomy column.
func TaxonomySortClauses(s Sort, sortables *schema.ColumnSet, t Tables) (Clauses, bool) {
	key, ok := sortKey(s, sortables)
	if !ok || key.Taxonomy == "" {
		return Clauses{}, false
	}

	dir := "DESC"
	if strings.EqualFold(s.Order, "asc") {
		dir = "ASC"
	}

	return Clauses{
		Join: []string{
			fmt.Sprintf("LEFT OUTER JOIN %s AS %s ON (%s.id = %s.object_id)", t.TermRelationships, aliasRelationships, t.Posts, aliasRelationships),
			fmt.Sprintf("LEFT OUTER JOIN %s AS %s ON (%s.term_taxonomy_id = %s.term_taxonomy_id)", t.TermTaxonomy, aliasTaxonomy, aliasRelationships, aliasTaxonomy),
			fmt.Sprintf("LEFT OUTER JOIN %s AS %s ON (%s.term_id = %s.term_id)", t.Terms, aliasTerms, aliasTaxonomy, aliasTerms),
		},
		Where: []Predicate{{
			SQL:  fmt.Sprintf("(%s.taxonomy = ? OR %s.taxonomy IS NULL)", aliasTaxonomy, aliasTaxonomy),
			Args: []any{key.Taxonomy},
		}},
		GroupBy: t.Posts + ".id",
		OrderBy: fmt.Sprintf("GROUP_CONCAT(%s.name, ',' ORDER BY %s.name ASC) %s", aliasTerms, aliasTerms, dir),
	}, true
}
