// ABOUTME: Derives the ordered list table columns for a content type.
// ABOUTME: A Pass memoizes the derived set for one render pass and is then discarded.

package columns

import (
	"html"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/2389/cpt/internal/caps"
	"github.com/2389/cpt/internal/config"
	"github.com/2389/cpt/internal/names"
	"github.com/2389/cpt/internal/schema"
)

// DefaultKeep lists the host columns kept when admin_cols does not mention them.
var DefaultKeep = []string{"cb", "title"}

// Header is an ordered column id to column title map.
type Header = orderedmap.OrderedMap[string, string]

// Pass derives columns for one list screen request.
type Pass struct {
	ct     *config.ContentType
	lookup Lookup
	user   caps.Checker
	keep   []string

	cols *Header
}

// NewPass starts a render pass for ct. keep overrides DefaultKeep when not nil.
func NewPass(ct *config.ContentType, lookup Lookup, user caps.Checker, keep []string) *Pass {
	if keep == nil {
		keep = DefaultKeep
	}
	if user == nil {
		user = caps.Set{}
	}
	return &Pass{ct: ct, lookup: lookup, user: user, keep: keep}
}

// Cols returns the columns of the list table. builtin is the host's own
// default column set; current is the set as the host has it now, which may
// include columns added by others. The first result is reused for the rest
// of the pass.
func (p *Pass) Cols(builtin, current *Header) *Header {
	if p.cols != nil {
		return p.cols
	}
	if current == nil {
		current = builtin
	}
	admin := p.ct.AdminCols

	out := orderedmap.New[string, string]()
	for pair := current.Oldest(); pair != nil; pair = pair.Next() {
		if _, configured := admin.Get(pair.Key); configured {
			continue
		}
		if contains(p.keep, pair.Key) {
			out.Set(pair.Key, pair.Value)
		}
	}

	admin.Each(func(id string, col schema.Column) {
		if b, ok := col.(schema.Builtin); ok {
			switch {
			case hasKey(current, b.Ref):
				title, _ := current.Get(b.Ref)
				out.Set(b.Ref, title)
			case hasKey(current, id):
				out.Set(id, html.EscapeString(b.Title))
			case b.Ref == "author":
				out.Set("author", "Author")
			}
			return
		}
		base := col.Common()
		if base.Capability != "" && !p.user.Can(base.Capability) {
			return
		}
		title := base.Title
		if title == "" {
			title = ItemTitle(id, col, p.lookup)
		}
		out.Set(id, html.EscapeString(title))
	})

	// Columns added by others follow, unless admin_cols already decided them.
	for pair := current.Oldest(); pair != nil; pair = pair.Next() {
		if builtin != nil && hasKey(builtin, pair.Key) {
			continue
		}
		if _, configured := admin.Get(pair.Key); configured || hasKey(out, pair.Key) {
			continue
		}
		out.Set(pair.Key, pair.Value)
	}

	p.cols = out
	return out
}

// Column returns the descriptor rendering column id, if admin_cols configures one.
func (p *Pass) Column(id string) (schema.Column, bool) {
	col, ok := p.ct.AdminCols.Get(id)
	if !ok {
		return nil, false
	}
	if b, isBuiltin := col.(schema.Builtin); isBuiltin {
		return b, true
	}
	if cp := col.Common().Capability; cp != "" && !p.user.Can(cp) {
		return nil, false
	}
	return col, true
}

// Sortables returns the ids of admin columns that can sort, in declaration order.
func Sortables(cols *schema.ColumnSet) []string {
	var ids []string
	cols.Each(func(id string, c schema.Column) {
		if _, ok := schema.SortKeyOf(c); ok {
			ids = append(ids, id)
		}
	})
	return ids
}

// ItemTitle derives a column title from its descriptor: the taxonomy's
// singular name when it is exclusive and its plural name otherwise, a post
// field without its post_ prefix, or a humanized meta key.
func ItemTitle(id string, col schema.Column, lookup Lookup) string {
	switch c := col.(type) {
	case schema.TaxonomyColumn:
		tax, ok := lookup.Taxonomy(c.Taxonomy)
		if !ok {
			return c.Taxonomy
		}
		if tax.Exclusive {
			return tax.Labels["singular_name"]
		}
		return tax.Labels["name"]
	case schema.PostField:
		return names.Humanize(strings.TrimSpace(strings.ReplaceAll(c.Field, "post_", " ")))
	case schema.MetaValue:
		return names.Humanize(strings.TrimSpace(c.MetaKey))
	case schema.Relation:
		return names.Humanize(strings.TrimSpace(c.MetaKey))
	case schema.CustomFunction:
		if c.MetaKey != "" {
			return names.Humanize(strings.TrimSpace(c.MetaKey))
		}
	}
	return names.Humanize(id)
}

func hasKey(h *Header, key string) bool {
	if h == nil {
		return false
	}
	_, ok := h.Get(key)
	return ok
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
