// ABOUTME: Renders one list table cell per column descriptor kind.
// ABOUTME: Failures stay inside the cell: they render the empty marker or the error text.

package columns

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/2389/cpt/internal/caps"
	"github.com/2389/cpt/internal/content"
	"github.com/2389/cpt/internal/schema"
)

// EmptyMarker is rendered for cells with nothing to show.
const EmptyMarker = "&#8212;"

var (
	ErrUnresolvedRelation = errors.New("unresolved relation")
	ErrUnresolvedTerm     = errors.New("unresolved term")
)

// Renderer renders cells for items of registered content types.
type Renderer struct {
	Source Source
	Links  Linker
	Lookup Lookup
	// DateFormat is the site date layout used when a column sets none.
	DateFormat string
}

// Cell returns the HTML for col on item as seen by user.
func (r *Renderer) Cell(ctx context.Context, col schema.Column, item *content.Item, user caps.Checker) string {
	if user == nil {
		user = caps.Set{}
	}
	if pc := col.Common().PostCapability; pc != "" && !user.Can(pc) {
		return ""
	}

	switch c := col.(type) {
	case schema.CustomFunction:
		return r.function(ctx, c, item)
	case schema.MetaValue:
		return r.meta(ctx, c, item)
	case schema.TaxonomyColumn:
		return r.taxonomy(ctx, c, item, user)
	case schema.PostField:
		return r.postField(ctx, c.Field, c.DateFormat, item)
	case schema.FeaturedImage:
		return r.featuredImage(ctx, c, item)
	case schema.Relation:
		return r.relation(ctx, c, item, user)
	case schema.Builtin:
		return r.postField(ctx, c.Ref, "", item)
	}
	return ""
}

func (r *Renderer) function(ctx context.Context, c schema.CustomFunction, item *content.Item) string {
	if c.Fn == nil {
		return ""
	}
	var value string
	if c.MetaKey != "" {
		if vals, err := r.Source.MetaValues(ctx, item.ID, c.MetaKey); err == nil && len(vals) > 0 {
			value = vals[0]
		}
	}
	return c.Fn(schema.CellContext{MetaValue: value, ItemID: item.ID, Settings: c})
}

func (r *Renderer) meta(ctx context.Context, c schema.MetaValue, item *content.Item) string {
	vals, err := r.Source.MetaValues(ctx, item.ID, c.MetaKey)
	if err != nil {
		return html.EscapeString(err.Error())
	}
	vals = append([]string(nil), vals...)
	sort.Strings(vals)

	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v == "" {
			continue
		}
		if c.DateFormat != "" {
			t, ok := parseDate(v)
			if !ok {
				continue
			}
			v = t.Format(c.DateFormat)
		}
		out = append(out, v)
	}

	if len(out) == 0 {
		return EmptyMarker
	}
	if c.BooleanDisplay {
		if cast.ToBool(out[0]) {
			return "Yes"
		}
		return "No"
	}
	return html.EscapeString(strings.Join(out, ", "))
}

// parseDate accepts unix timestamps and the date formats cast understands.
func parseDate(v string) (time.Time, bool) {
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Unix(n, 0).UTC(), true
	}
	t, err := cast.ToTimeE(v)
	if err != nil || t.IsZero() {
		return time.Time{}, false
	}
	return t, true
}

func (r *Renderer) taxonomy(ctx context.Context, c schema.TaxonomyColumn, item *content.Item, user caps.Checker) string {
	tax, known := r.Lookup.Taxonomy(c.Taxonomy)
	if !known {
		return html.EscapeString(fmt.Errorf("%w: invalid taxonomy %q", ErrUnresolvedTerm, c.Taxonomy).Error())
	}
	terms, err := r.Source.Terms(ctx, item.ID, c.Taxonomy)
	if err != nil {
		return html.EscapeString(err.Error())
	}
	if len(terms) == 0 {
		return EmptyMarker
	}

	out := make([]string, 0, len(terms))
	for _, term := range terms {
		name := html.EscapeString(term.Name)
		switch c.Link.Resolve() {
		case schema.LinkView:
			if tax.Public {
				out = append(out, anchor(r.Links.TermArchive(tax, term), name))
			} else {
				out = append(out, name)
			}
		case schema.LinkEdit:
			if user.Can(caps.ManageTerms) {
				out = append(out, anchor(r.Links.EditTerm(tax, term, item.Type), name))
			} else {
				out = append(out, name)
			}
		case schema.LinkList:
			qv := tax.QueryVar
			if qv == "" {
				qv = tax.Key
			}
			out = append(out, anchor(r.Links.ListFiltered(item.Type, qv, term.Slug), name))
		default:
			out = append(out, name)
		}
	}
	return strings.Join(out, ", ")
}

func (r *Renderer) postField(ctx context.Context, field, layout string, item *content.Item) string {
	name := strings.TrimPrefix(field, "post_")

	if content.DateFields[name] {
		t, _ := item.Time(name)
		if t.IsZero() {
			return ""
		}
		if layout == "" {
			layout = r.DateFormat
		}
		return html.EscapeString(t.Format(layout))
	}

	switch name {
	case "status":
		return html.EscapeString(content.StatusLabel(item.Status))
	case "author":
		author, err := r.Source.UserName(ctx, item.AuthorID)
		if err != nil {
			return ""
		}
		return html.EscapeString(author)
	case "title":
		return html.EscapeString(item.Title)
	case "excerpt":
		return html.EscapeString(item.Excerpt)
	}
	v, _ := item.Field(name)
	return html.EscapeString(v)
}

func (r *Renderer) featuredImage(ctx context.Context, c schema.FeaturedImage, item *content.Item) string {
	img, err := r.Source.Thumbnail(ctx, item.ID, c.Size)
	if err != nil || img == nil {
		return ""
	}
	style := fmt.Sprintf("width:%s;height:%s", cssLength(c.Width), cssLength(c.Height))
	return fmt.Sprintf(`<img src="%s" alt="%s" style="%s" title="">`,
		html.EscapeString(img.URL), html.EscapeString(img.Alt), html.EscapeString(style))
}

// cssLength turns a bare number into pixels and an empty value into auto.
func cssLength(v string) string {
	if v == "" {
		return "auto"
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return fmt.Sprintf("%dpx", int(n))
	}
	return v
}

func (r *Renderer) relation(ctx context.Context, c schema.Relation, item *content.Item, user caps.Checker) string {
	vals, err := r.Source.MetaValues(ctx, item.ID, c.MetaKey)
	if err != nil {
		return html.EscapeString(err.Error())
	}

	var out []string
	for _, id := range relatedIDs(vals) {
		related, err := r.resolve(ctx, id)
		if err != nil {
			continue
		}
		title := html.EscapeString(related.Title)
		switch c.Link.Resolve() {
		case schema.LinkView:
			out = append(out, anchor(r.Links.Permalink(ctx, related), title))
		case schema.LinkEdit:
			if user.Can(r.editCapability(related.Type)) {
				out = append(out, anchor(r.Links.EditItem(related), title))
			} else {
				out = append(out, title)
			}
		default:
			out = append(out, title)
		}
	}
	if len(out) == 0 {
		return EmptyMarker
	}
	return strings.Join(out, ", ")
}

func (r *Renderer) resolve(ctx context.Context, id int64) (*content.Item, error) {
	it, err := r.Source.Item(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %d: %v", ErrUnresolvedRelation, id, err)
	}
	if it == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnresolvedRelation, id)
	}
	return it, nil
}

func (r *Renderer) editCapability(contentType string) string {
	if ct, ok := r.Lookup.ContentType(contentType); ok {
		return caps.EditPosts(ct.CapabilityType)
	}
	return caps.EditPosts("post")
}

// relatedIDs reads item ids from stored meta values. A value may hold one
// id or a JSON list of ids; lists are flattened one level.
func relatedIDs(vals []string) []int64 {
	var ids []int64
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if strings.HasPrefix(v, "[") {
			var list []any
			if err := json.Unmarshal([]byte(v), &list); err != nil {
				continue
			}
			for _, el := range list {
				if id, err := cast.ToInt64E(el); err == nil && id > 0 {
					ids = append(ids, id)
				}
			}
			continue
		}
		if id, err := cast.ToInt64E(v); err == nil && id > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

func anchor(href, text string) string {
	return fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(href), text)
}
