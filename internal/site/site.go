// ABOUTME: Public JSON endpoints for content type archives, single items and the feed.
// ABOUTME: Applies site_filters, site_sortables, archive overrides and feed inclusion to each query.

package site

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/2389/cpt/internal/caps"
	"github.com/2389/cpt/internal/config"
	"github.com/2389/cpt/internal/content"
	apierrors "github.com/2389/cpt/internal/errors"
	"github.com/2389/cpt/internal/links"
	"github.com/2389/cpt/internal/query"
	"github.com/2389/cpt/internal/registry"
	"github.com/2389/cpt/internal/store"
)

const maxPerPage = 100

// Handlers serves the public API.
type Handlers struct {
	store   *store.Store
	reg     *registry.Registry
	links   *links.Links
	perPage int
}

func NewHandlers(s *store.Store, reg *registry.Registry, l *links.Links, perPage int) *Handlers {
	if perPage <= 0 {
		perPage = 10
	}
	return &Handlers{store: s, reg: reg, links: l, perPage: perPage}
}

func (h *Handlers) RegisterRoutes(r chi.Router) {
	// Flat patterns so plugins can add their own routes under /api.
	r.Get("/api/types", h.listTypes)
	r.Get("/api/types/{type}", h.archive)
	r.Get("/api/types/{type}/{slug}", h.single)
	r.Get("/api/taxonomies/{tax}", h.terms)
	r.Get("/api/taxonomies/{tax}/{slug}", h.termArchive)
	r.Get("/api/feed", h.feed)
}

// TypeJSON describes a public content type.
type TypeJSON struct {
	Key          string            `json:"key"`
	Labels       map[string]string `json:"labels"`
	Slug         string            `json:"slug"`
	Hierarchical bool              `json:"hierarchical"`
	HasArchive   bool              `json:"has_archive"`
	Archive      string            `json:"archive,omitempty"`
	Taxonomies   []string          `json:"taxonomies"`
	Filters      []string          `json:"filters"`
	Sortables    []string          `json:"sortables"`
}

// ItemJSON is one item as served to the front end.
type ItemJSON struct {
	ID            int64                 `json:"id"`
	Type          string                `json:"type"`
	Slug          string                `json:"slug"`
	Title         string                `json:"title"`
	Excerpt       string                `json:"excerpt,omitempty"`
	Content       string                `json:"content,omitempty"`
	Date          string                `json:"date"`
	Modified      string                `json:"modified"`
	Link          string                `json:"link"`
	Author        string                `json:"author,omitempty"`
	MenuOrder     int                   `json:"menu_order"`
	Meta          map[string][]string   `json:"meta,omitempty"`
	Terms         map[string][]TermJSON `json:"terms,omitempty"`
	FeaturedImage *content.Image        `json:"featured_image,omitempty"`
}

// TermJSON is a term reference on an item or in a term listing.
type TermJSON struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	Parent      int64  `json:"parent,omitempty"`
	Link        string `json:"link,omitempty"`
}

// ListJSON is a page of items.
type ListJSON struct {
	Items []ItemJSON `json:"items"`
	Total int        `json:"total"`
	Page  int        `json:"page"`
	Pages int        `json:"pages"`
}

func (h *Handlers) listTypes(w http.ResponseWriter, r *http.Request) {
	out := []TypeJSON{}
	for _, ct := range h.reg.ContentTypes() {
		if !ct.Public {
			continue
		}
		tj := TypeJSON{
			Key:          ct.Key,
			Labels:       ct.Labels,
			Slug:         ct.Names.Slug,
			Hierarchical: ct.Hierarchical,
			HasArchive:   ct.HasArchive,
			Taxonomies:   []string{},
			Filters:      ct.SiteFilters.IDs(),
			Sortables:    ct.SiteSortables.IDs(),
		}
		if ct.HasArchive {
			tj.Archive = h.links.Archive(ct)
		}
		for _, tax := range h.reg.TaxonomiesFor(ct.Key) {
			if tax.Public {
				tj.Taxonomies = append(tj.Taxonomies, tax.Key)
			}
		}
		if tj.Filters == nil {
			tj.Filters = []string{}
		}
		if tj.Sortables == nil {
			tj.Sortables = []string{}
		}
		out = append(out, tj)
	}
	writeJSON(w, out)
}

// publicType resolves the {type} URL param to a public content type.
func (h *Handlers) publicType(w http.ResponseWriter, r *http.Request) (*config.ContentType, bool) {
	key := chi.URLParam(r, "type")
	ct, ok := h.reg.ContentType(key)
	if !ok || !ct.Public {
		apierrors.WriteErrorWithField(w, http.StatusNotFound, apierrors.ErrNotFound,
			fmt.Sprintf("content type %q not found", key), "type")
		return nil, false
	}
	return ct, true
}

func (h *Handlers) archive(w http.ResponseWriter, r *http.Request) {
	ct, ok := h.publicType(w, r)
	if !ok {
		return
	}
	q := h.archiveQuery(ct, publicVars(r), caps.FromContext(r.Context()))
	h.writeList(w, r, q)
}

// archiveQuery builds the public listing query for ct. Archive overrides
// are applied first so filters and sorting see the overridden vars.
func (h *Handlers) archiveQuery(ct *config.ContentType, public map[string]string, user caps.Checker) *query.Query {
	q := query.New([]string{ct.Key}, public)
	query.ApplyArchive(q, ct.Key, ct.Archive)
	q.Statuses = []string{"publish"}

	if ct.SiteFilters.Len() > 0 {
		query.FilterVars(q.Public, ct.SiteFilters, user).ApplyTo(q)
	}
	if len(ct.ExtendSearch) > 0 {
		query.ExtendSearch(q.Search, ct.ExtendSearch).ApplyTo(q)
	}
	if s, ok := query.Requested(q.Public); ok && ct.SiteSortables != nil {
		query.SortFieldVars(s, ct.SiteSortables).ApplyTo(q)
		if clauses, ok := query.TaxonomySortClauses(s, ct.SiteSortables, query.DefaultTables); ok {
			q.Clauses.Merge(clauses)
		}
	}
	query.TermVars(q, h.termVars(ct.Key))
	h.page(q)
	return q
}

func (h *Handlers) termVars(contentType string) map[string]string {
	vars := map[string]string{}
	for _, tax := range h.reg.TaxonomiesFor(contentType) {
		if tax.Public {
			vars[tax.Key] = tax.QueryVar
		}
	}
	return vars
}

// page sets the limit and offset from the per_page and paged vars.
func (h *Handlers) page(q *query.Query) {
	perPage := h.perPage
	if n := atoi(q.Public["per_page"]); n > 0 {
		perPage = min(n, maxPerPage)
	}
	q.Limit = perPage
	q.Offset = (max(1, atoi(q.Public["paged"])) - 1) * perPage
}

func (h *Handlers) single(w http.ResponseWriter, r *http.Request) {
	ct, ok := h.publicType(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	slug := chi.URLParam(r, "slug")
	it, err := h.store.ItemBySlug(ctx, ct.Key, slug)
	if err != nil {
		apierrors.Write(w, err)
		return
	}
	if it.Status != "publish" {
		apierrors.WriteError(w, http.StatusNotFound, apierrors.ErrNotFound,
			fmt.Sprintf("%s %q not found", ct.Key, slug))
		return
	}
	out, err := h.itemJSON(ctx, it, true)
	if err != nil {
		apierrors.Write(w, err)
		return
	}
	writeJSON(w, out)
}

func (h *Handlers) terms(w http.ResponseWriter, r *http.Request) {
	tax, ok := h.publicTaxonomy(w, r)
	if !ok {
		return
	}
	terms, err := h.store.TaxonomyTerms(r.Context(), tax.Key)
	if err != nil {
		apierrors.Write(w, err)
		return
	}
	out := make([]TermJSON, 0, len(terms))
	for _, t := range terms {
		out = append(out, h.termJSON(tax, t))
	}
	writeJSON(w, out)
}

func (h *Handlers) termArchive(w http.ResponseWriter, r *http.Request) {
	tax, ok := h.publicTaxonomy(w, r)
	if !ok {
		return
	}
	slug := chi.URLParam(r, "slug")
	if _, err := h.store.TermBySlug(r.Context(), tax.Key, slug); err != nil {
		apierrors.Write(w, err)
		return
	}
	q := query.New(tax.ObjectTypes, publicVars(r))
	q.Statuses = []string{"publish"}
	q.Terms[tax.Key] = slug
	h.page(q)
	h.writeList(w, r, q)
}

func (h *Handlers) publicTaxonomy(w http.ResponseWriter, r *http.Request) (*config.Taxonomy, bool) {
	key := chi.URLParam(r, "tax")
	tax, ok := h.reg.Taxonomy(key)
	if !ok || !tax.Public {
		apierrors.WriteErrorWithField(w, http.StatusNotFound, apierrors.ErrNotFound,
			fmt.Sprintf("taxonomy %q not found", key), "taxonomy")
		return nil, false
	}
	return tax, true
}

// feed lists the newest published items of the feed types. post_type may
// name types as a comma separated list; every content type with
// show_in_feed joins the request.
func (h *Handlers) feed(w http.ResponseWriter, r *http.Request) {
	public := publicVars(r)
	var types []string
	for _, t := range strings.Split(public["post_type"], ",") {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, t)
		}
	}
	q := query.New(types, public)
	q.Feed = true
	for _, ct := range h.reg.ContentTypes() {
		if ct.ShowInFeed {
			query.IncludeInFeed(q, ct.Key)
		}
	}
	if len(q.Types) == 0 {
		q.Types = []string{"post"}
	}
	q.Statuses = []string{"publish"}
	q.OrderBy, q.Order = "date", "DESC"
	h.page(q)
	h.writeList(w, r, q)
}

func (h *Handlers) writeList(w http.ResponseWriter, r *http.Request, q *query.Query) {
	ctx := r.Context()
	items, total, err := h.store.Items(ctx, q)
	if err != nil {
		log.Printf("Error listing %v: %v", q.Types, err)
		apierrors.Write(w, err)
		return
	}
	out := ListJSON{Items: make([]ItemJSON, 0, len(items)), Total: total, Page: max(1, atoi(q.Public["paged"]))}
	if q.Limit > 0 {
		out.Pages = (total + q.Limit - 1) / q.Limit
	}
	for _, it := range items {
		ij, err := h.itemJSON(ctx, it, false)
		if err != nil {
			apierrors.Write(w, err)
			return
		}
		out.Items = append(out.Items, ij)
	}
	writeJSON(w, out)
}

// itemJSON serializes it. full adds the content, public meta and terms.
func (h *Handlers) itemJSON(ctx context.Context, it *content.Item, full bool) (ItemJSON, error) {
	out := ItemJSON{
		ID:        it.ID,
		Type:      it.Type,
		Slug:      it.Slug,
		Title:     it.Title,
		Excerpt:   it.Excerpt,
		Date:      it.Date.Format(time.RFC3339),
		Modified:  it.Modified.Format(time.RFC3339),
		Link:      h.links.Permalink(ctx, it),
		MenuOrder: it.MenuOrder,
	}
	if name, err := h.store.UserName(ctx, it.AuthorID); err == nil {
		out.Author = name
	}
	img, err := h.store.Thumbnail(ctx, it.ID, "full")
	if err != nil {
		return out, err
	}
	out.FeaturedImage = img
	if !full {
		return out, nil
	}

	out.Content = it.Content
	if out.Meta, err = h.store.Meta(ctx, it.ID); err != nil {
		return out, err
	}
	for _, tax := range h.reg.TaxonomiesFor(it.Type) {
		if !tax.Public {
			continue
		}
		terms, err := h.store.Terms(ctx, it.ID, tax.Key)
		if err != nil {
			return out, err
		}
		if len(terms) == 0 {
			continue
		}
		if out.Terms == nil {
			out.Terms = map[string][]TermJSON{}
		}
		for _, t := range terms {
			out.Terms[tax.Key] = append(out.Terms[tax.Key], h.termJSON(tax, t))
		}
	}
	return out, nil
}

func (h *Handlers) termJSON(tax *config.Taxonomy, t content.Term) TermJSON {
	return TermJSON{
		ID:          t.ID,
		Name:        t.Name,
		Slug:        t.Slug,
		Description: t.Description,
		Parent:      t.Parent,
		Link:        h.links.TermArchive(tax, t),
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// publicVars flattens the query string to its first value per name.
func publicVars(r *http.Request) map[string]string {
	out := map[string]string{}
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
