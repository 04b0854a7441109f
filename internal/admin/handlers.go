// ABOUTME: HTTP handlers for admin UI pages.
// ABOUTME: Serves the dashboard, content type list and edit screens, and term screens.

package admin

import (
	"context"
	"html/template"
	"log"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/patrickmn/go-cache"

	"github.com/2389/cpt/internal/caps"
	"github.com/2389/cpt/internal/columns"
	"github.com/2389/cpt/internal/config"
	"github.com/2389/cpt/internal/content"
	"github.com/2389/cpt/internal/links"
	"github.com/2389/cpt/internal/registry"
	"github.com/2389/cpt/internal/store"
	"github.com/2389/cpt/plugins/core"
)

// Options configures the admin screens.
type Options struct {
	// DateFormat and TimeFormat are Go layouts for dates in list cells.
	DateFormat string
	TimeFormat string
	PerPage    int
	// FilterCacheTTL is how long distinct meta values for filter dropdowns are reused.
	FilterCacheTTL time.Duration
}

type Handlers struct {
	store  *store.Store
	reg    *registry.Registry
	links  *links.Links
	cells  *columns.Renderer
	values *cache.Cache
	opts   Options
}

func NewHandlers(s *store.Store, reg *registry.Registry, l *links.Links, opts Options) *Handlers {
	if opts.DateFormat == "" {
		opts.DateFormat = "January 2, 2006"
	}
	if opts.TimeFormat == "" {
		opts.TimeFormat = "3:04 pm"
	}
	if opts.PerPage <= 0 {
		opts.PerPage = 20
	}
	if opts.FilterCacheTTL <= 0 {
		opts.FilterCacheTTL = 5 * time.Minute
	}
	return &Handlers{
		store: s,
		reg:   reg,
		links: l,
		cells: &columns.Renderer{
			Source:     s,
			Links:      l,
			Lookup:     reg,
			DateFormat: opts.DateFormat,
		},
		values: cache.New(opts.FilterCacheTTL, 2*opts.FilterCacheTTL),
		opts:   opts,
	}
}

func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Get("/", h.dashboard)
		r.Route("/types/{type}", func(r chi.Router) {
			r.Get("/", h.list)
			r.Post("/", h.create)
			r.Get("/new", h.newForm)
			r.Post("/bulk", h.bulk)
			r.Get("/{id}", h.edit)
			r.Post("/{id}", h.update)
			r.Get("/{id}/quick", h.quickEditForm)
			r.Post("/{id}/quick", h.quickEditSave)
		})
		r.Route("/taxonomies/{tax}", func(r chi.Router) {
			r.Get("/", h.termList)
			r.Post("/", h.termCreate)
			r.Get("/terms/{id}", h.termEdit)
			r.Post("/terms/{id}", h.termUpdate)
		})
	})
}

// page holds what the layout needs on every screen.
type page struct {
	Title     string
	Menu      []menuItem
	BodyClass string
	HeadCSS   template.CSS
	Notices   []template.HTML
}

type menuItem struct {
	Title    string
	URL      string
	Current  bool
	Children []menuItem
}

// newPage builds the layout data; current is the content type key or
// taxonomy key of the screen.
func (h *Handlers) newPage(user caps.Checker, title, current string) page {
	types := h.reg.ContentTypes()
	sort.SliceStable(types, func(i, j int) bool { return types[i].MenuPosition < types[j].MenuPosition })

	menu := []menuItem{{Title: "Dashboard", URL: "/admin/", Current: current == ""}}
	for _, ct := range types {
		if !user.Can(caps.EditPosts(ct.CapabilityType)) {
			continue
		}
		item := menuItem{
			Title:   ct.Labels["menu_name"],
			URL:     h.links.List(ct.Key),
			Current: current == ct.Key,
		}
		if user.Can(caps.ManageTerms) {
			for _, tax := range h.reg.TaxonomiesFor(ct.Key) {
				if !tax.ShowUI {
					continue
				}
				item.Children = append(item.Children, menuItem{
					Title:   tax.Labels["menu_name"],
					URL:     "/admin/taxonomies/" + tax.Key + "?type=" + ct.Key,
					Current: current == tax.Key,
				})
			}
		}
		menu = append(menu, item)
	}
	return page{Title: title, Menu: menu}
}

type pluginStatus struct {
	Name   string
	Health core.HealthStatus
}

func (h *Handlers) dashboard(w http.ResponseWriter, r *http.Request) {
	user := caps.FromContext(r.Context())

	var plugins []pluginStatus
	for _, p := range core.All() {
		plugins = append(plugins, pluginStatus{Name: p.Name(), Health: p.Health()})
	}

	h.render(w, "dashboard", struct {
		page
		Glance  []GlanceItem
		Plugins []pluginStatus
	}{
		page:    h.newPage(user, "Dashboard", ""),
		Glance:  h.glanceItems(r.Context(), user),
		Plugins: plugins,
	})
}

// contentType resolves the {type} URL param and checks the user may edit
// items of it. It writes the error response and returns false otherwise.
func (h *Handlers) contentType(w http.ResponseWriter, r *http.Request) (*config.ContentType, caps.Checker, bool) {
	ct, ok := h.reg.ContentType(chi.URLParam(r, "type"))
	if !ok {
		http.Error(w, "Content type not found", http.StatusNotFound)
		return nil, nil, false
	}
	user := caps.FromContext(r.Context())
	if err := caps.Require(user, caps.EditPosts(ct.CapabilityType)); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return nil, nil, false
	}
	return ct, user, true
}

// item loads the {id} URL param as an item of ct.
func (h *Handlers) item(w http.ResponseWriter, r *http.Request, ct *config.ContentType) (*content.Item, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid item id", http.StatusBadRequest)
		return nil, false
	}
	it, err := h.store.Item(r.Context(), id)
	if err != nil || it.Type != ct.Key {
		http.Error(w, "Item not found", http.StatusNotFound)
		return nil, false
	}
	return it, true
}

// metaValues returns the distinct stored values of key for contentType,
// cached for the filter cache TTL.
func (h *Handlers) metaValues(ctx context.Context, contentType, key string) []string {
	cacheKey := contentType + "\x00" + key
	if v, ok := h.values.Get(cacheKey); ok {
		return v.([]string)
	}
	vals, err := h.store.DistinctMetaValues(ctx, contentType, key)
	if err != nil {
		log.Printf("Error loading %s values for %s: %v", key, contentType, err)
		return nil
	}
	h.values.Set(cacheKey, vals, cache.DefaultExpiration)
	return vals
}

func (h *Handlers) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html")
	if err := renderPage(w, name, data); err != nil {
		log.Printf("Error rendering %s: %v", name, err)
	}
}

// redirect sends the browser to url; htmx requests get an HX-Redirect instead.
func redirect(w http.ResponseWriter, r *http.Request, url string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", url)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
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
