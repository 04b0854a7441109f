// ABOUTME: Styleguide plugin: "guide" pages grouped by the "taxonomie" taxonomy.
// ABOUTME: Serves the whole styleguide site as one JSON payload for the front end.

package styleguide

import (
	"context"
	"fmt"

	"github.com/go-chi/chi/v5"

	"github.com/2389/cpt/internal/config"
	"github.com/2389/cpt/internal/names"
	"github.com/2389/cpt/internal/registry"
	"github.com/2389/cpt/internal/schema"
	"github.com/2389/cpt/internal/store"
	"github.com/2389/cpt/plugins/core"
)

const (
	// ContentType is the key of the guide page content type.
	ContentType = "guide"
	// Taxonomy groups guide pages into sections.
	Taxonomy = "taxonomie"

	// metaModules holds a guide page's flexible modules as a JSON array.
	metaModules = "page_modules"
)

func init() {
	core.Register(&Plugin{})
}

type Plugin struct {
	store *store.Store
}

func (p *Plugin) Name() string {
	return "styleguide"
}

func (p *Plugin) Health() core.HealthStatus {
	if p.store == nil {
		return core.HealthStatus{Status: "degraded", Message: "No store configured"}
	}
	return core.HealthStatus{Status: "healthy", Message: "Styleguide plugin operational"}
}

func (p *Plugin) SetStore(s *store.Store) error {
	p.store = s
	return nil
}

func (p *Plugin) Define(ctx context.Context, r *registry.Registrar) error {
	_, err := r.DefineContentType(ctx, ContentType, config.Args{
		"labels": map[string]string{
			"name":               "Guides",
			"singular_name":      "Guide",
			"menu_name":          "Guides",
			"name_admin_bar":     "Guides",
			"add_new":            "Nieuwe toevoegen",
			"add_new_item":       "Nieuwe toevoegen",
			"new_item":           "Nieuw styleguide",
			"edit_item":          "Bewerk styleguide",
			"view_item":          "Bekijk styleguide",
			"all_items":          "Alle guides",
			"search_items":       "Zoek",
			"parent_item_colon":  "Ouders:",
			"not_found":          "Niets gevonden.",
			"not_found_in_trash": "Niets gevonden in de prullenbak.",
		},
		"menu_position": 8,
		"supports":      []string{"title", "page-attributes"},
		"admin_cols": schema.Columns().
			Add(Taxonomy, schema.TaxonomyColumn{Taxonomy: Taxonomy}).
			Add("order", schema.PostField{ColumnBase: schema.ColumnBase{Title: "Order", Default: "asc"}, Field: "menu_order"}),
		"admin_filters": schema.Filters().
			Add(Taxonomy, schema.TaxonomyFilter{Taxonomy: Taxonomy}),
	}, names.Overrides{})
	if err != nil {
		return fmt.Errorf("define %s: %w", ContentType, err)
	}

	_, err = r.AddTaxonomy(ctx, ContentType, Taxonomy, config.Args{
		"labels": map[string]string{
			"name":              "Categorieën",
			"singular_name":     "taxonomie",
			"search_items":      "Search taxonomie",
			"all_items":         "Alle Categorieën",
			"parent_item":       "Parent taxonomie",
			"parent_item_colon": "Parent taxonomie:",
			"edit_item":         "Edit categorie",
			"update_item":       "Update categorie",
			"add_new_item":      "Voeg een nieuwe categorie toe",
			"new_item_name":     "Nieuwe naam voor categorie",
			"menu_name":         "Categorieën",
		},
		"show_ui":            true,
		"show_in_quick_edit": false,
	}, names.Overrides{})
	if err != nil {
		return fmt.Errorf("define %s: %w", Taxonomy, err)
	}
	return nil
}

func (p *Plugin) RegisterRoutes(r chi.Router) {
	r.Get("/api/styleguide/v1/site", p.site)
}
