// ABOUTME: Events plugin: an "event" content type with a "venue" taxonomy.
// ABOUTME: Uses every filter and column kind and serves an upcoming-events endpoint.

package events

import (
	"context"
	"fmt"

	"github.com/go-chi/chi/v5"

	"github.com/2389/cpt/internal/config"
	"github.com/2389/cpt/internal/names"
	"github.com/2389/cpt/internal/registry"
	"github.com/2389/cpt/internal/schema"
	"github.com/2389/cpt/internal/seed"
	"github.com/2389/cpt/internal/store"
	"github.com/2389/cpt/plugins/core"
)

const (
	// ContentType is the key of the event content type.
	ContentType = "event"
	// Venue is the key of the venue taxonomy.
	Venue = "venue"
)

// Meta keys stored on events.
const (
	metaStart    = "event_start"
	metaPrice    = "price"
	metaSpeaker  = "speaker"
	metaStatus   = "event_status"
	metaFeatured = "featured"
	metaSoldOut  = "sold_out"
	metaPrevious = "previous_edition"
)

// eventStatuses are the choices of the status filter, submitted by index.
var eventStatuses = []string{"Scheduled", "Postponed", "Cancelled"}

func init() {
	core.Register(&Plugin{})
}

type Plugin struct {
	store *store.Store
	gen   *seed.Generator
}

func (p *Plugin) Name() string {
	return "events"
}

func (p *Plugin) Health() core.HealthStatus {
	if p.store == nil {
		return core.HealthStatus{Status: "degraded", Message: "No store configured"}
	}
	return core.HealthStatus{
		Status:  "healthy",
		Message: "Events plugin operational",
	}
}

func (p *Plugin) SetStore(s *store.Store) error {
	p.store = s
	return nil
}

// Funcs exposes the price cell to definitions files as "event_price".
func (p *Plugin) Funcs() schema.Funcs {
	return schema.Funcs{"event_price": priceCell}
}

func (p *Plugin) Define(ctx context.Context, r *registry.Registrar) error {
	if _, err := r.DefineContentType(ctx, ContentType, eventArgs(), names.Overrides{}); err != nil {
		return fmt.Errorf("define %s: %w", ContentType, err)
	}
	_, err := r.DefineTaxonomy(ctx, Venue, []string{ContentType}, config.Args{
		"hierarchical": false,
		"exclusive":    true,
	}, names.Overrides{})
	if err != nil {
		return fmt.Errorf("define %s: %w", Venue, err)
	}
	return nil
}

func eventArgs() config.Args {
	return config.Args{
		"supports":         []string{"title", "editor", "excerpt", "author", "thumbnail"},
		"hierarchical":     false,
		"capability_type":  "post",
		"menu_position":    5,
		"featured_image":   "Poster",
		"enter_title_here": "Event name",
		"show_in_feed":     true,
		"extend_search":    []string{metaSpeaker},
		"rewrite": map[string]any{
			"permastruct": "/events/%year%/%monthnum%/%postname%/",
		},
		"archive": map[string]string{"orderby": "start", "order": "asc"},

		"admin_cols": schema.Columns().
			Add("poster", schema.FeaturedImage{
				ColumnBase: schema.ColumnBase{Title: "Poster"},
				Size:       "thumbnail",
				Width:      "60",
			}).
			Add("title", schema.Builtin{Ref: "title"}).
			Add("start", schema.MetaValue{
				ColumnBase: schema.ColumnBase{Title: "Starts", Default: "desc"},
				MetaKey:    metaStart,
				DateFormat: "Jan 2, 2006",
			}).
			Add(Venue, schema.TaxonomyColumn{
				ColumnBase: schema.ColumnBase{Link: schema.LinkList},
				Taxonomy:   Venue,
			}).
			Add("price", schema.CustomFunction{
				ColumnBase: schema.ColumnBase{Title: "Price"},
				MetaKey:    metaPrice,
				Fn:         priceCell,
			}).
			Add(metaFeatured, schema.MetaValue{
				ColumnBase:     schema.ColumnBase{Unsortable: true},
				MetaKey:        metaFeatured,
				BooleanDisplay: true,
			}).
			Add("previous", schema.Relation{
				ColumnBase: schema.ColumnBase{Title: "Previous edition", Link: schema.LinkView},
				MetaKey:    metaPrevious,
			}).
			Add("status", schema.PostField{
				ColumnBase: schema.ColumnBase{Capability: "edit_others_posts"},
				Field:      "post_status",
			}).
			Add("author", schema.Builtin{Ref: "author", Title: "Organizer"}),

		"admin_filters": schema.Filters().
			Add(Venue, schema.TaxonomyFilter{Taxonomy: Venue}).
			Add("price", schema.MetaEquals{
				FilterBase:  schema.FilterBase{Title: "All prices", MetaQuery: map[string]string{"type": "NUMERIC"}},
				MetaKey:     metaPrice,
				OptionsFunc: sortPrices,
			}).
			Add("status", schema.MetaEquals{
				FilterBase: schema.FilterBase{Title: "All statuses"},
				MetaKey:    metaStatus,
				Options:    eventStatuses,
				KeyMode:    schema.ByIndex,
			}).
			Add(metaSpeaker, schema.MetaLike{
				FilterBase:    schema.FilterBase{Title: "Speaker"},
				MetaSearchKey: metaSpeaker,
			}).
			Add("highlights", schema.MetaExists{
				FilterBase: schema.FilterBase{Title: "Highlights"},
				Candidates: schema.Candidates(metaFeatured, "Featured", metaSoldOut, "Sold out"),
			}).
			Add(metaSoldOut, schema.MetaExists{
				FilterBase: schema.FilterBase{Capability: "edit_others_posts"},
				Candidates: schema.Candidates(metaSoldOut, "Sold out only"),
			}).
			Toggle("month", true),

		"site_filters": schema.Filters().
			Add(Venue, schema.TaxonomyFilter{Taxonomy: Venue}).
			Add("max_price", schema.MetaEquals{
				FilterBase: schema.FilterBase{MetaQuery: map[string]string{"type": "NUMERIC", "compare": "<="}},
				MetaKey:    metaPrice,
			}),
		"site_sortables": schema.Columns().
			Add("start", schema.MetaValue{MetaKey: metaStart}).
			Add("title", schema.PostField{Field: "post_title"}).
			Add(Venue, schema.TaxonomyColumn{Taxonomy: Venue}),
	}
}

func (p *Plugin) RegisterRoutes(r chi.Router) {
	r.Get("/api/events/upcoming", p.upcoming)
}

func (p *Plugin) generator() *seed.Generator {
	if p.gen == nil {
		p.gen = seed.NewGenerator()
	}
	return p.gen
}
