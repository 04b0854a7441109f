// ABOUTME: Tests for descriptor-driven HTML rendering.
// ABOUTME: Ensures filter controls, row actions and item forms render correctly.

package admin

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/2389/cpt/internal/caps"
	"github.com/2389/cpt/internal/config"
	"github.com/2389/cpt/internal/content"
	"github.com/2389/cpt/internal/names"
	"github.com/2389/cpt/internal/schema"
)

type fakeLookup map[string]*config.Taxonomy

func (fakeLookup) ContentType(string) (*config.ContentType, bool) { return nil, false }
func (l fakeLookup) Taxonomy(key string) (*config.Taxonomy, bool) {
	tax, ok := l[key]
	return tax, ok
}

var venueTax = &config.Taxonomy{
	Key:      "venue",
	QueryVar: "venue",
	Labels:   names.Labels{"all_items": "All Venues", "name": "Venues", "not_found": "No venues found."},
}

func eventType(filters *schema.FilterSet) *config.ContentType {
	return &config.ContentType{
		Key:          "event",
		Names:        names.Names{Key: "event", Singular: "Event", Plural: "Events", SingularLower: "event", PluralLower: "events"},
		Labels:       names.Labels{"all_items": "All Events"},
		AdminFilters: filters,
	}
}

func TestFilterControls(t *testing.T) {
	venues := []content.Term{
		{ID: 1, Name: "Main Hall", Slug: "main-hall"},
		{ID: 2, Name: "Annex", Slug: "annex", Parent: 1},
		{ID: 3, Name: "Garden", Slug: "garden"},
	}
	values := map[string][]string{"price": {"10", "20"}}

	tests := []struct {
		name    string
		filters *schema.FilterSet
		public  map[string]string
		user    caps.Checker
		want    []string
		notWant []string
	}{
		{
			name:    "taxonomy dropdown",
			filters: schema.Filters().Add("venue", schema.TaxonomyFilter{Taxonomy: "venue"}),
			public:  map[string]string{"venue": "annex"},
			want: []string{
				`<select name="venue" id="filter_venue"`,
				`<option value="0">All Venues</option>`,
				`<option value="garden">Garden</option><option value="main-hall">Main Hall</option><option value="annex" selected>&nbsp;&nbsp;&nbsp;Annex</option>`,
			},
		},
		{
			name:    "unknown taxonomy renders nothing",
			filters: schema.Filters().Add("genre", schema.TaxonomyFilter{Taxonomy: "genre"}),
			notWant: []string{`<select`},
		},
		{
			name:    "meta equals from stored values",
			filters: schema.Filters().Add("price", schema.MetaEquals{MetaKey: "price"}),
			public:  map[string]string{"price": "20"},
			want: []string{
				`<option value="0">All Prices</option>`,
				`<option value="10">10</option>`,
				`<option value="20" selected>20</option>`,
			},
		},
		{
			name: "meta equals by index with title",
			filters: schema.Filters().Add("size", schema.MetaEquals{
				FilterBase: schema.FilterBase{Title: "Any size"},
				MetaKey:    "size",
				Options:    []string{"Small", "Large"},
				KeyMode:    schema.ByIndex,
			}),
			public: map[string]string{"size": "1"},
			want: []string{
				`<option value="0">Any size</option>`,
				`<option value="0">Small</option>`,
				`<option value="1" selected>Large</option>`,
			},
		},
		{
			name: "options func rewrites the choices",
			filters: schema.Filters().Add("price", schema.MetaEquals{
				MetaKey: "price",
				OptionsFunc: func(options []string, metaKey string) []string {
					return append(options, metaKey+"-free")
				},
			}),
			want: []string{`<option value="price-free">price-free</option>`},
		},
		{
			name:    "meta equals without options is skipped",
			filters: schema.Filters().Add("colour", schema.MetaEquals{MetaKey: "colour"}),
			notWant: []string{`filter_colour`},
		},
		{
			name:    "meta like",
			filters: schema.Filters().Add("speaker", schema.MetaLike{MetaSearchKey: "speaker_name"}),
			public:  map[string]string{"speaker": "ada"},
			want:    []string{`<input type="text" name="speaker" id="filter_speaker" value="ada" placeholder="Speaker Name"`},
		},
		{
			name:    "meta exists single candidate is a checkbox",
			filters: schema.Filters().Add("featured", schema.MetaExists{Candidates: schema.Candidates("featured", "Featured")}),
			public:  map[string]string{"featured": "featured"},
			want:    []string{`<input type="checkbox" name="featured" id="filter_featured" value="featured" checked>&nbsp;Featured</label>`},
		},
		{
			name: "meta exists several candidates is a select",
			filters: schema.Filters().Add("flags", schema.MetaExists{
				Candidates: schema.Candidates("featured", "Featured", "cancelled", "Cancelled"),
			}),
			want: []string{
				`<option value="">All Events</option>`,
				`<option value="featured">Featured</option><option value="cancelled">Cancelled</option>`,
			},
		},
		{
			name: "capability hides filter",
			filters: schema.Filters().Add("price", schema.MetaEquals{
				FilterBase: schema.FilterBase{Capability: "manage_options"},
				MetaKey:    "price",
			}),
			user:    caps.Role("editor"),
			notWant: []string{`filter_price`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := tt.user
			if user == nil {
				user = caps.Role("administrator")
			}
			fc := FilterControls{
				Type:   eventType(tt.filters),
				Lookup: fakeLookup{"venue": venueTax},
				Public: tt.public,
				User:   user,
				Terms:  func(string) []content.Term { return venues },
				Values: func(key string) []string { return values[key] },
			}
			got := fc.Render()
			for _, want := range tt.want {
				assert.Contains(t, got, want)
			}
			for _, notWant := range tt.notWant {
				assert.NotContains(t, got, notWant)
			}
		})
	}
}

func TestRenderMonths(t *testing.T) {
	got := RenderMonths([]string{"202403", "202401"}, "202401")
	assert.Contains(t, got, `<option value="0">All dates</option>`)
	assert.Contains(t, got, `<option value="202403">March 2024</option>`)
	assert.Contains(t, got, `<option value="202401" selected>January 2024</option>`)
}

func TestTermTree(t *testing.T) {
	terms := []content.Term{
		{ID: 4, Name: "Stage", Parent: 2},
		{ID: 2, Name: "Annex", Parent: 1},
		{ID: 1, Name: "Main Hall"},
		{ID: 5, Name: "Orphan", Parent: 99},
		{ID: 6, Name: "Loop", Parent: 6},
	}
	var got []string
	for _, n := range termTree(terms) {
		got = append(got, strings.Repeat("-", n.depth)+n.term.Name)
	}
	assert.Equal(t, []string{"Loop", "Main Hall", "-Annex", "--Stage", "Orphan"}, got)
}

func TestTermTree_KeepsEveryTerm(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 20).Draw(t, "n")
		terms := make([]content.Term, n)
		for i := range terms {
			terms[i] = content.Term{
				ID:     int64(i + 1),
				Name:   rapid.StringMatching(`[a-z]{1,6}`).Draw(t, "name"),
				Parent: int64(rapid.IntRange(0, i).Draw(t, "parent")),
			}
		}
		tree := termTree(terms)
		if len(tree) != n {
			t.Fatalf("got %d nodes for %d terms", len(tree), n)
		}
		seen := map[int64]bool{}
		for _, node := range tree {
			if seen[node.term.ID] {
				t.Fatalf("term %d listed twice", node.term.ID)
			}
			seen[node.term.ID] = true
		}
	})
}

func TestRenderActions(t *testing.T) {
	tests := []struct {
		name    string
		actions []RowAction
		want    []string
		notWant []string
	}{
		{
			name:    "plain link",
			actions: []RowAction{{Name: "Edit", Endpoint: "/admin/types/event/1", HTTPMethod: "GET"}},
			want:    []string{`<a href="/admin/types/event/1" class="text-blue-600 hover:text-blue-900">Edit</a>`},
			notWant: []string{`hx-`},
		},
		{
			name:    "htmx target",
			actions: []RowAction{{Name: "Quick Edit", Endpoint: "/admin/types/event/1/quick", Target: "#post-1"}},
			want:    []string{`hx-get="/admin/types/event/1/quick" hx-target="#post-1" hx-swap="outerHTML"`},
		},
		{
			name: "post with values and confirm",
			actions: []RowAction{{
				Name: "Delete", Endpoint: "/admin/types/event/bulk", HTTPMethod: "POST",
				Values: map[string]string{"post[]": "1", "action": "delete"}, Confirm: "Sure?",
			}},
			want: []string{
				`hx-post="/admin/types/event/bulk"`,
				`hx-vals='{&#34;action&#34;:&#34;delete&#34;,&#34;post[]&#34;:&#34;1&#34;}'`,
				`hx-confirm="Sure?"`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderActions(tt.actions)
			for _, want := range tt.want {
				assert.Contains(t, got, want)
			}
			for _, notWant := range tt.notWant {
				assert.NotContains(t, got, notWant)
			}
		})
	}
}

func TestRenderItemForm(t *testing.T) {
	venues := &config.Taxonomy{Key: "venue", Exclusive: true, Labels: names.Labels{"name": "Venues", "not_found": "No venues found."}}
	tags := &config.Taxonomy{Key: "tag", Labels: names.Labels{"name": "Tags", "not_found": "No tags found."}}

	tests := []struct {
		name    string
		form    ItemForm
		want    []string
		notWant []string
	}{
		{
			name: "new item defaults",
			form: ItemForm{Type: &config.ContentType{Key: "event", Supports: []string{"title"}}, Action: "/admin/types/event"},
			want: []string{
				`<form method="post" action="/admin/types/event" id="post"`,
				`placeholder="Add title"`,
				`<option value="draft" selected>Draft</option>`,
			},
			notWant: []string{`name="content"`, `name="excerpt"`, `name="menu_order"`, `thumbnail_url`, `value="trash"`},
		},
		{
			name: "supported features and fields",
			form: ItemForm{
				Type: &config.ContentType{
					Key:            "event",
					Supports:       []string{"title", "editor", "excerpt", "thumbnail"},
					Hierarchical:   true,
					EnterTitleHere: "Event name",
					Labels:         names.Labels{"featured_image": "Poster"},
				},
				Item:   &content.Item{ID: 3, Title: `Fish & "Chips"`, Status: "publish", MenuOrder: 2},
				Action: "/admin/types/event/3",
				Meta:   []MetaField{{Key: "start_date", Values: []string{"2024-01-01", "2024-02-01"}}, {Key: "price"}},
				Taxonomies: []TaxonomyField{
					{Taxonomy: venues, Terms: []content.Term{{ID: 1, Name: "Hall"}, {ID: 2, Name: "Annex"}}, Selected: map[int64]bool{2: true}},
					{Taxonomy: tags},
				},
				Thumbnail: &content.Image{URL: "https://img.example/p.png"},
			},
			want: []string{
				`value="Fish &amp; &#34;Chips&#34;" placeholder="Event name"`,
				`<option value="publish" selected>Published</option>`,
				`name="content"`,
				`name="excerpt"`,
				`name="menu_order" value="2"`,
				`Start Date</label>`,
				`name="meta[start_date]" value="2024-01-01"`,
				`name="meta[start_date]" value="2024-02-01"`,
				`name="meta[price]" value=""`,
				`<input type="radio" name="tax[venue]" value="2" checked> Annex`,
				`No tags found.`,
				`Poster</label><input type="url" name="thumbnail_url" value="https://img.example/p.png"`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderItemForm(tt.form)
			for _, want := range tt.want {
				assert.Contains(t, got, want)
			}
			for _, notWant := range tt.notWant {
				assert.NotContains(t, got, notWant)
			}
		})
	}
}

func TestRenderQuickEdit(t *testing.T) {
	ct := eventType(nil)
	it := &content.Item{ID: 7, Title: "Gala", Slug: "gala", Status: "pending", Date: time.Now()}
	got := RenderQuickEdit(ct, it, "/admin/types/event/7/quick", 4)

	assert.Contains(t, got, `<tr id="post-7" class="inline-edit-row`)
	assert.Contains(t, got, `<td colspan="4"`)
	assert.Contains(t, got, `<option value="pending" selected>Pending</option>`)
	assert.Contains(t, got, `Update Event</button>`)
}
