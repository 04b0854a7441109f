// ABOUTME: Tests for the events plugin definitions, cells, seed data and upcoming endpoint.

package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/cpt/internal/admin"
	"github.com/2389/cpt/internal/caps"
	apierrors "github.com/2389/cpt/internal/errors"
	"github.com/2389/cpt/internal/links"
	"github.com/2389/cpt/internal/registry"
	"github.com/2389/cpt/internal/schema"
	"github.com/2389/cpt/internal/seed"
	"github.com/2389/cpt/internal/store"
)

func setup(t *testing.T) (*Plugin, *store.Store, *registry.Registry) {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "cpt.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	p := &Plugin{gen: seed.NewGeneratorWithClient(nil, "")}
	require.NoError(t, p.SetStore(s))

	reg := registry.New()
	require.NoError(t, p.Define(context.Background(), registry.NewRegistrar(reg, s)))
	reg.Freeze()
	return p, s, reg
}

func TestDefine(t *testing.T) {
	_, _, reg := setup(t)

	ct, ok := reg.ContentType(ContentType)
	require.True(t, ok)
	assert.Equal(t, "Events", ct.Labels["name"])
	assert.Equal(t, "Set poster", ct.Labels["set_featured_image"])
	assert.True(t, ct.ShowInFeed)
	assert.Equal(t, []string{metaSpeaker}, ct.ExtendSearch)
	assert.Equal(t, map[string]string{"orderby": "start", "order": "asc"}, ct.Archive)
	assert.Equal(t, "Event name", ct.EnterTitleHere)

	kinds := map[schema.ColumnKind]bool{}
	ct.AdminCols.Each(func(_ string, c schema.Column) { kinds[c.Kind()] = true })
	for _, k := range []schema.ColumnKind{
		schema.KindMetaValue, schema.KindTaxonomyColumn, schema.KindPostField, schema.KindFeaturedImage,
		schema.KindRelation, schema.KindFunction, schema.KindBuiltin,
	} {
		assert.True(t, kinds[k], "admin_cols has no %s column", k)
	}

	filterKinds := map[schema.FilterKind]bool{}
	ct.AdminFilters.Each(func(_ string, f schema.Filter) { filterKinds[f.Kind()] = true })
	assert.Len(t, filterKinds, 4)
	on, set := ct.AdminFilters.Toggled("month")
	assert.True(t, on)
	assert.True(t, set)

	tax, ok := reg.Taxonomy(Venue)
	require.True(t, ok)
	assert.True(t, tax.Exclusive)
	assert.False(t, tax.Hierarchical)
	assert.Equal(t, []string{ContentType}, tax.ObjectTypes)
}

func TestPriceCell(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"", ""},
		{"0", "Free"},
		{"25", "$25.00"},
		{"1250.5", "$1,250.50"},
		{"<b>tbd</b>", "&lt;b&gt;tbd&lt;/b&gt;"},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, priceCell(schema.CellContext{MetaValue: tt.value}))
		})
	}
}

func TestSortPrices(t *testing.T) {
	got := sortPrices([]string{"120", "tbd", "0", "25", "9.5"}, metaPrice)
	assert.Equal(t, []string{"0", "9.5", "25", "120", "tbd"}, got)
}

func TestSeed(t *testing.T) {
	p, s, _ := setup(t)
	ctx := context.Background()

	data, err := p.Seed(ctx, "small")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{ContentType: 3, Venue: 3}, data.Records)

	_, err = p.Seed(ctx, "small")
	require.NoError(t, err)

	terms, err := s.TaxonomyTerms(ctx, Venue)
	require.NoError(t, err)
	assert.Len(t, terms, 3, "venues are reused across seeds")

	swap, err := s.ItemBySlug(ctx, ContentType, "community-book-swap")
	require.NoError(t, err)
	assert.Equal(t, "publish", swap.Status)
	speaker, err := s.MetaValues(ctx, swap.ID, metaSpeaker)
	require.NoError(t, err)
	assert.Equal(t, []string{"Library volunteers"}, speaker)
	previous, err := s.MetaValues(ctx, swap.ID, metaPrevious)
	require.NoError(t, err)
	assert.Len(t, previous, 1)

	meetup, err := s.ItemBySlug(ctx, ContentType, "spring-tech-meetup")
	require.NoError(t, err)
	img, err := s.Thumbnail(ctx, meetup.ID, "thumbnail")
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, "Spring Tech Meetup poster", img.Alt)

	_, err = s.ItemBySlug(ctx, ContentType, "spring-tech-meetup-2")
	assert.ErrorIs(t, err, store.ErrNotFound, "slugs repeat per seed run, not per item")
}

func TestSeed_NoStore(t *testing.T) {
	_, err := (&Plugin{}).Seed(context.Background(), "small")
	assert.Error(t, err)
	assert.Equal(t, "degraded", (&Plugin{}).Health().Status)
}

func TestUpcoming(t *testing.T) {
	p, _, _ := setup(t)
	_, err := p.Seed(context.Background(), "small")
	require.NoError(t, err)

	router := chi.NewRouter()
	p.RegisterRoutes(router)

	get := func(target string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		return rec
	}

	rec := get("/api/events/upcoming?from=2025-01-01")
	require.Equal(t, http.StatusOK, rec.Code)
	var got []Upcoming
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 3)
	assert.Equal(t, "Community Book Swap", got[0].Title)
	assert.Equal(t, "2025-03-08", got[0].Start)
	assert.Equal(t, []string{"Library Annex"}, got[0].Venues)
	assert.Equal(t, "Spring Tech Meetup", got[1].Title)
	assert.Equal(t, "Open Air Jazz Night", got[2].Title)

	rec = get("/api/events/upcoming?from=2025-05-01&limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Open Air Jazz Night", got[0].Title)

	rec = get("/api/events/upcoming?from=next-week")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "from", resp.Field)
}

func TestAdminListScreen(t *testing.T) {
	p, s, reg := setup(t)
	_, err := p.Seed(context.Background(), "small")
	require.NoError(t, err)

	router := chi.NewRouter()
	admin.NewHandlers(s, reg, links.New("", s, reg), admin.Options{}).RegisterRoutes(router)

	tests := []struct {
		role    string
		want    []string
		notWant []string
	}{
		{
			role: "editor",
			want: []string{
				"Free", "$25.00", "Main Hall", "Organizer", "Olive Organizer",
				`name="venue"`, `name="speaker"`, `name="highlights"`, `name="sold_out"`,
				"All statuses", "Postponed", "column-status",
			},
		},
		{
			role:    "author",
			want:    []string{"Free", `name="highlights"`},
			notWant: []string{`name="sold_out"`, "column-status"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/types/event", nil)
			req = req.WithContext(caps.WithChecker(req.Context(), caps.Role(tt.role)))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			body := rec.Body.String()
			for _, w := range tt.want {
				assert.Contains(t, body, w)
			}
			for _, nw := range tt.notWant {
				assert.NotContains(t, body, nw)
			}
		})
	}
}
