// ABOUTME: Tests for content type and taxonomy configuration resolution.
// ABOUTME: Covers layered merging, idempotency and query var conflicts.

package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/2389/cpt/internal/names"
	"github.com/2389/cpt/internal/schema"
)

type fakeVars struct {
	types map[string]string
	taxes map[string]string
}

func (f fakeVars) ContentTypeByQueryVar(qv string) (string, bool) {
	k, ok := f.types[qv]
	return k, ok
}

func (f fakeVars) TaxonomyByQueryVar(qv string) (string, bool) {
	k, ok := f.taxes[qv]
	return k, ok
}

func TestResolveContentType_Defaults(t *testing.T) {
	n := names.Derive("event", names.Overrides{}, "")
	ct, err := ResolveContentType("event", n, nil, nil)
	require.NoError(t, err)

	assert.True(t, ct.Public)
	assert.True(t, ct.HasArchive)
	assert.Equal(t, "event", ct.QueryVar)
	assert.Equal(t, "page", ct.CapabilityType)
	assert.Equal(t, 20, ct.MenuPosition)
	assert.Equal(t, []string{"title"}, ct.Supports)
	require.NotNil(t, ct.Rewrite)
	assert.Equal(t, "events", ct.Rewrite.Slug)
	assert.False(t, ct.Rewrite.WithFront)
	assert.Equal(t, "Add New Event", ct.Labels["add_new_item"])
	assert.Empty(t, ct.Labels.Missing(names.ContentTypeLabelKeys))

	on, set := ct.AdminFilters.Toggled("month")
	assert.True(t, set)
	assert.False(t, on)
}

func TestResolveContentType_PrivateHasNoRewriteOrArchive(t *testing.T) {
	n := names.Derive("secret", names.Overrides{}, "")
	ct, err := ResolveContentType("secret", n, Args{"public": false}, nil)
	require.NoError(t, err)

	assert.False(t, ct.Public)
	assert.False(t, ct.HasArchive)
	assert.Nil(t, ct.Rewrite)
}

func TestResolveContentType_PartialLabelsAndRewrite(t *testing.T) {
	n := names.Derive("event", names.Overrides{}, "")
	args := Args{
		"labels":  map[string]string{"menu_name": "Agenda"},
		"rewrite": map[string]any{"permastruct": "/%year%/%event_slug%/%postname%/"},
	}
	ct, err := ResolveContentType("event", n, args, nil)
	require.NoError(t, err)

	assert.Equal(t, "Agenda", ct.Labels["menu_name"])
	assert.Equal(t, "Events", ct.Labels["name"])
	require.NotNil(t, ct.Rewrite)
	assert.Equal(t, "events", ct.Rewrite.Slug)
	assert.Equal(t, "/%year%/%event_slug%/%postname%/", ct.Rewrite.Permastruct)
}

func TestResolveContentType_FeaturedImageLabels(t *testing.T) {
	n := names.Derive("event", names.Overrides{}, "")
	ct, err := ResolveContentType("event", n, Args{"featured_image": "Poster"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Poster", ct.FeaturedImage)
	assert.Equal(t, "Set poster", ct.Labels["set_featured_image"])
	assert.Empty(t, ct.Labels.Missing(names.FeaturedImageLabelKeys))
}

func TestResolveContentType_ArchiveSlugString(t *testing.T) {
	n := names.Derive("event", names.Overrides{}, "whats-on")
	ct, err := ResolveContentType("event", n, Args{"has_archive": "whats-on"}, nil)
	require.NoError(t, err)

	assert.True(t, ct.HasArchive)
	assert.Equal(t, "whats-on", ct.ArchiveSlug)
	assert.Equal(t, "whats-on", ct.Rewrite.Slug)
}

func TestResolveContentType_ParsesDescriptors(t *testing.T) {
	n := names.Derive("event", names.Overrides{}, "")
	args := Args{
		"admin_cols": map[string]any{
			"start":  map[string]any{"meta_key": "start", "default": "desc"},
			"broken": map[string]any{"title": "No kind"},
		},
		"site_filters": map[string]any{
			"venue": map[string]any{"taxonomy": "venue"},
		},
		"extend_search": []string{"speaker"},
		"archive":       map[string]any{"orderby": "title"},
	}
	ct, err := ResolveContentType("event", n, args, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"start"}, ct.AdminCols.IDs())
	assert.Equal(t, []string{"venue"}, ct.SiteFilters.IDs())
	assert.Equal(t, []string{"speaker"}, ct.ExtendSearch)
	assert.Equal(t, map[string]string{"orderby": "title"}, ct.Archive)
	assert.IsType(t, &schema.ColumnSet{}, ct.Args["admin_cols"])
}

func TestResolveContentType_QueryVar(t *testing.T) {
	n := names.Derive("event", names.Overrides{}, "")
	tests := []struct {
		name string
		arg  any
		want string
	}{
		{"absent", nil, "event"},
		{"true", true, "event"},
		{"string", "happening", "happening"},
		{"false", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := Args{}
			if tt.arg != nil {
				args["query_var"] = tt.arg
			}
			ct, err := ResolveContentType("event", n, args, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ct.QueryVar)
		})
	}
}

func TestResolveContentType_ConflictsWithTaxonomy(t *testing.T) {
	n := names.Derive("venue", names.Overrides{}, "")
	vars := fakeVars{taxes: map[string]string{"venue": "venue"}}
	_, err := ResolveContentType("venue", n, nil, vars)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfigConflict))

	var ce *ConflictError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "taxonomy", ce.WithKind)
}

func TestResolveContentType_Idempotent(t *testing.T) {
	n := names.Derive("event", names.Overrides{}, "")
	args := Args{
		"labels":        map[string]string{"menu_name": "Agenda"},
		"admin_cols":    map[string]any{"start": map[string]any{"meta_key": "start"}},
		"admin_filters": map[string]any{"venue": map[string]any{"taxonomy": "venue"}},
		"public":        true,
	}
	first, err := ResolveContentType("event", n, args, nil)
	require.NoError(t, err)
	second, err := ResolveContentType("event", n, first.Args, nil)
	require.NoError(t, err)

	assert.Equal(t, first.Labels, second.Labels)
	assert.Equal(t, first.Rewrite, second.Rewrite)
	assert.Equal(t, first.HasArchive, second.HasArchive)
	assert.Equal(t, first.QueryVar, second.QueryVar)
	assert.Equal(t, first.AdminCols.IDs(), second.AdminCols.IDs())
	assert.Equal(t, first.AdminFilters.IDs(), second.AdminFilters.IDs())
}

func TestResolveContentType_IdempotentProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		key := rapid.StringMatching(`[a-z][a-z_-]{0,15}`).Draw(t, "key")
		public := rapid.Bool().Draw(t, "public")
		menu := rapid.StringMatching(`[A-Za-z ]{0,12}`).Draw(t, "menu")

		n := names.Derive(key, names.Overrides{}, "")
		args := Args{"public": public, "labels": map[string]string{"menu_name": menu}}
		first, err := ResolveContentType(key, n, args, nil)
		if err != nil {
			t.Fatalf("first resolve: %v", err)
		}
		second, err := ResolveContentType(key, n, first.Args, nil)
		if err != nil {
			t.Fatalf("second resolve: %v", err)
		}
		if !assert.ObjectsAreEqual(first.Labels, second.Labels) {
			t.Fatalf("labels drifted: %v vs %v", first.Labels, second.Labels)
		}
		if !assert.ObjectsAreEqual(first.Rewrite, second.Rewrite) {
			t.Fatalf("rewrite drifted: %v vs %v", first.Rewrite, second.Rewrite)
		}
		if first.HasArchive != second.HasArchive || first.Public != second.Public {
			t.Fatalf("flags drifted")
		}
	})
}

func TestWithLabels_DoesNotTouchOriginal(t *testing.T) {
	n := names.Derive("event", names.Overrides{}, "")
	ct, err := ResolveContentType("event", n, nil, nil)
	require.NoError(t, err)

	relabeled := ct.WithLabels(names.Merge(ct.Labels, map[string]string{"name": "Happenings"}))
	assert.Equal(t, "Happenings", relabeled.Labels["name"])
	assert.Equal(t, "Events", ct.Labels["name"])
}

func TestResolveTaxonomy_Defaults(t *testing.T) {
	n := names.Derive("venue", names.Overrides{}, "")
	tax, err := ResolveTaxonomy("venue", []string{"event"}, n, Args{"allow_hierarchy": true}, nil)
	require.NoError(t, err)

	assert.Equal(t, "venue", tax.QueryVar)
	assert.True(t, tax.Hierarchical)
	assert.True(t, tax.AllowHierarchy)
	assert.False(t, tax.Exclusive)
	require.NotNil(t, tax.Rewrite)
	assert.True(t, tax.Rewrite.Hierarchical)
	assert.Equal(t, "venues", tax.Rewrite.Slug)
	assert.Equal(t, "Popular Venues", tax.Labels["popular_items"])
	assert.Empty(t, tax.Labels.Missing(names.TaxonomyLabelKeys))
}

func TestResolveTaxonomy_Conflicts(t *testing.T) {
	vars := fakeVars{types: map[string]string{"event": "event"}}
	tests := []struct {
		name     string
		key      string
		args     Args
		wantWith string
	}{
		{"content type query var", "event", nil, "event"},
		{"explicit query var", "kind", Args{"query_var": "event"}, "event"},
		{"reserved type", "type", nil, ""},
		{"reserved tab", "section", Args{"query_var": "tab"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := names.Derive(tt.key, names.Overrides{}, "")
			_, err := ResolveTaxonomy(tt.key, []string{"event"}, n, tt.args, vars)
			require.ErrorIs(t, err, ErrConfigConflict)
			var ce *ConflictError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.wantWith, ce.With)
		})
	}
}

func TestResolveTaxonomy_NoQueryVarSkipsChecks(t *testing.T) {
	n := names.Derive("type", names.Overrides{}, "")
	tax, err := ResolveTaxonomy("type", nil, n, Args{"query_var": false}, nil)
	require.NoError(t, err)
	assert.Empty(t, tax.QueryVar)
}

func TestWithObjectType(t *testing.T) {
	n := names.Derive("venue", names.Overrides{}, "")
	tax, err := ResolveTaxonomy("venue", []string{"event"}, n, nil, nil)
	require.NoError(t, err)

	wider := tax.WithObjectType("talk")
	assert.Equal(t, []string{"event", "talk"}, wider.ObjectTypes)
	assert.Equal(t, []string{"event"}, tax.ObjectTypes)
	assert.Equal(t, wider.ObjectTypes, wider.WithObjectType("talk").ObjectTypes)
}
