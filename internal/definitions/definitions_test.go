// ABOUTME: Tests for definitions parsing, schema validation and registration.

package definitions

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/cpt/internal/config"
	"github.com/2389/cpt/internal/registry"
	"github.com/2389/cpt/internal/schema"
	"github.com/2389/cpt/internal/store"
)

const eventsYAML = `
content_types:
  - key: event
    names:
      singular: Event
    args:
      menu_position: 5
      featured_image: Poster
      rewrite:
        permastruct: /%event_slug%/%venue%/%postname%/
      admin_cols:
        start:
          title: Start
          meta_key: start
          date_format: "Jan 2"
          default: desc
        venue:
          taxonomy: venue
        map:
          function: venue_map
        bad:
          title: Nothing
        title: Event
      admin_filters:
        featured:
          title: Featured
          meta_exists:
            featured: Featured
            cancelled: Cancelled
        speaker:
          meta_search_key: speaker
        month: true
taxonomies:
  - key: venue
    object_types: [event]
    args:
      exclusive: true
`

func newRegistrar(t *testing.T) *registry.Registrar {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "cpt.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return registry.NewRegistrar(registry.New(), s)
}

func TestParseAndApply(t *testing.T) {
	f, err := Parse([]byte(eventsYAML))
	require.NoError(t, err)
	require.Len(t, f.ContentTypes, 1)
	require.Len(t, f.Taxonomies, 1)
	assert.Equal(t, "Event", f.ContentTypes[0].Names.Singular)

	r := newRegistrar(t)
	funcs := schema.Funcs{"venue_map": func(schema.CellContext) string { return "map" }}
	require.NoError(t, f.Apply(context.Background(), r, funcs))

	ct, ok := r.Registry().ContentType("event")
	require.True(t, ok)
	assert.Equal(t, 5, ct.MenuPosition)
	assert.Equal(t, "Set poster", ct.Labels["set_featured_image"])
	assert.Equal(t, "/%event_slug%/%venue%/%postname%/", ct.Rewrite.Permastruct)
	assert.Equal(t, "events", ct.Rewrite.Slug)

	require.NotNil(t, ct.AdminCols)
	assert.Equal(t, []string{"start", "venue", "map", "title"}, ct.AdminCols.IDs(), "file order kept, invalid dropped")
	start, _ := ct.AdminCols.Get("start")
	assert.Equal(t, schema.MetaValue{ColumnBase: schema.ColumnBase{Title: "Start", Default: "desc"}, MetaKey: "start", DateFormat: "Jan 2"}, start)
	fn, _ := ct.AdminCols.Get("map")
	require.IsType(t, schema.CustomFunction{}, fn)

	require.NotNil(t, ct.AdminFilters)
	assert.Equal(t, []string{"featured", "speaker"}, ct.AdminFilters.IDs())
	on, set := ct.AdminFilters.Toggled("month")
	assert.True(t, on)
	assert.True(t, set)
	featured, _ := ct.AdminFilters.Get("featured")
	exists := featured.(schema.MetaExists)
	assert.Equal(t, "featured", exists.Candidates.Oldest().Key)

	tax, ok := r.Registry().Taxonomy("venue")
	require.True(t, ok)
	assert.True(t, tax.Exclusive)
	assert.Equal(t, []string{"event"}, tax.ObjectTypes)
}

func TestParse_SchemaIssues(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		wantPath string
	}{
		{"bad key", "content_types:\n  - key: Event Type\n", "/content_types/0/key"},
		{"missing key", "content_types:\n  - args: {public: true}\n", "/content_types/0"},
		{"wrong arg type", "content_types:\n  - key: event\n    args:\n      public: sometimes\n", "/content_types/0/args/public"},
		{"taxonomy without types", "taxonomies:\n  - key: venue\n    object_types: []\n", "/taxonomies/0/object_types"},
		{"unknown top level", "posts: []\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			require.NotEmpty(t, ve.Issues)
			var paths []string
			for _, issue := range ve.Issues {
				paths = append(paths, issue.Path)
				assert.NotEmpty(t, issue.Message)
			}
			assert.Contains(t, paths, tt.wantPath)
			assert.Contains(t, ve.Error(), "schema issue(s)")
		})
	}
}

func TestParse_BadYAML(t *testing.T) {
	_, err := Parse([]byte("content_types: [\n"))
	require.Error(t, err)
	var ve *ValidationError
	assert.False(t, errors.As(err, &ve))
}

func TestParse_Empty(t *testing.T) {
	f, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, f.ContentTypes)
}

func TestApply_ConflictStops(t *testing.T) {
	f, err := Parse([]byte(`
content_types:
  - key: event
taxonomies:
  - key: kind
    object_types: [event]
    args:
      query_var: event
`))
	require.NoError(t, err)
	err = f.Apply(context.Background(), newRegistrar(t), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrConfigConflict)
	assert.Contains(t, err.Error(), `taxonomy "kind"`)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "types.yaml")
	require.NoError(t, os.WriteFile(path, []byte(eventsYAML), 0644))
	f, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, f.ContentTypes, 1)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
