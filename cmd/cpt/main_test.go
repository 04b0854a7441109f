// ABOUTME: Tests for CLI commands and server wiring.
// ABOUTME: Covers startup registration, routes, seeding and the types listing.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/cpt/internal/config"
	"github.com/2389/cpt/internal/names"
	"github.com/2389/cpt/internal/registry"
	"github.com/2389/cpt/internal/settings"
	"github.com/2389/cpt/internal/store"
)

func testSettings(t *testing.T) *settings.Settings {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "")
	return &settings.Settings{
		Port:        "9000",
		DB:          filepath.Join(t.TempDir(), "cpt.db"),
		BaseURL:     "http://example.test",
		DateFormat:  "January 2, 2006",
		TimeFormat:  "3:04 pm",
		PerPage:     20,
		DefaultRole: "administrator",
	}
}

func bootTest(t *testing.T, cfg *settings.Settings) *app {
	t.Helper()
	a, err := boot(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { a.store.Close() })
	return a
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServer_Healthz(t *testing.T) {
	cfg := testSettings(t)
	srv := newServer(bootTest(t, cfg), cfg)

	rec := get(t, srv, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		OK      bool `json:"ok"`
		Plugins map[string]struct {
			Status string `json:"status"`
		} `json:"plugins"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	assert.True(t, resp.OK)
	assert.Equal(t, "healthy", resp.Plugins["events"].Status)
	assert.Equal(t, "healthy", resp.Plugins["styleguide"].Status)
}

func TestServer_Routes(t *testing.T) {
	cfg := testSettings(t)
	a := bootTest(t, cfg)
	srv := newServer(a, cfg)

	rec := get(t, srv, "/")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))

	assert.Equal(t, http.StatusNoContent, get(t, srv, "/favicon.ico").Code)
	assert.Equal(t, http.StatusOK, get(t, srv, "/admin/").Code)
	assert.Equal(t, http.StatusOK, get(t, srv, "/admin/types/event/").Code)
	assert.Equal(t, http.StatusOK, get(t, srv, "/api/events/upcoming").Code)
	assert.Equal(t, http.StatusOK, get(t, srv, "/api/styleguide/v1/site").Code)

	rec = get(t, srv, "/api/types")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"event"`)
	assert.Contains(t, rec.Body.String(), `"guide"`)
}

func TestBoot_FreezesRegistry(t *testing.T) {
	a := bootTest(t, testSettings(t))

	assert.True(t, a.reg.Frozen())
	_, ok := a.reg.ContentType("event")
	assert.True(t, ok)
	_, ok = a.reg.Taxonomy("taxonomie")
	assert.True(t, ok)
}

func TestBoot_Definitions(t *testing.T) {
	cfg := testSettings(t)
	cfg.Definitions = filepath.Join(t.TempDir(), "types.yaml")
	require.NoError(t, os.WriteFile(cfg.Definitions, []byte(`
content_types:
  - key: recipe
    names:
      singular: Recipe
    args:
      admin_cols:
        price:
          title: Price
          function: event_price
taxonomies:
  - key: cuisine
    object_types: [recipe]
    args:
      hierarchical: false
`), 0644))

	a := bootTest(t, cfg)
	ct, ok := a.reg.ContentType("recipe")
	require.True(t, ok)
	assert.Equal(t, "Recipes", ct.Labels["name"])
	_, ok = ct.AdminCols.Get("price")
	assert.True(t, ok, "plugin cell functions are available to definitions")

	var keys []string
	for _, tax := range a.reg.TaxonomiesFor("recipe") {
		keys = append(keys, tax.Key)
	}
	assert.Equal(t, []string{"cuisine"}, keys)
}

func TestBoot_DefinitionsConflict(t *testing.T) {
	cfg := testSettings(t)
	cfg.Definitions = filepath.Join(t.TempDir(), "types.yaml")
	require.NoError(t, os.WriteFile(cfg.Definitions, []byte(`
taxonomies:
  - key: kind
    object_types: [event]
    args:
      query_var: event
`), 0644))

	_, err := boot(context.Background(), cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrConfigConflict)
}

func TestDefine_TaxonomyClashesWithBuiltinType(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "cpt.db"))
	require.NoError(t, err)
	defer s.Close()

	reg := registry.New()
	r := registry.NewRegistrar(reg, s)
	_, err = r.DefineTaxonomy(context.Background(), "post", []string{"event"}, nil, names.Overrides{})
	require.ErrorIs(t, err, config.ErrConfigConflict)
	_, ok := reg.Taxonomy("post")
	assert.False(t, ok, "failed registration leaves the registry unchanged")

	cfg := testSettings(t)
	cfg.Definitions = filepath.Join(t.TempDir(), "types.yaml")
	require.NoError(t, os.WriteFile(cfg.Definitions, []byte(`
taxonomies:
  - key: section
    object_types: [event]
    args:
      query_var: page
`), 0644))
	_, err = boot(context.Background(), cfg)
	assert.ErrorIs(t, err, config.ErrConfigConflict)
}

func TestBoot_MissingDefinitions(t *testing.T) {
	cfg := testSettings(t)
	cfg.Definitions = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := boot(context.Background(), cfg)
	assert.Error(t, err)
}

func TestSeedData(t *testing.T) {
	cfg := testSettings(t)
	s, err := store.New(cfg.DB)
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, seedData(ctx, s, "styleguide", "small"))
	title, err := s.Option(ctx, "client_name")
	require.NoError(t, err)
	assert.Equal(t, "Example Co", title)

	require.NoError(t, seedData(ctx, s, "", "small"))
	_, err = s.TermBySlug(ctx, "venue", "main-hall")
	assert.NoError(t, err)

	err = seedData(ctx, s, "nope", "small")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plugin 'nope' not found")
	assert.Contains(t, err.Error(), "events, styleguide")
}

func TestRunReset(t *testing.T) {
	cfg := testSettings(t)
	require.NoError(t, os.WriteFile(cfg.DB, []byte("not a database"), 0644))

	require.NoError(t, runReset(context.Background(), cfg))

	s, err := store.New(cfg.DB)
	require.NoError(t, err)
	defer s.Close()
	_, err = s.UserByLogin(context.Background(), "organizer")
	assert.NoError(t, err)
}

func TestTypesCommand(t *testing.T) {
	cfg := testSettings(t)

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"types", "--db", cfg.DB})
	require.NoError(t, cmd.Execute())

	text := out.String()
	for _, want := range []string{"CONTENT TYPE", "event", "Events", "guide", "TAXONOMY", "venue", "taxonomie"} {
		assert.Contains(t, text, want)
	}
}

func TestLoadSettings_RejectsBadDBPath(t *testing.T) {
	v := settings.New()
	v.Set("db", "../../etc/cpt.db")

	_, err := loadSettings(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot contain '..'")
}
