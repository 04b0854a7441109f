// ABOUTME: Startup sequence and HTTP router for the cpt server.
// ABOUTME: Plugins define first, then the definitions file, then the registry freezes.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/2389/cpt/internal/admin"
	"github.com/2389/cpt/internal/auth"
	"github.com/2389/cpt/internal/definitions"
	"github.com/2389/cpt/internal/links"
	"github.com/2389/cpt/internal/registry"
	"github.com/2389/cpt/internal/settings"
	"github.com/2389/cpt/internal/site"
	"github.com/2389/cpt/internal/store"
	"github.com/2389/cpt/plugins/core"
)

type app struct {
	store *store.Store
	reg   *registry.Registry
}

// boot opens the store and runs every registration. The returned registry
// is frozen.
func boot(ctx context.Context, cfg *settings.Settings) (*app, error) {
	s, err := store.New(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	reg := registry.New()
	if err := define(ctx, s, reg, cfg.Definitions); err != nil {
		s.Close()
		return nil, err
	}
	reg.Freeze()
	return &app{store: s, reg: reg}, nil
}

func define(ctx context.Context, s *store.Store, reg *registry.Registry, defsPath string) error {
	if err := attachStore(s); err != nil {
		return err
	}

	r := registry.NewRegistrar(reg, s)
	for _, plugin := range core.All() {
		if err := plugin.Define(ctx, r); err != nil {
			return fmt.Errorf("plugin %s: %w", plugin.Name(), err)
		}
	}

	if defsPath == "" {
		return nil
	}
	f, err := definitions.Load(defsPath)
	if err != nil {
		return err
	}
	if err := f.Apply(ctx, r, core.Funcs()); err != nil {
		return fmt.Errorf("%s: %w", defsPath, err)
	}
	log.Printf("Loaded %d content types and %d taxonomies from %s", len(f.ContentTypes), len(f.Taxonomies), defsPath)
	return nil
}

func newServer(a *app, cfg *settings.Settings) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(auth.Middleware(a.store, cfg.DefaultRole))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		plugins := map[string]core.HealthStatus{}
		for _, p := range core.All() {
			plugins[p.Name()] = p.Health()
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "plugins": plugins})
	})

	r.Get("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	l := links.New(cfg.BaseURL, a.store, a.reg)
	admin.NewHandlers(a.store, a.reg, l, admin.Options{
		DateFormat:     cfg.DateFormat,
		TimeFormat:     cfg.TimeFormat,
		PerPage:        cfg.PerPage,
		FilterCacheTTL: cfg.FilterCacheTTL,
	}).RegisterRoutes(r)
	site.NewHandlers(a.store, a.reg, l, cfg.PerPage).RegisterRoutes(r)

	for _, plugin := range core.All() {
		plugin.RegisterRoutes(r)
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/admin", http.StatusFound)
	})
	return r
}
