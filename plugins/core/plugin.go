// ABOUTME: Core plugin interface for the cpt plugin system.
// ABOUTME: Plugins define content types and taxonomies, add routes and seed sample content.

package core

import (
	"context"

	"github.com/go-chi/chi/v5"

	"github.com/2389/cpt/internal/registry"
	"github.com/2389/cpt/internal/schema"
	"github.com/2389/cpt/internal/store"
)

// Plugin defines the interface that all cpt plugins must implement
type Plugin interface {
	// Metadata
	Name() string
	Health() HealthStatus

	// Define registers the plugin's content types and taxonomies. It runs
	// once at startup, before the registry is frozen.
	Define(ctx context.Context, r *registry.Registrar) error

	// HTTP Routes
	RegisterRoutes(r chi.Router)

	// Data Generation
	Seed(ctx context.Context, size string) (SeedData, error)
}

// StorePlugin is implemented by plugins that read or write content.
type StorePlugin interface {
	Plugin
	SetStore(s *store.Store) error
}

// FuncProvider is implemented by plugins offering named cell functions to
// column descriptors in definitions files.
type FuncProvider interface {
	Funcs() schema.Funcs
}

// HealthStatus represents plugin health
type HealthStatus struct {
	Status  string `json:"status"` // "healthy", "degraded", "unavailable"
	Message string `json:"message,omitempty"`
}

// SeedData represents data generation results
type SeedData struct {
	Summary string         // Human-readable summary
	Records map[string]int // Item counts per content type: {"event": 8}
}

// SeedCount maps a seed size to a number of items per content type.
func SeedCount(size string) int {
	switch size {
	case "small":
		return 3
	case "large":
		return 20
	default:
		return 8
	}
}
