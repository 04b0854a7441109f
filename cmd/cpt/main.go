// ABOUTME: Entry point for the cpt content type server.
// ABOUTME: Wires settings, store, registry and plugins behind cobra commands.

package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/2389/cpt/internal/registry"
	"github.com/2389/cpt/internal/settings"
	"github.com/2389/cpt/internal/store"
	"github.com/2389/cpt/plugins/core"
	_ "github.com/2389/cpt/plugins/events"     // Register events plugin
	_ "github.com/2389/cpt/plugins/styleguide" // Register styleguide plugin
)

var (
	configFile string
	seedSize   string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := settings.New()

	rootCmd := &cobra.Command{
		Use:   "cpt",
		Short: "cpt - content types and taxonomies with an admin and a site API",
		Long: `cpt registers content types and taxonomies from plugins and definition
files, then serves an admin UI and a JSON site API over a SQLite store.

Quick Start:
  cpt seed          # Create sample content
  cpt serve         # Start server on port 9000
  cpt types         # List registered content types and taxonomies
  cpt reset         # Wipe and reseed database`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default ./cpt.yaml or $XDG_CONFIG_HOME/cpt/cpt.yaml)")
	rootCmd.PersistentFlags().StringP("db", "d", "", "Database path")
	rootCmd.PersistentFlags().String("definitions", "", "YAML file with extra content type and taxonomy definitions")
	v.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	v.BindPFlag("definitions", rootCmd.PersistentFlags().Lookup("definitions"))

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the cpt HTTP server.

The server provides:
  • Admin UI at http://localhost:PORT/admin
  • Site API at http://localhost:PORT/api/types
  • Health check at http://localhost:PORT/healthz

Authentication:
  Use Bearer tokens in the format: Bearer user:LOGIN
  Requests without a known user get the configured default_role.

Environment Variables:
  CPT_PORT          Server port (default: 9000)
  CPT_DB            Database path
  CPT_BASE_URL      Base URL used in permalinks
  CPT_DEFINITIONS   Definitions file
  OPENAI_API_KEY    Enable AI-generated seed content`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings(v)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default 9000)")
	v.BindPFlag("port", serveCmd.Flags().Lookup("port"))

	seedCmd := &cobra.Command{
		Use:   "seed [plugin]",
		Short: "Seed the database with sample content",
		Long: `Seed the database with sample content for all plugins or a specific one.

AI-Powered Generation:
  Set OPENAI_API_KEY to generate event titles and descriptions with AI.
  Falls back to static sample data if no API key is provided.

Usage:
  cpt seed               # Seed all plugins
  cpt seed events        # Seed only the events plugin
  cpt seed --size large  # More items per content type

Note: Seed is not idempotent. Use 'cpt reset' to clear data before reseeding.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings(v)
			if err != nil {
				return err
			}
			s, err := store.New(cfg.DB)
			if err != nil {
				return err
			}
			defer s.Close()

			var pluginName string
			if len(args) > 0 {
				pluginName = args[0]
			}
			return seedData(cmd.Context(), s, pluginName, seedSize)
		},
	}
	seedCmd.Flags().StringVar(&seedSize, "size", "medium", "Seed size: small, medium or large")

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset the database (wipe and reseed)",
		Long: `Delete the database file and create a fresh one with new sample content.

Warning: This permanently deletes all data in the database!`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings(v)
			if err != nil {
				return err
			}
			return runReset(cmd.Context(), cfg)
		},
	}

	typesCmd := &cobra.Command{
		Use:   "types",
		Short: "List registered content types and taxonomies",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings(v)
			if err != nil {
				return err
			}
			app, err := boot(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer app.store.Close()
			return printTypes(cmd.OutOrStdout(), app.reg)
		},
	}

	rootCmd.AddCommand(serveCmd, seedCmd, resetCmd, typesCmd)
	return rootCmd
}

func loadSettings(v *viper.Viper) (*settings.Settings, error) {
	cfg, err := settings.Load(v, configFile)
	if err != nil {
		return nil, err
	}
	cfg.DB, err = settings.CleanDBPath(cfg.DB)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(ctx context.Context, cfg *settings.Settings) error {
	app, err := boot(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.store.Close()

	addr := ":" + cfg.Port
	log.Printf("cpt server listening on %s", addr)
	log.Printf("Database: %s", cfg.DB)
	return http.ListenAndServe(addr, newServer(app, cfg))
}

func runReset(ctx context.Context, cfg *settings.Settings) error {
	// Remove existing database - ignore if file doesn't exist
	if err := os.Remove(cfg.DB); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove existing database: %w", err)
	}

	s, err := store.New(cfg.DB)
	if err != nil {
		return err
	}
	defer s.Close()

	return seedData(ctx, s, "", "medium") // Reset always seeds all plugins
}

func seedData(ctx context.Context, s *store.Store, pluginFilter, size string) error {
	if pluginFilter != "" {
		if _, ok := core.Get(pluginFilter); !ok {
			return fmt.Errorf("plugin '%s' not found (available: %s)", pluginFilter, strings.Join(core.Names(), ", "))
		}
		log.Printf("Seeding database with sample content for plugin: %s", pluginFilter)
	} else {
		log.Println("Seeding database with sample content...")
	}

	if err := attachStore(s); err != nil {
		return err
	}

	totalRecords := 0
	failed := 0
	for _, plugin := range core.All() {
		if pluginFilter != "" && plugin.Name() != pluginFilter {
			continue
		}

		data, err := plugin.Seed(ctx, size)
		if err != nil {
			log.Printf("Failed to seed %s: %v", plugin.Name(), err)
			failed++
			continue
		}
		log.Printf("%s: %s", plugin.Name(), data.Summary)
		for _, count := range data.Records {
			totalRecords += count
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d plugin(s) failed to seed", failed)
	}
	log.Printf("Seeding complete! Created %d records", totalRecords)
	return nil
}

func attachStore(s *store.Store) error {
	for _, plugin := range core.All() {
		if sp, ok := plugin.(core.StorePlugin); ok {
			if err := sp.SetStore(s); err != nil {
				return fmt.Errorf("failed to initialize plugin %s: %w", plugin.Name(), err)
			}
		}
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func printTypes(w io.Writer, reg *registry.Registry) error {
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	style := func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return header
		}
		return cell
	}

	types := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(style).
		Headers("CONTENT TYPE", "NAME", "PUBLIC", "HIERARCHICAL", "TAXONOMIES")
	for _, ct := range reg.ContentTypes() {
		var taxes []string
		for _, tax := range reg.TaxonomiesFor(ct.Key) {
			taxes = append(taxes, tax.Key)
		}
		types.Row(ct.Key, ct.Labels["name"], yesNo(ct.Public), yesNo(ct.Hierarchical), strings.Join(taxes, ", "))
	}

	taxes := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(style).
		Headers("TAXONOMY", "NAME", "OBJECT TYPES", "HIERARCHICAL", "EXCLUSIVE")
	for _, tax := range reg.Taxonomies() {
		taxes.Row(tax.Key, tax.Labels["name"], strings.Join(tax.ObjectTypes, ", "), yesNo(tax.Hierarchical), yesNo(tax.Exclusive))
	}

	_, err := fmt.Fprintf(w, "%s\n%s\n", types.String(), taxes.String())
	return err
}
