// ABOUTME: Sample styleguide: site options, two sections and their guide pages.

package styleguide

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/2389/cpt/internal/content"
	"github.com/2389/cpt/internal/store"
	"github.com/2389/cpt/plugins/core"
)

var sampleOptions = map[string]string{
	"homepage_title":                  "Brand &amp; Style",
	"homepage_subtitle":               "Everything you need to build with our brand",
	"logo":                            "https://example.com/logo.svg",
	"domain":                          "styleguide.example.com",
	"client_name":                     "Example Co",
	"favicon_apple":                   "https://example.com/apple-touch-icon.png",
	"favicon_icon":                    "https://example.com/favicon.ico",
	"favicon_pinned_icon":             "https://example.com/pinned.svg",
	"general_color_title":             "#1f2937",
	"general_color_subtitle":          "#4b5563",
	"general_color_text":              "#111827",
	"button_background":               "#2563eb",
	"button_text":                     "#ffffff",
	"menu_background":                 "#111827",
	"menu_color_secondary_background": "#1f2937",
	"menu_title":                      "#ffffff",
	"menu_color_primary_item":         "#e5e7eb",
	"menu_color_secondary_item":       "#9ca3af",
	"menu_color_item_active":          "#60a5fa",
	"menu_dark_mode":                  "1",
	"homepage_color_background":       "#f3f4f6",
	"homepage_color_title":            "#111827",
	"homepage_color_subtitle":         "#6b7280",
	"font_type":                       "google",
	"font_google_familie":             "Merriweather:400,700",
	"font_name":                       "Merriweather",
	"seo_title":                       "Example Co styleguide",
	"seo_description":                 "Logos, colours, type and components.",
	"seo_image":                       "https://example.com/og.png",
}

type samplePage struct {
	title   string
	order   int
	modules string
}

var sampleSections = []struct {
	name, description string
	order             int
	pages             []samplePage
}{
	{
		name:        "Basis",
		description: "Logo, colours and typography.",
		order:       1,
		pages: []samplePage{
			{title: "Kleuren", order: 2, modules: `[{"layout":"title_text","title":"Kleuren","text":"Primary and secondary palettes."}]`},
			{title: "Logo", order: 1, modules: `[{"layout":"image","image":"https://example.com/logo.svg","alt":"Logo","padding":true,"border":false}]`},
		},
	},
	{
		name:        "Componenten",
		description: "Buttons, forms and cards.",
		order:       2,
		pages: []samplePage{
			{title: "Buttons", order: 1, modules: `[{"layout":"button","type":"link","label":"Primary","url":"https://example.com","external":true}]`},
		},
	},
}

func (p *Plugin) Seed(ctx context.Context, size string) (core.SeedData, error) {
	if p.store == nil {
		return core.SeedData{}, fmt.Errorf("styleguide: store not set")
	}
	for _, name := range sortedKeys(sampleOptions) {
		if err := p.store.SetOption(ctx, name, sampleOptions[name]); err != nil {
			return core.SeedData{}, err
		}
	}

	pages := 0
	for _, sec := range sampleSections {
		term, err := p.store.TermBySlug(ctx, Taxonomy, store.Slugify(sec.name))
		if errors.Is(err, store.ErrNotFound) {
			term, err = p.store.CreateTerm(ctx, content.Term{
				Taxonomy:    Taxonomy,
				Name:        sec.name,
				Description: sec.description,
				Order:       sec.order,
			})
		}
		if err != nil {
			return core.SeedData{}, err
		}

		for _, pg := range sec.pages {
			it := &content.Item{Type: ContentType, Title: pg.title, Status: "publish", MenuOrder: pg.order}
			if _, err := p.store.CreateItem(ctx, it); err != nil {
				return core.SeedData{}, err
			}
			if err := p.store.SetMeta(ctx, it.ID, metaModules, pg.modules); err != nil {
				return core.SeedData{}, err
			}
			if err := p.store.SetTerms(ctx, it.ID, Taxonomy, []int64{term.ID}); err != nil {
				return core.SeedData{}, err
			}
			pages++
		}
	}

	return core.SeedData{
		Summary: fmt.Sprintf("Created %d guide pages in %d sections and %d site options", pages, len(sampleSections), len(sampleOptions)),
		Records: map[string]int{ContentType: pages, Taxonomy: len(sampleSections)},
	}, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
