// ABOUTME: Builds the styleguide site payload from site options, sections and guide pages.
// ABOUTME: Sections follow term order and pages follow menu order.

package styleguide

import (
	"context"
	"encoding/json"
	"html"
	"log"
	"net/http"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/2389/cpt/internal/content"
	apierrors "github.com/2389/cpt/internal/errors"
	"github.com/2389/cpt/internal/query"
)

// Site is the full styleguide payload.
type Site struct {
	Homepage Homepage                                `json:"homepage"`
	General  General                                 `json:"general"`
	Guides   *orderedmap.OrderedMap[string, Section] `json:"guides"`
	SEO      SEO                                     `json:"seo"`
}

type Homepage struct {
	Intro Intro `json:"intro"`
}

type Intro struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Logo     string `json:"logo"`
}

type General struct {
	Domain     string   `json:"domain"`
	ClientName string   `json:"client_name"`
	Logo       string   `json:"logo"`
	Favicons   Favicons `json:"favicons"`
	Colors     Colors   `json:"colors"`
	Fonts      Fonts    `json:"fonts"`
}

type Favicons struct {
	Apple  string `json:"apple"`
	Icon   string `json:"icon"`
	Pinned string `json:"pinned"`
}

type Colors struct {
	General struct {
		Title    string `json:"title"`
		Subtitle string `json:"subtitle"`
		Text     string `json:"text"`
	} `json:"general"`
	Button struct {
		Background string `json:"background"`
		Text       string `json:"text"`
	} `json:"button"`
	Menu struct {
		Background          string `json:"background"`
		SecondaryBackground string `json:"secondary_background"`
		Title               string `json:"title"`
		PrimaryItem         string `json:"primary_item"`
		SecondaryItem       string `json:"secondary_item"`
		ItemActive          string `json:"item_active"`
		Dark                bool   `json:"dark"`
	} `json:"menu"`
	Homepage struct {
		Background string `json:"background"`
		Title      string `json:"title"`
		Subtitle   string `json:"subtitle"`
	} `json:"homepage"`
}

// Fonts always carries Lato as the default Google family. A custom font is
// either one more Google family or a Typekit kit.
type Fonts struct {
	Families struct {
		Google struct {
			Families []string `json:"families"`
		} `json:"google"`
		Typekit *struct {
			ID string `json:"id"`
		} `json:"typekit,omitempty"`
	} `json:"families"`
	Names map[string]FontName `json:"names"`
}

type FontName struct {
	Name string `json:"name"`
}

type SEO struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// Section is one taxonomie term with its guide pages.
type Section struct {
	Title       string                               `json:"title"`
	Description string                               `json:"description"`
	Name        string                               `json:"name"`
	Pages       *orderedmap.OrderedMap[string, Page] `json:"pages"`
}

// Page is one guide page. Flex holds its modules as stored.
type Page struct {
	ID    int64             `json:"id"`
	Title string            `json:"title"`
	Name  string            `json:"name"`
	Flex  []json.RawMessage `json:"flex"`
}

const defaultFont = "Lato"

func (p *Plugin) site(w http.ResponseWriter, r *http.Request) {
	site, err := p.build(r.Context())
	if err != nil {
		log.Printf("Error building styleguide site: %v", err)
		apierrors.Write(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(site)
}

// options reads site options, remembering the first error.
type options struct {
	ctx context.Context
	get func(context.Context, string) (string, error)
	err error
}

func (o *options) text(name string) string {
	if o.err != nil {
		return ""
	}
	v, err := o.get(o.ctx, name)
	if err != nil {
		o.err = err
		return ""
	}
	return html.UnescapeString(v)
}

func (p *Plugin) build(ctx context.Context) (*Site, error) {
	o := &options{ctx: ctx, get: p.store.Option}

	site := &Site{
		Homepage: Homepage{Intro: Intro{
			Title:    o.text("homepage_title"),
			Subtitle: o.text("homepage_subtitle"),
			Logo:     o.text("logo"),
		}},
		General: General{
			Domain:     o.text("domain"),
			ClientName: o.text("client_name"),
			Logo:       o.text("logo"),
			Favicons: Favicons{
				Apple:  o.text("favicon_apple"),
				Icon:   o.text("favicon_icon"),
				Pinned: o.text("favicon_pinned_icon"),
			},
			Colors: colors(o),
			Fonts:  fonts(o),
		},
		SEO: SEO{
			Title:       o.text("seo_title"),
			Description: o.text("seo_description"),
			Image:       o.text("seo_image"),
		},
	}
	if o.err != nil {
		return nil, o.err
	}

	guides, err := p.guides(ctx)
	if err != nil {
		return nil, err
	}
	site.Guides = guides
	return site, nil
}

func colors(o *options) Colors {
	var c Colors
	c.General.Title = o.text("general_color_title")
	c.General.Subtitle = o.text("general_color_subtitle")
	c.General.Text = o.text("general_color_text")
	c.Button.Background = o.text("button_background")
	c.Button.Text = o.text("button_text")
	c.Menu.Background = o.text("menu_background")
	c.Menu.SecondaryBackground = o.text("menu_color_secondary_background")
	c.Menu.Title = o.text("menu_title")
	c.Menu.PrimaryItem = o.text("menu_color_primary_item")
	c.Menu.SecondaryItem = o.text("menu_color_secondary_item")
	c.Menu.ItemActive = o.text("menu_color_item_active")
	c.Menu.Dark = o.text("menu_dark_mode") == "1"
	c.Homepage.Background = o.text("homepage_color_background")
	c.Homepage.Title = o.text("homepage_color_title")
	c.Homepage.Subtitle = o.text("homepage_color_subtitle")
	return c
}

func fonts(o *options) Fonts {
	var f Fonts
	f.Names = map[string]FontName{"defaultFont": {Name: defaultFont}}
	f.Families.Google.Families = []string{"Lato:300,400,700"}

	switch o.text("font_type") {
	case "google":
		f.Families.Google.Families = append(f.Families.Google.Families, o.text("font_google_familie"))
		f.Names["customFont"] = FontName{Name: o.text("font_name")}
	case "typekit":
		f.Families.Typekit = &struct {
			ID string `json:"id"`
		}{ID: o.text("font_typekit_id")}
		f.Names["customFont"] = FontName{Name: o.text("font_name")}
	}
	return f
}

// guides groups published guide pages by section. Sections without pages
// are left out.
func (p *Plugin) guides(ctx context.Context) (*orderedmap.OrderedMap[string, Section], error) {
	out := orderedmap.New[string, Section]()
	terms, err := p.store.TaxonomyTerms(ctx, Taxonomy)
	if err != nil {
		return nil, err
	}
	for _, t := range terms {
		pages, err := p.pages(ctx, t)
		if err != nil {
			return nil, err
		}
		if pages.Len() == 0 {
			continue
		}
		out.Set(t.Slug, Section{
			Title:       html.UnescapeString(t.Name),
			Description: html.UnescapeString(t.Description),
			Name:        t.Slug,
			Pages:       pages,
		})
	}
	return out, nil
}

func (p *Plugin) pages(ctx context.Context, t content.Term) (*orderedmap.OrderedMap[string, Page], error) {
	q := query.New([]string{ContentType}, nil)
	q.Statuses = []string{"publish"}
	q.Terms[Taxonomy] = t.Slug
	q.OrderBy, q.Order = "menu_order", "ASC"

	items, _, err := p.store.Items(ctx, q)
	if err != nil {
		return nil, err
	}
	out := orderedmap.New[string, Page]()
	for _, it := range items {
		flex, err := p.modules(ctx, it.ID)
		if err != nil {
			return nil, err
		}
		out.Set(it.Slug, Page{
			ID:    it.ID,
			Title: html.UnescapeString(it.Title),
			Name:  it.Slug,
			Flex:  flex,
		})
	}
	return out, nil
}

// modules decodes the stored page modules. A value that is not a JSON
// array counts as no modules.
func (p *Plugin) modules(ctx context.Context, itemID int64) ([]json.RawMessage, error) {
	values, err := p.store.MetaValues(ctx, itemID, metaModules)
	if err != nil {
		return nil, err
	}
	flex := []json.RawMessage{}
	if len(values) == 0 || values[0] == "" {
		return flex, nil
	}
	if err := json.Unmarshal([]byte(values[0]), &flex); err != nil {
		log.Printf("Ignoring page modules of guide %d: %v", itemID, err)
		return []json.RawMessage{}, nil
	}
	return flex, nil
}
