// ABOUTME: Sample data for the events plugin.
// ABOUTME: Creates venues, an organizer and generated events with meta, venues and posters.

package events

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/2389/cpt/internal/content"
	"github.com/2389/cpt/internal/seed"
	"github.com/2389/cpt/internal/store"
	"github.com/2389/cpt/plugins/core"
)

var venues = []string{"Main Hall", "Garden Stage", "Library Annex"}

// fallbackEvents are used when no OpenAI key is configured.
var fallbackEvents = []seed.Item{
	{
		Title:   "Spring Tech Meetup",
		Excerpt: "Lightning talks from local developers.",
		Content: "Five short talks, pizza and plenty of time to chat afterwards.",
		Meta:    map[string]string{metaStart: "2025-04-12", metaPrice: "0", metaSpeaker: "Ada Park", metaStatus: "0", metaFeatured: "1"},
		Terms:   map[string][]string{Venue: {"Main Hall"}},
	},
	{
		Title:   "Open Air Jazz Night",
		Excerpt: "A trio plays standards under the lights.",
		Content: "Bring a blanket. The bar opens an hour before the first set.",
		Meta:    map[string]string{metaStart: "2025-06-21", metaPrice: "25", metaSpeaker: "The Linden Trio", metaStatus: "0", metaSoldOut: "1"},
		Terms:   map[string][]string{Venue: {"Garden Stage"}},
	},
	{
		Title:   "Community Book Swap",
		Excerpt: "Trade the books you have read for ones you have not.",
		Content: "Every book brought in earns a ticket for one book taken home.",
		Meta:    map[string]string{metaStart: "2025-03-08", metaPrice: "0", metaSpeaker: "Library volunteers", metaStatus: "1"},
		Terms:   map[string][]string{Venue: {"Library Annex"}},
	},
	{
		Title:   "Winter Gala",
		Excerpt: "Dinner, dancing and the annual awards.",
		Content: "Formal dress. Tickets include a three course dinner.",
		Meta:    map[string]string{metaStart: "2025-12-13", metaPrice: "120", metaSpeaker: "Mara Quinn", metaStatus: "0", metaFeatured: "1"},
		Terms:   map[string][]string{Venue: {"Main Hall"}},
	},
}

func (p *Plugin) Seed(ctx context.Context, size string) (core.SeedData, error) {
	if p.store == nil {
		return core.SeedData{}, fmt.Errorf("events: store not set")
	}

	termIDs := make(map[string]int64, len(venues))
	for _, name := range venues {
		t, err := p.venue(ctx, name)
		if err != nil {
			return core.SeedData{}, err
		}
		termIDs[name] = t.ID
	}

	organizer, err := p.store.UserByLogin(ctx, "organizer")
	if errors.Is(err, store.ErrNotFound) {
		organizer, err = p.store.CreateUser(ctx, "organizer", "Olive Organizer", "author")
	}
	if err != nil {
		return core.SeedData{}, err
	}

	generated := p.generator().Items(ctx, seed.Request{
		Singular:    "Event",
		Plural:      "Events",
		Description: "Events at a community arts centre: talks, concerts, workshops and fundraisers.",
		MetaKeys: map[string]string{
			metaStart:   "YYYY-MM-DD date",
			metaPrice:   "ticket price number",
			metaSpeaker: "speaker or performer name",
			metaStatus:  "0 for scheduled, 1 for postponed, 2 for cancelled",
		},
		Terms:    map[string][]string{Venue: venues},
		Fallback: fallbackEvents,
	}, core.SeedCount(size))

	seen := map[string]int{}
	var previous int64
	for i, g := range generated {
		status := "publish"
		if i%5 == 4 {
			status = "draft"
		}
		it := &content.Item{
			Type:     ContentType,
			Title:    g.Title,
			Excerpt:  g.Excerpt,
			Content:  g.Content,
			Status:   status,
			AuthorID: organizer.ID,
		}
		if n := seen[g.Title]; n > 0 {
			it.Slug = store.Slugify(fmt.Sprintf("%s %d", g.Title, n+1))
		}
		seen[g.Title]++

		if _, err := p.store.CreateItem(ctx, it); err != nil {
			return core.SeedData{}, err
		}
		for _, k := range sortedKeys(g.Meta) {
			if err := p.store.SetMeta(ctx, it.ID, k, g.Meta[k]); err != nil {
				return core.SeedData{}, err
			}
		}
		if previous != 0 && i%3 == 2 {
			if err := p.store.SetMeta(ctx, it.ID, metaPrevious, strconv.FormatInt(previous, 10)); err != nil {
				return core.SeedData{}, err
			}
		}
		for _, name := range g.Terms[Venue] {
			if id, ok := termIDs[name]; ok {
				if err := p.store.SetTerms(ctx, it.ID, Venue, []int64{id}); err != nil {
					return core.SeedData{}, err
				}
				break
			}
		}
		if i%2 == 0 {
			img := content.Image{
				URL:    fmt.Sprintf("https://picsum.photos/seed/event-%d/400/300", i+1),
				Alt:    g.Title + " poster",
				Width:  400,
				Height: 300,
			}
			if err := p.store.SetThumbnail(ctx, it.ID, img); err != nil {
				return core.SeedData{}, err
			}
		}
		previous = it.ID
	}

	return core.SeedData{
		Summary: fmt.Sprintf("Created %d events across %d venues", len(generated), len(venues)),
		Records: map[string]int{ContentType: len(generated), Venue: len(venues)},
	}, nil
}

// venue returns the venue term called name, creating it on first use.
func (p *Plugin) venue(ctx context.Context, name string) (*content.Term, error) {
	t, err := p.store.TermBySlug(ctx, Venue, store.Slugify(name))
	if errors.Is(err, store.ErrNotFound) {
		return p.store.CreateTerm(ctx, content.Term{Taxonomy: Venue, Name: name})
	}
	return t, err
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
