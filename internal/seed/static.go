// ABOUTME: Static fallback items when the OpenAI API key is not available.

package seed

import (
	"fmt"
	"sort"
	"strings"
)

var adjectives = []string{"Spring", "Open", "Community", "Late", "Annual", "Quiet", "Grand", "Winter"}

var blurbs = []string{
	"A relaxed gathering with plenty of time for questions.",
	"Hands-on and practical, bring a laptop.",
	"An introduction for newcomers and a refresher for everyone else.",
	"Short talks followed by an open discussion.",
	"Run by volunteers, everyone is welcome.",
}

// staticItems returns req.Fallback cycled to count, or generic items when
// there is no fallback. Meta values and terms are filled in round robin.
func staticItems(req Request, count int) []Item {
	out := make([]Item, count)
	if len(req.Fallback) > 0 {
		for i := range out {
			out[i] = req.Fallback[i%len(req.Fallback)]
		}
		return out
	}

	metaKeys := sortedKeys(req.MetaKeys)
	taxonomies := sortedKeys(req.Terms)
	for i := range out {
		it := Item{
			Title:   fmt.Sprintf("%s %s %d", adjectives[i%len(adjectives)], req.Singular, i+1),
			Excerpt: blurbs[i%len(blurbs)],
			Content: strings.Join([]string{blurbs[i%len(blurbs)], blurbs[(i+1)%len(blurbs)]}, " "),
			Meta:    map[string]string{},
			Terms:   map[string][]string{},
		}
		for _, k := range metaKeys {
			it.Meta[k] = staticMeta(req.MetaKeys[k], i)
		}
		for _, tax := range taxonomies {
			if terms := req.Terms[tax]; len(terms) > 0 {
				it.Terms[tax] = []string{terms[i%len(terms)]}
			}
		}
		out[i] = it
	}
	return out
}

// staticMeta picks a value matching a meta key hint.
func staticMeta(hint string, i int) string {
	h := strings.ToLower(hint)
	switch {
	case strings.Contains(h, "date"):
		return fmt.Sprintf("2025-%02d-%02d", i%12+1, i%28+1)
	case strings.Contains(h, "1 or 0"), strings.Contains(h, "bool"):
		return fmt.Sprint(i % 2)
	case strings.Contains(h, "number"):
		return fmt.Sprint((i + 1) * 10)
	}
	return fmt.Sprintf("%s %d", hint, i+1)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
