// ABOUTME: List screen CSS toggles and the dashboard "At a Glance" entries.

package admin

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/2389/cpt/internal/caps"
	"github.com/2389/cpt/internal/config"
)

// HeadCSS returns the style rules that hide list screen controls ct turns off.
func HeadCSS(ct *config.ContentType) string {
	var rules []string
	if ct.HideSearch {
		rules = append(rules, fmt.Sprintf(".post-type-%s .search-box { display: none }", ct.Key))
	}

	filters := ct.AdminFilters
	month, monthSet := filters.Toggled("month")
	seo, seoSet := filters.Toggled("seo")
	if monthSet && !month {
		rules = append(rules, `#posts-filter select[name="m"] { display: none !important; visibility: hidden; }`)
	}
	if seoSet && !seo {
		rules = append(rules, `#posts-filter select[name="seo_filter"] { display: none !important; visibility: hidden; }`)
	}
	// With month and seo off, the filter button only stays for custom filters.
	if !month && !seo && (monthSet || seoSet) && filters.Len() == 0 {
		rules = append(rules, `#posts-filter input[name="filter_action"] { display: none !important; visibility: hidden; }`)
	}
	return strings.Join(rules, "\n")
}

// GlanceItem is one "At a Glance" dashboard entry.
type GlanceItem struct {
	Key   string
	Count int
	Text  string
	URL   string
}

// glanceItems lists published counts for every content type that asks for
// a glance entry and that user may edit.
func (h *Handlers) glanceItems(ctx context.Context, user caps.Checker) []GlanceItem {
	var items []GlanceItem
	for _, ct := range h.reg.ContentTypes() {
		if !ct.DashboardGlance || h.store.BuiltinType(ct.Key) {
			continue
		}
		if !user.Can(caps.EditPosts(ct.CapabilityType)) {
			continue
		}
		counts, err := h.store.CountByStatus(ctx, ct.Key)
		if err != nil {
			log.Printf("Error counting %s items: %v", ct.Key, err)
			continue
		}
		n := counts["publish"]
		items = append(items, GlanceItem{
			Key:   ct.Key,
			Count: n,
			Text:  formatCount(n) + " " + plural(ct.Labels["singular_name"], ct.Labels["name"], n),
			URL:   h.links.List(ct.Key),
		})
	}
	return items
}
