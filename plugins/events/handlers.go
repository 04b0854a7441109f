// ABOUTME: Upcoming events endpoint and the event list cell helpers.

package events

import (
	"encoding/json"
	"html"
	"log"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cast"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	apierrors "github.com/2389/cpt/internal/errors"
	"github.com/2389/cpt/internal/query"
	"github.com/2389/cpt/internal/schema"
)

const dateLayout = "2006-01-02"

// Upcoming is one entry of the upcoming events response.
type Upcoming struct {
	ID     int64    `json:"id"`
	Title  string   `json:"title"`
	Slug   string   `json:"slug"`
	Start  string   `json:"start"`
	Venues []string `json:"venues"`
}

// upcoming lists published events starting on or after ?from (default today),
// soonest first.
func (p *Plugin) upcoming(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	from := r.URL.Query().Get("from")
	if from == "" {
		from = time.Now().Format(dateLayout)
	}
	if _, err := time.Parse(dateLayout, from); err != nil {
		apierrors.WriteErrorWithField(w, http.StatusBadRequest, apierrors.ErrInvalidRequest,
			"from must be a YYYY-MM-DD date", "from")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	q := query.New([]string{ContentType}, nil)
	q.Statuses = []string{"publish"}
	q.MetaQuery = append(q.MetaQuery, query.MetaClause{Key: metaStart, Value: from, Compare: ">="})
	q.OrderBy, q.MetaKey, q.Order = "meta_value", metaStart, "ASC"
	q.Limit = limit

	items, _, err := p.store.Items(ctx, q)
	if err != nil {
		log.Printf("Error listing upcoming events: %v", err)
		apierrors.Write(w, err)
		return
	}

	out := make([]Upcoming, 0, len(items))
	for _, it := range items {
		ev := Upcoming{ID: it.ID, Title: it.Title, Slug: it.Slug, Venues: []string{}}
		if starts, err := p.store.MetaValues(ctx, it.ID, metaStart); err == nil && len(starts) > 0 {
			ev.Start = starts[0]
		}
		terms, err := p.store.Terms(ctx, it.ID, Venue)
		if err != nil {
			apierrors.Write(w, err)
			return
		}
		for _, t := range terms {
			ev.Venues = append(ev.Venues, t.Name)
		}
		out = append(out, ev)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

var prices = message.NewPrinter(language.English)

// priceCell renders a price meta value: "Free" for zero, dollars otherwise.
func priceCell(c schema.CellContext) string {
	if c.MetaValue == "" {
		return ""
	}
	v, err := cast.ToFloat64E(c.MetaValue)
	if err != nil {
		return html.EscapeString(c.MetaValue)
	}
	if v == 0 {
		return "Free"
	}
	return prices.Sprintf("$%.2f", v)
}

// sortPrices orders price filter options numerically. Values that are not
// numbers go last, in their original order.
func sortPrices(options []string, _ string) []string {
	out := append([]string(nil), options...)
	sort.SliceStable(out, func(i, j int) bool {
		a, errA := cast.ToFloat64E(out[i])
		b, errB := cast.ToFloat64E(out[j])
		switch {
		case errA != nil:
			return false
		case errB != nil:
			return true
		}
		return a < b
	})
	return out
}
