// ABOUTME: The content type list screen: filtered, sorted item table with rendered columns.
// ABOUTME: Admin filters, sortables and extend_search shape the query before the store runs it.

package admin

import (
	"context"
	"fmt"
	"html"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/2389/cpt/internal/caps"
	"github.com/2389/cpt/internal/columns"
	"github.com/2389/cpt/internal/config"
	"github.com/2389/cpt/internal/content"
	"github.com/2389/cpt/internal/query"
	"github.com/2389/cpt/internal/schema"
)

// listStatuses are shown under "All"; trash has its own view.
var listStatuses = []string{"publish", "future", "draft", "pending", "private"}

// builtinSortables are the host columns that sort without descriptors.
var builtinSortables = map[string]bool{"title": true, "date": true}

type listColumn struct {
	ID      string
	Title   template.HTML
	SortURL string
	// Sorted is "asc" or "desc" for the active sort column.
	Sorted string
}

type listRow struct {
	ID    int64
	Cells []template.HTML
}

type statusView struct {
	Label   string
	URL     string
	Count   int
	Current bool
}

type bulkAction struct {
	Value string
	Label string
}

type listPage struct {
	page
	Type        *config.ContentType
	Columns     []listColumn
	Rows        []listRow
	Filters     template.HTML
	Months      template.HTML
	Views       []statusView
	BulkActions []bulkAction
	Statuses    []bulkAction
	Status      string
	Search      string
	NewURL      string
	BulkURL     string
	Total       int
	Paged       int
	Pages       int
	PrevURL     string
	NextURL     string
}

func (h *Handlers) list(w http.ResponseWriter, r *http.Request) {
	ct, user, ok := h.contentType(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	public := publicVars(r)

	if _, requested := query.Requested(public); !requested && ct.AdminCols != nil {
		if s, ok := query.DefaultSort(ct.AdminCols); ok {
			public["orderby"] = s.ID
			public["order"] = s.Order
		}
	}

	q := h.listQuery(ct, public, user)
	items, total, err := h.store.Items(ctx, q)
	if err != nil {
		log.Printf("Error listing %s items: %v", ct.Key, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	pass, cols := h.columns(ct, user)
	data := listPage{
		page:    h.newPage(user, ct.Labels["name"], ct.Key),
		Type:    ct,
		Status:  public["post_status"],
		Search:  public["s"],
		NewURL:  h.links.List(ct.Key) + "/new",
		BulkURL: h.links.List(ct.Key) + "/bulk",
		Total:   total,
	}
	data.BodyClass = "post-type-" + ct.Key
	data.HeadCSS = template.CSS(HeadCSS(ct))
	data.Columns = h.headers(ct, cols, public)

	for _, it := range items {
		row := listRow{ID: it.ID}
		for p := cols.Oldest(); p != nil; p = p.Next() {
			row.Cells = append(row.Cells, template.HTML(h.cell(ctx, pass, ct, p.Key, it, user)))
		}
		data.Rows = append(data.Rows, row)
	}

	fc := FilterControls{
		Type:   ct,
		Lookup: h.reg,
		Public: public,
		User:   user,
		Terms: func(taxonomy string) []content.Term {
			terms, err := h.store.TaxonomyTerms(ctx, taxonomy)
			if err != nil {
				log.Printf("Error loading %s terms: %v", taxonomy, err)
			}
			return terms
		},
		Values: func(metaKey string) []string {
			return h.metaValues(ctx, ct.Key, metaKey)
		},
	}
	data.Filters = template.HTML(fc.Render())

	months, err := h.store.Months(ctx, ct.Key)
	if err != nil {
		log.Printf("Error loading %s months: %v", ct.Key, err)
	}
	data.Months = template.HTML(RenderMonths(months, public["m"]))

	data.Views = h.statusViews(ctx, ct, public["post_status"])
	data.BulkActions = bulkActions(ct, public["post_status"])
	for _, s := range listStatuses {
		data.Statuses = append(data.Statuses, bulkAction{Value: s, Label: content.StatusLabel(s)})
	}

	for _, kind := range BulkKinds {
		if msg, ok := BulkMessage(ct, kind, atoi(public[kind])); ok {
			data.Notices = append(data.Notices, template.HTML(msg))
		}
	}

	data.Paged = max(1, atoi(public["paged"]))
	data.Pages = (total + h.opts.PerPage - 1) / h.opts.PerPage
	base := h.links.List(ct.Key)
	if data.Paged > 1 {
		data.PrevURL = pageURL(base, public, data.Paged-1)
	}
	if data.Paged < data.Pages {
		data.NextURL = pageURL(base, public, data.Paged+1)
	}

	h.render(w, "type-list", data)
}

// listQuery builds the store query for the list screen of ct.
func (h *Handlers) listQuery(ct *config.ContentType, public map[string]string, user caps.Checker) *query.Query {
	q := query.New([]string{ct.Key}, public)

	switch status := public["post_status"]; status {
	case "", "all":
		q.Statuses = listStatuses
	default:
		q.Statuses = []string{status}
	}
	if author, err := strconv.ParseInt(public["author"], 10, 64); err == nil {
		q.Author = author
	}

	if ct.AdminFilters.Len() > 0 {
		query.FilterVars(q.Public, ct.AdminFilters, user).ApplyTo(q)
	}
	if len(ct.ExtendSearch) > 0 {
		query.ExtendSearch(q.Search, ct.ExtendSearch).ApplyTo(q)
	}
	if ct.AdminCols != nil {
		if s, ok := query.Requested(q.Public); ok {
			query.SortFieldVars(s, ct.AdminCols).ApplyTo(q)
			if clauses, ok := query.TaxonomySortClauses(s, ct.AdminCols, query.DefaultTables); ok {
				q.Clauses.Merge(clauses)
			}
		}
	}

	vars := map[string]string{}
	for _, tax := range h.reg.TaxonomiesFor(ct.Key) {
		vars[tax.Key] = tax.QueryVar
	}
	query.TermVars(q, vars)

	q.Limit = h.opts.PerPage
	q.Offset = (max(1, atoi(public["paged"])) - 1) * h.opts.PerPage
	return q
}

// builtinColumns is the host's own column set for ct.
func (h *Handlers) builtinColumns(ct *config.ContentType) *columns.Header {
	cols := orderedmap.New[string, string]()
	cols.Set("cb", `<input type="checkbox" id="cb-select-all">`)
	cols.Set("title", "Title")
	if ct.SupportsFeature("author") {
		cols.Set("author", "Author")
	}
	for _, tax := range h.reg.TaxonomiesFor(ct.Key) {
		if tax.Args.Bool("show_admin_column", false) {
			cols.Set("taxonomy-"+tax.Key, html.EscapeString(tax.Labels["name"]))
		}
	}
	cols.Set("date", "Date")
	return cols
}

// columns starts a render pass for one list request.
func (h *Handlers) columns(ct *config.ContentType, user caps.Checker) (*columns.Pass, *columns.Header) {
	builtin := h.builtinColumns(ct)
	pass := columns.NewPass(ct, h.reg, user, nil)
	if ct.AdminCols == nil {
		return pass, builtin
	}
	return pass, pass.Cols(builtin, nil)
}

func (h *Handlers) headers(ct *config.ContentType, cols *columns.Header, public map[string]string) []listColumn {
	sortable := map[string]bool{}
	for _, id := range columns.Sortables(ct.AdminCols) {
		sortable[id] = true
	}
	current := public["orderby"]
	order := "desc"
	if strings.EqualFold(public["order"], "asc") {
		order = "asc"
	}

	base := h.links.List(ct.Key)
	var out []listColumn
	for p := cols.Oldest(); p != nil; p = p.Next() {
		c := listColumn{ID: p.Key, Title: template.HTML(p.Value)}
		if sortable[p.Key] || builtinSortables[p.Key] {
			next := "asc"
			if p.Key == current {
				c.Sorted = order
				if order == "asc" {
					next = "desc"
				}
			}
			c.SortURL = sortURL(base, public, p.Key, next)
		}
		out = append(out, c)
	}
	return out
}

// cell renders column id for it. Configured columns go through the column
// renderer; host columns are rendered here.
func (h *Handlers) cell(ctx context.Context, pass *columns.Pass, ct *config.ContentType, id string, it *content.Item, user caps.Checker) string {
	if col, ok := pass.Column(id); ok {
		if b, isBuiltin := col.(schema.Builtin); isBuiltin {
			if out, ok := h.hostCell(ctx, ct, b.Ref, it); ok {
				return out
			}
		}
		return h.cells.Cell(ctx, col, it, user)
	}
	out, _ := h.hostCell(ctx, ct, id, it)
	return out
}

func (h *Handlers) hostCell(ctx context.Context, ct *config.ContentType, id string, it *content.Item) (string, bool) {
	switch id {
	case "cb":
		return fmt.Sprintf(`<input type="checkbox" name="post[]" value="%d" form="posts-bulk">`, it.ID), true
	case "title":
		return h.titleCell(ctx, ct, it), true
	case "author":
		name, err := h.store.UserName(ctx, it.AuthorID)
		if err != nil {
			return columns.EmptyMarker, true
		}
		return fmt.Sprintf(`<a href="%s">%s</a>`,
			html.EscapeString(h.links.ListFiltered(ct.Key, "author", strconv.FormatInt(it.AuthorID, 10))),
			html.EscapeString(name)), true
	case "date":
		return h.dateCell(it), true
	}

	if key, ok := strings.CutPrefix(id, "taxonomy-"); ok {
		tax, found := h.reg.Taxonomy(key)
		if !found {
			return "", false
		}
		terms, err := h.store.Terms(ctx, it.ID, key)
		if err != nil || len(terms) == 0 {
			return columns.EmptyMarker, true
		}
		parts := make([]string, 0, len(terms))
		for _, t := range terms {
			parts = append(parts, fmt.Sprintf(`<a href="%s">%s</a>`,
				html.EscapeString(h.links.ListFiltered(ct.Key, tax.QueryVar, t.Slug)), html.EscapeString(t.Name)))
		}
		return strings.Join(parts, ", "), true
	}
	return "", false
}

func (h *Handlers) titleCell(ctx context.Context, ct *config.ContentType, it *content.Item) string {
	title := it.Title
	if title == "" {
		title = "(no title)"
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<strong><a class="row-title" href="%s">%s</a>`,
		html.EscapeString(h.links.EditItem(it)), html.EscapeString(title)))
	if it.Status != "publish" {
		sb.WriteString(" &#8212; " + html.EscapeString(content.StatusLabel(it.Status)))
	}
	sb.WriteString(`</strong>`)

	bulk := h.links.List(ct.Key) + "/bulk"
	id := strconv.FormatInt(it.ID, 10)
	var actions []RowAction
	if it.Status == "trash" {
		actions = append(actions,
			RowAction{Name: "Restore", Endpoint: bulk, HTTPMethod: "POST", Values: map[string]string{"action": "untrash", "post[]": id}},
			RowAction{Name: "Delete Permanently", Endpoint: bulk, HTTPMethod: "POST",
				Values: map[string]string{"action": "delete", "post[]": id}, Confirm: "Delete this item permanently?"},
		)
	} else {
		actions = append(actions, RowAction{Name: "Edit", Endpoint: h.links.EditItem(it), HTTPMethod: "GET"})
		if ct.QuickEdit {
			actions = append(actions, RowAction{Name: "Quick Edit", Endpoint: h.links.EditItem(it) + "/quick", HTTPMethod: "GET", Target: "#post-" + id})
		}
		actions = append(actions, RowAction{Name: "Trash", Endpoint: bulk, HTTPMethod: "POST", Values: map[string]string{"action": "trash", "post[]": id}})
		if ct.Public {
			name := "View"
			if it.Status != "publish" {
				name = "Preview"
			}
			actions = append(actions, RowAction{Name: name, Endpoint: h.links.Permalink(ctx, it), HTTPMethod: "GET"})
		}
	}
	sb.WriteString(RenderActions(actions))
	return sb.String()
}

func (h *Handlers) dateCell(it *content.Item) string {
	label := "Last Modified"
	switch it.Status {
	case "publish":
		label = "Published"
	case "future":
		label = "Scheduled"
	}
	if it.Date.IsZero() {
		return label
	}
	return fmt.Sprintf("%s<br>%s at %s", label,
		html.EscapeString(it.Date.Format(h.opts.DateFormat)), html.EscapeString(it.Date.Format(h.opts.TimeFormat)))
}

func (h *Handlers) statusViews(ctx context.Context, ct *config.ContentType, current string) []statusView {
	counts, err := h.store.CountByStatus(ctx, ct.Key)
	if err != nil {
		log.Printf("Error counting %s items: %v", ct.Key, err)
		return nil
	}
	base := h.links.List(ct.Key)

	all := 0
	for _, s := range listStatuses {
		all += counts[s]
	}
	views := []statusView{{Label: "All", URL: base, Count: all, Current: current == "" || current == "all"}}
	for _, s := range append(append([]string(nil), listStatuses...), "trash") {
		if counts[s] == 0 {
			continue
		}
		views = append(views, statusView{
			Label:   content.StatusLabel(s),
			URL:     base + "?" + url.Values{"post_status": {s}}.Encode(),
			Count:   counts[s],
			Current: current == s,
		})
	}
	return views
}

// bulkActions lists the bulk actions for the status view. The edit action
// is left out when quick edit is off for ct.
func bulkActions(ct *config.ContentType, status string) []bulkAction {
	if status == "trash" {
		return []bulkAction{{"untrash", "Restore"}, {"delete", "Delete Permanently"}}
	}
	var actions []bulkAction
	if ct.QuickEdit {
		actions = append(actions, bulkAction{"edit", "Edit"})
	}
	return append(actions, bulkAction{"trash", "Move to Trash"})
}

// carried reports whether a public var survives into sort and page links.
func carried(name string) bool {
	switch name {
	case "orderby", "order", "paged", "message":
		return false
	}
	for _, kind := range BulkKinds {
		if name == kind {
			return false
		}
	}
	return true
}

func listValues(public map[string]string) url.Values {
	v := url.Values{}
	for k, val := range public {
		if carried(k) && val != "" {
			v.Set(k, val)
		}
	}
	return v
}

func sortURL(base string, public map[string]string, id, order string) string {
	v := listValues(public)
	v.Set("orderby", id)
	v.Set("order", order)
	return base + "?" + v.Encode()
}

func pageURL(base string, public map[string]string, paged int) string {
	v := listValues(public)
	for _, k := range []string{"orderby", "order"} {
		if public[k] != "" {
			v.Set(k, public[k])
		}
	}
	v.Set("paged", strconv.Itoa(paged))
	return base + "?" + v.Encode()
}
