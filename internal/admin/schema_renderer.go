// ABOUTME: Descriptor-driven HTML renderer for the admin list and edit screens.
// ABOUTME: Generates Tailwind-styled filter controls, row actions and item forms.

package admin

import (
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/2389/cpt/internal/caps"
	"github.com/2389/cpt/internal/columns"
	"github.com/2389/cpt/internal/config"
	"github.com/2389/cpt/internal/content"
	"github.com/2389/cpt/internal/names"
	"github.com/2389/cpt/internal/schema"
)

const (
	selectClass = "mt-1 rounded border-gray-300 shadow-sm px-3 py-2 border text-sm"
	inputClass  = "mt-1 block w-full rounded border-gray-300 shadow-sm px-3 py-2 border"
)

// FilterControls renders the admin_filters of one content type.
type FilterControls struct {
	Type   *config.ContentType
	Lookup columns.Lookup
	Public map[string]string
	User   caps.Checker
	// Terms lists the terms of a taxonomy for its dropdown.
	Terms func(taxonomy string) []content.Term
	// Values lists the stored values of a meta key, for dropdowns without fixed options.
	Values func(metaKey string) []string
}

// Render returns the filter controls in declaration order. Filters the user
// lacks the capability for, and dropdowns with nothing to choose from, are left out.
func (fc FilterControls) Render() string {
	var sb strings.Builder
	fc.Type.AdminFilters.Each(func(id string, f schema.Filter) {
		if cp := f.Common().Capability; cp != "" && (fc.User == nil || !fc.User.Can(cp)) {
			return
		}
		switch f := f.(type) {
		case schema.TaxonomyFilter:
			sb.WriteString(fc.taxonomy(id, f))
		case schema.MetaEquals:
			sb.WriteString(fc.metaEquals(id, f))
		case schema.MetaLike:
			sb.WriteString(fc.metaLike(id, f))
		case schema.MetaExists:
			sb.WriteString(fc.metaExists(id, f))
		}
	})
	return sb.String()
}

func (fc FilterControls) taxonomy(id string, f schema.TaxonomyFilter) string {
	tax, ok := fc.Lookup.Taxonomy(f.Taxonomy)
	if !ok {
		return ""
	}
	var terms []content.Term
	if fc.Terms != nil {
		terms = fc.Terms(tax.Key)
	}
	if len(terms) == 0 {
		return ""
	}

	title := f.Title
	if title == "" {
		title = tax.Labels["all_items"]
	}
	name := tax.QueryVar
	if name == "" {
		name = tax.Key
	}
	selected := fc.Public[name]

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<select name="%s" id="filter_%s" class="%s">`,
		html.EscapeString(name), html.EscapeString(id), selectClass))
	sb.WriteString(fmt.Sprintf(`<option value="0">%s</option>`, html.EscapeString(title)))
	for _, n := range termTree(terms) {
		sb.WriteString(fmt.Sprintf(`<option value="%s"%s>%s%s</option>`,
			html.EscapeString(n.term.Slug),
			selectedAttr(selected == n.term.Slug),
			strings.Repeat("&nbsp;&nbsp;&nbsp;", n.depth),
			html.EscapeString(n.term.Name)))
	}
	sb.WriteString(`</select>`)
	return sb.String()
}

func (fc FilterControls) metaEquals(id string, f schema.MetaEquals) string {
	title := f.Title
	if title == "" {
		title = "All " + names.Humanize(f.MetaKey) + "s"
	}

	options := f.Options
	if options == nil && fc.Values != nil {
		options = fc.Values(f.MetaKey)
	}
	if f.OptionsFunc != nil {
		options = f.OptionsFunc(options, f.MetaKey)
	}
	if len(options) == 0 {
		return ""
	}
	selected := fc.Public[id]

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<select name="%s" id="filter_%s" class="%s">`,
		html.EscapeString(id), html.EscapeString(id), selectClass))
	sb.WriteString(fmt.Sprintf(`<option value="0">%s</option>`, html.EscapeString(title)))
	for i, value := range options {
		key := value
		if f.KeyMode == schema.ByIndex {
			key = strconv.Itoa(i)
		}
		sb.WriteString(fmt.Sprintf(`<option value="%s"%s>%s</option>`,
			html.EscapeString(key), selectedAttr(selected == key), html.EscapeString(value)))
	}
	sb.WriteString(`</select>`)
	return sb.String()
}

func (fc FilterControls) metaLike(id string, f schema.MetaLike) string {
	title := f.Title
	if title == "" {
		title = names.Humanize(f.MetaSearchKey)
	}
	return fmt.Sprintf(`<label><input type="text" name="%s" id="filter_%s" value="%s" placeholder="%s" class="%s"></label>`,
		html.EscapeString(id), html.EscapeString(id),
		html.EscapeString(fc.Public[id]), html.EscapeString(title), selectClass)
}

func (fc FilterControls) metaExists(id string, f schema.MetaExists) string {
	if f.Candidates == nil || f.Candidates.Len() == 0 {
		return ""
	}
	title := f.Title
	if title == "" {
		title = fc.Type.Labels["all_items"]
	}
	selected := fc.Public[id]

	var sb strings.Builder
	if f.Candidates.Len() == 1 {
		p := f.Candidates.Oldest()
		sb.WriteString(fmt.Sprintf(`<label><input type="checkbox" name="%s" id="filter_%s" value="%s"%s>&nbsp;%s</label>`,
			html.EscapeString(id), html.EscapeString(id),
			html.EscapeString(p.Key), checkedAttr(selected == p.Key), html.EscapeString(p.Value)))
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf(`<select name="%s" id="filter_%s" class="%s">`,
		html.EscapeString(id), html.EscapeString(id), selectClass))
	sb.WriteString(fmt.Sprintf(`<option value="">%s</option>`, html.EscapeString(title)))
	for p := f.Candidates.Oldest(); p != nil; p = p.Next() {
		sb.WriteString(fmt.Sprintf(`<option value="%s"%s>%s</option>`,
			html.EscapeString(p.Key), selectedAttr(selected == p.Key), html.EscapeString(p.Value)))
	}
	sb.WriteString(`</select>`)
	return sb.String()
}

// RenderMonths renders the month dropdown from YYYYMM values.
func RenderMonths(months []string, selected string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<select name="m" id="filter-by-date" class="%s">`, selectClass))
	sb.WriteString(`<option value="0">All dates</option>`)
	for _, m := range months {
		label := m
		if t, err := time.Parse("200601", m); err == nil {
			label = t.Format("January 2006")
		}
		sb.WriteString(fmt.Sprintf(`<option value="%s"%s>%s</option>`,
			html.EscapeString(m), selectedAttr(selected == m), html.EscapeString(label)))
	}
	sb.WriteString(`</select>`)
	return sb.String()
}

type treeNode struct {
	term  content.Term
	depth int
}

// termTree orders terms by name with children directly after their parent.
// Terms whose parent is missing from the list are treated as top level.
func termTree(terms []content.Term) []treeNode {
	byParent := map[int64][]content.Term{}
	known := map[int64]bool{}
	for _, t := range terms {
		known[t.ID] = true
	}
	for _, t := range terms {
		parent := t.Parent
		if !known[parent] || parent == t.ID {
			parent = 0
		}
		byParent[parent] = append(byParent[parent], t)
	}

	var out []treeNode
	var walk func(parent int64, depth int)
	walk = func(parent int64, depth int) {
		children := byParent[parent]
		sort.SliceStable(children, func(i, j int) bool { return children[i].Name < children[j].Name })
		for _, t := range children {
			out = append(out, treeNode{term: t, depth: depth})
			walk(t.ID, depth+1)
		}
	}
	walk(0, 0)
	return out
}

// RowAction is one link or button under an item's title.
type RowAction struct {
	Name     string
	Endpoint string
	// HTTPMethod is GET for plain links; anything else posts through htmx.
	HTTPMethod string
	Values     map[string]string
	Confirm    string
	Target     string
}

// RenderActions generates the row action links and buttons.
func RenderActions(actions []RowAction) string {
	var sb strings.Builder
	sb.WriteString(`<div class="row-actions text-xs space-x-2 mt-1">`)
	for _, action := range actions {
		if action.HTTPMethod == "" || action.HTTPMethod == "GET" {
			if action.Target != "" {
				sb.WriteString(fmt.Sprintf(`<button type="button" hx-get="%s" hx-target="%s" hx-swap="outerHTML" class="text-blue-600 hover:text-blue-900">%s</button>`,
					html.EscapeString(action.Endpoint), html.EscapeString(action.Target), html.EscapeString(action.Name)))
				continue
			}
			sb.WriteString(fmt.Sprintf(`<a href="%s" class="text-blue-600 hover:text-blue-900">%s</a>`,
				html.EscapeString(action.Endpoint), html.EscapeString(action.Name)))
			continue
		}

		confirmAttr := ""
		if action.Confirm != "" {
			confirmAttr = fmt.Sprintf(` hx-confirm="%s"`, html.EscapeString(action.Confirm))
		}
		valsAttr := ""
		if len(action.Values) > 0 {
			valsAttr = fmt.Sprintf(` hx-vals='%s'`, html.EscapeString(jsonObject(action.Values)))
		}
		sb.WriteString(fmt.Sprintf(`<button type="button" hx-post="%s"%s%s class="text-red-600 hover:text-red-900">%s</button>`,
			html.EscapeString(action.Endpoint), valsAttr, confirmAttr, html.EscapeString(action.Name)))
	}
	sb.WriteString(`</div>`)
	return sb.String()
}

// jsonObject encodes a flat string map with sorted keys.
func jsonObject(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, strconv.Quote(k)+":"+strconv.Quote(m[k]))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// MetaField is one meta input on the item form.
type MetaField struct {
	Key    string
	Values []string
}

// TaxonomyField lists the terms of one taxonomy on the item form.
type TaxonomyField struct {
	Taxonomy *config.Taxonomy
	Terms    []content.Term
	Selected map[int64]bool
}

// ItemForm describes the create or edit form of an item.
type ItemForm struct {
	Type       *config.ContentType
	Item       *content.Item
	Action     string
	Meta       []MetaField
	Taxonomies []TaxonomyField
	Thumbnail  *content.Image
}

// RenderItemForm generates the create/edit form of an item.
func RenderItemForm(f ItemForm) string {
	it := f.Item
	if it == nil {
		it = &content.Item{}
	}
	ct := f.Type

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<form method="post" action="%s" id="post" class="bg-white rounded-lg shadow p-6 space-y-4 max-w-2xl">`,
		html.EscapeString(f.Action)))

	placeholder := ct.EnterTitleHere
	if placeholder == "" {
		placeholder = "Add title"
	}
	sb.WriteString(fmt.Sprintf(`<div><input type="text" name="title" id="title" value="%s" placeholder="%s" class="%s text-lg"></div>`,
		html.EscapeString(it.Title), html.EscapeString(placeholder), inputClass))

	writeField(&sb, "Slug", fmt.Sprintf(`<input type="text" name="slug" value="%s" class="%s">`,
		html.EscapeString(it.Slug), inputClass))

	var opts strings.Builder
	status := it.Status
	if status == "" {
		status = "draft"
	}
	for _, s := range content.Statuses() {
		if s == "trash" {
			continue
		}
		opts.WriteString(fmt.Sprintf(`<option value="%s"%s>%s</option>`, s, selectedAttr(status == s), content.StatusLabel(s)))
	}
	writeField(&sb, "Status", fmt.Sprintf(`<select name="status" class="%s">%s</select>`, inputClass, opts.String()))

	if ct.SupportsFeature("excerpt") {
		writeField(&sb, "Excerpt", fmt.Sprintf(`<textarea name="excerpt" rows="2" class="%s">%s</textarea>`,
			inputClass, html.EscapeString(it.Excerpt)))
	}
	if ct.SupportsFeature("editor") {
		writeField(&sb, "Content", fmt.Sprintf(`<textarea name="content" rows="8" class="%s">%s</textarea>`,
			inputClass, html.EscapeString(it.Content)))
	}
	if ct.SupportsFeature("page-attributes") || ct.Hierarchical {
		writeField(&sb, "Order", fmt.Sprintf(`<input type="number" name="menu_order" value="%d" class="%s">`,
			it.MenuOrder, inputClass))
	}

	for _, m := range f.Meta {
		values := m.Values
		if len(values) == 0 {
			values = []string{""}
		}
		var inputs strings.Builder
		for _, v := range values {
			inputs.WriteString(fmt.Sprintf(`<input type="text" name="meta[%s]" value="%s" class="%s">`,
				html.EscapeString(m.Key), html.EscapeString(v), inputClass))
		}
		writeField(&sb, names.Humanize(m.Key), inputs.String())
	}

	for _, tf := range f.Taxonomies {
		kind := "checkbox"
		if tf.Taxonomy.Exclusive {
			kind = "radio"
		}
		var boxes strings.Builder
		for _, n := range termTree(tf.Terms) {
			boxes.WriteString(fmt.Sprintf(`<label class="block text-sm" style="margin-left:%dem"><input type="%s" name="tax[%s]" value="%d"%s> %s</label>`,
				n.depth, kind, html.EscapeString(tf.Taxonomy.Key), n.term.ID,
				checkedAttr(tf.Selected[n.term.ID]), html.EscapeString(n.term.Name)))
		}
		if boxes.Len() == 0 {
			boxes.WriteString(fmt.Sprintf(`<p class="text-sm text-gray-400">%s</p>`, html.EscapeString(tf.Taxonomy.Labels["not_found"])))
		}
		writeField(&sb, tf.Taxonomy.Labels["name"], boxes.String())
	}

	if ct.FeaturedImage != "" || ct.SupportsFeature("thumbnail") {
		label := ct.Labels["featured_image"]
		if label == "" {
			label = "Featured image"
		}
		url := ""
		if f.Thumbnail != nil {
			url = f.Thumbnail.URL
		}
		writeField(&sb, label, fmt.Sprintf(`<input type="url" name="thumbnail_url" value="%s" class="%s">`,
			html.EscapeString(url), inputClass))
	}

	sb.WriteString(`<div class="flex gap-4">`)
	sb.WriteString(`<button type="submit" class="px-4 py-2 bg-purple-600 text-white rounded hover:bg-purple-700">Save</button>`)
	sb.WriteString(`</div>`)
	sb.WriteString(`</form>`)
	return sb.String()
}

// RenderQuickEdit generates the inline quick edit row of an item.
func RenderQuickEdit(ct *config.ContentType, it *content.Item, action string, colspan int) string {
	var opts strings.Builder
	for _, s := range content.Statuses() {
		if s == "trash" {
			continue
		}
		opts.WriteString(fmt.Sprintf(`<option value="%s"%s>%s</option>`, s, selectedAttr(it.Status == s), content.StatusLabel(s)))
	}
	return fmt.Sprintf(`<tr id="post-%d" class="inline-edit-row bg-yellow-50"><td colspan="%d" class="px-6 py-4">`+
		`<form method="post" action="%s" class="flex gap-4 items-end">`+
		`<label class="text-sm">Title<input type="text" name="title" value="%s" class="%s"></label>`+
		`<label class="text-sm">Slug<input type="text" name="slug" value="%s" class="%s"></label>`+
		`<label class="text-sm">Status<select name="status" class="%s">%s</select></label>`+
		`<button type="submit" class="px-4 py-2 bg-purple-600 text-white rounded hover:bg-purple-700">Update %s</button>`+
		`</form></td></tr>`,
		it.ID, colspan, html.EscapeString(action),
		html.EscapeString(it.Title), inputClass,
		html.EscapeString(it.Slug), inputClass,
		selectClass, opts.String(),
		html.EscapeString(ct.Names.Singular))
}

func writeField(sb *strings.Builder, label, input string) {
	sb.WriteString(`<div>`)
	sb.WriteString(fmt.Sprintf(`<label class="block text-sm font-medium text-gray-700">%s</label>`, html.EscapeString(label)))
	sb.WriteString(input)
	sb.WriteString(`</div>`)
}

func selectedAttr(on bool) string {
	if on {
		return " selected"
	}
	return ""
}

func checkedAttr(on bool) string {
	if on {
		return " checked"
	}
	return ""
}
