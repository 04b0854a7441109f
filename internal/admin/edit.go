// ABOUTME: Item create, edit, quick edit and bulk action handlers.
// ABOUTME: Saves post fields, meta, terms and featured images from the item form.

package admin

import (
	"context"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/2389/cpt/internal/auth"
	"github.com/2389/cpt/internal/caps"
	"github.com/2389/cpt/internal/config"
	"github.com/2389/cpt/internal/content"
	"github.com/2389/cpt/internal/schema"
	"github.com/2389/cpt/internal/store"
)

type editPage struct {
	page
	Type    *config.ContentType
	Form    template.HTML
	ViewURL string
	ListURL string
}

func (h *Handlers) newForm(w http.ResponseWriter, r *http.Request) {
	ct, user, ok := h.contentType(w, r)
	if !ok {
		return
	}
	form, err := h.itemForm(r.Context(), ct, nil, h.links.List(ct.Key))
	if err != nil {
		log.Printf("Error building %s form: %v", ct.Key, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	data := editPage{
		page:    h.newPage(user, ct.Labels["add_new_item"], ct.Key),
		Type:    ct,
		Form:    template.HTML(RenderItemForm(form)),
		ListURL: h.links.List(ct.Key),
	}
	data.BodyClass = "post-type-" + ct.Key
	h.render(w, "type-edit", data)
}

func (h *Handlers) edit(w http.ResponseWriter, r *http.Request) {
	ct, user, ok := h.contentType(w, r)
	if !ok {
		return
	}
	it, ok := h.item(w, r, ct)
	if !ok {
		return
	}
	ctx := r.Context()

	form, err := h.itemForm(ctx, ct, it, h.links.EditItem(it))
	if err != nil {
		log.Printf("Error building %s form: %v", ct.Key, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	permalink := h.links.Permalink(ctx, it)
	data := editPage{
		page:    h.newPage(user, ct.Labels["edit_item"], ct.Key),
		Type:    ct,
		Form:    template.HTML(RenderItemForm(form)),
		ListURL: h.links.List(ct.Key),
	}
	data.BodyClass = "post-type-" + ct.Key
	if ct.Public {
		data.ViewURL = permalink
	}
	if msg, ok := UpdatedMessage(ct, atoi(r.URL.Query().Get("message")), it, permalink); ok {
		data.Notices = append(data.Notices, template.HTML(msg))
	}
	h.render(w, "type-edit", data)
}

// itemForm gathers the stored meta, terms and thumbnail of it. it is nil
// for a new item.
func (h *Handlers) itemForm(ctx context.Context, ct *config.ContentType, it *content.Item, action string) (ItemForm, error) {
	f := ItemForm{Type: ct, Item: it, Action: action}

	meta := map[string][]string{}
	if it != nil {
		var err error
		if meta, err = h.store.Meta(ctx, it.ID); err != nil {
			return f, err
		}
	}
	// Keys the configuration knows about come first, then any other stored keys.
	keys := h.metaKeys(ct)
	seen := map[string]bool{}
	for _, k := range keys {
		seen[k] = true
	}
	var extra []string
	for k := range meta {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range append(keys, extra...) {
		f.Meta = append(f.Meta, MetaField{Key: k, Values: meta[k]})
	}

	for _, tax := range h.reg.TaxonomiesFor(ct.Key) {
		if !tax.ShowUI {
			continue
		}
		terms, err := h.store.TaxonomyTerms(ctx, tax.Key)
		if err != nil {
			return f, err
		}
		tf := TaxonomyField{Taxonomy: tax, Terms: terms, Selected: map[int64]bool{}}
		if it != nil {
			assigned, err := h.store.Terms(ctx, it.ID, tax.Key)
			if err != nil {
				return f, err
			}
			for _, t := range assigned {
				tf.Selected[t.ID] = true
			}
		}
		f.Taxonomies = append(f.Taxonomies, tf)
	}

	if it != nil {
		img, err := h.store.Thumbnail(ctx, it.ID, "full")
		if err != nil {
			return f, err
		}
		f.Thumbnail = img
	}
	return f, nil
}

// metaKeys lists the meta keys the admin columns and filters of ct refer to.
func (h *Handlers) metaKeys(ct *config.ContentType) []string {
	var keys []string
	seen := map[string]bool{}
	add := func(k string) {
		if k != "" && !seen[k] && !strings.HasPrefix(k, "_") {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	ct.AdminCols.Each(func(_ string, col schema.Column) {
		switch c := col.(type) {
		case schema.MetaValue:
			add(c.MetaKey)
		case schema.Relation:
			add(c.MetaKey)
		case schema.CustomFunction:
			add(c.MetaKey)
		}
	})
	ct.AdminFilters.Each(func(_ string, f schema.Filter) {
		switch f := f.(type) {
		case schema.MetaEquals:
			add(f.MetaKey)
		case schema.MetaLike:
			add(f.MetaSearchKey)
		case schema.MetaExists:
			for p := f.Candidates.Oldest(); p != nil; p = p.Next() {
				add(p.Key)
			}
		}
	})
	return keys
}

func (h *Handlers) create(w http.ResponseWriter, r *http.Request) {
	ct, _, ok := h.contentType(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ctx := r.Context()

	it := &content.Item{Type: ct.Key, AuthorID: auth.UserFromContext(ctx).ID}
	applyForm(it, r.PostForm)
	created, err := h.store.CreateItem(ctx, it)
	if err != nil {
		log.Printf("Error creating %s: %v", ct.Key, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := h.saveExtras(ctx, ct, created.ID, r.PostForm); err != nil {
		log.Printf("Error saving %s %d fields: %v", ct.Key, created.ID, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	redirect(w, r, fmt.Sprintf("%s?message=%d", h.links.EditItem(created), savedMessage(created.Status, false)))
}

func (h *Handlers) update(w http.ResponseWriter, r *http.Request) {
	ct, _, ok := h.contentType(w, r)
	if !ok {
		return
	}
	it, ok := h.item(w, r, ct)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ctx := r.Context()

	wasPublished := it.Status == "publish"
	applyForm(it, r.PostForm)
	if err := h.store.UpdateItem(ctx, it); err != nil {
		log.Printf("Error updating %s %d: %v", ct.Key, it.ID, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := h.saveExtras(ctx, ct, it.ID, r.PostForm); err != nil {
		log.Printf("Error saving %s %d fields: %v", ct.Key, it.ID, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	redirect(w, r, fmt.Sprintf("%s?message=%d", h.links.EditItem(it), savedMessage(it.Status, wasPublished)))
}

// applyForm copies the post fields present in form onto it.
func applyForm(it *content.Item, form url.Values) {
	if form.Has("title") {
		it.Title = strings.TrimSpace(form.Get("title"))
	}
	if form.Has("slug") {
		it.Slug = strings.TrimSpace(form.Get("slug"))
	}
	if it.Slug == "" && it.Title != "" {
		it.Slug = store.Slugify(it.Title)
	}
	if form.Has("excerpt") {
		it.Excerpt = form.Get("excerpt")
	}
	if form.Has("content") {
		it.Content = form.Get("content")
	}
	if form.Has("menu_order") {
		it.MenuOrder = atoi(form.Get("menu_order"))
	}
	if s := form.Get("status"); s != "" && s != "trash" {
		it.Status = s
	}
	if it.Status == "" {
		it.Status = "draft"
	}
	if d := form.Get("date"); d != "" {
		if t, err := time.Parse("2006-01-02T15:04", d); err == nil {
			it.Date = t
		}
	}
}

// saveExtras stores the meta, terms and thumbnail fields of form. Meta keys
// starting with an underscore are private and never written from the form.
func (h *Handlers) saveExtras(ctx context.Context, ct *config.ContentType, itemID int64, form url.Values) error {
	defer h.values.Flush()

	for name, values := range form {
		key, ok := bracketKey(name, "meta")
		if !ok || key == "" || strings.HasPrefix(key, "_") {
			continue
		}
		var kept []string
		for _, v := range values {
			if v = strings.TrimSpace(v); v != "" {
				kept = append(kept, v)
			}
		}
		if err := h.store.ReplaceMeta(ctx, itemID, key, kept); err != nil {
			return err
		}
	}

	for _, tax := range h.reg.TaxonomiesFor(ct.Key) {
		if !tax.ShowUI {
			continue
		}
		var ids []int64
		for _, v := range form["tax["+tax.Key+"]"] {
			if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
				ids = append(ids, id)
			}
		}
		if tax.Exclusive && len(ids) > 1 {
			ids = ids[:1]
		}
		if err := h.store.SetTerms(ctx, itemID, tax.Key, ids); err != nil {
			return err
		}
	}

	if form.Has("thumbnail_url") {
		if u := strings.TrimSpace(form.Get("thumbnail_url")); u != "" {
			return h.store.SetThumbnail(ctx, itemID, content.Image{URL: u})
		}
		return h.store.ReplaceMeta(ctx, itemID, "_thumbnail_id", nil)
	}
	return nil
}

// bracketKey extracts key from a form name like prefix[key].
func bracketKey(name, prefix string) (string, bool) {
	rest, ok := strings.CutPrefix(name, prefix+"[")
	if !ok {
		return "", false
	}
	return strings.CutSuffix(rest, "]")
}

func (h *Handlers) bulk(w http.ResponseWriter, r *http.Request) {
	ct, _, ok := h.contentType(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ctx := r.Context()

	action := r.PostForm.Get("action")
	if action == "" || action == "-1" {
		action = r.PostForm.Get("action2")
	}

	var ids []int64
	for _, v := range r.PostForm["post[]"] {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		if it, err := h.store.Item(ctx, id); err == nil && it.Type == ct.Key {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		redirect(w, r, h.links.List(ct.Key))
		return
	}

	var (
		kind string
		n    int64
		err  error
	)
	switch action {
	case "trash":
		kind = "trashed"
		n, err = h.store.SetStatus(ctx, ids, "trash")
	case "untrash":
		kind = "untrashed"
		n, err = h.store.SetStatus(ctx, ids, "draft")
	case "delete":
		kind = "deleted"
		n, err = h.store.DeleteItems(ctx, ids)
	case "edit":
		status := r.PostForm.Get("bulk_status")
		if !ct.QuickEdit || status == "" || status == "trash" {
			http.Error(w, "Invalid bulk edit", http.StatusBadRequest)
			return
		}
		kind = "updated"
		n, err = h.store.SetStatus(ctx, ids, status)
	default:
		http.Error(w, "Unknown bulk action", http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Printf("Error running %s on %s items: %v", action, ct.Key, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.values.Flush()

	v := url.Values{kind: {strconv.FormatInt(n, 10)}}
	if action == "untrash" || action == "delete" {
		v.Set("post_status", "trash")
	}
	redirect(w, r, h.links.List(ct.Key)+"?"+v.Encode())
}

func (h *Handlers) quickEditForm(w http.ResponseWriter, r *http.Request) {
	ct, _, ok := h.contentType(w, r)
	if !ok {
		return
	}
	if !ct.QuickEdit {
		http.NotFound(w, r)
		return
	}
	it, ok := h.item(w, r, ct)
	if !ok {
		return
	}
	_, cols := h.columns(ct, caps.FromContext(r.Context()))
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, RenderQuickEdit(ct, it, h.links.EditItem(it)+"/quick", cols.Len()))
}

func (h *Handlers) quickEditSave(w http.ResponseWriter, r *http.Request) {
	ct, _, ok := h.contentType(w, r)
	if !ok {
		return
	}
	if !ct.QuickEdit {
		http.NotFound(w, r)
		return
	}
	it, ok := h.item(w, r, ct)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	applyForm(it, r.PostForm)
	if err := h.store.UpdateItem(r.Context(), it); err != nil {
		log.Printf("Error updating %s %d: %v", ct.Key, it.ID, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	redirect(w, r, h.links.List(ct.Key)+"?updated=1")
}
