// ABOUTME: Taxonomy term screens: list, create and edit terms.
// ABOUTME: Terms are listed as a tree for hierarchical taxonomies.

package admin

import (
	"errors"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/2389/cpt/internal/caps"
	"github.com/2389/cpt/internal/config"
	"github.com/2389/cpt/internal/content"
	"github.com/2389/cpt/internal/store"
)

type termRow struct {
	Term    content.Term
	Depth   int
	EditURL string
	ViewURL string
}

type termPage struct {
	page
	Taxonomy *config.Taxonomy
	// ContentType is the content type the screen was opened from.
	ContentType string
	Rows        []termRow
	// Parents are the choices for a term's parent; empty for flat taxonomies.
	Parents []termRow
	Term    *content.Term
	Action  string
}

// taxonomy resolves the {tax} URL param and checks the user may manage its
// terms. It writes the error response and returns false otherwise.
func (h *Handlers) taxonomy(w http.ResponseWriter, r *http.Request) (*config.Taxonomy, caps.Checker, bool) {
	tax, ok := h.reg.Taxonomy(chi.URLParam(r, "tax"))
	if !ok || !tax.ShowUI {
		http.Error(w, "Taxonomy not found", http.StatusNotFound)
		return nil, nil, false
	}
	user := caps.FromContext(r.Context())
	if err := caps.Require(user, caps.ManageTerms); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return nil, nil, false
	}
	return tax, user, true
}

// screenType picks the content type a term screen belongs to: the ?type
// param when the taxonomy is attached to it, else its first object type.
func screenType(tax *config.Taxonomy, requested string) string {
	if requested != "" && tax.AttachedTo(requested) {
		return requested
	}
	if len(tax.ObjectTypes) > 0 {
		return tax.ObjectTypes[0]
	}
	return ""
}

func (h *Handlers) termPage(r *http.Request, tax *config.Taxonomy, user caps.Checker, title string) (termPage, error) {
	ct := screenType(tax, r.URL.Query().Get("type"))
	terms, err := h.store.TaxonomyTerms(r.Context(), tax.Key)
	if err != nil {
		return termPage{}, err
	}
	data := termPage{
		page:        h.newPage(user, title, tax.Key),
		Taxonomy:    tax,
		ContentType: ct,
	}
	for _, n := range termTree(terms) {
		row := termRow{Term: n.term, Depth: n.depth, EditURL: h.links.EditTerm(tax, n.term, ct)}
		if tax.Public {
			row.ViewURL = h.links.TermArchive(tax, n.term)
		}
		data.Rows = append(data.Rows, row)
	}
	if tax.Hierarchical {
		data.Parents = data.Rows
	}
	return data, nil
}

func (h *Handlers) termList(w http.ResponseWriter, r *http.Request) {
	tax, user, ok := h.taxonomy(w, r)
	if !ok {
		return
	}
	data, err := h.termPage(r, tax, user, tax.Labels["name"])
	if err != nil {
		log.Printf("Error loading %s terms: %v", tax.Key, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	data.Action = "/admin/taxonomies/" + tax.Key + "?" + url.Values{"type": {data.ContentType}}.Encode()
	if r.URL.Query().Get("message") == "added" {
		data.Notices = append(data.Notices, template.HTML(template.HTMLEscapeString(tax.Labels["singular_name"]+" added.")))
	}
	h.render(w, "taxonomy-list", data)
}

func (h *Handlers) termCreate(w http.ResponseWriter, r *http.Request) {
	tax, _, ok := h.taxonomy(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	t := termFromForm(tax, r.PostForm)
	if t.Name == "" {
		http.Error(w, "Term name is required", http.StatusBadRequest)
		return
	}
	if _, err := h.store.CreateTerm(r.Context(), t); err != nil {
		log.Printf("Error creating %s term: %v", tax.Key, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.values.Flush()

	v := url.Values{"message": {"added"}}
	if ct := screenType(tax, r.URL.Query().Get("type")); ct != "" {
		v.Set("type", ct)
	}
	redirect(w, r, "/admin/taxonomies/"+tax.Key+"?"+v.Encode())
}

func (h *Handlers) termEdit(w http.ResponseWriter, r *http.Request) {
	tax, user, ok := h.taxonomy(w, r)
	if !ok {
		return
	}
	t, ok := h.term(w, r, tax)
	if !ok {
		return
	}
	data, err := h.termPage(r, tax, user, tax.Labels["edit_item"])
	if err != nil {
		log.Printf("Error loading %s terms: %v", tax.Key, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	// A term cannot be its own parent.
	parents := data.Parents[:0:0]
	for _, p := range data.Parents {
		if p.Term.ID != t.ID {
			parents = append(parents, p)
		}
	}
	data.Parents = parents
	data.Term = t
	data.Action = h.links.EditTerm(tax, *t, data.ContentType)
	if r.URL.Query().Get("message") == "updated" {
		data.Notices = append(data.Notices, template.HTML(template.HTMLEscapeString(tax.Labels["singular_name"]+" updated.")))
	}
	h.render(w, "taxonomy-edit", data)
}

func (h *Handlers) termUpdate(w http.ResponseWriter, r *http.Request) {
	tax, _, ok := h.taxonomy(w, r)
	if !ok {
		return
	}
	t, ok := h.term(w, r, tax)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	updated := termFromForm(tax, r.PostForm)
	updated.ID = t.ID
	if updated.Name == "" {
		updated.Name = t.Name
	}
	if updated.Parent == t.ID {
		updated.Parent = t.Parent
	}
	if err := h.store.UpdateTerm(r.Context(), updated); err != nil {
		log.Printf("Error updating %s term %d: %v", tax.Key, t.ID, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.values.Flush()

	target := h.links.EditTerm(tax, updated, screenType(tax, r.URL.Query().Get("type")))
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	redirect(w, r, target+sep+"message=updated")
}

// term loads the {id} URL param as a term of tax.
func (h *Handlers) term(w http.ResponseWriter, r *http.Request, tax *config.Taxonomy) (*content.Term, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid term id", http.StatusBadRequest)
		return nil, false
	}
	t, err := h.store.Term(r.Context(), tax.Key, id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("Error loading %s term %d: %v", tax.Key, id, err)
		}
		http.Error(w, "Term not found", http.StatusNotFound)
		return nil, false
	}
	return t, true
}

// termFromForm reads a term from the term form. Parents are only kept for
// hierarchical taxonomies.
func termFromForm(tax *config.Taxonomy, form url.Values) content.Term {
	t := content.Term{
		Taxonomy:    tax.Key,
		Name:        strings.TrimSpace(form.Get("name")),
		Slug:        strings.TrimSpace(form.Get("slug")),
		Description: form.Get("description"),
		Order:       atoi(form.Get("order")),
	}
	if tax.Hierarchical {
		t.Parent, _ = strconv.ParseInt(form.Get("parent"), 10, 64)
	}
	return t
}
