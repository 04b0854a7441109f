// ABOUTME: Public permalinks and admin URLs for items and terms.
// ABOUTME: Expands custom permalink structures with date, author and taxonomy tokens.

package links

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"

	"github.com/2389/cpt/internal/config"
	"github.com/2389/cpt/internal/content"
	"github.com/2389/cpt/internal/store"
)

// Data is the stored data permalinks read.
type Data interface {
	Terms(ctx context.Context, itemID int64, taxonomy string) ([]content.Term, error)
	TermBySlug(ctx context.Context, taxonomy, slug string) (*content.Term, error)
	UserName(ctx context.Context, id int64) (string, error)
	Option(ctx context.Context, name string) (string, error)
}

// Registrations finds the configuration links depend on.
type Registrations interface {
	ContentType(key string) (*config.ContentType, bool)
	TaxonomiesFor(contentType string) []*config.Taxonomy
}

// Links builds URLs relative to BaseURL. BaseURL has no trailing slash;
// empty means root-relative links.
type Links struct {
	BaseURL string
	Data    Data
	Reg     Registrations
}

// New returns Links for baseURL.
func New(baseURL string, data Data, reg Registrations) *Links {
	return &Links{BaseURL: strings.TrimSuffix(baseURL, "/"), Data: data, Reg: reg}
}

func (l *Links) abs(path string) string {
	return l.BaseURL + path
}

// Permalink returns the public URL of item.
func (l *Links) Permalink(ctx context.Context, item *content.Item) string {
	switch item.Type {
	case "post", "page":
		return l.abs("/" + item.Slug + "/")
	}
	ct, ok := l.Reg.ContentType(item.Type)
	if !ok {
		return l.abs("/?p=" + strconv.FormatInt(item.ID, 10))
	}
	if ct.Rewrite == nil {
		if ct.QueryVar == "" {
			return l.abs(fmt.Sprintf("/?post_type=%s&p=%d", url.QueryEscape(ct.Key), item.ID))
		}
		return l.abs("/?" + url.QueryEscape(ct.QueryVar) + "=" + url.QueryEscape(item.Slug))
	}
	if ct.Rewrite.Permastruct == "" {
		return l.abs(path(ct.Rewrite.Slug, item.Slug))
	}
	return l.abs(path(l.expand(ctx, ct, item)))
}

// Permastruct returns the permalink structure of ct with its own slug and
// post name tokens already substituted.
func Permastruct(ct *config.ContentType) string {
	if ct.Rewrite == nil || ct.Rewrite.Permastruct == "" {
		return ""
	}
	return strings.NewReplacer(
		"%"+ct.Key+"_slug%", ct.Rewrite.Slug,
	).Replace(ct.Rewrite.Permastruct)
}

func (l *Links) expand(ctx context.Context, ct *config.ContentType, item *content.Item) string {
	s := Permastruct(ct)
	d := item.Date
	pairs := []string{
		"%year%", d.Format("2006"),
		"%monthnum%", d.Format("01"),
		"%day%", d.Format("02"),
		"%hour%", d.Format("15"),
		"%minute%", d.Format("04"),
		"%second%", d.Format("05"),
		"%post_id%", strconv.FormatInt(item.ID, 10),
		"%postname%", item.Slug,
	}

	if strings.Contains(s, "%author%") {
		name, err := l.Data.UserName(ctx, item.AuthorID)
		if err != nil {
			log.Printf("permalink %d: author: %v", item.ID, err)
		}
		pairs = append(pairs, "%author%", store.Slugify(name))
	}

	for _, tax := range l.Reg.TaxonomiesFor(item.Type) {
		token := "%" + tax.Key + "%"
		if !strings.Contains(s, token) {
			continue
		}
		pairs = append(pairs, token, l.termToken(ctx, tax.Key, item))
	}
	return strings.NewReplacer(pairs...).Replace(s)
}

// termToken is the slug of the item's first term in taxonomy. Items without
// one use the taxonomy's default term option, then the content type key.
func (l *Links) termToken(ctx context.Context, taxonomy string, item *content.Item) string {
	terms, err := l.Data.Terms(ctx, item.ID, taxonomy)
	if err == nil && len(terms) > 0 {
		return terms[0].Slug
	}
	if def, err := l.Data.Option(ctx, "default_"+taxonomy); err == nil && def != "" {
		if t, err := l.Data.TermBySlug(ctx, taxonomy, def); err == nil {
			return t.Slug
		}
	}
	return item.Type
}

// Archive returns the URL of the content type archive, or "" when it has none.
func (l *Links) Archive(ct *config.ContentType) string {
	if !ct.HasArchive {
		return ""
	}
	if ct.Rewrite == nil {
		return l.abs("/?post_type=" + url.QueryEscape(ct.Key))
	}
	slug := ct.ArchiveSlug
	if slug == "" {
		slug = ct.Rewrite.Slug
	}
	return l.abs(path(slug))
}

// EditItem returns the admin edit screen of item.
func (l *Links) EditItem(item *content.Item) string {
	return l.abs(fmt.Sprintf("/admin/types/%s/%d", url.PathEscape(item.Type), item.ID))
}

// List returns the admin list screen of a content type.
func (l *Links) List(contentType string) string {
	return l.abs("/admin/types/" + url.PathEscape(contentType))
}

// ListFiltered returns the admin list screen filtered by queryVar=value.
func (l *Links) ListFiltered(contentType, queryVar, value string) string {
	return l.List(contentType) + "?" + url.Values{queryVar: {value}}.Encode()
}

// TermArchive returns the public archive of term.
func (l *Links) TermArchive(tax *config.Taxonomy, term content.Term) string {
	if tax.Rewrite != nil {
		return l.abs(path(tax.Rewrite.Slug, term.Slug))
	}
	qv := tax.QueryVar
	if qv == "" {
		qv = "taxonomy=" + url.QueryEscape(tax.Key) + "&term"
	}
	return l.abs("/?" + qv + "=" + url.QueryEscape(term.Slug))
}

// EditTerm returns the admin edit screen of term, reached from contentType's list.
func (l *Links) EditTerm(tax *config.Taxonomy, term content.Term, contentType string) string {
	u := fmt.Sprintf("/admin/taxonomies/%s/terms/%d", url.PathEscape(tax.Key), term.ID)
	if contentType != "" {
		u += "?" + url.Values{"type": {contentType}}.Encode()
	}
	return l.abs(u)
}

// path joins segments into "/a/b/", dropping empty ones and stray slashes.
func path(segments ...string) string {
	var parts []string
	for _, s := range segments {
		for _, p := range strings.Split(s, "/") {
			if p != "" {
				parts = append(parts, p)
			}
		}
	}
	if len(parts) == 0 {
		return "/"
	}
	return "/" + strings.Join(parts, "/") + "/"
}
