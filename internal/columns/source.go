// ABOUTME: Collaborators the column renderer reads from: stored data, links and registrations.

package columns

import (
	"context"

	"github.com/2389/cpt/internal/config"
	"github.com/2389/cpt/internal/content"
)

// Source reads stored item data.
type Source interface {
	MetaValues(ctx context.Context, itemID int64, key string) ([]string, error)
	Terms(ctx context.Context, itemID int64, taxonomy string) ([]content.Term, error)
	// Thumbnail returns nil without error when the item has no featured image.
	Thumbnail(ctx context.Context, itemID int64, size string) (*content.Image, error)
	Item(ctx context.Context, id int64) (*content.Item, error)
	UserName(ctx context.Context, id int64) (string, error)
}

// Linker builds the URLs cells link to.
type Linker interface {
	Permalink(ctx context.Context, item *content.Item) string
	EditItem(item *content.Item) string
	TermArchive(tax *config.Taxonomy, term content.Term) string
	EditTerm(tax *config.Taxonomy, term content.Term, contentType string) string
	ListFiltered(contentType, queryVar, value string) string
}

// Lookup finds registered content types and taxonomies.
type Lookup interface {
	ContentType(key string) (*config.ContentType, bool)
	Taxonomy(key string) (*config.Taxonomy, bool)
}
