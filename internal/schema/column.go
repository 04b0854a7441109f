// ABOUTME: Column descriptors for admin list tables and site sortables.
// ABOUTME: Each variant is both a rendering instruction and, where it names a field, a sort key.

package schema

// ColumnKind names a column variant.
type ColumnKind string

const (
	KindMetaValue      ColumnKind = "meta_key"
	KindTaxonomyColumn ColumnKind = "taxonomy"
	KindPostField      ColumnKind = "post_field"
	KindFeaturedImage  ColumnKind = "featured_image"
	KindRelation       ColumnKind = "relation"
	KindFunction       ColumnKind = "function"
	KindBuiltin        ColumnKind = "builtin"
)

// LinkMode selects how taxonomy terms and related items are linked.
type LinkMode string

const (
	LinkDefault LinkMode = ""
	LinkNone    LinkMode = "none"
	LinkEdit    LinkMode = "edit"
	LinkView    LinkMode = "view"
	LinkList    LinkMode = "list"
)

// Resolve maps LinkDefault to LinkEdit.
func (m LinkMode) Resolve() LinkMode {
	if m == LinkDefault {
		return LinkEdit
	}
	return m
}

// Column is implemented only by the variants in this package.
type Column interface {
	Kind() ColumnKind
	Common() ColumnBase
}

// ColumnBase holds the options shared by every column variant.
type ColumnBase struct {
	Title string
	// Unsortable turns off sorting for a column that would otherwise sort.
	Unsortable bool
	// Default marks the column as the default sort; "desc" sorts descending, anything else ascending.
	Default    string
	Capability string
	// PostCapability is checked against each row's item before rendering the cell.
	PostCapability string
	Link           LinkMode
}

// MetaValue renders the stored values of MetaKey.
type MetaValue struct {
	ColumnBase
	MetaKey string
	// DateFormat is a Go time layout applied to each value.
	DateFormat string
	// BooleanDisplay renders the first value as Yes or No.
	BooleanDisplay bool
}

// TaxonomyColumn renders the terms of Taxonomy assigned to the row.
type TaxonomyColumn struct {
	ColumnBase
	Taxonomy string
}

// PostField renders a built-in item field such as post_date or post_status.
type PostField struct {
	ColumnBase
	Field      string
	DateFormat string
}

// FeaturedImage renders the item's thumbnail. Width and Height are numbers
// of pixels or CSS lengths; empty means auto.
type FeaturedImage struct {
	ColumnBase
	Size   string
	Width  string
	Height string
}

// Relation renders the items whose ids are stored under MetaKey.
type Relation struct {
	ColumnBase
	MetaKey string
}

// CellContext is handed to a CustomFunction.
type CellContext struct {
	MetaValue string
	ItemID    int64
	Settings  CustomFunction
}

// CellFunc returns the finished HTML for one cell.
type CellFunc func(CellContext) string

// CustomFunction delegates rendering to Fn. MetaKey, when set, is read and
// passed along as the raw meta value.
type CustomFunction struct {
	ColumnBase
	MetaKey string
	Fn      CellFunc
}

// Builtin reuses or relabels one of the host's own columns. Ref names the
// host column to reuse; when the host has no such column the entry id is
// relabeled with Title instead.
type Builtin struct {
	Ref   string
	Title string
}

func (c MetaValue) Kind() ColumnKind      { return KindMetaValue }
func (c TaxonomyColumn) Kind() ColumnKind { return KindTaxonomyColumn }
func (c PostField) Kind() ColumnKind      { return KindPostField }
func (c FeaturedImage) Kind() ColumnKind  { return KindFeaturedImage }
func (c Relation) Kind() ColumnKind       { return KindRelation }
func (c CustomFunction) Kind() ColumnKind { return KindFunction }
func (c Builtin) Kind() ColumnKind        { return KindBuiltin }

func (c MetaValue) Common() ColumnBase      { return c.ColumnBase }
func (c TaxonomyColumn) Common() ColumnBase { return c.ColumnBase }
func (c PostField) Common() ColumnBase      { return c.ColumnBase }
func (c FeaturedImage) Common() ColumnBase  { return c.ColumnBase }
func (c Relation) Common() ColumnBase       { return c.ColumnBase }
func (c CustomFunction) Common() ColumnBase { return c.ColumnBase }

// Builtin columns never sort through descriptors; the host sorts them.
func (c Builtin) Common() ColumnBase { return ColumnBase{Title: c.Title, Unsortable: true} }

// SortKey is the field a sortable column orders by. Exactly one field is set.
type SortKey struct {
	MetaKey   string
	Taxonomy  string
	PostField string
}

// SortKeyOf returns the sort key of c, or false when c cannot sort.
func SortKeyOf(c Column) (SortKey, bool) {
	if c.Common().Unsortable {
		return SortKey{}, false
	}
	switch col := c.(type) {
	case MetaValue:
		return SortKey{MetaKey: col.MetaKey}, true
	case TaxonomyColumn:
		return SortKey{Taxonomy: col.Taxonomy}, true
	case PostField:
		return SortKey{PostField: col.Field}, true
	case CustomFunction:
		if col.MetaKey != "" {
			return SortKey{MetaKey: col.MetaKey}, true
		}
	case FeaturedImage, Relation, Builtin:
	}
	return SortKey{}, false
}
