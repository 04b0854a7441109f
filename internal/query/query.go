// ABOUTME: The query modification value handed to the content store.
// ABOUTME: Public request vars go in, meta clauses, sort vars and raw SQL clauses come out.

package query

import (
	"strings"
)

// EmptyValues are the stored meta values that count as "not set".
var EmptyValues = []string{"", "0", "false", "null"}

// MetaClause is one meta condition. Clauses in a query are ANDed.
type MetaClause struct {
	// Key is the meta key tested. Keys, when set, tests any of several keys.
	Key  string   `json:"key,omitempty"`
	Keys []string `json:"keys,omitempty"`

	Value  string   `json:"value,omitempty"`
	Values []string `json:"values,omitempty"`

	// Compare is "=", "!=", "LIKE", "IN", "NOT IN", ">", ">=", "<" or "<=".
	// Empty means "=".
	Compare string `json:"compare,omitempty"`
	// Type is "NUMERIC", "DATE" or empty for text.
	Type string `json:"type,omitempty"`
}

// Predicate is a WHERE fragment with its bound arguments.
type Predicate struct {
	SQL  string
	Args []any
}

// Clauses are raw SQL overrides applied to the store's item query.
// Join and Where accumulate; GroupBy and OrderBy replace.
type Clauses struct {
	Join    []string
	Where   []Predicate
	GroupBy string
	OrderBy string
}

// Empty reports whether c changes nothing.
func (c Clauses) Empty() bool {
	return len(c.Join) == 0 && len(c.Where) == 0 && c.GroupBy == "" && c.OrderBy == ""
}

// Merge layers o over c.
func (c *Clauses) Merge(o Clauses) {
	c.Join = append(c.Join, o.Join...)
	c.Where = append(c.Where, o.Where...)
	if o.GroupBy != "" {
		c.GroupBy = o.GroupBy
	}
	if o.OrderBy != "" {
		c.OrderBy = o.OrderBy
	}
}

// Tables names the store tables the SQL clauses refer to.
type Tables struct {
	Posts             string
	TermRelationships string
	TermTaxonomy      string
	Terms             string
}

// DefaultTables matches the SQLite store schema.
var DefaultTables = Tables{
	Posts:             "posts",
	TermRelationships: "term_relationships",
	TermTaxonomy:      "term_taxonomy",
	Terms:             "terms",
}

// Query describes one item listing request.
type Query struct {
	Types []string
	// Public holds the request's public vars: filter ids, taxonomy query
	// vars, orderby, order, s, ...
	Public map[string]string

	MetaQuery []MetaClause
	OrderBy   string
	MetaKey   string
	Order     string
	Search    string

	// Terms restricts to items carrying the term slug in each taxonomy.
	Terms    map[string]string
	Month    string
	Statuses []string
	Name     string
	Author   int64
	Feed     bool

	Limit  int
	Offset int

	Clauses Clauses
}

// New returns a query for types seeded from public vars.
func New(types []string, public map[string]string) *Query {
	q := &Query{
		Types:  append([]string(nil), types...),
		Public: map[string]string{},
		Terms:  map[string]string{},
	}
	for k, v := range public {
		q.Public[k] = v
	}
	q.OrderBy = q.Public["orderby"]
	q.Order = q.Public["order"]
	q.Search = q.Public["s"]
	q.Month = q.Public["m"]
	q.Name = q.Public["name"]
	return q
}

// Var returns a public var.
func (q *Query) Var(name string) (string, bool) {
	v, ok := q.Public[name]
	return v, ok
}

// HasType reports whether the query targets contentType.
func (q *Query) HasType(contentType string) bool {
	for _, t := range q.Types {
		if t == contentType {
			return true
		}
	}
	return false
}

// Modification is a set of private query vars produced by a translator.
type Modification struct {
	MetaQuery []MetaClause
	OrderBy   string
	MetaKey   string
	Order     string
	// Search replaces the search term when not nil.
	Search *string
}

// Empty reports whether m changes nothing.
func (m Modification) Empty() bool {
	return len(m.MetaQuery) == 0 && m.OrderBy == "" && m.MetaKey == "" && m.Order == "" && m.Search == nil
}

// Merge layers o over m: meta clauses are appended, set scalars overwrite.
func (m Modification) Merge(o Modification) Modification {
	out := m
	out.MetaQuery = append(append([]MetaClause(nil), m.MetaQuery...), o.MetaQuery...)
	if o.OrderBy != "" {
		out.OrderBy = o.OrderBy
	}
	if o.MetaKey != "" {
		out.MetaKey = o.MetaKey
	}
	if o.Order != "" {
		out.Order = o.Order
	}
	if o.Search != nil {
		out.Search = o.Search
	}
	return out
}

// ApplyTo writes m into q with the same rules as Merge.
func (m Modification) ApplyTo(q *Query) {
	q.MetaQuery = append(q.MetaQuery, m.MetaQuery...)
	if m.OrderBy != "" {
		q.OrderBy = m.OrderBy
	}
	if m.MetaKey != "" {
		q.MetaKey = m.MetaKey
	}
	if m.Order != "" {
		q.Order = m.Order
	}
	if m.Search != nil {
		q.Search = *m.Search
	}
}

// isBlank is the search emptiness check: "" and a lone space are both blank.
func isBlank(s string) bool {
	return s == "" || s == " "
}

func upper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
