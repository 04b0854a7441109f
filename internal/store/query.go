// ABOUTME: Executes item listing queries built by the query package.
// ABOUTME: Meta clauses become EXISTS subqueries; raw clauses are spliced in with their bound args.

package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/2389/cpt/internal/content"
	"github.com/2389/cpt/internal/query"
)

// sortFields maps orderby values to columns.
var sortFields = map[string]string{
	"id":         "posts.id",
	"ID":         "posts.id",
	"title":      "posts.title",
	"name":       "posts.slug",
	"slug":       "posts.slug",
	"date":       "posts.date",
	"modified":   "posts.modified",
	"menu_order": "posts.menu_order",
	"author":     "posts.author_id",
	"type":       "posts.type",
	"status":     "posts.status",
	"parent":     "posts.parent_id",
}

var comparisons = map[string]string{
	"":   "=",
	"=":  "=",
	"!=": "!=",
	">":  ">",
	">=": ">=",
	"<":  "<",
	"<=": "<=",
}

type sqlQuery struct {
	joins     []string
	where     []string
	whereArgs []any
	groupBy   string
	orderBy   string
	orderArgs []any
}

func (b *sqlQuery) addWhere(sql string, args ...any) {
	b.where = append(b.where, sql)
	b.whereArgs = append(b.whereArgs, args...)
}

// metaCondition renders one meta clause as an EXISTS subquery.
func metaCondition(c query.MetaClause) (string, []any, error) {
	var (
		conds []string
		args  []any
	)
	keys := c.Keys
	if len(keys) == 0 && c.Key != "" {
		keys = []string{c.Key}
	}
	switch len(keys) {
	case 0:
	case 1:
		conds = append(conds, "pm.meta_key = ?")
		args = append(args, keys[0])
	default:
		conds = append(conds, "pm.meta_key IN ("+placeholders(len(keys))+")")
		args = append(args, stringArgs(keys)...)
	}

	value := "pm.meta_value"
	bind := "?"
	if c.Type == "NUMERIC" {
		value = "CAST(pm.meta_value AS REAL)"
		bind = "CAST(? AS REAL)"
	}

	compare := strings.ToUpper(c.Compare)
	switch compare {
	case "LIKE", "NOT LIKE":
		conds = append(conds, "pm.meta_value "+compare+` ? ESCAPE '\'`)
		args = append(args, "%"+escapeSQLLike(c.Value)+"%")
	case "IN", "NOT IN":
		vals := c.Values
		if vals == nil {
			vals = strings.Split(c.Value, ",")
		}
		if len(vals) == 0 {
			return "", nil, fmt.Errorf("meta clause %q: %s needs values", c.Key, compare)
		}
		conds = append(conds, "pm.meta_value "+compare+" ("+placeholders(len(vals))+")")
		args = append(args, stringArgs(vals)...)
	case "EXISTS", "NOT EXISTS":
	default:
		op, ok := comparisons[compare]
		if !ok {
			return "", nil, fmt.Errorf("meta clause %q: unsupported compare %q", c.Key, c.Compare)
		}
		conds = append(conds, value+" "+op+" "+bind)
		args = append(args, c.Value)
	}

	where := "pm.post_id = posts.id"
	if len(conds) > 0 {
		where += " AND " + strings.Join(conds, " AND ")
	}
	exists := "EXISTS"
	if compare == "NOT EXISTS" {
		exists = "NOT EXISTS"
	}
	return exists + " (SELECT 1 FROM postmeta pm WHERE " + where + ")", args, nil
}

func build(q *query.Query) (*sqlQuery, error) {
	b := &sqlQuery{}

	if len(q.Types) > 0 {
		b.addWhere("posts.type IN ("+placeholders(len(q.Types))+")", stringArgs(q.Types)...)
	}
	if len(q.Statuses) > 0 {
		b.addWhere("posts.status IN ("+placeholders(len(q.Statuses))+")", stringArgs(q.Statuses)...)
	}
	if q.Name != "" {
		b.addWhere("posts.slug = ?", q.Name)
	}
	if q.Author > 0 {
		b.addWhere("posts.author_id = ?", q.Author)
	}
	if q.Month != "" && q.Month != "0" {
		b.addWhere("strftime('%Y%m', posts.date) = ?", q.Month)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + escapeSQLLike(s) + "%"
		b.addWhere(`(posts.title LIKE ? ESCAPE '\' OR posts.excerpt LIKE ? ESCAPE '\' OR posts.content LIKE ? ESCAPE '\')`,
			like, like, like)
	}

	taxonomies := make([]string, 0, len(q.Terms))
	for tax := range q.Terms {
		taxonomies = append(taxonomies, tax)
	}
	sort.Strings(taxonomies)
	for _, tax := range taxonomies {
		slug := q.Terms[tax]
		if slug == "" {
			continue
		}
		b.addWhere(`EXISTS (SELECT 1 FROM term_relationships tr
			JOIN term_taxonomy tt ON tt.term_taxonomy_id = tr.term_taxonomy_id
			JOIN terms t ON t.term_id = tt.term_id
			WHERE tr.object_id = posts.id AND tt.taxonomy = ? AND t.slug = ?)`, tax, slug)
	}

	for _, c := range q.MetaQuery {
		cond, args, err := metaCondition(c)
		if err != nil {
			return nil, err
		}
		b.addWhere(cond, args...)
	}

	b.joins = append(b.joins, q.Clauses.Join...)
	for _, p := range q.Clauses.Where {
		b.addWhere(p.SQL, p.Args...)
	}
	b.groupBy = q.Clauses.GroupBy

	dir := "DESC"
	if strings.EqualFold(q.Order, "asc") {
		dir = "ASC"
	}
	switch {
	case q.Clauses.OrderBy != "":
		b.orderBy = q.Clauses.OrderBy
	case q.OrderBy == "meta_value" || q.OrderBy == "meta_value_num":
		expr := "(SELECT MIN(meta_value) FROM postmeta WHERE post_id = posts.id AND meta_key = ?)"
		if q.OrderBy == "meta_value_num" {
			expr = "(SELECT MIN(CAST(meta_value AS REAL)) FROM postmeta WHERE post_id = posts.id AND meta_key = ?)"
		}
		b.orderBy = expr + " " + dir
		b.orderArgs = append(b.orderArgs, q.MetaKey)
	default:
		col, ok := sortFields[q.OrderBy]
		if !ok {
			col = "posts.date"
		}
		b.orderBy = col + " " + dir
	}
	b.orderBy += ", posts.id " + dir

	return b, nil
}

func (b *sqlQuery) from() string {
	var sb strings.Builder
	sb.WriteString(" FROM posts")
	for _, j := range b.joins {
		sb.WriteString(" ")
		sb.WriteString(j)
	}
	if len(b.where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.where, " AND "))
	}
	if b.groupBy != "" {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(b.groupBy)
	}
	return sb.String()
}

// Items runs q and returns one page of items plus the total number of matches.
func (s *Store) Items(ctx context.Context, q *query.Query) ([]*content.Item, int, error) {
	b, err := build(q)
	if err != nil {
		return nil, 0, err
	}

	var total int
	countSQL := "SELECT COUNT(*) FROM (SELECT posts.id" + b.from() + ")"
	if err := s.db.QueryRowContext(ctx, countSQL, b.whereArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count items: %w", err)
	}

	listSQL := "SELECT " + itemColumns + b.from() + " ORDER BY " + b.orderBy
	args := append(append([]any(nil), b.whereArgs...), b.orderArgs...)
	if q.Limit > 0 {
		listSQL += " LIMIT ? OFFSET ?"
		args = append(args, q.Limit, q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []*content.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, it)
	}
	return items, total, rows.Err()
}
