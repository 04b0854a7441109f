// ABOUTME: Content item and meta store operations.
// ABOUTME: Items carry a UUID guid; meta is multi-valued per key.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/2389/cpt/internal/content"
)

// dateLayout is how item dates are stored.
const dateLayout = "2006-01-02 15:04:05"

const itemColumns = `posts.id, posts.type, posts.slug, posts.title, posts.excerpt, posts.content,
	posts.status, posts.author_id, posts.parent_id, posts.menu_order, posts.guid,
	posts.date, posts.date_gmt, posts.modified, posts.modified_gmt`

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and joins its words with dashes.
func Slugify(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*content.Item, error) {
	var (
		it                                   content.Item
		date, dateGMT, modified, modifiedGMT string
	)
	err := row.Scan(&it.ID, &it.Type, &it.Slug, &it.Title, &it.Excerpt, &it.Content,
		&it.Status, &it.AuthorID, &it.Parent, &it.MenuOrder, &it.GUID,
		&date, &dateGMT, &modified, &modifiedGMT)
	if err != nil {
		return nil, err
	}
	it.Date = parseDate(date)
	it.DateGMT = parseDate(dateGMT)
	it.Modified = parseDate(modified)
	it.ModifiedGMT = parseDate(modifiedGMT)
	return &it, nil
}

// CreateItem inserts it and fills in its id, guid, slug, status and dates.
func (s *Store) CreateItem(ctx context.Context, it *content.Item) (*content.Item, error) {
	if it.Type == "" {
		return nil, fmt.Errorf("item has no type")
	}
	if it.Slug == "" {
		it.Slug = Slugify(it.Title)
	}
	if it.Status == "" {
		it.Status = "draft"
	}
	if it.GUID == "" {
		it.GUID = uuid.New().URN()
	}
	now := time.Now()
	if it.Date.IsZero() {
		it.Date = now.Truncate(time.Second)
	}
	if it.DateGMT.IsZero() {
		it.DateGMT = it.Date.UTC()
	}
	it.Modified = now.Truncate(time.Second)
	it.ModifiedGMT = it.Modified.UTC()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (type, slug, title, excerpt, content, status, author_id, parent_id, menu_order, guid,
			date, date_gmt, modified, modified_gmt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.Type, it.Slug, it.Title, it.Excerpt, it.Content, it.Status, it.AuthorID, it.Parent, it.MenuOrder, it.GUID,
		formatDate(it.Date), formatDate(it.DateGMT), formatDate(it.Modified), formatDate(it.ModifiedGMT))
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	it.ID, err = res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return it, nil
}

// UpdateItem saves the editable fields of it.
func (s *Store) UpdateItem(ctx context.Context, it *content.Item) error {
	it.Modified = time.Now().Truncate(time.Second)
	it.ModifiedGMT = it.Modified.UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE posts SET slug = ?, title = ?, excerpt = ?, content = ?, status = ?, author_id = ?,
			parent_id = ?, menu_order = ?, date = ?, date_gmt = ?, modified = ?, modified_gmt = ?
		WHERE id = ?`,
		it.Slug, it.Title, it.Excerpt, it.Content, it.Status, it.AuthorID,
		it.Parent, it.MenuOrder, formatDate(it.Date), formatDate(it.DateGMT),
		formatDate(it.Modified), formatDate(it.ModifiedGMT), it.ID)
	if err != nil {
		return fmt.Errorf("update item %d: %w", it.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("item %d: %w", it.ID, ErrNotFound)
	}
	return nil
}

// Item returns the item with id.
func (s *Store) Item(ctx context.Context, id int64) (*content.Item, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+itemColumns+" FROM posts WHERE posts.id = ?", id)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	return it, err
}

// ItemBySlug returns the item of contentType with slug.
func (s *Store) ItemBySlug(ctx context.Context, contentType, slug string) (*content.Item, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM posts WHERE posts.type = ? AND posts.slug = ? ORDER BY posts.id LIMIT 1",
		contentType, slug)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %q: %w", contentType, slug, ErrNotFound)
	}
	return it, err
}

// DeleteItems removes items with their meta and term assignments.
func (s *Store) DeleteItems(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	in, args := inList(ids)
	res, err := s.db.ExecContext(ctx, "DELETE FROM posts WHERE id IN ("+in+")", args...)
	if err != nil {
		return 0, fmt.Errorf("delete items: %w", err)
	}
	return res.RowsAffected()
}

// SetStatus changes the status of items and returns how many changed.
func (s *Store) SetStatus(ctx context.Context, ids []int64, status string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	in, args := inList(ids)
	args = append([]any{status, formatDate(time.Now())}, args...)
	res, err := s.db.ExecContext(ctx,
		"UPDATE posts SET status = ?, modified = ? WHERE id IN ("+in+")", args...)
	if err != nil {
		return 0, fmt.Errorf("set status: %w", err)
	}
	return res.RowsAffected()
}

// CountByStatus counts items of contentType per status.
func (s *Store) CountByStatus(ctx context.Context, contentType string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM posts WHERE type = ? GROUP BY status", contentType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// Months lists the distinct YYYYMM months of contentType items, newest first.
func (s *Store) Months(ctx context.Context, contentType string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT strftime('%Y%m', date) AS m FROM posts
		WHERE type = ? AND date != '' AND status != 'trash'
		ORDER BY m DESC`, contentType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStrings(rows)
}

// AddMeta appends a value under key.
func (s *Store) AddMeta(ctx context.Context, itemID int64, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO postmeta (post_id, meta_key, meta_value) VALUES (?, ?, ?)", itemID, key, value)
	if err != nil {
		return fmt.Errorf("add meta %q to %d: %w", key, itemID, err)
	}
	return nil
}

// SetMeta replaces every value under key with value.
func (s *Store) SetMeta(ctx context.Context, itemID int64, key, value string) error {
	return s.ReplaceMeta(ctx, itemID, key, []string{value})
}

// ReplaceMeta replaces every value under key with values. No values removes the key.
func (s *Store) ReplaceMeta(ctx context.Context, itemID int64, key string, values []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM postmeta WHERE post_id = ? AND meta_key = ?", itemID, key); err != nil {
		return err
	}
	for _, v := range values {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO postmeta (post_id, meta_key, meta_value) VALUES (?, ?, ?)", itemID, key, v); err != nil {
			return fmt.Errorf("replace meta %q on %d: %w", key, itemID, err)
		}
	}
	return tx.Commit()
}

// MetaValues returns the values stored under key, in insertion order.
func (s *Store) MetaValues(ctx context.Context, itemID int64, key string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT meta_value FROM postmeta WHERE post_id = ? AND meta_key = ? ORDER BY meta_id", itemID, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStrings(rows)
}

// Meta returns every meta value of an item. Keys starting with "_" are left out.
func (s *Store) Meta(ctx context.Context, itemID int64) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT meta_key, meta_value FROM postmeta WHERE post_id = ? AND meta_key NOT LIKE '\\_%' ESCAPE '\\' ORDER BY meta_id", itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string][]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = append(out[k], v)
	}
	return out, rows.Err()
}

// DistinctMetaValues lists the non-empty values stored under key on items of contentType, sorted.
func (s *Store) DistinctMetaValues(ctx context.Context, contentType, key string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT pm.meta_value FROM postmeta pm
		JOIN posts ON posts.id = pm.post_id
		WHERE posts.type = ? AND pm.meta_key = ? AND pm.meta_value != ''
		ORDER BY pm.meta_value`, contentType, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStrings(rows)
}

// SetThumbnail stores image as an attachment and makes it the item's featured image.
func (s *Store) SetThumbnail(ctx context.Context, itemID int64, img content.Image) error {
	att, err := s.CreateItem(ctx, &content.Item{
		Type:   "attachment",
		Title:  img.Alt,
		Status: "inherit",
		Parent: itemID,
		GUID:   img.URL,
	})
	if err != nil {
		return err
	}
	return s.SetMeta(ctx, itemID, "_thumbnail_id", fmt.Sprint(att.ID))
}

// Thumbnail returns the featured image of an item, or nil when it has none.
func (s *Store) Thumbnail(ctx context.Context, itemID int64, size string) (*content.Image, error) {
	var url, alt string
	err := s.db.QueryRowContext(ctx, `
		SELECT att.guid, att.title FROM postmeta pm
		JOIN posts att ON att.id = CAST(pm.meta_value AS INTEGER)
		WHERE pm.post_id = ? AND pm.meta_key = '_thumbnail_id'
		ORDER BY pm.meta_id DESC LIMIT 1`, itemID).Scan(&url, &alt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &content.Image{URL: url, Alt: alt}, nil
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
