// ABOUTME: Taxonomy term store operations.
// ABOUTME: Terms are shared rows; term_taxonomy ties a term to one taxonomy.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/2389/cpt/internal/content"
)

const termColumns = `t.term_id, tt.taxonomy, t.name, t.slug, tt.description, t.term_order, tt.parent`

func scanTerms(rows *sql.Rows) ([]content.Term, error) {
	defer rows.Close()
	var out []content.Term
	for rows.Next() {
		var t content.Term
		if err := rows.Scan(&t.ID, &t.Taxonomy, &t.Name, &t.Slug, &t.Description, &t.Order, &t.Parent); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CreateTerm adds a term to taxonomy. An empty slug is derived from the name.
func (s *Store) CreateTerm(ctx context.Context, t content.Term) (*content.Term, error) {
	if t.Taxonomy == "" {
		return nil, fmt.Errorf("term %q has no taxonomy", t.Name)
	}
	if t.Slug == "" {
		t.Slug = Slugify(t.Name)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO terms (name, slug, term_order) VALUES (?, ?, ?)", t.Name, t.Slug, t.Order)
	if err != nil {
		return nil, fmt.Errorf("insert term: %w", err)
	}
	if t.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO term_taxonomy (term_id, taxonomy, description, parent) VALUES (?, ?, ?, ?)",
		t.ID, t.Taxonomy, t.Description, t.Parent); err != nil {
		return nil, fmt.Errorf("insert term taxonomy: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Term returns the term with id in taxonomy.
func (s *Store) Term(ctx context.Context, taxonomy string, id int64) (*content.Term, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+termColumns+` FROM terms t
		JOIN term_taxonomy tt ON tt.term_id = t.term_id
		WHERE tt.taxonomy = ? AND t.term_id = ?`, taxonomy, id)
	if err != nil {
		return nil, err
	}
	terms, err := scanTerms(rows)
	if err != nil {
		return nil, err
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("term %d in %s: %w", id, taxonomy, ErrNotFound)
	}
	return &terms[0], nil
}

// UpdateTerm saves the name, slug, description, order and parent of t.
func (s *Store) UpdateTerm(ctx context.Context, t content.Term) error {
	if t.Slug == "" {
		t.Slug = Slugify(t.Name)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ttID, err := s.termTaxonomyID(ctx, tx, t.Taxonomy, t.ID)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE terms SET name = ?, slug = ?, term_order = ? WHERE term_id = ?", t.Name, t.Slug, t.Order, t.ID); err != nil {
		return fmt.Errorf("update term %d: %w", t.ID, err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE term_taxonomy SET description = ?, parent = ? WHERE term_taxonomy_id = ?", t.Description, t.Parent, ttID); err != nil {
		return fmt.Errorf("update term %d: %w", t.ID, err)
	}
	return tx.Commit()
}

// TermBySlug returns the term with slug in taxonomy.
func (s *Store) TermBySlug(ctx context.Context, taxonomy, slug string) (*content.Term, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+termColumns+` FROM terms t
		JOIN term_taxonomy tt ON tt.term_id = t.term_id
		WHERE tt.taxonomy = ? AND t.slug = ?`, taxonomy, slug)
	if err != nil {
		return nil, err
	}
	terms, err := scanTerms(rows)
	if err != nil {
		return nil, err
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("term %q in %s: %w", slug, taxonomy, ErrNotFound)
	}
	return &terms[0], nil
}

// TaxonomyTerms lists the terms of taxonomy by term order, then name.
func (s *Store) TaxonomyTerms(ctx context.Context, taxonomy string) ([]content.Term, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+termColumns+` FROM terms t
		JOIN term_taxonomy tt ON tt.term_id = t.term_id
		WHERE tt.taxonomy = ?
		ORDER BY t.term_order, t.name`, taxonomy)
	if err != nil {
		return nil, err
	}
	return scanTerms(rows)
}

// Terms lists the terms of taxonomy assigned to an item, by name.
func (s *Store) Terms(ctx context.Context, itemID int64, taxonomy string) ([]content.Term, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+termColumns+` FROM terms t
		JOIN term_taxonomy tt ON tt.term_id = t.term_id
		JOIN term_relationships tr ON tr.term_taxonomy_id = tt.term_taxonomy_id
		WHERE tr.object_id = ? AND tt.taxonomy = ?
		ORDER BY t.name`, itemID, taxonomy)
	if err != nil {
		return nil, err
	}
	return scanTerms(rows)
}

func (s *Store) termTaxonomyID(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}, taxonomy string, termID int64) (int64, error) {
	var ttID int64
	err := q.QueryRowContext(ctx,
		"SELECT term_taxonomy_id FROM term_taxonomy WHERE taxonomy = ? AND term_id = ?", taxonomy, termID).Scan(&ttID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("term %d in %s: %w", termID, taxonomy, ErrNotFound)
	}
	return ttID, err
}

// AssignTerm attaches a term to an item. Assigning twice is a no-op.
func (s *Store) AssignTerm(ctx context.Context, itemID int64, taxonomy string, termID int64) error {
	ttID, err := s.termTaxonomyID(ctx, s.db, taxonomy, termID)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO term_relationships (object_id, term_taxonomy_id) VALUES (?, ?)", itemID, ttID)
	return err
}

// SetTerms replaces the item's terms in taxonomy with termIDs.
func (s *Store) SetTerms(ctx context.Context, itemID int64, taxonomy string, termIDs []int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM term_relationships WHERE object_id = ? AND term_taxonomy_id IN (
			SELECT term_taxonomy_id FROM term_taxonomy WHERE taxonomy = ?)`, itemID, taxonomy); err != nil {
		return err
	}
	for _, id := range termIDs {
		ttID, err := s.termTaxonomyID(ctx, tx, taxonomy, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO term_relationships (object_id, term_taxonomy_id) VALUES (?, ?)", itemID, ttID); err != nil {
			return err
		}
	}
	return tx.Commit()
}
