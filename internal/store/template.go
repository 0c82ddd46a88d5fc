package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"undangan/internal/models"
)

// TemplateStore reads and writes invitation templates.
type TemplateStore struct {
	db *sql.DB
}

// NewTemplateStore creates a new TemplateStore with the given database connection.
func NewTemplateStore(db *sql.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

const templateSelect = `
	SELECT id, name, description, thumbnail, price, tier,
	       content, html_content, created_at, updated_at
	FROM templates`

func scanTemplate(row rowScanner) (*models.Template, error) {
	var t models.Template
	if err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Thumbnail, &t.Price, &t.Tier,
		&t.Content, &t.HTMLContent, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// List returns the catalog ordered by name. A non-empty tier keeps only
// templates of that tier, compared case-insensitively.
func (s *TemplateStore) List(ctx context.Context, tier string) ([]models.Template, error) {
	rows, err := s.db.QueryContext(ctx, templateSelect+`
		WHERE $1::text = '' OR lower(tier) = lower($1::text)
		ORDER BY name, created_at`, tier)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var list []models.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		list = append(list, *t)
	}
	return list, rows.Err()
}

// FindByID returns the template with id, or nil when there is none.
func (s *TemplateStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Template, error) {
	t, err := scanTemplate(s.db.QueryRowContext(ctx, templateSelect+` WHERE id = $1`, id))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("find template %s: %w", id, err)
	}
	return t, nil
}

// Create inserts t and returns the stored row.
func (s *TemplateStore) Create(ctx context.Context, t *models.Template) (*models.Template, error) {
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO templates (name, description, thumbnail, price, tier, content, html_content)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		t.Name, t.Description, t.Thumbnail, t.Price, t.Tier, t.Content, t.HTMLContent,
	).Scan(&id)
	if pgCode(err) == pgForeignKeyViolation {
		return nil, ErrUnknownTier
	}
	if err != nil {
		return nil, fmt.Errorf("create template %q: %w", t.Name, err)
	}
	return s.FindByID(ctx, id)
}

// UpdateMeta changes a template's catalog fields. Content is untouched.
// A tier that does not exist yields ErrUnknownTier.
func (s *TemplateStore) UpdateMeta(ctx context.Context, t *models.Template) error {
	err := s.update(ctx, t.ID, `
		UPDATE templates
		SET name = $2, description = $3, thumbnail = $4, price = $5, tier = $6, updated_at = NOW()
		WHERE id = $1`, t.Name, t.Description, t.Thumbnail, t.Price, t.Tier)
	if pgCode(err) == pgForeignKeyViolation {
		return ErrUnknownTier
	}
	return err
}

// SaveContent replaces the template's file tree and its derived
// index.html in one statement. Concurrent saves are last-write-wins.
func (s *TemplateStore) SaveContent(ctx context.Context, id uuid.UUID, content, html string) error {
	return s.update(ctx, id, `
		UPDATE templates SET content = $2, html_content = $3, updated_at = NOW()
		WHERE id = $1`, content, html)
}

// Delete removes a template. The invoices foreign key is RESTRICT, so a
// template still referenced by an invoice is refused with
// ErrTemplateInUse.
func (s *TemplateStore) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.update(ctx, id, `DELETE FROM templates WHERE id = $1`)
	if pgCode(err) == pgForeignKeyViolation {
		return ErrTemplateInUse
	}
	return err
}

// update runs a statement keyed by id as $1 and maps "no rows" to
// ErrNotFound.
func (s *TemplateStore) update(ctx context.Context, id uuid.UUID, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return fmt.Errorf("template %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
