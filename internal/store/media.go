package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"undangan/internal/models"
)

// MediaStore persists metadata for uploaded files. The bytes themselves
// live in a storage.Backend.
type MediaStore struct {
	db *sql.DB
}

// NewMediaStore creates a new MediaStore with the given database connection.
func NewMediaStore(db *sql.DB) *MediaStore {
	return &MediaStore{db: db}
}

const mediaReturning = `RETURNING id, filename, original_name, content_type,
	size_bytes, backend, key, url, created_at`

// mediaRow scans the columns listed in mediaReturning.
type mediaRow struct{ models.Media }

func (m *mediaRow) dest() []any {
	return []any{&m.ID, &m.Filename, &m.OriginalName, &m.ContentType,
		&m.SizeBytes, &m.Backend, &m.Key, &m.URL, &m.CreatedAt}
}

// Create inserts a media record and returns it with its generated id.
func (s *MediaStore) Create(ctx context.Context, m *models.Media) (*models.Media, error) {
	var row mediaRow
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO media (filename, original_name, content_type, size_bytes, backend, key, url)
		VALUES ($1, $2, $3, $4, $5, $6, $7) `+mediaReturning,
		m.Filename, m.OriginalName, m.ContentType, m.SizeBytes, m.Backend, m.Key, m.URL,
	).Scan(row.dest()...)
	if err != nil {
		return nil, fmt.Errorf("insert media %s: %w", m.Key, err)
	}
	return &row.Media, nil
}

// List returns one page of the library, newest first, and the number of
// records matching kind across all pages. An empty kind matches every
// record.
func (s *MediaStore) List(ctx context.Context, kind string, limit, offset int) ([]models.Media, int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, original_name, content_type, size_bytes,
		       backend, key, url, created_at, COUNT(*) OVER ()
		FROM media
		WHERE $1::text = '' OR content_type LIKE $1::text || '/%'
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, kind, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list media: %w", err)
	}
	defer rows.Close()

	var (
		items []models.Media
		total int
	)
	for rows.Next() {
		var row mediaRow
		if err := rows.Scan(append(row.dest(), &total)...); err != nil {
			return nil, 0, fmt.Errorf("scan media: %w", err)
		}
		items = append(items, row.Media)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list media: %w", err)
	}

	// Past the last page the window count is unavailable.
	if len(items) == 0 && offset > 0 {
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM media WHERE $1::text = '' OR content_type LIKE $1::text || '/%'`, kind,
		).Scan(&total)
		if err != nil {
			return nil, 0, fmt.Errorf("count media: %w", err)
		}
	}
	return items, total, nil
}

// Delete removes a media record and returns it so the caller can remove
// the stored object. A missing record yields nil, nil.
func (s *MediaStore) Delete(ctx context.Context, id uuid.UUID) (*models.Media, error) {
	var row mediaRow
	err := s.db.QueryRowContext(ctx, `DELETE FROM media WHERE id = $1 `+mediaReturning, id).Scan(row.dest()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete media %s: %w", id, err)
	}
	return &row.Media, nil
}
