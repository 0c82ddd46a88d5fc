package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"undangan/internal/models"
)

// TierStore reads and writes the catalog's price tiers.
type TierStore struct {
	db *sql.DB
}

// NewTierStore creates a new TierStore with the given database connection.
func NewTierStore(db *sql.DB) *TierStore {
	return &TierStore{db: db}
}

const tierColumns = `id, name, price_min, price_max, features, color, sort_order, created_at, updated_at`

func scanTier(row rowScanner, extra ...any) (*models.Tier, error) {
	t := &models.Tier{}
	dest := append([]any{&t.ID, &t.Name, &t.PriceMin, &t.PriceMax, &t.Features, &t.Color,
		&t.SortOrder, &t.CreatedAt, &t.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return t, nil
}

// List returns every tier in display order, each with the number of
// templates in it.
func (s *TierStore) List(ctx context.Context) ([]models.Tier, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+tierColumns+`,
		       (SELECT COUNT(*) FROM templates t WHERE t.tier = tiers.name)
		FROM tiers
		ORDER BY sort_order, price_min, name`)
	if err != nil {
		return nil, fmt.Errorf("list tiers: %w", err)
	}
	defer rows.Close()

	var tiers []models.Tier
	for rows.Next() {
		var count int
		t, err := scanTier(rows, &count)
		if err != nil {
			return nil, fmt.Errorf("scan tier: %w", err)
		}
		t.Templates = count
		tiers = append(tiers, *t)
	}
	return tiers, rows.Err()
}

// FindByID returns the tier with id, or nil.
func (s *TierStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Tier, error) {
	return s.find(ctx, `WHERE id = $1`, id)
}

// FindByName returns the tier named name, compared case-insensitively,
// or nil.
func (s *TierStore) FindByName(ctx context.Context, name string) (*models.Tier, error) {
	return s.find(ctx, `WHERE lower(name) = lower($1)`, name)
}

func (s *TierStore) find(ctx context.Context, where string, arg any) (*models.Tier, error) {
	t, err := scanTier(s.db.QueryRowContext(ctx, `SELECT `+tierColumns+` FROM tiers `+where, arg))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("find tier: %w", err)
	}
	return t, nil
}

// Create inserts t. A name already in use, in any letter case, yields
// ErrTierNameTaken.
func (s *TierStore) Create(ctx context.Context, t *models.Tier) (*models.Tier, error) {
	created, err := scanTier(s.db.QueryRowContext(ctx, `
		INSERT INTO tiers (name, price_min, price_max, features, color, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+tierColumns,
		t.Name, t.PriceMin, t.PriceMax, t.Features, t.Color, t.SortOrder))
	if isUniqueViolation(err) {
		return nil, ErrTierNameTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create tier %q: %w", t.Name, err)
	}
	return created, nil
}

// Update replaces a tier's fields. A rename carries over to the
// templates in the tier.
func (s *TierStore) Update(ctx context.Context, t *models.Tier) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tiers
		SET name = $2, price_min = $3, price_max = $4, features = $5, color = $6,
		    sort_order = $7, updated_at = NOW()
		WHERE id = $1`,
		t.ID, t.Name, t.PriceMin, t.PriceMax, t.Features, t.Color, t.SortOrder)
	if isUniqueViolation(err) {
		return ErrTierNameTaken
	}
	if err != nil {
		return fmt.Errorf("update tier %s: %w", t.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a tier. Its templates stay in the catalog without a
// tier.
func (s *TierStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tiers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tier %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
