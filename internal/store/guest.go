// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"undangan/internal/models"
)

// GuestStore handles per-invoice guest lists.
type GuestStore struct {
	db *sql.DB
}

// NewGuestStore creates a new GuestStore with the given database connection.
func NewGuestStore(db *sql.DB) *GuestStore {
	return &GuestStore{db: db}
}

const guestColumns = `id, invoice_id, name, slug, phone, created_at`

func scanGuest(row rowScanner) (*models.Guest, error) {
	g := &models.Guest{}
	if err := row.Scan(&g.ID, &g.InvoiceID, &g.Name, &g.Slug, &g.Phone, &g.CreatedAt); err != nil {
		return nil, err
	}
	return g, nil
}

// ListByInvoice returns an invoice's guests, newest first.
func (s *GuestStore) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]models.Guest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+guestColumns+` FROM guests WHERE invoice_id = $1 ORDER BY created_at DESC`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list guests: %w", err)
	}
	defer rows.Close()

	var guests []models.Guest
	for rows.Next() {
		g, err := scanGuest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan guest: %w", err)
		}
		guests = append(guests, *g)
	}
	return guests, rows.Err()
}

// FindBySlug returns the guest with the given slug on an invoice, or nil.
func (s *GuestStore) FindBySlug(ctx context.Context, invoiceID uuid.UUID, slug string) (*models.Guest, error) {
	g, err := scanGuest(s.db.QueryRowContext(ctx,
		`SELECT `+guestColumns+` FROM guests WHERE invoice_id = $1 AND slug = $2`, invoiceID, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find guest by slug: %w", err)
	}
	return g, nil
}

// SlugExists reports whether slug is already used on the invoice.
func (s *GuestStore) SlugExists(ctx context.Context, invoiceID uuid.UUID, slug string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM guests WHERE invoice_id = $1 AND slug = $2)`, invoiceID, slug,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check guest slug: %w", err)
	}
	return exists, nil
}

// Create inserts a guest. A slug collision surfaces as a unique
// violation wrapped in the returned error.
func (s *GuestStore) Create(ctx context.Context, g *models.Guest) (*models.Guest, error) {
	created, err := scanGuest(s.db.QueryRowContext(ctx, `
		INSERT INTO guests (invoice_id, name, slug, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING `+guestColumns,
		g.InvoiceID, g.Name, g.Slug, g.Phone))
	if err != nil {
		return nil, fmt.Errorf("create guest: %w", err)
	}
	return created, nil
}

// Delete removes a guest from an invoice.
func (s *GuestStore) Delete(ctx context.Context, invoiceID, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM guests WHERE id = $1 AND invoice_id = $2`, id, invoiceID)
	if err != nil {
		return fmt.Errorf("delete guest: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
