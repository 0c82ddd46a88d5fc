// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"undangan/internal/models"
)

// RSVPStore handles RSVP submissions.
type RSVPStore struct {
	db *sql.DB
}

// NewRSVPStore creates a new RSVPStore with the given database connection.
func NewRSVPStore(db *sql.DB) *RSVPStore {
	return &RSVPStore{db: db}
}

const rsvpColumns = `id, invoice_id, guest_name, email, attending, allergies, comment, created_at`

func scanRSVP(row rowScanner) (*models.RSVPSubmission, error) {
	r := &models.RSVPSubmission{}
	err := row.Scan(&r.ID, &r.InvoiceID, &r.GuestName, &r.Email, &r.Attending,
		&r.Allergies, &r.Comment, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Create records a submission.
func (s *RSVPStore) Create(ctx context.Context, r *models.RSVPSubmission) (*models.RSVPSubmission, error) {
	created, err := scanRSVP(s.db.QueryRowContext(ctx, `
		INSERT INTO rsvp_submissions (invoice_id, guest_name, email, attending, allergies, comment)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+rsvpColumns,
		r.InvoiceID, r.GuestName, r.Email, r.Attending, r.Allergies, r.Comment))
	if err != nil {
		return nil, fmt.Errorf("create rsvp: %w", err)
	}
	return created, nil
}

// ListByInvoice returns every submission for an invoice, newest first.
func (s *RSVPStore) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]models.RSVPSubmission, error) {
	return s.query(ctx, `SELECT `+rsvpColumns+` FROM rsvp_submissions
		WHERE invoice_id = $1 ORDER BY created_at DESC`, invoiceID)
}

// RecentWishes returns the newest submissions that carry a comment.
func (s *RSVPStore) RecentWishes(ctx context.Context, invoiceID uuid.UUID, limit int) ([]models.Wish, error) {
	subs, err := s.query(ctx, `SELECT `+rsvpColumns+` FROM rsvp_submissions
		WHERE invoice_id = $1 AND comment IS NOT NULL AND comment <> ''
		ORDER BY created_at DESC LIMIT $2`, invoiceID, limit)
	if err != nil {
		return nil, err
	}
	wishes := make([]models.Wish, 0, len(subs))
	for i := range subs {
		if w, ok := subs[i].Wish(); ok {
			wishes = append(wishes, w)
		}
	}
	return wishes, nil
}

func (s *RSVPStore) query(ctx context.Context, q string, args ...any) ([]models.RSVPSubmission, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query rsvps: %w", err)
	}
	defer rows.Close()

	var subs []models.RSVPSubmission
	for rows.Next() {
		r, err := scanRSVP(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rsvp: %w", err)
		}
		subs = append(subs, *r)
	}
	return subs, rows.Err()
}
