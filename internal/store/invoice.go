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

// InvoiceStore handles all invoice-related database operations.
type InvoiceStore struct {
	db *sql.DB
}

// NewInvoiceStore creates a new InvoiceStore with the given database connection.
func NewInvoiceStore(db *sql.DB) *InvoiceStore {
	return &InvoiceStore{db: db}
}

// invoiceSelect joins the owning template so readers get its name and
// content alongside the invoice's own tree.
const invoiceSelect = `
	SELECT i.id, i.customer_name, i.template_id, t.name, i.subdomain,
		i.subdomain_mode, i.agreed_price, i.access_token, i.status,
		i.template_content, i.html_content, t.content, i.created_at, i.updated_at
	FROM invoices i
	JOIN templates t ON t.id = i.template_id`

func scanInvoice(row rowScanner) (*models.Invoice, error) {
	inv := &models.Invoice{}
	err := row.Scan(
		&inv.ID, &inv.CustomerName, &inv.TemplateID, &inv.TemplateName, &inv.Subdomain,
		&inv.SubdomainMode, &inv.AgreedPrice, &inv.AccessToken, &inv.Status,
		&inv.TemplateContent, &inv.HTMLContent, &inv.BaseContent, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// List returns all invoices, newest first.
func (s *InvoiceStore) List(ctx context.Context) ([]models.Invoice, error) {
	rows, err := s.db.QueryContext(ctx, invoiceSelect+` ORDER BY i.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []models.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}

// FindByID retrieves an invoice by UUID. Returns nil if not found.
func (s *InvoiceStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	inv, err := scanInvoice(s.db.QueryRowContext(ctx, invoiceSelect+` WHERE i.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find invoice by id: %w", err)
	}
	return inv, nil
}

// FindBySubdomain retrieves an invoice by its subdomain. Returns nil if
// not found.
func (s *InvoiceStore) FindBySubdomain(ctx context.Context, subdomain string) (*models.Invoice, error) {
	inv, err := scanInvoice(s.db.QueryRowContext(ctx, invoiceSelect+` WHERE i.subdomain = $1`, subdomain))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find invoice by subdomain: %w", err)
	}
	return inv, nil
}

// Create inserts a new invoice. The caller supplies the copied file tree
// and access token.
func (s *InvoiceStore) Create(ctx context.Context, inv *models.Invoice) (*models.Invoice, error) {
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO invoices (customer_name, template_id, subdomain, subdomain_mode,
			agreed_price, access_token, status, template_content, html_content)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, inv.CustomerName, inv.TemplateID, inv.Subdomain, inv.SubdomainMode,
		inv.AgreedPrice, inv.AccessToken, models.InvoiceActive, inv.TemplateContent, inv.HTMLContent,
	).Scan(&id)
	if isUniqueViolation(err) {
		return nil, ErrSubdomainTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	return s.FindByID(ctx, id)
}

// Update changes an invoice's customer-facing fields.
func (s *InvoiceStore) Update(ctx context.Context, inv *models.Invoice) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE invoices SET
			customer_name = $1, subdomain = $2, subdomain_mode = $3, agreed_price = $4,
			updated_at = NOW()
		WHERE id = $5
	`, inv.CustomerName, inv.Subdomain, inv.SubdomainMode, inv.AgreedPrice, inv.ID)
	if isUniqueViolation(err) {
		return ErrSubdomainTaken
	}
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStatus switches an invoice between ACTIVE and ARCHIVED.
func (s *InvoiceStore) SetStatus(ctx context.Context, id uuid.UUID, status models.InvoiceStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE invoices SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("set invoice status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveContent replaces the invoice's file tree and derived index.html.
// Concurrent saves are last-write-wins.
func (s *InvoiceStore) SaveContent(ctx context.Context, id uuid.UUID, content, html string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE invoices SET template_content = $1, html_content = $2, updated_at = NOW()
		WHERE id = $3
	`, content, html, id)
	if err != nil {
		return fmt.Errorf("save invoice content: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an invoice together with its RSVP submissions in one
// transaction. Guests go with it through the foreign key cascade.
func (s *InvoiceStore) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM rsvp_submissions WHERE invoice_id = $1`, id); err != nil {
		return fmt.Errorf("delete invoice rsvps: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}
