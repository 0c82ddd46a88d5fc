// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned by write operations that matched no row.
	// Reads return (nil, nil) instead.
	ErrNotFound = errors.New("store: not found")

	// ErrTemplateInUse is returned when deleting a template that invoices
	// still reference.
	ErrTemplateInUse = errors.New("store: template is used by invoices")

	// ErrSubdomainTaken is returned when an invoice subdomain collides
	// with an existing one.
	ErrSubdomainTaken = errors.New("store: subdomain already taken")

	// ErrTierNameTaken is returned when a tier name is already in use.
	ErrTierNameTaken = errors.New("store: tier name already taken")

	// ErrUnknownTier is returned when a template names a tier that does
	// not exist.
	ErrUnknownTier = errors.New("store: unknown tier")
)

// SQLSTATE codes the stores translate into sentinel errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// pgCode returns the SQLSTATE carried by err, or "".
func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool { return pgCode(err) == pgUniqueViolation }

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
