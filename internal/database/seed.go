package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"undangan/internal/vfs"
)

// Seed runs once per installation: while the users table is empty it
// creates the configured admin account, the starter price tiers and a
// "Classic" starter template in a single transaction.
func Seed(ctx context.Context, db *sql.DB, username, password string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	var seeded bool
	if err := tx.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM users)").Scan(&seeded); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}
	if seeded {
		slog.Debug("database already seeded")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed hash password: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, display_name) VALUES ($1, $2, $3)`,
		username, string(hash), "Admin",
	); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	if err := seedTiers(ctx, tx); err != nil {
		return err
	}
	if err := seedStarterTemplate(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded", "admin", username)
	return nil
}

// starterTiers are the price bands of a fresh catalog, in rupiah.
var starterTiers = []struct {
	name      string
	min, max  int64
	color     string
	sortOrder int
}{
	{"Basic", 0, 250_000, "#64748b", 1},
	{"Premium", 250_000, 750_000, "#b8860b", 2},
	{"Exclusive", 750_000, 2_000_000, "#7c3aed", 3},
}

func seedTiers(ctx context.Context, tx *sql.Tx) error {
	for _, t := range starterTiers {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tiers (name, price_min, price_max, color, sort_order)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT DO NOTHING`,
			t.name, t.min, t.max, t.color, t.sortOrder,
		); err != nil {
			return fmt.Errorf("seed tier %q: %w", t.name, err)
		}
	}
	return nil
}

// seedStarterTemplate stores the default tree as a template so a fresh
// install has something to create invoices from.
func seedStarterTemplate(ctx context.Context, tx *sql.Tx) error {
	tree := vfs.Defaults()
	raw, err := vfs.Encode(tree)
	if err != nil {
		return fmt.Errorf("seed encode starter tree: %w", err)
	}
	var html string
	if index := vfs.FindFirst(tree, "index.html"); index != nil {
		html = index.Content
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO templates (name, description, tier, content, html_content)
		 VALUES ($1, $2, (SELECT name FROM tiers WHERE lower(name) = lower($3)), $4, $5)`,
		"Classic", "Starter wedding invitation", "Basic", raw, html,
	); err != nil {
		return fmt.Errorf("seed starter template: %w", err)
	}
	return nil
}
