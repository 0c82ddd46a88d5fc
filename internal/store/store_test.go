// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"undangan/internal/database"
	"undangan/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "undangan")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "undangan")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", testDSN())
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	if _, err := database.Migrate(context.Background(), db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// testTemplate inserts a template and removes it, with any invoices
// pointing at it, when the test ends.
func testTemplate(t *testing.T, db *sql.DB, content string) *models.Template {
	t.Helper()
	created, err := NewTemplateStore(db).Create(context.Background(), &models.Template{
		Name:    "Test Template " + uuid.NewString()[:8],
		Content: content,
	})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	t.Cleanup(func() {
		db.Exec(`DELETE FROM rsvp_submissions WHERE invoice_id IN (SELECT id FROM invoices WHERE template_id = $1)`, created.ID)
		db.Exec(`DELETE FROM invoices WHERE template_id = $1`, created.ID)
		db.Exec(`DELETE FROM templates WHERE id = $1`, created.ID)
	})
	return created
}

// testTier inserts a tier with a unique name and removes it when the test
// ends.
func testTier(t *testing.T, db *sql.DB, prefix string) *models.Tier {
	t.Helper()
	created, err := NewTierStore(db).Create(context.Background(), &models.Tier{
		Name:     prefix + "-" + uuid.NewString()[:8],
		PriceMax: 500000,
	})
	if err != nil {
		t.Fatalf("create tier: %v", err)
	}
	t.Cleanup(func() {
		db.Exec(`DELETE FROM tiers WHERE id = $1`, created.ID)
	})
	return created
}

// testInvoice inserts an active invoice on tmpl with a unique subdomain.
func testInvoice(t *testing.T, db *sql.DB, tmpl *models.Template, content string) *models.Invoice {
	t.Helper()
	inv, err := NewInvoiceStore(db).Create(context.Background(), &models.Invoice{
		CustomerName:    "Alex & Sam",
		TemplateID:      tmpl.ID,
		Subdomain:       "test-" + uuid.NewString()[:8],
		SubdomainMode:   models.ModeBasic,
		AgreedPrice:     150000,
		AccessToken:     "123456",
		TemplateContent: content,
	})
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	return inv
}

// cleanUsers removes test users by username. Call in t.Cleanup().
func cleanUsers(t *testing.T, db *sql.DB, usernames ...string) {
	t.Helper()
	for _, u := range usernames {
		db.Exec("DELETE FROM users WHERE username = $1", u)
	}
}

// cleanMediaByKey removes test media by storage key. Call in t.Cleanup().
func cleanMediaByKey(t *testing.T, db *sql.DB, keys ...string) {
	t.Helper()
	for _, key := range keys {
		db.Exec("DELETE FROM media WHERE key = $1", key)
	}
}
