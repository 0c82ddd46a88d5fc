package database

import "testing"

func TestSeedRunsOnce(t *testing.T) {
	db := migratedDB(t)

	// Seed only writes into an empty users table, so calling it twice is
	// safe even when other packages share the database.
	for i := 0; i < 2; i++ {
		if err := Seed(t.Context(), db, "admin", "admin"); err != nil {
			t.Fatalf("Seed #%d: %v", i+1, err)
		}
	}

	var users, classic int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&users); err != nil {
		t.Fatalf("count users: %v", err)
	}
	if users < 1 {
		t.Errorf("users = %d, want at least 1", users)
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM templates WHERE name = 'Classic'").Scan(&classic); err != nil {
		t.Fatalf("count templates: %v", err)
	}
	if classic > 1 {
		t.Errorf("starter template seeded %d times", classic)
	}
}

func TestSeedTiers(t *testing.T) {
	db := migratedDB(t)
	ctx := t.Context()

	// Work on an empty tiers table inside a transaction that is never
	// committed.
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, "DELETE FROM tiers"); err != nil {
		t.Fatalf("clear tiers: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := seedTiers(ctx, tx); err != nil {
			t.Fatalf("seedTiers #%d: %v", i+1, err)
		}
	}

	var n int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM tiers").Scan(&n); err != nil {
		t.Fatalf("count tiers: %v", err)
	}
	if n != len(starterTiers) {
		t.Errorf("tiers = %d, want %d", n, len(starterTiers))
	}
}
