// cache_log.go keeps an audit trail of page cache invalidations: which
// record changed, what the change was, and how many cached pages it cost.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Entity types recorded in the log. EntityCache marks a manual purge and
// carries the operator's user id.
const (
	EntityTemplate = "template"
	EntityInvoice  = "invoice"
	EntityCache    = "cache"
)

// CacheEvent is one invalidation to record.
type CacheEvent struct {
	EntityType  string
	EntityID    uuid.UUID
	Action      string
	KeysRemoved int
}

// CacheLogEntry is a stored invalidation event.
type CacheLogEntry struct {
	ID            int64     `json:"id"`
	EntityType    string    `json:"entity_type"`
	EntityID      uuid.UUID `json:"entity_id"`
	Action        string    `json:"action"`
	KeysRemoved   int       `json:"keys_removed"`
	InvalidatedAt time.Time `json:"invalidated_at"`
}

// CacheLogStore writes and reads the invalidation log.
type CacheLogStore struct {
	db *sql.DB
}

// NewCacheLogStore creates a new CacheLogStore.
func NewCacheLogStore(db *sql.DB) *CacheLogStore {
	return &CacheLogStore{db: db}
}

// Record appends ev to the log. A failed write is logged and otherwise
// ignored; the invalidation itself has already happened.
func (s *CacheLogStore) Record(ctx context.Context, ev CacheEvent) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cache_invalidation_log (entity_type, entity_id, action, keys_removed)
		VALUES ($1, $2, $3, $4)`,
		ev.EntityType, ev.EntityID, ev.Action, ev.KeysRemoved)
	if err != nil {
		slog.Warn("cache log write failed",
			"entity_type", ev.EntityType, "entity_id", ev.EntityID, "action", ev.Action, "error", err)
	}
}

// Recent returns up to limit events, newest first. A non-empty
// entityType keeps only events for that kind of record.
func (s *CacheLogStore) Recent(ctx context.Context, entityType string, limit int) ([]CacheLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entity_type, entity_id, action, keys_removed, invalidated_at
		FROM cache_invalidation_log
		WHERE $1::text = '' OR entity_type = $1::text
		ORDER BY invalidated_at DESC, id DESC
		LIMIT $2`, entityType, limit)
	if err != nil {
		return nil, fmt.Errorf("read cache log: %w", err)
	}
	defer rows.Close()

	var out []CacheLogEntry
	for rows.Next() {
		var e CacheLogEntry
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityID, &e.Action, &e.KeysRemoved, &e.InvalidatedAt); err != nil {
			return nil, fmt.Errorf("scan cache log: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Prune deletes events recorded before cutoff and reports how many went.
func (s *CacheLogStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cache_invalidation_log WHERE invalidated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune cache log: %w", err)
	}
	return res.RowsAffected()
}
