package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Spok95/esencia/internal/domain/inventory"
)

// Storage keys, one JSON document per collection.
const (
	KeyMaterials = "esencia-insumos-v3"
	KeyPackaging = "esencia-packaging-v3"
	KeyRecipes   = "esencia-recetas-v3"
	KeySales     = "esencia-ventasRealizadas-v3"
	KeyMovements = "esencia-movimientos-v3"
)

const (
	selectCollections = `SELECT key, payload FROM collections`
	upsertCollection  = `
		INSERT INTO collections (key, payload, updated_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET
		  payload = EXCLUDED.payload, updated_at = CURRENT_TIMESTAMP
	`
)

// Collections persists a store snapshot as keyed documents.
type Collections interface {
	Load(ctx context.Context) (inventory.Snapshot, error)
	Save(ctx context.Context, snap inventory.Snapshot) error
}

func encodeSnapshot(snap inventory.Snapshot) (map[string]string, error) {
	parts := map[string]any{
		KeyMaterials: snap.Materials,
		KeyPackaging: snap.Packaging,
		KeyRecipes:   snap.Recipes,
		KeySales:     snap.Sales,
		KeyMovements: snap.Movements,
	}
	out := make(map[string]string, len(parts))
	for key, v := range parts {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		out[key] = string(raw)
	}
	return out, nil
}

// decodeInto fills the collection named by key; unknown keys are ignored.
func decodeInto(snap *inventory.Snapshot, key, payload string) error {
	var dst any
	switch key {
	case KeyMaterials:
		dst = &snap.Materials
	case KeyPackaging:
		dst = &snap.Packaging
	case KeyRecipes:
		dst = &snap.Recipes
	case KeySales:
		dst = &snap.Sales
	case KeyMovements:
		dst = &snap.Movements
	default:
		return nil
	}
	if err := json.Unmarshal([]byte(payload), dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

type PGCollections struct{ pool *pgxpool.Pool }

func NewPGCollections(pool *pgxpool.Pool) *PGCollections { return &PGCollections{pool: pool} }

func (c *PGCollections) Load(ctx context.Context) (inventory.Snapshot, error) {
	var snap inventory.Snapshot
	rows, err := c.pool.Query(ctx, selectCollections)
	if err != nil {
		return snap, fmt.Errorf("query collections: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, payload string
		if err := rows.Scan(&key, &payload); err != nil {
			return snap, fmt.Errorf("scan collection: %w", err)
		}
		if err := decodeInto(&snap, key, payload); err != nil {
			return snap, err
		}
	}
	return snap, rows.Err()
}

// Save writes every collection in one transaction.
func (c *PGCollections) Save(ctx context.Context, snap inventory.Snapshot) error {
	docs, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for key, payload := range docs {
		if _, err := tx.Exec(ctx, upsertCollection, key, payload); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	return tx.Commit(ctx)
}

type SQLiteCollections struct{ db *sql.DB }

func NewSQLiteCollections(db *sql.DB) *SQLiteCollections { return &SQLiteCollections{db: db} }

func (c *SQLiteCollections) Load(ctx context.Context) (inventory.Snapshot, error) {
	var snap inventory.Snapshot
	rows, err := c.db.QueryContext(ctx, selectCollections)
	if err != nil {
		return snap, fmt.Errorf("query collections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var key, payload string
		if err := rows.Scan(&key, &payload); err != nil {
			return snap, fmt.Errorf("scan collection: %w", err)
		}
		if err := decodeInto(&snap, key, payload); err != nil {
			return snap, err
		}
	}
	return snap, rows.Err()
}

func (c *SQLiteCollections) Save(ctx context.Context, snap inventory.Snapshot) error {
	docs, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for key, payload := range docs {
		if _, err := tx.ExecContext(ctx, upsertCollection, key, payload); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	return tx.Commit()
}

// SaveHook persists the snapshot after every commit. Rejections change
// nothing and are skipped.
func SaveHook(c Collections, log *slog.Logger, timeout time.Duration) inventory.HookFunc {
	return func(ev inventory.Event) error {
		if ev.Type == inventory.EventRejected {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		start := time.Now()
		if err := c.Save(ctx, ev.Snapshot); err != nil {
			return fmt.Errorf("persist after %s: %w", ev.Type, err)
		}
		log.Debug("snapshot persisted", "event", ev.Type, "took", time.Since(start))
		return nil
	}
}
