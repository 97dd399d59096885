package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/bilsan-jewelry/bilsan-commerce-service/internal/models"
)

// PostgresSnapshotStore keeps one durable row per karat tier. The serving
// path never reads it; it exists so prices survive a restart window and can
// be inspected out of band.
type PostgresSnapshotStore struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresSnapshotStore(db *sql.DB, logger *zap.Logger) *PostgresSnapshotStore {
	return &PostgresSnapshotStore{db: db, logger: logger}
}

// UpsertGroup writes the given snapshots, one upsert per tier.
func (s *PostgresSnapshotStore) UpsertGroup(ctx context.Context, snapshots []models.PriceSnapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot upsert: %w", err)
	}
	defer tx.Rollback()

	for _, snap := range snapshots {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO gold_price_snapshots (karat, price_per_gram, currency, source, observed_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
			ON CONFLICT (karat) DO UPDATE SET
				price_per_gram = EXCLUDED.price_per_gram,
				currency = EXCLUDED.currency,
				source = EXCLUDED.source,
				observed_at = EXCLUDED.observed_at,
				updated_at = NOW()
		`, snap.Karat, snap.PricePerGram, snap.Currency, snap.Source, snap.ObservedAt)
		if err != nil {
			return fmt.Errorf("upsert snapshot %s: %w", snap.Karat, err)
		}
	}
	return tx.Commit()
}

// ListStored returns the durable rows, ascending by purity.
func (s *PostgresSnapshotStore) ListStored(ctx context.Context) ([]models.PriceSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT karat, price_per_gram, currency, source, observed_at
		FROM gold_price_snapshots
		ORDER BY karat
	`)
	if err != nil {
		return nil, fmt.Errorf("list stored snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := make([]models.PriceSnapshot, 0, len(models.Karats))
	for rows.Next() {
		var snap models.PriceSnapshot
		if err := rows.Scan(&snap.Karat, &snap.PricePerGram, &snap.Currency,
			&snap.Source, &snap.ObservedAt); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}
