// Package store is the append-only interface to the durable history
// database. The real-time pipeline only ever writes here; the range queries
// exist for external API layers and are never read back by the core.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fleetsync/internal/config"
	"fleetsync/internal/domain"
)

type HistoryStore struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, cfg *config.Config) (*HistoryStore, error) {
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?pool_max_conns=%d",
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DBMaxConns,
	)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create db pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return &HistoryStore{pool: pool}, nil
}

func (s *HistoryStore) Close() {
	s.pool.Close()
}

func (s *HistoryStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

var telemetryColumns = []string{
	"truck_id",
	"latitude",
	"longitude",
	"speed",
	"engine_temp",
	"fuel_level",
	"timestamp",
}

// BatchInsert appends a batch of accepted records via COPY.
func (s *HistoryStore) BatchInsert(ctx context.Context, recs []domain.TelemetryRecord) error {
	if len(recs) == 0 {
		return nil
	}

	rows := make([][]interface{}, len(recs))
	for i, r := range recs {
		rows[i] = []interface{}{
			r.TruckID,
			r.Latitude,
			r.Longitude,
			r.Speed,
			r.EngineTemp,
			r.FuelLevel,
			r.Timestamp,
		}
	}

	_, err := s.pool.CopyFrom(
		ctx,
		pgx.Identifier{"truck_telemetry"},
		telemetryColumns,
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("CopyFrom failed for batch of %d: %w", len(recs), err)
	}

	return nil
}

// TelemetryRow is one persisted reading, as returned by the range queries.
type TelemetryRow struct {
	ID        int64                  `json:"id"`
	Record    domain.TelemetryRecord `json:"record"`
	CreatedAt time.Time              `json:"createdAt"`
}

const selectTelemetry = `
	SELECT id, truck_id, latitude, longitude, speed, engine_temp, fuel_level, timestamp, created_at
	FROM truck_telemetry
`

// RecentTelemetry returns the newest rows across the whole fleet.
func (s *HistoryStore) RecentTelemetry(ctx context.Context, limit int) ([]TelemetryRow, error) {
	rows, err := s.pool.Query(ctx,
		selectTelemetry+` ORDER BY timestamp DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent telemetry query failed: %w", err)
	}
	return scanTelemetryRows(rows)
}

// TelemetryBetween returns rows with producer timestamps in [from, to],
// newest first. Bounds are unix milliseconds.
func (s *HistoryStore) TelemetryBetween(ctx context.Context, from, to int64, limit int) ([]TelemetryRow, error) {
	rows, err := s.pool.Query(ctx,
		selectTelemetry+` WHERE timestamp BETWEEN $1 AND $2 ORDER BY timestamp DESC LIMIT $3`,
		from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("telemetry range query failed: %w", err)
	}
	return scanTelemetryRows(rows)
}

// TruckHistory returns the newest rows for a single truck.
func (s *HistoryStore) TruckHistory(ctx context.Context, truckID string, limit int) ([]TelemetryRow, error) {
	rows, err := s.pool.Query(ctx,
		selectTelemetry+` WHERE truck_id = $1 ORDER BY timestamp DESC LIMIT $2`,
		truckID, limit)
	if err != nil {
		return nil, fmt.Errorf("truck history query failed: %w", err)
	}
	return scanTelemetryRows(rows)
}

func (s *HistoryStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM truck_telemetry`).Scan(&n); err != nil {
		return 0, fmt.Errorf("telemetry count failed: %w", err)
	}
	return n, nil
}

func scanTelemetryRows(rows pgx.Rows) ([]TelemetryRow, error) {
	defer rows.Close()

	var out []TelemetryRow
	for rows.Next() {
		var row TelemetryRow
		err := rows.Scan(
			&row.ID,
			&row.Record.TruckID,
			&row.Record.Latitude,
			&row.Record.Longitude,
			&row.Record.Speed,
			&row.Record.EngineTemp,
			&row.Record.FuelLevel,
			&row.Record.Timestamp,
			&row.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("telemetry row scan failed: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("telemetry rows failed: %w", err)
	}
	return out, nil
}
