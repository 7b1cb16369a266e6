package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found — using system environment variables")
	}

	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		dbGetEnv("DB_USER", "fleetsync_user"),
		dbGetEnv("DB_PASSWORD", "fleetsync_password"),
		dbGetEnv("DB_HOST", "localhost"),
		dbGetEnv("DB_PORT", "5432"),
		dbGetEnv("DB_NAME", "fleetsync"),
	)

	ctx := context.Background()

	fmt.Println("Connecting to PostgreSQL...")
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		log.Fatalf("Connection failed: %v\n\nMake sure PostgreSQL is running:\n  docker-compose up -d postgres", err)
	}
	defer conn.Close(ctx)
	fmt.Println("✓ Connected")

	step1_telemetry_table(ctx, conn)
	step2_indexes(ctx, conn)
	step3_verify(ctx, conn)

	fmt.Println("\n✅ Database initialised successfully")
}

func step1_telemetry_table(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 1: truck_telemetry table ───────────────")

	execOrFatal(ctx, conn, `
		CREATE TABLE IF NOT EXISTS truck_telemetry (
			id          BIGSERIAL        PRIMARY KEY,

			truck_id    TEXT             NOT NULL,

			latitude    DOUBLE PRECISION NOT NULL,
			longitude   DOUBLE PRECISION NOT NULL,

			speed       DOUBLE PRECISION NOT NULL DEFAULT 0,
			engine_temp DOUBLE PRECISION NOT NULL DEFAULT 0,
			fuel_level  DOUBLE PRECISION NOT NULL DEFAULT 0,

			-- Producer-assigned reading time, unix milliseconds.
			-- Kept separate from created_at: truck clocks drift.
			timestamp   BIGINT           NOT NULL,

			created_at  TIMESTAMPTZ      NOT NULL DEFAULT NOW()
		);
	`, "truck_telemetry table created")
}

func step2_indexes(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 2: Indexes ─────────────────────────────")

	indexes := []struct {
		name string
		sql  string
		why  string
	}{
		{
			name: "idx_telemetry_truck_time",
			sql: `CREATE INDEX IF NOT EXISTS idx_telemetry_truck_time
				  ON truck_telemetry (truck_id, timestamp DESC);`,
			why: "query: history for one truck",
		},
		{
			name: "idx_telemetry_time",
			sql: `CREATE INDEX IF NOT EXISTS idx_telemetry_time
				  ON truck_telemetry (timestamp DESC);`,
			why: "query: fleet-wide time ranges",
		},
	}

	for _, idx := range indexes {
		execOrFatal(ctx, conn, idx.sql,
			fmt.Sprintf("%-35s ← %s", idx.name, idx.why),
		)
	}
}

func step3_verify(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 3: Verification ────────────────────────")

	var exists bool
	err := conn.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_name = 'truck_telemetry'
		)
	`).Scan(&exists)
	if err != nil || !exists {
		log.Fatalf("Table truck_telemetry was not created: %v", err)
	}
	fmt.Println("  ✓ table: truck_telemetry")

	var indexCount int
	err = conn.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM pg_indexes
		WHERE tablename = 'truck_telemetry'
		AND indexname LIKE 'idx_%'
	`).Scan(&indexCount)
	if err != nil {
		log.Fatalf("Index check failed: %v", err)
	}
	fmt.Printf("  ✓ indexes created: %d\n", indexCount)
}

func execOrFatal(ctx context.Context, conn *pgx.Conn, sql, label string) {
	_, err := conn.Exec(ctx, sql)
	if err != nil {
		log.Fatalf("FAILED — %s\nError: %v\nSQL: %s", label, err, sql)
	}
	fmt.Printf("  ✓ %s\n", label)
}

func dbGetEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
