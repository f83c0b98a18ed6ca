package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wingbite/trackd/internal/domain/model"
	"github.com/wingbite/trackd/internal/domain/repository"
)

// Pool is the slice of pgxpool.Pool the storage relies on. Kept narrow so
// tests can substitute a mock pool.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Storage persists the flight journal in PostgreSQL.
type Storage struct {
	pool   Pool
	logger *slog.Logger
}

type flightJournal struct {
	storage *Storage
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Journal returns the flight journal repository.
func (s *Storage) Journal() repository.FlightJournal {
	return &flightJournal{storage: s}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS flight_log (
            id SERIAL PRIMARY KEY,
            order_id TEXT NOT NULL,
            drone_id TEXT NOT NULL,
            drone_code TEXT NOT NULL,
            distance_km DOUBLE PRECISION NOT NULL,
            return_duration_ms BIGINT NOT NULL,
            battery_drain INT NOT NULL,
            completed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_flight_log_drone ON flight_log(drone_code, completed_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_flight_log_completed ON flight_log(completed_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

// --- FlightJournal implementation ---

func (r *flightJournal) Record(ctx context.Context, rec repository.FlightRecord) (*repository.FlightRecord, error) {
	const query = `INSERT INTO flight_log (order_id, drone_id, drone_code, distance_km, return_duration_ms, battery_drain, completed_at)
                   VALUES ($1, $2, $3, $4, $5, $6, $7)
                   RETURNING id`
	err := r.storage.pool.QueryRow(ctx, query,
		rec.OrderID, rec.DroneID, rec.DroneCode, rec.DistanceKm,
		rec.ReturnDuration.Milliseconds(), rec.BatteryDrain, rec.CompletedAt,
	).Scan(&rec.ID)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *flightJournal) ListRecent(ctx context.Context, limit int) ([]repository.FlightRecord, error) {
	const query = `SELECT id, order_id, drone_id, drone_code, distance_km, return_duration_ms, battery_drain, completed_at
                   FROM flight_log ORDER BY completed_at DESC LIMIT $1`
	rows, err := r.storage.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []repository.FlightRecord
	for rows.Next() {
		var rec repository.FlightRecord
		var durationMs int64
		if err := rows.Scan(&rec.ID, &rec.OrderID, &rec.DroneID, &rec.DroneCode, &rec.DistanceKm, &durationMs, &rec.BatteryDrain, &rec.CompletedAt); err != nil {
			return nil, err
		}
		rec.ReturnDuration = time.Duration(durationMs) * time.Millisecond
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *flightJournal) DroneTotals(ctx context.Context, droneCode string) (*model.DroneStats, error) {
	const query = `SELECT COUNT(*), COALESCE(SUM(return_duration_ms), 0), COALESCE(SUM(distance_km), 0)
                   FROM flight_log WHERE drone_code=$1`
	var (
		deliveries int
		durationMs int64
		distanceKm float64
	)
	if err := r.storage.pool.QueryRow(ctx, query, droneCode).Scan(&deliveries, &durationMs, &distanceKm); err != nil {
		return nil, err
	}
	return &model.DroneStats{
		Deliveries:    deliveries,
		FlightMinutes: float64(durationMs) / float64(time.Minute/time.Millisecond),
		DistanceKm:    distanceKm,
	}, nil
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// Logger returns storage logger.
func (s *Storage) Logger() *slog.Logger {
	return s.logger
}
