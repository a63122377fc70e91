// FilePath: internal/repository/postgres/postgres.readings.go

// Package postgres implements the reading store over PostgreSQL. The
// table mirrors the spreadsheet row layout column for column, so the
// two backends stay interchangeable.
package postgres

import (
	"context"
	"time"

	"github.com/floodwatch/hub/internal/database"
	"github.com/floodwatch/hub/internal/errors"
	"github.com/floodwatch/hub/internal/models"
	"github.com/floodwatch/hub/internal/repository"
)

const createReadingsTable = `
CREATE TABLE IF NOT EXISTS flood_readings (
	data_id           TEXT PRIMARY KEY,
	node_id           TEXT NOT NULL,
	piezo_value       DOUBLE PRECISION NOT NULL,
	ultrasonic_value  DOUBLE PRECISION NOT NULL,
	rain_sensor_value DOUBLE PRECISION NOT NULL,
	location          TEXT NOT NULL DEFAULT 'Unknown',
	timestamp         TEXT NOT NULL
)`

// ReadingRepository stores readings in PostgreSQL.
type ReadingRepository struct {
	db database.DB
}

// NewReadingRepository creates the Postgres reading store and ensures
// the table exists.
func NewReadingRepository(db database.DB) (*ReadingRepository, error) {
	if _, err := db.GetDB().Exec(createReadingsTable); err != nil {
		return nil, errors.NewStorageError("failed to create readings table", err)
	}
	return &ReadingRepository{db: db}, nil
}

// Store appends one reading row. Postgres writes are always durable;
// there is no ephemeral mode here.
func (r *ReadingRepository) Store(ctx context.Context, reading *models.SensorReading) (*models.Stored, error) {
	reading.Normalize(time.Now())

	query := `
		INSERT INTO flood_readings
			(data_id, node_id, piezo_value, ultrasonic_value, rain_sensor_value, location, timestamp)
		VALUES
			(:data_id, :node_id, :piezo_value, :ultrasonic_value, :rain_sensor_value, :location, :timestamp)`
	if _, err := r.db.GetDB().NamedExecContext(ctx, query, reading); err != nil {
		return nil, errors.NewStorageError("failed to store reading", err)
	}

	return &models.Stored{
		DataID:    reading.DataID,
		Timestamp: reading.Timestamp,
		Durable:   true,
	}, nil
}

// Query returns readings newest first. Filtering happens in SQL where
// possible; the textual timestamps are ordered and cut off in memory
// with the shared helpers so both backends behave identically on
// malformed rows.
func (r *ReadingRepository) Query(ctx context.Context, filters models.ReadingFilters) ([]models.SensorReading, error) {
	query := `SELECT data_id, node_id, piezo_value, ultrasonic_value, rain_sensor_value, location, timestamp
		FROM flood_readings`
	args := []interface{}{}
	if filters.NodeID != "" {
		query += ` WHERE node_id = $1`
		args = append(args, filters.NodeID)
	}

	var readings []models.SensorReading
	if err := r.db.GetDB().SelectContext(ctx, &readings, query, args...); err != nil {
		return nil, errors.NewStorageError("failed to query readings", err)
	}

	repository.SortNewestFirst(readings)
	return repository.FilterReadings(readings, models.ReadingFilters{
		Limit:    filters.Limit,
		DaysBack: filters.DaysBack,
	}, time.Now()), nil
}

// Statistics aggregates over the last 30 days of rows.
func (r *ReadingRepository) Statistics(ctx context.Context) (*models.DataStatistics, error) {
	readings, err := r.Query(ctx, models.ReadingFilters{Limit: 1000, DaysBack: 30})
	if err != nil {
		return nil, err
	}
	return repository.BuildStatistics(readings), nil
}

// Ping verifies the database connection.
func (r *ReadingRepository) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return errors.NewStorageError("failed to ping database", err)
	}
	return nil
}
