package storage

import "fmt"

// migrate creates the timetable schema if it doesn't exist. The statements
// are accepted by both SQLite and PostgreSQL.
func (db *DB) migrate() error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	db.logger.Info("database migrations applied")
	return nil
}

// entityTables lists the tables replaced by every import, children first.
var entityTables = []string{
	"step_paths",
	"leg_steps",
	"direction_legs",
	"trip_stops",
	"trips",
	"directions",
	"shape_points",
	"shape_stops",
	"shapes",
	"calendars",
	"lines",
	"stops",
	"information",
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS information (
		id         INTEGER PRIMARY KEY,
		start_date TEXT NOT NULL,
		end_date   TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS stops (
		id        INTEGER PRIMARY KEY,
		name      TEXT NOT NULL,
		latitude  DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS lines (
		id         INTEGER PRIMARY KEY,
		name       TEXT NOT NULL,
		color_type TEXT NOT NULL,
		color      TEXT NOT NULL
	)`,

	// One character per day, '1' when the calendar operates.
	`CREATE TABLE IF NOT EXISTS calendars (
		id   INTEGER PRIMARY KEY,
		days TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS shapes (
		id         INTEGER PRIMARY KEY,
		identifier TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS shape_stops (
		id       INTEGER PRIMARY KEY,
		shape_id INTEGER NOT NULL,
		stop_id  INTEGER NOT NULL,
		sequence INTEGER NOT NULL
	)`,

	// shape_stop_id is NULL for points interpolated between stops.
	`CREATE TABLE IF NOT EXISTS shape_points (
		id            INTEGER PRIMARY KEY,
		shape_id      INTEGER NOT NULL,
		sequence      INTEGER NOT NULL,
		latitude      DOUBLE PRECISION NOT NULL,
		longitude     DOUBLE PRECISION NOT NULL,
		shape_stop_id INTEGER
	)`,

	`CREATE TABLE IF NOT EXISTS directions (
		id             INTEGER PRIMARY KEY,
		identifier     TEXT NOT NULL,
		origin_id      INTEGER NOT NULL,
		destination_id INTEGER NOT NULL
	)`,

	// Distances in meters, durations in seconds.
	`CREATE TABLE IF NOT EXISTS direction_legs (
		id             INTEGER PRIMARY KEY,
		direction_id   INTEGER NOT NULL,
		sequence       INTEGER NOT NULL,
		origin_id      INTEGER NOT NULL,
		destination_id INTEGER NOT NULL,
		distance       INTEGER NOT NULL,
		duration       INTEGER NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS leg_steps (
		id        INTEGER PRIMARY KEY,
		leg_id    INTEGER NOT NULL,
		sequence  INTEGER NOT NULL,
		distance  INTEGER NOT NULL,
		duration  INTEGER NOT NULL,
		start_lat DOUBLE PRECISION NOT NULL,
		start_lng DOUBLE PRECISION NOT NULL,
		end_lat   DOUBLE PRECISION NOT NULL,
		end_lng   DOUBLE PRECISION NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS step_paths (
		id        INTEGER PRIMARY KEY,
		step_id   INTEGER NOT NULL,
		sequence  INTEGER NOT NULL,
		latitude  DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL
	)`,

	// Times are seconds since service-day midnight and may exceed 86400.
	`CREATE TABLE IF NOT EXISTS trips (
		id             INTEGER PRIMARY KEY,
		journey_number INTEGER NOT NULL,
		option_count   INTEGER NOT NULL,
		transport_mode TEXT NOT NULL,
		origin_id      INTEGER NOT NULL,
		destination_id INTEGER NOT NULL,
		calendar_id    INTEGER NOT NULL,
		line_id        INTEGER NOT NULL,
		direction      TEXT NOT NULL,
		departure_time INTEGER,
		arrival_time   INTEGER,
		shape_id       INTEGER,
		direction_id   INTEGER
	)`,

	`CREATE TABLE IF NOT EXISTS trip_stops (
		id             INTEGER PRIMARY KEY,
		trip_id        INTEGER NOT NULL,
		stop_id        INTEGER NOT NULL,
		sequence       INTEGER NOT NULL,
		arrival_time   INTEGER,
		departure_time INTEGER
	)`,

	`CREATE TABLE IF NOT EXISTS import_metadata (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_stops_position ON stops(latitude, longitude)`,
	`CREATE INDEX IF NOT EXISTS idx_shape_stops_shape ON shape_stops(shape_id, sequence)`,
	`CREATE INDEX IF NOT EXISTS idx_shape_points_shape ON shape_points(shape_id, sequence)`,
	`CREATE INDEX IF NOT EXISTS idx_direction_legs_direction ON direction_legs(direction_id, sequence)`,
	`CREATE INDEX IF NOT EXISTS idx_leg_steps_leg ON leg_steps(leg_id, sequence)`,
	`CREATE INDEX IF NOT EXISTS idx_step_paths_step ON step_paths(step_id, sequence)`,
	`CREATE INDEX IF NOT EXISTS idx_trip_stops_trip ON trip_stops(trip_id, sequence)`,
	`CREATE INDEX IF NOT EXISTS idx_trips_shape ON trips(shape_id)`,
	`CREATE INDEX IF NOT EXISTS idx_trips_direction ON trips(direction_id)`,
}
