package database

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver
)

// New creates a new database connection pool.
func New(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dataSourceName+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate runs the SQL statements to set up the database schema.
//
// The UNIQUE constraint on alerts.external_id is load-bearing: the ingestion
// pipeline's exists-then-insert is not atomic, and two overlapping cycles can
// both decide to insert the same event. The schema, not the application,
// guarantees one row per upstream event.
func Migrate(db *sql.DB) error {
	const sqlStmt = `
	CREATE TABLE IF NOT EXISTS alerts (
		id TEXT NOT NULL PRIMARY KEY,
		external_id TEXT NOT NULL UNIQUE,
		magnitude REAL NOT NULL,
		location TEXT NOT NULL,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		depth_km REAL NOT NULL,
		occurred_at DATETIME NOT NULL,
		significance INTEGER NOT NULL DEFAULT 0,
		alert_level TEXT,
		felt_reports INTEGER NOT NULL DEFAULT 0,
		tsunami_warning INTEGER NOT NULL DEFAULT 0,
		source_url TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_alerts_occurred_at ON alerts (occurred_at DESC);

	CREATE TABLE IF NOT EXISTS user_preferences (
		id TEXT NOT NULL PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE,
		location_name TEXT,
		location_lat REAL,
		location_lng REAL,
		min_magnitude REAL NOT NULL DEFAULT 4.0,
		alert_radius_km INTEGER NOT NULL DEFAULT 500,
		push_enabled INTEGER NOT NULL DEFAULT 1,
		email_enabled INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS safety_guides (
		id TEXT NOT NULL PRIMARY KEY,
		title TEXT NOT NULL,
		category TEXT NOT NULL, -- immediate, response, preparation
		content TEXT NOT NULL,
		icon TEXT,
		priority INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS activities (
		id TEXT NOT NULL PRIMARY KEY,
		type TEXT NOT NULL,
		level TEXT NOT NULL,
		message TEXT NOT NULL,
		user_id TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := db.Exec(sqlStmt); err != nil {
		return err
	}
	return seedSafetyGuides(db)
}

// seedSafetyGuides inserts the static safety reference content if the table
// is empty. Content mirrors the dashboard's safety page.
func seedSafetyGuides(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM safety_guides").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	guides := []struct {
		title, category, content, icon string
		priority                       int
	}{
		{"Drop, Cover, and Hold On", "immediate",
			"Drop to your hands and knees, cover your head and neck under a sturdy table or desk, and hold on until the shaking stops. Stay away from windows and anything that could fall.",
			"shield-alert", 1},
		{"After the Shaking Stops", "response",
			"Check yourself and others for injuries. Expect aftershocks. If you are in a damaged building, go outside and move away from the structure. Do not use elevators.",
			"radio", 2},
		{"Tsunami Awareness", "response",
			"If you are near the coast and feel a strong or long earthquake, move inland or to higher ground immediately. Do not wait for an official warning.",
			"waves", 3},
		{"Build an Emergency Kit", "preparation",
			"Store water (one gallon per person per day for three days), non-perishable food, a flashlight, batteries, a first aid kit, medications, and copies of important documents.",
			"package", 4},
		{"Make a Family Plan", "preparation",
			"Agree on a meeting point and an out-of-area contact. Know how to shut off gas, water, and electricity. Practice your plan twice a year.",
			"map", 5},
	}

	stmt, err := db.Prepare("INSERT INTO safety_guides (id, title, category, content, icon, priority) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, g := range guides {
		// Stable IDs keep re-running the migration a no-op.
		id := fmt.Sprintf("guide-%d", i+1)
		if _, err := stmt.Exec(id, g.title, g.category, g.content, g.icon, g.priority); err != nil {
			return err
		}
	}
	return nil
}
