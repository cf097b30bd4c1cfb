package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// DB is the sqlite store for alert thresholds, settings and metrics
type DB struct {
	db *sql.DB
}

// Open opens (and creates if needed) the database at dbPath
func Open(dbPath string) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	// sqlite allows a single writer
	conn.SetMaxOpenConns(1)

	createThresholdsTable := `
	CREATE TABLE IF NOT EXISTS alert_thresholds (
		symbol TEXT PRIMARY KEY,
		high TEXT DEFAULT NULL,
		low TEXT DEFAULT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err = conn.Exec(createThresholdsTable); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create alert_thresholds table: %w", err)
	}

	createSettingsTable := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`
	if _, err = conn.Exec(createSettingsTable); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create settings table: %w", err)
	}

	createMetricsTable := `
	CREATE TABLE IF NOT EXISTS metrics (
		metric_name TEXT NOT NULL,
		label_key TEXT NOT NULL DEFAULT '',
		label_value TEXT NOT NULL DEFAULT '',
		metric_value REAL NOT NULL,
		PRIMARY KEY (metric_name, label_key, label_value)
	);`
	if _, err = conn.Exec(createMetricsTable); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create metrics table: %w", err)
	}

	log.Debugf("Database initialized successfully at %s.", dbPath)
	return &DB{db: conn}, nil
}

// Close closes the underlying connection
func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}
