// Package sqlite provides SQLite-backed persistence for the reading history
// window, the alert table, and persisted model envelopes.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/coastal-threat-engine/internal/domain"
)

// Store wraps a SQLite database for all persistence operations.
type Store struct {
	db *sql.DB
}

// New opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/coastal-threat-engine/data.db.
func New(dbPath string) (*Store, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "coastal-threat-engine", "data.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS readings (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			location         TEXT NOT NULL,
			ts               INTEGER NOT NULL,
			source           TEXT,
			temperature      REAL,
			humidity         REAL,
			wind_speed       REAL,
			wind_direction   REAL,
			pressure         REAL,
			tide_height      REAL,
			wave_height      REAL,
			ph               REAL,
			dissolved_oxygen REAL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_readings_location_ts_source
			ON readings(location, ts, IFNULL(source, ''))`,
		`CREATE TABLE IF NOT EXISTS alerts (
			id           TEXT PRIMARY KEY,
			kind         TEXT NOT NULL,
			severity     TEXT NOT NULL,
			location     TEXT NOT NULL,
			description  TEXT NOT NULL,
			is_active    INTEGER NOT NULL,
			triggered_by TEXT NOT NULL,
			first_seen   INTEGER NOT NULL,
			last_updated INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_active ON alerts(is_active)`,
		`CREATE TABLE IF NOT EXISTS model_blobs (
			key        TEXT PRIMARY KEY,
			data       BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertReading appends one parsed reading to the history. Re-inserting a
// reading already present under (location, ts, source) is a no-op so batch
// redelivery cannot duplicate history rows.
func (s *Store) InsertReading(ctx context.Context, r domain.Reading) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO readings
			(location, ts, source, temperature, humidity, wind_speed, wind_direction,
			 pressure, tide_height, wave_height, ph, dissolved_oxygen)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		r.Location, r.Timestamp.UnixNano(), r.Source,
		r.Temperature, r.Humidity, r.WindSpeed, r.WindDirection,
		r.Pressure, r.TideHeight, r.WaveHeight, r.PH, r.DissolvedOxygen,
	)
	if err != nil {
		return fmt.Errorf("failed to insert reading: %w", err)
	}
	return nil
}

// Window returns the location's readings at or after since, oldest first.
func (s *Store) Window(ctx context.Context, location string, since time.Time) ([]domain.Reading, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT location, ts, source, temperature, humidity, wind_speed, wind_direction,
		       pressure, tide_height, wave_height, ph, dissolved_oxygen
		FROM readings WHERE location = ? AND ts >= ? ORDER BY ts ASC`,
		location, since.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer rows.Close()

	var readings []domain.Reading
	for rows.Next() {
		var r domain.Reading
		var tsNano int64
		var source sql.NullString
		err := rows.Scan(
			&r.Location, &tsNano, &source,
			&r.Temperature, &r.Humidity, &r.WindSpeed, &r.WindDirection,
			&r.Pressure, &r.TideHeight, &r.WaveHeight, &r.PH, &r.DissolvedOxygen,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		r.Timestamp = time.Unix(0, tsNano).UTC()
		r.Source = source.String
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

// PruneReadings drops history rows older than before, across all locations.
func (s *Store) PruneReadings(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM readings WHERE ts < ?`, before.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to prune readings: %w", err)
	}
	return res.RowsAffected()
}

// UpsertAlert writes the alert row, replacing any previous state for the id.
func (s *Store) UpsertAlert(ctx context.Context, a domain.Alert) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO alerts
			(id, kind, severity, location, description, is_active, triggered_by, first_seen, last_updated)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		a.ID, string(a.Kind), a.Severity.String(), a.Location, a.Description,
		boolToInt(a.IsActive), a.TriggeredBy, a.FirstSeen.UnixNano(), a.LastUpdated.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert alert: %w", err)
	}
	return nil
}

// ActiveAlerts returns all alerts still marked active, oldest first.
func (s *Store) ActiveAlerts(ctx context.Context) ([]domain.Alert, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, severity, location, description, is_active, triggered_by, first_seen, last_updated
		FROM alerts WHERE is_active = 1 ORDER BY first_seen ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []domain.Alert
	for rows.Next() {
		a, err := scanAlert(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// SaveBlob stores an opaque model envelope under key, replacing any previous
// version atomically.
func (s *Store) SaveBlob(ctx context.Context, key string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO model_blobs (key, data, updated_at) VALUES (?,?,?)`,
		key, data, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save blob %q: %w", key, err)
	}
	return nil
}

// LoadBlob returns the envelope stored under key.
func (s *Store) LoadBlob(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM model_blobs WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("blob not found: %s", key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load blob %q: %w", key, err)
	}
	return data, nil
}

// BlobExists reports whether a blob is stored under key.
func (s *Store) BlobExists(ctx context.Context, key string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM model_blobs WHERE key = ?`, key).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check blob %q: %w", key, err)
	}
	return n > 0, nil
}

func scanAlert(scan func(...any) error) (domain.Alert, error) {
	var a domain.Alert
	var severity string
	var active int
	var firstSeenNano, lastUpdatedNano int64
	err := scan(
		&a.ID, (*string)(&a.Kind), &severity, &a.Location, &a.Description,
		&active, &a.TriggeredBy, &firstSeenNano, &lastUpdatedNano,
	)
	if err != nil {
		return domain.Alert{}, err
	}
	sev, err := domain.ParseSeverity(severity)
	if err != nil {
		return domain.Alert{}, err
	}
	a.Severity = sev
	a.IsActive = active != 0
	a.FirstSeen = time.Unix(0, firstSeenNano).UTC()
	a.LastUpdated = time.Unix(0, lastUpdatedNano).UTC()
	return a, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
