package auditlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"lotscan/internal/config"
)

// ErrDuplicateRecord indicates an append collided with the per-session
// uniqueness index. The scan recorder normally catches duplicates at the
// ledger before reaching the database; this guards the race window.
var ErrDuplicateRecord = errors.New("duplicate record for session")

// Store manages audit log persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the audit log database and verifies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "auditlog.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the location of the backing database file.
func (s *Store) Path() string {
	return s.path
}

// Append inserts a fully populated record into the audit log. The record is
// stored exactly as supplied; identity and timestamps are stamped by the scan
// recorder before the append.
func (s *Store) Append(ctx context.Context, record *Record) error {
	if record == nil {
		return errors.New("record is nil")
	}
	if err := record.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO scan_records (
            id, vin, session_id, location, captured_at,
            latitude, longitude, image_ref, method, user_id, user_email
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.VIN,
		record.SessionID,
		record.Location,
		record.CapturedAt.UTC().Format(time.RFC3339Nano),
		record.Latitude,
		record.Longitude,
		nullableString(record.ImageRef),
		string(record.Method),
		record.UserID,
		record.UserEmail,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s in %s", ErrDuplicateRecord, record.VIN, record.SessionID)
		}
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

// BySession returns the session's records, most recent first.
func (s *Store) BySession(ctx context.Context, sessionID string) ([]Record, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+recordColumns+` FROM scan_records WHERE session_id = ? ORDER BY captured_at DESC, id DESC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query session records: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// CountBySession returns the number of records persisted for a session.
func (s *Store) CountBySession(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM scan_records WHERE session_id = ?`, sessionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count session records: %w", err)
	}
	return count, nil
}

// QueryAll returns every record in the log, most recent first. Reporting
// collaborators consume this; the capture core only appends.
func (s *Store) QueryAll(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+recordColumns+` FROM scan_records ORDER BY captured_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// RecentSessions summarizes the most recently active sessions in the log.
func (s *Store) RecentSessions(ctx context.Context, limit int) ([]SessionSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT session_id, location, COUNT(1), MIN(captured_at), MAX(captured_at)
         FROM scan_records GROUP BY session_id, location
         ORDER BY MAX(captured_at) DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var summaries []SessionSummary
	for rows.Next() {
		var (
			summary  SessionSummary
			firstRaw string
			lastRaw  string
		)
		if err := rows.Scan(&summary.SessionID, &summary.Location, &summary.Records, &firstRaw, &lastRaw); err != nil {
			return nil, err
		}
		if t, err := parseTimeString(firstRaw); err == nil {
			summary.StartedAt = t
		}
		if t, err := parseTimeString(lastRaw); err == nil {
			summary.LastScan = t
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

const recordColumns = "id, vin, session_id, location, captured_at, latitude, longitude, image_ref, method, user_id, user_email"

func collectRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (Record, error) {
	var (
		record      Record
		capturedRaw string
		imageRef    sql.NullString
		methodStr   string
	)
	if err := scanner.Scan(
		&record.ID,
		&record.VIN,
		&record.SessionID,
		&record.Location,
		&capturedRaw,
		&record.Latitude,
		&record.Longitude,
		&imageRef,
		&methodStr,
		&record.UserID,
		&record.UserEmail,
	); err != nil {
		return Record{}, err
	}
	record.ImageRef = imageRef.String
	record.Method = Method(methodStr)
	if captured, err := parseTimeString(capturedRaw); err == nil {
		record.CapturedAt = captured
	}
	return record, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
