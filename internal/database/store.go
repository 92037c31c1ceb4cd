package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/grapholex/grapholex/internal/model"
)

// FileName is the database file created inside the database directory.
const FileName = "grapholex.db"

// Store is the SQLite feature cache and verdict log. It is safe for
// concurrent use; writes are serialized on a single connection.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if they
	// don't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the Store in dbDir.
func Open(dbDir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) createTables() error {
	schema := `
	-- Feature vectors are written at most once per image, calibration and
	-- extractor version.
	CREATE TABLE IF NOT EXISTS features (
		image_id TEXT NOT NULL,
		calibration_id TEXT NOT NULL,
		extractor_version TEXT NOT NULL,
		partial INTEGER NOT NULL DEFAULT 0,
		vector_json TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (image_id, calibration_id, extractor_version)
	);

	-- The latest verdict of each questioned signature in a project.
	CREATE TABLE IF NOT EXISTS verdicts (
		project_id TEXT NOT NULL,
		questioned_id TEXT NOT NULL,
		category TEXT NOT NULL,
		similarity REAL NOT NULL,
		naturalness REAL NOT NULL,
		confidence REAL NOT NULL,
		profile_version TEXT NOT NULL,
		verdict_json TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (project_id, questioned_id)
	);

	-- Complete project results, one row per run.
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id TEXT NOT NULL,
		profile_version TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		result_json TEXT NOT NULL,
		verdict_summary TEXT,
		failure_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_project ON runs(project_id);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp);
	`
	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// GetFeatures returns the most recently stored vector for the image and
// calibration. ok is false when none exists.
func (s *Store) GetFeatures(ctx context.Context, imageID, calibrationID string) (*model.FeatureVector, bool, error) {
	query := `
	SELECT vector_json FROM features
	WHERE image_id = ? AND calibration_id = ?
	ORDER BY rowid DESC
	LIMIT 1
	`

	var vectorJSON string
	err := s.db.QueryRowContext(ctx, query, imageID, calibrationID).Scan(&vectorJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get features: %w", err)
	}

	var fv model.FeatureVector
	if err := json.Unmarshal([]byte(vectorJSON), &fv); err != nil {
		return nil, false, fmt.Errorf("failed to parse features: %w", err)
	}
	return &fv, true, nil
}

// PutFeatures stores fv. An existing vector for the same image,
// calibration and extractor version is kept.
func (s *Store) PutFeatures(ctx context.Context, fv *model.FeatureVector) error {
	vectorJSON, err := json.Marshal(fv)
	if err != nil {
		return fmt.Errorf("failed to serialize features: %w", err)
	}

	query := `
	INSERT OR IGNORE INTO features (image_id, calibration_id, extractor_version, partial, vector_json)
	VALUES (?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		fv.ImageID,
		fv.CalibrationID,
		fv.ExtractorVersion,
		fv.Partial,
		string(vectorJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to store features: %w", err)
	}
	return nil
}

// VerdictRecord is a stored verdict.
type VerdictRecord struct {
	ProjectID string
	Timestamp time.Time
	Verdict   *model.Verdict
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SaveVerdict stores v as the current verdict of its questioned signature,
// replacing any earlier one.
func (s *Store) SaveVerdict(ctx context.Context, projectID string, v *model.Verdict) error {
	return saveVerdict(ctx, s.db, projectID, v)
}

func saveVerdict(ctx context.Context, db execer, projectID string, v *model.Verdict) error {
	verdictJSON, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to serialize verdict: %w", err)
	}

	query := `
	INSERT INTO verdicts (project_id, questioned_id, category, similarity, naturalness, confidence, profile_version, verdict_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(project_id, questioned_id) DO UPDATE SET
		category = excluded.category,
		similarity = excluded.similarity,
		naturalness = excluded.naturalness,
		confidence = excluded.confidence,
		profile_version = excluded.profile_version,
		verdict_json = excluded.verdict_json,
		timestamp = CURRENT_TIMESTAMP
	`
	_, err = db.ExecContext(ctx, query,
		projectID,
		v.QuestionedID,
		v.Category.String(),
		v.AggregateSimilarity,
		v.Naturalness,
		v.Confidence,
		v.ProfileVersion,
		string(verdictJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save verdict: %w", err)
	}
	return nil
}

// Verdicts returns the current verdicts of a project ordered by
// questioned signature ID.
func (s *Store) Verdicts(ctx context.Context, projectID string) ([]VerdictRecord, error) {
	query := `
	SELECT project_id, timestamp, verdict_json
	FROM verdicts
	WHERE project_id = ?
	ORDER BY questioned_id
	`

	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query verdicts: %w", err)
	}
	defer rows.Close()

	var records []VerdictRecord
	for rows.Next() {
		var rec VerdictRecord
		var timestamp, verdictJSON string
		if err := rows.Scan(&rec.ProjectID, &timestamp, &verdictJSON); err != nil {
			return nil, fmt.Errorf("failed to scan verdict: %w", err)
		}
		rec.Timestamp = parseTimestamp(timestamp)

		var v model.Verdict
		if err := json.Unmarshal([]byte(verdictJSON), &v); err != nil {
			return nil, fmt.Errorf("failed to parse verdict: %w", err)
		}
		rec.Verdict = &v
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SaveProjectResult records a complete run and upserts its verdicts in one
// transaction. It returns the run ID.
func (s *Store) SaveProjectResult(ctx context.Context, res *model.ProjectResult) (int64, error) {
	resultJSON, err := json.Marshal(res)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize project result: %w", err)
	}

	summary := make(map[string]int, len(model.VerdictCategories))
	for cat, n := range res.VerdictCounts() {
		summary[cat.String()] = n
	}
	summaryJSON, _ := json.Marshal(summary) //nolint:errcheck,errchkjson // a map of ints always marshals

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
	INSERT INTO runs (project_id, profile_version, result_json, verdict_summary, failure_count)
	VALUES (?, ?, ?, ?, ?)
	`
	result, err := tx.ExecContext(ctx, query,
		res.ProjectID,
		res.ProfileVersion,
		string(resultJSON),
		string(summaryJSON),
		len(res.Failures),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	for _, v := range res.Verdicts {
		if err := saveVerdict(ctx, tx, res.ProjectID, v); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return id, nil
}

// RunMetadata summarizes a stored run without loading its result.
type RunMetadata struct {
	ID             int64
	ProjectID      string
	ProfileVersion string
	Timestamp      time.Time

	// VerdictCounts maps verdict category names to counts.
	VerdictCounts map[string]int

	FailureCount int
}

// History returns the runs of a project, newest first.
func (s *Store) History(ctx context.Context, projectID string) ([]RunMetadata, error) {
	query := `
	SELECT id, project_id, profile_version, timestamp, verdict_summary, failure_count
	FROM runs
	WHERE project_id = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		var meta RunMetadata
		var timestamp string
		var summaryJSON sql.NullString

		if err := rows.Scan(&meta.ID, &meta.ProjectID, &meta.ProfileVersion, &timestamp, &summaryJSON, &meta.FailureCount); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		meta.Timestamp = parseTimestamp(timestamp)

		meta.VerdictCounts = make(map[string]int)
		if summaryJSON.Valid && summaryJSON.String != "" {
			if err := json.Unmarshal([]byte(summaryJSON.String), &meta.VerdictCounts); err != nil {
				meta.VerdictCounts = make(map[string]int)
			}
		}
		results = append(results, meta)
	}
	return results, rows.Err()
}

// GetRun returns the stored result of a run, or nil if there is none.
func (s *Store) GetRun(ctx context.Context, id int64) (*model.ProjectResult, error) {
	var resultJSON string
	err := s.db.QueryRowContext(ctx, `SELECT result_json FROM runs WHERE id = ?`, id).Scan(&resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var res model.ProjectResult
	if err := json.Unmarshal([]byte(resultJSON), &res); err != nil {
		return nil, fmt.Errorf("failed to parse run: %w", err)
	}
	return &res, nil
}

// ListProjects returns the IDs of every project with a stored run.
func (s *Store) ListProjects(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT project_id FROM runs ORDER BY project_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, id)
	}
	return projects, rows.Err()
}

// timestampFormats lists the formats SQLite may return, most specific
// first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999",
}

// parseTimestamp returns the zero time when no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
