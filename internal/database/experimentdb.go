package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/scratchindex/internal/model"
)

// DBFileName is the SQLite file created inside the database directory.
const DBFileName = "scratchindex.db"

// ExperimentDB provides SQLite-based storage for experiments and images.
type ExperimentDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures ExperimentDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates an ExperimentDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*ExperimentDB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	mode := "rw"
	if opts.CreateIfNotExists {
		mode = "rwc"
	}
	dsn := dbPath + "?mode=" + mode + "&_pragma=foreign_keys(1)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite has a single writer; one connection also keeps transactions
	// from waiting on each other's locks.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	edb := &ExperimentDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := edb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return edb, nil
}

// Close closes the database connection.
func (edb *ExperimentDB) Close() error {
	return edb.db.Close()
}

// Path returns the database file path.
func (edb *ExperimentDB) Path() string {
	return edb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (edb *ExperimentDB) createTables() error {
	schema := `
	-- Experiments own a region and the JSON result set of their images
	CREATE TABLE IF NOT EXISTS experiments (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		region TEXT,
		result_set TEXT NOT NULL DEFAULT '[]',
		version INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Images keep their encoded bytes; identical bytes are stored once per experiment
	CREATE TABLE IF NOT EXISTS images (
		id TEXT PRIMARY KEY,
		experiment_id TEXT NOT NULL REFERENCES experiments(id) ON DELETE CASCADE,
		passes INTEGER NOT NULL,
		filename TEXT,
		format TEXT,
		size INTEGER NOT NULL,
		fingerprint TEXT NOT NULL,
		camera_make TEXT,
		camera_model TEXT,
		captured_at TEXT,
		data BLOB NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(experiment_id, fingerprint)
	);

	CREATE INDEX IF NOT EXISTS idx_images_experiment ON images(experiment_id);
	`

	_, err := edb.db.ExecContext(context.Background(), schema)
	return err
}

// Experiment is a stored experiment without its result set.
type Experiment struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Region     *model.Region `json:"region,omitempty"`
	Version    int64         `json:"version"`
	ImageCount int           `json:"image_count"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// CreateExperiment stores a new experiment with an optional region.
func (edb *ExperimentDB) CreateExperiment(ctx context.Context, name string, region *model.Region) (*Experiment, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	regionJSON, err := encodeRegion(region)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	query := `INSERT INTO experiments (id, name, region) VALUES (?, ?, ?)`
	if _, err := edb.db.ExecContext(ctx, query, id, name, regionJSON); err != nil {
		return nil, fmt.Errorf("failed to create experiment: %w", err)
	}

	return edb.GetExperiment(ctx, id)
}

// GetExperiment returns the experiment or model.ErrExperimentNotFound.
func (edb *ExperimentDB) GetExperiment(ctx context.Context, id string) (*Experiment, error) {
	query := experimentSelect + ` WHERE e.id = ? GROUP BY e.id`
	exp, err := scanExperiment(edb.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", model.ErrExperimentNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get experiment: %w", err)
	}
	return exp, nil
}

// ListExperiments returns all experiments, newest first.
func (edb *ExperimentDB) ListExperiments(ctx context.Context) ([]Experiment, error) {
	query := experimentSelect + ` GROUP BY e.id ORDER BY e.created_at DESC, e.rowid DESC`
	rows, err := edb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiments: %w", err)
	}
	defer rows.Close()

	var results []Experiment
	for rows.Next() {
		exp, err := scanExperiment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan experiment: %w", err)
		}
		results = append(results, *exp)
	}
	return results, rows.Err()
}

// DeleteExperiment removes an experiment and all its images.
func (edb *ExperimentDB) DeleteExperiment(ctx context.Context, id string) error {
	res, err := edb.db.ExecContext(ctx, `DELETE FROM experiments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete experiment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck // sqlite always reports affected rows
		return fmt.Errorf("%w: %s", model.ErrExperimentNotFound, id)
	}
	return nil
}

const experimentSelect = `
	SELECT e.id, e.name, e.region, e.version, e.created_at, e.updated_at, COUNT(i.id)
	FROM experiments e LEFT JOIN images i ON i.experiment_id = e.id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExperiment(row rowScanner) (*Experiment, error) {
	var (
		exp                  Experiment
		region               sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&exp.ID, &exp.Name, &region, &exp.Version, &createdAt, &updatedAt, &exp.ImageCount); err != nil {
		return nil, err
	}
	r, err := decodeRegion(region)
	if err != nil {
		return nil, err
	}
	exp.Region = r
	exp.CreatedAt = parseTimestamp(createdAt)
	exp.UpdatedAt = parseTimestamp(updatedAt)
	return &exp, nil
}

// GetRegion returns the experiment's region, nil when unset.
func (edb *ExperimentDB) GetRegion(ctx context.Context, experimentID string) (*model.Region, error) {
	var region sql.NullString
	err := edb.db.QueryRowContext(ctx, `SELECT region FROM experiments WHERE id = ?`, experimentID).Scan(&region)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", model.ErrExperimentNotFound, experimentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get region: %w", err)
	}
	return decodeRegion(region)
}

// SetRegion stores the experiment's region; nil clears it.
func (edb *ExperimentDB) SetRegion(ctx context.Context, experimentID string, region *model.Region) error {
	regionJSON, err := encodeRegion(region)
	if err != nil {
		return err
	}
	res, err := edb.db.ExecContext(ctx,
		`UPDATE experiments SET region = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		regionJSON, experimentID)
	if err != nil {
		return fmt.Errorf("failed to set region: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck // sqlite always reports affected rows
		return fmt.Errorf("%w: %s", model.ErrExperimentNotFound, experimentID)
	}
	return nil
}

func encodeRegion(region *model.Region) (sql.NullString, error) {
	if region == nil {
		return sql.NullString{}, nil
	}
	if err := region.Validate(); err != nil {
		return sql.NullString{}, err
	}
	b, err := json.Marshal(region)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to serialize region: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func decodeRegion(s sql.NullString) (*model.Region, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var r model.Region
	if err := json.Unmarshal([]byte(s.String), &r); err != nil {
		return nil, fmt.Errorf("failed to parse stored region: %w", err)
	}
	return &r, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
