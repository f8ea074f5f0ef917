// Package history records audit runs in a SQLite database inside the
// project's state directory.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/brightai/refcheck/internal/check"
	"github.com/brightai/refcheck/internal/project"
	"github.com/brightai/refcheck/internal/resources"
	"github.com/brightai/refcheck/internal/sqlutil"
)

// FileName is the database file inside project.StateDir.
const FileName = "history.db"

// CurrentVersion is the schema version stored in the meta table.
const CurrentVersion = 1

// Pipelines recorded in the runs table.
const (
	PipelineLinks     = "links"
	PipelineResources = "resources"
)

// ErrRunNotFound is returned by Get for an unknown run ID.
var ErrRunNotFound = errors.New("run not found in history")

// Run is one recorded audit.
type Run struct {
	ID                      int64  `json:"id"`
	Pipeline                string `json:"pipeline"`
	Stage                   string `json:"stage"`
	GeneratedAt             string `json:"generatedAt"`
	Root                    string `json:"root"`
	FilesScanned            int    `json:"filesScanned"`
	ReferencesScanned       int    `json:"referencesScanned"`
	Broken                  int    `json:"broken"`
	Fixable                 int    `json:"fixable"`
	Duplicates              int    `json:"duplicates"`
	NormalizationCandidates int    `json:"normalizationCandidates"`
	Rows                    []Row  `json:"rows,omitempty"`
}

// Row is a broken reference of a recorded run.
type Row struct {
	File       string `json:"file"`
	Line       int    `json:"line"`
	Kind       string `json:"kind"`
	Reference  string `json:"reference"`
	Reason     string `json:"reason"`
	Suggestion string `json:"suggestion,omitempty"`
}

// FromLinks converts an internal-links audit.
func FromLinks(stage string, r *check.Report) Run {
	run := Run{
		Pipeline:                PipelineLinks,
		Stage:                   stage,
		GeneratedAt:             r.GeneratedAt,
		Root:                    r.Root,
		FilesScanned:            r.FilesScanned,
		ReferencesScanned:       r.ReferencesScanned,
		Broken:                  r.BrokenReferences,
		Fixable:                 r.FixableBrokenReferences,
		NormalizationCandidates: r.NormalizationCandidates,
	}
	for _, b := range r.BrokenRows {
		run.Rows = append(run.Rows, Row{
			File:       b.File,
			Line:       b.Line,
			Kind:       b.PatternType,
			Reference:  b.Reference,
			Reason:     b.Reason,
			Suggestion: b.Suggestion,
		})
	}
	return run
}

// FromResources converts a resource-paths audit.
func FromResources(stage string, r *resources.Report) Run {
	run := Run{
		Pipeline:                PipelineResources,
		Stage:                   stage,
		GeneratedAt:             r.GeneratedAt,
		Root:                    r.Root,
		FilesScanned:            r.FilesScanned,
		ReferencesScanned:       r.ResourcesScanned,
		Broken:                  r.BrokenResources,
		Fixable:                 r.FixableBrokenResources,
		Duplicates:              r.DuplicateResources,
		NormalizationCandidates: r.NormalizationCandidates,
	}
	for _, b := range r.BrokenRows {
		run.Rows = append(run.Rows, Row{
			File:       b.File,
			Line:       b.Line,
			Kind:       string(b.Kind),
			Reference:  b.Reference,
			Reason:     b.Reason,
			Suggestion: b.Suggestion,
		})
	}
	return run
}

// Store is the history database handle.
type Store struct {
	db *sql.DB
}

// Path returns the database location for a project root.
func Path(root string) string {
	return filepath.Join(root, project.StateDir, FileName)
}

// Open opens or creates the history database of a project.
func Open(root string) (*Store, error) {
	dir := filepath.Join(root, project.StateDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", project.StateDir, err)
	}

	db, err := sql.Open("sqlite", Path(root))
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenInMemory opens an in-memory database (for testing).
func OpenInMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// Every connection would get its own empty database.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initialize() error {
	schema := `
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;

		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			pipeline TEXT NOT NULL,
			stage TEXT NOT NULL,
			generated_at TEXT NOT NULL,
			root TEXT NOT NULL,
			files_scanned INTEGER NOT NULL,
			references_scanned INTEGER NOT NULL,
			broken INTEGER NOT NULL,
			fixable INTEGER NOT NULL,
			duplicates INTEGER NOT NULL DEFAULT 0,
			normalization_candidates INTEGER NOT NULL,
			recorded_at INTEGER NOT NULL -- Unix timestamp
		);

		CREATE TABLE IF NOT EXISTS broken_rows (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			file TEXT NOT NULL,
			line INTEGER NOT NULL,
			kind TEXT NOT NULL,
			reference TEXT NOT NULL,
			reason TEXT NOT NULL,
			suggestion TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_broken_rows_run ON broken_rows(run_id);
		CREATE INDEX IF NOT EXISTS idx_runs_pipeline ON runs(pipeline);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize history schema: %w", err)
	}

	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO meta (key, value) VALUES ('version', ?)",
		fmt.Sprintf("%d", CurrentVersion),
	)
	return err
}

// Record stores run and its rows in one transaction and returns the new ID.
func (s *Store) Record(ctx context.Context, run Run) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (pipeline, stage, generated_at, root, files_scanned, references_scanned,
			broken, fixable, duplicates, normalization_candidates, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Pipeline, run.Stage, run.GeneratedAt, run.Root, run.FilesScanned, run.ReferencesScanned,
		run.Broken, run.Fixable, run.Duplicates, run.NormalizationCandidates, time.Now().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO broken_rows (run_id, file, line, kind, reference, reason, suggestion)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, row := range run.Rows {
		var suggestion sql.NullString
		if row.Suggestion != "" {
			suggestion = sql.NullString{String: row.Suggestion, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, id, row.File, row.Line, row.Kind, row.Reference, row.Reason, suggestion); err != nil {
			return 0, fmt.Errorf("failed to insert broken row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

const runColumns = `id, pipeline, stage, generated_at, root, files_scanned, references_scanned,
	broken, fixable, duplicates, normalization_candidates`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(sc scanner) (Run, error) {
	var r Run
	err := sc.Scan(&r.ID, &r.Pipeline, &r.Stage, &r.GeneratedAt, &r.Root, &r.FilesScanned,
		&r.ReferencesScanned, &r.Broken, &r.Fixable, &r.Duplicates, &r.NormalizationCandidates)
	return r, err
}

// Recent returns the latest runs, newest first, without their rows.
// An empty pipeline matches every pipeline.
func (s *Store) Recent(ctx context.Context, pipeline string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs WHERE (? = '' OR pipeline = ?) ORDER BY id DESC LIMIT ?",
		pipeline, pipeline, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	return sqlutil.ScanRows(rows, func(r *sql.Rows) (Run, error) { return scanRun(r) })
}

// Get returns one run with its broken rows, ordered by file and line.
func (s *Store) Get(ctx context.Context, id int64) (*Run, error) {
	r, err := scanRun(s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT file, line, kind, reference, reason, suggestion
		FROM broken_rows WHERE run_id = ? ORDER BY file, line, rowid`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query broken rows: %w", err)
	}
	r.Rows, err = sqlutil.ScanRows(rows, func(rows *sql.Rows) (Row, error) {
		var row Row
		var suggestion sql.NullString
		err := rows.Scan(&row.File, &row.Line, &row.Kind, &row.Reference, &row.Reason, &suggestion)
		row.Suggestion = suggestion.String
		return row, err
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}
