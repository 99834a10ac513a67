package indexdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"playerxfer.ai/internal/playerdata"
	"playerxfer.ai/internal/transfer"
)

// Fixed-width so started_at sorts lexically.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteIndex keeps a queryable history of transfer runs next to the
// compressed journal.
type SQLiteIndex struct {
	db *sql.DB
}

type RunRow struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	SourceID   string
	TargetID   string
	TargetPath string
	BackupPath string
	Copied     int
	DryRun     bool
	Saved      bool
	Status     string
	Step       string
	Error      string
	Fields     []FieldRow
}

type FieldRow struct {
	Field   string
	Outcome string
	Kind    string
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteIndex{db: db}, nil
}

func (s *SQLiteIndex) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=FULL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			source_id TEXT NOT NULL,
			target_id TEXT NOT NULL,
			target_path TEXT NOT NULL,
			backup_path TEXT NOT NULL,
			copied INTEGER NOT NULL,
			dry_run INTEGER NOT NULL,
			saved INTEGER NOT NULL,
			status TEXT NOT NULL,
			step TEXT NOT NULL,
			error TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS runs_target ON runs(target_id, started_at);`,
		`CREATE TABLE IF NOT EXISTS run_fields (
			run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			field TEXT NOT NULL,
			outcome TEXT NOT NULL,
			kind TEXT NOT NULL,
			PRIMARY KEY (run_id, seq)
		);`,
		`INSERT OR IGNORE INTO meta(key, value) VALUES ('schema_version', '1');`,
	}
	for _, st := range stmts {
		if _, err := db.Exec(st); err != nil {
			return err
		}
	}
	return nil
}

// RecordRun implements transfer.Recorder. A run and its field rows are
// written in one transaction.
func (s *SQLiteIndex) RecordRun(rep transfer.Report, runErr error) (err error) {
	status, errText := "ok", ""
	if runErr != nil {
		status, errText = "failed", runErr.Error()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.Exec(`INSERT OR REPLACE INTO runs
		(run_id, started_at, finished_at, source_id, target_id, target_path, backup_path, copied, dry_run, saved, status, step, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rep.RunID,
		rep.StartedAt.UTC().Format(tsLayout),
		rep.FinishedAt.UTC().Format(tsLayout),
		rep.SourceID,
		rep.TargetID,
		rep.TargetPath,
		rep.BackupPath,
		rep.Result.Copied,
		boolInt(rep.DryRun),
		boolInt(rep.Saved),
		status,
		transfer.Step(runErr),
		errText,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	if _, err = tx.Exec(`DELETE FROM run_fields WHERE run_id=?`, rep.RunID); err != nil {
		return err
	}
	for i, f := range rep.Result.Fields {
		if _, err = tx.Exec(`INSERT INTO run_fields(run_id, seq, field, outcome, kind) VALUES (?, ?, ?, ?, ?)`,
			rep.RunID, i, f.Field, f.Outcome.String(), f.Kind); err != nil {
			return fmt.Errorf("insert field %s: %w", f.Field, err)
		}
	}
	return tx.Commit()
}

// ListRuns returns the most recent runs first, optionally for one target.
func (s *SQLiteIndex) ListRuns(targetID string, limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT run_id, started_at, finished_at, source_id, target_id, target_path, backup_path,
		copied, dry_run, saved, status, step, error FROM runs`
	args := []any{}
	if strings.TrimSpace(targetID) != "" {
		q += ` WHERE target_id=?`
		args = append(args, targetID)
	}
	q += ` ORDER BY started_at DESC, run_id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var (
			r                 RunRow
			started, finished string
			dryRun, saved     int
		)
		if err := rows.Scan(&r.RunID, &started, &finished, &r.SourceID, &r.TargetID, &r.TargetPath, &r.BackupPath,
			&r.Copied, &dryRun, &saved, &r.Status, &r.Step, &r.Error); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(tsLayout, started)
		r.FinishedAt, _ = time.Parse(tsLayout, finished)
		r.DryRun, r.Saved = dryRun != 0, saved != 0
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		fields, err := s.runFields(out[i].RunID)
		if err != nil {
			return nil, err
		}
		out[i].Fields = fields
	}
	return out, nil
}

func (s *SQLiteIndex) runFields(runID string) ([]FieldRow, error) {
	rows, err := s.db.Query(`SELECT field, outcome, kind FROM run_fields WHERE run_id=? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []FieldRow
	for rows.Next() {
		var f FieldRow
		if err := rows.Scan(&f.Field, &f.Outcome, &f.Kind); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// CopiedFields lists the field names a run copied.
func (r RunRow) CopiedFields() []string {
	var out []string
	for _, f := range r.Fields {
		if f.Outcome == playerdata.Copied.String() {
			out = append(out, f.Field)
		}
	}
	return out
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
