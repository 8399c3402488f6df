package perturbation

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/viperlab/viper/engine"
)

const perturbationsSchema = `
CREATE TABLE IF NOT EXISTS perturbations (
    run_id     TEXT NOT NULL,
    seq        INTEGER NOT NULL,
    original   TEXT NOT NULL,
    substitute TEXT NOT NULL,
    PRIMARY KEY(run_id, seq)
);
`

// SQLiteSink appends records to a perturbations table, tagged with the run's
// ID so several runs can share one database.
type SQLiteSink struct {
	DB    *sql.DB
	RunID string
}

// Write implements Sink. All records of a flush commit together.
func (s *SQLiteSink) Write(ctx context.Context, records []Record) error {
	if _, err := s.DB.ExecContext(ctx, perturbationsSchema); err != nil {
		return fmt.Errorf("perturbation: ensure schema: %w", err)
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO perturbations(run_id, seq, original, substitute) VALUES(?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, r := range records {
		if _, err := stmt.ExecContext(ctx, s.RunID, i, r.Original, r.Substitute); err != nil {
			return fmt.Errorf("perturbation: insert record %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// RunRecords reads back the records of one run in append order.
func RunRecords(ctx context.Context, db *sql.DB, runID string) ([]Record, error) {
	rows, err := db.QueryContext(ctx, `SELECT original, substitute FROM perturbations WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Original, &r.Substitute); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// lazySQLiteSink opens its database only when a flush actually happens, so a
// run without substitutions never creates the file.
type lazySQLiteSink struct {
	path  string
	runID string
}

func (l *lazySQLiteSink) Write(ctx context.Context, records []Record) error {
	db, err := engine.Open(l.path)
	if err != nil {
		return fmt.Errorf("perturbation: open %s: %w", l.path, err)
	}
	defer db.Close()
	return (&SQLiteSink{DB: db, RunID: l.runID}).Write(ctx, records)
}

// NewSink picks the destination format from path: files ending in .sqlite,
// .sqlite3 or .db get a SQLite table, anything else a TSV file. An empty
// runID is replaced by a fresh UUID. It returns the run ID in use.
func NewSink(path, runID string) (Sink, string) {
	if runID == "" {
		runID = uuid.NewString()
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sqlite", ".sqlite3", ".db":
		return &lazySQLiteSink{path: path, runID: runID}, runID
	}
	return &TSVSink{Path: path}, runID
}
