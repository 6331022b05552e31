package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Journal is the SQLite-backed step log. Uses WAL mode for concurrent
// read access during writes.
type Journal struct {
	db *sql.DB
}

// StepRecord is one persisted step of a run.
type StepRecord struct {
	StepIndex int64
	Epoch     int64
	Batch     string // JSON array of tagged inputs
	Outputs   string // JSON array of canonical output events
	ChainHead string // hex chain digest after this step
	StateHash string // hex snapshot digest after this step
}

// Open creates or opens a journal database at the given path. Applies
// pragmas and the schema; idempotent.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect journal: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY on the write path.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

// EnsureRun creates the run row if it does not exist. The recorded epoch
// budget pins the kernel configuration the run must replay under.
func (j *Journal) EnsureRun(ctx context.Context, runID string, epochBudget int64) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, epoch_budget)
		VALUES (?, ?)
		ON CONFLICT(run_id) DO NOTHING
	`, runID, epochBudget)
	if err != nil {
		return fmt.Errorf("ensure run %s: %w", runID, err)
	}
	return nil
}

// RunBudget returns the epoch budget recorded for a run.
func (j *Journal) RunBudget(ctx context.Context, runID string) (int64, error) {
	var budget int64
	err := j.db.QueryRowContext(ctx,
		`SELECT epoch_budget FROM runs WHERE run_id = ?`, runID).Scan(&budget)
	if err != nil {
		return 0, fmt.Errorf("run budget %s: %w", runID, err)
	}
	return budget, nil
}

// AppendStep persists one step. Step indexes must be appended in order;
// a duplicate index is a caller error surfaced by the primary key.
func (j *Journal) AppendStep(ctx context.Context, runID string, rec StepRecord) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO steps (run_id, step_index, epoch, batch, outputs, chain_head, state_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, runID, rec.StepIndex, rec.Epoch, rec.Batch, rec.Outputs, rec.ChainHead, rec.StateHash)
	if err != nil {
		return fmt.Errorf("append step %d of run %s: %w", rec.StepIndex, runID, err)
	}
	return nil
}

// ReadSteps returns every step of a run in step order.
func (j *Journal) ReadSteps(ctx context.Context, runID string) ([]StepRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT step_index, epoch, batch, outputs, chain_head, state_hash
		FROM steps WHERE run_id = ?
		ORDER BY step_index ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("read steps of run %s: %w", runID, err)
	}
	defer rows.Close()

	var recs []StepRecord
	for rows.Next() {
		var rec StepRecord
		if err := rows.Scan(&rec.StepIndex, &rec.Epoch, &rec.Batch, &rec.Outputs, &rec.ChainHead, &rec.StateHash); err != nil {
			return nil, fmt.Errorf("scan step of run %s: %w", runID, err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// LatestStep returns the last persisted step of a run, if any.
func (j *Journal) LatestStep(ctx context.Context, runID string) (StepRecord, bool, error) {
	var rec StepRecord
	err := j.db.QueryRowContext(ctx, `
		SELECT step_index, epoch, batch, outputs, chain_head, state_hash
		FROM steps WHERE run_id = ?
		ORDER BY step_index DESC LIMIT 1
	`, runID).Scan(&rec.StepIndex, &rec.Epoch, &rec.Batch, &rec.Outputs, &rec.ChainHead, &rec.StateHash)
	if err == sql.ErrNoRows {
		return StepRecord{}, false, nil
	}
	if err != nil {
		return StepRecord{}, false, fmt.Errorf("latest step of run %s: %w", runID, err)
	}
	return rec, true, nil
}

// ListRuns returns every run id in sorted order.
func (j *Journal) ListRuns(ctx context.Context) ([]string, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT run_id FROM runs ORDER BY run_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
