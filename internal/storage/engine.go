package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"scenplan/internal/core"
)

func (r *SQLiteRepository) CreateEngineRun(ctx context.Context, scenarioID int64) (core.EngineRun, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO engine_runs (scenario_id, status, created_at)
		VALUES (?, ?, ?)`,
		scenarioID, core.RunQueued, now)
	if err != nil {
		return core.EngineRun{}, fmt.Errorf("create engine run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.EngineRun{}, fmt.Errorf("create engine run id: %w", err)
	}

	slog.InfoContext(ctx, "Engine run queued", "run_id", id, "scenario_id", scenarioID)
	return core.EngineRun{
		ID:         id,
		ScenarioID: scenarioID,
		Status:     core.RunQueued,
		CreatedAt:  now,
	}, nil
}

func (r *SQLiteRepository) GetEngineRun(ctx context.Context, id int64) (core.EngineRun, error) {
	var run core.EngineRun
	err := r.db.QueryRowContext(ctx, `
		SELECT id, scenario_id, status, error, created_at, finished_at
		FROM engine_runs WHERE id = ?`, id).
		Scan(&run.ID, &run.ScenarioID, &run.Status, &run.Error, &run.CreatedAt, &run.FinishedAt)
	if err != nil {
		return core.EngineRun{}, notFound("get engine run", err)
	}
	return run, nil
}

func (r *SQLiteRepository) ListEngineRuns(ctx context.Context, scenarioID int64) ([]core.EngineRun, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, scenario_id, status, error, created_at, finished_at
		FROM engine_runs WHERE scenario_id = ? ORDER BY id DESC`, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("list engine runs: %w", err)
	}
	defer rows.Close()

	var out []core.EngineRun
	for rows.Next() {
		var run core.EngineRun
		if err := rows.Scan(&run.ID, &run.ScenarioID, &run.Status, &run.Error,
			&run.CreatedAt, &run.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan engine run: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// MarkEngineRun transitions a run to a terminal or running status,
// stamping finished_at on terminal states.
func (r *SQLiteRepository) MarkEngineRun(ctx context.Context, id int64, status, errMsg string) error {
	var finishedAt *time.Time
	if status == core.RunSucceeded || status == core.RunFailed {
		now := time.Now().UTC()
		finishedAt = &now
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE engine_runs SET status = ?, error = ?, finished_at = ? WHERE id = ?`,
		status, errMsg, finishedAt, id)
	if err != nil {
		return fmt.Errorf("mark engine run: %w", err)
	}
	if err := affected(res, "mark engine run"); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Engine run marked", "run_id", id, "status", status)
	return nil
}

// ListQueuedRuns returns runs still waiting for a worker, oldest first.
// The worker drains these on startup to recover runs whose messages
// were lost.
func (r *SQLiteRepository) ListQueuedRuns(ctx context.Context, limit int) ([]core.EngineRun, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, scenario_id, status, error, created_at, finished_at
		FROM engine_runs WHERE status = ? ORDER BY id LIMIT ?`, core.RunQueued, limit)
	if err != nil {
		return nil, fmt.Errorf("list queued runs: %w", err)
	}
	defer rows.Close()

	var out []core.EngineRun
	for rows.Next() {
		var run core.EngineRun
		if err := rows.Scan(&run.ID, &run.ScenarioID, &run.Status, &run.Error,
			&run.CreatedAt, &run.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan queued run: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// LatestSuccessfulRun returns the most recent succeeded run of a
// scenario, or ErrNotFound when the engine has never completed.
func (r *SQLiteRepository) LatestSuccessfulRun(ctx context.Context, scenarioID int64) (core.EngineRun, error) {
	var run core.EngineRun
	err := r.db.QueryRowContext(ctx, `
		SELECT id, scenario_id, status, error, created_at, finished_at
		FROM engine_runs
		WHERE scenario_id = ? AND status = ?
		ORDER BY id DESC LIMIT 1`, scenarioID, core.RunSucceeded).
		Scan(&run.ID, &run.ScenarioID, &run.Status, &run.Error, &run.CreatedAt, &run.FinishedAt)
	if err != nil {
		return core.EngineRun{}, notFound("latest successful run", err)
	}
	return run, nil
}

// ReplaceEngineFacts swaps the full fact set of a run atomically.
func (r *SQLiteRepository) ReplaceEngineFacts(ctx context.Context, runID int64, facts []core.EngineFact) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace facts: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM engine_facts WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("clear engine facts: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO engine_facts (run_id, series, period, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert facts: %w", err)
	}
	defer stmt.Close()

	for _, f := range facts {
		if _, err := stmt.ExecContext(ctx, runID, f.Series, f.Period, f.Value); err != nil {
			return fmt.Errorf("insert engine fact: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace facts: %w", err)
	}

	slog.InfoContext(ctx, "Engine facts stored", "run_id", runID, "count", len(facts))
	return nil
}

// ListEngineFacts returns a run's facts, optionally filtered to one
// series, ordered by series then period key.
func (r *SQLiteRepository) ListEngineFacts(ctx context.Context, runID int64, series string) ([]core.EngineFact, error) {
	query := `SELECT run_id, series, period, value FROM engine_facts WHERE run_id = ?`
	args := []any{runID}
	if series != "" {
		query += ` AND series = ?`
		args = append(args, series)
	}
	query += ` ORDER BY series, period`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list engine facts: %w", err)
	}
	defer rows.Close()

	var out []core.EngineFact
	for rows.Next() {
		var f core.EngineFact
		if err := rows.Scan(&f.RunID, &f.Series, &f.Period, &f.Value); err != nil {
			return nil, fmt.Errorf("scan engine fact: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
