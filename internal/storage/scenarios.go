package storage

import (
	"context"
	"fmt"
	"log/slog"

	"scenplan/internal/core"
)

// WorkflowFlags is the persisted readiness state of a scenario, one flag
// per gated stage plus the legacy workflow_state string.
type WorkflowFlags struct {
	State         string
	BOQReady      bool
	TWCReady      bool
	CapexReady    bool
	FXReady       bool
	TaxReady      bool
	ServicesReady bool
}

const scenarioColumns = `id, business_case, name, start_year, start_month, months, workflow_state, dso_days`

func (r *SQLiteRepository) scanScenario(row interface{ Scan(...any) error }) (core.Scenario, error) {
	var s core.Scenario
	var dso float64
	err := row.Scan(&s.ID, &s.BusinessCase, &s.Name, &s.StartYear, &s.StartMonth,
		&s.Months, &s.WorkflowState, &dso)
	s.DSODays = dso
	return s, err
}

func (r *SQLiteRepository) CreateScenario(ctx context.Context, s core.Scenario) (core.Scenario, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO scenarios (business_case, name, start_year, start_month, months, dso_days)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.BusinessCase, s.Name, s.StartYear, s.StartMonth, s.Months, s.DSODays)
	if err != nil {
		return core.Scenario{}, fmt.Errorf("create scenario: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Scenario{}, fmt.Errorf("create scenario id: %w", err)
	}
	s.ID = id
	s.WorkflowState = "draft"

	slog.InfoContext(ctx, "Scenario created",
		"id", s.ID,
		"business_case", s.BusinessCase,
		"name", s.Name)
	return s, nil
}

func (r *SQLiteRepository) GetScenario(ctx context.Context, id int64) (core.Scenario, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+scenarioColumns+` FROM scenarios WHERE id = ?`, id)
	s, err := r.scanScenario(row)
	if err != nil {
		return core.Scenario{}, notFound("get scenario", err)
	}
	return s, nil
}

func (r *SQLiteRepository) ListScenarios(ctx context.Context, businessCase string) ([]core.Scenario, error) {
	query := `SELECT ` + scenarioColumns + ` FROM scenarios`
	args := []any{}
	if businessCase != "" {
		query += ` WHERE business_case = ?`
		args = append(args, businessCase)
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	defer rows.Close()

	var out []core.Scenario
	for rows.Next() {
		s, err := r.scanScenario(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scenario: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateScenario(ctx context.Context, s core.Scenario) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE scenarios
		SET business_case = ?, name = ?, start_year = ?, start_month = ?, months = ?, dso_days = ?
		WHERE id = ?`,
		s.BusinessCase, s.Name, s.StartYear, s.StartMonth, s.Months, s.DSODays, s.ID)
	if err != nil {
		return fmt.Errorf("update scenario: %w", err)
	}
	return affected(res, "update scenario")
}

func (r *SQLiteRepository) DeleteScenario(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM scenarios WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete scenario: %w", err)
	}
	return affected(res, "delete scenario")
}

func (r *SQLiteRepository) GetWorkflow(ctx context.Context, scenarioID int64) (WorkflowFlags, error) {
	var f WorkflowFlags
	err := r.db.QueryRowContext(ctx, `
		SELECT workflow_state, boq_ready, twc_ready, capex_ready, fx_ready, tax_ready, services_ready
		FROM scenarios WHERE id = ?`, scenarioID).
		Scan(&f.State, &f.BOQReady, &f.TWCReady, &f.CapexReady, &f.FXReady, &f.TaxReady, &f.ServicesReady)
	if err != nil {
		return WorkflowFlags{}, notFound("get workflow", err)
	}
	return f, nil
}

func (r *SQLiteRepository) UpdateWorkflow(ctx context.Context, scenarioID int64, f WorkflowFlags) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE scenarios
		SET workflow_state = ?, boq_ready = ?, twc_ready = ?, capex_ready = ?,
		    fx_ready = ?, tax_ready = ?, services_ready = ?
		WHERE id = ?`,
		f.State, boolToInt(f.BOQReady), boolToInt(f.TWCReady), boolToInt(f.CapexReady),
		boolToInt(f.FXReady), boolToInt(f.TaxReady), boolToInt(f.ServicesReady), scenarioID)
	if err != nil {
		return fmt.Errorf("update workflow: %w", err)
	}
	if err := affected(res, "update workflow"); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Workflow updated",
		"scenario_id", scenarioID,
		"state", f.State)
	return nil
}
