package storage

import (
	"context"
	"fmt"

	"scenplan/internal/core"
)

// Scenario services

func (r *SQLiteRepository) CreateService(ctx context.Context, s core.ScenarioService) (core.ScenarioService, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO scenario_services (scenario_id, name, quantity, unit_cost,
			currency, start_year, start_month, duration_months, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ScenarioID, s.Name, s.Quantity, s.UnitCost,
		s.Currency, s.StartYear, s.StartMonth, s.DurationMonths, boolToInt(s.IsActive))
	if err != nil {
		return core.ScenarioService{}, fmt.Errorf("create service: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.ScenarioService{}, fmt.Errorf("create service id: %w", err)
	}
	s.ID = id
	return s, nil
}

func (r *SQLiteRepository) ListServices(ctx context.Context, scenarioID int64, onlyActive bool) ([]core.ScenarioService, error) {
	query := `
		SELECT id, scenario_id, name, quantity, unit_cost, currency,
		       start_year, start_month, duration_months, is_active
		FROM scenario_services WHERE scenario_id = ?`
	if onlyActive {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	var out []core.ScenarioService
	for rows.Next() {
		var s core.ScenarioService
		if err := rows.Scan(&s.ID, &s.ScenarioID, &s.Name, &s.Quantity, &s.UnitCost,
			&s.Currency, &s.StartYear, &s.StartMonth, &s.DurationMonths, &s.IsActive); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateService(ctx context.Context, s core.ScenarioService) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE scenario_services
		SET name = ?, quantity = ?, unit_cost = ?, currency = ?,
			start_year = ?, start_month = ?, duration_months = ?, is_active = ?
		WHERE id = ? AND scenario_id = ?`,
		s.Name, s.Quantity, s.UnitCost, s.Currency,
		s.StartYear, s.StartMonth, s.DurationMonths, boolToInt(s.IsActive),
		s.ID, s.ScenarioID)
	if err != nil {
		return fmt.Errorf("update service: %w", err)
	}
	return affected(res, "update service")
}

func (r *SQLiteRepository) DeleteService(ctx context.Context, scenarioID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM scenario_services WHERE id = ? AND scenario_id = ?`, id, scenarioID)
	if err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	return affected(res, "delete service")
}

// CAPEX

func (r *SQLiteRepository) CreateCapex(ctx context.Context, c core.CapexItem) (core.CapexItem, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO capex_items (scenario_id, name, amount, year, month, is_active)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ScenarioID, c.Name, c.Amount, c.Year, c.Month, boolToInt(c.IsActive))
	if err != nil {
		return core.CapexItem{}, fmt.Errorf("create capex: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.CapexItem{}, fmt.Errorf("create capex id: %w", err)
	}
	c.ID = id
	return c, nil
}

func (r *SQLiteRepository) ListCapex(ctx context.Context, scenarioID int64, onlyActive bool) ([]core.CapexItem, error) {
	query := `
		SELECT id, scenario_id, name, amount, year, month, is_active
		FROM capex_items WHERE scenario_id = ?`
	if onlyActive {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("list capex: %w", err)
	}
	defer rows.Close()

	var out []core.CapexItem
	for rows.Next() {
		var c core.CapexItem
		if err := rows.Scan(&c.ID, &c.ScenarioID, &c.Name, &c.Amount, &c.Year, &c.Month, &c.IsActive); err != nil {
			return nil, fmt.Errorf("scan capex: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateCapex(ctx context.Context, c core.CapexItem) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE capex_items
		SET name = ?, amount = ?, year = ?, month = ?, is_active = ?
		WHERE id = ? AND scenario_id = ?`,
		c.Name, c.Amount, c.Year, c.Month, boolToInt(c.IsActive), c.ID, c.ScenarioID)
	if err != nil {
		return fmt.Errorf("update capex: %w", err)
	}
	return affected(res, "update capex")
}

func (r *SQLiteRepository) DeleteCapex(ctx context.Context, scenarioID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM capex_items WHERE id = ? AND scenario_id = ?`, id, scenarioID)
	if err != nil {
		return fmt.Errorf("delete capex: %w", err)
	}
	return affected(res, "delete capex")
}

// OPEX

func (r *SQLiteRepository) CreateOpex(ctx context.Context, o core.OpexItem) (core.OpexItem, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO opex_items (scenario_id, name, monthly_amount, start_year,
			start_month, duration_months, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.ScenarioID, o.Name, o.MonthlyAmount, o.StartYear,
		o.StartMonth, o.DurationMonths, boolToInt(o.IsActive))
	if err != nil {
		return core.OpexItem{}, fmt.Errorf("create opex: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.OpexItem{}, fmt.Errorf("create opex id: %w", err)
	}
	o.ID = id
	return o, nil
}

func (r *SQLiteRepository) ListOpex(ctx context.Context, scenarioID int64, onlyActive bool) ([]core.OpexItem, error) {
	query := `
		SELECT id, scenario_id, name, monthly_amount, start_year, start_month,
		       duration_months, is_active
		FROM opex_items WHERE scenario_id = ?`
	if onlyActive {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("list opex: %w", err)
	}
	defer rows.Close()

	var out []core.OpexItem
	for rows.Next() {
		var o core.OpexItem
		if err := rows.Scan(&o.ID, &o.ScenarioID, &o.Name, &o.MonthlyAmount,
			&o.StartYear, &o.StartMonth, &o.DurationMonths, &o.IsActive); err != nil {
			return nil, fmt.Errorf("scan opex: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateOpex(ctx context.Context, o core.OpexItem) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE opex_items
		SET name = ?, monthly_amount = ?, start_year = ?, start_month = ?,
			duration_months = ?, is_active = ?
		WHERE id = ? AND scenario_id = ?`,
		o.Name, o.MonthlyAmount, o.StartYear, o.StartMonth,
		o.DurationMonths, boolToInt(o.IsActive), o.ID, o.ScenarioID)
	if err != nil {
		return fmt.Errorf("update opex: %w", err)
	}
	return affected(res, "update opex")
}

func (r *SQLiteRepository) DeleteOpex(ctx context.Context, scenarioID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM opex_items WHERE id = ? AND scenario_id = ?`, id, scenarioID)
	if err != nil {
		return fmt.Errorf("delete opex: %w", err)
	}
	return affected(res, "delete opex")
}
