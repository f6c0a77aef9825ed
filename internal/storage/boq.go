package storage

import (
	"context"
	"fmt"
	"log/slog"

	"scenplan/internal/core"
)

const boqColumns = `id, scenario_id, section, item_name, unit, quantity, unit_price,
	unit_cogs, frequency, start_year, start_month, months, product_id, price_term,
	is_active, notes, category`

func scanBOQItem(row interface{ Scan(...any) error }) (core.BOQItem, error) {
	var b core.BOQItem
	var freq string
	err := row.Scan(&b.ID, &b.ScenarioID, &b.Section, &b.ItemName, &b.Unit,
		&b.Quantity, &b.UnitPrice, &b.UnitCOGS, &freq, &b.StartYear, &b.StartMonth,
		&b.Months, &b.ProductID, &b.PriceTerm, &b.IsActive, &b.Notes, &b.Category)
	b.Frequency = core.Frequency(freq)
	return b, err
}

func (r *SQLiteRepository) CreateBOQItem(ctx context.Context, b core.BOQItem) (core.BOQItem, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO boq_items (scenario_id, section, item_name, unit, quantity,
			unit_price, unit_cogs, frequency, start_year, start_month, months,
			product_id, price_term, is_active, notes, category)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ScenarioID, b.Section, b.ItemName, b.Unit, b.Quantity,
		b.UnitPrice, b.UnitCOGS, string(b.Frequency), b.StartYear, b.StartMonth,
		b.Months, b.ProductID, b.PriceTerm, boolToInt(b.IsActive), b.Notes, b.Category)
	if err != nil {
		return core.BOQItem{}, fmt.Errorf("create boq item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.BOQItem{}, fmt.Errorf("create boq item id: %w", err)
	}
	b.ID = id

	slog.InfoContext(ctx, "BOQ item created",
		"id", b.ID,
		"scenario_id", b.ScenarioID,
		"item_name", b.ItemName)
	return b, nil
}

func (r *SQLiteRepository) GetBOQItem(ctx context.Context, id int64) (core.BOQItem, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+boqColumns+` FROM boq_items WHERE id = ?`, id)
	b, err := scanBOQItem(row)
	if err != nil {
		return core.BOQItem{}, notFound("get boq item", err)
	}
	return b, nil
}

func (r *SQLiteRepository) ListBOQItems(ctx context.Context, scenarioID int64, onlyActive bool) ([]core.BOQItem, error) {
	query := `SELECT ` + boqColumns + ` FROM boq_items WHERE scenario_id = ?`
	if onlyActive {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("list boq items: %w", err)
	}
	defer rows.Close()

	var out []core.BOQItem
	for rows.Next() {
		b, err := scanBOQItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan boq item: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateBOQItem(ctx context.Context, b core.BOQItem) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE boq_items
		SET section = ?, item_name = ?, unit = ?, quantity = ?, unit_price = ?,
			unit_cogs = ?, frequency = ?, start_year = ?, start_month = ?, months = ?,
			product_id = ?, price_term = ?, is_active = ?, notes = ?, category = ?
		WHERE id = ? AND scenario_id = ?`,
		b.Section, b.ItemName, b.Unit, b.Quantity, b.UnitPrice,
		b.UnitCOGS, string(b.Frequency), b.StartYear, b.StartMonth, b.Months,
		b.ProductID, b.PriceTerm, boolToInt(b.IsActive), b.Notes, b.Category,
		b.ID, b.ScenarioID)
	if err != nil {
		return fmt.Errorf("update boq item: %w", err)
	}
	return affected(res, "update boq item")
}

func (r *SQLiteRepository) DeleteBOQItem(ctx context.Context, scenarioID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM boq_items WHERE id = ? AND scenario_id = ?`, id, scenarioID)
	if err != nil {
		return fmt.Errorf("delete boq item: %w", err)
	}
	return affected(res, "delete boq item")
}

// BulkInsertBOQItems appends all items in a single transaction; either
// every row lands or none does.
func (r *SQLiteRepository) BulkInsertBOQItems(ctx context.Context, items []core.BOQItem) ([]core.BOQItem, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin bulk insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO boq_items (scenario_id, section, item_name, unit, quantity,
			unit_price, unit_cogs, frequency, start_year, start_month, months,
			product_id, price_term, is_active, notes, category)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare bulk insert: %w", err)
	}
	defer stmt.Close()

	out := make([]core.BOQItem, 0, len(items))
	for _, b := range items {
		res, err := stmt.ExecContext(ctx,
			b.ScenarioID, b.Section, b.ItemName, b.Unit, b.Quantity,
			b.UnitPrice, b.UnitCOGS, string(b.Frequency), b.StartYear, b.StartMonth,
			b.Months, b.ProductID, b.PriceTerm, boolToInt(b.IsActive), b.Notes, b.Category)
		if err != nil {
			return nil, fmt.Errorf("bulk insert boq item: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("bulk insert boq item id: %w", err)
		}
		b.ID = id
		out = append(out, b)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit bulk insert: %w", err)
	}

	slog.InfoContext(ctx, "BOQ items bulk inserted", "count", len(out))
	return out, nil
}

func (r *SQLiteRepository) CountActiveBOQItems(ctx context.Context, scenarioID int64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM boq_items WHERE scenario_id = ? AND is_active = 1`,
		scenarioID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active boq items: %w", err)
	}
	return n, nil
}
