package storage

import (
	"context"
	"fmt"

	"scenplan/internal/core"
)

// Products

func (r *SQLiteRepository) CreateProduct(ctx context.Context, p core.Product) (core.Product, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO products (code, name, uom, currency, is_active)
		VALUES (?, ?, ?, ?, ?)`,
		p.Code, p.Name, p.UOM, p.Currency, boolToInt(p.IsActive))
	if err != nil {
		return core.Product{}, fmt.Errorf("create product: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Product{}, fmt.Errorf("create product id: %w", err)
	}
	p.ID = id
	return p, nil
}

func (r *SQLiteRepository) GetProduct(ctx context.Context, id int64) (core.Product, error) {
	var p core.Product
	err := r.db.QueryRowContext(ctx, `
		SELECT id, code, name, uom, currency, is_active FROM products WHERE id = ?`, id).
		Scan(&p.ID, &p.Code, &p.Name, &p.UOM, &p.Currency, &p.IsActive)
	if err != nil {
		return core.Product{}, notFound("get product", err)
	}
	return p, nil
}

func (r *SQLiteRepository) ListProducts(ctx context.Context, onlyActive bool) ([]core.Product, error) {
	query := `SELECT id, code, name, uom, currency, is_active FROM products`
	if onlyActive {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY code`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []core.Product
	for rows.Next() {
		var p core.Product
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.UOM, &p.Currency, &p.IsActive); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateProduct(ctx context.Context, p core.Product) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products SET code = ?, name = ?, uom = ?, currency = ?, is_active = ?
		WHERE id = ?`,
		p.Code, p.Name, p.UOM, p.Currency, boolToInt(p.IsActive), p.ID)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return affected(res, "update product")
}

// DeactivateProduct is the soft delete; catalog rows are referenced by
// BOQ history and never removed.
func (r *SQLiteRepository) DeactivateProduct(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate product: %w", err)
	}
	return affected(res, "deactivate product")
}

// Price terms

func (r *SQLiteRepository) ListPriceTerms(ctx context.Context) ([]core.PriceTerm, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, code, name FROM price_terms ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list price terms: %w", err)
	}
	defer rows.Close()

	var out []core.PriceTerm
	for rows.Next() {
		var t core.PriceTerm
		if err := rows.Scan(&t.ID, &t.Code, &t.Name); err != nil {
			return nil, fmt.Errorf("scan price term: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreatePriceTerm(ctx context.Context, t core.PriceTerm) (core.PriceTerm, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO price_terms (code, name) VALUES (?, ?)`, t.Code, t.Name)
	if err != nil {
		return core.PriceTerm{}, fmt.Errorf("create price term: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.PriceTerm{}, fmt.Errorf("create price term id: %w", err)
	}
	t.ID = id
	return t, nil
}

// Price books

func (r *SQLiteRepository) CreatePriceBook(ctx context.Context, b core.PriceBook) (core.PriceBook, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO price_books (code, name, currency, is_default, is_active)
		VALUES (?, ?, ?, ?, ?)`,
		b.Code, b.Name, b.Currency, boolToInt(b.IsDefault), boolToInt(b.IsActive))
	if err != nil {
		return core.PriceBook{}, fmt.Errorf("create price book: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.PriceBook{}, fmt.Errorf("create price book id: %w", err)
	}
	b.ID = id
	return b, nil
}

func (r *SQLiteRepository) ListPriceBooks(ctx context.Context) ([]core.PriceBook, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, code, name, currency, is_default, is_active
		FROM price_books ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list price books: %w", err)
	}
	defer rows.Close()

	var out []core.PriceBook
	for rows.Next() {
		var b core.PriceBook
		if err := rows.Scan(&b.ID, &b.Code, &b.Name, &b.Currency, &b.IsDefault, &b.IsActive); err != nil {
			return nil, fmt.Errorf("scan price book: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreatePriceBookEntry(ctx context.Context, e core.PriceBookEntry) (core.PriceBookEntry, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO price_book_entries (price_book_id, product_id, unit_price, price_term, valid_from, valid_to)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.BookID, e.ProductID, e.UnitPrice, e.PriceTerm, e.ValidFrom, e.ValidTo)
	if err != nil {
		return core.PriceBookEntry{}, fmt.Errorf("create price book entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.PriceBookEntry{}, fmt.Errorf("create price book entry id: %w", err)
	}
	e.ID = id
	return e, nil
}

// PriceCandidate is a price entry joined with its book's resolution
// metadata, ordered for the best-price cascade.
type PriceCandidate struct {
	Entry       core.PriceBookEntry
	BookDefault bool
	BookActive  bool
}

// ListPriceCandidates returns all entries for a product across books,
// newest first within each book tier, for resolver selection.
func (r *SQLiteRepository) ListPriceCandidates(ctx context.Context, productID int64) ([]PriceCandidate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT e.id, e.price_book_id, e.product_id, e.unit_price, e.price_term,
		       e.valid_from, e.valid_to, b.is_default, b.is_active
		FROM price_book_entries e
		JOIN price_books b ON b.id = e.price_book_id
		WHERE e.product_id = ?
		ORDER BY b.is_default DESC, e.id DESC`, productID)
	if err != nil {
		return nil, fmt.Errorf("list price candidates: %w", err)
	}
	defer rows.Close()

	var out []PriceCandidate
	for rows.Next() {
		var c PriceCandidate
		if err := rows.Scan(&c.Entry.ID, &c.Entry.BookID, &c.Entry.ProductID,
			&c.Entry.UnitPrice, &c.Entry.PriceTerm, &c.Entry.ValidFrom, &c.Entry.ValidTo,
			&c.BookDefault, &c.BookActive); err != nil {
			return nil, fmt.Errorf("scan price candidate: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Cost books

func (r *SQLiteRepository) CreateCostBook(ctx context.Context, b core.CostBook) (core.CostBook, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO cost_books (code, name, currency, is_default, is_active)
		VALUES (?, ?, ?, ?, ?)`,
		b.Code, b.Name, b.Currency, boolToInt(b.IsDefault), boolToInt(b.IsActive))
	if err != nil {
		return core.CostBook{}, fmt.Errorf("create cost book: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.CostBook{}, fmt.Errorf("create cost book id: %w", err)
	}
	b.ID = id
	return b, nil
}

func (r *SQLiteRepository) ListCostBooks(ctx context.Context) ([]core.CostBook, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, code, name, currency, is_default, is_active
		FROM cost_books ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list cost books: %w", err)
	}
	defer rows.Close()

	var out []core.CostBook
	for rows.Next() {
		var b core.CostBook
		if err := rows.Scan(&b.ID, &b.Code, &b.Name, &b.Currency, &b.IsDefault, &b.IsActive); err != nil {
			return nil, fmt.Errorf("scan cost book: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateCostBookEntry(ctx context.Context, e core.CostBookEntry) (core.CostBookEntry, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO cost_book_entries (cost_book_id, product_id, unit_cost, currency, valid_from, valid_to)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.BookID, e.ProductID, e.UnitCost, e.Currency, e.ValidFrom, e.ValidTo)
	if err != nil {
		return core.CostBookEntry{}, fmt.Errorf("create cost book entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.CostBookEntry{}, fmt.Errorf("create cost book entry id: %w", err)
	}
	e.ID = id
	return e, nil
}

// CostCandidate mirrors PriceCandidate for the cost side.
type CostCandidate struct {
	Entry       core.CostBookEntry
	BookDefault bool
	BookActive  bool
}

func (r *SQLiteRepository) ListCostCandidates(ctx context.Context, productID int64) ([]CostCandidate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT e.id, e.cost_book_id, e.product_id, e.unit_cost, e.currency,
		       e.valid_from, e.valid_to, b.is_default, b.is_active
		FROM cost_book_entries e
		JOIN cost_books b ON b.id = e.cost_book_id
		WHERE e.product_id = ?
		ORDER BY b.is_default DESC, e.id DESC`, productID)
	if err != nil {
		return nil, fmt.Errorf("list cost candidates: %w", err)
	}
	defer rows.Close()

	var out []CostCandidate
	for rows.Next() {
		var c CostCandidate
		if err := rows.Scan(&c.Entry.ID, &c.Entry.BookID, &c.Entry.ProductID,
			&c.Entry.UnitCost, &c.Entry.Currency, &c.Entry.ValidFrom, &c.Entry.ValidTo,
			&c.BookDefault, &c.BookActive); err != nil {
			return nil, fmt.Errorf("scan cost candidate: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
