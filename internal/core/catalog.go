package core

import (
	"errors"
	"strings"
	"time"
)

// Engine run lifecycle states.
const (
	RunQueued    = "queued"
	RunRunning   = "running"
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// Engine fact series names. Accrual series come from the run computation;
// cash_in is the DSO-lagged view of revenue.
const (
	SeriesRevenue  = "revenue"
	SeriesCOGS     = "cogs"
	SeriesServices = "services"
	SeriesCapex    = "capex"
	SeriesOpex     = "opex"
	SeriesCashIn   = "cash_in"
)

type (
	// Product is a sellable catalog entry referenced by BOQ rows.
	Product struct {
		ID       int64  `json:"id"`
		Code     string `json:"code"`
		Name     string `json:"name"`
		UOM      string `json:"uom"`
		Currency string `json:"currency"`
		IsActive bool   `json:"is_active"`
	}

	// PriceTerm is a delivery-term reference row (incoterm code).
	PriceTerm struct {
		ID   int64  `json:"id"`
		Code string `json:"code"`
		Name string `json:"name"`
	}

	// PriceBook groups selling prices; at most one book should be the
	// default, which wins in best-price resolution.
	PriceBook struct {
		ID        int64  `json:"id"`
		Code      string `json:"code"`
		Name      string `json:"name"`
		Currency  string `json:"currency"`
		IsDefault bool   `json:"is_default"`
		IsActive  bool   `json:"is_active"`
	}

	// PriceBookEntry prices one product within an optional validity
	// window. Open ends are nil.
	PriceBookEntry struct {
		ID        int64   `json:"id"`
		BookID    int64   `json:"book_id"`
		ProductID int64   `json:"product_id"`
		UnitPrice float64 `json:"unit_price"`
		PriceTerm *string `json:"price_term"`
		ValidFrom *string `json:"valid_from"`
		ValidTo   *string `json:"valid_to"`
	}

	// CostBook and CostBookEntry mirror the price side for unit COGS.
	CostBook struct {
		ID        int64  `json:"id"`
		Code      string `json:"code"`
		Name      string `json:"name"`
		Currency  string `json:"currency"`
		IsDefault bool   `json:"is_default"`
		IsActive  bool   `json:"is_active"`
	}

	CostBookEntry struct {
		ID        int64   `json:"id"`
		BookID    int64   `json:"book_id"`
		ProductID int64   `json:"product_id"`
		UnitCost  float64 `json:"unit_cost"`
		Currency  string  `json:"currency"`
		ValidFrom *string `json:"valid_from"`
		ValidTo   *string `json:"valid_to"`
	}

	// EngineRun records one asynchronous computation of a scenario.
	EngineRun struct {
		ID         int64      `json:"id"`
		ScenarioID int64      `json:"scenario_id"`
		Status     string     `json:"status"`
		Error      string     `json:"error,omitempty"`
		CreatedAt  time.Time  `json:"created_at"`
		FinishedAt *time.Time `json:"finished_at"`
	}

	// EngineFact is one (series, period, value) cell of a run's output.
	EngineFact struct {
		RunID  int64   `json:"run_id"`
		Series string  `json:"series"`
		Period string  `json:"period"`
		Value  float64 `json:"value"`
	}
)

var (
	ErrEmptyCode = errors.New("empty code")
)

func (p Product) Validate() error {
	if strings.TrimSpace(p.Code) == "" {
		return ErrEmptyCode
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (b PriceBook) Validate() error {
	if strings.TrimSpace(b.Code) == "" {
		return ErrEmptyCode
	}
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (b CostBook) Validate() error {
	if strings.TrimSpace(b.Code) == "" {
		return ErrEmptyCode
	}
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (e PriceBookEntry) Validate() error {
	if e.UnitPrice < 0 {
		return ErrNegativePrice
	}
	return nil
}

func (e CostBookEntry) Validate() error {
	if e.UnitCost < 0 {
		return ErrNegativeCost
	}
	return nil
}
