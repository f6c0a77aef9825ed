package core

import (
	"errors"
	"strings"
)

const (
	Once        Frequency = "once"
	MonthlyFreq Frequency = "monthly"
	PerShipment Frequency = "per_shipment"
	PerTonne    Frequency = "per_tonne"
)

// Workflow stages, in gating order.
const (
	StageBOQ      = "boq"
	StageTWC      = "twc"
	StageCapex    = "capex"
	StageFX       = "fx"
	StageTax      = "tax"
	StageServices = "services"
	StageSummary  = "summary"
)

type (
	// Frequency is the recurrence policy of a line item's cash-flow
	// contribution.
	Frequency string

	// Scenario is a single business-case variant: a named BOQ plus cost
	// lines over a fixed monthly horizon, gated through the workflow.
	Scenario struct {
		ID            int64  `json:"id"`
		BusinessCase  string `json:"business_case"`
		Name          string `json:"name"`
		StartYear     int    `json:"start_year"`
		StartMonth    int    `json:"start_month"`
		Months        int    `json:"months"`
		WorkflowState string `json:"workflow_state"`
		// DSODays shifts the cash view of revenue by round(DSODays/30)
		// months in engine runs.
		DSODays float64 `json:"dso_days"`
	}

	// BOQItem is one bill-of-quantities row of a scenario.
	BOQItem struct {
		ID         int64   `json:"id"`
		ScenarioID int64   `json:"scenario_id"`
		Section    string  `json:"section"`
		ItemName   string  `json:"item_name"`
		Unit       string  `json:"unit"`
		Quantity   float64 `json:"quantity"`
		UnitPrice  float64 `json:"unit_price"`
		// UnitCOGS is nullable; nil means "not set" and may be autofilled
		// from the active cost books on create/update.
		UnitCOGS   *float64  `json:"unit_cogs"`
		Frequency  Frequency `json:"frequency"`
		StartYear  *int      `json:"start_year"`
		StartMonth *int      `json:"start_month"`
		Months     *int      `json:"months"`
		ProductID  *int64    `json:"product_id"`
		PriceTerm  *string   `json:"price_term"`
		IsActive   bool      `json:"is_active"`
		Notes      string    `json:"notes"`
		Category   *string   `json:"category"`
	}

	// ScenarioService is a recurring external service cost row.
	ScenarioService struct {
		ID             int64   `json:"id"`
		ScenarioID     int64   `json:"scenario_id"`
		Name           string  `json:"name"`
		Quantity       float64 `json:"quantity"`
		UnitCost       float64 `json:"unit_cost"`
		Currency       string  `json:"currency"`
		StartYear      *int    `json:"start_year"`
		StartMonth     *int    `json:"start_month"`
		DurationMonths *int    `json:"duration_months"`
		IsActive       bool    `json:"is_active"`
	}

	// CapexItem is a one-off capital expenditure row.
	CapexItem struct {
		ID         int64   `json:"id"`
		ScenarioID int64   `json:"scenario_id"`
		Name       string  `json:"name"`
		Amount     float64 `json:"amount"`
		Year       int     `json:"year"`
		Month      int     `json:"month"`
		IsActive   bool    `json:"is_active"`
	}

	// OpexItem is a recurring operating expenditure row.
	OpexItem struct {
		ID             int64   `json:"id"`
		ScenarioID     int64   `json:"scenario_id"`
		Name           string  `json:"name"`
		MonthlyAmount  float64 `json:"monthly_amount"`
		StartYear      *int    `json:"start_year"`
		StartMonth     *int    `json:"start_month"`
		DurationMonths *int    `json:"duration_months"`
		IsActive       bool    `json:"is_active"`
	}
)

var (
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyUnit        = errors.New("empty unit")
	ErrNegativeQuantity = errors.New("quantity must not be negative")
	ErrNegativePrice    = errors.New("unit price must not be negative")
	ErrNegativeCost     = errors.New("unit cost must not be negative")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrInvalidHorizon   = errors.New("months horizon must be at least 1")
)

// BOQCategories are the allowed values of BOQItem.Category.
var BOQCategories = map[string]bool{
	"bulk_with_freight": true,
	"bulk_ex_freight":   true,
	"freight":           true,
}

// Valid reports whether f is one of the supported frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case Once, MonthlyFreq, PerShipment, PerTonne:
		return true
	}
	return false
}

// SingleShot reports whether f contributes to exactly one period in the
// preview schedule, regardless of any duration field.
func (f Frequency) SingleShot() bool {
	return f != MonthlyFreq
}

// StartPeriod returns the item's start period, or false when either
// component is missing. Items without a resolvable start never enter a
// schedule.
func (b BOQItem) StartPeriod() (Period, bool) {
	if b.StartYear == nil || b.StartMonth == nil {
		return Period{}, false
	}
	return Period{Year: *b.StartYear, Month: *b.StartMonth}, true
}

func (s Scenario) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if s.StartMonth < 1 || s.StartMonth > 12 {
		return ErrInvalidMonth
	}
	if s.Months < 1 {
		return ErrInvalidHorizon
	}
	return nil
}

func (b BOQItem) Validate() error {
	if strings.TrimSpace(b.ItemName) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(b.Unit) == "" {
		return ErrEmptyUnit
	}
	if b.Quantity < 0 {
		return ErrNegativeQuantity
	}
	if b.UnitPrice < 0 {
		return ErrNegativePrice
	}
	if b.UnitCOGS != nil && *b.UnitCOGS < 0 {
		return ErrNegativeCost
	}
	if !b.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if b.StartMonth != nil && (*b.StartMonth < 1 || *b.StartMonth > 12) {
		return ErrInvalidMonth
	}
	if b.Category != nil && !BOQCategories[*b.Category] {
		return ErrInvalidCategory
	}
	return nil
}

func (s ScenarioService) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if s.Quantity < 0 {
		return ErrNegativeQuantity
	}
	if s.UnitCost < 0 {
		return ErrNegativeCost
	}
	if s.StartMonth != nil && (*s.StartMonth < 1 || *s.StartMonth > 12) {
		return ErrInvalidMonth
	}
	return nil
}

func (c CapexItem) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.Month < 1 || c.Month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

func (o OpexItem) Validate() error {
	if strings.TrimSpace(o.Name) == "" {
		return ErrEmptyName
	}
	if o.StartMonth != nil && (*o.StartMonth < 1 || *o.StartMonth > 12) {
		return ErrInvalidMonth
	}
	return nil
}
