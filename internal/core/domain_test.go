package core

import (
	"errors"
	"testing"
)

func validBOQItem() BOQItem {
	return BOQItem{
		ScenarioID: 1,
		ItemName:   "ammonium nitrate",
		Unit:       "ton",
		Quantity:   100,
		UnitPrice:  450,
		Frequency:  MonthlyFreq,
		IsActive:   true,
	}
}

func TestBOQItemValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*BOQItem)
		wantErr error
	}{
		{"valid", func(b *BOQItem) {}, nil},
		{"blank name", func(b *BOQItem) { b.ItemName = "  " }, ErrEmptyName},
		{"blank unit", func(b *BOQItem) { b.Unit = "" }, ErrEmptyUnit},
		{"negative quantity", func(b *BOQItem) { b.Quantity = -1 }, ErrNegativeQuantity},
		{"negative price", func(b *BOQItem) { b.UnitPrice = -0.01 }, ErrNegativePrice},
		{"negative cogs", func(b *BOQItem) { b.UnitCOGS = fptr(-5) }, ErrNegativeCost},
		{"unknown frequency", func(b *BOQItem) { b.Frequency = "weekly" }, ErrInvalidFrequency},
		{"month too low", func(b *BOQItem) { b.StartMonth = iptr(0) }, ErrInvalidMonth},
		{"month too high", func(b *BOQItem) { b.StartMonth = iptr(13) }, ErrInvalidMonth},
		{"bad category", func(b *BOQItem) { c := "retail"; b.Category = &c }, ErrInvalidCategory},
		{"good category", func(b *BOQItem) { c := "freight"; b.Category = &c }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := validBOQItem()
			tt.mutate(&item)
			err := item.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFrequencyValid(t *testing.T) {
	for _, f := range []Frequency{Once, MonthlyFreq, PerShipment, PerTonne} {
		if !f.Valid() {
			t.Errorf("%q should be valid", f)
		}
	}
	for _, f := range []Frequency{"", "daily", "MONTHLY"} {
		if f.Valid() {
			t.Errorf("%q should be invalid", f)
		}
	}
}

func TestFrequencySingleShot(t *testing.T) {
	if MonthlyFreq.SingleShot() {
		t.Error("monthly must not be single-shot")
	}
	for _, f := range []Frequency{Once, PerShipment, PerTonne} {
		if !f.SingleShot() {
			t.Errorf("%q must be single-shot", f)
		}
	}
}

func TestScenarioServiceValidate(t *testing.T) {
	svc := ScenarioService{Name: "logistics", Quantity: 1, UnitCost: 200}
	if err := svc.Validate(); err != nil {
		t.Errorf("valid service: %v", err)
	}
	svc.UnitCost = -1
	if !errors.Is(svc.Validate(), ErrNegativeCost) {
		t.Error("want ErrNegativeCost")
	}
}

func TestCapexItemValidate(t *testing.T) {
	c := CapexItem{Name: "silo", Amount: 100000, Year: 2025, Month: 6}
	if err := c.Validate(); err != nil {
		t.Errorf("valid capex: %v", err)
	}
	c.Month = 0
	if !errors.Is(c.Validate(), ErrInvalidMonth) {
		t.Error("want ErrInvalidMonth")
	}
}

func TestOpexItemValidate(t *testing.T) {
	o := OpexItem{Name: "warehouse rent", MonthlyAmount: 3000}
	if err := o.Validate(); err != nil {
		t.Errorf("valid opex: %v", err)
	}
	o.Name = ""
	if !errors.Is(o.Validate(), ErrEmptyName) {
		t.Error("want ErrEmptyName")
	}
}
