// Package core holds the scenario domain types and the monthly schedule
// projector.
//
// The projector turns BOQ line items into a sparse, calendar-indexed
// preview of revenue, cost and margin. It mirrors the engine's accrual
// scheduling but is preview-only: the persisted engine facts remain
// authoritative for any financial figure.
package core

import (
	"math"
	"sort"
)

// ScheduleHorizon caps how many periods a single monthly item may
// populate in a preview, bounding output size regardless of the
// requested duration. Items running longer are truncated silently.
const ScheduleHorizon = 36

type (
	// PeriodAggregate is one row of a projected schedule. Margin is
	// always derived as Revenue - Cost, never stored independently.
	PeriodAggregate struct {
		Period  Period  `json:"-"`
		Key     string  `json:"period"`
		Revenue float64 `json:"revenue"`
		Cost    float64 `json:"cost"`
		Margin  float64 `json:"margin"`
	}

	// ScheduleTotals are the grand totals over all projected periods.
	ScheduleTotals struct {
		Revenue float64 `json:"revenue"`
		Cost    float64 `json:"cost"`
		Margin  float64 `json:"margin"`
	}

	// Schedule is the full projector output: periods in strictly
	// ascending calendar order plus grand totals.
	Schedule struct {
		Periods []PeriodAggregate `json:"periods"`
		Totals  ScheduleTotals    `json:"totals"`
	}
)

// sanitize coerces non-finite values to 0 so malformed inputs never
// propagate NaN or Inf into an aggregate.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Project builds the monthly schedule for a set of BOQ line items.
//
// Items contribute only when active and carrying a fully specified start
// period; everything else is skipped, not rejected. Monthly items spread
// their full per-period amount over max(1, months) consecutive periods,
// capped at ScheduleHorizon. The single-shot frequencies (once,
// per_shipment, per_tonne) land entirely on the start period.
//
// Project is a pure function of its input: no I/O, no shared state, no
// error path. Calling it twice with the same items yields identical
// output.
func Project(items []BOQItem) Schedule {
	type bucket struct {
		revenue float64
		cost    float64
	}
	buckets := make(map[Period]*bucket)

	add := func(p Period, revenue, cost float64) {
		b, ok := buckets[p]
		if !ok {
			b = &bucket{}
			buckets[p] = b
		}
		b.revenue += revenue
		b.cost += cost
	}

	for _, item := range items {
		if !item.IsActive {
			continue
		}
		start, ok := item.StartPeriod()
		if !ok {
			continue
		}

		qty := sanitize(item.Quantity)
		price := sanitize(item.UnitPrice)
		var unitCost float64
		if item.UnitCOGS != nil {
			unitCost = sanitize(*item.UnitCOGS)
		}
		lineRevenue := qty * price
		lineCost := qty * unitCost

		if item.Frequency.SingleShot() {
			add(start, lineRevenue, lineCost)
			continue
		}

		span := 1
		if item.Months != nil && *item.Months > 1 {
			span = *item.Months
		}
		if span > ScheduleHorizon {
			span = ScheduleHorizon
		}
		for i := 0; i < span; i++ {
			add(start.Add(i), lineRevenue, lineCost)
		}
	}

	out := Schedule{Periods: make([]PeriodAggregate, 0, len(buckets))}
	for p, b := range buckets {
		out.Periods = append(out.Periods, PeriodAggregate{
			Period:  p,
			Key:     p.Key(),
			Revenue: b.revenue,
			Cost:    b.cost,
			Margin:  b.revenue - b.cost,
		})
	}
	sort.Slice(out.Periods, func(i, j int) bool {
		return out.Periods[i].Period.Before(out.Periods[j].Period)
	})

	for _, pa := range out.Periods {
		out.Totals.Revenue += pa.Revenue
		out.Totals.Cost += pa.Cost
		out.Totals.Margin += pa.Margin
	}
	return out
}
