package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Period is a calendar year-month bucket, the aggregation key for all
// monthly schedules. Month is 1-12.
type Period struct {
	Year  int
	Month int
}

// NewPeriod builds a Period from a zero-based linear month index
// (year*12 + month-1). Floor division keeps rollover correct for
// negative deltas as well.
func NewPeriod(index int) Period {
	y := index / 12
	m := index % 12
	if m < 0 {
		m += 12
		y--
	}
	return Period{Year: y, Month: m + 1}
}

// Index returns the zero-based linear month index of the period.
func (p Period) Index() int {
	return p.Year*12 + (p.Month - 1)
}

// Add returns the period delta calendar months away, rolling over year
// boundaries in either direction.
func (p Period) Add(delta int) Period {
	return NewPeriod(p.Index() + delta)
}

// Before reports whether p sorts strictly before q by (year, month).
// String comparison of keys is not enough once years change magnitude,
// so ordering is always numeric.
func (p Period) Before(q Period) bool {
	if p.Year != q.Year {
		return p.Year < q.Year
	}
	return p.Month < q.Month
}

// Key returns the canonical sortable "YYYY-MM" form.
func (p Period) Key() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// ParsePeriod parses a canonical "YYYY-MM" key.
func ParsePeriod(s string) (Period, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "-", 2)
	if len(parts) != 2 {
		return Period{}, fmt.Errorf("invalid period %q: want YYYY-MM", s)
	}
	y, err := strconv.Atoi(parts[0])
	if err != nil {
		return Period{}, fmt.Errorf("invalid period year %q", parts[0])
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 1 || m > 12 {
		return Period{}, fmt.Errorf("invalid period month %q", parts[1])
	}
	return Period{Year: y, Month: m}, nil
}

// MonthsBetween returns the signed number of calendar months from p to q.
func MonthsBetween(p, q Period) int {
	return q.Index() - p.Index()
}
