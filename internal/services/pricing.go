// Package services holds the business logic between the HTTP layer and
// storage: BOQ orchestration, catalog price/cost resolution, workflow
// gating and the financial engine.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"scenplan/internal/core"
	"scenplan/internal/storage"
)

// ErrNoMatch is returned when no book entry can be resolved for a
// product. Callers treat it as "leave the field empty", not a failure.
var ErrNoMatch = errors.New("no matching book entry")

// CatalogService resolves prices and costs from the book tables.
type CatalogService struct {
	storage *storage.SQLiteRepository
}

func NewCatalogService(storage *storage.SQLiteRepository) *CatalogService {
	return &CatalogService{storage: storage}
}

// candidate is the book-agnostic view the cascade tiers operate on.
type candidate struct {
	bookDefault bool
	bookActive  bool
	validFrom   *string
	validTo     *string
	priceTerm   *string
}

// tier is one rung of the resolution cascade. Candidates arrive ordered
// default-book-first, newest-entry-first, so the first accepted one wins.
type tier func(c candidate, onDate string, term string) bool

// resolutionTiers orders the cascade: the default active book within its
// validity window, then any active book within the window, then the
// newest active entry ignoring the window entirely.
var resolutionTiers = []tier{
	func(c candidate, onDate, term string) bool {
		return c.bookDefault && c.bookActive && withinWindow(c, onDate) && termMatches(c, term)
	},
	func(c candidate, onDate, term string) bool {
		return c.bookActive && withinWindow(c, onDate) && termMatches(c, term)
	},
	func(c candidate, _, term string) bool {
		return c.bookActive && termMatches(c, term)
	},
}

func withinWindow(c candidate, onDate string) bool {
	if onDate == "" {
		return true
	}
	if c.validFrom != nil && *c.validFrom > onDate {
		return false
	}
	if c.validTo != nil && *c.validTo < onDate {
		return false
	}
	return true
}

func termMatches(c candidate, term string) bool {
	if term == "" {
		return true
	}
	return c.priceTerm != nil && *c.priceTerm == term
}

// BestPrice resolves the selling price of a product on a date
// (YYYY-MM-DD, empty for today), optionally pinned to a price term.
func (s *CatalogService) BestPrice(ctx context.Context, productID int64, onDate, term string) (core.PriceBookEntry, error) {
	if onDate == "" {
		onDate = time.Now().UTC().Format("2006-01-02")
	}

	candidates, err := s.storage.ListPriceCandidates(ctx, productID)
	if err != nil {
		return core.PriceBookEntry{}, fmt.Errorf("best price: %w", err)
	}

	for _, accept := range resolutionTiers {
		for _, pc := range candidates {
			c := candidate{
				bookDefault: pc.BookDefault,
				bookActive:  pc.BookActive,
				validFrom:   pc.Entry.ValidFrom,
				validTo:     pc.Entry.ValidTo,
				priceTerm:   pc.Entry.PriceTerm,
			}
			if accept(c, onDate, term) {
				return pc.Entry, nil
			}
		}
	}
	return core.PriceBookEntry{}, ErrNoMatch
}

// BestCost resolves the unit COGS of a product through the same cascade
// over the cost books. Cost entries carry no term.
func (s *CatalogService) BestCost(ctx context.Context, productID int64, onDate string) (core.CostBookEntry, error) {
	if onDate == "" {
		onDate = time.Now().UTC().Format("2006-01-02")
	}

	candidates, err := s.storage.ListCostCandidates(ctx, productID)
	if err != nil {
		return core.CostBookEntry{}, fmt.Errorf("best cost: %w", err)
	}

	for _, accept := range resolutionTiers {
		for _, cc := range candidates {
			c := candidate{
				bookDefault: cc.BookDefault,
				bookActive:  cc.BookActive,
				validFrom:   cc.Entry.ValidFrom,
				validTo:     cc.Entry.ValidTo,
			}
			if accept(c, onDate, "") {
				return cc.Entry, nil
			}
		}
	}
	return core.CostBookEntry{}, ErrNoMatch
}
