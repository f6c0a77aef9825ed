package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"scenplan/internal/core"
	"scenplan/internal/storage"
)

// ErrNoActiveItems is returned by MarkBOQReady when a scenario has no
// active BOQ rows to gate on.
var ErrNoActiveItems = errors.New("scenario has no active BOQ items")

// ScheduleInvalidator is notified after any BOQ write so cached
// schedule previews for the scenario can be dropped.
type ScheduleInvalidator interface {
	InvalidateSchedule(scenarioID int64)
}

// BOQService orchestrates BOQ writes: validation, catalog autofill,
// persistence and cache invalidation.
type BOQService struct {
	storage     *storage.SQLiteRepository
	catalog     *CatalogService
	invalidator ScheduleInvalidator
}

func NewBOQService(storage *storage.SQLiteRepository, catalog *CatalogService, invalidator ScheduleInvalidator) *BOQService {
	return &BOQService{
		storage:     storage,
		catalog:     catalog,
		invalidator: invalidator,
	}
}

// autofill snapshots the price term and unit COGS from the catalog when
// the row links a product and leaves those fields empty. Resolution
// failures are logged and skipped; a missing book must never block a
// BOQ write.
func (s *BOQService) autofill(ctx context.Context, item *core.BOQItem) {
	if item.ProductID == nil || s.catalog == nil {
		return
	}

	if item.PriceTerm == nil || *item.PriceTerm == "" {
		entry, err := s.catalog.BestPrice(ctx, *item.ProductID, "", "")
		switch {
		case err == nil && entry.PriceTerm != nil:
			item.PriceTerm = entry.PriceTerm
		case err != nil && !errors.Is(err, ErrNoMatch):
			slog.WarnContext(ctx, "Price term snapshot failed",
				"product_id", *item.ProductID, "error", err)
		}
	}

	if item.UnitCOGS == nil {
		entry, err := s.catalog.BestCost(ctx, *item.ProductID, "")
		switch {
		case err == nil:
			cost := entry.UnitCost
			item.UnitCOGS = &cost
		case !errors.Is(err, ErrNoMatch):
			slog.WarnContext(ctx, "Unit COGS autofill failed",
				"product_id", *item.ProductID, "error", err)
		}
	}
}

func (s *BOQService) invalidate(scenarioID int64) {
	if s.invalidator != nil {
		s.invalidator.InvalidateSchedule(scenarioID)
	}
}

func (s *BOQService) List(ctx context.Context, scenarioID int64, onlyActive bool) ([]core.BOQItem, error) {
	if _, err := s.storage.GetScenario(ctx, scenarioID); err != nil {
		return nil, err
	}
	return s.storage.ListBOQItems(ctx, scenarioID, onlyActive)
}

func (s *BOQService) Create(ctx context.Context, item core.BOQItem) (core.BOQItem, error) {
	if err := item.Validate(); err != nil {
		return core.BOQItem{}, err
	}
	if _, err := s.storage.GetScenario(ctx, item.ScenarioID); err != nil {
		return core.BOQItem{}, err
	}

	s.autofill(ctx, &item)

	created, err := s.storage.CreateBOQItem(ctx, item)
	if err != nil {
		return core.BOQItem{}, fmt.Errorf("create boq item: %w", err)
	}
	s.invalidate(item.ScenarioID)
	return created, nil
}

func (s *BOQService) Update(ctx context.Context, item core.BOQItem) (core.BOQItem, error) {
	if err := item.Validate(); err != nil {
		return core.BOQItem{}, err
	}

	// The row must already belong to the scenario in the URL.
	existing, err := s.storage.GetBOQItem(ctx, item.ID)
	if err != nil {
		return core.BOQItem{}, err
	}
	if existing.ScenarioID != item.ScenarioID {
		return core.BOQItem{}, storage.ErrNotFound
	}

	s.autofill(ctx, &item)

	if err := s.storage.UpdateBOQItem(ctx, item); err != nil {
		return core.BOQItem{}, err
	}
	s.invalidate(item.ScenarioID)
	return item, nil
}

func (s *BOQService) Delete(ctx context.Context, scenarioID, id int64) error {
	if err := s.storage.DeleteBOQItem(ctx, scenarioID, id); err != nil {
		return err
	}
	s.invalidate(scenarioID)
	return nil
}

// BulkAppend validates and autofills every row, then inserts them in one
// transaction. The first invalid row rejects the whole batch.
func (s *BOQService) BulkAppend(ctx context.Context, scenarioID int64, items []core.BOQItem) ([]core.BOQItem, error) {
	if _, err := s.storage.GetScenario(ctx, scenarioID); err != nil {
		return nil, err
	}

	for i := range items {
		items[i].ScenarioID = scenarioID
		if err := items[i].Validate(); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		s.autofill(ctx, &items[i])
	}

	created, err := s.storage.BulkInsertBOQItems(ctx, items)
	if err != nil {
		return nil, err
	}
	s.invalidate(scenarioID)
	return created, nil
}

// Schedule builds the monthly preview from the scenario's active rows.
func (s *BOQService) Schedule(ctx context.Context, scenarioID int64) (core.Schedule, error) {
	items, err := s.List(ctx, scenarioID, true)
	if err != nil {
		return core.Schedule{}, err
	}
	return core.Project(items), nil
}

// MarkBOQReady gates the BOQ stage: at least one active row must exist,
// then the workflow advances to the TWC stage.
func (s *BOQService) MarkBOQReady(ctx context.Context, workflow *WorkflowService, scenarioID int64) (WorkflowStatus, error) {
	n, err := s.storage.CountActiveBOQItems(ctx, scenarioID)
	if err != nil {
		return WorkflowStatus{}, err
	}
	if n == 0 {
		return WorkflowStatus{}, ErrNoActiveItems
	}
	return workflow.MarkReady(ctx, scenarioID, core.StageBOQ)
}
