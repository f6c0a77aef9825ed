package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"scenplan/internal/amqp"
	"scenplan/internal/core"
	"scenplan/internal/storage"
)

// EngineService queues scenario runs and executes them. Queueing
// happens in the API process; execution in the worker, which shares
// this service.
type EngineService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewEngineService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *EngineService {
	return &EngineService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// QueueRun records a queued run and hands it to the worker. A failed
// publish marks the run failed immediately rather than leaving it
// queued forever.
func (s *EngineService) QueueRun(ctx context.Context, scenarioID int64) (core.EngineRun, error) {
	if _, err := s.storage.GetScenario(ctx, scenarioID); err != nil {
		return core.EngineRun{}, err
	}

	run, err := s.storage.CreateEngineRun(ctx, scenarioID)
	if err != nil {
		return core.EngineRun{}, err
	}

	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, running engine inline", "run_id", run.ID)
		if err := s.ExecuteRun(ctx, run.ID, scenarioID); err != nil {
			return core.EngineRun{}, err
		}
		return s.storage.GetEngineRun(ctx, run.ID)
	}

	if err := s.amqpClient.PublishEngineRun(ctx, run.ID, scenarioID); err != nil {
		if markErr := s.storage.MarkEngineRun(ctx, run.ID, core.RunFailed, err.Error()); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark unpublished run", "run_id", run.ID, "error", markErr)
		}
		return core.EngineRun{}, fmt.Errorf("queue engine run: %w", err)
	}
	return run, nil
}

// series is a sparse monthly vector keyed by period.
type series map[core.Period]float64

// ExecuteRun computes every fact series for a scenario and stores the
// result, marking the run terminal either way.
func (s *EngineService) ExecuteRun(ctx context.Context, runID, scenarioID int64) error {
	if err := s.storage.MarkEngineRun(ctx, runID, core.RunRunning, ""); err != nil {
		return err
	}

	facts, err := s.computeFacts(ctx, scenarioID)
	if err != nil {
		if markErr := s.storage.MarkEngineRun(ctx, runID, core.RunFailed, err.Error()); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark failed run", "run_id", runID, "error", markErr)
		}
		return fmt.Errorf("execute run %d: %w", runID, err)
	}

	for i := range facts {
		facts[i].RunID = runID
	}
	if err := s.storage.ReplaceEngineFacts(ctx, runID, facts); err != nil {
		if markErr := s.storage.MarkEngineRun(ctx, runID, core.RunFailed, err.Error()); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark failed run", "run_id", runID, "error", markErr)
		}
		return err
	}

	return s.storage.MarkEngineRun(ctx, runID, core.RunSucceeded, "")
}

func (s *EngineService) computeFacts(ctx context.Context, scenarioID int64) ([]core.EngineFact, error) {
	scenario, err := s.storage.GetScenario(ctx, scenarioID)
	if err != nil {
		return nil, err
	}

	start := core.Period{Year: scenario.StartYear, Month: scenario.StartMonth}
	horizon := scenario.Months
	if horizon < 1 {
		horizon = 1
	}

	var (
		revenue, cogs   series
		servicesExpense series
		capexSeries     series
		opexSeries      series
	)

	// Section builds are independent reads; run them concurrently.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := s.storage.ListBOQItems(gctx, scenarioID, true)
		if err != nil {
			return err
		}
		revenue, cogs = accrualFromBOQ(items, start, horizon)
		return nil
	})
	g.Go(func() error {
		rows, err := s.storage.ListServices(gctx, scenarioID, true)
		if err != nil {
			return err
		}
		servicesExpense = servicesSchedule(rows, start, horizon)
		return nil
	})
	g.Go(func() error {
		rows, err := s.storage.ListCapex(gctx, scenarioID, true)
		if err != nil {
			return err
		}
		capexSeries = capexSchedule(rows, start, horizon)
		return nil
	})
	g.Go(func() error {
		rows, err := s.storage.ListOpex(gctx, scenarioID, true)
		if err != nil {
			return err
		}
		opexSeries = opexSchedule(rows, start, horizon)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cashIn := applyDSOLag(revenue, scenario.DSODays)

	var facts []core.EngineFact
	facts = appendSeries(facts, core.SeriesRevenue, revenue)
	facts = appendSeries(facts, core.SeriesCOGS, cogs)
	facts = appendSeries(facts, core.SeriesServices, servicesExpense)
	facts = appendSeries(facts, core.SeriesCapex, capexSeries)
	facts = appendSeries(facts, core.SeriesOpex, opexSeries)
	facts = appendSeries(facts, core.SeriesCashIn, cashIn)
	return facts, nil
}

// accrualFromBOQ builds the monthly revenue and COGS accrual vectors.
// Monthly items book their full amount each month of their span; the
// shipment and tonnage frequencies book a total divided evenly over the
// in-window span. A row without an explicit duration runs for the whole
// scenario horizon.
func accrualFromBOQ(items []core.BOQItem, start core.Period, horizon int) (series, series) {
	revenue := make(series)
	cogs := make(series)

	for _, item := range items {
		itemStart, ok := item.StartPeriod()
		if !ok {
			itemStart = start
		}

		var unitCost float64
		if item.UnitCOGS != nil {
			unitCost = *item.UnitCOGS
		}
		lineRevenue := item.Quantity * item.UnitPrice
		lineCost := item.Quantity * unitCost

		rowMonths := horizon
		if item.Months != nil {
			rowMonths = *item.Months
		}
		offset, span, ok := clampWindow(start, itemStart, rowMonths, horizon)
		if !ok {
			continue
		}

		switch item.Frequency {
		case core.Once:
			p := start.Add(offset)
			revenue[p] += lineRevenue
			cogs[p] += lineCost
		case core.MonthlyFreq:
			for i := 0; i < span; i++ {
				p := start.Add(offset + i)
				revenue[p] += lineRevenue
				cogs[p] += lineCost
			}
		case core.PerShipment, core.PerTonne:
			perMonthRevenue := lineRevenue / float64(span)
			perMonthCost := lineCost / float64(span)
			for i := 0; i < span; i++ {
				p := start.Add(offset + i)
				revenue[p] += perMonthRevenue
				cogs[p] += perMonthCost
			}
		}
	}
	return revenue, cogs
}

func servicesSchedule(rows []core.ScenarioService, start core.Period, horizon int) series {
	out := make(series)
	for _, row := range rows {
		rowStart := start
		if row.StartYear != nil && row.StartMonth != nil {
			rowStart = core.Period{Year: *row.StartYear, Month: *row.StartMonth}
		}
		rowMonths := horizon
		if row.DurationMonths != nil {
			rowMonths = *row.DurationMonths
		}
		offset, span, ok := clampWindow(start, rowStart, rowMonths, horizon)
		if !ok {
			continue
		}
		monthly := row.Quantity * row.UnitCost
		for i := 0; i < span; i++ {
			out[start.Add(offset+i)] += monthly
		}
	}
	return out
}

func capexSchedule(rows []core.CapexItem, start core.Period, horizon int) series {
	out := make(series)
	for _, row := range rows {
		p := core.Period{Year: row.Year, Month: row.Month}
		offset := core.MonthsBetween(start, p)
		if offset < 0 || offset >= horizon {
			continue
		}
		out[p] += row.Amount
	}
	return out
}

func opexSchedule(rows []core.OpexItem, start core.Period, horizon int) series {
	out := make(series)
	for _, row := range rows {
		rowStart := start
		if row.StartYear != nil && row.StartMonth != nil {
			rowStart = core.Period{Year: *row.StartYear, Month: *row.StartMonth}
		}
		rowMonths := horizon
		if row.DurationMonths != nil && *row.DurationMonths > 0 {
			rowMonths = *row.DurationMonths
		}
		offset, span, ok := clampWindow(start, rowStart, rowMonths, horizon)
		if !ok {
			continue
		}
		for i := 0; i < span; i++ {
			out[start.Add(offset+i)] += row.MonthlyAmount
		}
	}
	return out
}

// clampWindow clamps a row start to the scenario window [start,
// start+horizon) and clips the row's span to what fits. Rows starting
// before the window shift forward to the window start and keep their
// span; rows starting at or past the end report ok=false.
func clampWindow(start, rowStart core.Period, rowMonths, horizon int) (offset, span int, ok bool) {
	offset = core.MonthsBetween(start, rowStart)
	if offset < 0 {
		offset = 0
	}
	if offset >= horizon {
		return 0, 0, false
	}
	if rowMonths < 1 {
		rowMonths = 1
	}
	span = rowMonths
	if span > horizon-offset {
		span = horizon - offset
	}
	return offset, span, true
}

// applyDSOLag shifts each revenue bucket forward by round(dsoDays/30)
// months to model when cash actually lands.
func applyDSOLag(revenue series, dsoDays float64) series {
	lag := int(math.Round(dsoDays / 30))
	if lag < 0 {
		lag = 0
	}
	out := make(series, len(revenue))
	for p, v := range revenue {
		out[p.Add(lag)] += v
	}
	return out
}

func appendSeries(facts []core.EngineFact, name string, s series) []core.EngineFact {
	for p, v := range s {
		facts = append(facts, core.EngineFact{
			Series: name,
			Period: p.Key(),
			Value:  v,
		})
	}
	return facts
}

// LatestFacts serves the facts of the most recent successful run.
func (s *EngineService) LatestFacts(ctx context.Context, scenarioID int64, seriesName string) (core.EngineRun, []core.EngineFact, error) {
	run, err := s.storage.LatestSuccessfulRun(ctx, scenarioID)
	if err != nil {
		return core.EngineRun{}, nil, err
	}
	facts, err := s.storage.ListEngineFacts(ctx, run.ID, seriesName)
	if err != nil {
		return core.EngineRun{}, nil, err
	}
	return run, facts, nil
}

func (s *EngineService) ListRuns(ctx context.Context, scenarioID int64) ([]core.EngineRun, error) {
	if _, err := s.storage.GetScenario(ctx, scenarioID); err != nil {
		return nil, err
	}
	return s.storage.ListEngineRuns(ctx, scenarioID)
}
