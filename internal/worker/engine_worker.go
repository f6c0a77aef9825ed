// Package worker consumes engine run messages and executes them against
// the shared engine service, optionally exporting results to Sheets.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"scenplan/internal/amqp"
	"scenplan/internal/core"
	"scenplan/internal/export"
	"scenplan/internal/services"
	"scenplan/internal/storage"
)

// EngineWorker executes queued scenario runs delivered over AMQP.
type EngineWorker struct {
	storage  *storage.SQLiteRepository
	engine   *services.EngineService
	exporter *export.SheetsExporter
}

// NewEngineWorker creates a worker. The exporter is optional; nil
// disables spreadsheet export.
func NewEngineWorker(storage *storage.SQLiteRepository, engine *services.EngineService, exporter *export.SheetsExporter) *EngineWorker {
	return &EngineWorker{
		storage:  storage,
		engine:   engine,
		exporter: exporter,
	}
}

// HandleRunMessage processes one engine run message. Returning an error
// requeues the message; export failures only log, since the run itself
// is already stored.
func (w *EngineWorker) HandleRunMessage(ctx context.Context, msg *amqp.EngineRunMessage) error {
	slog.InfoContext(ctx, "Processing engine run message",
		"run_id", msg.RunID,
		"scenario_id", msg.ScenarioID)

	if err := w.engine.ExecuteRun(ctx, msg.RunID, msg.ScenarioID); err != nil {
		return fmt.Errorf("execute run %d: %w", msg.RunID, err)
	}

	w.exportRun(ctx, msg.RunID, msg.ScenarioID)
	return nil
}

// StartupRequeueCheck executes runs that were queued but never
// delivered, e.g. after a broker outage or worker downtime.
func (w *EngineWorker) StartupRequeueCheck(ctx context.Context) error {
	queued, err := w.storage.ListQueuedRuns(ctx, 100)
	if err != nil {
		return fmt.Errorf("list queued runs: %w", err)
	}
	if len(queued) == 0 {
		slog.InfoContext(ctx, "No stale queued runs on startup")
		return nil
	}

	slog.InfoContext(ctx, "Recovering stale queued runs", "count", len(queued))

	recovered := 0
	for _, run := range queued {
		if err := w.engine.ExecuteRun(ctx, run.ID, run.ScenarioID); err != nil {
			slog.ErrorContext(ctx, "Failed to recover queued run",
				"run_id", run.ID, "error", err)
			continue
		}
		w.exportRun(ctx, run.ID, run.ScenarioID)
		recovered++
	}

	slog.InfoContext(ctx, "Startup recovery completed",
		"total", len(queued),
		"recovered", recovered)
	return nil
}

func (w *EngineWorker) exportRun(ctx context.Context, runID, scenarioID int64) {
	if w.exporter == nil {
		return
	}

	scenario, err := w.storage.GetScenario(ctx, scenarioID)
	if err != nil {
		slog.ErrorContext(ctx, "Export skipped, scenario unavailable",
			"run_id", runID, "error", err)
		return
	}
	run, err := w.storage.GetEngineRun(ctx, runID)
	if err != nil {
		slog.ErrorContext(ctx, "Export skipped, run unavailable",
			"run_id", runID, "error", err)
		return
	}
	if run.Status != core.RunSucceeded {
		return
	}
	facts, err := w.storage.ListEngineFacts(ctx, runID, "")
	if err != nil {
		slog.ErrorContext(ctx, "Export skipped, facts unavailable",
			"run_id", runID, "error", err)
		return
	}

	if err := w.exporter.ExportRun(ctx, scenario, run, facts); err != nil {
		slog.ErrorContext(ctx, "Spreadsheet export failed",
			"run_id", runID, "error", err)
	}
}
