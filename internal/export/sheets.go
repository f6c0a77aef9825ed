// Package export pushes engine run results to Google Sheets so finance
// can review scenarios without touching the API.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"scenplan/internal/core"
)

// SheetsExporter writes one tab per engine run into a spreadsheet.
type SheetsExporter struct {
	svc           *gsheet.Service
	spreadsheetID string
}

// NewSheetsExporter builds an exporter from service-account credentials,
// either inline JSON or a file path.
func NewSheetsExporter(ctx context.Context, spreadsheetID, credentialsFile, credentialsJSON string) (*SheetsExporter, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}

	var creds []byte
	switch {
	case credentialsJSON != "":
		creds = []byte(credentialsJSON)
	case credentialsFile != "":
		var err error
		creds, err = os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &SheetsExporter{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// RunSheetName names the tab holding one run's facts.
func RunSheetName(runID int64) string {
	return fmt.Sprintf("run-%05d", runID)
}

// FactRows converts facts into the cell grid written to the sheet, a
// header row followed by one row per fact.
func FactRows(scenario core.Scenario, facts []core.EngineFact) [][]any {
	rows := make([][]any, 0, len(facts)+1)
	rows = append(rows, []any{"scenario", "series", "period", "value"})
	for _, f := range facts {
		rows = append(rows, []any{scenario.Name, f.Series, f.Period, f.Value})
	}
	return rows
}

// ExportRun creates (or reuses) the run's tab and writes the full fact
// grid starting at A1.
func (e *SheetsExporter) ExportRun(ctx context.Context, scenario core.Scenario, run core.EngineRun, facts []core.EngineFact) error {
	sheetName := RunSheetName(run.ID)

	addReq := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: sheetName},
			},
		}},
	}
	if _, err := e.svc.Spreadsheets.BatchUpdate(e.spreadsheetID, addReq).Context(ctx).Do(); err != nil {
		// Re-exports land on the existing tab.
		if !strings.Contains(err.Error(), "already exists") {
			return fmt.Errorf("add sheet %s: %w", sheetName, err)
		}
	}

	vr := &gsheet.ValueRange{Values: FactRows(scenario, facts)}
	rng := fmt.Sprintf("%s!A1", sheetName)
	if _, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write facts to %s: %w", sheetName, err)
	}

	slog.InfoContext(ctx, "Engine run exported to spreadsheet",
		"run_id", run.ID,
		"scenario_id", scenario.ID,
		"sheet", sheetName,
		"rows", len(facts))
	return nil
}
