package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"scenplan/internal/core"
	"scenplan/internal/services"
	"scenplan/internal/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	caches := NewCaches(16, time.Minute)
	catalog := services.NewCatalogService(repo)
	boq := services.NewBOQService(repo, catalog, caches)
	workflow := services.NewWorkflowService(repo)
	// nil AMQP client makes engine runs execute inline.
	engine := services.NewEngineService(repo, nil)

	srv := NewServer(":0", repo, boq, workflow, engine, catalog, caches)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})

	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any, into any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if into != nil {
		if err := json.NewDecoder(resp.Body).Decode(into); err != nil && err != io.EOF {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp
}

func createScenario(t *testing.T, ts *httptest.Server) core.Scenario {
	t.Helper()

	var scenario core.Scenario
	resp := doJSON(t, http.MethodPost, ts.URL+"/scenarios", map[string]any{
		"business_case": "bc-export",
		"name":          "Base case",
		"start_year":    2024,
		"start_month":   12,
		"months":        24,
		"dso_days":      30,
	}, &scenario)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create scenario: status %d", resp.StatusCode)
	}
	return scenario
}

func monthlyItemPayload() map[string]any {
	return map[string]any{
		"section":     "bulk",
		"item_name":   "urea granular",
		"unit":        "t",
		"quantity":    10,
		"unit_price":  5,
		"unit_cogs":   2,
		"frequency":   "monthly",
		"start_year":  2024,
		"start_month": 12,
		"months":      2,
		"is_active":   true,
	}
}

func TestScenarioCRUD(t *testing.T) {
	ts := newTestServer(t)
	scenario := createScenario(t, ts)

	if scenario.ID == 0 {
		t.Fatal("created scenario has no ID")
	}
	if scenario.WorkflowState != "draft" {
		t.Errorf("workflow_state = %q, want draft", scenario.WorkflowState)
	}

	base := fmt.Sprintf("%s/scenarios/%d", ts.URL, scenario.ID)

	var fetched core.Scenario
	if resp := doJSON(t, http.MethodGet, base, nil, &fetched); resp.StatusCode != http.StatusOK {
		t.Fatalf("get scenario: status %d", resp.StatusCode)
	}
	if fetched.Name != "Base case" || fetched.DSODays != 30 {
		t.Errorf("fetched = %+v", fetched)
	}

	var updated core.Scenario
	resp := doJSON(t, http.MethodPut, base, map[string]any{
		"business_case": "bc-export",
		"name":          "Base case v2",
		"start_year":    2025,
		"start_month":   1,
		"months":        36,
		"dso_days":      45,
	}, &updated)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update scenario: status %d", resp.StatusCode)
	}
	if updated.Name != "Base case v2" || updated.Months != 36 {
		t.Errorf("updated = %+v", updated)
	}

	var listed []core.Scenario
	doJSON(t, http.MethodGet, ts.URL+"/scenarios?business_case=bc-export", nil, &listed)
	if len(listed) != 1 {
		t.Fatalf("listed %d scenarios, want 1", len(listed))
	}

	if resp := doJSON(t, http.MethodDelete, base, nil, nil); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete scenario: status %d", resp.StatusCode)
	}
	if resp := doJSON(t, http.MethodGet, base, nil, nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get deleted scenario: status %d, want 404", resp.StatusCode)
	}
}

func TestScenarioValidation(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/scenarios", map[string]any{
		"name":        "",
		"start_year":  2024,
		"start_month": 1,
		"months":      12,
	}, nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("empty name: status %d, want 422", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/scenarios", map[string]any{
		"name":        "x",
		"start_year":  2024,
		"start_month": 13,
		"months":      12,
	}, nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("month 13: status %d, want 422", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/scenarios", nil, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty body: status %d, want 400", resp.StatusCode)
	}
}

func TestBOQSchedulePreview(t *testing.T) {
	ts := newTestServer(t)
	scenario := createScenario(t, ts)
	base := fmt.Sprintf("%s/scenarios/%d", ts.URL, scenario.ID)

	resp := doJSON(t, http.MethodPost, base+"/boq", monthlyItemPayload(), nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create item: status %d", resp.StatusCode)
	}

	var schedule core.Schedule
	if resp := doJSON(t, http.MethodGet, base+"/boq/schedule", nil, &schedule); resp.StatusCode != http.StatusOK {
		t.Fatalf("schedule: status %d", resp.StatusCode)
	}

	if len(schedule.Periods) != 2 {
		t.Fatalf("got %d periods, want 2", len(schedule.Periods))
	}
	first := schedule.Periods[0]
	if first.Key != "2024-12" || first.Revenue != 50 || first.Cost != 20 || first.Margin != 30 {
		t.Errorf("first period = %+v", first)
	}
	if schedule.Periods[1].Key != "2025-01" {
		t.Errorf("second period key = %q", schedule.Periods[1].Key)
	}
	if schedule.Totals.Revenue != 100 || schedule.Totals.Cost != 40 || schedule.Totals.Margin != 60 {
		t.Errorf("totals = %+v", schedule.Totals)
	}
}

func TestBOQScheduleCacheInvalidation(t *testing.T) {
	ts := newTestServer(t)
	scenario := createScenario(t, ts)
	base := fmt.Sprintf("%s/scenarios/%d", ts.URL, scenario.ID)

	doJSON(t, http.MethodPost, base+"/boq", monthlyItemPayload(), nil)

	// Prime the cache, then confirm the hit.
	doJSON(t, http.MethodGet, base+"/boq/schedule", nil, nil)
	resp := doJSON(t, http.MethodGet, base+"/boq/schedule", nil, nil)
	if resp.Header.Get("X-Cache") != "hit" {
		t.Error("second read should come from cache")
	}

	// Any BOQ write drops the cached preview.
	doJSON(t, http.MethodPost, base+"/boq", monthlyItemPayload(), nil)
	resp = doJSON(t, http.MethodGet, base+"/boq/schedule", nil, nil)
	if resp.Header.Get("X-Cache") == "hit" {
		t.Error("cache should be invalidated after a write")
	}
}

func TestBOQListOnlyActiveFilter(t *testing.T) {
	ts := newTestServer(t)
	scenario := createScenario(t, ts)
	base := fmt.Sprintf("%s/scenarios/%d", ts.URL, scenario.ID)

	doJSON(t, http.MethodPost, base+"/boq", monthlyItemPayload(), nil)
	inactive := monthlyItemPayload()
	inactive["is_active"] = false
	doJSON(t, http.MethodPost, base+"/boq", inactive, nil)

	var items []core.BOQItem
	doJSON(t, http.MethodGet, base+"/boq", nil, &items)
	if len(items) != 2 {
		t.Fatalf("unfiltered list has %d items, want 2", len(items))
	}

	doJSON(t, http.MethodGet, base+"/boq?only_active=true", nil, &items)
	if len(items) != 1 {
		t.Fatalf("only_active list has %d items, want 1", len(items))
	}
	if !items[0].IsActive {
		t.Error("filtered list should contain only active rows")
	}
}

func TestBOQBulkRejectsWholeBatchOnInvalidRow(t *testing.T) {
	ts := newTestServer(t)
	scenario := createScenario(t, ts)
	base := fmt.Sprintf("%s/scenarios/%d", ts.URL, scenario.ID)

	bad := monthlyItemPayload()
	bad["frequency"] = "hourly"
	resp := doJSON(t, http.MethodPost, base+"/boq/bulk", map[string]any{
		"items": []any{monthlyItemPayload(), bad},
	}, nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("bulk with invalid row: status %d, want 422", resp.StatusCode)
	}

	var items []core.BOQItem
	doJSON(t, http.MethodGet, base+"/boq", nil, &items)
	if len(items) != 0 {
		t.Errorf("batch should not be partially applied, found %d items", len(items))
	}
}

func TestWorkflowGating(t *testing.T) {
	ts := newTestServer(t)
	scenario := createScenario(t, ts)
	base := fmt.Sprintf("%s/scenarios/%d", ts.URL, scenario.ID)

	// TWC cannot go first.
	resp := doJSON(t, http.MethodPost, base+"/workflow/twc/ready", nil, nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("twc before boq: status %d, want 422", resp.StatusCode)
	}

	// BOQ needs at least one active row.
	resp = doJSON(t, http.MethodPost, base+"/workflow/boq/ready", nil, nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("boq ready without items: status %d, want 422", resp.StatusCode)
	}

	doJSON(t, http.MethodPost, base+"/boq", monthlyItemPayload(), nil)

	var status services.WorkflowStatus
	resp = doJSON(t, http.MethodPost, base+"/workflow/boq/ready", nil, &status)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("boq ready: status %d", resp.StatusCode)
	}
	if status.State != "boq_ready" || status.CurrentStage != core.StageTWC {
		t.Errorf("status after boq = %+v", status)
	}

	resp = doJSON(t, http.MethodPost, base+"/workflow/twc/ready", nil, &status)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("twc ready: status %d", resp.StatusCode)
	}
	if status.State != "twc_ready" {
		t.Errorf("state = %q, want twc_ready", status.State)
	}

	// Unknown stage is a validation error.
	resp = doJSON(t, http.MethodPost, base+"/workflow/invoicing/ready", nil, nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("unknown stage: status %d, want 422", resp.StatusCode)
	}

	// Reset back to draft.
	resp = doJSON(t, http.MethodPost, base+"/workflow/reset", nil, &status)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset: status %d", resp.StatusCode)
	}
	if status.State != "draft" || status.CurrentStage != core.StageBOQ {
		t.Errorf("status after reset = %+v", status)
	}
}

func TestEngineRunInline(t *testing.T) {
	ts := newTestServer(t)
	scenario := createScenario(t, ts)
	base := fmt.Sprintf("%s/scenarios/%d", ts.URL, scenario.ID)

	doJSON(t, http.MethodPost, base+"/boq", monthlyItemPayload(), nil)

	var run core.EngineRun
	resp := doJSON(t, http.MethodPost, base+"/run-engine", nil, &run)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("run engine: status %d", resp.StatusCode)
	}
	if run.Status != core.RunSucceeded {
		t.Fatalf("inline run status = %q, want succeeded", run.Status)
	}

	var runs []core.EngineRun
	doJSON(t, http.MethodGet, base+"/engine-runs", nil, &runs)
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	if runs[0].FinishedAt == nil {
		t.Error("finished run should have a finish timestamp")
	}

	var facts EngineFactsResponse
	resp = doJSON(t, http.MethodGet, base+"/engine-facts?series=revenue", nil, &facts)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("engine facts: status %d", resp.StatusCode)
	}
	if facts.Run.ID != run.ID {
		t.Errorf("facts run = %d, want %d", facts.Run.ID, run.ID)
	}
	if len(facts.Facts) != 2 {
		t.Fatalf("got %d revenue facts, want 2", len(facts.Facts))
	}
	for _, f := range facts.Facts {
		if f.Series != "revenue" {
			t.Errorf("series filter leaked %q", f.Series)
		}
		if f.Value != 50 {
			t.Errorf("revenue[%s] = %v, want 50", f.Period, f.Value)
		}
	}
}

func TestEngineFactsWithoutRuns(t *testing.T) {
	ts := newTestServer(t)
	scenario := createScenario(t, ts)

	resp := doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/scenarios/%d/engine-facts", ts.URL, scenario.ID), nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("facts without runs: status %d, want 404", resp.StatusCode)
	}
}

func TestCatalogPriceResolution(t *testing.T) {
	ts := newTestServer(t)

	var product core.Product
	resp := doJSON(t, http.MethodPost, ts.URL+"/products", map[string]any{
		"code":      "UREA46",
		"name":      "Urea 46%",
		"uom":       "t",
		"currency":  "USD",
		"is_active": true,
	}, &product)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create product: status %d", resp.StatusCode)
	}

	var book core.PriceBook
	doJSON(t, http.MethodPost, ts.URL+"/price-books", map[string]any{
		"code":       "PB-DEFAULT",
		"name":       "Default book",
		"currency":   "USD",
		"is_default": true,
		"is_active":  true,
	}, &book)

	resp = doJSON(t, http.MethodPost, fmt.Sprintf("%s/price-books/%d/entries", ts.URL, book.ID), map[string]any{
		"product_id": product.ID,
		"unit_price": 315.5,
		"price_term": "FOB",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create entry: status %d", resp.StatusCode)
	}

	var entry core.PriceBookEntry
	resp = doJSON(t, http.MethodGet, fmt.Sprintf("%s/products/%d/best-price", ts.URL, product.ID), nil, &entry)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("best price: status %d", resp.StatusCode)
	}
	if entry.UnitPrice != 315.5 {
		t.Errorf("unit price = %v, want 315.5", entry.UnitPrice)
	}

	// No cost book yet: resolver answers 404, not an error.
	resp = doJSON(t, http.MethodGet, fmt.Sprintf("%s/products/%d/best-cost", ts.URL, product.ID), nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("best cost without books: status %d, want 404", resp.StatusCode)
	}
}

func TestBOQAutofillFromCatalog(t *testing.T) {
	ts := newTestServer(t)
	scenario := createScenario(t, ts)

	var product core.Product
	doJSON(t, http.MethodPost, ts.URL+"/products", map[string]any{
		"code": "MOP60", "name": "MOP 60%", "uom": "t", "currency": "USD", "is_active": true,
	}, &product)

	var costBook core.CostBook
	doJSON(t, http.MethodPost, ts.URL+"/cost-books", map[string]any{
		"code": "CB1", "name": "Plant costs", "currency": "USD", "is_default": true, "is_active": true,
	}, &costBook)
	doJSON(t, http.MethodPost, fmt.Sprintf("%s/cost-books/%d/entries", ts.URL, costBook.ID), map[string]any{
		"product_id": product.ID,
		"unit_cost":  210.0,
		"currency":   "USD",
	}, nil)

	payload := monthlyItemPayload()
	delete(payload, "unit_cogs")
	payload["product_id"] = product.ID

	var item core.BOQItem
	resp := doJSON(t, http.MethodPost, fmt.Sprintf("%s/scenarios/%d/boq", ts.URL, scenario.ID), payload, &item)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create item: status %d", resp.StatusCode)
	}
	if item.UnitCOGS == nil || *item.UnitCOGS != 210 {
		t.Errorf("unit COGS should be autofilled from the cost book, got %v", item.UnitCOGS)
	}
}

func TestPriceTermsSeeded(t *testing.T) {
	ts := newTestServer(t)

	var terms []core.PriceTerm
	doJSON(t, http.MethodGet, ts.URL+"/price-terms", nil, &terms)

	codes := make(map[string]bool, len(terms))
	for _, term := range terms {
		codes[term.Code] = true
	}
	for _, want := range []string{"EXW", "FOB", "CIF", "DDP"} {
		if !codes[want] {
			t.Errorf("seeded incoterm %s missing", want)
		}
	}
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s status = %d", path, resp.StatusCode)
		}
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := resp.Header.Get("Content-Security-Policy"); got == "" {
		t.Error("CSP header missing")
	}
}
