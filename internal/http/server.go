package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"scenplan/internal/cache"
	"scenplan/internal/core"
	"scenplan/internal/middleware/ratelimit"
	"scenplan/internal/middleware/security"
	"scenplan/internal/middleware/trace"
	"scenplan/internal/services"
	"scenplan/internal/storage"
)

// EngineFactsResponse pairs a run with its fact rows; the shape served
// by the engine-facts endpoint and cached between requests.
type EngineFactsResponse struct {
	Run   core.EngineRun    `json:"run"`
	Facts []core.EngineFact `json:"facts"`
}

// Caches bundles the response caches shared between the server and the
// services that invalidate them on writes.
type Caches struct {
	Schedule *cache.LRUCache[core.Schedule]
	Facts    *cache.LRUCache[EngineFactsResponse]
	manager  *cache.Manager
}

// NewCaches builds both caches and starts periodic expiry cleanup.
func NewCaches(size int, ttl time.Duration) *Caches {
	c := &Caches{
		Schedule: cache.NewLRUCache[core.Schedule](size, ttl),
		Facts:    cache.NewLRUCache[EngineFactsResponse](size, ttl),
		manager:  cache.NewManager(),
	}
	c.manager.Register(c.Schedule)
	c.manager.Register(c.Facts)
	c.manager.StartCleanup(10 * time.Minute)
	return c
}

func scheduleKey(scenarioID int64) string {
	return "schedule:" + strconv.FormatInt(scenarioID, 10)
}

func factsKey(scenarioID int64, series string) string {
	return "facts:" + strconv.FormatInt(scenarioID, 10) + ":" + series
}

// InvalidateSchedule implements services.ScheduleInvalidator.
func (c *Caches) InvalidateSchedule(scenarioID int64) {
	c.Schedule.Delete(scheduleKey(scenarioID))
}

// Stop terminates the cleanup goroutine.
func (c *Caches) Stop() {
	c.manager.Stop()
}

type Server struct {
	http.Server

	repo     *storage.SQLiteRepository
	boq      *services.BOQService
	workflow *services.WorkflowService
	engine   *services.EngineService
	catalog  *services.CatalogService

	caches  *Caches
	limiter *ratelimit.Limiter

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(
	addr string,
	repo *storage.SQLiteRepository,
	boq *services.BOQService,
	workflow *services.WorkflowService,
	engine *services.EngineService,
	catalog *services.CatalogService,
	caches *Caches,
) *Server {
	mux := http.NewServeMux()

	s := &Server{
		repo:     repo,
		boq:      boq,
		workflow: workflow,
		engine:   engine,
		catalog:  catalog,
		caches:   caches,
		limiter:  ratelimit.NewLimiter(ratelimit.DefaultConfig()),
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	// Scenarios
	mux.HandleFunc("GET /scenarios", s.handleListScenarios)
	mux.HandleFunc("POST /scenarios", s.handleCreateScenario)
	mux.HandleFunc("GET /scenarios/{id}", s.handleGetScenario)
	mux.HandleFunc("PUT /scenarios/{id}", s.handleUpdateScenario)
	mux.HandleFunc("DELETE /scenarios/{id}", s.handleDeleteScenario)

	// BOQ
	mux.HandleFunc("GET /scenarios/{id}/boq", s.handleListBOQ)
	mux.HandleFunc("POST /scenarios/{id}/boq", s.handleCreateBOQ)
	mux.HandleFunc("POST /scenarios/{id}/boq/bulk", s.handleBulkBOQ)
	mux.HandleFunc("GET /scenarios/{id}/boq/schedule", s.handleBOQSchedule)
	mux.HandleFunc("POST /scenarios/{id}/boq/mark-ready", s.handleMarkBOQReady)
	mux.HandleFunc("PUT /scenarios/{id}/boq/{itemID}", s.handleUpdateBOQ)
	mux.HandleFunc("DELETE /scenarios/{id}/boq/{itemID}", s.handleDeleteBOQ)

	// Workflow
	mux.HandleFunc("GET /scenarios/{id}/workflow", s.handleGetWorkflow)
	mux.HandleFunc("POST /scenarios/{id}/workflow/{stage}/ready", s.handleMarkStageReady)
	mux.HandleFunc("POST /scenarios/{id}/workflow/reset", s.handleResetWorkflow)

	// Cost lines
	mux.HandleFunc("GET /scenarios/{id}/services", s.handleListServices)
	mux.HandleFunc("POST /scenarios/{id}/services", s.handleCreateService)
	mux.HandleFunc("PUT /scenarios/{id}/services/{itemID}", s.handleUpdateService)
	mux.HandleFunc("DELETE /scenarios/{id}/services/{itemID}", s.handleDeleteService)
	mux.HandleFunc("GET /scenarios/{id}/capex", s.handleListCapex)
	mux.HandleFunc("POST /scenarios/{id}/capex", s.handleCreateCapex)
	mux.HandleFunc("PUT /scenarios/{id}/capex/{itemID}", s.handleUpdateCapex)
	mux.HandleFunc("DELETE /scenarios/{id}/capex/{itemID}", s.handleDeleteCapex)
	mux.HandleFunc("GET /scenarios/{id}/opex", s.handleListOpex)
	mux.HandleFunc("POST /scenarios/{id}/opex", s.handleCreateOpex)
	mux.HandleFunc("PUT /scenarios/{id}/opex/{itemID}", s.handleUpdateOpex)
	mux.HandleFunc("DELETE /scenarios/{id}/opex/{itemID}", s.handleDeleteOpex)

	// Catalog
	mux.HandleFunc("GET /products", s.handleListProducts)
	mux.HandleFunc("POST /products", s.handleCreateProduct)
	mux.HandleFunc("GET /products/{id}", s.handleGetProduct)
	mux.HandleFunc("PUT /products/{id}", s.handleUpdateProduct)
	mux.HandleFunc("DELETE /products/{id}", s.handleDeleteProduct)
	mux.HandleFunc("GET /products/{id}/best-price", s.handleBestPrice)
	mux.HandleFunc("GET /products/{id}/best-cost", s.handleBestCost)
	mux.HandleFunc("GET /price-terms", s.handleListPriceTerms)
	mux.HandleFunc("POST /price-terms", s.handleCreatePriceTerm)
	mux.HandleFunc("GET /price-books", s.handleListPriceBooks)
	mux.HandleFunc("POST /price-books", s.handleCreatePriceBook)
	mux.HandleFunc("POST /price-books/{id}/entries", s.handleCreatePriceBookEntry)
	mux.HandleFunc("GET /cost-books", s.handleListCostBooks)
	mux.HandleFunc("POST /cost-books", s.handleCreateCostBook)
	mux.HandleFunc("POST /cost-books/{id}/entries", s.handleCreateCostBookEntry)

	// Engine
	mux.HandleFunc("POST /scenarios/{id}/run-engine", s.handleRunEngine)
	mux.HandleFunc("GET /scenarios/{id}/engine-runs", s.handleListEngineRuns)
	mux.HandleFunc("GET /scenarios/{id}/engine-facts", s.handleEngineFacts)

	headers := security.NewHeadersMiddleware(security.APIHeadersConfig())
	tracer := trace.NewMiddleware(ClientIP)
	limited := s.limiter.Middleware(ClientIP, rateLimited)

	s.Addr = addr
	s.Handler = tracer.Middleware(headers.Middleware(limited(mux)))
	return s
}

// rateLimited is the rate limit rejection handler; the limiter itself
// only counts non-safe methods.
func rateLimited(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", "60")
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
}

// Shutdown stops background routines and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		if s.caches != nil {
			s.caches.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.repo.ListScenarios(r.Context(), ""); err != nil {
		ErrorResponse(http.StatusServiceUnavailable, "database unavailable").Write(w)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
