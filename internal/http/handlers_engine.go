package http

import (
	"net/http"

	"scenplan/internal/core"
)

// handleRunEngine queues an asynchronous engine run and answers 202
// with the queued run record.
func (s *Server) handleRunEngine(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	run, err := s.engine.QueueRun(r.Context(), id)
	if err != nil {
		FromError(err).Write(w)
		return
	}

	// A fresh run makes any cached facts stale.
	s.caches.Facts.Delete(factsKey(id, ""))
	for _, series := range []string{
		core.SeriesRevenue, core.SeriesCOGS, core.SeriesServices,
		core.SeriesCapex, core.SeriesOpex, core.SeriesCashIn,
	} {
		s.caches.Facts.Delete(factsKey(id, series))
	}

	NewJSONResponse().Status(http.StatusAccepted).Body(run).Write(w)
}

func (s *Server) handleListEngineRuns(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	runs, err := s.engine.ListRuns(r.Context(), id)
	if err != nil {
		FromError(err).Write(w)
		return
	}
	if runs == nil {
		runs = []core.EngineRun{}
	}
	NewJSONResponse().Body(runs).Write(w)
}

// handleEngineFacts serves the fact rows of the latest successful run,
// optionally filtered to one series via ?series=.
func (s *Server) handleEngineFacts(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	series := QueryString(r, "series")

	key := factsKey(id, series)
	if resp, ok := s.caches.Facts.Get(key); ok {
		NewJSONResponse().Header("X-Cache", "hit").Body(resp).Write(w)
		return
	}

	run, facts, err := s.engine.LatestFacts(r.Context(), id, series)
	if err != nil {
		FromError(err).Write(w)
		return
	}
	if facts == nil {
		facts = []core.EngineFact{}
	}

	resp := EngineFactsResponse{Run: run, Facts: facts}
	s.caches.Facts.Set(key, resp)
	NewJSONResponse().Body(resp).Write(w)
}
