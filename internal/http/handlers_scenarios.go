package http

import (
	"net/http"

	"scenplan/internal/core"
)

func (s *Server) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	scenarios, err := s.repo.ListScenarios(r.Context(), QueryString(r, "business_case"))
	if err != nil {
		FromError(err).Write(w)
		return
	}
	if scenarios == nil {
		scenarios = []core.Scenario{}
	}
	NewJSONResponse().Body(scenarios).Write(w)
}

func (s *Server) handleCreateScenario(w http.ResponseWriter, r *http.Request) {
	var scenario core.Scenario
	if err := DecodeJSON(r, &scenario); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := scenario.Validate(); err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	created, err := s.repo.CreateScenario(r.Context(), scenario)
	if err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(created).Write(w)
}

func (s *Server) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	scenario, err := s.repo.GetScenario(r.Context(), id)
	if err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Body(scenario).Write(w)
}

func (s *Server) handleUpdateScenario(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	var scenario core.Scenario
	if err := DecodeJSON(r, &scenario); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	scenario.ID = id
	if err := scenario.Validate(); err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	if err := s.repo.UpdateScenario(r.Context(), scenario); err != nil {
		FromError(err).Write(w)
		return
	}

	updated, err := s.repo.GetScenario(r.Context(), id)
	if err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Body(updated).Write(w)
}

func (s *Server) handleDeleteScenario(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	if err := s.repo.DeleteScenario(r.Context(), id); err != nil {
		FromError(err).Write(w)
		return
	}
	s.caches.InvalidateSchedule(id)
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
