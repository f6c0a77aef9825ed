// Handlers for the per-scenario cost lines: external services, capex
// and opex. Plain CRUD against storage; the engine reads the same rows.
package http

import (
	"net/http"

	"scenplan/internal/core"
)

// scenarioAndItem pulls both path IDs, writing the error response on
// failure.
func scenarioAndItem(w http.ResponseWriter, r *http.Request) (scenarioID, itemID int64, ok bool) {
	scenarioID, err := PathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return 0, 0, false
	}
	itemID, err = PathID(r, "itemID")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return 0, 0, false
	}
	return scenarioID, itemID, true
}

// Services

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if _, err := s.repo.GetScenario(r.Context(), id); err != nil {
		FromError(err).Write(w)
		return
	}

	rows, err := s.repo.ListServices(r.Context(), id, QueryBool(r, "only_active", false))
	if err != nil {
		FromError(err).Write(w)
		return
	}
	if rows == nil {
		rows = []core.ScenarioService{}
	}
	NewJSONResponse().Body(rows).Write(w)
}

func (s *Server) handleCreateService(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	var row core.ScenarioService
	if err := DecodeJSON(r, &row); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	row.ScenarioID = id
	if err := row.Validate(); err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	if _, err := s.repo.GetScenario(r.Context(), id); err != nil {
		FromError(err).Write(w)
		return
	}

	created, err := s.repo.CreateService(r.Context(), row)
	if err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(created).Write(w)
}

func (s *Server) handleUpdateService(w http.ResponseWriter, r *http.Request) {
	scenarioID, itemID, ok := scenarioAndItem(w, r)
	if !ok {
		return
	}

	var row core.ScenarioService
	if err := DecodeJSON(r, &row); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	row.ID = itemID
	row.ScenarioID = scenarioID
	if err := row.Validate(); err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	if err := s.repo.UpdateService(r.Context(), row); err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Body(row).Write(w)
}

func (s *Server) handleDeleteService(w http.ResponseWriter, r *http.Request) {
	scenarioID, itemID, ok := scenarioAndItem(w, r)
	if !ok {
		return
	}
	if err := s.repo.DeleteService(r.Context(), scenarioID, itemID); err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// Capex

func (s *Server) handleListCapex(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if _, err := s.repo.GetScenario(r.Context(), id); err != nil {
		FromError(err).Write(w)
		return
	}

	rows, err := s.repo.ListCapex(r.Context(), id, QueryBool(r, "only_active", false))
	if err != nil {
		FromError(err).Write(w)
		return
	}
	if rows == nil {
		rows = []core.CapexItem{}
	}
	NewJSONResponse().Body(rows).Write(w)
}

func (s *Server) handleCreateCapex(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	var row core.CapexItem
	if err := DecodeJSON(r, &row); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	row.ScenarioID = id
	if err := row.Validate(); err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	if _, err := s.repo.GetScenario(r.Context(), id); err != nil {
		FromError(err).Write(w)
		return
	}

	created, err := s.repo.CreateCapex(r.Context(), row)
	if err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(created).Write(w)
}

func (s *Server) handleUpdateCapex(w http.ResponseWriter, r *http.Request) {
	scenarioID, itemID, ok := scenarioAndItem(w, r)
	if !ok {
		return
	}

	var row core.CapexItem
	if err := DecodeJSON(r, &row); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	row.ID = itemID
	row.ScenarioID = scenarioID
	if err := row.Validate(); err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	if err := s.repo.UpdateCapex(r.Context(), row); err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Body(row).Write(w)
}

func (s *Server) handleDeleteCapex(w http.ResponseWriter, r *http.Request) {
	scenarioID, itemID, ok := scenarioAndItem(w, r)
	if !ok {
		return
	}
	if err := s.repo.DeleteCapex(r.Context(), scenarioID, itemID); err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// Opex

func (s *Server) handleListOpex(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if _, err := s.repo.GetScenario(r.Context(), id); err != nil {
		FromError(err).Write(w)
		return
	}

	rows, err := s.repo.ListOpex(r.Context(), id, QueryBool(r, "only_active", false))
	if err != nil {
		FromError(err).Write(w)
		return
	}
	if rows == nil {
		rows = []core.OpexItem{}
	}
	NewJSONResponse().Body(rows).Write(w)
}

func (s *Server) handleCreateOpex(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	var row core.OpexItem
	if err := DecodeJSON(r, &row); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	row.ScenarioID = id
	if err := row.Validate(); err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	if _, err := s.repo.GetScenario(r.Context(), id); err != nil {
		FromError(err).Write(w)
		return
	}

	created, err := s.repo.CreateOpex(r.Context(), row)
	if err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(created).Write(w)
}

func (s *Server) handleUpdateOpex(w http.ResponseWriter, r *http.Request) {
	scenarioID, itemID, ok := scenarioAndItem(w, r)
	if !ok {
		return
	}

	var row core.OpexItem
	if err := DecodeJSON(r, &row); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	row.ID = itemID
	row.ScenarioID = scenarioID
	if err := row.Validate(); err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	if err := s.repo.UpdateOpex(r.Context(), row); err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Body(row).Write(w)
}

func (s *Server) handleDeleteOpex(w http.ResponseWriter, r *http.Request) {
	scenarioID, itemID, ok := scenarioAndItem(w, r)
	if !ok {
		return
	}
	if err := s.repo.DeleteOpex(r.Context(), scenarioID, itemID); err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
