package http

import (
	"net/http"

	"scenplan/internal/core"
)

func (s *Server) handleListBOQ(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	items, err := s.boq.List(r.Context(), id, QueryBool(r, "only_active", false))
	if err != nil {
		FromError(err).Write(w)
		return
	}
	if items == nil {
		items = []core.BOQItem{}
	}
	NewJSONResponse().Body(items).Write(w)
}

func (s *Server) handleCreateBOQ(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	var item core.BOQItem
	if err := DecodeJSON(r, &item); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	item.ScenarioID = id

	created, err := s.boq.Create(r.Context(), item)
	if err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(created).Write(w)
}

func (s *Server) handleUpdateBOQ(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	itemID, err := PathID(r, "itemID")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	var item core.BOQItem
	if err := DecodeJSON(r, &item); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	item.ID = itemID
	item.ScenarioID = id

	updated, err := s.boq.Update(r.Context(), item)
	if err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Body(updated).Write(w)
}

func (s *Server) handleDeleteBOQ(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	itemID, err := PathID(r, "itemID")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	if err := s.boq.Delete(r.Context(), id, itemID); err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

type bulkBOQRequest struct {
	Items []core.BOQItem `json:"items"`
}

func (s *Server) handleBulkBOQ(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	var req bulkBOQRequest
	if err := DecodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if len(req.Items) == 0 {
		BadRequestError("items must not be empty").Write(w)
		return
	}

	created, err := s.boq.BulkAppend(r.Context(), id, req.Items)
	if err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(created).Write(w)
}

// handleBOQSchedule serves the monthly preview, cached per scenario and
// invalidated on every BOQ write.
func (s *Server) handleBOQSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	if schedule, ok := s.caches.Schedule.Get(scheduleKey(id)); ok {
		NewJSONResponse().Header("X-Cache", "hit").Body(schedule).Write(w)
		return
	}

	schedule, err := s.boq.Schedule(r.Context(), id)
	if err != nil {
		FromError(err).Write(w)
		return
	}
	s.caches.Schedule.Set(scheduleKey(id), schedule)
	NewJSONResponse().Body(schedule).Write(w)
}

func (s *Server) handleMarkBOQReady(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	status, err := s.boq.MarkBOQReady(r.Context(), s.workflow, id)
	if err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Body(status).Write(w)
}
