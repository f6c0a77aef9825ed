package http

import (
	"net/http"

	"scenplan/internal/core"
	"scenplan/internal/services"
)

func (s *Server) handleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	status, err := s.workflow.Status(r.Context(), id)
	if err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Body(status).Write(w)
}

func (s *Server) handleMarkStageReady(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	stage := r.PathValue("stage")

	// The BOQ stage carries an extra gate: the scenario must hold at
	// least one active row.
	var status services.WorkflowStatus
	if stage == core.StageBOQ {
		status, err = s.boq.MarkBOQReady(r.Context(), s.workflow, id)
	} else {
		status, err = s.workflow.MarkReady(r.Context(), id, stage)
	}
	if err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Body(status).Write(w)
}

func (s *Server) handleResetWorkflow(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	status, err := s.workflow.Reset(r.Context(), id)
	if err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Body(status).Write(w)
}
