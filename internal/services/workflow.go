// Workflow gating: scenarios advance through fixed stages, each unlocked
// by marking the previous one ready. Readiness lives in per-stage flags;
// the legacy workflow_state string is kept in lockstep for older rows
// that predate the flags.
package services

import (
	"context"
	"errors"
	"fmt"

	"scenplan/internal/core"
	"scenplan/internal/storage"
)

var (
	ErrUnknownStage = errors.New("unknown workflow stage")
	// ErrStageGated is returned when a stage's prerequisite is not ready.
	ErrStageGated = errors.New("previous workflow stage is not ready")
)

// stageOrder is the gating sequence; each stage requires the one before.
var stageOrder = []string{
	core.StageBOQ,
	core.StageTWC,
	core.StageCapex,
	core.StageFX,
	core.StageTax,
	core.StageServices,
	core.StageSummary,
}

// stateAfter maps a stage to the legacy workflow_state written when it
// is marked ready. Summary completes the scenario.
var stateAfter = map[string]string{
	core.StageBOQ:      "boq_ready",
	core.StageTWC:      "twc_ready",
	core.StageCapex:    "capex_ready",
	core.StageFX:       "fx_ready",
	core.StageTax:      "tax_ready",
	core.StageServices: "services_ready",
	core.StageSummary:  "ready",
}

// stateRank orders legacy states so readiness can be derived
// cumulatively: a scenario in state "capex_ready" implies boq, twc and
// capex are all ready even if its flags were never set.
var stateRank = map[string]int{
	"draft":          0,
	"boq_ready":      1,
	"twc_ready":      2,
	"capex_ready":    3,
	"fx_ready":       4,
	"tax_ready":      5,
	"services_ready": 6,
	"ready":          7,
}

// WorkflowStatus is the derived view served to clients.
type WorkflowStatus struct {
	State        string          `json:"workflow_state"`
	Flags        map[string]bool `json:"flags"`
	CurrentStage string          `json:"current_stage"`
	NextStage    *string         `json:"next_stage"`
}

type WorkflowService struct {
	storage *storage.SQLiteRepository
}

func NewWorkflowService(storage *storage.SQLiteRepository) *WorkflowService {
	return &WorkflowService{storage: storage}
}

func flagFor(f storage.WorkflowFlags, stage string) bool {
	switch stage {
	case core.StageBOQ:
		return f.BOQReady
	case core.StageTWC:
		return f.TWCReady
	case core.StageCapex:
		return f.CapexReady
	case core.StageFX:
		return f.FXReady
	case core.StageTax:
		return f.TaxReady
	case core.StageServices:
		return f.ServicesReady
	}
	return false
}

func setFlag(f *storage.WorkflowFlags, stage string) {
	switch stage {
	case core.StageBOQ:
		f.BOQReady = true
	case core.StageTWC:
		f.TWCReady = true
	case core.StageCapex:
		f.CapexReady = true
	case core.StageFX:
		f.FXReady = true
	case core.StageTax:
		f.TaxReady = true
	case core.StageServices:
		f.ServicesReady = true
	}
}

// stageReady derives effective readiness: the explicit flag, or the
// legacy state having advanced at least that far.
func stageReady(f storage.WorkflowFlags, stage string) bool {
	if stage == core.StageSummary {
		return f.State == "ready"
	}
	if flagFor(f, stage) {
		return true
	}
	return stateRank[f.State] >= stateRank[stateAfter[stage]]
}

func stageIndex(stage string) int {
	for i, s := range stageOrder {
		if s == stage {
			return i
		}
	}
	return -1
}

func buildStatus(f storage.WorkflowFlags) WorkflowStatus {
	status := WorkflowStatus{
		State: f.State,
		Flags: make(map[string]bool, len(stageOrder)),
	}
	for _, stage := range stageOrder {
		status.Flags[stage] = stageReady(f, stage)
	}

	// Current stage is the first one not yet ready; a fully completed
	// scenario stays on summary with no next stage.
	status.CurrentStage = core.StageSummary
	for _, stage := range stageOrder {
		if !status.Flags[stage] {
			status.CurrentStage = stage
			break
		}
	}
	if idx := stageIndex(status.CurrentStage); idx+1 < len(stageOrder) {
		next := stageOrder[idx+1]
		status.NextStage = &next
	}
	return status
}

func (s *WorkflowService) Status(ctx context.Context, scenarioID int64) (WorkflowStatus, error) {
	flags, err := s.storage.GetWorkflow(ctx, scenarioID)
	if err != nil {
		return WorkflowStatus{}, err
	}
	return buildStatus(flags), nil
}

// MarkReady marks one stage ready, enforcing the gate on its
// predecessor, and advances the legacy state when the new stage is
// further along than the stored one.
func (s *WorkflowService) MarkReady(ctx context.Context, scenarioID int64, stage string) (WorkflowStatus, error) {
	idx := stageIndex(stage)
	if idx < 0 {
		return WorkflowStatus{}, ErrUnknownStage
	}

	flags, err := s.storage.GetWorkflow(ctx, scenarioID)
	if err != nil {
		return WorkflowStatus{}, err
	}

	if idx > 0 {
		prev := stageOrder[idx-1]
		if !stageReady(flags, prev) {
			return WorkflowStatus{}, fmt.Errorf("%w: %s requires %s", ErrStageGated, stage, prev)
		}
	}

	setFlag(&flags, stage)
	if stateRank[stateAfter[stage]] > stateRank[flags.State] {
		flags.State = stateAfter[stage]
	}

	if err := s.storage.UpdateWorkflow(ctx, scenarioID, flags); err != nil {
		return WorkflowStatus{}, err
	}
	return buildStatus(flags), nil
}

// Reset returns a scenario to draft with every flag cleared.
func (s *WorkflowService) Reset(ctx context.Context, scenarioID int64) (WorkflowStatus, error) {
	flags := storage.WorkflowFlags{State: "draft"}
	if err := s.storage.UpdateWorkflow(ctx, scenarioID, flags); err != nil {
		return WorkflowStatus{}, err
	}
	return buildStatus(flags), nil
}
