package amqp

import (
	"encoding/json"
	"time"
)

// EngineRunMessage asks the engine worker to execute one queued run.
// It carries only identifiers; the worker loads the scenario state from
// the database so a stale message never computes from stale inputs.
type EngineRunMessage struct {
	RunID      int64     `json:"run_id"`
	ScenarioID int64     `json:"scenario_id"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewEngineRunMessage(runID, scenarioID int64) *EngineRunMessage {
	return &EngineRunMessage{
		RunID:      runID,
		ScenarioID: scenarioID,
		Timestamp:  time.Now(),
	}
}

func (m *EngineRunMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func EngineRunMessageFromJSON(data []byte) (*EngineRunMessage, error) {
	var msg EngineRunMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
