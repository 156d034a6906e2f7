package model

import "time"

// RunStatus represents the current state of a fact-check run. Statuses
// track the orchestrator's stages one-to-one; a run moves through them in
// order exactly once and never re-enters a stage.
type RunStatus string

const (
	RunStatusQueued         RunStatus = "queued"
	RunStatusSplitting      RunStatus = "splitting"
	RunStatusSelecting      RunStatus = "selecting"
	RunStatusDisambiguating RunStatus = "disambiguating"
	RunStatusDecomposing    RunStatus = "decomposing"
	RunStatusValidating     RunStatus = "validating"
	RunStatusVerifying      RunStatus = "verifying"
	RunStatusReporting      RunStatus = "reporting"
	RunStatusComplete       RunStatus = "complete"
	RunStatusFailed         RunStatus = "failed"
)

// Terminal reports whether the status ends a run.
func (s RunStatus) Terminal() bool {
	return s == RunStatusComplete || s == RunStatusFailed
}

// CheckRequest is the (question, answer) pair a run verifies.
type CheckRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Run is one persisted fact-check execution.
type Run struct {
	ID        string           `json:"id"`
	Request   CheckRequest     `json:"request"`
	Status    RunStatus        `json:"status"`
	Report    *FactCheckReport `json:"report,omitempty"`
	Error     string           `json:"error,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
