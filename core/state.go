package core

import (
	"fmt"
	"time"
)

// Stage identifies the current position of a task attempt in the pipeline.
type Stage string

// Pipeline stages in traversal order, plus the terminal alternates FAILED
// and ESCALATED which are reachable from any non-terminal stage.
const (
	StageInit         Stage = "INIT"
	StageValidation   Stage = "VALIDATION"
	StagePlanning     Stage = "PLANNING"
	StageResearch     Stage = "RESEARCH"
	StageExecution    Stage = "EXECUTION"
	StageOutputReview Stage = "OUTPUT_REVIEW"
	StageConciliation Stage = "CONCILIATION"
	StageDone         Stage = "DONE"
	StageFailed       Stage = "FAILED"
	StageEscalated    Stage = "ESCALATED"
)

// Status is the coarse lifecycle view of a task attempt.
type Status string

// Status values. BLOCKED means a human decision is required; DONE and
// FAILED are terminal.
const (
	StatusInit    Status = "INIT"
	StatusRunning Status = "RUNNING"
	StatusBlocked Status = "BLOCKED"
	StatusDone    Status = "DONE"
	StatusFailed  Status = "FAILED"
)

// Terminal reports whether the status permits no further mutation.
func (s Status) Terminal() bool { return s == StatusDone || s == StatusFailed }

// RiskTier classifies a task's potential for harm. Assigned exactly once
// per attempt and immutable thereafter.
type RiskTier string

// Risk tiers. An empty RiskTier means "not yet assigned".
const (
	RiskLow    RiskTier = "LOW"
	RiskMedium RiskTier = "MEDIUM"
	RiskHigh   RiskTier = "HIGH"
)

// stageOrder gives each forward stage its pipeline position. Terminal
// alternates are not part of the forward order.
var stageOrder = map[Stage]int{
	StageInit:         0,
	StageValidation:   1,
	StagePlanning:     2,
	StageResearch:     3,
	StageExecution:    4,
	StageOutputReview: 5,
	StageConciliation: 6,
	StageDone:         7,
}

// AllowedTransitions is the stage transition table kept as data rather
// than scattered conditionals. FAILED and ESCALATED are reachable from
// every non-terminal stage; forward stages only advance.
var AllowedTransitions = func() map[Stage][]Stage {
	t := make(map[Stage][]Stage)
	forward := []Stage{
		StageInit, StageValidation, StagePlanning, StageResearch,
		StageExecution, StageOutputReview, StageConciliation, StageDone,
	}
	for i, from := range forward {
		var next []Stage
		for _, to := range forward[i+1:] {
			next = append(next, to)
		}
		if from != StageDone {
			next = append(next, StageFailed, StageEscalated)
		}
		t[from] = next
	}
	return t
}()

// CanTransition reports whether moving from one stage to another respects
// the transition table. The Governor documents but does not enforce this;
// callers sequencing stages use it as their discipline.
func CanTransition(from, to Stage) bool {
	if to == StageFailed || to == StageEscalated {
		return from != StageDone && from != StageFailed && from != StageEscalated
	}
	fo, ok := stageOrder[from]
	if !ok {
		return false
	}
	no, ok := stageOrder[to]
	if !ok {
		return false
	}
	return no > fo
}

// SystemState is the complete state snapshot for one task attempt. It is
// owned exclusively by the Governor; other components read it or trigger
// transitions through Governor operations but never mutate fields directly.
type SystemState struct {
	TaskID        string         `json:"task_id"`
	Goal          string         `json:"goal"`
	Stage         Stage          `json:"stage"`
	Status        Status         `json:"status"`
	RiskTier      RiskTier       `json:"risk_tier,omitempty"`
	StepCount     int            `json:"step_count"`
	MaxSteps      int            `json:"max_steps"`
	ToolCallsUsed int            `json:"tool_calls_used"`
	MaxToolCalls  int            `json:"max_tool_calls"`
	Artifacts     map[string]any `json:"artifacts"`
	Sources       []SourceRecord `json:"sources"`
	Escalation    string         `json:"escalation,omitempty"`
	Logs          []string       `json:"logs"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// AddArtifact records a named artifact. The artifact map is append-only:
// re-using a logical name is an error, never an overwrite.
func (s *SystemState) AddArtifact(name string, value any) error {
	if s.Artifacts == nil {
		s.Artifacts = make(map[string]any)
	}
	if _, exists := s.Artifacts[name]; exists {
		return fmt.Errorf("artifact %q already recorded", name)
	}
	s.Artifacts[name] = value
	return nil
}
