package runner

import "errors"

// Process exit codes reported to the caller.
const (
	ExitSuccess         = 0
	ExitHalted          = 1
	ExitEmptyGoal       = 2
	ExitHighRisk        = 3
	ExitInvalidEvidence = 4
	ExitEscalated       = 5
	ExitRetry           = 6
)

// Error taxonomy for a task attempt. Halting errors end the attempt in
// FAILED; escalating errors end it in BLOCKED awaiting a human decision.
var (
	// ErrPolicyViolation means the goal conflicts with a Canon invariant.
	ErrPolicyViolation = errors.New("goal violates policy")
	// ErrBudgetExceeded means a step or tool-call ceiling was hit.
	ErrBudgetExceeded = errors.New("budget exceeded")
	// ErrHighRisk means the task was classified HIGH before any role ran.
	ErrHighRisk = errors.New("risk tier HIGH")
	// ErrInvalidEvidence means the evidence list is missing, empty or has
	// records without mandatory provenance fields.
	ErrInvalidEvidence = errors.New("invalid evidence")
	// ErrComplianceHold means the gate requires a human decision.
	ErrComplianceHold = errors.New("compliance hold")
	// ErrComplianceReject means the gate refused the action outright.
	ErrComplianceReject = errors.New("compliance reject")
	// ErrEmptyGoal means no goal text was supplied.
	ErrEmptyGoal = errors.New("empty goal")
)
