package governor

import "fmt"

// BudgetTracker pairs the monotonically increasing resource counters with
// the ceilings fixed at task creation. Ceilings never change mid-attempt.
type BudgetTracker struct {
	StepCount     int
	MaxSteps      int
	ToolCallsUsed int
	MaxToolCalls  int
}

// StepsOK reports whether another step may be consumed.
func (b BudgetTracker) StepsOK() bool { return b.StepCount < b.MaxSteps }

// ToolsOK reports whether another tool call may be consumed.
func (b BudgetTracker) ToolsOK() bool { return b.ToolCallsUsed < b.MaxToolCalls }

// WithinBudget reports whether both ceilings still have headroom. Any
// violation is terminal for the attempt.
func (b BudgetTracker) WithinBudget() bool { return b.StepsOK() && b.ToolsOK() }

// BudgetCheck is the result of a governor budget inspection.
type BudgetCheck struct {
	WithinBudget bool   `json:"within_budget"`
	Steps        string `json:"steps"`
	Tools        string `json:"tools"`
}

// Check summarizes the tracker for logging and decisions.
func (b BudgetTracker) Check() BudgetCheck {
	return BudgetCheck{
		WithinBudget: b.WithinBudget(),
		Steps:        fmt.Sprintf("%d/%d", b.StepCount, b.MaxSteps),
		Tools:        fmt.Sprintf("%d/%d", b.ToolCallsUsed, b.MaxToolCalls),
	}
}
