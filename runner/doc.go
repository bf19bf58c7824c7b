// Package runner sequences one governed task attempt from goal to
// terminal decision.
//
// The Orchestrator drives the Governor through the stage pipeline
// (validation, planning, research, execution, review, conciliation),
// invoking one role per stage and re-checking budgets before each role
// runs. It never loops retries itself: a RETRY outcome is surfaced to
// the caller through the exit code, and re-invocation with revised
// inputs is the caller's responsibility.
package runner
