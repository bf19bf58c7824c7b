// Package agent implements the specialized roles of the governed task
// pipeline: Planner, Researcher, Executor, Reviewer, ComplianceGate and
// Conciliator.
//
// Every role is stateless and constructed with its explicit dependencies.
// Roles never mutate SystemState; their only contract with the Governor is
// the result record they hand back. Where a role may consult the Model
// capability, any failure on that path is swallowed and never changes the
// primary outcome.
package agent
