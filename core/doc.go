// Package core provides the foundational domain types shared by the
// governed task pipeline. It defines:
//
//   - Stage / Status / RiskTier enumerations and the allowed-transition table
//   - SystemState (the per-attempt state snapshot owned by the Governor)
//   - TaskSpecification (the Planner's bounded, falsifiable plan)
//   - SourceRecord (provenanced evidence units)
//   - Review, compliance and conciliation decision records
//
// The package intentionally keeps implementation concerns (persistence,
// orchestration, concrete agents) out of scope. All records other than
// SystemState are created once, consumed by the next stage, and never
// mutated.
package core
