// Package governor implements the Polemarch, the governing authority of
// the task pipeline. The governor routes, enforces and escalates; it never
// creates content and never reasons about truth.
//
// It exclusively owns the per-attempt SystemState: other components read
// state or trigger transitions through Governor operations but never
// mutate fields directly. Every decision is written to the append-only
// audit log before the state mutation that reflects it.
package governor
