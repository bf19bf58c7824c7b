// Package logging provides a tiny abstraction over slog so downstream code
// can depend on a minimal interface (Logger) while allowing users to plug
// any structured logger. It also provides AuditLogger, the append-only
// daily audit trail every governance decision is written to before the
// state mutation that reflects it.
package logging
