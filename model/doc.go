// Package model defines the opaque Model capability the pipeline may
// consult. Governance never depends on which provider is used: agents
// request a model through the Registry by task type, and any generation
// failure is treated as "no model available" rather than an error that
// could alter a governance decision.
package model
