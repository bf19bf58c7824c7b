// Package canon loads the trusted policy documents the Governor enforces:
// the Canon (values, invariants, identity constraints) and the identity
// configuration used when actions leave the system. Both are plain YAML
// files read once per Governor instance and passed explicitly at
// construction, never ambient global state.
package canon
