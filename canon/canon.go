package canon

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Canon models the policy document. Invariants are the non-negotiable
// rules; Values and Tradeoffs inform risk handling; IdentityConstraints
// bound which identities may act outwardly.
type Canon struct {
	Values              []string `yaml:"values"`
	Invariants          []string `yaml:"invariants"`
	Tradeoffs           []string `yaml:"tradeoffs,omitempty"`
	IdentityConstraints []string `yaml:"identity_constraints,omitempty"`
}

// Load reads and parses the Canon. A missing or unparsable Canon is a
// fatal startup error, not a per-task failure: the pipeline must not run
// without its policy document.
func Load(path string) (*Canon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load canon %s: %w", path, err)
	}
	var c Canon
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse canon %s: %w", path, err)
	}
	if len(c.Invariants) == 0 {
		return nil, fmt.Errorf("canon %s declares no invariants", path)
	}
	return &c, nil
}
