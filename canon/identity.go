package canon

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Identity declares the names the system may act under. Outward-facing or
// binding actions use the public identity; everything else stays internal.
type Identity struct {
	Internal struct {
		Name  string `yaml:"name"`
		Short string `yaml:"short,omitempty"`
	} `yaml:"internal"`
	Public struct {
		Name      string `yaml:"name"`
		LegalName string `yaml:"legal_name,omitempty"`
	} `yaml:"public"`
}

type identityFile struct {
	Identity Identity `yaml:"identity"`
}

// publicMarkers flag goals that leave the system or bind it.
var publicMarkers = []string{
	"publish", "post", "tweet", "announce", "email", "send", "newsletter",
	"press", "contract", "agreement", "invoice", "payment", "public",
}

// DefaultIdentity is used when no identity document exists.
func DefaultIdentity() *Identity {
	var id Identity
	id.Internal.Name = "Operator"
	id.Internal.Short = "Ops"
	id.Public.Name = "Permanence Operator"
	id.Public.LegalName = "Permanence Operator"
	return &id
}

// LoadIdentity reads the identity document. A missing file falls back to
// DefaultIdentity; a present but unparsable file is an error.
func LoadIdentity(path string) (*Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultIdentity(), nil
		}
		return nil, err
	}
	var f identityFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	id := f.Identity
	defaults := DefaultIdentity()
	if id.Internal.Name == "" {
		id.Internal.Name = defaults.Internal.Name
	}
	if id.Public.Name == "" {
		id.Public.Name = defaults.Public.Name
	}
	if id.Public.LegalName == "" {
		id.Public.LegalName = id.Public.Name
	}
	return &id, nil
}

// Allowed returns every identity name acceptable for outbound actions.
func (id *Identity) Allowed() []string {
	return []string{id.Internal.Name, id.Public.Name, id.Public.LegalName}
}

// IsAllowed reports whether name is one of the declared identities.
func (id *Identity) IsAllowed(name string) bool {
	for _, allowed := range id.Allowed() {
		if name == allowed {
			return true
		}
	}
	return false
}

// SelectForGoal picks the identity for a goal: public for outward-facing
// or binding actions, internal otherwise.
func (id *Identity) SelectForGoal(goal string) string {
	lower := strings.ToLower(goal)
	for _, marker := range publicMarkers {
		if strings.Contains(lower, marker) {
			return id.Public.Name
		}
	}
	return id.Internal.Name
}
