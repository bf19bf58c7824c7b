package model

import "sync"

// Tier names map task complexity to provider model classes. Swapping
// providers means updating the factory only; agents don't change.
const (
	TierOpus   = "opus"
	TierSonnet = "sonnet"
	TierHaiku  = "haiku"
)

// routing assigns a tier per task type. Unknown task types default to
// TierSonnet.
var routing = map[string]string{
	// HIGH complexity
	"canon_interpretation": TierOpus,
	"strategy":             TierOpus,
	"code_generation":      TierOpus,
	"adversarial_review":   TierOpus,

	// MEDIUM complexity (default)
	"research_synthesis": TierSonnet,
	"planning":           TierSonnet,
	"review":             TierSonnet,
	"execution":          TierSonnet,
	"conciliation":       TierSonnet,

	// LOW complexity
	"classification": TierHaiku,
	"summarization":  TierHaiku,
	"tagging":        TierHaiku,
	"formatting":     TierHaiku,
}

// RouteFor returns the tier for a task type without instantiating a model.
func RouteFor(taskType string) string {
	if tier, ok := routing[taskType]; ok {
		return tier
	}
	return TierSonnet
}

// Factory builds a Model for a tier. Registries cache the result so
// provider clients are initialized at most once per tier.
type Factory func(tier string) Model

// Registry hands agents the right Model for a task type. Agents call
// Get(taskType) and never import provider SDKs directly.
type Registry struct {
	mu       sync.Mutex
	factory  Factory
	adapters map[string]Model
}

// NewRegistry creates a Registry backed by the given factory. A nil
// factory yields a registry that always returns NoOp.
func NewRegistry(factory Factory) *Registry {
	if factory == nil {
		factory = func(string) Model { return NoOp{} }
	}
	return &Registry{factory: factory, adapters: make(map[string]Model)}
}

// Get returns the cached model for the task type's tier, building it on
// first use.
func (r *Registry) Get(taskType string) Model {
	tier := RouteFor(taskType)

	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.adapters[tier]; ok {
		return m
	}
	m := r.factory(tier)
	if m == nil {
		m = NoOp{}
	}
	r.adapters[tier] = m
	return m
}
