package governor

import (
	"strings"

	"github.com/MaxProspero/permanence-os-sub000/core"
)

// RiskFlags are the explicit context markers that dominate risk
// classification. Any true flag forces HIGH regardless of goal text.
type RiskFlags struct {
	Irreversible     bool   `json:"irreversible"`
	FinancialImpact  bool   `json:"financial_impact"`
	ReputationImpact bool   `json:"reputation_impact"`
	CanonAdjacent    bool   `json:"canon_adjacent"`
	TargetRole       string `json:"target_role,omitempty"`
}

// roleRiskDefaults registers default tiers for department roles that may
// be targeted explicitly. Core pipeline roles carry no default; their risk
// comes from the goal text.
var roleRiskDefaults = map[string]core.RiskTier{
	"email_agent":     core.RiskMedium,
	"social_agent":    core.RiskMedium,
	"health_agent":    core.RiskLow,
	"briefing_agent":  core.RiskLow,
	"device_agent":    core.RiskLow,
	"trainer_agent":   core.RiskLow,
	"therapist_agent": core.RiskLow,
}

var highRiskKeywords = []string{
	"send", "post", "trade", "delete", "publish", "transfer", "payment",
	"contract", "legal", "canon", "modify", "commit", "wire",
}

var mediumRiskKeywords = []string{
	"create", "generate", "write", "code", "research", "analyze", "plan",
	"modify", "update", "schedule", "compose",
}

// ClassifyRisk is a pure function mapping a goal plus explicit flags to a
// risk tier. Precedence: explicit flags, then the target role's registered
// default, then HIGH keywords, then MEDIUM keywords, then LOW. Identical
// inputs always yield the identical tier.
func ClassifyRisk(goal string, flags RiskFlags) core.RiskTier {
	if flags.Irreversible || flags.FinancialImpact || flags.ReputationImpact || flags.CanonAdjacent {
		return core.RiskHigh
	}
	if tier, ok := roleRiskDefaults[flags.TargetRole]; ok {
		return tier
	}

	lower := strings.ToLower(goal)
	for _, kw := range highRiskKeywords {
		if strings.Contains(lower, kw) {
			return core.RiskHigh
		}
	}
	for _, kw := range mediumRiskKeywords {
		if strings.Contains(lower, kw) {
			return core.RiskMedium
		}
	}
	return core.RiskLow
}
