package agent

import (
	"strings"
	"time"

	"github.com/MaxProspero/permanence-os-sub000/canon"
	"github.com/MaxProspero/permanence-os-sub000/core"
	"github.com/MaxProspero/permanence-os-sub000/logging"
)

// Action is the outward-facing act the gate inspects before anything
// leaves the system.
type Action struct {
	Goal         string `json:"goal"`
	IdentityUsed string `json:"identity_used"`
	Irreversible bool   `json:"irreversible"`
	OutputPath   string `json:"output_path,omitempty"`
}

// Hold trigger vocabularies. Literal substrings, case-insensitive.
var (
	legalKeywords       = []string{"legal", "lawsuit", "regulation", "compliance", "gdpr", "hipaa", "privacy", "pii"}
	financialKeywords   = []string{"money", "payment", "invoice", "tax", "bank", "wire", "transfer"}
	contractualKeywords = []string{"contract", "agreement", "terms", "sign", "commitment"}
	publicKeywords      = []string{"publish", "post", "tweet", "announce", "press", "public"}
)

// ComplianceGateOptions configures a ComplianceGate.
type ComplianceGateOptions struct {
	Logger logging.Logger
	Clock  func() time.Time
}

// ComplianceGate is the final check before an approved artifact leaves
// the system. REJECT dominates HOLD dominates APPROVE; identity
// violations are the only rejections.
type ComplianceGate struct {
	identity *canon.Identity
	logger   logging.Logger
	clock    func() time.Time
}

// NewComplianceGate creates a gate bound to the declared identities.
func NewComplianceGate(identity *canon.Identity, optFns ...func(o *ComplianceGateOptions)) *ComplianceGate {
	opts := ComplianceGateOptions{
		Logger: logging.NoOpLogger{},
		Clock:  time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ComplianceGate{identity: identity, logger: opts.Logger, clock: opts.Clock}
}

// Evaluate returns the gate verdict for an action. Every non-APPROVE
// verdict carries at least one reason; reject reasons precede hold
// reasons.
func (g *ComplianceGate) Evaluate(action Action) core.ComplianceDecision {
	var rejects []string
	var holds []string

	if action.IdentityUsed == "" {
		rejects = append(rejects, "no identity declared for the action")
	} else if !g.identity.IsAllowed(action.IdentityUsed) {
		rejects = append(rejects, "identity not permitted: "+action.IdentityUsed)
	}

	lower := strings.ToLower(action.Goal)
	if kw, ok := firstMatch(lower, legalKeywords); ok {
		holds = append(holds, "legal exposure requires human review: "+kw)
	}
	if kw, ok := firstMatch(lower, financialKeywords); ok {
		holds = append(holds, "financial exposure requires human review: "+kw)
	}
	if kw, ok := firstMatch(lower, contractualKeywords); ok {
		holds = append(holds, "contractual commitment requires human review: "+kw)
	}
	if kw, ok := firstMatch(lower, publicKeywords); ok {
		holds = append(holds, "public statement requires human review: "+kw)
	}
	if action.Irreversible {
		holds = append(holds, "irreversible action requires human review")
	}

	decision := core.ComplianceDecision{CreatedAt: g.clock().UTC()}
	switch {
	case len(rejects) > 0:
		decision.Verdict = core.VerdictReject
		decision.Reasons = append(rejects, holds...)
		g.logger.Error("ComplianceGate REJECT", "reasons", len(decision.Reasons))
	case len(holds) > 0:
		decision.Verdict = core.VerdictHold
		decision.Reasons = holds
		g.logger.Warn("ComplianceGate HOLD", "reasons", len(decision.Reasons))
	default:
		decision.Verdict = core.VerdictApprove
		decision.Reasons = []string{"All compliance checks passed"}
		g.logger.Info("ComplianceGate APPROVE")
	}
	return decision
}

func firstMatch(s string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return kw, true
		}
	}
	return "", false
}
