package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MaxProspero/permanence-os-sub000/core"
	"github.com/MaxProspero/permanence-os-sub000/logging"
	"github.com/MaxProspero/permanence-os-sub000/model"
)

// ConciliatorOptions configures a Conciliator.
type ConciliatorOptions struct {
	// Model enables an advisory note on retry/escalate decisions. The
	// decision itself is always the deterministic policy.
	Model  model.Model
	Logger logging.Logger
	Clock  func() time.Time
}

// Conciliator applies the accept/retry/escalate policy to a review
// outcome. The policy is explicit and closed: approval accepts,
// exhausted retries escalate, everything else retries.
type Conciliator struct {
	model  model.Model
	logger logging.Logger
	clock  func() time.Time
}

// NewConciliator creates a Conciliator.
func NewConciliator(optFns ...func(o *ConciliatorOptions)) *Conciliator {
	opts := ConciliatorOptions{
		Logger: logging.NoOpLogger{},
		Clock:  time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Conciliator{model: opts.Model, logger: opts.Logger, clock: opts.Clock}
}

// Decide maps the review outcome and retry budget to a decision.
func (c *Conciliator) Decide(ctx context.Context, review core.ReviewResult, retryCount, maxRetries int) core.ConciliationDecision {
	decision := core.ConciliationDecision{CreatedAt: c.clock().UTC()}

	switch {
	case review.Approved:
		decision.Decision = core.DecisionAccept
		decision.Reason = "review approved the artifact"
	case retryCount >= maxRetries:
		decision.Decision = core.DecisionEscalate
		decision.Reason = fmt.Sprintf("retry budget exhausted after %d attempts", retryCount)
	default:
		decision.Decision = core.DecisionRetry
		decision.Reason = fmt.Sprintf("review rejected the artifact (attempt %d of %d)", retryCount+1, maxRetries)
	}

	if decision.Decision != core.DecisionAccept {
		if note := c.advisory(ctx, review, decision.Decision); note != "" {
			decision.Reason += "; advisory: " + note
		}
	}

	c.logger.Info("Conciliator decision", "decision", string(decision.Decision))
	return decision
}

// advisory asks the model for one remediation sentence. Failures return
// an empty note and never change the decision.
func (c *Conciliator) advisory(ctx context.Context, review core.ReviewResult, decision core.Decision) string {
	if c.model == nil || !c.model.Available() {
		return ""
	}

	prompt := strings.Join([]string{
		"A produced artifact failed structural review.",
		"Decision already made: " + string(decision) + ".",
		"Required changes:",
		"- " + strings.Join(review.RequiredChanges, "\n- "),
		"",
		"Reply with one short sentence of remediation advice. No preamble.",
	}, "\n")

	resp, err := c.model.Generate(ctx, prompt, "You give terse remediation advice for failed reviews.")
	if err != nil {
		c.logger.Warn("Conciliator advisory unavailable", "error", err.Error())
		return ""
	}
	note := strings.TrimSpace(resp.Text)
	if idx := strings.Index(note, "\n"); idx >= 0 {
		note = note[:idx]
	}
	return note
}
