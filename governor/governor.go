package governor

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MaxProspero/permanence-os-sub000/canon"
	"github.com/MaxProspero/permanence-os-sub000/config"
	"github.com/MaxProspero/permanence-os-sub000/core"
	"github.com/MaxProspero/permanence-os-sub000/logging"
)

// Sentinel errors surfaced by governor operations.
var (
	// ErrNoTask is returned when an operation requires an initialized task.
	ErrNoTask = errors.New("no active task")
	// ErrTerminal is returned when state mutation is attempted after the
	// attempt reached DONE or FAILED.
	ErrTerminal = errors.New("task state is terminal")
	// ErrUnknownRole is returned when routing to a role outside the
	// whitelist. The step counter is not incremented on rejection.
	ErrUnknownRole = errors.New("unknown role")
)

// validRoles is the routing whitelist for the core pipeline.
var validRoles = []string{"planner", "researcher", "executor", "reviewer", "conciliator"}

// Goal guardrail markers. A goal is rejected only when it contains both a
// modification marker and a policy marker. Literal substrings,
// case-insensitive. This is a guardrail, not a semantic check.
var (
	modifyMarkers = []string{"modify", "rewrite", "amend"}
	policyMarkers = []string{"canon", "constitution"}
)

// Validation is the result of checking a goal against the Canon.
type Validation struct {
	Valid    bool   `json:"valid"`
	Reason   string `json:"reason"`
	CanonRef string `json:"canon_ref"`
}

// Routing carries instructions for a role hand-off.
type Routing struct {
	Agent        string `json:"agent"`
	Instructions string `json:"instructions"`
}

// Options configures a Governor.
type Options struct {
	// Audit is the append-only decision log (defaults to one under the
	// configured log dir).
	Audit *logging.AuditLogger
	// Store persists episodic state (defaults to the configured dir).
	Store *EpisodicStore
	// Clock overrides the time source, used by tests.
	Clock func() time.Time
}

// Governor owns the SystemState for one task attempt at a time and
// enforces risk, budget and stage policy. It is not safe for concurrent
// use; execution per attempt is single-threaded by design.
type Governor struct {
	canon *canon.Canon
	cfg   *config.Config
	audit *logging.AuditLogger
	store *EpisodicStore
	clock func() time.Time
	state *core.SystemState
}

// New constructs a Governor around an already-loaded Canon. Loading the
// Canon is the caller's startup concern; a Governor never runs without
// one.
func New(c *canon.Canon, cfg *config.Config, optFns ...func(o *Options)) *Governor {
	opts := Options{
		Clock: time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Audit == nil {
		opts.Audit = logging.NewAuditLogger(cfg.LogDir)
	}
	if opts.Store == nil {
		opts.Store = NewEpisodicStore(cfg.EpisodicDir())
	}
	return &Governor{
		canon: c,
		cfg:   cfg,
		audit: opts.Audit,
		store: opts.Store,
		clock: opts.Clock,
	}
}

// State exposes the current attempt's state for reading. Callers must not
// mutate it directly.
func (g *Governor) State() *core.SystemState { return g.state }

// Canon returns the loaded policy document.
func (g *Governor) Canon() *canon.Canon { return g.canon }

func (g *Governor) log(level, msg string) {
	entry, _ := g.audit.Append(level, msg)
	if g.state != nil && !g.state.Status.Terminal() {
		g.state.Logs = append(g.state.Logs, entry)
	}
}

func (g *Governor) mutable() error {
	if g.state == nil {
		return ErrNoTask
	}
	if g.state.Status.Terminal() {
		return ErrTerminal
	}
	return nil
}

// InitializeTask allocates a fresh SystemState with budgets read from
// configuration. The task id is time-derived with a random suffix so every
// attempt gets its own id.
func (g *Governor) InitializeTask(goal string) *core.SystemState {
	now := g.clock().UTC()
	taskID := fmt.Sprintf("T-%s-%s", now.Format("20060102-150405"), uuid.NewString()[:8])

	g.state = &core.SystemState{
		TaskID:        taskID,
		Goal:          goal,
		Stage:         core.StageInit,
		Status:        core.StatusInit,
		StepCount:     0,
		MaxSteps:      g.cfg.MaxSteps,
		ToolCallsUsed: 0,
		MaxToolCalls:  g.cfg.MaxToolCalls,
		Artifacts:     map[string]any{},
		Sources:       nil,
		Logs:          nil,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	g.log("INFO", "Task initialized: "+taskID)
	g.log("INFO", "Goal: "+goal)
	return g.state
}

// ValidateAgainstPolicy rejects a goal only when it contains both a
// modification marker and a policy marker. Intentionally narrow and
// literal.
func (g *Governor) ValidateAgainstPolicy(goal string) Validation {
	g.log("INFO", "Validating task against Canon")

	lower := strings.ToLower(goal)
	if containsAny(lower, modifyMarkers) && containsAny(lower, policyMarkers) {
		g.log("WARNING", "Goal attempts to modify the Canon")
		return Validation{
			Valid:    false,
			Reason:   "Task attempts to modify the Canon (forbidden)",
			CanonRef: "invariants[0]: No agent modifies the Canon",
		}
	}

	g.log("INFO", "Task passes Canon validation")
	return Validation{
		Valid:    true,
		Reason:   "No Canon conflicts detected",
		CanonRef: "All invariants checked",
	}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// AssignRiskTier classifies the active task. The tier is assigned exactly
// once: re-entry returns the already assigned tier without recomputation.
func (g *Governor) AssignRiskTier(goal string, flags RiskFlags) core.RiskTier {
	if g.state != nil && g.state.RiskTier != "" {
		return g.state.RiskTier
	}

	tier := ClassifyRisk(goal, flags)
	g.log("INFO", "Risk tier assigned: "+string(tier))
	if g.state != nil {
		g.state.RiskTier = tier
	}
	return tier
}

// CheckBudgets reports whether the attempt still has step and tool-call
// headroom. Any violation is terminal; the caller halts.
func (g *Governor) CheckBudgets() BudgetCheck {
	if g.state == nil {
		return BudgetCheck{WithinBudget: true}
	}
	check := BudgetTracker{
		StepCount:     g.state.StepCount,
		MaxSteps:      g.state.MaxSteps,
		ToolCallsUsed: g.state.ToolCallsUsed,
		MaxToolCalls:  g.state.MaxToolCalls,
	}.Check()

	if !check.WithinBudget {
		g.log("WARNING", fmt.Sprintf("BUDGET EXCEEDED steps=%s tools=%s", check.Steps, check.Tools))
	}
	return check
}

// RouteToAgent validates the role name against the whitelist and consumes
// one step. Unknown names are rejected without incrementing the counter.
func (g *Governor) RouteToAgent(role string) (Routing, error) {
	valid := false
	for _, r := range validRoles {
		if r == role {
			valid = true
			break
		}
	}
	if !valid {
		g.log("ERROR", "Invalid role: "+role)
		return Routing{}, fmt.Errorf("%w: %s", ErrUnknownRole, role)
	}
	if err := g.mutable(); err != nil {
		return Routing{}, err
	}

	g.log("INFO", "Routing to role: "+role)
	g.state.StepCount++
	g.touch()

	return Routing{
		Agent:        role,
		Instructions: fmt.Sprintf("Execute as %s within Canon constraints", role),
	}, nil
}

// RecordToolCall consumes one tool call from the budget.
func (g *Governor) RecordToolCall() error {
	if err := g.mutable(); err != nil {
		return err
	}
	g.state.ToolCallsUsed++
	g.touch()
	return nil
}

// RecordArtifact appends a named artifact to the attempt. Names are never
// overwritten.
func (g *Governor) RecordArtifact(name string, value any) error {
	if err := g.mutable(); err != nil {
		return err
	}
	if err := g.state.AddArtifact(name, value); err != nil {
		g.log("ERROR", err.Error())
		return err
	}
	g.log("INFO", "Artifact recorded: "+name)
	g.touch()
	return nil
}

// AttachSources stores the validated evidence list on the attempt.
func (g *Governor) AttachSources(sources []core.SourceRecord) error {
	if err := g.mutable(); err != nil {
		return err
	}
	g.state.Sources = sources
	g.log("INFO", fmt.Sprintf("Sources attached: %d", len(sources)))
	g.touch()
	return nil
}

// MarkRunning moves the attempt from INIT to RUNNING.
func (g *Governor) MarkRunning() error {
	if err := g.mutable(); err != nil {
		return err
	}
	g.state.Status = core.StatusRunning
	g.touch()
	return nil
}

// Escalate hands the attempt to a human decision-maker: escalation reason
// set, status BLOCKED, stage ESCALATED. Re-escalation keeps the first
// reason; later calls are logged and otherwise ignored.
func (g *Governor) Escalate(reason string) error {
	if err := g.mutable(); err != nil {
		return err
	}
	if g.state.Escalation != "" {
		g.log("WARNING", "Re-escalation ignored; original reason kept: "+g.state.Escalation)
		return nil
	}

	g.log("CRITICAL", "ESCALATING TO HUMAN: "+reason)
	g.state.Escalation = reason
	g.state.Status = core.StatusBlocked
	g.state.Stage = core.StageEscalated
	g.touch()
	return nil
}

// Halt is the unrecoverable stop: status FAILED, stage FAILED, state
// persisted. The caller must not invoke the Governor again for this task.
func (g *Governor) Halt(reason string) error {
	if err := g.mutable(); err != nil {
		return err
	}

	g.log("CRITICAL", "SYSTEM HALT: "+reason)
	g.state.Status = core.StatusFailed
	g.state.Stage = core.StageFailed
	g.touch()
	return g.Save()
}

// Complete marks the attempt DONE after an accepted conciliation.
func (g *Governor) Complete() error {
	if err := g.mutable(); err != nil {
		return err
	}
	g.log("INFO", "Task completed successfully")
	g.state.Status = core.StatusDone
	g.state.Stage = core.StageDone
	g.touch()
	return nil
}

// TransitionStage advances the stage unconditionally and logs the
// transition. The forward-only discipline is the caller's contract (see
// core.CanTransition); the Governor only refuses mutation of terminal
// state.
func (g *Governor) TransitionStage(next core.Stage) error {
	if err := g.mutable(); err != nil {
		return err
	}
	prev := g.state.Stage
	g.state.Stage = next
	g.touch()
	g.log("INFO", fmt.Sprintf("Stage transition: %s -> %s", prev, next))
	return nil
}

// Save persists the SystemState keyed by task_id.
func (g *Governor) Save() error {
	if g.state == nil {
		return ErrNoTask
	}
	if err := g.store.Save(g.state); err != nil {
		g.log("ERROR", "State save failed: "+err.Error())
		return err
	}
	g.log("INFO", "State saved: "+g.state.TaskID)
	return nil
}

// Warn writes a WARNING entry to the audit trail and the attempt logs.
func (g *Governor) Warn(msg string) { g.log("WARNING", msg) }

func (g *Governor) touch() {
	g.state.UpdatedAt = g.clock().UTC()
}
