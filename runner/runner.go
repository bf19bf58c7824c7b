package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MaxProspero/permanence-os-sub000/agent"
	"github.com/MaxProspero/permanence-os-sub000/canon"
	"github.com/MaxProspero/permanence-os-sub000/config"
	"github.com/MaxProspero/permanence-os-sub000/core"
	"github.com/MaxProspero/permanence-os-sub000/governor"
	"github.com/MaxProspero/permanence-os-sub000/logging"
	"github.com/MaxProspero/permanence-os-sub000/model"
)

// maxRetries is the conciliation retry budget per goal.
const maxRetries = 2

// Params carries one attempt's inputs.
type Params struct {
	Goal string
	// Flags are the explicit risk declarations for the goal.
	Flags governor.RiskFlags
	// SourcesPath overrides the configured evidence file.
	SourcesPath string
	// DraftPath overrides the configured draft file. An absent draft file
	// is not an error; production falls through to composition.
	DraftPath string
	// AllowSingleSource overrides the two-distinct-sources rule. The
	// override is recorded in the attempt's artifacts.
	AllowSingleSource bool
	// RetryCount is how many prior attempts the caller has made for this
	// goal; it feeds the conciliation policy.
	RetryCount int
}

// Report is the attempt outcome handed back to the caller.
type Report struct {
	TaskID      string        `json:"task_id"`
	ExitCode    int           `json:"exit_code"`
	Stage       core.Stage    `json:"stage"`
	Status      core.Status   `json:"status"`
	Decision    core.Decision `json:"decision,omitempty"`
	ArtifactRef string        `json:"artifact_ref,omitempty"`
	Reason      string        `json:"reason,omitempty"`
}

// Options configures a Runner.
type Options struct {
	Logger logging.Logger
	// Models provides the per-task-type model capability. Defaults to a
	// registry that always returns the unavailable NoOp model.
	Models *model.Registry
}

// Runner is the Orchestrator for governed task attempts. Each Run call
// drives a fresh Governor; a Runner may be reused across attempts but
// never runs two attempts concurrently.
type Runner struct {
	cfg      *config.Config
	canon    *canon.Canon
	identity *canon.Identity
	logger   logging.Logger
	models   *model.Registry
}

// New creates a Runner. The Canon and identity documents must already be
// loaded; failing to load the Canon is a fatal startup error, not a
// per-task outcome.
func New(cfg *config.Config, c *canon.Canon, id *canon.Identity, optFns ...func(o *Options)) *Runner {
	opts := Options{
		Logger: logging.NoOpLogger{},
		Models: model.NewRegistry(nil),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Runner{
		cfg:      cfg,
		canon:    c,
		identity: id,
		logger:   opts.Logger,
		models:   opts.Models,
	}
}

// Run executes one attempt end to end and returns the outcome report.
// The returned error mirrors the taxonomy; the Report is always usable.
func (r *Runner) Run(ctx context.Context, params Params) (Report, error) {
	goal := strings.TrimSpace(params.Goal)
	if goal == "" {
		r.logger.Error("Run rejected: empty goal")
		return Report{ExitCode: ExitEmptyGoal, Reason: "no goal provided"}, ErrEmptyGoal
	}

	gov := governor.New(r.canon, r.cfg)
	gov.InitializeTask(goal)
	if err := gov.MarkRunning(); err != nil {
		return r.report(gov, ExitHalted, "", "", err.Error()), err
	}

	// Validation.
	if err := gov.TransitionStage(core.StageValidation); err != nil {
		return r.report(gov, ExitHalted, "", "", err.Error()), err
	}
	if v := gov.ValidateAgainstPolicy(goal); !v.Valid {
		_ = gov.Halt(v.Reason)
		return r.report(gov, ExitHalted, "", "", v.Reason), fmt.Errorf("%w: %s", ErrPolicyViolation, v.Reason)
	}

	// Risk. HIGH escalates before any role work.
	tier := gov.AssignRiskTier(goal, params.Flags)
	if tier == core.RiskHigh {
		reason := "HIGH risk task requires human approval"
		_ = gov.Escalate(reason)
		_ = gov.Save()
		return r.report(gov, ExitHighRisk, "", "", reason), ErrHighRisk
	}

	if halted, err := r.enforceBudget(gov); halted {
		return r.report(gov, ExitHalted, "", "", "budget exceeded"), err
	}

	// Planning.
	spec, rep, err := r.planningStage(ctx, gov, goal, params)
	if err != nil {
		return rep, err
	}

	// Research.
	sources, rep, err := r.researchStage(ctx, gov, params)
	if err != nil {
		return rep, err
	}

	// Execution.
	result, rep, err := r.executionStage(ctx, gov, spec, sources, params)
	if err != nil {
		return rep, err
	}

	// Review, compliance, conciliation.
	return r.decisionStages(ctx, gov, goal, result, params)
}

// enforceBudget halts the attempt when a ceiling is hit.
func (r *Runner) enforceBudget(gov *governor.Governor) (bool, error) {
	check := gov.CheckBudgets()
	if check.WithinBudget {
		return false, nil
	}
	reason := fmt.Sprintf("budget exceeded: steps=%s tools=%s", check.Steps, check.Tools)
	_ = gov.Halt(reason)
	return true, fmt.Errorf("%w: steps=%s tools=%s", ErrBudgetExceeded, check.Steps, check.Tools)
}

func (r *Runner) planningStage(ctx context.Context, gov *governor.Governor, goal string, params Params) (*core.TaskSpecification, Report, error) {
	if rep, err := r.enterStage(gov, core.StagePlanning, "planner"); err != nil {
		return nil, rep, err
	}

	planner := agent.NewPlanner(r.canon, r.cfg.MaxSteps, r.cfg.MaxToolCalls, func(o *agent.PlannerOptions) {
		o.Model = r.models.Get("planning")
		o.Assist = r.cfg.ModelAssist
		o.Logger = r.logger
	})
	spec := planner.CreatePlan(ctx, goal, nil)

	specPath := filepath.Join(r.cfg.WorkingDir(), gov.State().TaskID+"_spec.json")
	if err := writeJSON(specPath, spec); err != nil {
		_ = gov.Halt("spec persistence failed: " + err.Error())
		return nil, r.report(gov, ExitHalted, "", "", err.Error()), err
	}
	if err := gov.RecordArtifact("spec", specPath); err != nil {
		return nil, r.report(gov, ExitHalted, "", "", err.Error()), err
	}
	if !spec.Falsifiable {
		gov.Warn("Plan success criteria are not falsifiable")
	}
	return &spec, Report{}, nil
}

func (r *Runner) researchStage(ctx context.Context, gov *governor.Governor, params Params) ([]core.SourceRecord, Report, error) {
	if rep, err := r.enterStage(gov, core.StageResearch, "researcher"); err != nil {
		return nil, rep, err
	}

	sourcesPath := params.SourcesPath
	if sourcesPath == "" {
		sourcesPath = r.cfg.SourcesPath
	}

	raw, err := agent.LoadSources(sourcesPath)
	if err != nil {
		reason := "evidence file unusable: " + err.Error()
		_ = gov.Escalate(reason)
		_ = gov.Save()
		return nil, r.report(gov, ExitInvalidEvidence, "", "", reason), fmt.Errorf("%w: %s", ErrInvalidEvidence, reason)
	}
	_ = gov.RecordToolCall()

	researcher := agent.NewResearcher(func(o *agent.ResearcherOptions) { o.Logger = r.logger })
	validation := researcher.ValidateSources(raw)
	if !validation.OK {
		reason := describeSourceErrors(validation.Errors)
		_ = gov.Escalate(reason)
		_ = gov.Save()
		return nil, r.report(gov, ExitInvalidEvidence, "", "", reason), fmt.Errorf("%w: %s", ErrInvalidEvidence, reason)
	}

	sources := agent.ToRecords(raw)
	if agent.DistinctSources(sources) < 2 {
		if !params.AllowSingleSource {
			reason := "fewer than two distinct sources in evidence"
			_ = gov.Escalate(reason)
			_ = gov.Save()
			return nil, r.report(gov, ExitInvalidEvidence, "", "", reason), fmt.Errorf("%w: %s", ErrInvalidEvidence, reason)
		}
		gov.Warn("Single-source evidence accepted by override")
		_ = gov.RecordArtifact("single_source_override", true)
	}

	if err := gov.AttachSources(sources); err != nil {
		return nil, r.report(gov, ExitHalted, "", "", err.Error()), err
	}
	return sources, Report{}, nil
}

func (r *Runner) executionStage(ctx context.Context, gov *governor.Governor, spec *core.TaskSpecification, sources []core.SourceRecord, params Params) (core.Result, Report, error) {
	if rep, err := r.enterStage(gov, core.StageExecution, "executor"); err != nil {
		return core.Result{}, rep, err
	}

	draftPath := params.DraftPath
	if draftPath == "" {
		draftPath = r.cfg.DraftPath
	}

	executor := agent.NewExecutor(r.cfg.WorkingDir(), func(o *agent.ExecutorOptions) {
		o.Model = r.models.Get("execution")
		o.Logger = r.logger
	})
	result := executor.Produce(ctx, spec, sources, draftPath)
	_ = gov.RecordToolCall()

	if result.Status == core.ProduceRefused {
		reason := "producer refused: " + strings.Join(result.Notes, "; ")
		_ = gov.Halt(reason)
		return result, r.report(gov, ExitHalted, "", "", reason), fmt.Errorf("production refused: %s", reason)
	}

	if err := gov.RecordArtifact("output", result.ArtifactRef); err != nil {
		return result, r.report(gov, ExitHalted, "", "", err.Error()), err
	}
	return result, Report{}, nil
}

func (r *Runner) decisionStages(ctx context.Context, gov *governor.Governor, goal string, result core.Result, params Params) (Report, error) {
	if rep, err := r.enterStage(gov, core.StageOutputReview, "reviewer"); err != nil {
		return rep, err
	}

	content, err := os.ReadFile(result.ArtifactRef)
	if err != nil {
		reason := "artifact unreadable: " + err.Error()
		_ = gov.Halt(reason)
		return r.report(gov, ExitHalted, "", "", reason), err
	}

	reviewer := agent.NewReviewer(func(o *agent.ReviewerOptions) { o.Logger = r.logger })
	review := reviewer.Review(string(content))

	// The gate runs only on approved output; nothing unapproved can leave
	// the system anyway.
	if review.Approved {
		gate := agent.NewComplianceGate(r.identity, func(o *agent.ComplianceGateOptions) { o.Logger = r.logger })
		decision := gate.Evaluate(agent.Action{
			Goal:         goal,
			IdentityUsed: r.identity.SelectForGoal(goal),
			Irreversible: params.Flags.Irreversible,
			OutputPath:   result.ArtifactRef,
		})
		switch decision.Verdict {
		case core.VerdictReject:
			reason := "compliance rejected: " + strings.Join(decision.Reasons, "; ")
			_ = gov.Halt(reason)
			return r.report(gov, ExitEscalated, "", result.ArtifactRef, reason), fmt.Errorf("%w: %s", ErrComplianceReject, reason)
		case core.VerdictHold:
			reason := "compliance hold: " + strings.Join(decision.Reasons, "; ")
			_ = gov.Escalate(reason)
			_ = gov.Save()
			return r.report(gov, ExitEscalated, "", result.ArtifactRef, reason), fmt.Errorf("%w: %s", ErrComplianceHold, reason)
		}
	}

	if rep, err := r.enterStage(gov, core.StageConciliation, "conciliator"); err != nil {
		return rep, err
	}

	conciliator := agent.NewConciliator(func(o *agent.ConciliatorOptions) {
		o.Model = r.models.Get("conciliation")
		o.Logger = r.logger
	})
	decision := conciliator.Decide(ctx, review, params.RetryCount, maxRetries)

	switch decision.Decision {
	case core.DecisionAccept:
		if err := gov.Complete(); err != nil {
			return r.report(gov, ExitHalted, decision.Decision, result.ArtifactRef, err.Error()), err
		}
		if err := gov.Save(); err != nil {
			return r.report(gov, ExitHalted, decision.Decision, result.ArtifactRef, err.Error()), err
		}
		return r.report(gov, ExitSuccess, decision.Decision, result.ArtifactRef, decision.Reason), nil

	case core.DecisionEscalate:
		_ = gov.Escalate(decision.Reason)
		_ = gov.Save()
		return r.report(gov, ExitEscalated, decision.Decision, result.ArtifactRef, decision.Reason), fmt.Errorf("conciliator escalated: %s", decision.Reason)

	default: // RETRY
		gov.Warn("Retry recommended: " + decision.Reason)
		_ = gov.Save()
		return r.report(gov, ExitRetry, decision.Decision, result.ArtifactRef, decision.Reason), nil
	}
}

// enterStage transitions, routes and re-checks budgets before a role runs.
func (r *Runner) enterStage(gov *governor.Governor, stage core.Stage, role string) (Report, error) {
	if err := gov.TransitionStage(stage); err != nil {
		return r.report(gov, ExitHalted, "", "", err.Error()), err
	}
	if _, err := gov.RouteToAgent(role); err != nil {
		_ = gov.Halt("routing failed: " + err.Error())
		return r.report(gov, ExitHalted, "", "", err.Error()), err
	}
	if halted, err := r.enforceBudget(gov); halted {
		return r.report(gov, ExitHalted, "", "", "budget exceeded"), err
	}
	return Report{}, nil
}

func (r *Runner) report(gov *governor.Governor, exitCode int, decision core.Decision, artifactRef, reason string) Report {
	rep := Report{
		ExitCode:    exitCode,
		Decision:    decision,
		ArtifactRef: artifactRef,
		Reason:      reason,
	}
	if state := gov.State(); state != nil {
		rep.TaskID = state.TaskID
		rep.Stage = state.Stage
		rep.Status = state.Status
	}
	return rep
}

func describeSourceErrors(errs []agent.SourceError) string {
	var parts []string
	for _, e := range errs {
		switch {
		case e.Index == nil:
			parts = append(parts, e.Reason)
		default:
			parts = append(parts, fmt.Sprintf("record %d missing %s", *e.Index, strings.Join(e.Missing, ", ")))
		}
	}
	return "invalid evidence: " + strings.Join(parts, "; ")
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
