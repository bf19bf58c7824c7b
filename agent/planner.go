package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/MaxProspero/permanence-os-sub000/canon"
	"github.com/MaxProspero/permanence-os-sub000/core"
	"github.com/MaxProspero/permanence-os-sub000/logging"
	"github.com/MaxProspero/permanence-os-sub000/model"
)

// vagueTerms make a success criterion non-falsifiable.
var vagueTerms = []string{"good", "better", "quality", "nice", "appropriate"}

// PlannerOptions configures a Planner.
type PlannerOptions struct {
	// Model enables optional model-assisted planning. The deterministic
	// plan is always computed first; assist failures fall back to it.
	Model  model.Model
	Assist bool
	Logger logging.Logger
	Clock  func() time.Time
}

// Planner converts a human goal into a bounded, falsifiable task
// specification. It cannot execute plans and cannot gather external data.
type Planner struct {
	canon        *canon.Canon
	maxSteps     int
	maxToolCalls int
	model        model.Model
	assist       bool
	logger       logging.Logger
	clock        func() time.Time
}

// NewPlanner creates a Planner bound to the Canon and the global budgets
// its estimates are capped by.
func NewPlanner(c *canon.Canon, maxSteps, maxToolCalls int, optFns ...func(o *PlannerOptions)) *Planner {
	opts := PlannerOptions{
		Logger: logging.NoOpLogger{},
		Clock:  time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Planner{
		canon:        c,
		maxSteps:     maxSteps,
		maxToolCalls: maxToolCalls,
		model:        opts.Model,
		assist:       opts.Assist,
		logger:       opts.Logger,
		clock:        opts.Clock,
	}
}

// CreatePlan generates the task specification for a goal. taskCtx carries
// optional caller context such as a "time_limit".
func (p *Planner) CreatePlan(ctx context.Context, goal string, taskCtx map[string]any) core.TaskSpecification {
	deliverables := p.identifyDeliverables(goal)
	criteria := p.defineSuccessCriteria(deliverables)
	constraints := p.extractConstraints(taskCtx)
	resources := p.identifyRequiredResources(goal)

	spec := core.TaskSpecification{
		SpecID:             "SPEC-" + p.clock().UTC().Format("20060102-150405"),
		Goal:               goal,
		Deliverables:       deliverables,
		SuccessCriteria:    criteria,
		Constraints:        constraints,
		RequiredResources:  resources,
		EstimatedSteps:     p.estimateSteps(goal, deliverables),
		EstimatedToolCalls: p.estimateToolCalls(goal, resources),
		Falsifiable:        checkFalsifiability(criteria),
		CreatedAt:          p.clock().UTC(),
	}

	if p.assist && p.model != nil && p.model.Available() {
		p.mergeAssist(ctx, &spec, taskCtx)
	}
	return spec
}

func (p *Planner) identifyDeliverables(goal string) []string {
	lower := strings.ToLower(goal)
	var deliverables []string

	if strings.Contains(lower, "summary") || strings.Contains(lower, "research") {
		deliverables = append(deliverables, "Research summary document with citations")
	}
	if strings.Contains(lower, "create") || strings.Contains(lower, "generate") {
		deliverables = append(deliverables, "Generated content artifact")
	}
	if strings.Contains(lower, "code") || strings.Contains(lower, "script") {
		deliverables = append(deliverables, "Executable code with documentation")
	}
	if strings.Contains(lower, "analyze") {
		deliverables = append(deliverables, "Analysis document with findings")
	}
	if len(deliverables) == 0 {
		deliverables = append(deliverables, "Structured response to query")
	}
	return deliverables
}

func (p *Planner) defineSuccessCriteria(deliverables []string) []string {
	criteria := []string{"Output aligns with Canon values and constraints"}

	for _, d := range deliverables {
		if strings.Contains(strings.ToLower(d), "research") {
			criteria = append(criteria,
				"All claims supported by cited sources",
				"Sources are from trusted, verifiable origins",
			)
			break
		}
	}
	for _, d := range deliverables {
		if strings.Contains(strings.ToLower(d), "code") {
			criteria = append(criteria,
				"Code executes without errors",
				"Documentation explains purpose and usage",
			)
			break
		}
	}

	criteria = append(criteria,
		"Goal statement fully addressed",
		"No hallucinations or unsupported claims",
	)
	return criteria
}

func (p *Planner) extractConstraints(taskCtx map[string]any) []string {
	constraints := []string{
		"Must respect all Canon invariants",
		"No actions requiring human approval without escalation",
		"All external information must be sourced",
		fmt.Sprintf("Maximum %d execution steps", p.maxSteps),
		fmt.Sprintf("Maximum %d tool calls", p.maxToolCalls),
	}
	if taskCtx != nil {
		if limit, ok := taskCtx["time_limit"]; ok {
			constraints = append(constraints, fmt.Sprintf("Must complete within %v", limit))
		}
	}
	return constraints
}

func (p *Planner) identifyRequiredResources(goal string) []string {
	lower := strings.ToLower(goal)
	var resources []string

	if strings.Contains(lower, "research") || strings.Contains(lower, "find") {
		resources = append(resources, "project_knowledge_search", "web_search")
	}
	if strings.Contains(lower, "code") || strings.Contains(lower, "script") {
		resources = append(resources, "bash_tool", "create_file")
	}
	if strings.Contains(lower, "document") || strings.Contains(lower, "write") {
		resources = append(resources, "create_file")
	}
	return resources
}

func (p *Planner) estimateSteps(goal string, deliverables []string) int {
	lower := strings.ToLower(goal)
	steps := 3 // planning, execution, review

	if strings.Contains(lower, "research") {
		steps += 2 // search + source review
	}
	if strings.Contains(lower, "code") {
		steps += 2 // write + test
	}
	if len(deliverables) > 1 {
		steps += len(deliverables)
	}
	return min(steps, p.maxSteps)
}

func (p *Planner) estimateToolCalls(goal string, resources []string) int {
	distinct := map[string]struct{}{}
	for _, r := range resources {
		distinct[r] = struct{}{}
	}
	estimated := len(distinct)

	lower := strings.ToLower(goal)
	if strings.Contains(lower, "comprehensive") || strings.Contains(lower, "detailed") {
		estimated += 2
	}
	return min(estimated, p.maxToolCalls)
}

func checkFalsifiability(criteria []string) bool {
	if len(criteria) == 0 {
		return false
	}
	for _, c := range criteria {
		lower := strings.ToLower(c)
		for _, vague := range vagueTerms {
			if strings.Contains(lower, vague) {
				return false
			}
		}
	}
	return true
}

// assistFields is the JSON shape the model is asked to produce.
type assistFields struct {
	Deliverables       []string `json:"deliverables"`
	SuccessCriteria    []string `json:"success_criteria"`
	Constraints        []string `json:"constraints"`
	RequiredResources  []string `json:"required_resources"`
	EstimatedSteps     int      `json:"estimated_steps"`
	EstimatedToolCalls int      `json:"estimated_tool_calls"`
}

// mergeAssist layers model-suggested fields over the deterministic plan.
// Any failure leaves the plan untouched.
func (p *Planner) mergeAssist(ctx context.Context, spec *core.TaskSpecification, taskCtx map[string]any) {
	ctxJSON, _ := json.Marshal(taskCtx)
	prompt := strings.Join([]string{
		"Create a bounded task plan as strict JSON only.",
		"Do not include markdown code fences.",
		"Use this JSON schema:",
		`{"deliverables":[str], "success_criteria":[str], "constraints":[str],` +
			` "required_resources":[str], "estimated_steps":int, "estimated_tool_calls":int}`,
		"",
		"Goal: " + spec.Goal,
		"Context: " + string(ctxJSON),
	}, "\n")

	resp, err := p.model.Generate(ctx, prompt, "You draft bounded task plans. Respond with JSON only.")
	if err != nil {
		p.logger.Warn("Planner model assist unavailable", "error", err.Error())
		return
	}

	fields, ok := extractJSON(resp.Text)
	if !ok {
		p.logger.Warn("Planner model assist returned no usable JSON")
		return
	}

	if len(fields.Deliverables) > 0 {
		spec.Deliverables = fields.Deliverables
	}
	if len(fields.SuccessCriteria) > 0 {
		spec.SuccessCriteria = fields.SuccessCriteria
		spec.Falsifiable = checkFalsifiability(spec.SuccessCriteria)
	}
	spec.Constraints = mergeUnique(spec.Constraints, fields.Constraints)
	spec.RequiredResources = mergeUnique(spec.RequiredResources, fields.RequiredResources)
	if fields.EstimatedSteps > 0 {
		spec.EstimatedSteps = min(fields.EstimatedSteps, p.maxSteps)
	}
	if fields.EstimatedToolCalls > 0 {
		spec.EstimatedToolCalls = min(fields.EstimatedToolCalls, p.maxToolCalls)
	}
}

// extractJSON pulls the first JSON object out of model text.
func extractJSON(text string) (assistFields, bool) {
	var fields assistFields
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return fields, false
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &fields); err != nil {
		return fields, false
	}
	return fields, true
}

func mergeUnique(base, extra []string) []string {
	seen := map[string]struct{}{}
	var merged []string
	for _, item := range append(append([]string{}, base...), extra...) {
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		merged = append(merged, item)
	}
	return merged
}
