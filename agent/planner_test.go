package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MaxProspero/permanence-os-sub000/canon"
	"github.com/MaxProspero/permanence-os-sub000/model"
)

func testCanon() *canon.Canon {
	return &canon.Canon{
		Values:     []string{"Clarity over speed"},
		Invariants: []string{"No agent modifies the Canon"},
	}
}

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}
}

func TestCreatePlanResearchGoal(t *testing.T) {
	p := NewPlanner(testCanon(), 12, 5, func(o *PlannerOptions) {
		o.Clock = fixedClock()
	})

	spec := p.CreatePlan(context.Background(), "Research the history of X and write a summary", nil)

	assert.Equal(t, "SPEC-20250601-120000", spec.SpecID)
	assert.Contains(t, spec.Deliverables, "Research summary document with citations")
	assert.Contains(t, spec.SuccessCriteria, "All claims supported by cited sources")
	assert.Contains(t, spec.RequiredResources, "web_search")
	assert.True(t, spec.Falsifiable)
}

func TestCreatePlanEstimatesCapped(t *testing.T) {
	p := NewPlanner(testCanon(), 4, 2, func(o *PlannerOptions) {
		o.Clock = fixedClock()
	})

	spec := p.CreatePlan(context.Background(), "Research and generate comprehensive code and analyze it", nil)

	assert.LessOrEqual(t, spec.EstimatedSteps, 4)
	assert.LessOrEqual(t, spec.EstimatedToolCalls, 2)
}

func TestCreatePlanBudgetConstraints(t *testing.T) {
	p := NewPlanner(testCanon(), 12, 5)
	spec := p.CreatePlan(context.Background(), "anything", nil)

	assert.Contains(t, spec.Constraints, "Maximum 12 execution steps")
	assert.Contains(t, spec.Constraints, "Maximum 5 tool calls")
}

func TestCreatePlanTimeLimit(t *testing.T) {
	p := NewPlanner(testCanon(), 12, 5)
	spec := p.CreatePlan(context.Background(), "anything", map[string]any{"time_limit": "1h"})

	assert.Contains(t, spec.Constraints, "Must complete within 1h")
}

func TestCheckFalsifiability(t *testing.T) {
	assert.False(t, checkFalsifiability(nil))
	assert.False(t, checkFalsifiability([]string{"Output should be good"}))
	assert.True(t, checkFalsifiability([]string{"All claims supported by cited sources"}))
}

func TestCreatePlanAssistFailOpen(t *testing.T) {
	m := model.NewMock("planner")
	m.FailWith(assert.AnError)

	p := NewPlanner(testCanon(), 12, 5, func(o *PlannerOptions) {
		o.Model = m
		o.Assist = true
		o.Clock = fixedClock()
	})

	spec := p.CreatePlan(context.Background(), "Research topic X", nil)
	require.NotEmpty(t, spec.Deliverables)
	assert.Contains(t, spec.Deliverables, "Research summary document with citations")
}

// cannedModel always returns the same text, regardless of prompt.
type cannedModel struct{ text string }

func (m cannedModel) Generate(context.Context, string, string) (model.Response, error) {
	return model.Response{Text: m.text}, nil
}
func (m cannedModel) Available() bool  { return true }
func (m cannedModel) Info() model.Info { return model.Info{Name: "canned", Provider: "test"} }

func TestMergeAssistClampsEstimates(t *testing.T) {
	p := NewPlanner(testCanon(), 4, 2, func(o *PlannerOptions) {
		o.Model = cannedModel{text: `{"deliverables":["Report"],"estimated_steps":99,"estimated_tool_calls":99}`}
		o.Assist = true
	})

	spec := p.CreatePlan(context.Background(), "plain goal", nil)
	assert.Equal(t, []string{"Report"}, spec.Deliverables)
	assert.Equal(t, 4, spec.EstimatedSteps)
	assert.Equal(t, 2, spec.EstimatedToolCalls)
}

func TestExtractJSONFindsEmbeddedObject(t *testing.T) {
	raw, ok := extractJSON(`noise {"deliverables":["Report"]} trailing`)
	require.True(t, ok)
	assert.Equal(t, []string{"Report"}, raw.Deliverables)
}

func TestExtractJSONRejectsGarbage(t *testing.T) {
	_, ok := extractJSON("no json here")
	assert.False(t, ok)
	_, ok = extractJSON("{not valid}")
	assert.False(t, ok)
}
