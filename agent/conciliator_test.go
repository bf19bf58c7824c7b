package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MaxProspero/permanence-os-sub000/core"
	"github.com/MaxProspero/permanence-os-sub000/model"
)

func TestDecideAccept(t *testing.T) {
	c := NewConciliator()

	d := c.Decide(context.Background(), core.ReviewResult{Approved: true}, 0, 2)
	assert.Equal(t, core.DecisionAccept, d.Decision)
	assert.NotEmpty(t, d.Reason)
}

func TestDecideRetry(t *testing.T) {
	c := NewConciliator()

	review := core.ReviewResult{Approved: false, RequiredChanges: []string{"artifact is empty"}}
	d := c.Decide(context.Background(), review, 0, 2)
	assert.Equal(t, core.DecisionRetry, d.Decision)

	d = c.Decide(context.Background(), review, 1, 2)
	assert.Equal(t, core.DecisionRetry, d.Decision)
}

func TestDecideEscalateWhenExhausted(t *testing.T) {
	c := NewConciliator()

	review := core.ReviewResult{Approved: false, RequiredChanges: []string{"artifact is empty"}}
	d := c.Decide(context.Background(), review, 2, 2)
	assert.Equal(t, core.DecisionEscalate, d.Decision)
	assert.Contains(t, d.Reason, "retry budget exhausted")
}

func TestDecideAcceptWinsOverExhaustion(t *testing.T) {
	c := NewConciliator()

	d := c.Decide(context.Background(), core.ReviewResult{Approved: true}, 5, 2)
	assert.Equal(t, core.DecisionAccept, d.Decision)
}

func TestDecideAdvisoryAppended(t *testing.T) {
	c := NewConciliator(func(o *ConciliatorOptions) {
		o.Model = cannedModel{text: "Add a sources section.\nExtra line ignored."}
	})

	review := core.ReviewResult{Approved: false, RequiredChanges: []string{"artifact lacks a sources section"}}
	d := c.Decide(context.Background(), review, 0, 2)
	assert.Equal(t, core.DecisionRetry, d.Decision)
	assert.Contains(t, d.Reason, "advisory: Add a sources section.")
	assert.NotContains(t, d.Reason, "Extra line")
}

func TestDecideAdvisoryFailsOpen(t *testing.T) {
	m := model.NewMock("conciliator")
	m.FailWith(assert.AnError)
	c := NewConciliator(func(o *ConciliatorOptions) { o.Model = m })

	review := core.ReviewResult{Approved: false, RequiredChanges: []string{"x"}}
	d := c.Decide(context.Background(), review, 0, 2)
	assert.Equal(t, core.DecisionRetry, d.Decision)
	assert.NotContains(t, d.Reason, "advisory")
}
