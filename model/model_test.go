package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoOpNeverAvailable(t *testing.T) {
	var m Model = NoOp{}

	assert.False(t, m.Available())
	_, err := m.Generate(context.Background(), "prompt", "")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestMockCannedResponse(t *testing.T) {
	m := NewMock("test")
	m.AddResponse("hello", "world")

	resp, err := m.Generate(context.Background(), "hello", "")
	require.NoError(t, err)
	assert.Equal(t, "world", resp.Text)

	resp, err = m.Generate(context.Background(), "other", "")
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: other", resp.Text)
}

func TestMockFailure(t *testing.T) {
	m := NewMock("test")
	m.FailWith(errors.New("boom"))

	assert.False(t, m.Available())
	_, err := m.Generate(context.Background(), "hello", "")
	assert.Error(t, err)
}

func TestRouteFor(t *testing.T) {
	assert.Equal(t, TierOpus, RouteFor("canon_interpretation"))
	assert.Equal(t, TierSonnet, RouteFor("planning"))
	assert.Equal(t, TierHaiku, RouteFor("summarization"))
	assert.Equal(t, TierSonnet, RouteFor("unknown_task"))
}

func TestRegistryCachesPerTier(t *testing.T) {
	built := map[string]int{}
	r := NewRegistry(func(tier string) Model {
		built[tier]++
		return NewMock(tier)
	})

	a := r.Get("planning")
	b := r.Get("review") // same tier as planning
	c := r.Get("summarization")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, map[string]int{TierSonnet: 1, TierHaiku: 1}, built)
}

func TestRegistryNilFactoryYieldsNoOp(t *testing.T) {
	r := NewRegistry(nil)
	assert.False(t, r.Get("planning").Available())
}
