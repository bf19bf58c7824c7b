package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransitionForwardOnly(t *testing.T) {
	assert.True(t, CanTransition(StageInit, StageValidation))
	assert.True(t, CanTransition(StagePlanning, StageResearch))
	assert.True(t, CanTransition(StageValidation, StageExecution)) // skipping stages is allowed
	assert.False(t, CanTransition(StageResearch, StagePlanning))
	assert.False(t, CanTransition(StageDone, StageInit))
}

func TestCanTransitionTerminalAlternates(t *testing.T) {
	for _, from := range []Stage{
		StageInit, StageValidation, StagePlanning, StageResearch,
		StageExecution, StageOutputReview, StageConciliation,
	} {
		assert.True(t, CanTransition(from, StageFailed), "FAILED from %s", from)
		assert.True(t, CanTransition(from, StageEscalated), "ESCALATED from %s", from)
	}

	assert.False(t, CanTransition(StageDone, StageFailed))
	assert.False(t, CanTransition(StageFailed, StageEscalated))
	assert.False(t, CanTransition(StageEscalated, StageFailed))
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusDone.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.False(t, StatusRunning.Terminal())
	assert.False(t, StatusBlocked.Terminal())
}

func TestAddArtifactAppendOnly(t *testing.T) {
	s := &SystemState{}

	require.NoError(t, s.AddArtifact("spec", "/tmp/spec.json"))
	require.NoError(t, s.AddArtifact("output", "/tmp/out.md"))

	err := s.AddArtifact("spec", "/tmp/other.json")
	require.Error(t, err)
	assert.Equal(t, "/tmp/spec.json", s.Artifacts["spec"])
}

func TestSystemStateJSONRendersEnumStrings(t *testing.T) {
	s := SystemState{
		TaskID:    "T-20260831-120000-abcd",
		Goal:      "test goal",
		Stage:     StageOutputReview,
		Status:    StatusRunning,
		RiskTier:  RiskMedium,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "OUTPUT_REVIEW", raw["stage"])
	assert.Equal(t, "RUNNING", raw["status"])
	assert.Equal(t, "MEDIUM", raw["risk_tier"])
}

func TestSystemStateJSONOmitsUnassignedRiskTier(t *testing.T) {
	data, err := json.Marshal(SystemState{TaskID: "T-x", Stage: StageInit, Status: StatusInit})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	_, present := raw["risk_tier"]
	assert.False(t, present)
}
