package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MaxProspero/permanence-os-sub000/canon"
	"github.com/MaxProspero/permanence-os-sub000/core"
)

func testGate() *ComplianceGate {
	return NewComplianceGate(canon.DefaultIdentity())
}

func TestEvaluateApprove(t *testing.T) {
	d := testGate().Evaluate(Action{Goal: "Summarize internal notes", IdentityUsed: "Operator"})
	assert.Equal(t, core.VerdictApprove, d.Verdict)
	assert.Equal(t, []string{"All compliance checks passed"}, d.Reasons)
}

func TestEvaluateHoldKeywords(t *testing.T) {
	tests := []struct {
		goal   string
		reason string
	}{
		{"Review the GDPR implications", "legal exposure requires human review: gdpr"},
		{"Prepare the invoice", "financial exposure requires human review: invoice"},
		{"Draft the agreement", "contractual commitment requires human review: agreement"},
		{"Announce the launch", "public statement requires human review: announce"},
	}
	for _, tt := range tests {
		d := testGate().Evaluate(Action{Goal: tt.goal, IdentityUsed: "Operator"})
		assert.Equal(t, core.VerdictHold, d.Verdict, tt.goal)
		assert.Contains(t, d.Reasons, tt.reason)
	}
}

func TestEvaluateHoldPublicIrreversible(t *testing.T) {
	d := testGate().Evaluate(Action{
		Goal:         "publish announcement",
		IdentityUsed: "Operator",
		Irreversible: true,
	})
	require.Equal(t, core.VerdictHold, d.Verdict)
	assert.GreaterOrEqual(t, len(d.Reasons), 2)
}

func TestEvaluateRejectMissingIdentity(t *testing.T) {
	d := testGate().Evaluate(Action{Goal: "x"})
	require.Equal(t, core.VerdictReject, d.Verdict)
	assert.Contains(t, d.Reasons, "no identity declared for the action")
}

func TestEvaluateRejectUnknownIdentity(t *testing.T) {
	d := testGate().Evaluate(Action{Goal: "x", IdentityUsed: "Somebody Else"})
	assert.Equal(t, core.VerdictReject, d.Verdict)
}

func TestEvaluateRejectDominatesHold(t *testing.T) {
	d := testGate().Evaluate(Action{Goal: "publish the contract", Irreversible: true})
	require.Equal(t, core.VerdictReject, d.Verdict)
	// Reject reason first, hold reasons retained after it.
	assert.Equal(t, "no identity declared for the action", d.Reasons[0])
	assert.Greater(t, len(d.Reasons), 1)
}

func TestEvaluateAllowedIdentitiesPass(t *testing.T) {
	id := canon.DefaultIdentity()
	gate := NewComplianceGate(id)

	for _, name := range id.Allowed() {
		d := gate.Evaluate(Action{Goal: "status update", IdentityUsed: name})
		assert.Equal(t, core.VerdictApprove, d.Verdict, name)
	}
}
