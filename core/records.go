package core

import "time"

// SourceRecord is one provenanced evidence unit. Source, Timestamp and
// Confidence are mandatory; a list of records is valid only if every
// record carries all three.
type SourceRecord struct {
	Source     string  `json:"source"`
	Timestamp  string  `json:"timestamp"`
	Confidence float64 `json:"confidence"`
	Notes      string  `json:"notes,omitempty"`
	Hash       string  `json:"hash,omitempty"`
	Origin     string  `json:"origin,omitempty"`
}

// TaskSpecification is the Planner's bounded, falsifiable plan. Produced
// once per attempt and immutable after creation.
type TaskSpecification struct {
	SpecID             string    `json:"spec_id"`
	Goal               string    `json:"goal"`
	Deliverables       []string  `json:"deliverables"`
	SuccessCriteria    []string  `json:"success_criteria"`
	Constraints        []string  `json:"constraints"`
	RequiredResources  []string  `json:"required_resources"`
	EstimatedSteps     int       `json:"estimated_steps"`
	EstimatedToolCalls int       `json:"estimated_tool_calls"`
	Falsifiable        bool      `json:"falsifiable"`
	CreatedAt          time.Time `json:"created_at"`
}

// ProduceStatus describes how the Producer arrived at its artifact.
type ProduceStatus string

// Producer outcomes.
const (
	ProduceRefused       ProduceStatus = "REFUSED"
	ProduceFinalCreated  ProduceStatus = "FINAL_CREATED"
	ProduceModelComposed ProduceStatus = "MODEL_COMPOSED"
	ProduceAutoComposed  ProduceStatus = "AUTO_COMPOSED"
)

// Result is the generic envelope shared by producing roles. Role-specific
// records embed or accompany it rather than re-declaring the same shape.
type Result struct {
	Status      ProduceStatus `json:"status"`
	ArtifactRef string        `json:"artifact_ref,omitempty"`
	Notes       []string      `json:"notes"`
	CreatedAt   time.Time     `json:"created_at"`
}

// ReviewResult is the Reviewer's structural verdict on a produced artifact.
// RequiredChanges is empty exactly when Approved is true.
type ReviewResult struct {
	Approved        bool      `json:"approved"`
	Notes           []string  `json:"notes"`
	RequiredChanges []string  `json:"required_changes"`
	CreatedAt       time.Time `json:"created_at"`
}

// Verdict is the ComplianceGate outcome.
type Verdict string

// Compliance verdicts in dominance order: REJECT > HOLD > APPROVE.
const (
	VerdictApprove Verdict = "APPROVE"
	VerdictHold    Verdict = "HOLD"
	VerdictReject  Verdict = "REJECT"
)

// ComplianceDecision records the gate verdict with its non-empty reasons.
type ComplianceDecision struct {
	Verdict   Verdict   `json:"verdict"`
	Reasons   []string  `json:"reasons"`
	CreatedAt time.Time `json:"created_at"`
}

// Decision is the Conciliator outcome.
type Decision string

// Conciliation decisions.
const (
	DecisionAccept   Decision = "ACCEPT"
	DecisionRetry    Decision = "RETRY"
	DecisionEscalate Decision = "ESCALATE"
)

// ConciliationDecision is the accept/retry/escalate policy result.
type ConciliationDecision struct {
	Decision  Decision  `json:"decision"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}
