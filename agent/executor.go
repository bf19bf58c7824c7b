package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MaxProspero/permanence-os-sub000/core"
	"github.com/MaxProspero/permanence-os-sub000/logging"
	"github.com/MaxProspero/permanence-os-sub000/model"
)

const provenanceHeading = "## Sources (Provenance)"

// ExecutorOptions configures an Executor.
type ExecutorOptions struct {
	// Model enables model-composed artifacts. Failures on this path fall
	// through to the deterministic composer.
	Model  model.Model
	Logger logging.Logger
	Clock  func() time.Time
}

// Executor produces the task artifact. It works strictly from the
// specification and the validated evidence; without a specification it
// refuses.
type Executor struct {
	workingDir string
	model      model.Model
	logger     logging.Logger
	clock      func() time.Time
}

// NewExecutor creates an Executor that writes artifacts under workingDir.
func NewExecutor(workingDir string, optFns ...func(o *ExecutorOptions)) *Executor {
	opts := ExecutorOptions{
		Logger: logging.NoOpLogger{},
		Clock:  time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Executor{
		workingDir: workingDir,
		model:      opts.Model,
		logger:     opts.Logger,
		clock:      opts.Clock,
	}
}

// Produce creates the artifact for a specification. Precedence: a caller
// draft wins (FINAL_CREATED), then model composition (MODEL_COMPOSED),
// then the deterministic report (AUTO_COMPOSED). A nil spec is REFUSED.
func (e *Executor) Produce(ctx context.Context, spec *core.TaskSpecification, sources []core.SourceRecord, draftPath string) core.Result {
	now := e.clock().UTC()
	if spec == nil {
		e.logger.Warn("Executor refused: no task specification")
		return core.Result{
			Status:    core.ProduceRefused,
			Notes:     []string{"no task specification provided"},
			CreatedAt: now,
		}
	}

	if draftPath != "" {
		if result, ok := e.fromDraft(spec, sources, draftPath, now); ok {
			return result
		}
	}

	if e.model != nil && e.model.Available() {
		if result, ok := e.fromModel(ctx, spec, sources, now); ok {
			return result
		}
	}

	return e.autoCompose(spec, sources, now)
}

// fromDraft promotes a human-authored draft to the final artifact,
// appending the provenance section when the draft lacks one.
func (e *Executor) fromDraft(spec *core.TaskSpecification, sources []core.SourceRecord, draftPath string, now time.Time) (core.Result, bool) {
	data, err := os.ReadFile(draftPath)
	if err != nil {
		e.logger.Warn("Executor draft unreadable", "path", draftPath, "error", err.Error())
		return core.Result{}, false
	}

	content := string(data)
	if !strings.Contains(content, provenanceHeading) {
		content = strings.TrimRight(content, "\n") + "\n\n" + provenanceSection(sources) + "\n"
	}

	ref, err := e.writeArtifact(spec.SpecID, content)
	if err != nil {
		e.logger.Error("Executor artifact write failed", "error", err.Error())
		return core.Result{}, false
	}

	e.logger.Info("Executor promoted draft to final artifact", "ref", ref)
	return core.Result{
		Status:      core.ProduceFinalCreated,
		ArtifactRef: ref,
		Notes:       []string{"final content created from draft: " + draftPath},
		CreatedAt:   now,
	}, true
}

// fromModel asks the model to compose the artifact from evidence only.
// Any failure or empty response falls through to auto composition.
func (e *Executor) fromModel(ctx context.Context, spec *core.TaskSpecification, sources []core.SourceRecord, now time.Time) (core.Result, bool) {
	var evidence []string
	for _, src := range sources {
		line := src.Source
		if src.Notes != "" {
			line += ": " + src.Notes
		}
		evidence = append(evidence, "- "+line)
	}

	prompt := strings.Join([]string{
		"Compose the deliverables below using ONLY the evidence provided.",
		"Do not invent facts. Attribute every claim to its source.",
		"",
		"Goal: " + spec.Goal,
		"Deliverables:",
		"- " + strings.Join(spec.Deliverables, "\n- "),
		"",
		"Evidence:",
		strings.Join(evidence, "\n"),
	}, "\n")

	resp, err := e.model.Generate(ctx, prompt, "You compose artifacts strictly from provided evidence.")
	if err != nil || strings.TrimSpace(resp.Text) == "" {
		if err != nil {
			e.logger.Warn("Executor model composition failed", "error", err.Error())
		}
		return core.Result{}, false
	}

	content := strings.TrimRight(resp.Text, "\n")
	if !strings.Contains(content, provenanceHeading) {
		content += "\n\n" + provenanceSection(sources)
	}

	ref, err := e.writeArtifact(spec.SpecID, content+"\n")
	if err != nil {
		e.logger.Error("Executor artifact write failed", "error", err.Error())
		return core.Result{}, false
	}

	e.logger.Info("Executor composed artifact via model", "ref", ref)
	return core.Result{
		Status:      core.ProduceModelComposed,
		ArtifactRef: ref,
		Notes:       []string{"content composed by model from validated evidence"},
		CreatedAt:   now,
	}, true
}

// autoCompose builds the deterministic fallback report. It always
// succeeds in memory; only the filesystem write can fail.
func (e *Executor) autoCompose(spec *core.TaskSpecification, sources []core.SourceRecord, now time.Time) core.Result {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", spec.Goal)
	b.WriteString("## Output (Spec-Bound)\n\n")

	for _, deliverable := range spec.Deliverables {
		fmt.Fprintf(&b, "### %s\n\n", deliverable)
		b.WriteString("Evidence (verbatim or excerpted from sources):\n\n")
		if len(sources) == 0 {
			b.WriteString("- no evidence available\n")
		}
		for _, src := range sources {
			note := src.Notes
			if note == "" {
				note = src.Source
			}
			fmt.Fprintf(&b, "- [%s] %s\n", src.Source, note)
		}
		b.WriteString("\n")
	}

	b.WriteString(provenanceSection(sources))
	b.WriteString("\n")

	ref, err := e.writeArtifact(spec.SpecID, b.String())
	if err != nil {
		e.logger.Error("Executor artifact write failed", "error", err.Error())
		return core.Result{
			Status:    core.ProduceRefused,
			Notes:     []string{"artifact write failed: " + err.Error()},
			CreatedAt: now,
		}
	}

	e.logger.Info("Executor auto-composed artifact", "ref", ref)
	return core.Result{
		Status:      core.ProduceAutoComposed,
		ArtifactRef: ref,
		Notes:       []string{"content auto-composed from validated evidence"},
		CreatedAt:   now,
	}
}

// provenanceSection renders the mandatory sources block.
func provenanceSection(sources []core.SourceRecord) string {
	var b strings.Builder
	b.WriteString(provenanceHeading + "\n\n")
	if len(sources) == 0 {
		b.WriteString("no sources provided\n")
		return b.String()
	}
	for _, src := range sources {
		fmt.Fprintf(&b, "- %s | %s | %.2f | %s\n", src.Source, src.Timestamp, src.Confidence, src.Notes)
	}
	return b.String()
}

func (e *Executor) writeArtifact(specID, content string) (string, error) {
	if err := os.MkdirAll(e.workingDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(e.workingDir, specID+"_output.md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
