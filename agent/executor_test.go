package agent

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MaxProspero/permanence-os-sub000/core"
	"github.com/MaxProspero/permanence-os-sub000/model"
)

func testSpec() *core.TaskSpecification {
	return &core.TaskSpecification{
		SpecID:       "SPEC-20250601-120000",
		Goal:         "Research topic X",
		Deliverables: []string{"Research summary document with citations"},
	}
}

func testSources() []core.SourceRecord {
	return []core.SourceRecord{
		{Source: "https://example.com", Timestamp: "2025-06-01T00:00:00Z", Confidence: 0.9, Notes: "primary"},
		{Source: "https://example.org", Timestamp: "2025-06-01T00:00:00Z", Confidence: 0.7, Notes: "secondary"},
	}
}

func TestProduceRefusesWithoutSpec(t *testing.T) {
	e := NewExecutor(t.TempDir())

	result := e.Produce(context.Background(), nil, testSources(), "")
	assert.Equal(t, core.ProduceRefused, result.Status)
	assert.Empty(t, result.ArtifactRef)
}

func TestProduceAutoComposed(t *testing.T) {
	dir := t.TempDir()
	e := NewExecutor(dir)

	result := e.Produce(context.Background(), testSpec(), testSources(), "")
	require.Equal(t, core.ProduceAutoComposed, result.Status)
	assert.Equal(t, filepath.Join(dir, "SPEC-20250601-120000_output.md"), result.ArtifactRef)

	data, err := os.ReadFile(result.ArtifactRef)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "# Research topic X")
	assert.Contains(t, content, "## Output (Spec-Bound)")
	assert.Contains(t, content, "### Research summary document with citations")
	assert.Contains(t, content, "- [https://example.com] primary")
	assert.Contains(t, content, "## Sources (Provenance)")
	assert.Contains(t, content, "- https://example.com | 2025-06-01T00:00:00Z | 0.90 | primary")
}

func TestProduceAutoComposedNoSources(t *testing.T) {
	e := NewExecutor(t.TempDir())

	result := e.Produce(context.Background(), testSpec(), nil, "")
	require.Equal(t, core.ProduceAutoComposed, result.Status)

	data, err := os.ReadFile(result.ArtifactRef)
	require.NoError(t, err)
	assert.Contains(t, string(data), "no sources provided")
}

func TestProduceFromDraft(t *testing.T) {
	dir := t.TempDir()
	draft := filepath.Join(dir, "draft.md")
	require.NoError(t, os.WriteFile(draft, []byte("# My own writeup\n\nBody text.\n"), 0o644))

	e := NewExecutor(dir)
	result := e.Produce(context.Background(), testSpec(), testSources(), draft)
	require.Equal(t, core.ProduceFinalCreated, result.Status)

	data, err := os.ReadFile(result.ArtifactRef)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "# My own writeup")
	assert.Contains(t, content, "## Sources (Provenance)", "provenance must be appended to drafts")
}

func TestProduceDraftKeepsExistingProvenance(t *testing.T) {
	dir := t.TempDir()
	draft := filepath.Join(dir, "draft.md")
	body := "# Writeup\n\n## Sources (Provenance)\n\n- manual | 2025-01-01T00:00:00Z | 1.00 | checked\n"
	require.NoError(t, os.WriteFile(draft, []byte(body), 0o644))

	e := NewExecutor(dir)
	result := e.Produce(context.Background(), testSpec(), testSources(), draft)
	require.Equal(t, core.ProduceFinalCreated, result.Status)

	data, err := os.ReadFile(result.ArtifactRef)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "## Sources (Provenance)"))
}

func TestProduceMissingDraftFallsThrough(t *testing.T) {
	e := NewExecutor(t.TempDir())

	result := e.Produce(context.Background(), testSpec(), testSources(), "/nonexistent/draft.md")
	assert.Equal(t, core.ProduceAutoComposed, result.Status)
}

func TestProduceModelComposed(t *testing.T) {
	e := NewExecutor(t.TempDir(), func(o *ExecutorOptions) {
		o.Model = cannedModel{text: "Composed body citing https://example.com"}
	})

	result := e.Produce(context.Background(), testSpec(), testSources(), "")
	require.Equal(t, core.ProduceModelComposed, result.Status)

	data, err := os.ReadFile(result.ArtifactRef)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "Composed body")
	assert.Contains(t, content, "## Sources (Provenance)")
}

func TestProduceUnavailableModelFallsBack(t *testing.T) {
	e := NewExecutor(t.TempDir(), func(o *ExecutorOptions) {
		o.Model = model.NoOp{}
	})

	result := e.Produce(context.Background(), testSpec(), testSources(), "")
	assert.Equal(t, core.ProduceAutoComposed, result.Status)
}
