package agent

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MaxProspero/permanence-os-sub000/core"
)

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func TestValidateSourcesEmptyList(t *testing.T) {
	r := NewResearcher()

	v := r.ValidateSources(nil)
	require.False(t, v.OK)
	require.Len(t, v.Errors, 1)
	assert.Nil(t, v.Errors[0].Index)
	assert.Equal(t, "no sources provided", v.Errors[0].Reason)
}

func TestValidateSourcesMissingFields(t *testing.T) {
	r := NewResearcher()

	v := r.ValidateSources([]RawSource{
		{Source: strPtr("a"), Timestamp: strPtr("2025-06-01T00:00:00Z"), Confidence: floatPtr(0.9)},
		{Source: strPtr("b")},
	})
	require.False(t, v.OK)
	require.Len(t, v.Errors, 1)
	require.NotNil(t, v.Errors[0].Index)
	assert.Equal(t, 1, *v.Errors[0].Index)
	assert.ElementsMatch(t, []string{"timestamp", "confidence"}, v.Errors[0].Missing)
}

func TestValidateSourcesZeroConfidenceIsPresent(t *testing.T) {
	r := NewResearcher()

	v := r.ValidateSources([]RawSource{
		{Source: strPtr("a"), Timestamp: strPtr("2025-06-01T00:00:00Z"), Confidence: floatPtr(0)},
	})
	assert.True(t, v.OK)
}

func TestToRecords(t *testing.T) {
	records := ToRecords([]RawSource{
		{Source: strPtr("a"), Timestamp: strPtr("t"), Confidence: floatPtr(0.5), Notes: "n"},
	})
	require.Len(t, records, 1)
	assert.Equal(t, core.SourceRecord{Source: "a", Timestamp: "t", Confidence: 0.5, Notes: "n"}, records[0])
}

func TestDistinctSources(t *testing.T) {
	records := []core.SourceRecord{
		{Source: "a"}, {Source: "a"}, {Source: "b"}, {Source: ""},
	}
	assert.Equal(t, 2, DistinctSources(records))
}

func TestLoadSourcesMissingFile(t *testing.T) {
	_, err := LoadSources(filepath.Join(t.TempDir(), "absent.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestLoadSourcesRejectsNonList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"source":"a"}`), 0o644))

	_, err := LoadSources(path)
	assert.Error(t, err)
}

func TestAppendSourceCreatesAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sources.json")

	require.NoError(t, AppendSource(path, "https://example.com", 0.8, "first"))
	require.NoError(t, AppendSource(path, "https://example.org", 0.6, "second"))

	sources, err := LoadSources(path)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "https://example.com", *sources[0].Source)
	assert.NotNil(t, sources[0].Timestamp)
	assert.Equal(t, 0.6, *sources[1].Confidence)
}

func TestAppendSourceRejectsBadConfidence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.json")
	assert.Error(t, AppendSource(path, "a", 1.5, ""))
	assert.Error(t, AppendSource(path, "a", -0.1, ""))
}
