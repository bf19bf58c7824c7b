package permanence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MaxProspero/permanence-os-sub000/config"
	"github.com/MaxProspero/permanence-os-sub000/model"
)

func writeCanon(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "canon.yaml")
	doc := "values:\n  - Clarity over speed\ninvariants:\n  - No agent modifies the Canon\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func testOptions(t *testing.T, canonPath string) func(o *Options) {
	return func(o *Options) {
		o.Config = &config.Config{
			CanonPath:    canonPath,
			IdentityPath: filepath.Join(t.TempDir(), "absent.yaml"),
			MemoryDir:    t.TempDir(),
			LogDir:       t.TempDir(),
			MaxSteps:     config.DefaultMaxSteps,
			MaxToolCalls: config.DefaultMaxToolCalls,
		}
	}
}

func TestNewAssemblesPipeline(t *testing.T) {
	p, err := New(testOptions(t, writeCanon(t)))
	require.NoError(t, err)

	assert.NotNil(t, p.Runner())
	assert.NotEmpty(t, p.Canon().Invariants)
	assert.Equal(t, "Operator", p.Identity().Internal.Name)
}

func TestNewFailsWithoutCanon(t *testing.T) {
	_, err := New(testOptions(t, filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err)
}

func TestNewCustomModelFactory(t *testing.T) {
	var tiers []string
	p, err := New(testOptions(t, writeCanon(t)), func(o *Options) {
		o.ModelFactory = func(tier string) model.Model {
			tiers = append(tiers, tier)
			return model.NewMock(tier)
		}
	})
	require.NoError(t, err)
	assert.NotNil(t, p.Runner())
}
