package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestAuditAppendFormat(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2026, 8, 31, 10, 30, 0, 0, time.UTC)
	a := NewAuditLogger(dir, func(o *AuditOptions) { o.Now = fixedClock(ts) })

	entry, err := a.Append("INFO", "Task initialized: T-1")
	require.NoError(t, err)
	assert.Equal(t, "[2026-08-31T10:30:00Z] [INFO] Task initialized: T-1", entry)

	data, err := os.ReadFile(filepath.Join(dir, "2026-08-31.log"))
	require.NoError(t, err)
	assert.Equal(t, entry+"\n", string(data))
}

func TestAuditAppendOnly(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2026, 8, 31, 10, 30, 0, 0, time.UTC)
	a := NewAuditLogger(dir, func(o *AuditOptions) { o.Now = fixedClock(ts) })

	_, err := a.Append("INFO", "first")
	require.NoError(t, err)
	_, err = a.Append("WARNING", "second")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "2026-08-31.log"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "[INFO] first")
	assert.Contains(t, lines[1], "[WARNING] second")
}

func TestAuditLoggerInterface(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	a := NewAuditLogger(dir, func(o *AuditOptions) { o.Now = fixedClock(ts) })

	var _ Logger = a
	a.Info("routing", "agent", "planner")

	data, err := os.ReadFile(filepath.Join(dir, "2026-08-31.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "[INFO] routing agent=planner")
}
