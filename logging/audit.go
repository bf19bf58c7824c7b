package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// AuditLogger writes the append-only audit trail. Entries use the format
//
//	[<ISO-8601 UTC timestamp>] [<LEVEL>] <message>
//
// and are appended to a single file per UTC calendar day inside Dir. Files
// are never rewritten. AuditLogger also satisfies Logger so it can be
// passed anywhere a structured logger is expected; slog-style key/value
// pairs are flattened into the message.
type AuditLogger struct {
	mu     sync.Mutex
	dir    string
	now    func() time.Time
	mirror Logger // optional secondary sink
}

// AuditOptions configures an AuditLogger.
type AuditOptions struct {
	// Mirror receives a copy of every entry (defaults to NoOpLogger).
	Mirror Logger
	// Now overrides the clock, used by tests for deterministic timestamps.
	Now func() time.Time
}

// NewAuditLogger creates an AuditLogger writing daily files under dir.
func NewAuditLogger(dir string, optFns ...func(o *AuditOptions)) *AuditLogger {
	opts := AuditOptions{
		Mirror: NoOpLogger{},
		Now:    time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &AuditLogger{dir: dir, now: opts.Now, mirror: opts.Mirror}
}

// Append writes one entry at the given level and returns the formatted
// line. Write failures are reported via the returned error; the entry
// string is valid either way so callers can still attach it to state.
func (a *AuditLogger) Append(level, msg string) (string, error) {
	ts := a.now().UTC()
	entry := fmt.Sprintf("[%s] [%s] %s", ts.Format(time.RFC3339), level, msg)

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return entry, fmt.Errorf("create log dir: %w", err)
	}
	path := filepath.Join(a.dir, ts.Format("2006-01-02")+".log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return entry, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(entry + "\n"); err != nil {
		return entry, fmt.Errorf("append audit log: %w", err)
	}
	return entry, nil
}

func (a *AuditLogger) log(level, msg string, args ...any) {
	_, _ = a.Append(level, flatten(msg, args...))
}

// Debug implements Logger.
func (a *AuditLogger) Debug(msg string, args ...any) {
	a.log("DEBUG", msg, args...)
	a.mirror.Debug(msg, args...)
}

// Info implements Logger.
func (a *AuditLogger) Info(msg string, args ...any) {
	a.log("INFO", msg, args...)
	a.mirror.Info(msg, args...)
}

// Warn implements Logger.
func (a *AuditLogger) Warn(msg string, args ...any) {
	a.log("WARNING", msg, args...)
	a.mirror.Warn(msg, args...)
}

// Error implements Logger.
func (a *AuditLogger) Error(msg string, args ...any) {
	a.log("ERROR", msg, args...)
	a.mirror.Error(msg, args...)
}

// flatten renders slog-style alternating key/value args into the message.
func flatten(msg string, args ...any) string {
	if len(args) == 0 {
		return msg
	}
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
		} else {
			fmt.Fprintf(&b, " %v", args[i])
		}
	}
	return b.String()
}
