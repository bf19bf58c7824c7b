// Package config provides environment-driven configuration for the
// governed task pipeline.
//
// Settings are read from environment variables with sensible defaults:
//
//	PERMANENCE_CANON_PATH     -> canon_path
//	PERMANENCE_IDENTITY_PATH  -> identity_path
//	PERMANENCE_MEMORY_DIR     -> memory_dir
//	PERMANENCE_LOG_DIR        -> log_dir
//	PERMANENCE_SOURCES_PATH   -> sources_path
//	PERMANENCE_DRAFT_PATH     -> draft_path
//	PERMANENCE_MODEL_ASSIST   -> model_assist
//	MAX_STEPS                 -> max_steps
//	MAX_TOOL_CALLS            -> max_tool_calls
package config

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Defaults applied for unset values.
const (
	DefaultMaxSteps     = 12
	DefaultMaxToolCalls = 5
)

// Config holds every path and ceiling the pipeline reads at startup.
// Budget ceilings are read once at task creation and never change
// mid-attempt.
type Config struct {
	CanonPath    string `koanf:"canon_path"`
	IdentityPath string `koanf:"identity_path"`
	MemoryDir    string `koanf:"memory_dir"`
	LogDir       string `koanf:"log_dir"`
	SourcesPath  string `koanf:"sources_path"`
	DraftPath    string `koanf:"draft_path"`
	ModelAssist  bool   `koanf:"model_assist"`
	MaxSteps     int    `koanf:"max_steps"`
	MaxToolCalls int    `koanf:"max_tool_calls"`
}

// WorkingDir is where intermediate artifacts (specs, drafts, outputs) live.
func (c *Config) WorkingDir() string { return filepath.Join(c.MemoryDir, "working") }

// EpisodicDir is where per-task state snapshots are persisted.
func (c *Config) EpisodicDir() string { return filepath.Join(c.MemoryDir, "episodic") }

// Load builds a Config from environment variables layered over defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(env.Provider("PERMANENCE_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "PERMANENCE_"))
	}), nil); err != nil {
		return nil, err
	}

	// Budget ceilings keep their historical unprefixed names.
	if err := k.Load(env.Provider("MAX_", ".", func(s string) string {
		return strings.ToLower(s)
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.CanonPath == "" {
		cfg.CanonPath = filepath.Join("canon", "base_canon.yaml")
	}
	if cfg.IdentityPath == "" {
		cfg.IdentityPath = "identity_config.yaml"
	}
	if cfg.MemoryDir == "" {
		cfg.MemoryDir = "memory"
	}
	if cfg.LogDir == "" {
		cfg.LogDir = "logs"
	}
	if cfg.SourcesPath == "" {
		cfg.SourcesPath = filepath.Join(cfg.WorkingDir(), "sources.json")
	}
	if cfg.DraftPath == "" {
		cfg.DraftPath = filepath.Join(cfg.WorkingDir(), "draft.md")
	}
	if cfg.MaxSteps == 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	if cfg.MaxToolCalls == 0 {
		cfg.MaxToolCalls = DefaultMaxToolCalls
	}
}

// Validate checks ceilings are usable.
func (c *Config) Validate() error {
	if c.MaxSteps <= 0 {
		return errors.New("max_steps must be positive")
	}
	if c.MaxToolCalls <= 0 {
		return errors.New("max_tool_calls must be positive")
	}
	return nil
}
