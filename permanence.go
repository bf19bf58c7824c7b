// Package permanence wires the governed task pipeline together: load
// configuration and the Canon, pick a model provider, and hand back a
// ready Runner.
//
// Typical usage:
//
//	p, err := permanence.New()
//	if err != nil {
//		log.Fatal(err)
//	}
//	report, err := p.Runner().Run(ctx, runner.Params{Goal: goal})
package permanence

import (
	"fmt"
	"os"

	"github.com/MaxProspero/permanence-os-sub000/canon"
	"github.com/MaxProspero/permanence-os-sub000/config"
	"github.com/MaxProspero/permanence-os-sub000/logging"
	"github.com/MaxProspero/permanence-os-sub000/model"
	"github.com/MaxProspero/permanence-os-sub000/model/anthropic"
	"github.com/MaxProspero/permanence-os-sub000/model/openai"
	"github.com/MaxProspero/permanence-os-sub000/runner"
)

// Options configures the pipeline assembly.
type Options struct {
	// Config overrides environment loading.
	Config *config.Config
	// Logger receives operational logs; the audit trail is separate and
	// always written.
	Logger logging.Logger
	// ModelFactory overrides provider detection.
	ModelFactory model.Factory
}

// Permanence is the assembled pipeline.
type Permanence struct {
	cfg      *config.Config
	canon    *canon.Canon
	identity *canon.Identity
	runner   *runner.Runner
}

// New loads configuration, the Canon and the identity document, selects
// a model provider and assembles the Runner. A missing or invalid Canon
// is a fatal error.
func New(optFns ...func(o *Options)) (*Permanence, error) {
	opts := Options{
		Logger: logging.NewDefaultSlogLogger(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	cfg := opts.Config
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	c, err := canon.Load(cfg.CanonPath)
	if err != nil {
		return nil, fmt.Errorf("load canon: %w", err)
	}

	id, err := canon.LoadIdentity(cfg.IdentityPath)
	if err != nil {
		return nil, fmt.Errorf("load identity: %w", err)
	}

	factory := opts.ModelFactory
	if factory == nil {
		factory = detectProvider()
	}

	r := runner.New(cfg, c, id, func(o *runner.Options) {
		o.Logger = opts.Logger
		o.Models = model.NewRegistry(factory)
	})

	return &Permanence{cfg: cfg, canon: c, identity: id, runner: r}, nil
}

// Runner returns the assembled Orchestrator.
func (p *Permanence) Runner() *runner.Runner { return p.runner }

// Config returns the effective configuration.
func (p *Permanence) Config() *config.Config { return p.cfg }

// Canon returns the loaded policy document.
func (p *Permanence) Canon() *canon.Canon { return p.canon }

// Identity returns the loaded identity document.
func (p *Permanence) Identity() *canon.Identity { return p.identity }

// detectProvider picks a model factory from the environment: Anthropic
// first, then OpenAI, else the unavailable NoOp model.
func detectProvider() model.Factory {
	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		return func(tier string) model.Model { return anthropic.NewModelForTier(tier) }
	}
	if os.Getenv("OPENAI_API_KEY") != "" {
		return func(tier string) model.Model { return openai.NewModelForTier(tier) }
	}
	return nil
}
