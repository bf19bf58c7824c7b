// Package anthropic provides a model capability backed by the Anthropic
// Claude Messages API.
package anthropic

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/MaxProspero/permanence-os-sub000/model"
)

// tierModels maps registry tiers onto concrete Claude models.
var tierModels = map[string]anthropic.Model{
	model.TierOpus:   anthropic.Model("claude-3-opus-latest"),
	model.TierSonnet: anthropic.ModelClaude3_5Sonnet20241022,
	model.TierHaiku:  anthropic.Model("claude-3-5-haiku-latest"),
}

// Options configures the Anthropic model adapter.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Model wraps the Anthropic Messages API behind the model.Model interface.
type Model struct {
	client *anthropic.Client
	opts   Options
	hasKey bool
}

// NewModel creates an Anthropic model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.2,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Model{
		client: &client,
		opts:   opts,
		hasKey: opts.APIKey != "" || os.Getenv("ANTHROPIC_API_KEY") != "",
	}
}

// NewModelForTier creates an adapter for a registry tier, suitable as a
// model.Factory.
func NewModelForTier(tier string) *Model {
	return NewModel(func(o *Options) {
		if m, ok := tierModels[tier]; ok {
			o.Model = m
		}
	})
}

// Generate implements model.Model with a single-turn messages call.
func (m *Model) Generate(ctx context.Context, prompt, system string) (model.Response, error) {
	if !m.hasKey {
		return model.Response{}, model.ErrUnavailable
	}

	params := anthropic.MessageNewParams{
		Model:       m.opts.Model,
		MaxTokens:   m.opts.MaxTokens,
		Temperature: anthropic.Float(m.opts.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return model.Response{}, fmt.Errorf("anthropic api error: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.AsText().Text
		}
	}

	return model.Response{
		Text: text,
		Metadata: map[string]any{
			"model":       string(m.opts.Model),
			"stop_reason": string(resp.StopReason),
		},
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Available implements model.Model.
func (m *Model) Available() bool { return m.hasKey }

// Info implements model.Model.
func (m *Model) Info() model.Info {
	return model.Info{Name: string(m.opts.Model), Provider: "anthropic"}
}
