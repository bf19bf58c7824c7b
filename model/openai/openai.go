// Package openai provides a model capability backed by the OpenAI Chat
// Completions API.
package openai

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/openai/openai-go"

	"github.com/MaxProspero/permanence-os-sub000/model"
)

// tierModels maps registry tiers onto chat models.
var tierModels = map[string]string{
	model.TierOpus:   openai.ChatModelGPT4o,
	model.TierSonnet: openai.ChatModelGPT4o,
	model.TierHaiku:  openai.ChatModelGPT4oMini,
}

// Options configures the OpenAI model adapter.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Model wraps the OpenAI Chat Completions API behind the model.Model
// interface.
type Model struct {
	client *openai.Client
	opts   Options
	hasKey bool
}

// NewModel creates an OpenAI model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.2,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	client := openai.NewClient()
	return &Model{
		client: &client,
		opts:   opts,
		hasKey: os.Getenv("OPENAI_API_KEY") != "",
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

// Generate implements model.Model with a single-turn chat completion.
func (m *Model) Generate(ctx context.Context, prompt, system string) (model.Response, error) {
	if !m.hasKey {
		return model.Response{}, model.ErrUnavailable
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(prompt))

	resp, err := m.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxCompletionTokens),
	})
	if err != nil {
		return model.Response{}, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return model.Response{}, fmt.Errorf("openai: no choices returned")
	}

	return model.Response{
		Text: resp.Choices[0].Message.Content,
		Metadata: map[string]any{
			"model":         m.opts.Model,
			"finish_reason": resp.Choices[0].FinishReason,
		},
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Available implements model.Model.
func (m *Model) Available() bool { return m.hasKey }

// Info implements model.Model.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.Model, Provider: "openai"}
}
