package model

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUnavailable is returned by models that cannot serve requests.
var ErrUnavailable = errors.New("model unavailable")

// Response carries generated text with provider metadata.
type Response struct {
	Text      string         `json:"text"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// Model is the minimal capability interface for text generation. No agent
// imports a provider SDK; all inference goes through this layer.
type Model interface {
	// Generate produces text for the prompt, optionally steered by a
	// system instruction. It either returns text or fails; callers on
	// advisory paths must treat failure as "no advisory".
	Generate(ctx context.Context, prompt, system string) (Response, error)

	// Available reports whether the model can currently serve requests.
	Available() bool

	// Info returns information about the model implementation.
	Info() Info
}

// NoOp is the null capability selected when no provider is configured.
// It is never available and always fails generation.
type NoOp struct{}

// Generate implements Model.
func (NoOp) Generate(context.Context, string, string) (Response, error) {
	return Response{}, ErrUnavailable
}

// Available implements Model.
func (NoOp) Available() bool { return false }

// Info implements Model.
func (NoOp) Info() Info { return Info{Name: "noop", Provider: "none"} }

// Mock is a lightweight in-memory Model useful for tests.
type Mock struct {
	info      Info
	responses map[string]string
	fail      error
}

// NewMock constructs a Mock with canned responses.
func NewMock(name string) *Mock {
	return &Mock{
		info:      Info{Name: name, Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for a prompt.
func (m *Mock) AddResponse(prompt, response string) { m.responses[prompt] = response }

// FailWith makes every Generate call return err.
func (m *Mock) FailWith(err error) { m.fail = err }

// Generate implements Model.
func (m *Mock) Generate(_ context.Context, prompt, _ string) (Response, error) {
	if m.fail != nil {
		return Response{}, m.fail
	}
	text, ok := m.responses[prompt]
	if !ok {
		text = fmt.Sprintf("Mock response to: %s", prompt)
	}
	return Response{Text: text, CreatedAt: time.Now().UTC()}, nil
}

// Available implements Model.
func (m *Mock) Available() bool { return m.fail == nil }

// Info implements Model.
func (m *Mock) Info() Info { return m.info }
