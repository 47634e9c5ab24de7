// Package llm provides the LLM call node and the gateway routing model names
// to providers.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	DefaultModel       = "gpt-4"
	DefaultGeminiModel = "gemini-2.0-flash"
	DefaultTemperature = 0.7
)

var (
	ErrOpenAINotConfigured = errors.New("OpenAI API key not configured")
	ErrGeminiNotConfigured = errors.New("Gemini API key not configured")
	ErrNoProvider          = errors.New("No LLM provider available for model")
)

// Request is one completion call.
type Request struct {
	Model        string
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
}

// Provider completes a prompt with one vendor's API.
type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Gateway routes requests by model name: gpt*/openai* to OpenAI,
// gemini*/google* to Gemini, anything else to OpenAI when it is configured.
// A nil provider means the vendor is not configured.
type Gateway struct {
	openAI Provider
	gemini Provider
}

func NewGateway(openAI, gemini Provider) *Gateway {
	return &Gateway{openAI: openAI, gemini: gemini}
}

func (g *Gateway) Complete(ctx context.Context, req Request) (string, error) {
	model := strings.ToLower(req.Model)

	switch {
	case strings.HasPrefix(model, "gpt"), strings.HasPrefix(model, "openai"):
		return g.callOpenAI(ctx, req)
	case strings.HasPrefix(model, "gemini"), strings.HasPrefix(model, "google"):
		return g.callGemini(ctx, req)
	case g.openAI != nil:
		return g.callOpenAI(ctx, req)
	default:
		return "", fmt.Errorf("%w: %s", ErrNoProvider, req.Model)
	}
}

func (g *Gateway) callOpenAI(ctx context.Context, req Request) (string, error) {
	if g.openAI == nil {
		return "", ErrOpenAINotConfigured
	}

	if !strings.HasPrefix(req.Model, "gpt") {
		req.Model = DefaultModel
	}

	return g.openAI.Complete(ctx, req)
}

func (g *Gateway) callGemini(ctx context.Context, req Request) (string, error) {
	if g.gemini == nil {
		return "", ErrGeminiNotConfigured
	}

	if !strings.Contains(req.Model, "gemini") {
		req.Model = DefaultGeminiModel
	}

	return g.gemini.Complete(ctx, req)
}
