// Package ai adapts Google's Gemini SDK to port.AIProvider.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/dharnesh67/neurohub/internal/port"
)

// GeminiProvider implements port.AIProvider using the official Gemini Go SDK.
// Separate models serve generation and embedding.
type GeminiProvider struct {
	client     *genai.Client
	chatModel  string
	embedModel string
}

// NewGeminiProvider creates a Gemini-backed AI provider.
func NewGeminiProvider(ctx context.Context, apiKey, chatModel, embedModel string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiProvider{
		client:     client,
		chatModel:  chatModel,
		embedModel: embedModel,
	}, nil
}

// ModelName returns the generation model identifier.
func (g *GeminiProvider) ModelName() string {
	return g.chatModel
}

// GenerateText produces a completion for the given prompt.
func (g *GeminiProvider) GenerateText(ctx context.Context, prompt string, opts port.GenerateOptions) (string, error) {
	config := &genai.GenerateContentConfig{}
	if opts.MaxTokens > 0 {
		config.MaxOutputTokens = int32(opts.MaxTokens)
	}
	if opts.Temperature > 0 {
		config.Temperature = genai.Ptr(opts.Temperature)
	}

	result, err := g.client.Models.GenerateContent(ctx, g.chatModel, genai.Text(prompt), config)
	if err != nil {
		return "", classify(err)
	}
	return result.Text(), nil
}

// GenerateTextStream produces a completion streamed token-by-token. The
// returned channel is closed when generation finishes, errors out, or ctx is
// cancelled, so a disconnecting consumer does not leak the model call.
func (g *GeminiProvider) GenerateTextStream(ctx context.Context, prompt string) (<-chan string, error) {
	stream := g.client.Models.GenerateContentStream(ctx, g.chatModel, genai.Text(prompt), nil)

	ch := make(chan string, 64)
	go func() {
		defer close(ch)
		for resp, err := range stream {
			if err != nil {
				return
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			select {
			case ch <- text:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

// Embed generates a vector embedding for the given text.
func (g *GeminiProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	result, err := g.client.Models.EmbedContent(ctx, g.embedModel, genai.Text(text), nil)
	if err != nil {
		return nil, classify(err)
	}
	if len(result.Embeddings) == 0 || len(result.Embeddings[0].Values) == 0 {
		return nil, &port.ExternalServiceError{Service: "gemini", Err: errors.New("empty embedding response")}
	}
	return result.Embeddings[0].Values, nil
}

// classify wraps SDK errors into the external-service taxonomy so the retry
// layer can tell rate limiting and outages apart from bad requests.
func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &port.ExternalServiceError{
			Service:   "gemini",
			Status:    apiErr.Code,
			Transient: isStatusTransient(apiErr.Code),
			Err:       err,
		}
	}

	var netErr net.Error
	transient := (errors.As(err, &netErr) && netErr.Timeout()) ||
		errors.Is(err, context.DeadlineExceeded) ||
		strings.Contains(err.Error(), "connection reset")
	return &port.ExternalServiceError{Service: "gemini", Transient: transient, Err: err}
}

func isStatusTransient(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
