package port

import "context"

// GenerateOptions tune a single text-generation call.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float32
}

// AIProvider abstracts the LLM backend used for summaries, embeddings and
// question answering. Implementations can target Gemini, OpenAI, or any
// compatible API.
type AIProvider interface {
	// ModelName returns the identifier of the generation model in use.
	ModelName() string

	// GenerateText produces a completion for the given prompt.
	GenerateText(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// GenerateTextStream produces a completion streamed token-by-token via
	// channel. The channel is closed when generation finishes or ctx is
	// cancelled.
	GenerateTextStream(ctx context.Context, prompt string) (<-chan string, error)

	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)
}
