package driven

import "context"

// GenerateOptions tunes a single generation request. Zero values mean
// provider defaults.
type GenerateOptions struct {
	// MaxTokens caps the completion length.
	MaxTokens int

	// Temperature controls sampling randomness (0.0 - 2.0).
	Temperature float64

	// StopWords terminate generation when emitted.
	StopWords []string
}

// TokenFunc receives one token (or provider-defined chunk) of a
// streamed completion. Returning an error aborts the stream.
type TokenFunc func(ctx context.Context, token string) error

// LLMService generates text completions from prompts.
//
// Implementations may include:
//   - OpenAI (gpt-4o-mini, gpt-4o)
//   - Ollama (llama3, mistral, qwen)
type LLMService interface {
	// Generate produces a complete response for the given prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// GenerateStream produces a response incrementally, invoking onToken
	// for each chunk in emission order. It returns only after the stream
	// is complete or aborted; an error from onToken is returned as-is.
	GenerateStream(ctx context.Context, prompt string, opts GenerateOptions, onToken TokenFunc) error

	// ModelName returns the name of the generation model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
