package llm

import "context"

// Provider is the completion contract. Stream invokes onChunk for every
// piece of text as it arrives and returns the accumulated full response for
// persistence; Complete returns the full text in one call. Both run behind
// the same retry policy when wrapped via WithRetry.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Stream(ctx context.Context, prompt string, onChunk func(text string)) (string, error)
}
