package driven

import "context"

// LLMService provides language model completions for answer synthesis.
//
// Providers may be rate-limited or slow; callers must not assume a
// fixed latency and should bound each call with a context deadline.
type LLMService interface {
	// Complete produces a completion for the prompt and reports token
	// usage. A system prompt may be empty.
	Complete(ctx context.Context, system, prompt string, opts CompleteOptions) (*Completion, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// CompleteOptions configures text generation behaviour.
type CompleteOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64
}

// Completion is the result of one language model call.
type Completion struct {
	// Text is the generated completion.
	Text string

	// PromptTokens, CompletionTokens and TotalTokens are the usage
	// counts reported by the provider.
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// RetryableError wraps a provider failure that is worth retrying
// (timeout, rate limit, transient server error). Non-retryable failures
// are returned unwrapped and abort the retry loop immediately.
type RetryableError struct {
	Err error
}

// Error implements the error interface.
func (e *RetryableError) Error() string {
	return "retryable: " + e.Err.Error()
}

// Unwrap exposes the underlying error.
func (e *RetryableError) Unwrap() error {
	return e.Err
}

// Retryable marks err as retryable.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}
