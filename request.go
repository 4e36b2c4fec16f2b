package genchat

import "fmt"

// Request is what a surface hands to a Provider for one model call: the
// selected model, the system prompt, the conversation so far, and any tools
// on offer. Zero-valued generation parameters defer to the backend defaults.
type Request struct {
	Model        string // backend-specific model ID; empty uses the provider default
	SystemPrompt string
	Messages     []Message
	Tools        []Tool
	MaxTokens    int      // 0 uses the provider default
	Temperature  *float64 // nil uses the provider default
}

// Validate checks the parameter ranges shared by every backend. Input text
// is vetted separately by ValidateInput before a Request is ever built;
// providers layer their own validation on top (ollama rejects tools here).
func (r Request) Validate() error {
	if r.Temperature != nil {
		if *r.Temperature < 0 || *r.Temperature > 2 {
			return fmt.Errorf("temperature must be in [0, 2], got %g: %w", *r.Temperature, ErrValidation)
		}
	}
	if r.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative, got %d: %w", r.MaxTokens, ErrValidation)
	}
	return nil
}
