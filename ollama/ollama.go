// Package ollama implements [genchat.Provider] for a local Ollama server.
//
// It talks to the /api/chat endpoint directly over HTTP and parses the
// newline-delimited JSON stream into [genchat.Stream] events. The provider is
// text-only: tool definitions are rejected with a validation error.
package ollama

const (
	defaultBaseURL = "http://localhost:11434"
	defaultModel   = "qwen3:0.6b"
)
