// Package gemini implements [genchat.Provider] for the Google Gemini API.
//
// It wraps the google.golang.org/genai SDK, translating between genchat's
// domain types and the Gemini API types. Streaming uses the SDK's iter.Seq2
// iterator, wrapped into the pull-based [genchat.Stream] interface.
package gemini

const (
	defaultModel     = "gemini-2.0-flash"
	defaultMaxTokens = 8192
)
