package genchat

// Usage tracks token consumption.
//
// Invariant across all providers:
//
//	InputTokens     = non-cached input tokens
//	CacheReadTokens = tokens served from cache (cache hit)
//
// Total input tokens = InputTokens + CacheReadTokens. Providers normalize
// their API-specific fields to this invariant and must clamp to zero when
// subtracting to guard against inconsistent upstream data.
type Usage struct {
	InputTokens     int
	OutputTokens    int
	CacheReadTokens int
}
