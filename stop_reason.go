package genchat

// StopReason is the normalized reason generation ended. Providers map their
// backend-specific finish values onto these and keep the original value in
// AssistantMessage.RawStopReason.
type StopReason string

const (
	StopEndTurn StopReason = "end_turn"
	StopLength  StopReason = "length"
	StopToolUse StopReason = "tool_use"
	StopError   StopReason = "error"
	StopAborted StopReason = "aborted"
	StopUnknown StopReason = "unknown"
)
