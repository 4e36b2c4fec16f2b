package mock

import (
	"io"
	"time"

	"github.com/fwojciec/genchat"
)

// Interface compliance check.
var _ genchat.Stream = (*Stream)(nil)

// Stream is a test double for genchat.Stream.
// Set the function fields for the methods you need. NextFn and MessageFn
// panic when nil to catch missing setup. CloseFn and StateFn are nil-safe
// (no-op and zero value) because test code commonly calls defer stream.Close()
// and these methods rarely need custom behavior.
type Stream struct {
	NextFn    func() (genchat.Event, error)
	StateFn   func() genchat.StreamState
	MessageFn func() (genchat.AssistantMessage, error)
	CloseFn   func() error
}

// Next delegates to NextFn.
func (s *Stream) Next() (genchat.Event, error) {
	return s.NextFn()
}

// State delegates to StateFn. Returns StreamStateNew when StateFn is nil.
func (s *Stream) State() genchat.StreamState {
	if s.StateFn == nil {
		return genchat.StreamStateNew
	}
	return s.StateFn()
}

// Message delegates to MessageFn.
func (s *Stream) Message() (genchat.AssistantMessage, error) {
	return s.MessageFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *Stream) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}

// TextStream returns a Stream that emits the given fragments as text deltas
// in order, then completes with an assistant message whose text is their
// concatenation. Useful for simulating a successful streamed response.
func TextStream(fragments ...string) *Stream {
	i := 0
	var full string
	for _, f := range fragments {
		full += f
	}
	return &Stream{
		NextFn: func() (genchat.Event, error) {
			if i >= len(fragments) {
				return nil, io.EOF
			}
			evt := genchat.EventTextDelta{Index: 0, Delta: fragments[i]}
			i++
			return evt, nil
		},
		StateFn: func() genchat.StreamState {
			if i >= len(fragments) {
				return genchat.StreamStateComplete
			}
			return genchat.StreamStateStreaming
		},
		MessageFn: func() (genchat.AssistantMessage, error) {
			return genchat.AssistantMessage{
				Content:    []genchat.ContentBlock{genchat.TextBlock{Text: full}},
				StopReason: genchat.StopEndTurn,
				Timestamp:  time.Now(),
			}, nil
		},
	}
}
