package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fwojciec/genchat"
)

// chatChunk is one line of the NDJSON stream from /api/chat.
type chatChunk struct {
	Model   string `json:"model"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done            bool   `json:"done"`
	DoneReason      string `json:"done_reason"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
	Error           string `json:"error"`
}

// stream implements [genchat.Stream] by parsing NDJSON chunks from an HTTP
// response body.
type stream struct {
	ctx     context.Context
	body    io.ReadCloser
	scanner *bufio.Scanner
	state   genchat.StreamState
	pending *chatChunk
	buf     strings.Builder
	msg     genchat.AssistantMessage
	final   bool
	err     error
}

// Interface compliance check.
var _ genchat.Stream = (*stream)(nil)

func newStream(ctx context.Context, body io.ReadCloser) *stream {
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &stream{
		ctx:     ctx,
		body:    body,
		scanner: sc,
		state:   genchat.StreamStateNew,
	}
}

// Next reads the next chunk. Returns io.EOF when the final chunk arrives.
func (s *stream) Next() (genchat.Event, error) {
	switch s.state {
	case genchat.StreamStateComplete:
		return nil, io.EOF
	case genchat.StreamStateError:
		return nil, s.err
	case genchat.StreamStateClosed:
		return nil, fmt.Errorf("ollama: %w", genchat.ErrStreamClosed)
	}

	if s.pending != nil {
		s.complete(*s.pending)
		return nil, io.EOF
	}

	for {
		if !s.scanner.Scan() {
			err := s.scanner.Err()
			if err == nil {
				err = io.ErrUnexpectedEOF
			}
			s.fail(fmt.Errorf("read stream: %w", err))
			return nil, s.err
		}
		s.state = genchat.StreamStateStreaming

		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var chunk chatChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			s.fail(fmt.Errorf("decode chunk: %w", err))
			return nil, s.err
		}
		if chunk.Error != "" {
			s.fail(fmt.Errorf("server error: %s", chunk.Error))
			return nil, s.err
		}

		if chunk.Done {
			// The final chunk may carry a trailing content fragment; emit it
			// as a delta first and complete on the following Next call.
			if chunk.Message.Content != "" {
				s.buf.WriteString(chunk.Message.Content)
				s.pending = &chunk
				return genchat.EventTextDelta{Index: 0, Delta: chunk.Message.Content}, nil
			}
			s.complete(chunk)
			return nil, io.EOF
		}

		if chunk.Message.Content == "" {
			continue
		}
		s.buf.WriteString(chunk.Message.Content)
		return genchat.EventTextDelta{Index: 0, Delta: chunk.Message.Content}, nil
	}
}

// State returns the current stream state.
func (s *stream) State() genchat.StreamState {
	return s.state
}

// Message returns the assembled AssistantMessage.
func (s *stream) Message() (genchat.AssistantMessage, error) {
	if s.state == genchat.StreamStateNew {
		return genchat.AssistantMessage{}, fmt.Errorf("ollama: %w", genchat.ErrStreamNotReady)
	}
	if s.final {
		return s.msg, nil
	}
	return s.assemble(), nil
}

// Close closes the underlying HTTP response body.
func (s *stream) Close() error {
	if s.state != genchat.StreamStateComplete && s.state != genchat.StreamStateError {
		s.state = genchat.StreamStateClosed
		s.msg = s.assemble()
		s.msg.StopReason = genchat.StopAborted
		s.msg.RawStopReason = "aborted"
		s.final = true
	}
	return s.body.Close()
}

func (s *stream) assemble() genchat.AssistantMessage {
	msg := genchat.AssistantMessage{Timestamp: time.Now()}
	if s.buf.Len() > 0 {
		msg.Content = []genchat.ContentBlock{genchat.TextBlock{Text: s.buf.String()}}
	}
	return msg
}

func (s *stream) complete(last chatChunk) {
	s.state = genchat.StreamStateComplete
	s.msg = s.assemble()
	s.msg.Usage = genchat.Usage{
		InputTokens:  last.PromptEvalCount,
		OutputTokens: last.EvalCount,
	}
	s.msg.RawStopReason = last.DoneReason
	switch last.DoneReason {
	case "stop", "":
		s.msg.StopReason = genchat.StopEndTurn
		if last.DoneReason == "" {
			s.msg.RawStopReason = "stop"
		}
	case "length":
		s.msg.StopReason = genchat.StopLength
	default:
		s.msg.StopReason = genchat.StopUnknown
	}
	s.final = true
}

func (s *stream) fail(err error) {
	s.state = genchat.StreamStateError
	s.err = fmt.Errorf("ollama: %w", err)
	s.msg = s.assemble()
	if s.ctx.Err() != nil {
		s.msg.StopReason = genchat.StopAborted
		s.msg.RawStopReason = "aborted"
	} else {
		s.msg.StopReason = genchat.StopError
		s.msg.RawStopReason = "error"
	}
	s.final = true
}
