package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"strings"
	"time"

	"github.com/fwojciec/genchat"
	"github.com/google/uuid"
	"google.golang.org/genai"
)

// stream implements [genchat.Stream] by wrapping the genai SDK's streaming
// iterator. Parts arriving in chunks are folded into content blocks: adjacent
// parts of the same kind extend the current block, a kind change starts a new
// one, so interleaved thinking/text produces separate blocks in order.
type stream struct {
	ctx    context.Context
	pull   func() (*genai.GenerateContentResponse, error, bool)
	stop   func()
	state  genchat.StreamState
	queue  []genchat.Event
	blocks []*blockState
	finish genai.FinishReason
	usage  genchat.Usage
	msg    genchat.AssistantMessage
	final  bool
	err    error
}

type blockKind int

const (
	blockText blockKind = iota
	blockThinking
	blockToolCall
)

// blockState accumulates one content block across chunks.
type blockState struct {
	kind      blockKind
	buf       strings.Builder
	signature []byte
	call      genchat.ToolCallBlock
}

// Interface compliance check.
var _ genchat.Stream = (*stream)(nil)

// NewStreamFromIter wraps a genai-style streaming iterator in a
// [genchat.Stream]. Exported for testing.
func NewStreamFromIter(ctx context.Context, iterFn iter.Seq2[*genai.GenerateContentResponse, error]) genchat.Stream {
	next, stop := iter.Pull2(iterFn)
	return &stream{
		ctx:   ctx,
		pull:  next,
		stop:  stop,
		state: genchat.StreamStateNew,
	}
}

// Next returns the next semantic event. Returns io.EOF when the stream
// completes normally.
func (s *stream) Next() (genchat.Event, error) {
	switch s.state {
	case genchat.StreamStateComplete:
		return nil, io.EOF
	case genchat.StreamStateError:
		return nil, s.err
	case genchat.StreamStateClosed:
		return nil, fmt.Errorf("gemini: %w", genchat.ErrStreamClosed)
	}

	for len(s.queue) == 0 {
		chunk, err, ok := s.pull()
		if !ok {
			s.complete()
			return nil, io.EOF
		}
		if err != nil {
			s.fail(err)
			return nil, s.err
		}
		s.state = genchat.StreamStateStreaming
		s.processChunk(chunk)
	}

	evt := s.queue[0]
	s.queue = s.queue[1:]
	return evt, nil
}

// State returns the current stream state.
func (s *stream) State() genchat.StreamState {
	return s.state
}

// Message returns the assembled AssistantMessage. Mid-stream it reflects the
// deltas received so far.
func (s *stream) Message() (genchat.AssistantMessage, error) {
	if s.state == genchat.StreamStateNew {
		return genchat.AssistantMessage{}, fmt.Errorf("gemini: %w", genchat.ErrStreamNotReady)
	}
	if s.final {
		return s.msg, nil
	}
	return s.assemble(), nil
}

// Close stops the underlying iterator.
func (s *stream) Close() error {
	if s.state != genchat.StreamStateComplete && s.state != genchat.StreamStateError {
		s.state = genchat.StreamStateClosed
		s.msg = s.assemble()
		s.msg.StopReason = genchat.StopAborted
		s.msg.RawStopReason = "aborted"
		s.final = true
	}
	s.stop()
	return nil
}

func (s *stream) processChunk(chunk *genai.GenerateContentResponse) {
	if chunk.UsageMetadata != nil {
		cached := int(chunk.UsageMetadata.CachedContentTokenCount)
		input := int(chunk.UsageMetadata.PromptTokenCount) - cached
		if input < 0 {
			input = 0
		}
		s.usage = genchat.Usage{
			InputTokens:     input,
			OutputTokens:    int(chunk.UsageMetadata.CandidatesTokenCount),
			CacheReadTokens: cached,
		}
	}

	if len(chunk.Candidates) == 0 {
		return
	}
	cand := chunk.Candidates[0]
	if cand.FinishReason != "" {
		s.finish = cand.FinishReason
	}
	if cand.Content == nil {
		return
	}

	for _, part := range cand.Content.Parts {
		switch {
		case part.FunctionCall != nil:
			s.processFunctionCall(part)
		case part.Thought:
			s.processThinking(part)
		case part.Text != "":
			s.processText(part)
		}
	}
}

func (s *stream) processText(part *genai.Part) {
	cur := s.currentBlock()
	if cur == nil || cur.kind != blockText {
		cur = &blockState{kind: blockText}
		s.blocks = append(s.blocks, cur)
	}
	cur.buf.WriteString(part.Text)
	s.queue = append(s.queue, genchat.EventTextDelta{
		Index: len(s.blocks) - 1,
		Delta: part.Text,
	})
}

func (s *stream) processThinking(part *genai.Part) {
	cur := s.currentBlock()
	if cur == nil || cur.kind != blockThinking {
		cur = &blockState{kind: blockThinking}
		s.blocks = append(s.blocks, cur)
	}
	cur.buf.WriteString(part.Text)
	if len(part.ThoughtSignature) > 0 {
		cur.signature = part.ThoughtSignature
	}
	s.queue = append(s.queue, genchat.EventThinkingDelta{
		Index: len(s.blocks) - 1,
		Delta: part.Text,
	})
}

func (s *stream) processFunctionCall(part *genai.Part) {
	fc := part.FunctionCall

	// The SDK may attach the thought signature to the function call part
	// rather than the thinking part. Backfill the preceding thinking block
	// if it has none.
	if len(part.ThoughtSignature) > 0 {
		for i := len(s.blocks) - 1; i >= 0; i-- {
			if s.blocks[i].kind == blockThinking {
				if s.blocks[i].signature == nil {
					s.blocks[i].signature = part.ThoughtSignature
				}
				break
			}
		}
	}

	id := fc.ID
	if id == "" {
		id = "call_" + uuid.NewString()
	}

	args, err := json.Marshal(fc.Args)
	if err != nil || fc.Args == nil {
		args = json.RawMessage(`{}`)
	}

	call := genchat.ToolCallBlock{ID: id, Name: fc.Name, Arguments: args}
	s.blocks = append(s.blocks, &blockState{kind: blockToolCall, call: call})

	// Gemini delivers function calls whole, so Begin and End are emitted
	// back to back with no argument deltas in between.
	s.queue = append(s.queue,
		genchat.EventToolCallBegin{Index: len(s.blocks) - 1, ID: id, Name: fc.Name},
		genchat.EventToolCallEnd{Call: call},
	)
}

func (s *stream) currentBlock() *blockState {
	if len(s.blocks) == 0 {
		return nil
	}
	return s.blocks[len(s.blocks)-1]
}

func (s *stream) assemble() genchat.AssistantMessage {
	msg := genchat.AssistantMessage{
		Usage:     s.usage,
		Timestamp: time.Now(),
	}
	hasToolCall := false
	for _, b := range s.blocks {
		switch b.kind {
		case blockText:
			msg.Content = append(msg.Content, genchat.TextBlock{Text: b.buf.String()})
		case blockThinking:
			msg.Content = append(msg.Content, genchat.ThinkingBlock{Thinking: b.buf.String(), Signature: b.signature})
		case blockToolCall:
			msg.Content = append(msg.Content, b.call)
			hasToolCall = true
		}
	}
	raw := string(s.finish)
	if raw == "" {
		// A stream that ends without an explicit finish reason is a normal stop.
		raw = "end_turn"
	}
	msg.RawStopReason = raw
	msg.StopReason = mapStopReason(s.finish, hasToolCall)
	return msg
}

func (s *stream) complete() {
	s.state = genchat.StreamStateComplete
	s.msg = s.assemble()
	s.final = true
}

func (s *stream) fail(err error) {
	s.state = genchat.StreamStateError
	s.err = fmt.Errorf("gemini: %w", err)
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

func mapStopReason(fr genai.FinishReason, hasToolCall bool) genchat.StopReason {
	if hasToolCall {
		return genchat.StopToolUse
	}
	switch fr {
	case genai.FinishReasonStop, "":
		return genchat.StopEndTurn
	case genai.FinishReasonMaxTokens:
		return genchat.StopLength
	default:
		return genchat.StopUnknown
	}
}
