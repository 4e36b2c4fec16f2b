package gemini_test

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/fwojciec/genchat"
	"github.com/fwojciec/genchat/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// mockChunks returns a genai-style streaming iterator from pre-built chunks.
func mockChunks(chunks []*genai.GenerateContentResponse) func(func(*genai.GenerateContentResponse, error) bool) {
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		for _, c := range chunks {
			if !yield(c, nil) {
				return
			}
		}
	}
}

func collectStreamEvents(t *testing.T, s genchat.Stream) []genchat.Event {
	t.Helper()
	var events []genchat.Event
	for {
		evt, err := s.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		events = append(events, evt)
	}
	return events
}

func TestStream_TextDelta(t *testing.T) {
	t.Parallel()
	chunks := []*genai.GenerateContentResponse{
		{
			Candidates: []*genai.Candidate{{
				Content:      &genai.Content{Parts: []*genai.Part{{Text: "Hello"}}},
				FinishReason: genai.FinishReasonStop,
			}},
			UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
				PromptTokenCount:     10,
				CandidatesTokenCount: 5,
			},
		},
		{
			Candidates: []*genai.Candidate{{
				Content:      &genai.Content{Parts: []*genai.Part{{Text: " world"}}},
				FinishReason: genai.FinishReasonStop,
			}},
			UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
				PromptTokenCount:     10,
				CandidatesTokenCount: 8,
			},
		},
	}

	s := gemini.NewStreamFromIter(context.Background(), mockChunks(chunks))
	events := collectStreamEvents(t, s)

	require.Len(t, events, 2)
	assert.Equal(t, genchat.EventTextDelta{Index: 0, Delta: "Hello"}, events[0])
	assert.Equal(t, genchat.EventTextDelta{Index: 0, Delta: " world"}, events[1])

	msg, err := s.Message()
	require.NoError(t, err)
	assert.Equal(t, genchat.StopEndTurn, msg.StopReason)
	require.Len(t, msg.Content, 1)
	assert.Equal(t, genchat.TextBlock{Text: "Hello world"}, msg.Content[0])
	assert.Equal(t, 10, msg.Usage.InputTokens)
	assert.Equal(t, 8, msg.Usage.OutputTokens)
}

func TestStream_ThinkingDelta(t *testing.T) {
	t.Parallel()
	chunks := []*genai.GenerateContentResponse{
		{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{
					{Text: "reasoning", Thought: true, ThoughtSignature: []byte("sig123")},
				}},
				FinishReason: genai.FinishReasonStop,
			}},
		},
		{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{
					{Text: "Answer"},
				}},
				FinishReason: genai.FinishReasonStop,
			}},
		},
	}

	s := gemini.NewStreamFromIter(context.Background(), mockChunks(chunks))
	events := collectStreamEvents(t, s)

	require.Len(t, events, 2)
	assert.Equal(t, genchat.EventThinkingDelta{Index: 0, Delta: "reasoning"}, events[0])
	assert.Equal(t, genchat.EventTextDelta{Index: 1, Delta: "Answer"}, events[1])

	msg, err := s.Message()
	require.NoError(t, err)
	require.Len(t, msg.Content, 2)
	tb := msg.Content[0].(genchat.ThinkingBlock)
	assert.Equal(t, "reasoning", tb.Thinking)
	assert.Equal(t, []byte("sig123"), tb.Signature)
	assert.Equal(t, genchat.TextBlock{Text: "Answer"}, msg.Content[1])
}

func TestStream_ToolCallComplete(t *testing.T) {
	t.Parallel()
	chunks := []*genai.GenerateContentResponse{
		{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{
					{FunctionCall: &genai.FunctionCall{ID: "sdk_id_1", Name: "read", Args: map[string]any{"path": "foo.go"}}},
				}},
				FinishReason: genai.FinishReasonStop,
			}},
		},
	}

	s := gemini.NewStreamFromIter(context.Background(), mockChunks(chunks))
	events := collectStreamEvents(t, s)

	require.Len(t, events, 2) // Begin + End, no Delta
	begin, ok := events[0].(genchat.EventToolCallBegin)
	require.True(t, ok)
	assert.Equal(t, "read", begin.Name)
	assert.Equal(t, "sdk_id_1", begin.ID)

	end, ok := events[1].(genchat.EventToolCallEnd)
	require.True(t, ok)
	assert.Equal(t, "read", end.Call.Name)
	assert.Equal(t, "sdk_id_1", end.Call.ID)
	assert.JSONEq(t, `{"path":"foo.go"}`, string(end.Call.Arguments))

	msg, err := s.Message()
	require.NoError(t, err)
	assert.Equal(t, genchat.StopToolUse, msg.StopReason)
}

func TestStream_ToolCallFallbackID(t *testing.T) {
	t.Parallel()
	chunks := []*genai.GenerateContentResponse{
		{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{
					{FunctionCall: &genai.FunctionCall{Name: "glob", Args: map[string]any{"pattern": "**/*.go"}}},
				}},
				FinishReason: genai.FinishReasonStop,
			}},
		},
	}

	s := gemini.NewStreamFromIter(context.Background(), mockChunks(chunks))
	events := collectStreamEvents(t, s)

	begin := events[0].(genchat.EventToolCallBegin)
	assert.NotEmpty(t, begin.ID)
	assert.True(t, len(begin.ID) > 5, "generated ID should be non-trivial")
}

func TestStream_InterleavedThinkTextThink(t *testing.T) {
	t.Parallel()
	// Interleaved think/text/think produces 3 blocks, not 2.
	chunks := []*genai.GenerateContentResponse{
		{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{
					{Text: "think1", Thought: true},
				}},
			}},
		},
		{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{
					{Text: "text1"},
				}},
			}},
		},
		{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{
					{Text: "think2", Thought: true},
				}},
				FinishReason: genai.FinishReasonStop,
			}},
		},
	}

	s := gemini.NewStreamFromIter(context.Background(), mockChunks(chunks))
	events := collectStreamEvents(t, s)

	require.Len(t, events, 3)
	assert.Equal(t, genchat.EventThinkingDelta{Index: 0, Delta: "think1"}, events[0])
	assert.Equal(t, genchat.EventTextDelta{Index: 1, Delta: "text1"}, events[1])
	assert.Equal(t, genchat.EventThinkingDelta{Index: 2, Delta: "think2"}, events[2])

	msg, err := s.Message()
	require.NoError(t, err)
	require.Len(t, msg.Content, 3)
	assert.Equal(t, genchat.ThinkingBlock{Thinking: "think1"}, msg.Content[0])
	assert.Equal(t, genchat.TextBlock{Text: "text1"}, msg.Content[1])
	assert.Equal(t, genchat.ThinkingBlock{Thinking: "think2"}, msg.Content[2])
}

func TestStream_FunctionCallThoughtSignatureBackfillsThinking(t *testing.T) {
	t.Parallel()
	chunks := []*genai.GenerateContentResponse{
		{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{
					{Text: "reasoning", Thought: true},
					{
						FunctionCall: &genai.FunctionCall{
							ID:   "tc_1",
							Name: "read",
							Args: map[string]any{"path": "a.go"},
						},
						ThoughtSignature: []byte("sig-from-call"),
					},
				}},
				FinishReason: genai.FinishReasonStop,
			}},
		},
	}

	s := gemini.NewStreamFromIter(context.Background(), mockChunks(chunks))
	events := collectStreamEvents(t, s)

	require.Len(t, events, 3)
	assert.Equal(t, genchat.EventThinkingDelta{Index: 0, Delta: "reasoning"}, events[0])
	assert.IsType(t, genchat.EventToolCallBegin{}, events[1])
	assert.IsType(t, genchat.EventToolCallEnd{}, events[2])

	msg, err := s.Message()
	require.NoError(t, err)
	require.Len(t, msg.Content, 2)
	assert.Equal(t, genchat.ThinkingBlock{
		Thinking:  "reasoning",
		Signature: []byte("sig-from-call"),
	}, msg.Content[0])
	assert.Equal(t, genchat.ToolCallBlock{
		ID:        "tc_1",
		Name:      "read",
		Arguments: json.RawMessage(`{"path":"a.go"}`),
	}, msg.Content[1])
	assert.Equal(t, genchat.StopToolUse, msg.StopReason)
}

func TestStream_Usage(t *testing.T) {
	t.Parallel()
	chunks := []*genai.GenerateContentResponse{
		{
			Candidates: []*genai.Candidate{{
				Content:      &genai.Content{Parts: []*genai.Part{{Text: "Hi"}}},
				FinishReason: genai.FinishReasonStop,
			}},
			UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
				PromptTokenCount:        210,
				CandidatesTokenCount:    5,
				CachedContentTokenCount: 200,
			},
		},
	}

	s := gemini.NewStreamFromIter(context.Background(), mockChunks(chunks))
	collectStreamEvents(t, s)

	msg, err := s.Message()
	require.NoError(t, err)
	assert.Equal(t, 10, msg.Usage.InputTokens) // 210 - 200
	assert.Equal(t, 5, msg.Usage.OutputTokens)
	assert.Equal(t, 200, msg.Usage.CacheReadTokens)
}

func TestStream_UsageClampsNegative(t *testing.T) {
	t.Parallel()
	chunks := []*genai.GenerateContentResponse{
		{
			Candidates: []*genai.Candidate{{
				Content:      &genai.Content{Parts: []*genai.Part{{Text: "Hi"}}},
				FinishReason: genai.FinishReasonStop,
			}},
			UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
				PromptTokenCount:        5,
				CandidatesTokenCount:    3,
				CachedContentTokenCount: 100, // more cached than total
			},
		},
	}

	s := gemini.NewStreamFromIter(context.Background(), mockChunks(chunks))
	collectStreamEvents(t, s)

	msg, err := s.Message()
	require.NoError(t, err)
	assert.Equal(t, 0, msg.Usage.InputTokens) // clamped to zero
	assert.Equal(t, 100, msg.Usage.CacheReadTokens)
}

func TestStream_StopReasonMaxTokens(t *testing.T) {
	t.Parallel()
	chunks := []*genai.GenerateContentResponse{
		{
			Candidates: []*genai.Candidate{{
				Content:      &genai.Content{Parts: []*genai.Part{{Text: "truncated"}}},
				FinishReason: genai.FinishReasonMaxTokens,
			}},
		},
	}

	s := gemini.NewStreamFromIter(context.Background(), mockChunks(chunks))
	collectStreamEvents(t, s)

	msg, err := s.Message()
	require.NoError(t, err)
	assert.Equal(t, genchat.StopLength, msg.StopReason)
	assert.Equal(t, string(genai.FinishReasonMaxTokens), msg.RawStopReason)
}

func TestStream_StopReasonDefaultEndTurn(t *testing.T) {
	t.Parallel()
	chunks := []*genai.GenerateContentResponse{
		{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{{Text: "hello"}}},
			}},
		},
	}

	s := gemini.NewStreamFromIter(context.Background(), mockChunks(chunks))
	collectStreamEvents(t, s)

	msg, err := s.Message()
	require.NoError(t, err)
	assert.Equal(t, genchat.StopEndTurn, msg.StopReason)
	assert.Equal(t, "end_turn", msg.RawStopReason)
}

func TestStream_MessageBeforeNext(t *testing.T) {
	t.Parallel()
	s := gemini.NewStreamFromIter(context.Background(), mockChunks(nil))
	_, err := s.Message()
	assert.ErrorIs(t, err, genchat.ErrStreamNotReady)
}

func TestStream_IteratorError(t *testing.T) {
	t.Parallel()
	iterFn := func(yield func(*genai.GenerateContentResponse, error) bool) {
		yield(&genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{{Text: "part"}}},
			}},
		}, nil)
		yield(nil, io.ErrUnexpectedEOF)
	}

	s := gemini.NewStreamFromIter(context.Background(), iterFn)

	evt, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, genchat.EventTextDelta{Index: 0, Delta: "part"}, evt)

	_, err = s.Next()
	require.Error(t, err)
	assert.Equal(t, genchat.StreamStateError, s.State())

	msg, err := s.Message()
	require.NoError(t, err)
	assert.Equal(t, genchat.StopError, msg.StopReason)
	assert.Equal(t, "part", msg.Text(), "partial content is preserved")
}

func TestStream_CloseBeforeTerminal(t *testing.T) {
	t.Parallel()
	chunks := []*genai.GenerateContentResponse{
		{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{{Text: "partial"}}},
			}},
		},
	}

	s := gemini.NewStreamFromIter(context.Background(), mockChunks(chunks))
	_, err := s.Next()
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.Equal(t, genchat.StreamStateClosed, s.State())
	msg, err := s.Message()
	require.NoError(t, err)
	assert.Equal(t, genchat.StopAborted, msg.StopReason)

	_, err = s.Next()
	assert.ErrorIs(t, err, genchat.ErrStreamClosed)
}
