package chat_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/fwojciec/genchat"
	"github.com/fwojciec/genchat/chat"
	"github.com/fwojciec/genchat/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoFactory builds a provider that streams back the given fragments for
// every request.
func echoFactory(fragments ...string) chat.ProviderFactory {
	return func(apiKey, model string) (genchat.Provider, error) {
		return &mock.Provider{
			StreamFn: func(ctx context.Context, req genchat.Request) (genchat.Stream, error) {
				return mock.TextStream(fragments...), nil
			},
		}, nil
	}
}

func TestModels(t *testing.T) {
	t.Parallel()

	ids := chat.Models()
	assert.Equal(t, []string{"gemini-2.0-flash", "gemini-2.0-flash-lite", "gemini-2.0-pro"}, ids)
	assert.Equal(t, "gemini-2.0-flash", chat.DefaultModel())
}

func TestStart_CredentialPrecedence(t *testing.T) {
	t.Parallel()

	var gotKey string
	factory := func(apiKey, model string) (genchat.Provider, error) {
		gotKey = apiKey
		return &mock.Provider{}, nil
	}

	s := chat.NewSession(factory, chat.WithDefaultAPIKey("env-key"))
	require.NoError(t, s.Start(context.Background(), "override-key"))
	assert.Equal(t, "override-key", gotKey)

	require.NoError(t, s.Start(context.Background(), ""))
	assert.Equal(t, "env-key", gotKey)
}

func TestStart_NoCredential(t *testing.T) {
	t.Parallel()

	s := chat.NewSession(echoFactory("hi"))
	err := s.Start(context.Background(), "")
	assert.ErrorIs(t, err, genchat.ErrNoCredential)
	assert.Empty(t, s.Turns())
}

func TestSubmit_BeforeStart(t *testing.T) {
	t.Parallel()

	s := chat.NewSession(echoFactory("hi"))
	err := s.Submit(context.Background(), "hello", nil)
	assert.ErrorIs(t, err, genchat.ErrNoCredential)
	assert.Empty(t, s.Turns(), "no turns appended without a credential")
}

func TestSubmit_AppendsTurnPair(t *testing.T) {
	t.Parallel()

	s := chat.NewSession(echoFactory("Hello", ", ", "world"), chat.WithDefaultAPIKey("k"))
	require.NoError(t, s.Start(context.Background(), ""))

	var fragments []string
	err := s.Submit(context.Background(), "greet me", func(f string) {
		fragments = append(fragments, f)
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Hello", ", ", "world"}, fragments)

	turns := s.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, genchat.RoleUser, turns[0].Role)
	assert.Equal(t, "greet me", turns[0].Text)
	assert.NoError(t, turns[0].Err)
	assert.Equal(t, genchat.RoleAssistant, turns[1].Role)
	assert.Equal(t, "Hello, world", turns[1].Text, "turn text equals fragment concatenation")
	assert.False(t, turns[1].Timestamp.IsZero())
}

func TestSubmit_TwoTurnsPerSubmit(t *testing.T) {
	t.Parallel()

	s := chat.NewSession(echoFactory("ok"), chat.WithDefaultAPIKey("k"))
	require.NoError(t, s.Start(context.Background(), ""))

	const n = 5
	for i := 0; i < n; i++ {
		require.NoError(t, s.Submit(context.Background(), "again", nil))
	}
	assert.Len(t, s.Turns(), 2*n)
}

func TestSubmit_EmptyInput(t *testing.T) {
	t.Parallel()

	s := chat.NewSession(echoFactory("hi"), chat.WithDefaultAPIKey("k"))
	require.NoError(t, s.Start(context.Background(), ""))

	for _, input := range []string{"", "   ", "\n\t"} {
		err := s.Submit(context.Background(), input, nil)
		assert.ErrorIs(t, err, genchat.ErrEmptyInput)
	}
	assert.Empty(t, s.Turns())
}

func TestSubmit_FailureKeepsUserTurn(t *testing.T) {
	t.Parallel()

	callErr := errors.New("backend unavailable")
	factory := func(apiKey, model string) (genchat.Provider, error) {
		return &mock.Provider{
			StreamFn: func(ctx context.Context, req genchat.Request) (genchat.Stream, error) {
				return nil, callErr
			},
		}, nil
	}

	s := chat.NewSession(factory, chat.WithDefaultAPIKey("k"))
	require.NoError(t, s.Start(context.Background(), ""))

	err := s.Submit(context.Background(), "hello", nil)
	require.ErrorIs(t, err, callErr)

	turns := s.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, genchat.RoleUser, turns[0].Role)
	assert.ErrorIs(t, turns[0].Err, callErr)
}

func TestSubmit_SessionUsableAfterFailure(t *testing.T) {
	t.Parallel()

	fail := true
	factory := func(apiKey, model string) (genchat.Provider, error) {
		return &mock.Provider{
			StreamFn: func(ctx context.Context, req genchat.Request) (genchat.Stream, error) {
				if fail {
					return nil, errors.New("transient")
				}
				return mock.TextStream("recovered"), nil
			},
		}, nil
	}

	s := chat.NewSession(factory, chat.WithDefaultAPIKey("k"))
	require.NoError(t, s.Start(context.Background(), ""))

	require.Error(t, s.Submit(context.Background(), "first", nil))

	fail = false
	require.NoError(t, s.Submit(context.Background(), "second", nil))

	turns := s.Turns()
	require.Len(t, turns, 3, "one failed submit adds one turn, one success adds two")
	assert.Equal(t, "recovered", turns[2].Text)
}

func TestSubmit_Busy(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	factory := func(apiKey, model string) (genchat.Provider, error) {
		return &mock.Provider{
			StreamFn: func(ctx context.Context, req genchat.Request) (genchat.Stream, error) {
				return &mock.Stream{
					NextFn: func() (genchat.Event, error) {
						close(started)
						<-release
						return nil, io.EOF
					},
					StateFn: func() genchat.StreamState { return genchat.StreamStateComplete },
					MessageFn: func() (genchat.AssistantMessage, error) {
						return genchat.AssistantMessage{
							Content:    []genchat.ContentBlock{genchat.TextBlock{Text: "done"}},
							StopReason: genchat.StopEndTurn,
							Timestamp:  time.Now(),
						}, nil
					},
				}, nil
			},
		}, nil
	}

	s := chat.NewSession(factory, chat.WithDefaultAPIKey("k"))
	require.NoError(t, s.Start(context.Background(), ""))

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- s.Submit(context.Background(), "slow", nil)
	}()

	<-started
	assert.ErrorIs(t, s.Submit(context.Background(), "impatient", nil), genchat.ErrBusy)
	assert.ErrorIs(t, s.Reset(), genchat.ErrBusy)
	assert.ErrorIs(t, s.SelectModel("gemini-2.0-pro"), genchat.ErrBusy)

	close(release)
	require.NoError(t, <-firstDone)
	assert.Len(t, s.Turns(), 2)
}

func TestReset_PreservesModel(t *testing.T) {
	t.Parallel()

	s := chat.NewSession(echoFactory("hi"), chat.WithDefaultAPIKey("k"))
	require.NoError(t, s.Start(context.Background(), ""))
	require.NoError(t, s.SelectModel("gemini-2.0-pro"))
	require.NoError(t, s.Submit(context.Background(), "hello", nil))
	require.Len(t, s.Turns(), 2)

	require.NoError(t, s.Reset())
	assert.Empty(t, s.Turns())
	assert.Equal(t, "gemini-2.0-pro", s.Model())
}

func TestSelectModel(t *testing.T) {
	t.Parallel()

	var gotModels []string
	factory := func(apiKey, model string) (genchat.Provider, error) {
		return &mock.Provider{
			StreamFn: func(ctx context.Context, req genchat.Request) (genchat.Stream, error) {
				gotModels = append(gotModels, req.Model)
				return mock.TextStream("ok"), nil
			},
		}, nil
	}

	s := chat.NewSession(factory, chat.WithDefaultAPIKey("k"))
	require.NoError(t, s.Start(context.Background(), ""))

	require.NoError(t, s.Submit(context.Background(), "one", nil))
	require.NoError(t, s.SelectModel("gemini-2.0-flash-lite"))
	require.NoError(t, s.Submit(context.Background(), "two", nil))

	assert.Equal(t, []string{"gemini-2.0-flash", "gemini-2.0-flash-lite"}, gotModels)
}

func TestSelectModel_Unknown(t *testing.T) {
	t.Parallel()

	s := chat.NewSession(echoFactory("hi"))
	err := s.SelectModel("gpt-4")
	assert.ErrorIs(t, err, genchat.ErrValidation)
	assert.Equal(t, chat.DefaultModel(), s.Model())
}

func TestSelectModel_DoesNotMutateTurns(t *testing.T) {
	t.Parallel()

	s := chat.NewSession(echoFactory("hi"), chat.WithDefaultAPIKey("k"))
	require.NoError(t, s.Start(context.Background(), ""))
	require.NoError(t, s.Submit(context.Background(), "hello", nil))

	before := s.Turns()
	require.NoError(t, s.SelectModel("gemini-2.0-pro"))
	assert.Equal(t, before, s.Turns())
}

func TestSubmit_CarriesConversationHistory(t *testing.T) {
	t.Parallel()

	var historyLens []int
	factory := func(apiKey, model string) (genchat.Provider, error) {
		return &mock.Provider{
			StreamFn: func(ctx context.Context, req genchat.Request) (genchat.Stream, error) {
				historyLens = append(historyLens, len(req.Messages))
				return mock.TextStream("ok"), nil
			},
		}, nil
	}

	s := chat.NewSession(factory, chat.WithDefaultAPIKey("k"))
	require.NoError(t, s.Start(context.Background(), ""))

	require.NoError(t, s.Submit(context.Background(), "one", nil))
	require.NoError(t, s.Submit(context.Background(), "two", nil))
	require.NoError(t, s.Submit(context.Background(), "three", nil))

	assert.Equal(t, []int{1, 3, 5}, historyLens, "each request carries the prior transcript")
}

func TestSubmit_ToolTrafficStaysOutOfTranscript(t *testing.T) {
	t.Parallel()

	// First provider call requests a tool; the follow-up call answers.
	calls := 0
	factory := func(apiKey, model string) (genchat.Provider, error) {
		return &mock.Provider{
			StreamFn: func(ctx context.Context, req genchat.Request) (genchat.Stream, error) {
				calls++
				if calls == 1 {
					return &mock.Stream{
						NextFn: func() (genchat.Event, error) { return nil, io.EOF },
						StateFn: func() genchat.StreamState {
							return genchat.StreamStateComplete
						},
						MessageFn: func() (genchat.AssistantMessage, error) {
							return genchat.AssistantMessage{
								Content: []genchat.ContentBlock{
									genchat.ToolCallBlock{ID: "call_1", Name: "read", Arguments: json.RawMessage(`{}`)},
								},
								StopReason: genchat.StopToolUse,
								Timestamp:  time.Now(),
							}, nil
						},
					}, nil
				}
				return mock.TextStream("the file says hi"), nil
			},
		}, nil
	}

	executor := &mock.ToolExecutor{
		ExecuteFn: func(ctx context.Context, name string, args json.RawMessage) (*genchat.ToolResult, error) {
			return &genchat.ToolResult{
				Content: []genchat.ContentBlock{genchat.TextBlock{Text: "hi"}},
			}, nil
		},
	}

	s := chat.NewSession(factory,
		chat.WithDefaultAPIKey("k"),
		chat.WithTools(executor, []genchat.Tool{{Name: "read"}}),
	)
	require.NoError(t, s.Start(context.Background(), ""))
	require.NoError(t, s.Submit(context.Background(), "read the file", nil))

	assert.Equal(t, 2, calls)
	turns := s.Turns()
	require.Len(t, turns, 2, "tool calls and results are not transcript turns")
	assert.Equal(t, "the file says hi", turns[1].Text)
}

func TestStart_ClearsTranscript(t *testing.T) {
	t.Parallel()

	s := chat.NewSession(echoFactory("hi"), chat.WithDefaultAPIKey("k"))
	require.NoError(t, s.Start(context.Background(), ""))
	require.NoError(t, s.Submit(context.Background(), "hello", nil))
	require.Len(t, s.Turns(), 2)

	require.NoError(t, s.Start(context.Background(), "fresh-key"))
	assert.Empty(t, s.Turns())
}
