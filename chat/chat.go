// Package chat adapts the conversation loop to a turn-oriented UI surface.
// A Session owns an append-only transcript of user and agent turns, the
// active model selection, and the credential used to build its provider.
package chat

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/genchat"
)

// The model choices offered by the UI surfaces. The first entry is the
// default selection.
var models = []string{
	"gemini-2.0-flash",
	"gemini-2.0-flash-lite",
	"gemini-2.0-pro",
}

// Models returns the fixed model IDs available for selection.
func Models() []string {
	return slices.Clone(models)
}

// DefaultModel returns the model selected when no choice has been made.
func DefaultModel() string {
	return models[0]
}

// Turn is a single transcript entry as shown in a UI. Completed turns are
// immutable; the transcript is append-only except for Reset.
type Turn struct {
	Role      genchat.Role
	Text      string
	Timestamp time.Time
	Err       error // non-nil on a user turn whose submission failed
}

// ProviderFactory builds a provider from a resolved API key. The web and
// terminal surfaces inject concrete provider constructors through this.
type ProviderFactory func(apiKey string, model string) (genchat.Provider, error)

// Session holds a UI-facing conversation: transcript turns, the active model,
// and the provider built at Start. At most one Submit may be in flight.
type Session struct {
	factory      ProviderFactory
	defaultKey   string
	systemPrompt string
	executor     genchat.ToolExecutor
	tools        []genchat.Tool

	mu       sync.Mutex
	busy     bool
	provider genchat.Provider
	model    string
	turns    []Turn
	messages []genchat.Message // full provider context, including tool traffic
}

// Option configures a Session.
type Option func(*Session)

// WithDefaultAPIKey sets the fallback credential used when Start receives no
// override. Callers typically source it from the environment once at startup.
func WithDefaultAPIKey(key string) Option {
	return func(s *Session) { s.defaultKey = key }
}

// WithSystemPrompt sets the system prompt sent with every provider request.
func WithSystemPrompt(prompt string) Option {
	return func(s *Session) { s.systemPrompt = prompt }
}

// WithTools attaches a tool executor and the tool set offered to the model.
// Tool calls and results stay in the provider context and never appear as
// transcript turns.
func WithTools(executor genchat.ToolExecutor, tools []genchat.Tool) Option {
	return func(s *Session) {
		s.executor = executor
		s.tools = tools
	}
}

// NewSession creates a Session that builds its provider via factory.
// The session starts with the default model selected and no provider; Start
// must succeed before Submit can be used.
func NewSession(factory ProviderFactory, opts ...Option) *Session {
	s := &Session{
		factory: factory,
		model:   DefaultModel(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start resolves the credential and builds the provider. A non-empty
// apiKeyOverride wins over the default key; when neither is present Start
// fails with ErrNoCredential and the session remains unstarted. Starting
// clears any existing transcript.
func (s *Session) Start(ctx context.Context, apiKeyOverride string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return genchat.ErrBusy
	}

	key := apiKeyOverride
	if key == "" {
		key = s.defaultKey
	}
	if key == "" {
		return genchat.ErrNoCredential
	}

	provider, err := s.factory(key, s.model)
	if err != nil {
		return fmt.Errorf("building provider: %w", err)
	}

	s.provider = provider
	s.turns = nil
	s.messages = nil
	return nil
}

// Reset clears the transcript. The selected model and provider are preserved.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return genchat.ErrBusy
	}

	s.turns = nil
	s.messages = nil
	return nil
}

// SelectModel changes the active model. The change applies to the next
// Submit; it never touches existing turns. Unknown IDs are rejected.
func (s *Session) SelectModel(id string) error {
	if !slices.Contains(models, id) {
		return fmt.Errorf("unknown model %q: %w", id, genchat.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return genchat.ErrBusy
	}

	s.model = id
	return nil
}

// Model returns the currently selected model ID.
func (s *Session) Model() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// Turns returns a copy of the transcript.
func (s *Session) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.turns)
}

// Submit sends text as a new user turn and streams the reply. Fragments are
// delivered to onFragment in arrival order; the appended agent turn's text is
// their exact concatenation. On failure the user turn is kept with its Err
// set and the session stays usable. A second Submit while one is in flight
// fails with ErrBusy.
func (s *Session) Submit(ctx context.Context, text string, onFragment func(string)) error {
	if err := genchat.ValidateInput(text); err != nil {
		return err
	}

	s.mu.Lock()
	if s.provider == nil {
		s.mu.Unlock()
		return genchat.ErrNoCredential
	}
	if s.busy {
		s.mu.Unlock()
		return genchat.ErrBusy
	}
	s.busy = true

	userMsg := genchat.NewUserMessage(text)
	s.messages = append(s.messages, userMsg)
	s.turns = append(s.turns, Turn{
		Role:      genchat.RoleUser,
		Text:      text,
		Timestamp: userMsg.Timestamp,
	})
	userIdx := len(s.turns) - 1

	provider := s.provider
	model := s.model
	loopSession := genchat.Session{
		SystemPrompt: s.systemPrompt,
		Messages:     slices.Clone(s.messages),
	}
	contextLen := len(loopSession.Messages)
	s.mu.Unlock()

	var reply strings.Builder
	loop := genchat.NewLoop(provider, s.executor)
	err := loop.Run(ctx, &loopSession, s.tools,
		genchat.WithModel(model),
		genchat.WithEventHandler(func(evt genchat.Event) {
			if delta, ok := evt.(genchat.EventTextDelta); ok {
				reply.WriteString(delta.Delta)
				if onFragment != nil {
					onFragment(delta.Delta)
				}
			}
		}),
	)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false

	if err != nil {
		// The user turn stays in the transcript, flagged with the error.
		// Partial provider output from the failed call is discarded so a
		// resubmission starts from clean context.
		s.turns[userIdx].Err = err
		return err
	}

	s.messages = append(s.messages, loopSession.Messages[contextLen:]...)
	s.turns = append(s.turns, Turn{
		Role:      genchat.RoleAssistant,
		Text:      reply.String(),
		Timestamp: time.Now(),
	})
	return nil
}
