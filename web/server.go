// Package web serves the browser chat surface: an embedded single-page
// widget, a websocket endpoint carrying the chat protocol, and a JSON
// transcript export.
package web

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fwojciec/genchat/chat"
)

// Server hosts the web chat surface. Each websocket connection owns one chat
// session; sessions are kept in a registry so the transcript endpoint can
// export them by ID.
type Server struct {
	cfg     Config
	logger  *zap.Logger
	factory chat.ProviderFactory

	defaultAPIKey string

	mu       sync.Mutex
	sessions map[string]*chat.Session
}

// Option configures a Server.
type Option func(*Server)

// WithDefaultAPIKey sets the credential used when a client starts a session
// without supplying its own key.
func WithDefaultAPIKey(key string) Option {
	return func(s *Server) { s.defaultAPIKey = key }
}

// NewServer creates a Server. The factory builds a provider per session from
// the resolved credential.
func NewServer(cfg Config, logger *zap.Logger, factory chat.ProviderFactory, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		factory:  factory,
		sessions: make(map[string]*chat.Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully within the
// configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("server listening", zap.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) registerSession(id string, sess *chat.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = sess
}

func (s *Server) unregisterSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *Server) session(id string) (*chat.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}
