package web

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fwojciec/genchat"
	"github.com/fwojciec/genchat/chat"
	"github.com/fwojciec/genchat/wire"
)

//go:embed index.html
var indexHTML []byte

// Handler returns the HTTP routes: the chat page, the websocket endpoint,
// and the transcript export.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /api/transcript", s.handleTranscript)
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleTranscript exports a session's transcript as a versioned JSON
// envelope. The session ID comes from the ready frame on the websocket.
func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session")
	if id == "" {
		http.Error(w, "missing session parameter", http.StatusBadRequest)
		return
	}
	sess, ok := s.session(id)
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	data, err := wire.MarshalTranscript(id, sess.Model(), sess.Turns())
	if err != nil {
		s.logger.Error("marshal transcript", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket accept", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	id := uuid.NewString()
	sess := chat.NewSession(s.factory, chat.WithDefaultAPIKey(s.defaultAPIKey))
	s.registerSession(id, sess)
	defer s.unregisterSession(id)

	logger := s.logger.With(zap.String("session", id))
	logger.Info("client connected")

	c := &wsConn{conn: conn, logger: logger}
	ctx := r.Context()
	for {
		var frame wire.ClientFrame
		if err := c.read(ctx, &frame); err != nil {
			logger.Info("client disconnected", zap.Error(err))
			return
		}
		if err := s.dispatch(ctx, c, id, sess, frame); err != nil {
			return
		}
	}
}

// dispatch handles one client frame. A non-nil return closes the connection;
// chat-level failures are reported in-band as error frames instead.
func (s *Server) dispatch(ctx context.Context, c *wsConn, id string, sess *chat.Session, frame wire.ClientFrame) error {
	switch frame.Type {
	case wire.ClientStart:
		if frame.Model != "" {
			if err := sess.SelectModel(frame.Model); err != nil {
				return c.write(ctx, wire.ErrorFrame(wire.ErrorKindConfig, err))
			}
		}
		if err := sess.Start(ctx, frame.APIKey); err != nil {
			return c.write(ctx, wire.ErrorFrame(wire.ErrorKindConfig, err))
		}
		return c.write(ctx, wire.Ready(id, sess.Model(), chat.Models()))

	case wire.ClientSelectModel:
		if err := sess.SelectModel(frame.Model); err != nil {
			return c.write(ctx, wire.ErrorFrame(wire.ErrorKindConfig, err))
		}
		return c.write(ctx, wire.Ready(id, sess.Model(), chat.Models()))

	case wire.ClientReset:
		if err := sess.Reset(); err != nil {
			return c.write(ctx, wire.ErrorFrame(wire.ErrorKindCall, err))
		}
		return c.write(ctx, wire.Ready(id, sess.Model(), chat.Models()))

	case wire.ClientSubmit:
		err := sess.Submit(ctx, frame.Text, func(fragment string) {
			// Write errors surface on the next read; the stream is not
			// interruptible from here.
			_ = c.write(ctx, wire.Delta(fragment))
		})
		if err != nil {
			return c.write(ctx, wire.ErrorFrame(classifyError(err), err))
		}
		turns := sess.Turns()
		reply := wire.NewTurnDTO(turns[len(turns)-1])
		if err := c.write(ctx, wire.ServerFrame{Type: wire.ServerTurn, Turn: &reply}); err != nil {
			return err
		}
		return c.write(ctx, wire.Done())

	default:
		return c.write(ctx, wire.ErrorFrame(wire.ErrorKindCall, errors.New("unknown frame type: "+frame.Type)))
	}
}

// classifyError splits failures into the two kinds the UI distinguishes:
// configuration problems the user must fix versus per-call failures the
// session survives.
func classifyError(err error) string {
	if errors.Is(err, genchat.ErrNoCredential) {
		return wire.ErrorKindConfig
	}
	return wire.ErrorKindCall
}

// wsConn wraps a websocket connection with JSON frame IO. The websocket does
// not support concurrent writers; all writes happen on the connection's
// dispatch goroutine.
type wsConn struct {
	conn   *websocket.Conn
	logger *zap.Logger
}

func (c *wsConn) read(ctx context.Context, v any) error {
	_, data, err := c.conn.Read(ctx)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (c *wsConn) write(ctx context.Context, frame wire.ServerFrame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return c.conn.Write(ctx, websocket.MessageText, data)
}
