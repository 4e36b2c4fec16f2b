package wire

// Client frame types sent by the browser.
const (
	ClientStart       = "start"
	ClientSubmit      = "submit"
	ClientSelectModel = "select_model"
	ClientReset       = "reset"
)

// Server frame types.
const (
	ServerReady = "ready"
	ServerTurn  = "turn"
	ServerDelta = "delta"
	ServerDone  = "done"
	ServerError = "error"
)

// Error kinds carried on error frames. Config errors require the user to fix
// their setup; call errors are per-turn and the session survives them.
const (
	ErrorKindConfig = "config"
	ErrorKindCall   = "call"
)

// ClientFrame is a websocket message from the browser. Type selects which of
// the remaining fields are meaningful.
type ClientFrame struct {
	Type   string `json:"type"`
	APIKey string `json:"api_key,omitempty"` // start
	Model  string `json:"model,omitempty"`   // start, select_model
	Text   string `json:"text,omitempty"`    // submit
}

// ServerFrame is a websocket message to the browser.
type ServerFrame struct {
	Type      string   `json:"type"`
	SessionID string   `json:"session_id,omitempty"` // ready
	Model     string   `json:"model,omitempty"`      // ready
	Models    []string `json:"models,omitempty"`     // ready
	Turn      *TurnDTO `json:"turn,omitempty"`       // turn
	Delta     string   `json:"delta,omitempty"`      // delta
	ErrorKind string   `json:"error_kind,omitempty"` // error
	Error     string   `json:"error,omitempty"`      // error
}

// Ready builds the frame acknowledging a started session.
func Ready(sessionID, model string, models []string) ServerFrame {
	return ServerFrame{Type: ServerReady, SessionID: sessionID, Model: model, Models: models}
}

// Delta builds a streaming fragment frame.
func Delta(fragment string) ServerFrame {
	return ServerFrame{Type: ServerDelta, Delta: fragment}
}

// Done builds the frame marking the end of a streamed reply.
func Done() ServerFrame {
	return ServerFrame{Type: ServerDone}
}

// ErrorFrame builds an error frame with the given kind.
func ErrorFrame(kind string, err error) ServerFrame {
	return ServerFrame{Type: ServerError, ErrorKind: kind, Error: err.Error()}
}
