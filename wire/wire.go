// Package wire defines the JSON formats shared between the web server and
// its browser client: the versioned transcript envelope and the websocket
// frame types.
package wire

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fwojciec/genchat"
	"github.com/fwojciec/genchat/chat"
)

// Transcript is the v1 envelope for an exported conversation transcript.
type Transcript struct {
	Version   int       `json:"version"`
	SessionID string    `json:"session_id"`
	Model     string    `json:"model"`
	Turns     []TurnDTO `json:"turns"`
}

// TurnDTO is the JSON representation of a transcript turn.
type TurnDTO struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

// NewTurnDTO converts a chat turn to its wire representation.
func NewTurnDTO(t chat.Turn) TurnDTO {
	dto := TurnDTO{
		Role:      string(t.Role),
		Text:      t.Text,
		Timestamp: t.Timestamp,
	}
	if t.Err != nil {
		dto.Error = t.Err.Error()
	}
	return dto
}

// Turn converts the DTO back into a chat turn. The original error value is
// not recoverable; a plain error carrying the message is substituted.
func (dto TurnDTO) Turn() (chat.Turn, error) {
	role := genchat.Role(dto.Role)
	switch role {
	case genchat.RoleUser, genchat.RoleAssistant:
	default:
		return chat.Turn{}, fmt.Errorf("unknown turn role %q: %w", dto.Role, genchat.ErrValidation)
	}
	t := chat.Turn{
		Role:      role,
		Text:      dto.Text,
		Timestamp: dto.Timestamp,
	}
	if dto.Error != "" {
		t.Err = errors.New(dto.Error)
	}
	return t, nil
}

// MarshalTranscript serializes a transcript to JSON in v1 envelope format.
func MarshalTranscript(sessionID, model string, turns []chat.Turn) ([]byte, error) {
	env := Transcript{
		Version:   1,
		SessionID: sessionID,
		Model:     model,
		Turns:     make([]TurnDTO, len(turns)),
	}
	for i, t := range turns {
		env.Turns[i] = NewTurnDTO(t)
	}
	return json.MarshalIndent(env, "", "  ")
}

// UnmarshalTranscript deserializes a v1 transcript envelope.
func UnmarshalTranscript(data []byte) (Transcript, error) {
	var env Transcript
	if err := json.Unmarshal(data, &env); err != nil {
		return Transcript{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Version != 1 {
		return Transcript{}, fmt.Errorf("unsupported envelope version: %d", env.Version)
	}
	for i, dto := range env.Turns {
		if _, err := dto.Turn(); err != nil {
			return Transcript{}, fmt.Errorf("turn %d: %w", i, err)
		}
	}
	return env, nil
}
