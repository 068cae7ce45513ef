package app

import (
	"encoding/json"
	"fmt"

	"github.com/guilleprfc/video-chat-app/internal/core"
	"github.com/guilleprfc/video-chat-app/internal/domain"
)

// ControlEnvelope is the JSON frame exchanged on the control channel's
// data stream. The textroom field carries the verb; whisper marks a
// message as private to this client.
type ControlEnvelope struct {
	Textroom    string        `json:"textroom"`
	Transaction string        `json:"transaction,omitempty"`
	Room        domain.RoomID `json:"room,omitempty"`
	Username    string        `json:"username,omitempty"`
	Display     string        `json:"display,omitempty"`
	From        string        `json:"from,omitempty"`
	To          string        `json:"to,omitempty"`
	Text        string        `json:"text,omitempty"`
	Whisper     bool          `json:"whisper,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// EncodeControlJoin builds the join frame sent once the data stream opens.
func EncodeControlJoin(tx string, room domain.RoomID, username, display string) ([]byte, error) {
	return json.Marshal(ControlEnvelope{
		Textroom:    "join",
		Transaction: tx,
		Room:        room,
		Username:    username,
		Display:     display,
	})
}

// EncodeControlMessage builds a text message frame; a non-empty to makes
// it a private message delivered only to that display name.
func EncodeControlMessage(tx string, room domain.RoomID, to, text string) ([]byte, error) {
	return json.Marshal(ControlEnvelope{
		Textroom:    "message",
		Transaction: tx,
		Room:        room,
		To:          to,
		Text:        text,
	})
}

// ParseControlEvent decodes an inbound data payload into the closed
// control event union.
func ParseControlEvent(payload []byte) (core.ControlEvent, error) {
	var env ControlEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("control payload: %w", err)
	}
	if env.Error != "" {
		return core.ControlError{Reason: env.Error}, nil
	}
	switch env.Textroom {
	case "message":
		return core.ControlMessage{
			From:    env.From,
			Room:    env.Room,
			Text:    env.Text,
			Whisper: env.Whisper,
		}, nil
	case "announcement":
		return core.ControlAnnouncement{Room: env.Room, Text: env.Text}, nil
	case "join":
		return core.ControlJoin{Username: env.Username, Display: env.Display}, nil
	case "leave":
		return core.ControlLeave{Username: env.Username}, nil
	case "kicked":
		return core.ControlKicked{Username: env.Username}, nil
	case "destroyed":
		return core.ControlDestroyed{Room: env.Room}, nil
	}
	return nil, fmt.Errorf("unknown control verb %q", env.Textroom)
}
