package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/guilleprfc/video-chat-app/internal/core"
	"github.com/guilleprfc/video-chat-app/internal/domain"
)

// selfLeaveSentinel is how the gateway reports this client's own
// departure: the leaving field carries "ok" instead of a participant id.
var selfLeaveSentinel = []byte(`"ok"`)

// ParseAudioEvent decodes a raw mixing-channel payload into the closed
// audio event union.
func ParseAudioEvent(data json.RawMessage) (core.AudioEvent, error) {
	var raw struct {
		Audiobridge  string                    `json:"audiobridge"`
		Room         domain.RoomID             `json:"room"`
		ID           int64                     `json:"id"`
		Display      string                    `json:"display"`
		Participants []domain.AudioParticipant `json:"participants"`
		Leaving      *int64                    `json:"leaving"`
		Error        string                    `json:"error"`
		ErrorCode    int                       `json:"error_code"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("audio payload: %w", err)
	}
	switch raw.Audiobridge {
	case "joined":
		return core.AudioJoined{Room: raw.Room, ID: raw.ID, Participants: raw.Participants}, nil
	case "roomchanged":
		return core.AudioRoomChanged{Room: raw.Room, ID: raw.ID, Display: raw.Display}, nil
	case "destroyed":
		return core.AudioRoomDestroyed{Room: raw.Room}, nil
	case "talking":
		return core.AudioTalking{Room: raw.Room, ID: raw.ID, Talking: true}, nil
	case "stopped-talking":
		return core.AudioTalking{Room: raw.Room, ID: raw.ID, Talking: false}, nil
	case "event":
		if raw.Error != "" {
			return core.AudioError{Code: raw.ErrorCode, Reason: raw.Error}, nil
		}
		if raw.Leaving != nil {
			return core.AudioPeerLeft{Room: raw.Room, ID: *raw.Leaving}, nil
		}
		return core.AudioUpdated{Room: raw.Room, Participants: raw.Participants}, nil
	}
	return nil, fmt.Errorf("unknown audio event %q", raw.Audiobridge)
}

// ParseVideoEvent decodes a raw routing-channel payload into the closed
// video event union. The self-leave sentinel is resolved here so nothing
// downstream ever compares against it.
func ParseVideoEvent(data json.RawMessage) (core.VideoEvent, error) {
	var raw struct {
		Videoroom  string             `json:"videoroom"`
		Room       domain.RoomID      `json:"room"`
		ID         int64              `json:"id"`
		Publishers []domain.Publisher `json:"publishers"`
		Leaving    json.RawMessage    `json:"leaving"`
		Error      string             `json:"error"`
		ErrorCode  int                `json:"error_code"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("video payload: %w", err)
	}
	switch raw.Videoroom {
	case "joined":
		return core.VideoJoined{Room: raw.Room, ID: raw.ID, Publishers: raw.Publishers}, nil
	case "attached":
		return core.VideoAttached{Room: raw.Room, Feed: raw.ID}, nil
	case "updated":
		return core.VideoUpdated{Room: raw.Room}, nil
	case "destroyed":
		return core.VideoRoomDestroyed{Room: raw.Room}, nil
	case "event":
		if raw.Error != "" {
			return core.VideoError{Code: raw.ErrorCode, Reason: raw.Error}, nil
		}
		if len(raw.Leaving) > 0 {
			return parseVideoLeaving(raw.Room, raw.Leaving)
		}
		if len(raw.Publishers) > 0 {
			return core.VideoPublishers{Room: raw.Room, Publishers: raw.Publishers}, nil
		}
		return core.VideoUpdated{Room: raw.Room}, nil
	}
	return nil, fmt.Errorf("unknown video event %q", raw.Videoroom)
}

func parseVideoLeaving(room domain.RoomID, leaving json.RawMessage) (core.VideoEvent, error) {
	if bytes.Equal(bytes.TrimSpace(leaving), selfLeaveSentinel) {
		return core.VideoSelfLeft{Room: room}, nil
	}
	id, err := strconv.ParseInt(string(bytes.TrimSpace(leaving)), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("leaving id %s: %w", leaving, err)
	}
	return core.VideoPeerLeft{Room: room, ID: id}, nil
}
