package core

import "github.com/guilleprfc/video-chat-app/internal/domain"

// AudioEvent is one inbound notification from the mixing channel.
// The set is closed: adapters decide the concrete kind at parse time and
// handlers dispatch with a type switch.
type AudioEvent interface{ isAudioEvent() }

// AudioJoined reports a completed join, carrying the channel-local id
// assigned to this client and the members already present.
type AudioJoined struct {
	Room         domain.RoomID
	ID           int64
	Participants []domain.AudioParticipant
}

// AudioUpdated carries refreshed participant state pushed by the gateway.
type AudioUpdated struct {
	Room         domain.RoomID
	Participants []domain.AudioParticipant
}

// AudioRoomChanged acks a changeroom request in one round trip.
type AudioRoomChanged struct {
	Room    domain.RoomID
	ID      int64
	Display string
}

// AudioPeerLeft reports another participant leaving the audio room.
type AudioPeerLeft struct {
	Room domain.RoomID
	ID   int64
}

// AudioRoomDestroyed reports the audio sub-room being torn down.
type AudioRoomDestroyed struct{ Room domain.RoomID }

// AudioTalking reports a participant starting or stopping to talk.
type AudioTalking struct {
	Room    domain.RoomID
	ID      int64
	Talking bool
}

// AudioError is an unsolicited error field in an audio event payload.
type AudioError struct {
	Code   int
	Reason string
}

func (AudioJoined) isAudioEvent()        {}
func (AudioUpdated) isAudioEvent()       {}
func (AudioRoomChanged) isAudioEvent()   {}
func (AudioPeerLeft) isAudioEvent()      {}
func (AudioRoomDestroyed) isAudioEvent() {}
func (AudioTalking) isAudioEvent()       {}
func (AudioError) isAudioEvent()         {}

// VideoEvent is one inbound notification from the routing channel.
type VideoEvent interface{ isVideoEvent() }

// VideoJoined reports a completed join as publisher or subscriber.
type VideoJoined struct {
	Room       domain.RoomID
	ID         int64
	Publishers []domain.Publisher
}

// VideoPublishers announces newly available publishers in the room.
type VideoPublishers struct {
	Room       domain.RoomID
	Publishers []domain.Publisher
}

// VideoSelfLeft reports this client's own departure from a video room.
// The gateway signals it with a sentinel in place of a leaving id; the
// distinction from VideoPeerLeft is made at parse time, never downstream.
type VideoSelfLeft struct{ Room domain.RoomID }

// VideoPeerLeft reports another participant leaving the video room.
type VideoPeerLeft struct {
	Room domain.RoomID
	ID   int64
}

// VideoAttached reports a subscriber feed attachment; the gateway's
// media offer travels in the same envelope via OnJsep.
type VideoAttached struct {
	Room domain.RoomID
	Feed int64
}

// VideoUpdated reports a subscription update on the subscriber channel.
type VideoUpdated struct{ Room domain.RoomID }

// VideoRoomDestroyed reports the video sub-room being torn down.
type VideoRoomDestroyed struct{ Room domain.RoomID }

// VideoError is an unsolicited error field in a video event payload.
type VideoError struct {
	Code   int
	Reason string
}

func (VideoJoined) isVideoEvent()        {}
func (VideoPublishers) isVideoEvent()    {}
func (VideoSelfLeft) isVideoEvent()      {}
func (VideoPeerLeft) isVideoEvent()      {}
func (VideoAttached) isVideoEvent()      {}
func (VideoUpdated) isVideoEvent()       {}
func (VideoRoomDestroyed) isVideoEvent() {}
func (VideoError) isVideoEvent()         {}

// ControlEvent is one inbound message on the control channel's data
// stream.
type ControlEvent interface{ isControlEvent() }

// ControlMessage is a text message; Whisper marks it private to this
// client, which is how administrative commands are relayed.
type ControlMessage struct {
	From    string
	Room    domain.RoomID
	Text    string
	Whisper bool
}

// ControlAnnouncement is a room-wide announcement.
type ControlAnnouncement struct {
	Room domain.RoomID
	Text string
}

// ControlJoin reports somebody joining the control room.
type ControlJoin struct {
	Username string
	Display  string
}

// ControlLeave reports somebody leaving the control room.
type ControlLeave struct{ Username string }

// ControlKicked reports somebody being kicked from the control room.
type ControlKicked struct{ Username string }

// ControlDestroyed reports the control room being destroyed.
type ControlDestroyed struct{ Room domain.RoomID }

// ControlError is an error reported inside a control payload.
type ControlError struct{ Reason string }

func (ControlMessage) isControlEvent()      {}
func (ControlAnnouncement) isControlEvent() {}
func (ControlJoin) isControlEvent()         {}
func (ControlLeave) isControlEvent()        {}
func (ControlKicked) isControlEvent()       {}
func (ControlDestroyed) isControlEvent()    {}
func (ControlError) isControlEvent()        {}
