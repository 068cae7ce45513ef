// Package domain contains entity without logic, just meta-data
package domain

// AudioParticipant is the mixing channel's view of a room member,
// keyed by an id local to that channel.
type AudioParticipant struct {
	ID      int64  `json:"id"`
	Display string `json:"display"`
	Setup   bool   `json:"setup"`
	Muted   bool   `json:"muted"`
}

// VideoParticipant is the routing channel's view of a room member,
// keyed by an id local to that channel. Audio and video ids are not
// comparable with each other.
type VideoParticipant struct {
	ID        int64  `json:"id"`
	Display   string `json:"display"`
	Publisher bool   `json:"publisher"`
}

// Publisher is a participant actively sending video.
type Publisher struct {
	ID      int64  `json:"id"`
	Display string `json:"display"`
}

// Participant is the merged cross-channel identity of one user within a
// room. The display name is the only identifier shared by both channels,
// so it acts as the merge key. The two channel joins are not atomic:
// either id may be missing while the other join is still in flight.
type Participant struct {
	Display   string `json:"display"`
	AudioID   int64  `json:"audioId,omitempty"`
	HasAudio  bool   `json:"hasAudio"`
	VideoID   int64  `json:"videoId,omitempty"`
	HasVideo  bool   `json:"hasVideo"`
	Muted     bool   `json:"muted"`
	Setup     bool   `json:"setup"`
	Publisher bool   `json:"publisher"`
	Room      RoomID `json:"room,omitempty"`
}

// TalkEvent reports a participant starting or stopping to talk,
// keyed by the audio channel's local id.
type TalkEvent struct {
	AudioID int64  `json:"id"`
	Room    RoomID `json:"room"`
	Talking bool   `json:"talking"`
}
