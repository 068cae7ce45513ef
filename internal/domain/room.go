package domain

// RoomID numbers a room consistently across the audio and video channels.
type RoomID int64

const (
	// HallRoomID is the default landing room, created at session start
	// when absent.
	HallRoomID RoomID = 1000000
	// HallDescription doubles as the idempotency key for hall creation.
	HallDescription = "Hall"

	// ControlRoomID is the text room every client joins for private
	// administrative commands. Never shown in the reconciled room list.
	ControlRoomID RoomID = 1234
	// DemoRoomID is the gateway's built-in demo room, filtered out of
	// room listings together with the control room.
	DemoRoomID RoomID = 5678
)

// AudioRoom is a raw sub-room snapshot from the mixing channel.
type AudioRoom struct {
	Room         RoomID             `json:"room"`
	Description  string             `json:"description"`
	Participants []AudioParticipant `json:"-"`
}

// VideoRoom is a raw sub-room snapshot from the routing channel.
type VideoRoom struct {
	Room         RoomID             `json:"room"`
	Description  string             `json:"description"`
	Participants []VideoParticipant `json:"-"`
}

// Room groups the two sub-rooms that share a numeric id into one unit.
// Either sub-room may be nil transiently, e.g. mid-creation.
// Participants is the merged list, sorted by display ascending.
type Room struct {
	RoomID       RoomID        `json:"roomId"`
	Description  string        `json:"description"`
	Participants []Participant `json:"participants"`
	AudioRoom    *AudioRoom    `json:"-"`
	VideoRoom    *VideoRoom    `json:"-"`
}
