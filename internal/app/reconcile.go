package app

import (
	"sort"
	"sync"

	"github.com/guilleprfc/video-chat-app/internal/domain"
)

// JoinKey extracts the cross-channel merge key for a participant. The
// display name is the only identifier known before either channel assigns
// its local id; hiding it behind this interface keeps the merge logic
// untouched if a stable identifier replaces it.
type JoinKey interface {
	AudioKey(p domain.AudioParticipant) string
	VideoKey(p domain.VideoParticipant) string
}

// DisplayKey joins on the human-readable display name.
type DisplayKey struct{}

func (DisplayKey) AudioKey(p domain.AudioParticipant) string { return p.Display }
func (DisplayKey) VideoKey(p domain.VideoParticipant) string { return p.Display }

// Snapshot is an immutable view of the reconciled room state. User is
// nil until the local display name shows up in some room.
type Snapshot struct {
	Rooms []domain.Room
	User  *domain.Participant
}

// Participants flattens the per-room lists in room order.
func (s Snapshot) Participants() []domain.Participant {
	var out []domain.Participant
	for _, r := range s.Rooms {
		out = append(out, r.Participants...)
	}
	return out
}

// Engine merges independently fetched audio and video room state into
// one participant-per-display model. It is the single writer of the
// authoritative room collection: every mutation builds a fresh slice and
// swaps it atomically, so readers never observe a torn update.
type Engine struct {
	key JoinKey

	mu    sync.RWMutex
	self  string
	rooms []domain.Room
	user  *domain.Participant
}

func NewEngine(key JoinKey) *Engine {
	if key == nil {
		key = DisplayKey{}
	}
	return &Engine{key: key}
}

// SetSelf records the local display name used to locate the current user.
func (e *Engine) SetSelf(display string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.self = display
}

func (e *Engine) Self() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.self
}

// Snapshot returns the current reconciled view.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Snapshot{Rooms: e.rooms, User: e.user}
}

// Apply replaces the whole room collection with a fresh merge of the
// given sub-room lists. Re-applying the same input yields the same
// output; this is the only full-refresh entry point.
func (e *Engine) Apply(audio []domain.AudioRoom, video []domain.VideoRoom) Snapshot {
	rooms := mergeRooms(e.key, audio, video)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.rooms = rooms
	e.user = locateUser(rooms, e.self)
	return Snapshot{Rooms: e.rooms, User: e.user}
}

// RemoveAudioParticipant drops the participant holding the given audio
// channel id from whichever room carries it.
func (e *Engine) RemoveAudioParticipant(audioID int64) Snapshot {
	return e.mutate(func(rooms []domain.Room) {
		for i := range rooms {
			rooms[i].Participants = deleteWhere(rooms[i].Participants, func(p domain.Participant) bool {
				return p.HasAudio && p.AudioID == audioID
			})
		}
	})
}

// RemoveVideoParticipant drops the participant holding the given video
// channel id from the given room.
func (e *Engine) RemoveVideoParticipant(room domain.RoomID, videoID int64) Snapshot {
	return e.mutate(func(rooms []domain.Room) {
		for i := range rooms {
			if rooms[i].RoomID != room {
				continue
			}
			rooms[i].Participants = deleteWhere(rooms[i].Participants, func(p domain.Participant) bool {
				return p.HasVideo && p.VideoID == videoID
			})
		}
	})
}

// UpsertAudioParticipants folds pushed audio participant state into the
// room's merged list without waiting for a full refresh.
func (e *Engine) UpsertAudioParticipants(room domain.RoomID, parts []domain.AudioParticipant) Snapshot {
	return e.mutate(func(rooms []domain.Room) {
		for i := range rooms {
			if rooms[i].RoomID != room {
				continue
			}
			for _, ap := range parts {
				rooms[i].Participants = upsertAudio(e.key, rooms[i].Participants, ap)
			}
			sortParticipants(rooms[i].Participants)
		}
	})
}

// mutate clones the room collection, applies fn to the clone and swaps.
func (e *Engine) mutate(fn func(rooms []domain.Room)) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	rooms := cloneRooms(e.rooms)
	fn(rooms)
	e.rooms = rooms
	e.user = locateUser(rooms, e.self)
	return Snapshot{Rooms: e.rooms, User: e.user}
}

func mergeRooms(key JoinKey, audio []domain.AudioRoom, video []domain.VideoRoom) []domain.Room {
	var rooms []domain.Room
	for i := range audio {
		a := audio[i]
		rooms = append(rooms, domain.Room{
			RoomID:      a.Room,
			Description: a.Description,
			AudioRoom:   &a,
		})
	}
	for i := range video {
		v := video[i]
		found := false
		for j := range rooms {
			if rooms[j].RoomID == v.Room {
				rooms[j].VideoRoom = &v
				found = true
				break
			}
		}
		if !found {
			rooms = append(rooms, domain.Room{
				RoomID:      v.Room,
				Description: v.Description,
				VideoRoom:   &v,
			})
		}
	}
	for i := range rooms {
		rooms[i].Participants = mergeParticipants(key, rooms[i].AudioRoom, rooms[i].VideoRoom)
	}
	return rooms
}

// mergeParticipants seeds from the audio list, then folds in the video
// list by merge key. Video-only members are appended.
func mergeParticipants(key JoinKey, a *domain.AudioRoom, v *domain.VideoRoom) []domain.Participant {
	var out []domain.Participant
	if a != nil {
		for _, ap := range a.Participants {
			out = upsertAudio(key, out, ap)
		}
	}
	if v != nil {
		for _, vp := range v.Participants {
			out = upsertVideo(key, out, vp)
		}
	}
	sortParticipants(out)
	return out
}

func upsertAudio(key JoinKey, list []domain.Participant, ap domain.AudioParticipant) []domain.Participant {
	k := key.AudioKey(ap)
	for i := range list {
		if list[i].Display == k {
			list[i].AudioID = ap.ID
			list[i].HasAudio = true
			list[i].Setup = ap.Setup
			list[i].Muted = ap.Muted
			return list
		}
	}
	return append(list, domain.Participant{
		Display:  k,
		AudioID:  ap.ID,
		HasAudio: true,
		Setup:    ap.Setup,
		Muted:    ap.Muted,
	})
}

func upsertVideo(key JoinKey, list []domain.Participant, vp domain.VideoParticipant) []domain.Participant {
	k := key.VideoKey(vp)
	for i := range list {
		if list[i].Display == k {
			list[i].VideoID = vp.ID
			list[i].HasVideo = true
			list[i].Publisher = vp.Publisher
			return list
		}
	}
	return append(list, domain.Participant{
		Display:   k,
		VideoID:   vp.ID,
		HasVideo:  true,
		Publisher: vp.Publisher,
	})
}

// sortParticipants orders by display ascending, case-sensitive, stable.
func sortParticipants(list []domain.Participant) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Display < list[j].Display
	})
}

// locateUser finds the participant carrying the local display name.
// First match wins; duplicate displays across rooms are not prevented.
func locateUser(rooms []domain.Room, self string) *domain.Participant {
	if self == "" {
		return nil
	}
	for i := range rooms {
		for j := range rooms[i].Participants {
			if rooms[i].Participants[j].Display == self {
				u := rooms[i].Participants[j]
				u.Room = rooms[i].RoomID
				return &u
			}
		}
	}
	return nil
}

func cloneRooms(rooms []domain.Room) []domain.Room {
	out := make([]domain.Room, len(rooms))
	copy(out, rooms)
	for i := range out {
		ps := make([]domain.Participant, len(out[i].Participants))
		copy(ps, out[i].Participants)
		out[i].Participants = ps
	}
	return out
}

func deleteWhere(list []domain.Participant, match func(domain.Participant) bool) []domain.Participant {
	out := list[:0]
	for _, p := range list {
		if !match(p) {
			out = append(out, p)
		}
	}
	return out
}
