package orch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/guilleprfc/video-chat-app/internal/app"
	"github.com/guilleprfc/video-chat-app/internal/domain"
)

// JoinRoom joins the audio and video sub-rooms concurrently, the video
// side as publisher. It resolves once both sends are acked; the unified
// self identity completes asynchronously via the current-user stream.
func (o *Orchestrator) JoinRoom(ctx context.Context, display string, room domain.RoomID) error {
	audio, err := o.audioChannel()
	if err != nil {
		return err
	}
	video, err := o.videoChannel()
	if err != nil {
		return err
	}

	o.mu.Lock()
	o.display = display
	o.curRoom = room
	muted := o.muted
	o.mu.Unlock()
	o.Engine.SetSelf(display)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := audio.Request(gctx, map[string]any{
			"request": "join",
			"room":    int64(room),
			"display": display,
			"muted":   muted,
		}, nil)
		return err
	})
	g.Go(func() error {
		_, err := video.Request(gctx, map[string]any{
			"request": "join",
			"room":    int64(room),
			"display": display,
			"ptype":   "publisher",
		}, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("join room %d: %w", room, err)
	}
	log.Info().Str("module", "orch").Str("display", display).Int64("room", int64(room)).Msg("joined room")
	return nil
}

// LeaveVideoRoom sends a leave on the video channel. Success here only
// means the send was accepted; the authoritative completion is the
// asynchronous self-leave event.
func (o *Orchestrator) LeaveVideoRoom(ctx context.Context, room domain.RoomID) error {
	video, err := o.videoChannel()
	if err != nil {
		return err
	}
	if _, err := video.Request(ctx, map[string]any{
		"request": "leave",
		"room":    int64(room),
	}, nil); err != nil {
		return fmt.Errorf("leave video room %d: %w", room, err)
	}
	return nil
}

// CreateRoom creates the audio and video sub-rooms concurrently under
// the same id and description. Either both succeed or an error is
// returned; a partial creation is not rolled back and surfaces on the
// next refresh.
func (o *Orchestrator) CreateRoom(ctx context.Context, description string, room domain.RoomID) error {
	audio, err := o.audioChannel()
	if err != nil {
		return err
	}
	video, err := o.videoChannel()
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := audio.Request(gctx, map[string]any{
			"request":     "create",
			"room":        int64(room),
			"description": description,
		}, nil)
		return err
	})
	g.Go(func() error {
		_, err := video.Request(gctx, map[string]any{
			"request":     "create",
			"room":        int64(room),
			"description": description,
			"publishers":  10,
		}, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("create room %d: %w", room, err)
	}
	log.Info().Str("module", "orch").Int64("room", int64(room)).Str("description", description).Msg("room created")
	return nil
}

// DestroyRoom destroys both sub-rooms concurrently, same semantics as
// CreateRoom.
func (o *Orchestrator) DestroyRoom(ctx context.Context, room domain.RoomID) error {
	audio, err := o.audioChannel()
	if err != nil {
		return err
	}
	video, err := o.videoChannel()
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := audio.Request(gctx, map[string]any{"request": "destroy", "room": int64(room)}, nil)
		return err
	})
	g.Go(func() error {
		_, err := video.Request(gctx, map[string]any{"request": "destroy", "room": int64(room)}, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("destroy room %d: %w", room, err)
	}
	log.Info().Str("module", "orch").Int64("room", int64(room)).Msg("room destroyed")
	return nil
}

// EnsureHall creates the default landing room unless some room already
// carries its description.
func (o *Orchestrator) EnsureHall(ctx context.Context) error {
	rooms, err := o.listAudioRooms(ctx)
	if err != nil {
		return fmt.Errorf("ensure hall: %w", err)
	}
	for _, r := range rooms {
		if r.Description == o.opts.HallDescription {
			return nil
		}
	}
	return o.CreateRoom(ctx, o.opts.HallDescription, o.opts.HallRoom)
}

// RefreshChatInfo pulls the full room and participant state from both
// channels and feeds it to the reconciliation engine. Membership changes
// are not all pushed unsolicited, so this runs after every operation
// expected to change membership. A failure anywhere leaves the previous
// snapshot untouched.
func (o *Orchestrator) RefreshChatInfo(ctx context.Context) (app.Snapshot, error) {
	audioRooms, err := o.listAudioRooms(ctx)
	if err != nil {
		return app.Snapshot{}, fmt.Errorf("refresh: %w", err)
	}
	videoRooms, err := o.listVideoRooms(ctx)
	if err != nil {
		return app.Snapshot{}, fmt.Errorf("refresh: %w", err)
	}
	for i := range audioRooms {
		ps, err := o.listAudioParticipants(ctx, audioRooms[i].Room)
		if err != nil {
			return app.Snapshot{}, fmt.Errorf("refresh audio room %d: %w", audioRooms[i].Room, err)
		}
		audioRooms[i].Participants = ps
	}
	for i := range videoRooms {
		ps, err := o.listVideoParticipants(ctx, videoRooms[i].Room)
		if err != nil {
			return app.Snapshot{}, fmt.Errorf("refresh video room %d: %w", videoRooms[i].Room, err)
		}
		videoRooms[i].Participants = ps
	}

	snap := o.Engine.Apply(audioRooms, videoRooms)
	o.publishSnapshot(snap)
	return snap, nil
}

// Snapshot returns the current reconciled view without refreshing.
func (o *Orchestrator) Snapshot() app.Snapshot {
	return o.Engine.Snapshot()
}

func (o *Orchestrator) publishSnapshot(snap app.Snapshot) {
	o.Streams.Rooms.Publish(snap.Rooms)
	o.Streams.Participants.Publish(snap.Participants())
	if snap.User != nil {
		o.Streams.CurrentUser.Publish(*snap.User)
	}
}

func (o *Orchestrator) listAudioRooms(ctx context.Context) ([]domain.AudioRoom, error) {
	audio, err := o.audioChannel()
	if err != nil {
		return nil, err
	}
	reply, err := audio.Request(ctx, map[string]any{"request": "list"}, nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		List []domain.AudioRoom `json:"list"`
	}
	if err := json.Unmarshal(reply.Data, &resp); err != nil {
		return nil, fmt.Errorf("audio room list: %w", err)
	}
	out := resp.List[:0]
	for _, r := range resp.List {
		if r.Room == domain.ControlRoomID || r.Room == domain.DemoRoomID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (o *Orchestrator) listVideoRooms(ctx context.Context) ([]domain.VideoRoom, error) {
	video, err := o.videoChannel()
	if err != nil {
		return nil, err
	}
	reply, err := video.Request(ctx, map[string]any{"request": "list"}, nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		List []domain.VideoRoom `json:"list"`
	}
	if err := json.Unmarshal(reply.Data, &resp); err != nil {
		return nil, fmt.Errorf("video room list: %w", err)
	}
	out := resp.List[:0]
	for _, r := range resp.List {
		if r.Room == domain.ControlRoomID || r.Room == domain.DemoRoomID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (o *Orchestrator) listAudioParticipants(ctx context.Context, room domain.RoomID) ([]domain.AudioParticipant, error) {
	audio, err := o.audioChannel()
	if err != nil {
		return nil, err
	}
	reply, err := audio.Request(ctx, map[string]any{
		"request": "listparticipants",
		"room":    int64(room),
	}, nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Participants []domain.AudioParticipant `json:"participants"`
	}
	if err := json.Unmarshal(reply.Data, &resp); err != nil {
		return nil, fmt.Errorf("audio participants: %w", err)
	}
	return resp.Participants, nil
}

func (o *Orchestrator) listVideoParticipants(ctx context.Context, room domain.RoomID) ([]domain.VideoParticipant, error) {
	video, err := o.videoChannel()
	if err != nil {
		return nil, err
	}
	reply, err := video.Request(ctx, map[string]any{
		"request": "listparticipants",
		"room":    int64(room),
	}, nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Participants []domain.VideoParticipant `json:"participants"`
	}
	if err := json.Unmarshal(reply.Data, &resp); err != nil {
		return nil, fmt.Errorf("video participants: %w", err)
	}
	return resp.Participants, nil
}
