package orch

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/guilleprfc/video-chat-app/internal/app"
	"github.com/guilleprfc/video-chat-app/internal/core"
	"github.com/guilleprfc/video-chat-app/internal/domain"
)

// RequestSwitch is the Guide-side half of the move protocol: a private
// control message ordering the target client to switch rooms. The target
// re-executes its own join sequence on receipt.
func (o *Orchestrator) RequestSwitch(ctx context.Context, targetDisplay string, source, destination domain.RoomID) error {
	cmd := app.SwitchCommand{Source: source, Destination: destination}
	return o.SendWhisper(ctx, targetDisplay, cmd.Encode())
}

// SendWhisper sends a private text message over the control channel.
func (o *Orchestrator) SendWhisper(ctx context.Context, to, text string) error {
	o.mu.Lock()
	neg := o.controlNeg
	o.mu.Unlock()
	if neg == nil {
		return ErrNotConnected
	}
	payload, err := app.EncodeControlMessage(newTransaction(), o.opts.ControlRoom, to, text)
	if err != nil {
		return err
	}
	if err := neg.SendData(payload); err != nil {
		return fmt.Errorf("whisper to %s: %w", to, err)
	}
	log.Info().Str("module", "orch").Str("to", to).Msg("whisper sent")
	return nil
}

// SwitchOwnRoom runs the local switch routine on the moving client. The
// audio channel changes rooms in one round trip; the video channel has
// no atomic change, so a pending request is recorded and the rejoin is
// completed by the asynchronous self-leave event.
func (o *Orchestrator) SwitchOwnRoom(ctx context.Context, source, destination domain.RoomID) error {
	audio, err := o.audioChannel()
	if err != nil {
		return err
	}
	video, err := o.videoChannel()
	if err != nil {
		return err
	}
	o.mu.Lock()
	display := o.display
	o.mu.Unlock()

	o.pendingMu.Lock()
	if o.pending != nil {
		o.pendingMu.Unlock()
		return app.ErrSwitchPending
	}
	o.pending = &domain.SwitchRequest{
		Display:         display,
		SourceRoom:      source,
		DestinationRoom: destination,
	}
	o.pendingMu.Unlock()

	if _, err := audio.Request(ctx, map[string]any{
		"request": "changeroom",
		"room":    int64(destination),
		"display": display,
		"muted":   true,
	}, nil); err != nil {
		o.clearPending()
		return fmt.Errorf("audio changeroom: %w", err)
	}

	if _, err := video.Request(ctx, map[string]any{
		"request": "leave",
		"room":    int64(source),
	}, nil); err != nil {
		o.clearPending()
		return fmt.Errorf("video leave: %w", err)
	}
	log.Info().Str("module", "orch").
		Int64("source", int64(source)).
		Int64("destination", int64(destination)).
		Msg("switch started, waiting for self-leave")
	return nil
}

// completeSwitch finishes the video half once the self-leave event for
// the source room arrives. The transport requires a fresh channel handle
// to join a new room after a self-initiated leave, so the video channel
// is detached and re-attached before the rejoin.
func (o *Orchestrator) completeSwitch(room domain.RoomID) {
	o.pendingMu.Lock()
	req := o.pending
	o.pendingMu.Unlock()
	if req == nil {
		// Best-effort channel: a stray self-leave with nothing pending
		// is logged, not escalated.
		log.Warn().Str("module", "orch").Int64("room", int64(room)).Msg("self-leave with no pending switch")
		return
	}

	ctx, cancel := o.eventCtx()
	defer cancel()
	defer o.clearPending()

	o.mu.Lock()
	sess := o.session
	oldVideo, oldNeg := o.video, o.videoNeg
	o.mu.Unlock()
	if sess == nil {
		return
	}

	if oldVideo != nil {
		if err := oldVideo.Detach(ctx); err != nil {
			log.Warn().Err(err).Str("module", "orch").Msg("detach video for switch")
		}
	}
	if oldNeg != nil {
		oldNeg.Close()
	}
	if err := o.attachVideo(ctx, sess); err != nil {
		o.Streams.Errors.Publish(fmt.Errorf("re-attach video: %w", err))
		return
	}

	o.mu.Lock()
	video := o.video
	o.curRoom = req.DestinationRoom
	o.mu.Unlock()
	if _, err := video.Request(ctx, map[string]any{
		"request": "join",
		"room":    int64(req.DestinationRoom),
		"display": req.Display,
		"ptype":   "publisher",
	}, nil); err != nil {
		o.Streams.Errors.Publish(fmt.Errorf("rejoin video room %d: %w", req.DestinationRoom, err))
		return
	}
	log.Info().Str("module", "orch").Int64("room", int64(req.DestinationRoom)).Msg("switch rejoin complete")

	if _, err := o.RefreshChatInfo(ctx); err != nil {
		log.Warn().Err(err).Str("module", "orch").Msg("refresh after switch")
	}
}

// PendingSwitch exposes the in-flight request, mainly for tests and the
// facade.
func (o *Orchestrator) PendingSwitch() *domain.SwitchRequest {
	o.pendingMu.Lock()
	defer o.pendingMu.Unlock()
	return o.pending
}

func (o *Orchestrator) clearPending() {
	o.pendingMu.Lock()
	o.pending = nil
	o.pendingMu.Unlock()
}

// onControlOpen joins the control room once the data stream is usable,
// making this client addressable for whispers.
func (o *Orchestrator) onControlOpen() {
	o.mu.Lock()
	display := o.display
	neg := o.controlNeg
	o.mu.Unlock()
	if neg == nil {
		return
	}
	if display == "" {
		log.Warn().Str("module", "orch").Msg("control open before identity set, skipping join")
		return
	}
	payload, err := app.EncodeControlJoin(newTransaction(), o.opts.ControlRoom, display, display)
	if err != nil {
		o.Streams.Errors.Publish(err)
		return
	}
	if err := neg.SendData(payload); err != nil {
		o.Streams.Errors.Publish(fmt.Errorf("control join: %w", err))
		return
	}
	log.Info().Str("module", "orch").Str("display", display).Msg("joined control room")
}

// onControlData handles inbound control messages; whispers carrying a
// switch command trigger the local switch routine.
func (o *Orchestrator) onControlData(payload []byte) {
	ev, err := app.ParseControlEvent(payload)
	if err != nil {
		log.Warn().Err(err).Str("module", "orch").Msg("control payload")
		return
	}
	switch ev := ev.(type) {
	case core.ControlMessage:
		if !ev.Whisper {
			log.Info().Str("module", "orch").Str("from", ev.From).Msg("public control message")
			return
		}
		cmd, err := app.ParseSwitchCommand(ev.Text)
		if errors.Is(err, app.ErrNotSwitchCommand) {
			log.Info().Str("module", "orch").Str("from", ev.From).Msg("private control message")
			return
		}
		if err != nil {
			log.Warn().Err(err).Str("module", "orch").Msg("malformed switch command")
			return
		}
		ctx, cancel := o.eventCtx()
		defer cancel()
		if err := o.SwitchOwnRoom(ctx, cmd.Source, cmd.Destination); err != nil {
			log.Warn().Err(err).Str("module", "orch").Msg("relayed switch rejected")
		}
	case core.ControlAnnouncement:
		log.Info().Str("module", "orch").Str("text", ev.Text).Msg("control announcement")
	case core.ControlJoin:
		log.Info().Str("module", "orch").Str("username", ev.Username).Msg("control room join")
	case core.ControlLeave:
		log.Info().Str("module", "orch").Str("username", ev.Username).Msg("control room leave")
	case core.ControlKicked:
		log.Info().Str("module", "orch").Str("username", ev.Username).Msg("kicked from control room")
	case core.ControlDestroyed:
		log.Warn().Str("module", "orch").Int64("room", int64(ev.Room)).Msg("control room destroyed")
	case core.ControlError:
		o.Streams.Errors.Publish(fmt.Errorf("control channel: %s", ev.Reason))
	}
}

func newTransaction() string {
	return uuid.NewString()[:12]
}
