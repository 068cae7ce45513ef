package orch

import (
	"context"
	"fmt"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/guilleprfc/video-chat-app/internal/core"
)

// Mute toggles the local audio. Before the audio channel's first
// offer/answer round the gateway has no media session to configure, so
// the request is dropped rather than queued.
func (o *Orchestrator) Mute(ctx context.Context, muted bool) error {
	o.mu.Lock()
	o.muted = muted
	o.mu.Unlock()
	if !o.mediaUp.Load() {
		log.Debug().Str("module", "orch").Bool("muted", muted).Msg("mute before media up, dropped")
		return nil
	}
	audio, err := o.audioChannel()
	if err != nil {
		return err
	}
	if _, err := audio.Request(ctx, map[string]any{
		"request": "configure",
		"muted":   muted,
	}, nil); err != nil {
		return fmt.Errorf("configure muted: %w", err)
	}
	return nil
}

// SubscribeToPublisher watches another participant's video feed. The
// subscriber channel is attached lazily on first use; later calls reuse
// it with a lighter switch request.
func (o *Orchestrator) SubscribeToPublisher(ctx context.Context, feed int64) error {
	o.mu.Lock()
	sess := o.session
	sub := o.subscriber
	room := o.curRoom
	o.mu.Unlock()
	if sess == nil {
		return ErrNotConnected
	}

	if sub != nil {
		_, err := sub.Request(ctx, map[string]any{
			"request": "switch",
			"feed":    feed,
		}, nil)
		if err != nil {
			return fmt.Errorf("switch feed %d: %w", feed, err)
		}
		return nil
	}

	neg, err := o.Media.New(core.ChannelVideoSubscriber)
	if err != nil {
		return err
	}
	o.mu.Lock()
	o.subNeg = neg
	o.mu.Unlock()

	att, err := sess.Attach(ctx, core.ChannelVideoSubscriber, core.AttachCallbacks{
		OnVideoEvent: o.handleSubscriberEvent,
		OnJsep:       o.onSubscriberJsep,
	})
	if err != nil {
		return fmt.Errorf("attach subscriber: %w", err)
	}
	o.mu.Lock()
	o.subscriber = att
	o.mu.Unlock()

	if _, err := att.Request(ctx, map[string]any{
		"request": "join",
		"ptype":   "subscriber",
		"room":    int64(room),
		"feed":    feed,
	}, nil); err != nil {
		return fmt.Errorf("join as subscriber: %w", err)
	}
	log.Info().Str("module", "orch").Int64("feed", feed).Msg("subscribed to publisher")
	return nil
}

// negotiateAudio runs the client-initiated offer round on the audio
// channel; the answer comes back asynchronously through onAudioJsep.
func (o *Orchestrator) negotiateAudio() {
	o.mu.Lock()
	audio, neg, muted := o.audio, o.audioNeg, o.muted
	o.mu.Unlock()
	if audio == nil || neg == nil {
		return
	}
	ctx, cancel := o.eventCtx()
	defer cancel()
	offer, err := neg.Offer(ctx)
	if err != nil {
		o.Streams.Errors.Publish(fmt.Errorf("audio offer: %w", err))
		return
	}
	if _, err := audio.Request(ctx, map[string]any{
		"request": "configure",
		"muted":   muted,
	}, offer); err != nil {
		o.Streams.Errors.Publish(fmt.Errorf("audio configure: %w", err))
	}
}

// negotiateVideo publishes the local feed after a video room join.
func (o *Orchestrator) negotiateVideo() {
	o.mu.Lock()
	video, neg := o.video, o.videoNeg
	o.mu.Unlock()
	if video == nil || neg == nil {
		return
	}
	ctx, cancel := o.eventCtx()
	defer cancel()
	offer, err := neg.Offer(ctx)
	if err != nil {
		o.Streams.Errors.Publish(fmt.Errorf("video offer: %w", err))
		return
	}
	if _, err := video.Request(ctx, map[string]any{
		"request": "configure",
		"audio":   false,
		"video":   true,
	}, offer); err != nil {
		o.Streams.Errors.Publish(fmt.Errorf("video configure: %w", err))
	}
}

func (o *Orchestrator) onAudioJsep(desc webrtc.SessionDescription) {
	o.mu.Lock()
	neg := o.audioNeg
	o.mu.Unlock()
	if neg == nil {
		return
	}
	if err := neg.ApplyAnswer(desc); err != nil {
		o.Streams.Errors.Publish(fmt.Errorf("audio answer: %w", err))
	}
}

func (o *Orchestrator) onVideoJsep(desc webrtc.SessionDescription) {
	o.mu.Lock()
	neg := o.videoNeg
	o.mu.Unlock()
	if neg == nil {
		return
	}
	if err := neg.ApplyAnswer(desc); err != nil {
		o.Streams.Errors.Publish(fmt.Errorf("video answer: %w", err))
	}
}

// onSubscriberJsep handles both directions on the subscriber channel:
// the gateway offers first when a feed attaches, and answers when this
// side re-negotiates.
func (o *Orchestrator) onSubscriberJsep(desc webrtc.SessionDescription) {
	o.mu.Lock()
	sub, neg, room := o.subscriber, o.subNeg, o.curRoom
	o.mu.Unlock()
	if sub == nil || neg == nil {
		return
	}
	if desc.Type != webrtc.SDPTypeOffer {
		if err := neg.ApplyAnswer(desc); err != nil {
			o.Streams.Errors.Publish(fmt.Errorf("subscriber answer: %w", err))
		}
		return
	}
	ctx, cancel := o.eventCtx()
	defer cancel()
	answer, err := neg.AcceptOffer(ctx, desc)
	if err != nil {
		o.Streams.Errors.Publish(fmt.Errorf("subscriber offer: %w", err))
		return
	}
	if _, err := sub.Request(ctx, map[string]any{
		"request": "start",
		"room":    int64(room),
	}, answer); err != nil {
		o.Streams.Errors.Publish(fmt.Errorf("subscriber start: %w", err))
	}
}

// onControlJsep answers the gateway's offer for the control channel's
// data stream, then acks.
func (o *Orchestrator) onControlJsep(desc webrtc.SessionDescription) {
	o.mu.Lock()
	control, neg := o.control, o.controlNeg
	o.mu.Unlock()
	if control == nil || neg == nil {
		return
	}
	if desc.Type != webrtc.SDPTypeOffer {
		if err := neg.ApplyAnswer(desc); err != nil {
			o.Streams.Errors.Publish(fmt.Errorf("control answer: %w", err))
		}
		return
	}
	ctx, cancel := o.eventCtx()
	defer cancel()
	answer, err := neg.AcceptOffer(ctx, desc)
	if err != nil {
		o.Streams.Errors.Publish(fmt.Errorf("control offer: %w", err))
		return
	}
	if _, err := control.Request(ctx, map[string]any{"request": "ack"}, answer); err != nil {
		o.Streams.Errors.Publish(fmt.Errorf("control ack: %w", err))
	}
}
