package orch

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/guilleprfc/video-chat-app/internal/core"
	"github.com/guilleprfc/video-chat-app/internal/domain"
)

// handleAudioEvent dispatches one inbound mixing-channel notification.
// Handlers run on the transport's dispatch goroutine.
func (o *Orchestrator) handleAudioEvent(ev core.AudioEvent) {
	switch ev := ev.(type) {
	case core.AudioJoined:
		log.Info().Str("module", "orch").Int64("room", int64(ev.Room)).Int64("id", ev.ID).Msg("joined audio room")
		// First join starts the offer round; rejoins reuse the media
		// session.
		if !o.mediaUp.Swap(true) {
			o.negotiateAudio()
		}
		if len(ev.Participants) > 0 {
			o.publishSnapshot(o.Engine.UpsertAudioParticipants(ev.Room, ev.Participants))
		}
	case core.AudioUpdated:
		if len(ev.Participants) > 0 {
			o.publishSnapshot(o.Engine.UpsertAudioParticipants(ev.Room, ev.Participants))
		}
	case core.AudioPeerLeft:
		o.publishSnapshot(o.Engine.RemoveAudioParticipant(ev.ID))
	case core.AudioRoomChanged:
		log.Info().Str("module", "orch").Int64("room", int64(ev.Room)).Msg("audio room changed")
		o.refreshAfterEvent()
	case core.AudioTalking:
		talk := domain.TalkEvent{AudioID: ev.ID, Room: ev.Room, Talking: ev.Talking}
		if ev.Talking {
			o.Streams.Talking.Publish(talk)
		} else {
			o.Streams.StopTalking.Publish(talk)
		}
	case core.AudioRoomDestroyed:
		log.Warn().Str("module", "orch").Int64("room", int64(ev.Room)).Msg("audio room destroyed")
	case core.AudioError:
		o.Streams.Errors.Publish(fmt.Errorf("audio channel (%d): %s", ev.Code, ev.Reason))
	}
}

// handleVideoEvent dispatches one inbound routing-channel notification
// on the publisher channel.
func (o *Orchestrator) handleVideoEvent(ev core.VideoEvent) {
	switch ev := ev.(type) {
	case core.VideoJoined:
		log.Info().Str("module", "orch").Int64("room", int64(ev.Room)).Int64("id", ev.ID).Msg("joined video room")
		// After joining, publish our own feed.
		o.negotiateVideo()
		if len(ev.Publishers) > 0 {
			o.upsertPublishers(ev.Publishers)
		}
	case core.VideoPublishers:
		o.upsertPublishers(ev.Publishers)
	case core.VideoSelfLeft:
		log.Info().Str("module", "orch").Int64("room", int64(ev.Room)).Msg("left video room")
		o.completeSwitch(ev.Room)
	case core.VideoPeerLeft:
		o.removePublisher(ev.ID)
		o.publishSnapshot(o.Engine.RemoveVideoParticipant(ev.Room, ev.ID))
	case core.VideoRoomDestroyed:
		log.Warn().Str("module", "orch").Int64("room", int64(ev.Room)).Msg("video room destroyed")
	case core.VideoAttached, core.VideoUpdated:
		// Publisher channel does not subscribe; nothing to do.
	case core.VideoError:
		o.Streams.Errors.Publish(fmt.Errorf("video channel (%d): %s", ev.Code, ev.Reason))
	}
}

// handleSubscriberEvent covers the secondary video channel used to watch
// another participant; media flows are driven by onSubscriberJsep.
func (o *Orchestrator) handleSubscriberEvent(ev core.VideoEvent) {
	switch ev := ev.(type) {
	case core.VideoAttached:
		log.Info().Str("module", "orch").Int64("feed", ev.Feed).Msg("subscriber feed attached")
	case core.VideoUpdated:
		log.Info().Str("module", "orch").Int64("room", int64(ev.Room)).Msg("subscription updated")
	case core.VideoError:
		o.Streams.Errors.Publish(fmt.Errorf("subscriber channel (%d): %s", ev.Code, ev.Reason))
	default:
		log.Debug().Str("module", "orch").Msg("subscriber event ignored")
	}
}

// refreshAfterEvent runs a refresh from an event handler context.
func (o *Orchestrator) refreshAfterEvent() {
	ctx, cancel := o.eventCtx()
	defer cancel()
	if _, err := o.RefreshChatInfo(ctx); err != nil {
		log.Warn().Err(err).Str("module", "orch").Msg("refresh after event")
	}
}

func (o *Orchestrator) upsertPublishers(list []domain.Publisher) {
	o.pubMu.Lock()
	for _, p := range list {
		o.pubs[p.ID] = p
	}
	out := make([]domain.Publisher, 0, len(o.pubs))
	for _, p := range o.pubs {
		out = append(out, p)
	}
	o.pubMu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	o.Streams.Publishers.Publish(out)
}

func (o *Orchestrator) removePublisher(id int64) {
	o.pubMu.Lock()
	delete(o.pubs, id)
	out := make([]domain.Publisher, 0, len(o.pubs))
	for _, p := range o.pubs {
		out = append(out, p)
	}
	o.pubMu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	o.Streams.Publishers.Publish(out)
}
