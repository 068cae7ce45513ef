package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/guilleprfc/video-chat-app/internal/core"
)

// attachment is one attached channel handle bound to a gateway-side
// plugin handle id.
type attachment struct {
	s    *session
	kind core.ChannelKind
	id   int64
	cb   core.AttachCallbacks
}

func (a *attachment) Kind() core.ChannelKind { return a.kind }
func (a *attachment) ID() int64              { return a.id }

func (a *attachment) Request(ctx context.Context, body map[string]any, jsep *webrtc.SessionDescription) (*core.Reply, error) {
	resp, err := a.s.request(ctx, envelope{
		Janus:     "message",
		SessionID: a.s.id,
		HandleID:  a.id,
		Body:      body,
		Jsep:      jsep,
	})
	if err != nil {
		return nil, err
	}
	reply := &core.Reply{Jsep: resp.Jsep}
	if resp.Plugindata != nil {
		reply.Data = resp.Plugindata.Data
		if err := pluginError(resp.Plugindata.Data); err != nil {
			return nil, err
		}
	}
	return reply, nil
}

func (a *attachment) Detach(ctx context.Context) error {
	a.s.mu.Lock()
	delete(a.s.handles, a.id)
	a.s.mu.Unlock()
	_, err := a.s.request(ctx, envelope{
		Janus:     "detach",
		SessionID: a.s.id,
		HandleID:  a.id,
	})
	if err != nil {
		return fmt.Errorf("detach %s: %w", a.kind, err)
	}
	log.Info().Str("module", "gateway").Str("channel", a.kind.String()).Int64("handle", a.id).Msg("channel detached")
	return nil
}

// deliver parses a raw plugin payload into the channel's event union and
// queues the matching callback.
func (a *attachment) deliver(data json.RawMessage) {
	switch a.kind {
	case core.ChannelAudio:
		ev, err := ParseAudioEvent(data)
		if err != nil {
			log.Warn().Err(err).Str("module", "gateway").Msg("audio event parse")
			return
		}
		if a.cb.OnAudioEvent != nil {
			a.s.dispatch(func() { a.cb.OnAudioEvent(ev) })
		}
	case core.ChannelVideoPublisher, core.ChannelVideoSubscriber:
		ev, err := ParseVideoEvent(data)
		if err != nil {
			log.Warn().Err(err).Str("module", "gateway").Msg("video event parse")
			return
		}
		if a.cb.OnVideoEvent != nil {
			a.s.dispatch(func() { a.cb.OnVideoEvent(ev) })
		}
	case core.ChannelControl:
		// Control traffic flows over the data stream; plugin events on
		// this handle only matter for their jsep, handled by the caller.
		log.Debug().Str("module", "gateway").RawJSON("data", data).Msg("control plugin event")
	}
}

// pluginError surfaces a request-level rejection (room not found,
// display taken) embedded in an otherwise successful reply.
func pluginError(data json.RawMessage) error {
	var e struct {
		Error     string `json:"error"`
		ErrorCode int    `json:"error_code"`
	}
	if err := json.Unmarshal(data, &e); err != nil {
		return nil
	}
	if e.Error != "" {
		return fmt.Errorf("request rejected (%d): %s", e.ErrorCode, e.Error)
	}
	return nil
}
