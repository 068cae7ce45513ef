// Package rtc implements the media negotiator on top of pion/webrtc.
// Each attached channel gets its own peer connection with directions
// fixed by the channel kind.
package rtc

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/guilleprfc/video-chat-app/internal/core"
)

const dataChannelLabel = "JanusDataChannel"

var ErrNoDataChannel = errors.New("channel kind carries no data stream")

// Factory builds negotiators from a shared ICE configuration.
type Factory struct {
	ICEServers []string
}

func NewFactory(iceServers []string) *Factory {
	return &Factory{ICEServers: iceServers}
}

func (f *Factory) config() webrtc.Configuration {
	cfg := webrtc.Configuration{}
	if len(f.ICEServers) > 0 {
		cfg.ICEServers = []webrtc.ICEServer{{URLs: f.ICEServers}}
	}
	return cfg
}

func (f *Factory) New(kind core.ChannelKind) (core.Negotiator, error) {
	pc, err := webrtc.NewPeerConnection(f.config())
	if err != nil {
		return nil, fmt.Errorf("new peer connection: %w", err)
	}
	n := &Negotiator{kind: kind, pc: pc}

	switch kind {
	case core.ChannelAudio:
		_, err = pc.AddTransceiverFromKind(webrtc.RTPCodecTypeAudio, webrtc.RTPTransceiverInit{
			Direction: webrtc.RTPTransceiverDirectionSendrecv,
		})
	case core.ChannelVideoPublisher:
		// Publishers are send-only.
		_, err = pc.AddTransceiverFromKind(webrtc.RTPCodecTypeVideo, webrtc.RTPTransceiverInit{
			Direction: webrtc.RTPTransceiverDirectionSendonly,
		})
	case core.ChannelVideoSubscriber:
		_, err = pc.AddTransceiverFromKind(webrtc.RTPCodecTypeVideo, webrtc.RTPTransceiverInit{
			Direction: webrtc.RTPTransceiverDirectionRecvonly,
		})
	case core.ChannelControl:
		var dc *webrtc.DataChannel
		dc, err = pc.CreateDataChannel(dataChannelLabel, nil)
		if err == nil {
			n.bindDataChannel(dc)
		}
	}
	if err != nil {
		_ = pc.Close()
		return nil, fmt.Errorf("configure %s negotiator: %w", kind, err)
	}

	pc.OnICEConnectionStateChange(func(s webrtc.ICEConnectionState) {
		log.Info().Str("module", "rtc").Str("channel", kind.String()).Str("ice_state", s.String()).Msg("ICE state")
	})
	return n, nil
}

// Negotiator drives offer/answer for one channel.
type Negotiator struct {
	kind core.ChannelKind
	pc   *webrtc.PeerConnection

	mu         sync.Mutex
	dc         *webrtc.DataChannel
	dcOpen     bool
	onData     func([]byte)
	onDataOpen func()
}

// Offer creates a local offer, applies it and waits for ICE gathering so
// the description can travel in a single request.
func (n *Negotiator) Offer(ctx context.Context) (*webrtc.SessionDescription, error) {
	offer, err := n.pc.CreateOffer(nil)
	if err != nil {
		return nil, fmt.Errorf("create offer: %w", err)
	}
	gatherComplete := webrtc.GatheringCompletePromise(n.pc)
	if err := n.pc.SetLocalDescription(offer); err != nil {
		return nil, fmt.Errorf("set local offer: %w", err)
	}
	select {
	case <-gatherComplete:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return n.pc.LocalDescription(), nil
}

func (n *Negotiator) ApplyAnswer(answer webrtc.SessionDescription) error {
	if err := n.pc.SetRemoteDescription(answer); err != nil {
		return fmt.Errorf("apply answer: %w", err)
	}
	return nil
}

// AcceptOffer handles the gateway-initiated direction: remote offer in,
// local answer out.
func (n *Negotiator) AcceptOffer(ctx context.Context, offer webrtc.SessionDescription) (*webrtc.SessionDescription, error) {
	if err := n.pc.SetRemoteDescription(offer); err != nil {
		return nil, fmt.Errorf("set remote offer: %w", err)
	}
	answer, err := n.pc.CreateAnswer(nil)
	if err != nil {
		return nil, fmt.Errorf("create answer: %w", err)
	}
	gatherComplete := webrtc.GatheringCompletePromise(n.pc)
	if err := n.pc.SetLocalDescription(answer); err != nil {
		return nil, fmt.Errorf("set local answer: %w", err)
	}
	select {
	case <-gatherComplete:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return n.pc.LocalDescription(), nil
}

func (n *Negotiator) SendData(payload []byte) error {
	n.mu.Lock()
	dc, open := n.dc, n.dcOpen
	n.mu.Unlock()
	if dc == nil {
		return ErrNoDataChannel
	}
	if !open {
		return errors.New("data stream not open yet")
	}
	return dc.Send(payload)
}

func (n *Negotiator) OnData(fn func(payload []byte)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onData = fn
}

func (n *Negotiator) OnDataOpen(fn func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onDataOpen = fn
}

func (n *Negotiator) bindDataChannel(dc *webrtc.DataChannel) {
	n.dc = dc
	dc.OnOpen(func() {
		log.Info().Str("module", "rtc").Str("channel", n.kind.String()).Msg("data stream open")
		n.mu.Lock()
		n.dcOpen = true
		fn := n.onDataOpen
		n.mu.Unlock()
		if fn != nil {
			fn()
		}
	})
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		n.mu.Lock()
		fn := n.onData
		n.mu.Unlock()
		if fn != nil {
			fn(msg.Data)
		}
	})
}

func (n *Negotiator) Close() {
	if err := n.pc.Close(); err != nil {
		log.Error().Err(err).Str("module", "rtc").Str("channel", n.kind.String()).Msg("close error")
	}
}
