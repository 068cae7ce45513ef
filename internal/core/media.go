package core

import (
	"context"

	"github.com/pion/webrtc/v4"
)

// Negotiator drives SDP negotiation for one attached channel. Media
// directions are fixed per channel kind at construction time; the
// negotiator never owns room state.
//
// Two distinct transitions exist and must not be conflated: the
// client-initiated one (Offer then ApplyAnswer, used by the audio and
// publisher channels) and the gateway-initiated one (AcceptOffer
// returning the local answer, used by the subscriber and control
// channels).
type Negotiator interface {
	// Offer creates and applies a local offer with the channel's fixed
	// constraints.
	Offer(ctx context.Context) (*webrtc.SessionDescription, error)
	// ApplyAnswer applies the remote answer to a previous Offer.
	ApplyAnswer(answer webrtc.SessionDescription) error
	// AcceptOffer applies a remote offer and returns the local answer.
	AcceptOffer(ctx context.Context, offer webrtc.SessionDescription) (*webrtc.SessionDescription, error)

	// SendData writes a payload to the channel's data stream. Only the
	// control channel carries one; other kinds return an error.
	SendData(payload []byte) error
	// OnData sets the callback for inbound data payloads.
	OnData(fn func(payload []byte))
	// OnDataOpen sets the callback invoked once the data stream is usable.
	OnDataOpen(fn func())

	Close()
}

// NegotiatorFactory builds a fresh negotiator per channel attachment.
// The video channel needs a new one after every detach/re-attach round.
type NegotiatorFactory interface {
	New(kind ChannelKind) (Negotiator, error)
}
