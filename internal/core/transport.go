// Package core defines the boundary interfaces between the orchestrator
// and its transport/media adapters, plus the closed unions of inbound
// channel events.
package core

import (
	"context"
	"encoding/json"

	"github.com/pion/webrtc/v4"
)

// ChannelKind identifies one of the four logical channels multiplexed
// over a single signaling session.
type ChannelKind int

const (
	ChannelAudio ChannelKind = iota
	ChannelVideoPublisher
	ChannelVideoSubscriber
	ChannelControl
)

func (k ChannelKind) String() string {
	switch k {
	case ChannelAudio:
		return "audio"
	case ChannelVideoPublisher:
		return "video-publisher"
	case ChannelVideoSubscriber:
		return "video-subscriber"
	case ChannelControl:
		return "control"
	}
	return "unknown"
}

// PluginName returns the gateway-side plugin each channel kind attaches to.
// Both video channels land on the same plugin; they differ only in how
// media is negotiated.
func (k ChannelKind) PluginName() string {
	switch k {
	case ChannelAudio:
		return "janus.plugin.audiobridge"
	case ChannelVideoPublisher, ChannelVideoSubscriber:
		return "janus.plugin.videoroom"
	case ChannelControl:
		return "janus.plugin.textroom"
	}
	return ""
}

// Reply is the synchronous half of a channel request. Data is the raw
// plugin payload; Jsep carries a remote description when the gateway
// answers inline.
type Reply struct {
	Data json.RawMessage
	Jsep *webrtc.SessionDescription
}

// AttachCallbacks routes asynchronous pushes from one attached channel.
// Only the callbacks matching the channel kind are invoked; all run on a
// dispatch goroutine separate from the transport read loop, so they may
// issue further requests.
type AttachCallbacks struct {
	OnAudioEvent func(AudioEvent)
	OnVideoEvent func(VideoEvent)
	OnJsep       func(webrtc.SessionDescription)
	OnDetached   func()
}

// Attachment is one attached logical channel.
type Attachment interface {
	Kind() ChannelKind
	ID() int64
	// Request sends a plugin request, optionally carrying a local
	// description, and resolves on the gateway's ack or synchronous
	// answer. Asynchronous outcomes arrive via AttachCallbacks.
	Request(ctx context.Context, body map[string]any, jsep *webrtc.SessionDescription) (*Reply, error)
	Detach(ctx context.Context) error
}

// Session is one signaling connection owning up to four attachments.
type Session interface {
	Attach(ctx context.Context, kind ChannelKind, cb AttachCallbacks) (Attachment, error)
	Close(ctx context.Context) error
}

// Transport dials signaling sessions against a gateway.
type Transport interface {
	Dial(ctx context.Context, serverURL string) (Session, error)
}
