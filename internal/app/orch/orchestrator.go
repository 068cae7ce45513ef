// Package orch owns the signaling session: it attaches the logical
// channels, runs joins, leaves and room CRUD against the gateway, feeds
// inbound events to the reconciliation engine and drives the room switch
// protocol.
package orch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/guilleprfc/video-chat-app/internal/app"
	"github.com/guilleprfc/video-chat-app/internal/core"
	"github.com/guilleprfc/video-chat-app/internal/domain"
)

var (
	ErrNotConnected     = errors.New("not connected")
	ErrAlreadyConnected = errors.New("already connected")
)

const defaultRequestTimeout = 10 * time.Second

// Options carries the static knobs of one orchestrator instance.
type Options struct {
	ServerURL       string
	HallRoom        domain.RoomID
	HallDescription string
	ControlRoom     domain.RoomID
	// RequestTimeout bounds requests issued from event handlers, which
	// have no caller-supplied context.
	RequestTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.HallRoom == 0 {
		o.HallRoom = domain.HallRoomID
	}
	if o.HallDescription == "" {
		o.HallDescription = domain.HallDescription
	}
	if o.ControlRoom == 0 {
		o.ControlRoom = domain.ControlRoomID
	}
	if o.RequestTimeout == 0 {
		o.RequestTimeout = defaultRequestTimeout
	}
	return o
}

// Orchestrator is the session owner. All exported methods are safe for
// concurrent use; event handlers run on the transport's dispatch
// goroutine and never hold locks across channel requests.
type Orchestrator struct {
	Transport core.Transport
	Media     core.NegotiatorFactory
	Engine    *app.Engine
	Streams   *app.Streams

	opts Options

	mu         sync.Mutex
	session    core.Session
	audio      core.Attachment
	video      core.Attachment
	subscriber core.Attachment
	control    core.Attachment
	audioNeg   core.Negotiator
	videoNeg   core.Negotiator
	subNeg     core.Negotiator
	controlNeg core.Negotiator
	display    string
	guide      bool
	muted      bool
	curRoom    domain.RoomID

	// mediaUp flips once the audio channel's first offer round starts;
	// configure requests sent earlier are dropped by design.
	mediaUp atomic.Bool

	pendingMu sync.Mutex
	pending   *domain.SwitchRequest

	pubMu sync.Mutex
	pubs  map[int64]domain.Publisher
}

func New(transport core.Transport, media core.NegotiatorFactory, engine *app.Engine, streams *app.Streams, opts Options) *Orchestrator {
	return &Orchestrator{
		Transport: transport,
		Media:     media,
		Engine:    engine,
		Streams:   streams,
		opts:      opts.withDefaults(),
		pubs:      make(map[int64]domain.Publisher),
	}
}

// SetIdentity records the local display name and role before connecting.
func (o *Orchestrator) SetIdentity(display string, guide bool) {
	o.mu.Lock()
	o.display = display
	o.guide = guide
	o.mu.Unlock()
	o.Engine.SetSelf(display)
}

func (o *Orchestrator) IsGuide() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.guide
}

func (o *Orchestrator) Display() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.display
}

// Connect creates the session and attaches the audio and control
// channels in parallel, then the video channel. Any attachment failure
// tears the whole session down; callers retry from scratch.
func (o *Orchestrator) Connect(ctx context.Context) error {
	o.mu.Lock()
	if o.session != nil {
		o.mu.Unlock()
		return ErrAlreadyConnected
	}
	o.mu.Unlock()

	sess, err := o.Transport.Dial(ctx, o.opts.ServerURL)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return o.attachAudio(gctx, sess) })
	g.Go(func() error { return o.attachControl(gctx, sess) })
	if err := g.Wait(); err == nil {
		err = o.attachVideo(ctx, sess)
	} else {
		o.abortConnect(sess)
		return err
	}
	if err != nil {
		o.abortConnect(sess)
		return err
	}

	o.mu.Lock()
	o.session = sess
	o.mu.Unlock()
	log.Info().Str("module", "orch").Msg("all channels attached, connected")
	return nil
}

func (o *Orchestrator) attachAudio(ctx context.Context, sess core.Session) error {
	neg, err := o.Media.New(core.ChannelAudio)
	if err != nil {
		return err
	}
	o.mu.Lock()
	o.audioNeg = neg
	o.mu.Unlock()

	att, err := sess.Attach(ctx, core.ChannelAudio, core.AttachCallbacks{
		OnAudioEvent: o.handleAudioEvent,
		OnJsep:       o.onAudioJsep,
	})
	if err != nil {
		return err
	}
	o.mu.Lock()
	o.audio = att
	o.mu.Unlock()
	return nil
}

func (o *Orchestrator) attachVideo(ctx context.Context, sess core.Session) error {
	neg, err := o.Media.New(core.ChannelVideoPublisher)
	if err != nil {
		return err
	}
	o.mu.Lock()
	o.videoNeg = neg
	o.mu.Unlock()

	att, err := sess.Attach(ctx, core.ChannelVideoPublisher, core.AttachCallbacks{
		OnVideoEvent: o.handleVideoEvent,
		OnJsep:       o.onVideoJsep,
	})
	if err != nil {
		return err
	}
	o.mu.Lock()
	o.video = att
	o.mu.Unlock()
	return nil
}

func (o *Orchestrator) attachControl(ctx context.Context, sess core.Session) error {
	neg, err := o.Media.New(core.ChannelControl)
	if err != nil {
		return err
	}
	neg.OnDataOpen(o.onControlOpen)
	neg.OnData(o.onControlData)
	o.mu.Lock()
	o.controlNeg = neg
	o.mu.Unlock()

	att, err := sess.Attach(ctx, core.ChannelControl, core.AttachCallbacks{
		OnJsep: o.onControlJsep,
	})
	if err != nil {
		return err
	}
	o.mu.Lock()
	o.control = att
	o.mu.Unlock()

	// The control channel negotiates gateway-first: setup provokes the
	// remote offer, answered in onControlJsep.
	_, err = att.Request(ctx, map[string]any{"request": "setup"}, nil)
	return err
}

// abortConnect releases whatever a failed Connect managed to attach.
func (o *Orchestrator) abortConnect(sess core.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), o.opts.RequestTimeout)
	defer cancel()
	o.mu.Lock()
	atts := []core.Attachment{o.audio, o.video, o.control}
	negs := []core.Negotiator{o.audioNeg, o.videoNeg, o.controlNeg}
	o.audio, o.video, o.control = nil, nil, nil
	o.audioNeg, o.videoNeg, o.controlNeg = nil, nil, nil
	o.mu.Unlock()
	for _, a := range atts {
		if a != nil {
			_ = a.Detach(ctx)
		}
	}
	for _, n := range negs {
		if n != nil {
			n.Close()
		}
	}
	_ = sess.Close(ctx)
	log.Warn().Str("module", "orch").Msg("connect aborted, session torn down")
}

// Close detaches every channel, destroys the session and discards any
// pending switch and negotiation state.
func (o *Orchestrator) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), o.opts.RequestTimeout)
	defer cancel()

	o.mu.Lock()
	sess := o.session
	atts := []core.Attachment{o.subscriber, o.video, o.audio, o.control}
	negs := []core.Negotiator{o.subNeg, o.videoNeg, o.audioNeg, o.controlNeg}
	o.session = nil
	o.audio, o.video, o.subscriber, o.control = nil, nil, nil, nil
	o.audioNeg, o.videoNeg, o.subNeg, o.controlNeg = nil, nil, nil, nil
	o.curRoom = 0
	o.mu.Unlock()

	for _, a := range atts {
		if a != nil {
			_ = a.Detach(ctx)
		}
	}
	for _, n := range negs {
		if n != nil {
			n.Close()
		}
	}
	if sess != nil {
		_ = sess.Close(ctx)
	}

	o.pendingMu.Lock()
	o.pending = nil
	o.pendingMu.Unlock()
	o.mediaUp.Store(false)
	log.Info().Str("module", "orch").Msg("session closed")
}

// eventCtx bounds requests issued from event handlers.
func (o *Orchestrator) eventCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), o.opts.RequestTimeout)
}

func (o *Orchestrator) audioChannel() (core.Attachment, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.audio == nil {
		return nil, ErrNotConnected
	}
	return o.audio, nil
}

func (o *Orchestrator) videoChannel() (core.Attachment, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.video == nil {
		return nil, ErrNotConnected
	}
	return o.video, nil
}
