// Package gateway implements the signaling transport against a
// Janus-style media-routing server over a websocket connection: session
// lifecycle, channel attachment, transaction-correlated request/reply
// and routing of asynchronous plugin events.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/guilleprfc/video-chat-app/internal/core"
)

const (
	wireProtocol = "janus-protocol"
	sendBuffer   = 32
	eventBuffer  = 128
	writeWait    = 5 * time.Second
)

var (
	ErrSessionClosed = errors.New("session closed")
	ErrBackpressure  = errors.New("backpressure")
)

type envelopeData struct {
	ID int64 `json:"id"`
}

type pluginData struct {
	Plugin string          `json:"plugin"`
	Data   json.RawMessage `json:"data"`
}

type gatewayError struct {
	Code   int    `json:"code"`
	Reason string `json:"reason"`
}

// envelope is the outer signaling frame; the janus field carries the verb.
type envelope struct {
	Janus       string                     `json:"janus"`
	Transaction string                     `json:"transaction,omitempty"`
	SessionID   int64                      `json:"session_id,omitempty"`
	HandleID    int64                      `json:"handle_id,omitempty"`
	Sender      int64                      `json:"sender,omitempty"`
	Plugin      string                     `json:"plugin,omitempty"`
	OpaqueID    string                     `json:"opaque_id,omitempty"`
	Body        map[string]any             `json:"body,omitempty"`
	Jsep        *webrtc.SessionDescription `json:"jsep,omitempty"`
	Data        *envelopeData              `json:"data,omitempty"`
	Plugindata  *pluginData                `json:"plugindata,omitempty"`
	Error       *gatewayError              `json:"error,omitempty"`
}

// Transport dials signaling sessions. One Transport can serve several
// sessions; each session owns its own websocket connection.
type Transport struct {
	KeepAlive time.Duration
	Dialer    *websocket.Dialer
}

func NewTransport(keepAlive time.Duration) *Transport {
	return &Transport{
		KeepAlive: keepAlive,
		Dialer:    websocket.DefaultDialer,
	}
}

func (t *Transport) Dial(ctx context.Context, serverURL string) (core.Session, error) {
	dialer := *t.Dialer
	dialer.Subprotocols = []string{wireProtocol}
	conn, _, err := dialer.DialContext(ctx, serverURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial gateway: %w", err)
	}

	sctx, cancel := context.WithCancel(context.Background())
	s := &session{
		conn:     conn,
		opaque:   uuid.NewString(),
		send:     make(chan []byte, sendBuffer),
		events:   make(chan func(), eventBuffer),
		pending:  make(map[string]chan *envelope),
		handles:  make(map[int64]*attachment),
		ctx:      sctx,
		cancel:   cancel,
		lifetime: t.KeepAlive,
	}
	go s.writePump()
	go s.readPump()
	go s.dispatchPump()

	resp, err := s.request(ctx, envelope{Janus: "create"})
	if err != nil {
		s.teardown()
		return nil, fmt.Errorf("create session: %w", err)
	}
	if resp.Data == nil {
		s.teardown()
		return nil, errors.New("create session: no id in reply")
	}
	s.id = resp.Data.ID
	if t.KeepAlive > 0 {
		go s.keepaliveLoop()
	}
	log.Info().Str("module", "gateway").Int64("session", s.id).Msg("session created")
	return s, nil
}

// session is one signaling connection. The read loop resolves pending
// transactions inline and hands plugin events to a separate dispatch
// goroutine, so event handlers may issue further requests without
// starving the loop that delivers their replies.
type session struct {
	conn     *websocket.Conn
	id       int64
	opaque   string
	lifetime time.Duration

	send   chan []byte
	events chan func()

	mu      sync.Mutex
	pending map[string]chan *envelope
	handles map[int64]*attachment
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
}

func (s *session) Attach(ctx context.Context, kind core.ChannelKind, cb core.AttachCallbacks) (core.Attachment, error) {
	resp, err := s.request(ctx, envelope{
		Janus:     "attach",
		SessionID: s.id,
		Plugin:    kind.PluginName(),
		OpaqueID:  s.opaque,
	})
	if err != nil {
		return nil, fmt.Errorf("attach %s: %w", kind, err)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("attach %s: no handle id in reply", kind)
	}
	a := &attachment{s: s, kind: kind, id: resp.Data.ID, cb: cb}
	s.mu.Lock()
	s.handles[a.id] = a
	s.mu.Unlock()
	log.Info().Str("module", "gateway").Str("channel", kind.String()).Int64("handle", a.id).Msg("channel attached")
	return a, nil
}

func (s *session) Close(ctx context.Context) error {
	_, err := s.request(ctx, envelope{Janus: "destroy", SessionID: s.id})
	s.teardown()
	if err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}

func (s *session) teardown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for tx, ch := range s.pending {
		close(ch)
		delete(s.pending, tx)
	}
	s.mu.Unlock()
	s.cancel()
	_ = s.conn.Close()
}

// request sends one envelope and blocks until the matching ack, success
// or error arrives. Asynchronous outcomes of the same operation arrive
// later as events and are routed separately.
func (s *session) request(ctx context.Context, env envelope) (*envelope, error) {
	tx := uuid.NewString()[:12]
	env.Transaction = tx

	ch := make(chan *envelope, 1)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	s.pending[tx] = ch
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.pending, tx)
		s.mu.Unlock()
	}()

	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	select {
	case s.send <- data:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.ctx.Done():
		return nil, ErrSessionClosed
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, ErrSessionClosed
		}
		if resp.Janus == "error" && resp.Error != nil {
			return nil, fmt.Errorf("gateway error %d: %s", resp.Error.Code, resp.Error.Reason)
		}
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.ctx.Done():
		return nil, ErrSessionClosed
	}
}

func (s *session) writePump() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case data, ok := <-s.send:
			if !ok {
				return
			}
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "gateway").Msg("writePump set deadline")
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "gateway").Msg("writePump write error")
				return
			}
		}
	}
}

func (s *session) readPump() {
	defer s.teardown()
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if s.ctx.Err() == nil {
				log.Error().Err(err).Str("module", "gateway").Msg("readPump read error")
			}
			return
		}
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Error().Err(err).Str("module", "gateway").Msg("bad envelope")
			continue
		}
		s.route(&env)
	}
}

func (s *session) route(env *envelope) {
	switch env.Janus {
	case "success", "error", "ack":
		s.mu.Lock()
		ch, ok := s.pending[env.Transaction]
		if ok {
			delete(s.pending, env.Transaction)
		}
		s.mu.Unlock()
		if ok {
			ch <- env
		}
	case "event":
		s.routeEvent(env)
	case "detached":
		s.mu.Lock()
		a, ok := s.handles[env.Sender]
		if ok {
			delete(s.handles, env.Sender)
		}
		s.mu.Unlock()
		if ok && a.cb.OnDetached != nil {
			s.dispatch(a.cb.OnDetached)
		}
	case "keepalive", "webrtcup", "media", "slowlink", "hangup", "timeout":
		log.Debug().Str("module", "gateway").Str("janus", env.Janus).Msg("gateway notice")
	default:
		log.Warn().Str("module", "gateway").Str("janus", env.Janus).Msg("unknown envelope verb")
	}
}

func (s *session) routeEvent(env *envelope) {
	s.mu.Lock()
	a, ok := s.handles[env.Sender]
	s.mu.Unlock()
	if !ok {
		log.Warn().Str("module", "gateway").Int64("sender", env.Sender).Msg("event for unknown handle")
		return
	}
	if env.Plugindata != nil {
		a.deliver(env.Plugindata.Data)
	}
	if env.Jsep != nil && a.cb.OnJsep != nil {
		jsep := *env.Jsep
		s.dispatch(func() { a.cb.OnJsep(jsep) })
	}
}

// dispatch queues fn for the event goroutine; a full queue drops the
// event rather than stalling the read loop.
func (s *session) dispatch(fn func()) {
	select {
	case s.events <- fn:
	default:
		log.Warn().Str("module", "gateway").Msg("event queue full, dropping")
	}
}

func (s *session) dispatchPump() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case fn := <-s.events:
			fn()
		}
	}
}

func (s *session) keepaliveLoop() {
	ticker := time.NewTicker(s.lifetime)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(s.ctx, writeWait)
			_, err := s.request(ctx, envelope{Janus: "keepalive", SessionID: s.id})
			cancel()
			if err != nil && !errors.Is(err, ErrSessionClosed) {
				log.Warn().Err(err).Str("module", "gateway").Msg("keepalive failed")
			}
		}
	}
}
