package orch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/require"

	"github.com/guilleprfc/video-chat-app/internal/app"
	"github.com/guilleprfc/video-chat-app/internal/core"
	"github.com/guilleprfc/video-chat-app/internal/domain"
)

// fakeNegotiator records negotiation rounds and data sends.
type fakeNegotiator struct {
	mu       sync.Mutex
	kind     core.ChannelKind
	offers   int
	answers  []webrtc.SessionDescription
	sent     [][]byte
	dataFn   func([]byte)
	openFn   func()
	closed   bool
	sendErr  error
	offerErr error
}

func (n *fakeNegotiator) Offer(ctx context.Context) (*webrtc.SessionDescription, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.offerErr != nil {
		return nil, n.offerErr
	}
	n.offers++
	return &webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0"}, nil
}

func (n *fakeNegotiator) ApplyAnswer(answer webrtc.SessionDescription) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.answers = append(n.answers, answer)
	return nil
}

func (n *fakeNegotiator) AcceptOffer(ctx context.Context, offer webrtc.SessionDescription) (*webrtc.SessionDescription, error) {
	return &webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "v=0"}, nil
}

func (n *fakeNegotiator) SendData(payload []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sendErr != nil {
		return n.sendErr
	}
	n.sent = append(n.sent, payload)
	return nil
}

func (n *fakeNegotiator) OnData(fn func([]byte)) { n.dataFn = fn }
func (n *fakeNegotiator) OnDataOpen(fn func())   { n.openFn = fn }

func (n *fakeNegotiator) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
}

func (n *fakeNegotiator) sentPayloads() [][]byte {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([][]byte, len(n.sent))
	copy(out, n.sent)
	return out
}

type fakeFactory struct {
	mu   sync.Mutex
	negs map[core.ChannelKind][]*fakeNegotiator
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{negs: make(map[core.ChannelKind][]*fakeNegotiator)}
}

func (f *fakeFactory) New(kind core.ChannelKind) (core.Negotiator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := &fakeNegotiator{kind: kind}
	f.negs[kind] = append(f.negs[kind], n)
	return n, nil
}

func (f *fakeFactory) latest(kind core.ChannelKind) *fakeNegotiator {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.negs[kind]
	if len(list) == 0 {
		return nil
	}
	return list[len(list)-1]
}

// scriptedRequest is one request observed by the fake session.
type scriptedRequest struct {
	Kind core.ChannelKind
	Body map[string]any
	Jsep *webrtc.SessionDescription
}

type fakeAttachment struct {
	sess *fakeSession
	kind core.ChannelKind
	id   int64
}

func (a *fakeAttachment) Kind() core.ChannelKind { return a.kind }
func (a *fakeAttachment) ID() int64              { return a.id }

func (a *fakeAttachment) Request(ctx context.Context, body map[string]any, jsep *webrtc.SessionDescription) (*core.Reply, error) {
	return a.sess.record(a.kind, body, jsep)
}

func (a *fakeAttachment) Detach(ctx context.Context) error {
	a.sess.mu.Lock()
	defer a.sess.mu.Unlock()
	a.sess.detached = append(a.sess.detached, a.kind)
	return nil
}

// fakeSession scripts replies per request verb and logs everything.
type fakeSession struct {
	mu       sync.Mutex
	requests []scriptedRequest
	cbs      map[core.ChannelKind]core.AttachCallbacks
	attached map[core.ChannelKind]int
	detached []core.ChannelKind
	closed   bool
	nextID   int64

	// respond overrides the default empty reply when set.
	respond func(kind core.ChannelKind, body map[string]any) (*core.Reply, error)
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		cbs:      make(map[core.ChannelKind]core.AttachCallbacks),
		attached: make(map[core.ChannelKind]int),
	}
}

func (s *fakeSession) Attach(ctx context.Context, kind core.ChannelKind, cb core.AttachCallbacks) (core.Attachment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.cbs[kind] = cb
	s.attached[kind]++
	return &fakeAttachment{sess: s, kind: kind, id: s.nextID}, nil
}

func (s *fakeSession) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSession) record(kind core.ChannelKind, body map[string]any, jsep *webrtc.SessionDescription) (*core.Reply, error) {
	s.mu.Lock()
	respond := s.respond
	s.requests = append(s.requests, scriptedRequest{Kind: kind, Body: body, Jsep: jsep})
	s.mu.Unlock()
	if respond != nil {
		return respond(kind, body)
	}
	return &core.Reply{Data: json.RawMessage(`{}`)}, nil
}

func (s *fakeSession) requestsFor(kind core.ChannelKind, verb string) []scriptedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []scriptedRequest
	for _, r := range s.requests {
		if r.Kind == kind && r.Body["request"] == verb {
			out = append(out, r)
		}
	}
	return out
}

func (s *fakeSession) callbacks(kind core.ChannelKind) core.AttachCallbacks {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cbs[kind]
}

type fakeTransport struct {
	sess    *fakeSession
	dialErr error
}

func (t *fakeTransport) Dial(ctx context.Context, serverURL string) (core.Session, error) {
	if t.dialErr != nil {
		return nil, t.dialErr
	}
	return t.sess, nil
}

func newTestOrchestrator(t *testing.T) (*Orchestrator, *fakeSession, *fakeFactory) {
	t.Helper()
	sess := newFakeSession()
	factory := newFakeFactory()
	o := New(
		&fakeTransport{sess: sess},
		factory,
		app.NewEngine(app.DisplayKey{}),
		app.NewStreams(),
		Options{ServerURL: "ws://gateway.test/janus"},
	)
	return o, sess, factory
}

func connect(t *testing.T, o *Orchestrator) {
	t.Helper()
	require.NoError(t, o.Connect(context.Background()))
}

func TestConnectAttachesAllChannels(t *testing.T) {
	o, sess, _ := newTestOrchestrator(t)
	connect(t, o)

	require.Equal(t, 1, sess.attached[core.ChannelAudio])
	require.Equal(t, 1, sess.attached[core.ChannelVideoPublisher])
	require.Equal(t, 1, sess.attached[core.ChannelControl])
	require.Len(t, sess.requestsFor(core.ChannelControl, "setup"), 1)
}

func TestConnectTwiceRejected(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	connect(t, o)
	require.ErrorIs(t, o.Connect(context.Background()), ErrAlreadyConnected)
}

func TestConnectFailureTearsDown(t *testing.T) {
	o, sess, _ := newTestOrchestrator(t)
	sess.respond = func(kind core.ChannelKind, body map[string]any) (*core.Reply, error) {
		if body["request"] == "setup" {
			return nil, errors.New("plugin refused")
		}
		return &core.Reply{Data: json.RawMessage(`{}`)}, nil
	}

	require.Error(t, o.Connect(context.Background()))
	require.True(t, sess.closed)
	require.ErrorIs(t, o.JoinRoom(context.Background(), "Alice", domain.HallRoomID), ErrNotConnected)
}

func TestJoinRoomSendsBothJoins(t *testing.T) {
	o, sess, _ := newTestOrchestrator(t)
	connect(t, o)

	require.NoError(t, o.JoinRoom(context.Background(), "Alice", domain.HallRoomID))

	audioJoins := sess.requestsFor(core.ChannelAudio, "join")
	require.Len(t, audioJoins, 1)
	require.Equal(t, int64(domain.HallRoomID), audioJoins[0].Body["room"])
	require.Equal(t, "Alice", audioJoins[0].Body["display"])
	require.Equal(t, false, audioJoins[0].Body["muted"])

	videoJoins := sess.requestsFor(core.ChannelVideoPublisher, "join")
	require.Len(t, videoJoins, 1)
	require.Equal(t, "publisher", videoJoins[0].Body["ptype"])
}

func TestJoinRoomRequiresConnection(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	require.ErrorIs(t, o.JoinRoom(context.Background(), "Alice", domain.HallRoomID), ErrNotConnected)
}

func TestMuteGatedOnMediaUp(t *testing.T) {
	o, sess, _ := newTestOrchestrator(t)
	connect(t, o)

	// Before the first joined event no media session exists; the request
	// is dropped, not queued.
	require.NoError(t, o.Mute(context.Background(), true))
	require.Empty(t, sess.requestsFor(core.ChannelAudio, "configure"))

	sess.callbacks(core.ChannelAudio).OnAudioEvent(core.AudioJoined{Room: domain.HallRoomID, ID: 11})

	require.NoError(t, o.Mute(context.Background(), false))
	configures := sess.requestsFor(core.ChannelAudio, "configure")
	require.NotEmpty(t, configures)
	last := configures[len(configures)-1]
	require.Equal(t, false, last.Body["muted"])
}

func TestAudioJoinedStartsSingleOfferRound(t *testing.T) {
	o, sess, factory := newTestOrchestrator(t)
	connect(t, o)

	cb := sess.callbacks(core.ChannelAudio)
	cb.OnAudioEvent(core.AudioJoined{Room: domain.HallRoomID, ID: 11})
	cb.OnAudioEvent(core.AudioJoined{Room: 42, ID: 11})

	neg := factory.latest(core.ChannelAudio)
	neg.mu.Lock()
	defer neg.mu.Unlock()
	require.Equal(t, 1, neg.offers)
}

func TestCreateRoomTargetsBothChannels(t *testing.T) {
	o, sess, _ := newTestOrchestrator(t)
	connect(t, o)

	require.NoError(t, o.CreateRoom(context.Background(), "Library", 42))

	audioCreates := sess.requestsFor(core.ChannelAudio, "create")
	require.Len(t, audioCreates, 1)
	require.Equal(t, "Library", audioCreates[0].Body["description"])

	videoCreates := sess.requestsFor(core.ChannelVideoPublisher, "create")
	require.Len(t, videoCreates, 1)
	require.Equal(t, 10, videoCreates[0].Body["publishers"])
}

func TestDestroyRoomTargetsBothChannels(t *testing.T) {
	o, sess, _ := newTestOrchestrator(t)
	connect(t, o)

	require.NoError(t, o.DestroyRoom(context.Background(), 42))
	require.Len(t, sess.requestsFor(core.ChannelAudio, "destroy"), 1)
	require.Len(t, sess.requestsFor(core.ChannelVideoPublisher, "destroy"), 1)
}

func TestEnsureHallSkipsWhenPresent(t *testing.T) {
	o, sess, _ := newTestOrchestrator(t)
	sess.respond = func(kind core.ChannelKind, body map[string]any) (*core.Reply, error) {
		if body["request"] == "list" && kind == core.ChannelAudio {
			return &core.Reply{Data: json.RawMessage(`{"list":[{"room":1000000,"description":"Hall"}]}`)}, nil
		}
		return &core.Reply{Data: json.RawMessage(`{}`)}, nil
	}
	connect(t, o)

	require.NoError(t, o.EnsureHall(context.Background()))
	require.Empty(t, sess.requestsFor(core.ChannelAudio, "create"))
}

func TestEnsureHallCreatesWhenMissing(t *testing.T) {
	o, sess, _ := newTestOrchestrator(t)
	connect(t, o)

	require.NoError(t, o.EnsureHall(context.Background()))
	creates := sess.requestsFor(core.ChannelAudio, "create")
	require.Len(t, creates, 1)
	require.Equal(t, int64(domain.HallRoomID), creates[0].Body["room"])
	require.Equal(t, domain.HallDescription, creates[0].Body["description"])
}

func TestRefreshChatInfoMergesChannels(t *testing.T) {
	o, sess, _ := newTestOrchestrator(t)
	sess.respond = func(kind core.ChannelKind, body map[string]any) (*core.Reply, error) {
		switch body["request"] {
		case "list":
			return &core.Reply{Data: json.RawMessage(`{"list":[{"room":1000000,"description":"Hall"}]}`)}, nil
		case "listparticipants":
			if kind == core.ChannelAudio {
				return &core.Reply{Data: json.RawMessage(`{"participants":[{"id":11,"display":"Alice","setup":true}]}`)}, nil
			}
			return &core.Reply{Data: json.RawMessage(`{"participants":[{"id":21,"display":"Alice","publisher":true}]}`)}, nil
		}
		return &core.Reply{Data: json.RawMessage(`{}`)}, nil
	}
	connect(t, o)
	o.SetIdentity("Alice", false)

	snap, err := o.RefreshChatInfo(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Rooms, 1)
	require.Len(t, snap.Rooms[0].Participants, 1)

	alice := snap.Rooms[0].Participants[0]
	require.Equal(t, int64(11), alice.AudioID)
	require.Equal(t, int64(21), alice.VideoID)
	require.True(t, alice.Publisher)

	require.NotNil(t, snap.User)
	require.EqualValues(t, 1000000, snap.User.Room)

	rooms, cancel := o.Streams.Rooms.Subscribe()
	defer cancel()
	require.Len(t, <-rooms, 1)
}

func TestRefreshChatInfoFiltersReservedRooms(t *testing.T) {
	o, sess, _ := newTestOrchestrator(t)
	sess.respond = func(kind core.ChannelKind, body map[string]any) (*core.Reply, error) {
		if body["request"] == "list" {
			return &core.Reply{Data: json.RawMessage(`{"list":[
				{"room":1000000,"description":"Hall"},
				{"room":1234,"description":"reserved"},
				{"room":5678,"description":"demo"}
			]}`)}, nil
		}
		return &core.Reply{Data: json.RawMessage(`{}`)}, nil
	}
	connect(t, o)

	snap, err := o.RefreshChatInfo(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Rooms, 1)
	require.EqualValues(t, 1000000, snap.Rooms[0].RoomID)
}

func TestRefreshChatInfoFailureKeepsPreviousSnapshot(t *testing.T) {
	o, sess, _ := newTestOrchestrator(t)
	sess.respond = func(kind core.ChannelKind, body map[string]any) (*core.Reply, error) {
		if body["request"] == "list" {
			return &core.Reply{Data: json.RawMessage(`{"list":[{"room":1000000,"description":"Hall"}]}`)}, nil
		}
		return &core.Reply{Data: json.RawMessage(`{}`)}, nil
	}
	connect(t, o)
	_, err := o.RefreshChatInfo(context.Background())
	require.NoError(t, err)

	sess.mu.Lock()
	sess.respond = func(kind core.ChannelKind, body map[string]any) (*core.Reply, error) {
		return nil, errors.New("gateway down")
	}
	sess.mu.Unlock()

	_, err = o.RefreshChatInfo(context.Background())
	require.Error(t, err)
	require.Len(t, o.Snapshot().Rooms, 1)
}

func TestSwitchOwnRoomRecordsPendingAndSends(t *testing.T) {
	o, sess, _ := newTestOrchestrator(t)
	connect(t, o)
	o.SetIdentity("Alice", false)

	require.NoError(t, o.SwitchOwnRoom(context.Background(), domain.HallRoomID, 42))

	pending := o.PendingSwitch()
	require.NotNil(t, pending)
	require.EqualValues(t, domain.HallRoomID, pending.SourceRoom)
	require.EqualValues(t, 42, pending.DestinationRoom)

	changes := sess.requestsFor(core.ChannelAudio, "changeroom")
	require.Len(t, changes, 1)
	require.Equal(t, int64(42), changes[0].Body["room"])
	require.Equal(t, true, changes[0].Body["muted"])

	leaves := sess.requestsFor(core.ChannelVideoPublisher, "leave")
	require.Len(t, leaves, 1)
	require.Equal(t, int64(domain.HallRoomID), leaves[0].Body["room"])
}

func TestSecondSwitchRejectedWhilePending(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	connect(t, o)
	o.SetIdentity("Alice", false)

	require.NoError(t, o.SwitchOwnRoom(context.Background(), domain.HallRoomID, 42))
	require.ErrorIs(t, o.SwitchOwnRoom(context.Background(), domain.HallRoomID, 43), app.ErrSwitchPending)
}

func TestSwitchFailureClearsPending(t *testing.T) {
	o, sess, _ := newTestOrchestrator(t)
	connect(t, o)
	o.SetIdentity("Alice", false)

	sess.mu.Lock()
	sess.respond = func(kind core.ChannelKind, body map[string]any) (*core.Reply, error) {
		if body["request"] == "changeroom" {
			return nil, errors.New("no such room")
		}
		return &core.Reply{Data: json.RawMessage(`{}`)}, nil
	}
	sess.mu.Unlock()

	require.Error(t, o.SwitchOwnRoom(context.Background(), domain.HallRoomID, 42))
	require.Nil(t, o.PendingSwitch())
}

func TestSelfLeaveCompletesSwitch(t *testing.T) {
	o, sess, factory := newTestOrchestrator(t)
	connect(t, o)
	o.SetIdentity("Alice", false)
	require.NoError(t, o.SwitchOwnRoom(context.Background(), domain.HallRoomID, 42))

	oldNeg := factory.latest(core.ChannelVideoPublisher)
	sess.callbacks(core.ChannelVideoPublisher).OnVideoEvent(core.VideoSelfLeft{Room: domain.HallRoomID})

	// Old channel torn down, fresh one attached, destination joined.
	require.Contains(t, sess.detached, core.ChannelVideoPublisher)
	require.Equal(t, 2, sess.attached[core.ChannelVideoPublisher])
	require.True(t, oldNeg.closed)

	joins := sess.requestsFor(core.ChannelVideoPublisher, "join")
	require.Len(t, joins, 1)
	require.Equal(t, int64(42), joins[0].Body["room"])
	require.Equal(t, "publisher", joins[0].Body["ptype"])
	require.Equal(t, "Alice", joins[0].Body["display"])

	require.Nil(t, o.PendingSwitch())
}

func TestStraySelfLeaveIgnored(t *testing.T) {
	o, sess, _ := newTestOrchestrator(t)
	connect(t, o)

	sess.callbacks(core.ChannelVideoPublisher).OnVideoEvent(core.VideoSelfLeft{Room: 42})
	require.Equal(t, 1, sess.attached[core.ChannelVideoPublisher])
	require.Empty(t, sess.requestsFor(core.ChannelVideoPublisher, "join"))
}

func TestRequestSwitchWhispersCommand(t *testing.T) {
	o, _, factory := newTestOrchestrator(t)
	connect(t, o)
	o.SetIdentity("Guide", true)

	require.NoError(t, o.RequestSwitch(context.Background(), "Bob", domain.HallRoomID, 42))

	neg := factory.latest(core.ChannelControl)
	payloads := neg.sentPayloads()
	require.Len(t, payloads, 1)

	var env app.ControlEnvelope
	require.NoError(t, json.Unmarshal(payloads[0], &env))
	require.Equal(t, "message", env.Textroom)
	require.Equal(t, "Bob", env.To)
	require.Equal(t, fmt.Sprintf("switchRooms|%d|42", domain.HallRoomID), env.Text)
}

func TestWhisperedCommandStartsOwnSwitch(t *testing.T) {
	o, sess, factory := newTestOrchestrator(t)
	connect(t, o)
	o.SetIdentity("Bob", false)

	neg := factory.latest(core.ChannelControl)
	require.NotNil(t, neg.dataFn)
	neg.dataFn([]byte(`{"textroom":"message","from":"Guide","whisper":true,"text":"switchRooms|1000000|42"}`))

	require.NotNil(t, o.PendingSwitch())
	require.Len(t, sess.requestsFor(core.ChannelAudio, "changeroom"), 1)
}

func TestPlainWhisperIsNotASwitch(t *testing.T) {
	o, sess, factory := newTestOrchestrator(t)
	connect(t, o)
	o.SetIdentity("Bob", false)

	neg := factory.latest(core.ChannelControl)
	neg.dataFn([]byte(`{"textroom":"message","from":"Guide","whisper":true,"text":"hello Bob"}`))

	require.Nil(t, o.PendingSwitch())
	require.Empty(t, sess.requestsFor(core.ChannelAudio, "changeroom"))
}

func TestControlOpenJoinsControlRoom(t *testing.T) {
	o, _, factory := newTestOrchestrator(t)
	connect(t, o)
	o.SetIdentity("Alice", false)

	neg := factory.latest(core.ChannelControl)
	require.NotNil(t, neg.openFn)
	neg.openFn()

	payloads := neg.sentPayloads()
	require.Len(t, payloads, 1)

	var env app.ControlEnvelope
	require.NoError(t, json.Unmarshal(payloads[0], &env))
	require.Equal(t, "join", env.Textroom)
	require.Equal(t, "Alice", env.Username)
	require.EqualValues(t, domain.ControlRoomID, env.Room)
}

func TestControlOpenBeforeIdentitySkipsJoin(t *testing.T) {
	o, _, factory := newTestOrchestrator(t)
	connect(t, o)

	neg := factory.latest(core.ChannelControl)
	neg.openFn()
	require.Empty(t, neg.sentPayloads())
}

func TestSubscribeToPublisherAttachesLazily(t *testing.T) {
	o, sess, _ := newTestOrchestrator(t)
	connect(t, o)
	require.NoError(t, o.JoinRoom(context.Background(), "Alice", 42))

	require.NoError(t, o.SubscribeToPublisher(context.Background(), 31))
	require.Equal(t, 1, sess.attached[core.ChannelVideoSubscriber])

	joins := sess.requestsFor(core.ChannelVideoSubscriber, "join")
	require.Len(t, joins, 1)
	require.Equal(t, "subscriber", joins[0].Body["ptype"])
	require.Equal(t, int64(31), joins[0].Body["feed"])
	require.Equal(t, int64(42), joins[0].Body["room"])

	// Second call reuses the channel with a feed switch.
	require.NoError(t, o.SubscribeToPublisher(context.Background(), 32))
	require.Equal(t, 1, sess.attached[core.ChannelVideoSubscriber])
	switches := sess.requestsFor(core.ChannelVideoSubscriber, "switch")
	require.Len(t, switches, 1)
	require.Equal(t, int64(32), switches[0].Body["feed"])
}

func TestCloseTearsEverythingDown(t *testing.T) {
	o, sess, factory := newTestOrchestrator(t)
	connect(t, o)
	o.SetIdentity("Alice", false)
	require.NoError(t, o.SwitchOwnRoom(context.Background(), domain.HallRoomID, 42))

	o.Close()

	require.True(t, sess.closed)
	require.Nil(t, o.PendingSwitch())
	require.True(t, factory.latest(core.ChannelAudio).closed)
	require.True(t, factory.latest(core.ChannelControl).closed)
	require.ErrorIs(t, o.JoinRoom(context.Background(), "Alice", domain.HallRoomID), ErrNotConnected)
}

func TestTalkingEventsReachStreams(t *testing.T) {
	o, sess, _ := newTestOrchestrator(t)
	connect(t, o)

	talking, cancel := o.Streams.Talking.Subscribe()
	defer cancel()
	stopped, cancelStop := o.Streams.StopTalking.Subscribe()
	defer cancelStop()

	cb := sess.callbacks(core.ChannelAudio)
	cb.OnAudioEvent(core.AudioTalking{Room: 42, ID: 11, Talking: true})
	cb.OnAudioEvent(core.AudioTalking{Room: 42, ID: 11, Talking: false})

	ev := <-talking
	require.True(t, ev.Talking)
	require.Equal(t, int64(11), ev.AudioID)

	ev = <-stopped
	require.False(t, ev.Talking)
}

func TestChannelErrorsReachErrorStream(t *testing.T) {
	o, sess, _ := newTestOrchestrator(t)
	connect(t, o)

	errs, cancel := o.Streams.Errors.Subscribe()
	defer cancel()

	sess.callbacks(core.ChannelAudio).OnAudioEvent(core.AudioError{Code: 485, Reason: "no such room"})
	err := <-errs
	require.Contains(t, err.Error(), "no such room")
}
