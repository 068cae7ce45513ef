package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/guilleprfc/video-chat-app/internal/app"
)

const (
	feedWriteWait  = 10 * time.Second
	feedPingPeriod = 30 * time.Second
	feedBuffer     = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// feedFrame is one outbound event on the browser feed.
type feedFrame struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// eventFeed upgrades the request and pushes every stream update to the
// browser until it disconnects.
func (ctl *controller) eventFeed(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("module", "adapters.http").Msg("feed upgrade")
		return
	}

	out := make(chan feedFrame, feedBuffer)
	done := make(chan struct{})
	cancel := bridgeStreams(ctl.orch.Streams, out, done)
	defer cancel()

	go func() {
		// Drain reads so close/ping control frames are processed; the
		// feed is one-way otherwise.
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(feedPingPeriod)
	defer ticker.Stop()
	defer conn.Close()
	for {
		select {
		case frame := <-out:
			conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := conn.WriteJSON(frame); err != nil {
				log.Debug().Err(err).Str("module", "adapters.http").Msg("feed write")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// bridgeStreams fans all orchestrator streams into a single frame
// channel. The returned cancel releases every subscription.
func bridgeStreams(s *app.Streams, out chan<- feedFrame, done <-chan struct{}) func() {
	rooms, cancelRooms := s.Rooms.Subscribe()
	parts, cancelParts := s.Participants.Subscribe()
	pubs, cancelPubs := s.Publishers.Subscribe()
	user, cancelUser := s.CurrentUser.Subscribe()
	talking, cancelTalking := s.Talking.Subscribe()
	stopped, cancelStopped := s.StopTalking.Subscribe()
	errs, cancelErrs := s.Errors.Subscribe()

	forward(rooms, "rooms", out, done)
	forward(parts, "participants", out, done)
	forward(pubs, "publishers", out, done)
	forward(user, "currentUser", out, done)
	forward(talking, "talking", out, done)
	forward(stopped, "stopTalking", out, done)
	go func() {
		for {
			select {
			case err, ok := <-errs:
				if !ok {
					return
				}
				push(out, feedFrame{Type: "error", Payload: err.Error()}, done)
			case <-done:
				return
			}
		}
	}()

	return func() {
		cancelRooms()
		cancelParts()
		cancelPubs()
		cancelUser()
		cancelTalking()
		cancelStopped()
		cancelErrs()
	}
}

func forward[T any](in <-chan T, kind string, out chan<- feedFrame, done <-chan struct{}) {
	go func() {
		for {
			select {
			case v, ok := <-in:
				if !ok {
					return
				}
				push(out, feedFrame{Type: kind, Payload: v}, done)
			case <-done:
				return
			}
		}
	}()
}

// push is non-blocking: a stalled browser drops frames rather than
// backing up the streams.
func push(out chan<- feedFrame, f feedFrame, done <-chan struct{}) {
	select {
	case out <- f:
	case <-done:
	default:
	}
}
