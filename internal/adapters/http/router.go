// Package http is the local facade external UI code drives: a small
// JSON API over the orchestrator's operations plus a websocket feed
// bridging the event streams.
package http

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/guilleprfc/video-chat-app/internal/app/orch"
	"github.com/guilleprfc/video-chat-app/internal/config"
	"github.com/guilleprfc/video-chat-app/internal/domain"
)

const sessionName = "TourSession"

func SetupRouter(cfg *config.Config, o *orch.Orchestrator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions(sessionName, store))

	log.Info().Str("module", "adapters.http").Msg("router setup")

	ctl := &controller{orch: o}
	api := r.Group("/api")
	api.POST("/connect", ctl.connect)
	api.POST("/disconnect", ctl.disconnect)
	api.GET("/chat", ctl.chatInfo)
	api.POST("/rooms", ctl.createRoom)
	api.DELETE("/rooms/:id", ctl.destroyRoom)
	api.POST("/mute", ctl.mute)
	api.POST("/leave", ctl.leave)
	api.POST("/switch", ctl.switchRoom)
	api.POST("/subscribe", ctl.subscribe)
	api.GET("/ws/events", ctl.eventFeed)

	return r
}

type controller struct {
	orch *orch.Orchestrator
}

type connectRequest struct {
	Display string `json:"display" binding:"required"`
	Guide   bool   `json:"guide"`
}

// connect establishes the session, makes sure the hall exists and joins
// it. A failure leaves the client fully disconnected.
func (ctl *controller) connect(c *gin.Context) {
	var req connectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()

	ctl.orch.SetIdentity(req.Display, req.Guide)
	if err := ctl.orch.Connect(ctx); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if err := ctl.orch.EnsureHall(ctx); err != nil {
		ctl.orch.Close()
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if err := ctl.orch.JoinRoom(ctx, req.Display, domain.HallRoomID); err != nil {
		ctl.orch.Close()
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	snap, err := ctl.orch.RefreshChatInfo(ctx)
	if err != nil {
		log.Warn().Err(err).Str("module", "adapters.http").Msg("refresh after connect")
	}

	sess := sessions.Default(c)
	sess.Set("display", req.Display)
	sess.Set("guide", req.Guide)
	if err := sess.Save(); err != nil {
		log.Warn().Err(err).Str("module", "adapters.http").Msg("session save")
	}
	c.JSON(http.StatusOK, gin.H{"rooms": snap.Rooms, "user": snap.User})
}

func (ctl *controller) disconnect(c *gin.Context) {
	ctl.orch.Close()
	c.Status(http.StatusNoContent)
}

func (ctl *controller) chatInfo(c *gin.Context) {
	snap, err := ctl.orch.RefreshChatInfo(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": snap.Rooms, "user": snap.User})
}

type createRoomRequest struct {
	Description string `json:"description" binding:"required"`
	Room        int64  `json:"room" binding:"required"`
}

func (ctl *controller) createRoom(c *gin.Context) {
	if !ctl.requireGuide(c) {
		return
	}
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := ctl.orch.CreateRoom(c.Request.Context(), req.Description, domain.RoomID(req.Room)); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusCreated)
}

func (ctl *controller) destroyRoom(c *gin.Context) {
	if !ctl.requireGuide(c) {
		return
	}
	var uri struct {
		ID int64 `uri:"id" binding:"required"`
	}
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := ctl.orch.DestroyRoom(c.Request.Context(), domain.RoomID(uri.ID)); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (ctl *controller) mute(c *gin.Context) {
	var req struct {
		Muted bool `json:"muted"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := ctl.orch.Mute(c.Request.Context(), req.Muted); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (ctl *controller) leave(c *gin.Context) {
	var req struct {
		Room int64 `json:"room" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := ctl.orch.LeaveVideoRoom(c.Request.Context(), domain.RoomID(req.Room)); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

type switchRequest struct {
	Display     string `json:"display" binding:"required"`
	Source      int64  `json:"source" binding:"required"`
	Destination int64  `json:"destination" binding:"required"`
}

// switchRoom covers both move variants: moving oneself runs the local
// routine, moving somebody else relays the command by whisper and needs
// the guide role.
func (ctl *controller) switchRoom(c *gin.Context) {
	var req switchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	src, dst := domain.RoomID(req.Source), domain.RoomID(req.Destination)

	if req.Display == ctl.orch.Display() {
		if err := ctl.orch.SwitchOwnRoom(ctx, src, dst); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusAccepted)
		return
	}
	if !ctl.requireGuide(c) {
		return
	}
	if err := ctl.orch.RequestSwitch(ctx, req.Display, src, dst); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusAccepted)
}

func (ctl *controller) subscribe(c *gin.Context) {
	var req struct {
		Feed int64 `json:"feed" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := ctl.orch.SubscribeToPublisher(c.Request.Context(), req.Feed); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (ctl *controller) requireGuide(c *gin.Context) bool {
	if ctl.orch.IsGuide() {
		return true
	}
	sess := sessions.Default(c)
	if guide, ok := sess.Get("guide").(bool); ok && guide {
		return true
	}
	c.JSON(http.StatusForbidden, gin.H{"error": "guide role required"})
	return false
}
