package server

import (
	"errors"
	"log/slog"
	"net/http"

	"anonchat/auth"
	"anonchat/domain"
	apperrors "anonchat/errors"
	"anonchat/runtime"
	"anonchat/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // anonymous public service, no origin restriction
	},
}

// API wires the HTTP surface: the public endpoints the chat client boots
// from, the admin request/response calls, and the websocket upgrade.
type API struct {
	log           *slog.Logger
	chat          services.IChatService
	admin         services.IAdminService
	engine        *runtime.Engine
	settings      *domain.Settings
	maxFrameBytes int64
	sendBuffer    int
}

func NewAPI(
	log *slog.Logger,
	chat services.IChatService,
	admin services.IAdminService,
	engine *runtime.Engine,
	settings *domain.Settings,
	maxFrameBytes int64,
	sendBuffer int,
) *API {
	return &API{
		log:           log,
		chat:          chat,
		admin:         admin,
		engine:        engine,
		settings:      settings,
		maxFrameBytes: maxFrameBytes,
		sendBuffer:    sendBuffer,
	}
}

func (a *API) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/ws", a.handleWebsocket)
	r.GET("/api/rooms", a.handleRooms)
	r.GET("/api/config", a.handleConfig)
	r.POST("/api/admin/login", a.handleLogin)

	adminGroup := r.Group("/api/admin", a.bearerToken())
	adminGroup.POST("/logout", a.handleLogout)
	adminGroup.GET("/stats", a.handleStats)
	adminGroup.POST("/rooms", a.handleRoomAction)
	adminGroup.POST("/messages/delete", a.handleDeleteMessage)
	adminGroup.POST("/messages/pin", a.handlePinMessage)
	adminGroup.POST("/messages/unpin", a.handleUnpinMessage)
	adminGroup.POST("/config", a.handleUpdateConfig)

	return r
}

func (a *API) handleWebsocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		a.log.Warn("websocket upgrade failed", "err", err)
		return
	}

	client := NewClient(uuid.NewString(), conn, a.chat, a.log, a.sendBuffer)
	a.chat.Register(client.id, client)

	go client.WritePump()
	go client.ReadPump(a.maxFrameBytes)
}

func (a *API) handleRooms(c *gin.Context) {
	rooms := a.engine.RoomsEvent()
	c.JSON(http.StatusOK, gin.H{
		"standard": rooms.Standard,
		"trending": rooms.Trending,
	})
}

func (a *API) handleConfig(c *gin.Context) {
	s := a.settings.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"rateLimitSeconds": int(s.RateLimit.Seconds()),
		"reactionEmojis":   s.ReactionEmojis,
	})
}

func (a *API) handleLogin(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}
	token, username, err := a.admin.Login(req)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"token":    token,
		"username": username,
	})
}

// bearerToken extracts the Authorization header; the services authorize it
// on every call, so the middleware only forwards.
func (a *API) bearerToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("token", c.GetHeader("Authorization"))
		c.Next()
	}
}

func token(c *gin.Context) string {
	return c.GetString("token")
}

func (a *API) handleLogout(c *gin.Context) {
	if err := a.admin.Logout(token(c)); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (a *API) handleStats(c *gin.Context) {
	stats, err := a.admin.GetStats(token(c))
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

type roomActionRequest struct {
	Action   string `json:"action" binding:"required,oneof=create delete lock unlock"`
	RoomName string `json:"roomName" binding:"required"`
	Reason   string `json:"reason"`
}

func (a *API) handleRoomAction(c *gin.Context) {
	var req roomActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	var err error
	switch req.Action {
	case "create":
		err = a.admin.CreateRoom(token(c), req.RoomName)
	case "delete":
		err = a.admin.DeleteRoom(token(c), req.RoomName)
	case "lock":
		err = a.admin.LockRoom(token(c), req.RoomName, req.Reason)
	case "unlock":
		err = a.admin.UnlockRoom(token(c), req.RoomName)
	}
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type messageRequest struct {
	MessageID string `json:"messageId" binding:"required,uuid4"`
}

func (a *API) handleDeleteMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := a.admin.DeleteMessage(token(c), req.MessageID); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (a *API) handlePinMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := a.admin.PinMessage(token(c), req.MessageID); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type unpinRequest struct {
	Room string `json:"room" binding:"required"`
}

func (a *API) handleUnpinMessage(c *gin.Context) {
	var req unpinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := a.admin.UnpinMessage(token(c), req.Room); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type configRequest struct {
	TTLSeconds       *int `json:"ttl"`
	RateLimitSeconds *int `json:"spam"`
}

func (a *API) handleUpdateConfig(c *gin.Context) {
	var req configRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := a.admin.UpdateConfig(token(c), req.TTLSeconds, req.RateLimitSeconds); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// abortWith maps domain sentinels to HTTP statuses.
func abortWith(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperrors.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrRoomNotFound), errors.Is(err, apperrors.ErrMessageNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperrors.ErrDuplicateRoom):
		status = http.StatusConflict
	case errors.Is(err, apperrors.ErrValidation):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
