package websocket

import (
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arthub/backend/internal/service"
)

// Handler upgrades HTTP requests to WebSocket connections
type Handler struct {
	hub *Hub
	svc *service.Service
	log *zap.Logger
}

// NewHandler creates a websocket handler backed by the hub
func NewHandler(hub *Hub, svc *service.Service, log *zap.Logger) *Handler {
	return &Handler{hub: hub, svc: svc, log: log}
}

// HandleWebSocket authenticates and upgrades a request. The JWT comes
// from the ?token= query parameter or the Authorization header; browser
// WebSocket clients cannot set headers, hence the query fallback.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = c.GetHeader("Authorization")
		if len(token) > 7 && token[:7] == "Bearer " {
			token = token[7:]
		}
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no token provided"})
		return
	}

	user, err := h.svc.ValidateToken(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
		CompressionMode:    websocket.CompressionContextTakeover,
	})
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(h.hub, conn, user.ID, user.Username)
	h.hub.Register(client)

	client.Send(NewMessage(MessageTypeSystem, gin.H{
		"event":       "connected",
		"user_id":     user.ID,
		"username":    user.Username,
		"server_time": time.Now().UTC().UnixMilli(),
	}))

	ctx := c.Request.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
