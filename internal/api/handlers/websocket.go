package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/fitleague/fitleague/internal/api/middleware"
	"github.com/fitleague/fitleague/internal/services"
)

// WebSocketHandler upgrades authenticated connections into event sessions.
type WebSocketHandler struct {
	redisClient *redis.Client
	registry    *services.SessionRegistry
	config      services.SessionConfig
	logger      *logrus.Logger
	upgrader    websocket.Upgrader
}

func NewWebSocketHandler(redisClient *redis.Client, registry *services.SessionRegistry, config services.SessionConfig, logger *logrus.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		redisClient: redisClient,
		registry:    registry,
		config:      config,
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin policy is enforced by the CORS layer; the gateway
			// authenticates with the token instead.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleWebSocket serves one client connection until it drops.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	session := services.NewSession(conn, userID, h.redisClient, h.registry, h.config, h.logger)
	session.Run(c.Request.Context())
}
