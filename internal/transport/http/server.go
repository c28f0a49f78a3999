package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/parley-chat/parley-server/internal/config"
	"github.com/parley-chat/parley-server/internal/core"
)

// NewServer builds the HTTP server: the chat upgrade endpoint plus the
// read-only status API.
func NewServer(queue *core.CommandQueue, clients *core.ClientRegistry, rooms *core.RoomRegistry,
	cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/healthz", healthHandler)
	router.GET("/chat", NewWSHandler(queue, logger).Handle)

	api := NewAPIHandlers(clients, rooms, logger)
	router.GET("/api/rooms", api.ListRooms)
	router.GET("/api/stats", api.Stats)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
