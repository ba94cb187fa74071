package http

import (
	stdhttp "net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/microom-server/internal/config"
)

func init() {
	gin.SetMode(gin.ReleaseMode)
}

// NewServer builds an HTTP server with the health, WebSocket, and REST routes.
func NewServer(hub Coordinator, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	rooms := NewRoomHandlers(hub, logger)
	api := router.Group("/api")
	api.Use(CORSMiddleware(cfg.AllowedOrigin))
	{
		api.GET("/rooms", rooms.ListRooms)
		api.OPTIONS("/rooms", func(*gin.Context) {})
	}

	// The upgrade needs the raw connection, so /ws bypasses gin.
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(hub, logger, originPatterns(cfg.AllowedOrigin), cfg.ClientBuffer, cfg.MaxMessageBytes))
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}

// originPatterns turns the configured browser origin into a host pattern for
// the WebSocket origin check.
func originPatterns(allowed string) []string {
	switch allowed {
	case "":
		return nil
	case "*":
		return []string{"*"}
	}
	u, err := url.Parse(allowed)
	if err != nil || u.Host == "" {
		return []string{allowed}
	}
	return []string{u.Host}
}
