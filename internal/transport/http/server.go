package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/slatechat/slate-server/internal/auth"
	"github.com/slatechat/slate-server/internal/config"
	"github.com/slatechat/slate-server/internal/core"
	"github.com/slatechat/slate-server/internal/store"
)

// NewServer builds the HTTP server: health check, the WebSocket endpoint,
// and the authenticated REST API.
func NewServer(gateway *core.Gateway, hub *core.Hub, authService *auth.Service, st store.Store, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})

	handlers := NewAPIHandlers(hub, st, logger)
	api := router.Group("/api")
	api.Use(AuthMiddleware(authService, logger))
	{
		api.GET("/online", handlers.Online)
		api.GET("/messages", handlers.Messages)
	}

	// The upgrade must hijack the connection, which gin's wrapped
	// ResponseWriter refuses once it has written the 101. /ws is served
	// from the raw mux; everything else goes through gin.
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(gateway, hub, cfg.WSRateLimit, logger))
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
