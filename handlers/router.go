package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chaos-io/cutout/config"
	"github.com/chaos-io/cutout/models"
)

// NewRouter wires the API routes and middleware.
func NewRouter(cfg *config.Config, logger *slog.Logger, opts ...Option) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(
		RequestID(),
		LogRequest(logger),
		CORS(),
		gin.Recovery(),
		LimitBody(cfg.MaxBodyBytes()),
	)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: MsgNotFound})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, models.ErrorResponse{Error: MsgMethodNotAllowed})
	})

	removal := NewRemovalHandler(cfg, append([]Option{WithLogger(logger)}, opts...)...)
	ping := Ping(cfg)

	api := r.Group("/api")
	api.Any("/remove-background", removal.Handle)
	api.Any("/test", ping)
	api.Any("/ping", ping)

	return r
}
