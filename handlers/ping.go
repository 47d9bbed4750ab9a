package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chaos-io/cutout/config"
	"github.com/chaos-io/cutout/models"
)

// Ping reports liveness and whether a provider key is configured.
func Ping(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.PingResponse{
			Message:   "API is working!",
			Method:    c.Request.Method,
			HasAPIKey: cfg.HasAPIKey(),
			Timestamp: time.Now().UTC(),
		})
	}
}
