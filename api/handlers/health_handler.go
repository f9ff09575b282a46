package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Version is reported by the health endpoint
var Version = "dev"

// Runner reports whether the bot poller is active
type Runner interface {
	IsRunning() bool
}

// HealthHandler handles health check requests
type HealthHandler struct {
	bot Runner
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(bot Runner) *HealthHandler {
	return &HealthHandler{
		bot: bot,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Bot     struct {
		Running bool `json:"running"`
	} `json:"bot"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:  "ok",
		Version: Version,
	}
	response.Bot.Running = h.bot.IsRunning()

	c.JSON(http.StatusOK, response)
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if !h.bot.IsRunning() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "bot not polling",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
