package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/acadtrack/internal/app/models/dto"
)

// Pinger is implemented by the database pool and the redis cache
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthController reports dependency health
type HealthController struct {
	checks map[string]Pinger
}

// NewHealthController creates a HealthController. Nil pingers are skipped.
func NewHealthController(checks map[string]Pinger) *HealthController {
	active := make(map[string]Pinger, len(checks))
	for name, p := range checks {
		if p != nil {
			active[name] = p
		}
	}
	return &HealthController{checks: active}
}

// Health pings every dependency
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} dto.APIResponse
// @Failure 503 {object} dto.APIResponse
// @Router /health [get]
func (c *HealthController) Health(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(c.checks))
	for name, p := range c.checks {
		if err := p.Ping(pingCtx); err != nil {
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	resp := dto.NewSuccessResponse(results, "")
	resp.Success = status == http.StatusOK
	ctx.JSON(status, resp)
}

// Ping answers without touching dependencies
func (c *HealthController) Ping(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
}
