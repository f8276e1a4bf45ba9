package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"asymmetricbridge/internal/scheduler"
)

type HealthHandler struct {
	DB        *gorm.DB
	Scheduler *scheduler.Scheduler
}

func (h *HealthHandler) Register(r *gin.Engine) {
	r.GET("/healthz", h.health)
	r.GET("/readyz", h.ready)
}

// @Summary Health check
// @Tags health
// @Success 200 {object} map[string]any
// @Router /healthz [get]
func (h *HealthHandler) health(c *gin.Context) {
	out := gin.H{"status": "ok"}
	if h.Scheduler != nil {
		if last := h.Scheduler.LastRun(); !last.IsZero() {
			out["last_evaluation"] = last
		}
	}
	c.JSON(http.StatusOK, out)
}

// @Summary Readiness check
// @Tags health
// @Success 200 {object} map[string]string
// @Router /readyz [get]
func (h *HealthHandler) ready(c *gin.Context) {
	if h.DB == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_missing"})
		return
	}
	sqlDB, err := h.DB.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_error"})
		return
	}
	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
