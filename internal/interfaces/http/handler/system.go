package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/fintrack/backend/internal/infrastructure/persistence"
	"github.com/fintrack/backend/internal/infrastructure/scheduler"
	"github.com/fintrack/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	db        *persistence.Database
	sweeper   *scheduler.OverdueSweepScheduler
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler. db and sweeper may be nil in
// tests; health then reports only process liveness.
func NewSystemHandler(db *persistence.Database, sweeper *scheduler.OverdueSweepScheduler) *SystemHandler {
	return &SystemHandler{
		db:        db,
		sweeper:   sweeper,
		startTime: time.Now(),
	}
}

// SystemInfoResponse represents the system information response
// @name HandlerSystemInfoResponse
type SystemInfoResponse struct {
	Name      string `json:"name" example:"FinTrack Backend API"`
	Version   string `json:"version" example:"1.0.0"`
	GoVersion string `json:"go_version" example:"go1.25.5"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
}

// HealthResponse represents the health check response
// @name HandlerHealthResponse
type HealthResponse struct {
	Status   string `json:"status" example:"ok"`
	Database string `json:"database,omitempty" example:"ok"`
	Sweeper  string `json:"sweeper,omitempty" example:"running"`
}

// GetSystemInfo godoc
// @ID           getSystemInfo
// @Summary      Get system information
// @Description  Returns basic system information including version and uptime
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[SystemInfoResponse]
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	info := SystemInfoResponse{
		Name:      "FinTrack Backend API",
		Version:   "1.0.0",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(info))
}

// Health godoc
// @ID           getSystemHealth
// @Summary      Health check
// @Description  Reports process, database and sweep scheduler health
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[HealthResponse]
// @Failure      503 {object} APIResponse[HealthResponse]
// @Router       /system/health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{Status: "ok"}
	status := http.StatusOK

	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			resp.Status = "degraded"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			resp.Database = "ok"
		}
	}

	if h.sweeper != nil {
		if h.sweeper.IsRunning() {
			resp.Sweeper = "running"
		} else {
			resp.Sweeper = "stopped"
		}
	}

	c.JSON(status, dto.NewSuccessResponse(resp))
}

// TriggerOverdueSweep godoc
// @ID           triggerOverdueSweep
// @Summary      Trigger overdue sweep
// @Description  Runs the overdue promotion sweep immediately and returns its stats
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[appbilling.OverdueSweepStats]
// @Failure      500 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /system/overdue-sweep [post]
func (h *SystemHandler) TriggerOverdueSweep(c *gin.Context) {
	if h.sweeper == nil {
		h.Error(c, http.StatusServiceUnavailable, "SWEEPER_UNAVAILABLE", "Overdue sweep scheduler is not configured")
		return
	}

	stats, err := h.sweeper.TriggerNow(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}

// RegisterRoutes registers all system routes
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	system := rg.Group("/system")
	{
		system.GET("/info", h.GetSystemInfo)
		system.GET("/health", h.Health)
		system.POST("/overdue-sweep", h.TriggerOverdueSweep)
	}
}
