package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/schoolfee/backend/internal/infrastructure/persistence"
	"github.com/schoolfee/backend/internal/infrastructure/scheduler"
)

// SystemHandler handles health, info and scheduler endpoints
type SystemHandler struct {
	BaseHandler
	db        *persistence.Database
	redis     *redis.Client
	scheduler *scheduler.DailyScheduler
	startedAt time.Time
	version   string
}

// NewSystemHandler creates a new system handler. The redis client and
// scheduler are optional; health reporting degrades gracefully without
// them.
func NewSystemHandler(db *persistence.Database, redisClient *redis.Client, sched *scheduler.DailyScheduler, version string) *SystemHandler {
	return &SystemHandler{
		db:        db,
		redis:     redisClient,
		scheduler: sched,
		startedAt: time.Now(),
		version:   version,
	}
}

// Health reports liveness of the service and its dependencies.
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	checks := gin.H{}
	healthy := true

	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			checks["database"] = "down"
			healthy = false
		} else {
			checks["database"] = "up"
		}
	}
	if h.redis != nil {
		if err := h.redis.Ping(c.Request.Context()).Err(); err != nil {
			// The cache is optional; a dead redis degrades reports
			// but does not take the service down.
			checks["redis"] = "down"
		} else {
			checks["redis"] = "up"
		}
	}

	status := "ok"
	code := http.StatusOK
	if !healthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":  status,
		"checks":  checks,
		"uptime":  time.Since(h.startedAt).Round(time.Second).String(),
		"version": h.version,
	})
}

// Info returns service metadata. GET /api/v1/system/info
func (h *SystemHandler) Info(c *gin.Context) {
	h.Success(c, gin.H{
		"name":       "School Fee Management API",
		"version":    h.version,
		"started_at": h.startedAt,
	})
}

// SchedulerStatus returns the daily job runner's state.
// GET /api/v1/system/scheduler
func (h *SystemHandler) SchedulerStatus(c *gin.Context) {
	if h.scheduler == nil {
		h.NotFound(c, "Scheduler is not enabled")
		return
	}
	h.Success(c, h.scheduler.GetStatus())
}

// TriggerScheduler starts an immediate run of the daily jobs.
// POST /api/v1/system/scheduler/run
func (h *SystemHandler) TriggerScheduler(c *gin.Context) {
	if h.scheduler == nil {
		h.NotFound(c, "Scheduler is not enabled")
		return
	}
	if err := h.scheduler.TriggerManualRun(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"message": "Scheduler run triggered"})
}
