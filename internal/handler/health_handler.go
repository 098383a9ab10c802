package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/tradehaus/wholesale-api/internal/cache"
	"github.com/tradehaus/wholesale-api/internal/utils"
)

// HealthHandler reports service and dependency health.
type HealthHandler struct {
	db    *sqlx.DB
	redis *cache.RedisClient
}

// NewHealthHandler constructs a HealthHandler.
func NewHealthHandler(db *sqlx.DB, redis *cache.RedisClient) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// Health handles GET /v1/health. Returns 503 when a dependency is down.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()

	dbStatus := "ok"
	if err := h.db.PingContext(ctx); err != nil {
		dbStatus = "down"
	}

	redisStatus := "ok"
	if err := h.redis.Ping(ctx); err != nil {
		redisStatus = "down"
	}

	data := gin.H{
		"database":  dbStatus,
		"redis":     redisStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if dbStatus != "ok" || redisStatus != "ok" {
		utils.Error(c, 503, "SERVICE_UNAVAILABLE", "One or more dependencies are down")
		return
	}
	utils.Success(c, 200, "Service healthy", data)
}
