package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db      *gorm.DB
	redis   *redis.Client
	gateway Gateway
	hub     interface{ Stats() map[string]int }
}

// NewHealthHandler takes optional dependencies; nil ones are reported as
// disabled.
func NewHealthHandler(db *gorm.DB, rdb *redis.Client, gateway Gateway, hub interface{ Stats() map[string]int }) *HealthHandler {
	return &HealthHandler{db: db, redis: rdb, gateway: gateway, hub: hub}
}

// GET /ping
func (h *HealthHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// GET /health
// The database is required; Redis and the model key only mark the service
// as degraded.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	response := gin.H{
		"status":    "ok",
		"message":   "Service is healthy",
		"timestamp": time.Now().Unix(),
		"db":        "ok",
		"redis":     "disabled",
		"gemini":    "ok",
	}
	if h.hub != nil {
		response["websocket"] = gin.H{"enabled": true, "stats": h.hub.Stats()}
	}

	if h.gateway == nil || !h.gateway.Configured() {
		response["gemini"] = "missing api key"
		response["status"] = "degraded"
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			response["redis"] = "error: cannot connect to Redis"
			response["status"] = "degraded"
		} else {
			response["redis"] = "ok"
		}
	}

	if h.db == nil {
		response["db"] = "error: no database"
		response["status"] = "degraded"
		c.JSON(http.StatusInternalServerError, response)
		return
	}
	sqlDB, err := h.db.DB()
	if err != nil {
		response["db"] = "error: cannot get DB instance"
		response["status"] = "degraded"
		c.JSON(http.StatusInternalServerError, response)
		return
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		response["db"] = "error: cannot connect to DB"
		response["status"] = "degraded"
		c.JSON(http.StatusInternalServerError, response)
		return
	}

	c.JSON(http.StatusOK, response)
}
