package handler

import (
	"context"
	"net/http"
	"time"

	"ventarapida/internal/repository"
	"ventarapida/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health returns a JSON health check response.
// Checks DB and Redis connectivity and reports the outbox and dead letter
// backlogs; never exposes credentials or internals.
func Health(db *gorm.DB, rdb *redis.Client, outbox repository.OutboxRepository) gin.HandlerFunc {
	dlq := worker.NewDLQ(rdb)
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "connected"
		if rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		body := gin.H{
			"ok":    status == http.StatusOK,
			"db":    dbStatus,
			"redis": redisStatus,
		}
		if n, err := outbox.ContarPendientes(ctx); err == nil {
			body["outbox_pendientes"] = n
		}
		if n, err := dlq.Longitud(ctx, worker.QueueAlertas); err == nil {
			body["dlq_alertas"] = n
		}
		c.JSON(status, body)
	}
}
