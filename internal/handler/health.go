package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health reports reachability of postgres and redis. The body is a fixed
// three-field object; connection details never leak into it.
func Health(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		pgOK := false
		if sqlDB, err := db.DB(); err == nil && sqlDB.PingContext(ctx) == nil {
			pgOK = true
		}
		redisOK := rdb.Ping(ctx).Err() == nil

		code := http.StatusOK
		if !pgOK || !redisOK {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"ok":    code == http.StatusOK,
			"db":    statusWord(pgOK),
			"redis": statusWord(redisOK),
		})
	}
}

func statusWord(ok bool) string {
	if ok {
		return "connected"
	}
	return "error"
}
