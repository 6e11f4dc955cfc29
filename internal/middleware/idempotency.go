package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go-backoffice/internal/shared/apperror"
	"go-backoffice/internal/shared/contextutil"
	"go-backoffice/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	IdempotencyHeader = "Idempotency-Key"

	idempotencyCacheKeyCtx = "idempotency_cache_key"
	idempotencyLockKeyCtx  = "idempotency_lock_key"
)

// Idempotency replays the stored result of a POST that already completed
// with the same key, and rejects a duplicate while the first is in flight.
// Handlers finish the protocol with CompleteIdempotent.
func Idempotency(rdb *redis.Client, lockTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		idempKey := c.GetHeader(IdempotencyHeader)
		if idempKey == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		userID := c.GetString("user_id_validated")
		cacheKey := fmt.Sprintf("idemp:%s:%s:%s", c.FullPath(), userID, idempKey)
		lockKey := cacheKey + ":lock"

		val, err := rdb.Get(ctx, cacheKey).Result()
		if err == nil {
			var cached json.RawMessage = []byte(val)
			response.Success(c, http.StatusOK, cached, nil)
			c.Abort()
			return
		}

		// The lock expires on its own if the process dies mid-request.
		isNew, err := rdb.SetNX(ctx, lockKey, "locked", lockTTL).Result()
		if err != nil {
			contextutil.GetLogger(ctx, zap.L()).Warn("idempotency lock unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !isNew {
			abortWith(c, apperror.ErrRequestInProgress)
			return
		}

		c.Set(idempotencyCacheKeyCtx, cacheKey)
		c.Set(idempotencyLockKeyCtx, lockKey)

		c.Next()
	}
}

// CompleteIdempotent releases the lock taken by Idempotency and, when result
// is non-nil, stores it for replay.
func CompleteIdempotent(c *gin.Context, rdb *redis.Client, result any, ttl time.Duration) {
	if rdb == nil {
		return
	}
	ctx := c.Request.Context()
	logger := contextutil.GetLogger(ctx, zap.L())

	if result != nil {
		if cacheKey := c.GetString(idempotencyCacheKeyCtx); cacheKey != "" {
			if payload, err := json.Marshal(result); err == nil {
				if err := rdb.Set(ctx, cacheKey, payload, ttl).Err(); err != nil {
					logger.Warn("idempotency result not stored", zap.String("key", cacheKey), zap.Error(err))
				}
			}
		}
	}

	if lockKey := c.GetString(idempotencyLockKeyCtx); lockKey != "" {
		if err := rdb.Del(ctx, lockKey).Err(); err != nil {
			logger.Warn("idempotency lock not released", zap.String("key", lockKey), zap.Error(err))
		}
	}
}
