package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	responseMetaKey  = "response_meta"
	requestStartKey  = "request_start"
	cacheHitKey      = "cache_hit"
	countKey         = "count"
	processingTimeMs = "processing_time_ms"
)

// WithResponseMeta opens a per-request metadata map that handlers fill and ExtractMeta returns.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(requestStartKey, time.Now())
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Next()
	}
}

// SetCacheHit records whether the payload came from the timetable cache.
func SetCacheHit(c *gin.Context, hit bool) {
	ensureMeta(c)[cacheHitKey] = hit
}

// SetCount records the number of items in a list payload.
func SetCount(c *gin.Context, n int) {
	ensureMeta(c)[countKey] = n
}

// ExtractMeta returns the metadata stamped with the elapsed handler time.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	value, exists := c.Get(responseMetaKey)
	if !exists {
		return nil
	}
	meta, ok := value.(map[string]interface{})
	if !ok {
		return nil
	}
	if start, ok := c.Value(requestStartKey).(time.Time); ok {
		meta[processingTimeMs] = time.Since(start).Milliseconds()
	}
	return meta
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	meta := make(map[string]interface{})
	c.Set(responseMetaKey, meta)
	return meta
}
