package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const responseMetaKey = "response_meta"

// WithResponseMeta seeds a per-request metadata map and stamps the total
// processing time onto it after the handler chain completes.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Set(responseMetaKey, map[string]interface{}{})

		c.Next()

		meta := metaFor(c)
		if _, set := meta["processing_time_ms"]; !set {
			meta["processing_time_ms"] = time.Since(started).Milliseconds()
		}
	}
}

// SetCacheHit marks whether the response was served from the session cache.
func SetCacheHit(c *gin.Context, hit bool) {
	metaFor(c)["cache_hit"] = hit
}

// ExtractMeta returns the request's metadata map, or nil when none was seeded.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	if v, ok := c.Get(responseMetaKey); ok {
		if meta, ok := v.(map[string]interface{}); ok {
			return meta
		}
	}
	return nil
}

func metaFor(c *gin.Context) map[string]interface{} {
	if meta := ExtractMeta(c); meta != nil {
		return meta
	}
	meta := map[string]interface{}{}
	if c != nil {
		c.Set(responseMetaKey, meta)
	}
	return meta
}
