package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	allowHeaders  = "Authorization, Content-Type, X-Request-ID"
	allowMethods  = "GET, POST, PUT, DELETE, OPTIONS"
	exposeHeaders = "Content-Disposition, X-Request-ID"
)

// New returns a CORS middleware. An empty origin list allows any origin.
func New(allowedOrigins []string) gin.HandlerFunc {
	originSet := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		originSet[normalize(origin)] = struct{}{}
	}
	allowAll := len(originSet) == 0

	return func(c *gin.Context) {
		header := c.Writer.Header()
		header.Add("Vary", "Origin")

		origin := c.GetHeader("Origin")
		allowed := false
		switch {
		case origin == "" && allowAll:
			header.Set("Access-Control-Allow-Origin", "*")
		case origin != "":
			_, listed := originSet[normalize(origin)]
			allowed = allowAll || listed
			if allowed {
				header.Set("Access-Control-Allow-Origin", origin)
				header.Set("Access-Control-Allow-Credentials", "true")
			}
		}
		header.Set("Access-Control-Expose-Headers", exposeHeaders)

		if c.Request.Method == http.MethodOptions {
			if origin != "" && !allowed {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			header.Set("Access-Control-Allow-Headers", allowHeaders)
			header.Set("Access-Control-Allow-Methods", allowMethods)
			header.Set("Access-Control-Max-Age", "600")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func normalize(origin string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
}
