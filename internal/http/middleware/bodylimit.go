package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BodyLimit caps request bodies with http.MaxBytesReader. Routes listed in
// perRoute (keyed by registered route, e.g. "/api/upload") get their own
// cap instead of def; this must run as global middleware so the default
// reader is never stacked under a larger per-route one.
func BodyLimit(def int64, perRoute map[string]int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body == nil {
			c.Next()
			return
		}
		n := def
		if v, ok := perRoute[c.FullPath()]; ok {
			n = v
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}
