package middleware

import (
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"adminpanel/pkg/logger"
)

// Recovery turns a panic into a 500. A panic unwinds past ErrorHandler, so
// the response is rendered here.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			logger.Error(c.Request.Context(), "panic recovered",
				"panic", rec,
				"method", c.Request.Method,
				"path", c.FullPath(),
				"stack", string(debug.Stack()),
			)
			if !c.Writer.Written() {
				renderInternal(c)
			}
			c.Abort()
		}()
		c.Next()
	}
}
