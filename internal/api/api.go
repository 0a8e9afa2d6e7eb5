// Package api holds the gin handlers of the /api surface.
package api

import (
	"github.com/gin-gonic/gin"
)

// Guards are the per-route middlewares handlers attach when registering routes
type Guards struct {
	// Required rejects anonymous callers
	Required gin.HandlerFunc
	// Optional identifies the caller when a token is present
	Optional gin.HandlerFunc
	// CreateLimit and ModifyLimit throttle recipe writes; nil disables them
	CreateLimit gin.HandlerFunc
	ModifyLimit gin.HandlerFunc
}

func chain(handlers ...gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}
