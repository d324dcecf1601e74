package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/service/settings"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

// Settings resolves the practice settings once per request and attaches the
// value to the request context for the services.
func Settings(p settings.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := p.Get(c.Request.Context())
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		c.Request = c.Request.WithContext(settings.NewContext(c.Request.Context(), s))
		c.Next()
	}
}
