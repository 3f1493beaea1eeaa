package server

import (
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/confeitaria/internal/identity"
)

// authorize gates a route on the casbin policy for the current viewer.
// Anonymous callers get 401 so the UI can send them to the login page.
func (s *Server) authorize(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if !identity.ViewerFromContext(ctx).Authenticated() {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if s.authzSvc == nil {
			AbortWithError(c, ErrForbidden)
			return
		}
		if err := s.authzSvc.Authorize(ctx, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}
