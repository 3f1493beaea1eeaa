package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/confeitaria/internal/audit/domain"
	cartservice "github.com/smallbiznis/confeitaria/internal/cart/service"
	"github.com/smallbiznis/confeitaria/internal/identity"
	obscontext "github.com/smallbiznis/confeitaria/internal/observability/context"
	"go.uber.org/zap"
)

const (
	contextCartIDKey = "cart_id"
	contextUserKey   = "session_user"
)

// Viewer resolves the session cookie into an identity.Viewer on the request
// context. Missing or stale sessions leave the request anonymous.
func (s *Server) Viewer() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(auditdomain.WithRequest(c.Request.Context(), c.ClientIP(), c.Request.UserAgent()))

		token, ok := s.sessions.ReadToken(c)
		if !ok {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		principal, err := s.authsvc.Authenticate(ctx, token)
		if err != nil || principal == nil || principal.User == nil {
			s.sessions.Clear(c)
			c.Next()
			return
		}

		viewer := identity.Viewer{
			UserID: principal.User.ID,
			Role:   principal.User.Role,
			Email:  principal.User.Email,
		}
		if viewer.Role == identity.RoleClient {
			clientID, err := s.clientSvc.ActiveClientID(ctx, viewer.UserID)
			if err != nil {
				// Pricing degrades to defaults; the request itself still succeeds.
				s.log.Warn("active client lookup failed",
					zap.String("user_id", viewer.UserID.String()),
					zap.Error(err),
				)
			} else {
				viewer.ClientID = clientID
			}
		}

		c.Set(contextUserKey, principal.User)
		ctx = identity.WithViewer(ctx, viewer)
		ctx = obscontext.WithActor(ctx, viewer.Role, viewer.UserID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *Server) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !identity.ViewerFromContext(c.Request.Context()).Authenticated() {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}

// Cart makes sure the request carries a well formed cart id, issuing a new
// cookie when it does not.
func (s *Server) Cart() gin.HandlerFunc {
	return func(c *gin.Context) {
		cartID, ok := s.sessions.ReadCartID(c)
		if !ok || !cartservice.ValidCartID(cartID) {
			cartID = cartservice.NewCartID()
		}
		s.sessions.SetCartID(c, cartID)
		c.Set(contextCartIDKey, cartID)
		c.Next()
	}
}

func cartIDFromContext(c *gin.Context) string {
	return c.GetString(contextCartIDKey)
}

// PublicRateLimit throttles anonymous write endpoints per client IP.
func (s *Server) PublicRateLimit(endpoint string) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := s.limiter.Allow(c.Request.Context(), c.ClientIP(), endpoint)
		if res == nil || res.Allowed {
			c.Next()
			return
		}

		retryAfter := int(res.RetryAfter.Round(time.Second) / time.Second)
		if retryAfter < 1 {
			retryAfter = 1
		}
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{Error: "too many requests"})
	}
}
