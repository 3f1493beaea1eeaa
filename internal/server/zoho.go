package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	auditdomain "github.com/smallbiznis/confeitaria/internal/audit/domain"
	"github.com/smallbiznis/confeitaria/internal/identity"
	zohodomain "github.com/smallbiznis/confeitaria/internal/zoho/domain"
)

const zohoStateCookie = "zoho_oauth_state"

// ZohoAuth sends the admin to the Zoho consent page. The state value is
// pinned in a short-lived cookie and checked on the callback.
func (s *Server) ZohoAuth(c *gin.Context) {
	state := uuid.NewString()
	target, err := s.zohoSvc.AuthorizationURL(state)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(zohoStateCookie, state, 600, "/api/zoho", "", s.cfg.AuthCookieSecure, true)
	c.Redirect(http.StatusFound, target)
}

func (s *Server) ZohoCallback(c *gin.Context) {
	if errParam := strings.TrimSpace(c.Query("error")); errParam != "" {
		AbortWithError(c, zohodomain.ErrAuthRequired)
		return
	}

	expected, _ := c.Cookie(zohoStateCookie)
	state := strings.TrimSpace(c.Query("state"))
	if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(state)) != 1 {
		AbortWithError(c, newValidationError("state", "invalid_state"))
		return
	}
	c.SetCookie(zohoStateCookie, "", -1, "/api/zoho", "", s.cfg.AuthCookieSecure, true)

	viewer := identity.ViewerFromContext(c.Request.Context())
	conn, err := s.zohoSvc.Connect(c.Request.Context(), viewer.UserID, strings.TrimSpace(c.Query("code")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.recordAudit(c, "zoho.connected", auditdomain.TargetZoho, viewer.UserID.String(), map[string]any{"scopes": conn.Scopes})
	c.JSON(http.StatusOK, gin.H{"data": conn})
}

func (s *Server) ZohoStatus(c *gin.Context) {
	viewer := identity.ViewerFromContext(c.Request.Context())
	conn, err := s.zohoSvc.Status(c.Request.Context(), viewer.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": conn})
}

// ZohoAccounts proxies the organization account list. Upstream failures keep
// their status code.
func (s *Server) ZohoAccounts(c *gin.Context) {
	viewer := identity.ViewerFromContext(c.Request.Context())
	accounts, err := s.zohoSvc.ListAccounts(c.Request.Context(), viewer.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": accounts})
}
