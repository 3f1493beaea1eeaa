package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/confeitaria/internal/auth/domain"
	clientdomain "github.com/smallbiznis/confeitaria/internal/client/domain"
	"github.com/smallbiznis/confeitaria/internal/identity"
	"go.uber.org/zap"
)

type SignupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	ContactName string `json:"contact_name"`
	CompanyName string `json:"company_name"`
	Phone       string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	NewPassword string `json:"new_password"`
}

type meResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	ClientID    string `json:"client_id,omitempty"`
}

// Signup registers a shop customer, links the client record and signs the
// new user in.
func (s *Server) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ctx := c.Request.Context()
	email := strings.TrimSpace(req.Email)
	user, err := s.authsvc.CreateUser(ctx, authdomain.CreateUserRequest{
		Email:       email,
		Password:    req.Password,
		DisplayName: strings.TrimSpace(req.ContactName),
		Role:        identity.RoleClient,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if _, err := s.clientSvc.EnsureForUser(ctx, clientdomain.EnsureClientRequest{
		UserID:      user.ID,
		Email:       user.Email,
		ContactName: strings.TrimSpace(req.ContactName),
		CompanyName: strings.TrimSpace(req.CompanyName),
		Phone:       strings.TrimSpace(req.Phone),
	}); err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.authsvc.Login(ctx, authdomain.LoginRequest{
		Email:     email,
		Password:  req.Password,
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.sessions.Set(c, result.RawToken, result.ExpiresAt)

	c.JSON(http.StatusCreated, gin.H{"data": toMe(result.User, 0)})
}

func (s *Server) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.authsvc.Login(c.Request.Context(), authdomain.LoginRequest{
		Email:     strings.TrimSpace(req.Email),
		Password:  req.Password,
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, result.RawToken, result.ExpiresAt)
	c.JSON(http.StatusOK, gin.H{"data": toMe(result.User, 0)})
}

func (s *Server) Logout(c *gin.Context) {
	if token, ok := s.sessions.ReadToken(c); ok {
		if err := s.authsvc.Logout(c.Request.Context(), token); err != nil {
			s.log.Warn("logout failed", zap.Error(err))
		}
	}
	s.sessions.Clear(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) Me(c *gin.Context) {
	user, ok := sessionUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	viewer := identity.ViewerFromContext(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"data": toMe(user, viewer.ClientID)})
}

func (s *Server) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.NewPassword) == "" {
		AbortWithError(c, newValidationError("new_password", "required"))
		return
	}

	viewer := identity.ViewerFromContext(c.Request.Context())
	if err := s.authsvc.ChangePassword(c.Request.Context(), viewer.UserID, req.NewPassword); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func sessionUser(c *gin.Context) (*authdomain.User, bool) {
	value, ok := c.Get(contextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := value.(*authdomain.User)
	return user, ok && user != nil
}

func toMe(user *authdomain.User, clientID snowflake.ID) meResponse {
	resp := meResponse{}
	if user == nil {
		return resp
	}
	resp.ID = user.ID.String()
	resp.Email = user.Email
	resp.DisplayName = user.DisplayName
	resp.Role = user.Role
	if clientID != 0 {
		resp.ClientID = clientID.String()
	}
	return resp
}
