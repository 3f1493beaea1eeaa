package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/confeitaria/internal/authorization"
	"github.com/smallbiznis/confeitaria/internal/identity"
	productdomain "github.com/smallbiznis/confeitaria/internal/product/domain"
)

const headerRevalidateSecret = "X-Revalidate-Secret"

// ListProducts returns the active catalog priced for whoever is asking.
func (s *Server) ListProducts(c *gin.Context) {
	featured, err := parseOptionalBool(c.Query("featured"))
	if err != nil {
		AbortWithError(c, newValidationError("featured", "invalid_featured"))
		return
	}
	limit, err := parseOptionalInt(c.Query("limit"))
	if err != nil || (limit != nil && *limit < 0) {
		AbortWithError(c, newValidationError("limit", "invalid_limit"))
		return
	}

	filter := productdomain.ListRequest{
		Category: strings.TrimSpace(c.Query("category")),
		Search:   strings.TrimSpace(c.Query("search")),
	}
	if featured != nil {
		filter.FeaturedOnly = *featured
	}
	if limit != nil {
		filter.Limit = *limit
	}

	ctx := c.Request.Context()
	items, err := s.pricing.Catalog(ctx, identity.ViewerFromContext(ctx), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) GetProduct(c *gin.Context) {
	ctx := c.Request.Context()
	item, err := s.pricing.Product(ctx, identity.ViewerFromContext(ctx), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) Homepage(c *gin.Context) {
	page, err := s.homepage.Get(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": page})
}

// Revalidate drops the cached homepage. Callers prove themselves with the
// shared secret header or an admin session.
func (s *Server) Revalidate(c *gin.Context) {
	if !s.revalidateAllowed(c) {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	s.homepage.Invalidate()
	c.JSON(http.StatusOK, gin.H{"success": true, "revalidated": true})
}

func (s *Server) revalidateAllowed(c *gin.Context) bool {
	secret := s.cfg.RevalidateSecret
	provided := strings.TrimSpace(c.GetHeader(headerRevalidateSecret))
	if secret != "" && provided != "" {
		return subtle.ConstantTimeCompare([]byte(secret), []byte(provided)) == 1
	}

	ctx := c.Request.Context()
	if s.authzSvc == nil || !identity.ViewerFromContext(ctx).Authenticated() {
		return false
	}
	return s.authzSvc.Authorize(ctx, authorization.ObjectHomepage, authorization.ActionHomepageRevalidate) == nil
}
