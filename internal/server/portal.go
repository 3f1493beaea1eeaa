package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	clientdomain "github.com/smallbiznis/confeitaria/internal/client/domain"
	"github.com/smallbiznis/confeitaria/internal/identity"
	orderdomain "github.com/smallbiznis/confeitaria/internal/order/domain"
	productdomain "github.com/smallbiznis/confeitaria/internal/product/domain"
)

// PortalCatalog is the catalog as the signed-in client sees it, with
// negotiated prices applied.
func (s *Server) PortalCatalog(c *gin.Context) {
	ctx := c.Request.Context()
	items, err := s.pricing.Catalog(ctx, identity.ViewerFromContext(ctx), productdomain.ListRequest{
		Category: strings.TrimSpace(c.Query("category")),
		Search:   strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) PortalOrders(c *gin.Context) {
	pageToken, pageSize, err := pageParams(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.orderSvc.ListForClient(c.Request.Context(), orderdomain.ListRequest{
		PageToken: pageToken,
		PageSize:  pageSize,
		Status:    strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) PortalProfile(c *gin.Context) {
	viewer := identity.ViewerFromContext(c.Request.Context())
	client, err := s.clientSvc.Profile(c.Request.Context(), viewer.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": client})
}

func (s *Server) UpdatePortalProfile(c *gin.Context) {
	var req clientdomain.ProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	viewer := identity.ViewerFromContext(c.Request.Context())
	client, err := s.clientSvc.UpdateProfile(c.Request.Context(), viewer.UserID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": client})
}
