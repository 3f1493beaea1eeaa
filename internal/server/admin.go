package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/confeitaria/internal/audit/domain"
	clientdomain "github.com/smallbiznis/confeitaria/internal/client/domain"
	clientpricedomain "github.com/smallbiznis/confeitaria/internal/clientprice/domain"
	productdomain "github.com/smallbiznis/confeitaria/internal/product/domain"
)

// AdminListProducts includes inactive products and shows default prices only.
func (s *Server) AdminListProducts(c *gin.Context) {
	items, err := s.productSvc.List(c.Request.Context(), productdomain.ListRequest{
		Category:        strings.TrimSpace(c.Query("category")),
		Search:          strings.TrimSpace(c.Query("search")),
		IncludeInactive: true,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) AdminGetProduct(c *gin.Context) {
	item, err := s.productSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) CreateProduct(c *gin.Context) {
	var req productdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	item, err := s.productSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.homepage.Invalidate()
	s.recordAudit(c, "product.created", auditdomain.TargetProduct, item.ID, map[string]any{"name": item.Name})
	c.JSON(http.StatusCreated, gin.H{"data": item})
}

func (s *Server) UpdateProduct(c *gin.Context) {
	var req productdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = strings.TrimSpace(c.Param("id"))

	item, err := s.productSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.homepage.Invalidate()
	s.recordAudit(c, "product.updated", auditdomain.TargetProduct, item.ID, map[string]any{"price_cents": item.PriceCents, "active": item.Active})
	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) DeleteProduct(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.productSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	s.homepage.Invalidate()
	s.recordAudit(c, "product.deleted", auditdomain.TargetProduct, id, nil)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) ListClients(c *gin.Context) {
	pageToken, pageSize, err := pageParams(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	active, err := parseOptionalBool(c.Query("active"))
	if err != nil {
		AbortWithError(c, newValidationError("active", "invalid_active"))
		return
	}

	resp, err := s.clientSvc.List(c.Request.Context(), clientdomain.ListClientRequest{
		PageToken: pageToken,
		PageSize:  pageSize,
		Search:    strings.TrimSpace(c.Query("search")),
		Active:    active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetClient(c *gin.Context) {
	client, err := s.clientSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": client})
}

func (s *Server) UpdateClient(c *gin.Context) {
	var req clientdomain.UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = strings.TrimSpace(c.Param("id"))

	client, err := s.clientSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.recordAudit(c, "client.updated", auditdomain.TargetClient, req.ID, map[string]any{"active": client.Active})
	c.JSON(http.StatusOK, gin.H{"data": client})
}

// ListClientPrices shows every override beside the product's default price.
func (s *Server) ListClientPrices(c *gin.Context) {
	ctx := c.Request.Context()
	items, err := s.clientPriceSvc.List(ctx, strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	rows, err := s.pricing.ClientPrices(ctx, items)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

func (s *Server) UpsertClientPrice(c *gin.Context) {
	var req clientpricedomain.UpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ClientID = strings.TrimSpace(c.Param("id"))

	item, err := s.clientPriceSvc.Upsert(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.recordAudit(c, "client_price.upserted", auditdomain.TargetClientPrice, req.ClientID, map[string]any{
		"product_id":  req.ProductID,
		"price_cents": item.PriceCents,
	})
	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) DeleteClientPrice(c *gin.Context) {
	clientID := strings.TrimSpace(c.Param("id"))
	productID := strings.TrimSpace(c.Param("product_id"))
	if err := s.clientPriceSvc.Delete(c.Request.Context(), clientID, productID); err != nil {
		AbortWithError(c, err)
		return
	}
	s.recordAudit(c, "client_price.deleted", auditdomain.TargetClientPrice, clientID, map[string]any{"product_id": productID})
	c.JSON(http.StatusOK, gin.H{"success": true})
}
