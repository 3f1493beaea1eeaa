package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	cartdomain "github.com/smallbiznis/confeitaria/internal/cart/domain"
	"github.com/smallbiznis/confeitaria/internal/identity"
)

type AddCartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  *int   `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity"`
}

func (s *Server) GetCart(c *gin.Context) {
	cart, err := s.cartSvc.Get(c.Request.Context(), cartIDFromContext(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": cart.Summary()})
}

// AddCartItem prices the product for the current viewer once, at the moment
// it enters the cart. Later adds of the same product keep that price.
func (s *Server) AddCartItem(c *gin.Context) {
	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	if quantity < 1 || quantity > cartdomain.MaxQuantity {
		AbortWithError(c, cartdomain.ErrInvalidQuantity)
		return
	}

	ctx := c.Request.Context()
	product, err := s.pricing.Product(ctx, identity.ViewerFromContext(ctx), strings.TrimSpace(req.ProductID))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	productID, err := snowflake.ParseString(product.ID)
	if err != nil {
		AbortWithError(c, cartdomain.ErrInvalidProduct)
		return
	}

	line := cartdomain.Line{
		ProductID:       productID,
		Name:            product.Name,
		UnitPriceCents:  product.PriceCents,
		Category:        product.Category,
		ImageURL:        product.ImageURL,
		WeightGrams:     product.WeightGrams,
		UnitsPerPackage: product.UnitsPerPackage,
	}
	cart, err := s.cartSvc.Add(ctx, cartIDFromContext(c), line, quantity)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": cart.Summary()})
}

func (s *Server) UpdateCartItem(c *gin.Context) {
	productID, ok := cartProductID(c)
	if !ok {
		return
	}

	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
		AbortWithError(c, newValidationError("quantity", "invalid_quantity"))
		return
	}

	cart, err := s.cartSvc.UpdateQuantity(c.Request.Context(), cartIDFromContext(c), productID, *req.Quantity)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": cart.Summary()})
}

func (s *Server) RemoveCartItem(c *gin.Context) {
	productID, ok := cartProductID(c)
	if !ok {
		return
	}

	cart, err := s.cartSvc.Remove(c.Request.Context(), cartIDFromContext(c), productID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": cart.Summary()})
}

func (s *Server) ClearCart(c *gin.Context) {
	if err := s.cartSvc.Clear(c.Request.Context(), cartIDFromContext(c)); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func cartProductID(c *gin.Context) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("product_id")))
	if err != nil || id == 0 {
		AbortWithError(c, cartdomain.ErrInvalidProduct)
		return 0, false
	}
	return id, true
}
