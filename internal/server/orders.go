package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/confeitaria/internal/audit/domain"
	orderdomain "github.com/smallbiznis/confeitaria/internal/order/domain"
	"go.uber.org/zap"
)

type SubmitOrderRequest struct {
	orderdomain.Contact
	Message string `json:"message"`
}

// SubmitOrder snapshots the session cart into an order and empties the cart.
func (s *Server) SubmitOrder(c *gin.Context) {
	var req SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ctx := c.Request.Context()
	cartID := cartIDFromContext(c)

	release, err := s.submitGuard.Acquire(ctx, cartID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer release()

	cart, err := s.cartSvc.Get(ctx, cartID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	order, err := s.orderSvc.Submit(ctx, orderdomain.SubmitRequest{
		Contact: req.Contact,
		Items:   cart.Lines,
		Message: req.Message,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.cartSvc.Clear(ctx, cartID); err != nil {
		s.log.Warn("clear cart after order",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"id":      order.ID.String(),
		"data":    order,
	})
}

func (s *Server) ListOrders(c *gin.Context) {
	pageToken, pageSize, err := pageParams(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.orderSvc.List(c.Request.Context(), orderdomain.ListRequest{
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

func (s *Server) GetOrder(c *gin.Context) {
	order, err := s.orderSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": order})
}

func (s *Server) UpdateOrderStatus(c *gin.Context) {
	var req orderdomain.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = strings.TrimSpace(c.Param("id"))

	order, err := s.orderSvc.UpdateStatus(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.recordAudit(c, "order.status_updated", auditdomain.TargetOrder, req.ID, map[string]any{"status": req.Status})
	c.JSON(http.StatusOK, gin.H{"data": order})
}

func (s *Server) OrderPDF(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	body, err := s.orderSvc.RenderPDF(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=\"pedido-%s.pdf\"", id))
	c.Data(http.StatusOK, "application/pdf", body)
}
