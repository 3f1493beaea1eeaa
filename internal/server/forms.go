package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/confeitaria/internal/audit/domain"
	contactdomain "github.com/smallbiznis/confeitaria/internal/contact/domain"
	newsletterdomain "github.com/smallbiznis/confeitaria/internal/newsletter/domain"
	quotedomain "github.com/smallbiznis/confeitaria/internal/quote/domain"
)

type UpdateQuoteStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) SubmitContact(c *gin.Context) {
	var req contactdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	msg, err := s.contactSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "id": msg.ID.String()})
}

func (s *Server) Subscribe(c *gin.Context) {
	var req newsletterdomain.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	sub, err := s.newsletterSvc.Subscribe(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "id": sub.ID.String()})
}

func (s *Server) SubmitQuote(c *gin.Context) {
	var req quotedomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	q, err := s.quoteSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "id": q.ID.String()})
}

func (s *Server) ListSubscribers(c *gin.Context) {
	pageToken, pageSize, err := pageParams(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	activeOnly, err := parseOptionalBool(c.Query("active"))
	if err != nil {
		AbortWithError(c, newValidationError("active", "invalid_active"))
		return
	}

	req := newsletterdomain.ListRequest{PageToken: pageToken, PageSize: pageSize}
	if activeOnly != nil {
		req.ActiveOnly = *activeOnly
	}
	resp, err := s.newsletterSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteSubscriber(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.newsletterSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	s.recordAudit(c, "newsletter_subscriber.deleted", auditdomain.TargetSubscriber, id, nil)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) ListQuotes(c *gin.Context) {
	pageToken, pageSize, err := pageParams(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.quoteSvc.List(c.Request.Context(), quotedomain.ListRequest{
		PageToken: pageToken,
		PageSize:  pageSize,
		Status:    quotedomain.Status(strings.TrimSpace(c.Query("status"))),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateQuoteStatus(c *gin.Context) {
	var req UpdateQuoteStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	q, err := s.quoteSvc.UpdateStatus(c.Request.Context(), id, quotedomain.Status(strings.TrimSpace(req.Status)))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.recordAudit(c, "quote.status_updated", auditdomain.TargetQuote, id, map[string]any{"status": q.Status})
	c.JSON(http.StatusOK, gin.H{"data": q})
}

func (s *Server) ListContactMessages(c *gin.Context) {
	pageToken, pageSize, err := pageParams(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.contactSvc.List(c.Request.Context(), contactdomain.ListRequest{
		PageToken: pageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
