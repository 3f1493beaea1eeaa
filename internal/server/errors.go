package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/confeitaria/internal/auth/domain"
	"github.com/smallbiznis/confeitaria/internal/authorization"
	cartdomain "github.com/smallbiznis/confeitaria/internal/cart/domain"
	clientdomain "github.com/smallbiznis/confeitaria/internal/client/domain"
	clientpricedomain "github.com/smallbiznis/confeitaria/internal/clientprice/domain"
	contactdomain "github.com/smallbiznis/confeitaria/internal/contact/domain"
	newsletterdomain "github.com/smallbiznis/confeitaria/internal/newsletter/domain"
	orderdomain "github.com/smallbiznis/confeitaria/internal/order/domain"
	productdomain "github.com/smallbiznis/confeitaria/internal/product/domain"
	quotedomain "github.com/smallbiznis/confeitaria/internal/quote/domain"
	"github.com/smallbiznis/confeitaria/internal/ratelimit"
	zohodomain "github.com/smallbiznis/confeitaria/internal/zoho/domain"
	"github.com/smallbiznis/confeitaria/pkg/db/pagination"
	"gorm.io/gorm"
)

// ValidationErrors maps a field name to a machine readable code.
type ValidationErrors struct {
	Fields map[string]string
}

func (v *ValidationErrors) Error() string {
	return "validation error"
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, payload)
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request")
}

func newValidationError(field, code string) error {
	return &ValidationErrors{Fields: map[string]string{field: code}}
}

func mapError(err error) (int, errorResponse) {
	if err == nil {
		return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorResponse{Error: "validation error", Fields: vErr.Fields}
	}

	if fields := validationFields(err); len(fields) > 0 {
		return http.StatusBadRequest, errorResponse{Error: "validation error", Fields: fields}
	}

	var upstream *zohodomain.UpstreamError
	if errors.As(err, &upstream) && upstream.Status >= 400 {
		return upstream.Status, errorResponse{Error: upstream.Error()}
	}

	switch {
	case errors.Is(err, zohodomain.ErrAuthRequired):
		return http.StatusUnauthorized, errorResponse{Error: zohodomain.ErrAuthRequired.Error()}
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrInvalidSession),
		errors.Is(err, authdomain.ErrSessionNotFound),
		errors.Is(err, authdomain.ErrSessionExpired),
		errors.Is(err, authdomain.ErrSessionRevoked):
		return http.StatusUnauthorized, errorResponse{Error: "unauthorized"}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, authorization.ErrInvalidActor),
		errors.Is(err, orderdomain.ErrNoClient):
		return http.StatusForbidden, errorResponse{Error: "forbidden"}
	case errors.Is(err, ErrConflict),
		errors.Is(err, authdomain.ErrUserExists):
		return http.StatusConflict, errorResponse{Error: "conflict"}
	case errors.Is(err, ratelimit.ErrSubmitInProgress):
		return http.StatusConflict, errorResponse{Error: "order submission already in progress"}
	case isNotFoundError(err):
		return http.StatusNotFound, errorResponse{Error: "not found"}
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, zohodomain.ErrNotConfigured):
		return http.StatusServiceUnavailable, errorResponse{Error: "service unavailable"}
	default:
		return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

// validationFields flattens joined domain errors into field codes. It is
// empty unless every leaf is a known validation error.
func validationFields(err error) map[string]string {
	leaves := flatten(err)
	fields := make(map[string]string, len(leaves))
	for _, leaf := range leaves {
		if !isValidationError(leaf) {
			return nil
		}
		code := validationErrorCode(leaf)
		fields[validationErrorField(code)] = code
	}
	return fields
}

func flatten(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []error{err}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, pagination.ErrInvalidPageToken),
		errors.Is(err, authdomain.ErrInvalidEmail),
		errors.Is(err, authdomain.ErrWeakPassword),
		errors.Is(err, authdomain.ErrInvalidRole),
		errors.Is(err, zohodomain.ErrInvalidCode):
		return true
	case isProductValidationError(err),
		isClientValidationError(err),
		isClientPriceValidationError(err),
		isCartValidationError(err),
		isOrderValidationError(err),
		isFormValidationError(err):
		return true
	default:
		return false
	}
}

func isProductValidationError(err error) bool {
	switch {
	case errors.Is(err, productdomain.ErrInvalidName),
		errors.Is(err, productdomain.ErrInvalidPrice),
		errors.Is(err, productdomain.ErrInvalidSlug),
		errors.Is(err, productdomain.ErrInvalidID):
		return true
	default:
		return false
	}
}

func isClientValidationError(err error) bool {
	switch {
	case errors.Is(err, clientdomain.ErrInvalidUser),
		errors.Is(err, clientdomain.ErrInvalidEmail),
		errors.Is(err, clientdomain.ErrInvalidID):
		return true
	default:
		return false
	}
}

func isClientPriceValidationError(err error) bool {
	switch {
	case errors.Is(err, clientpricedomain.ErrInvalidClient),
		errors.Is(err, clientpricedomain.ErrInvalidProduct),
		errors.Is(err, clientpricedomain.ErrInvalidPrice):
		return true
	default:
		return false
	}
}

func isCartValidationError(err error) bool {
	switch {
	case errors.Is(err, cartdomain.ErrInvalidQuantity),
		errors.Is(err, cartdomain.ErrInvalidProduct),
		errors.Is(err, cartdomain.ErrInvalidCart):
		return true
	default:
		return false
	}
}

func isOrderValidationError(err error) bool {
	switch {
	case errors.Is(err, orderdomain.ErrEmptyCart),
		errors.Is(err, orderdomain.ErrInvalidContactName),
		errors.Is(err, orderdomain.ErrInvalidEmail),
		errors.Is(err, orderdomain.ErrInvalidPhone),
		errors.Is(err, orderdomain.ErrInvalidQuantity),
		errors.Is(err, orderdomain.ErrInvalidStatus),
		errors.Is(err, orderdomain.ErrInvalidID):
		return true
	default:
		return false
	}
}

func isFormValidationError(err error) bool {
	switch {
	case errors.Is(err, newsletterdomain.ErrInvalidEmail),
		errors.Is(err, newsletterdomain.ErrInvalidID),
		errors.Is(err, quotedomain.ErrInvalidName),
		errors.Is(err, quotedomain.ErrInvalidEmail),
		errors.Is(err, quotedomain.ErrInvalidStatus),
		errors.Is(err, quotedomain.ErrInvalidID),
		errors.Is(err, contactdomain.ErrInvalidName),
		errors.Is(err, contactdomain.ErrInvalidEmail),
		errors.Is(err, contactdomain.ErrInvalidMessage):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, productdomain.ErrNotFound),
		errors.Is(err, clientdomain.ErrNotFound),
		errors.Is(err, clientpricedomain.ErrNotFound),
		errors.Is(err, orderdomain.ErrNotFound),
		errors.Is(err, newsletterdomain.ErrNotFound),
		errors.Is(err, quotedomain.ErrNotFound),
		errors.Is(err, authdomain.ErrUserNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, authdomain.ErrWeakPassword):
		return "password_too_short"
	case errors.Is(err, pagination.ErrInvalidPageToken):
		return "invalid_page_token"
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	switch code {
	case "invalid_request":
		return "request"
	case "password_too_short":
		return "password"
	case "invalid_page_token":
		return "page_token"
	case "invalid_items":
		return "items"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return code
}

// classifyErrorForLog feeds the request logger with the same classes the
// client sees.
func classifyErrorForLog(err error) (string, string) {
	status, _ := mapError(err)
	switch {
	case status == http.StatusBadRequest:
		return "validation", "validation_error"
	case status == http.StatusUnauthorized:
		return "auth", "unauthorized"
	case status == http.StatusForbidden:
		return "auth", "forbidden"
	case status == http.StatusNotFound:
		return "client", "not_found"
	case status == http.StatusConflict:
		return "client", "conflict"
	case status >= 500:
		return "internal", "internal_error"
	default:
		return "upstream", "upstream_error"
	}
}
