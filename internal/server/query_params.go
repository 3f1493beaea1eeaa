package server

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const maxPageSize = 100

func parseOptionalBool(value string) (*bool, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(trimmed)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parseOptionalInt(value string) (*int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// pageParams reads page_token and page_size. A zero size lets the service
// pick its default.
func pageParams(c *gin.Context) (string, int, error) {
	size, err := parseOptionalInt(c.Query("page_size"))
	if err != nil || (size != nil && (*size < 0 || *size > maxPageSize)) {
		return "", 0, newValidationError("page_size", "invalid_page_size")
	}
	pageSize := 0
	if size != nil {
		pageSize = *size
	}
	return strings.TrimSpace(c.Query("page_token")), pageSize, nil
}
