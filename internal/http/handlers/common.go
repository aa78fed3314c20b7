// Shared helpers for the HTTP handler layer.
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/afrimart/marketplace-backend/internal/http/middleware"
	"github.com/afrimart/marketplace-backend/internal/utils"
)

// userID extracts the authenticated user id from Gin context (set by the auth
// middleware). Protected routes always have one; an empty string means the
// route was mounted without RequireAuth.
func userID(c *gin.Context) string {
	return middleware.UserIDFromCtx(c)
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// newPagination derives the full metadata block from a page request and the
// total row count.
func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.ClampInt(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return
}
