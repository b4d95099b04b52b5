package helpers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolbook/internal/app/models/dto"
)

const (
	DefaultPageSize = 25
	MaxPageSize     = 200
	DefaultPage     = 1
)

// clampPage normalizes a 1-based page number and a page size
func clampPage(page, size int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if size < 1 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return page, size
}

// CalculateOffsetLimit turns a 1-based page into an SQL offset and limit
func CalculateOffsetLimit(page, size int) (offset, limit int) {
	page, limit = clampPage(page, size)
	return (page - 1) * limit, limit
}

// NewPaginationInfo describes page of a listing holding totalItems rows.
// An empty listing still has one page. A page past the end is reported as
// requested, matching the empty slice CalculateOffsetLimit selects for it.
func NewPaginationInfo(totalItems int64, page, size int) dto.PaginationInfo {
	page, size = clampPage(page, size)

	pages := int((totalItems + int64(size) - 1) / int64(size))
	if pages == 0 {
		pages = 1
	}

	return dto.PaginationInfo{
		CurrentPage: page,
		TotalPages:  pages,
		PageSize:    size,
		TotalItems:  totalItems,
	}
}

// ParsePaginationParams reads ?page= and ?pageSize=, falling back to defaults
func ParsePaginationParams(c *gin.Context) (page, size int) {
	page, _ = strconv.Atoi(c.Query("page"))
	size, _ = strconv.Atoi(c.Query("pageSize"))
	return clampPage(page, size)
}
