// internal/utils/pagination.go
package utils

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type PaginationParams struct {
	Page     int    `json:"page"`
	Limit    int    `json:"limit"`
	Category string `json:"category"`
}

type PaginationResult struct {
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	Total      int64       `json:"total"`
	TotalPages int         `json:"total_pages"`
	Data       interface{} `json:"data"`
}

// GetPaginationParams reads page/limit from the query. Paging is opt-in: without a
// page parameter the returned params have Page 0 and listings return everything.
func GetPaginationParams(c *gin.Context) PaginationParams {
	params := PaginationParams{Category: c.Query("category")}

	pageStr, ok := c.GetQuery("page")
	if !ok {
		return params
	}

	page, _ := strconv.Atoi(pageStr)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageLimit)))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxPageLimit {
		limit = defaultPageLimit
	}

	params.Page = page
	params.Limit = limit
	return params
}

func (p PaginationParams) Enabled() bool {
	return p.Page > 0
}

func CreatePaginationResult(data interface{}, total int64, params PaginationParams) PaginationResult {
	totalPages := int(math.Ceil(float64(total) / float64(params.Limit)))

	return PaginationResult{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: totalPages,
		Data:       data,
	}
}

func SetPaginationHeaders(c *gin.Context, result PaginationResult) {
	c.Header("X-Total-Count", strconv.FormatInt(result.Total, 10))
	c.Header("X-Page", strconv.Itoa(result.Page))
	c.Header("X-Per-Page", strconv.Itoa(result.Limit))
	c.Header("X-Total-Pages", strconv.Itoa(result.TotalPages))
}

// ListResponse writes a plain list, or a paginated one when paging was requested.
func ListResponse(c *gin.Context, data interface{}, total int64, params PaginationParams) {
	if !params.Enabled() {
		SuccessResponse(c, data)
		return
	}
	PaginatedResponse(c, CreatePaginationResult(data, total, params))
}
