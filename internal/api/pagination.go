package api

import (
	"math"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/types"
)

const (
	maxPageSize = 100
	// maxPage keeps (page-1)*limit within a 32-bit offset.
	maxPage = math.MaxInt32 / maxPageSize
)

// Paginator reads page/limit query parameters and builds response envelopes.
type Paginator struct {
	DefaultLimit int
}

// Request parses page (1-based) and limit. Invalid values fall back to the
// defaults.
func (p Paginator) Request(c *gin.Context) types.PageRequest {
	req := types.PageRequest{Page: 1, Limit: p.DefaultLimit}
	if req.Limit <= 0 {
		req.Limit = 6
	}
	if n, err := strconv.Atoi(c.Query("page")); err == nil && n > 0 {
		req.Page = min(n, maxPage)
	}
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 {
		req.Limit = min(n, maxPageSize)
	}
	return req
}

// Page wraps results with the total count and neighbour links.
func Page[T any](c *gin.Context, req types.PageRequest, count int64, results []T) types.Page[T] {
	if results == nil {
		results = []T{}
	}
	page := types.Page[T]{Count: count, Results: results}

	if int64(req.Page*req.Limit) < count {
		next := pageURL(c, req.Page+1, req.Limit)
		page.Next = &next
	}
	if req.Page > 1 {
		prev := pageURL(c, req.Page-1, req.Limit)
		page.Previous = &prev
	}
	return page
}

func pageURL(c *gin.Context, page, limit int) string {
	u := url.URL{
		Scheme: requestScheme(c),
		Host:   c.Request.Host,
		Path:   c.Request.URL.Path,
	}
	q := c.Request.URL.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()
	return u.String()
}

func requestScheme(c *gin.Context) string {
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if c.Request.TLS != nil {
		return "https"
	}
	return "http"
}

// baseURL is the absolute origin of the request.
func baseURL(c *gin.Context) string {
	return requestScheme(c) + "://" + c.Request.Host
}

// recipesLimit parses recipes_limit. Anything but a non-negative integer
// means no limit.
func recipesLimit(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("recipes_limit"))
	if err != nil || n < 0 {
		return -1
	}
	return n
}

func parseID(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
