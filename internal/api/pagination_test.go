package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/pageza/foodgram/backend/internal/types"
)

func contextFor(target string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c
}

func TestPaginatorRequest(t *testing.T) {
	p := Paginator{DefaultLimit: 6}

	tests := []struct {
		target string
		want   types.PageRequest
	}{
		{"/api/recipes", types.PageRequest{Page: 1, Limit: 6}},
		{"/api/recipes?page=3&limit=2", types.PageRequest{Page: 3, Limit: 2}},
		{"/api/recipes?page=0&limit=-1", types.PageRequest{Page: 1, Limit: 6}},
		{"/api/recipes?page=x&limit=1000", types.PageRequest{Page: 1, Limit: maxPageSize}},
		{"/api/recipes?page=9223372036854775807&limit=100", types.PageRequest{Page: maxPage, Limit: maxPageSize}},
	}
	for _, tt := range tests {
		got := p.Request(contextFor(tt.target))
		assert.Equal(t, tt.want, got, tt.target)
		assert.GreaterOrEqual(t, got.Offset(), 0, tt.target)
	}
}

func TestPageLinks(t *testing.T) {
	c := contextFor("/api/recipes?tags=lunch&page=2&limit=2")
	page := Page(c, types.PageRequest{Page: 2, Limit: 2}, 5, []int{3, 4})

	if assert.NotNil(t, page.Next) {
		assert.Equal(t, "http://example.com/api/recipes?limit=2&page=3&tags=lunch", *page.Next)
	}
	if assert.NotNil(t, page.Previous) {
		assert.Equal(t, "http://example.com/api/recipes?limit=2&page=1&tags=lunch", *page.Previous)
	}

	last := Page(c, types.PageRequest{Page: 3, Limit: 2}, 5, []int(nil))
	assert.Nil(t, last.Next)
	assert.Equal(t, []int{}, last.Results)
}

func TestRecipesLimit(t *testing.T) {
	assert.Equal(t, -1, recipesLimit(contextFor("/x")))
	assert.Equal(t, -1, recipesLimit(contextFor("/x?recipes_limit=-3")))
	assert.Equal(t, 0, recipesLimit(contextFor("/x?recipes_limit=0")))
	assert.Equal(t, 4, recipesLimit(contextFor("/x?recipes_limit=4")))
}
