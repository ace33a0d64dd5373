package api_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

func TestRecipeEndpoints(t *testing.T) {
	a := newTestAPI(t)
	author := testhelpers.CreateUser(t, a.db, "author")
	reader := testhelpers.CreateUser(t, a.db, "reader")
	flour := testhelpers.CreateIngredient(t, a.db, "flour", "g")
	eggs := testhelpers.CreateIngredient(t, a.db, "eggs", "pcs")
	tag := testhelpers.CreateTag(t, a.db, "breakfast")

	authorToken := a.token(author)
	readerToken := a.token(reader)

	payload := map[string]interface{}{
		"name":         "Pancakes",
		"text":         "Whisk and fry.",
		"cooking_time": 20,
		"image":        "data:image/png;base64," + pixelPNG,
		"tags":         []uint{tag.ID},
		"ingredients": []map[string]interface{}{
			{"id": flour.ID, "amount": 200},
			{"id": eggs.ID, "amount": 2},
		},
	}

	t.Run("create requires a token", func(t *testing.T) {
		w := a.do(http.MethodPost, "/api/recipes", payload, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	w := a.do(http.MethodPost, "/api/recipes", payload, authorToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[types.RecipeView](t, w)
	assert.Equal(t, "Pancakes", created.Name)
	assert.Len(t, created.Ingredients, 2)
	recipePath := fmt.Sprintf("/api/recipes/%d", created.ID)

	t.Run("duplicate ingredient", func(t *testing.T) {
		dup := map[string]interface{}{}
		for k, v := range payload {
			dup[k] = v
		}
		dup["ingredients"] = []map[string]interface{}{
			{"id": flour.ID, "amount": 1},
			{"id": flour.ID, "amount": 2},
		}
		w := a.do(http.MethodPost, "/api/recipes", dup, authorToken)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decode[map[string][]string](t, w)
		assert.Contains(t, body["ingredients"], types.MsgDuplicateIngredient)
		assert.Equal(t, int64(1), testhelpers.Count(t, a.db, &models.Recipe{}))
	})

	t.Run("unknown ingredient", func(t *testing.T) {
		bad := map[string]interface{}{}
		for k, v := range payload {
			bad[k] = v
		}
		bad["ingredients"] = []map[string]interface{}{{"id": 999, "amount": 1}}
		w := a.do(http.MethodPost, "/api/recipes", bad, authorToken)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "object with id 999 does not exist")
	})

	t.Run("anonymous read has every flag false", func(t *testing.T) {
		w := a.do(http.MethodGet, recipePath, nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		view := decode[types.RecipeView](t, w)
		assert.False(t, view.IsFavorited)
		assert.False(t, view.IsInShoppingCart)
		assert.False(t, view.Author.IsSubscribed)
	})

	t.Run("patch by another user is forbidden", func(t *testing.T) {
		w := a.do(http.MethodPatch, recipePath, map[string]interface{}{"name": "Mine"}, readerToken)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("patch replaces ingredients", func(t *testing.T) {
		w := a.do(http.MethodPatch, recipePath, map[string]interface{}{
			"ingredients": []map[string]interface{}{{"id": eggs.ID, "amount": 4}},
		}, authorToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		view := decode[types.RecipeView](t, w)
		assert.Equal(t, []types.IngredientInRecipe{{ID: eggs.ID, Name: "eggs", MeasurementUnit: "pcs", Amount: 4}}, view.Ingredients)
	})

	t.Run("favorite and cart", func(t *testing.T) {
		w := a.do(http.MethodPost, recipePath+"/favorite", nil, readerToken)
		require.Equal(t, http.StatusCreated, w.Code)
		short := decode[types.RecipeShortView](t, w)
		assert.Equal(t, created.ID, short.ID)

		w = a.do(http.MethodPost, recipePath+"/favorite", nil, readerToken)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode[map[string]string](t, w), "errors")

		w = a.do(http.MethodPost, recipePath+"/shopping_cart", nil, readerToken)
		require.Equal(t, http.StatusCreated, w.Code)

		w = a.do(http.MethodGet, recipePath, nil, readerToken)
		view := decode[types.RecipeView](t, w)
		assert.True(t, view.IsFavorited)
		assert.True(t, view.IsInShoppingCart)

		w = a.do(http.MethodGet, "/api/recipes?is_favorited=1", nil, readerToken)
		page := decode[types.Page[types.RecipeView]](t, w)
		assert.Equal(t, int64(1), page.Count)

		w = a.do(http.MethodDelete, recipePath+"/favorite", nil, readerToken)
		assert.Equal(t, http.StatusNoContent, w.Code)
		w = a.do(http.MethodDelete, recipePath+"/favorite", nil, readerToken)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = a.do(http.MethodPost, "/api/recipes/999/favorite", nil, readerToken)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("download shopping cart", func(t *testing.T) {
		w := a.do(http.MethodGet, "/api/recipes/download_shopping_cart", nil, readerToken)
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain"))
		assert.Equal(t, `attachment; filename="shopping_cart.txt"`, w.Header().Get("Content-Disposition"))
		assert.Equal(t, "eggs (pcs) — 4", w.Body.String())

		w = a.do(http.MethodGet, "/api/recipes/download_shopping_cart", nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("short link", func(t *testing.T) {
		w := a.do(http.MethodGet, recipePath+"/get-link", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		link := decode[types.RecipeLinkView](t, w)
		require.True(t, strings.HasPrefix(link.ShortLink, "http://example.com/s/"), link.ShortLink)

		path := strings.TrimPrefix(link.ShortLink, "http://example.com")
		w = a.do(http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, fmt.Sprintf("/recipes/%d/", created.ID), w.Header().Get("Location"))

		w = a.do(http.MethodGet, "/s/unknown/", nil, "")
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/404/", w.Header().Get("Location"))
	})

	t.Run("list pagination envelope", func(t *testing.T) {
		w := a.do(http.MethodGet, "/api/recipes?limit=1&tags=breakfast", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		page := decode[types.Page[types.RecipeView]](t, w)
		assert.Equal(t, int64(1), page.Count)
		assert.Nil(t, page.Next)
		assert.Nil(t, page.Previous)
		require.Len(t, page.Results, 1)
	})

	t.Run("delete", func(t *testing.T) {
		w := a.do(http.MethodDelete, recipePath, nil, readerToken)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = a.do(http.MethodDelete, recipePath, nil, authorToken)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = a.do(http.MethodGet, recipePath, nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
