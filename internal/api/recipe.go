package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

type RecipeHandler struct {
	recipes    service.IRecipeService
	favorites  *service.Ledger
	cart       *service.Ledger
	shopping   *service.ShoppingListService
	paginator  Paginator
	publicBase string
}

// NewRecipeHandler creates a RecipeHandler. publicBase overrides the request
// origin in short links when set.
func NewRecipeHandler(
	recipes service.IRecipeService,
	favorites, cart *service.Ledger,
	shopping *service.ShoppingListService,
	paginator Paginator,
	publicBase string,
) *RecipeHandler {
	return &RecipeHandler{
		recipes:    recipes,
		favorites:  favorites,
		cart:       cart,
		shopping:   shopping,
		paginator:  paginator,
		publicBase: publicBase,
	}
}

// ListRecipes handles GET /recipes with tags, author, is_favorited and
// is_in_shopping_cart filters.
func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	callerID := middleware.CurrentUserID(c)

	filter := service.RecipeFilter{
		TagSlugs:         c.QueryArray("tags"),
		IsFavorited:      truthy(c.Query("is_favorited")),
		IsInShoppingCart: truthy(c.Query("is_in_shopping_cart")),
	}
	if raw := c.Query("author"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			badRequest(c, "author", "must be a user id")
			return
		}
		author := uint(id)
		filter.AuthorID = &author
	}

	page := h.paginator.Request(c)
	recipes, count, err := h.recipes.List(c.Request.Context(), callerID, filter, page)
	if err != nil {
		respondError(c, err)
		return
	}

	views, err := h.recipes.Views(c.Request.Context(), callerID, recipes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Page(c, page, count, views))
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		respondError(c, service.ErrNotFound)
		return
	}

	recipe, err := h.recipes.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondView(c, http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req types.RecipeWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "non_field_errors", "invalid request body")
		return
	}

	recipe, err := h.recipes.Create(c.Request.Context(), middleware.CurrentUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondView(c, http.StatusCreated, recipe)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		respondError(c, service.ErrNotFound)
		return
	}

	var req types.RecipeWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "non_field_errors", "invalid request body")
		return
	}

	recipe, err := h.recipes.Update(c.Request.Context(), middleware.CurrentUserID(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondView(c, http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		respondError(c, service.ErrNotFound)
		return
	}

	if err := h.recipes.Delete(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetLink handles GET /recipes/:id/get-link.
func (h *RecipeHandler) GetLink(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		respondError(c, service.ErrNotFound)
		return
	}

	recipe, err := h.recipes.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	base := h.publicBase
	if base == "" {
		base = baseURL(c)
	}
	c.JSON(http.StatusOK, types.RecipeLinkView{
		ID:        recipe.ID,
		Name:      recipe.Name,
		Image:     recipe.Image,
		ShortLink: service.ShortLink(recipe, base),
	})
}

// ResolveShortLink handles GET /s/:code by redirecting to the recipe page.
func (h *RecipeHandler) ResolveShortLink(c *gin.Context) {
	id, err := h.recipes.ResolveShortCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		c.Redirect(http.StatusFound, "/404/")
		return
	}
	c.Redirect(http.StatusFound, "/recipes/"+strconv.FormatUint(uint64(id), 10)+"/")
}

func (h *RecipeHandler) AddFavorite(c *gin.Context)    { h.add(c, h.favorites) }
func (h *RecipeHandler) RemoveFavorite(c *gin.Context) { h.remove(c, h.favorites) }
func (h *RecipeHandler) AddToCart(c *gin.Context)      { h.add(c, h.cart) }
func (h *RecipeHandler) RemoveFromCart(c *gin.Context) { h.remove(c, h.cart) }

// DownloadShoppingCart handles GET /recipes/download_shopping_cart.
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	items, err := h.shopping.ShoppingList(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="shopping_cart.txt"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(service.RenderShoppingList(items)))
}

func (h *RecipeHandler) add(c *gin.Context, ledger *service.Ledger) {
	id, ok := parseID(c, "id")
	if !ok {
		respondError(c, service.ErrNotFound)
		return
	}

	view, err := ledger.Add(c.Request.Context(), middleware.CurrentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *RecipeHandler) remove(c *gin.Context, ledger *service.Ledger) {
	id, ok := parseID(c, "id")
	if !ok {
		respondError(c, service.ErrNotFound)
		return
	}

	if err := ledger.Remove(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) respondView(c *gin.Context, status int, recipe *models.Recipe) {
	view, err := h.recipes.View(c.Request.Context(), middleware.CurrentUserID(c), recipe)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, view)
}

func truthy(v string) bool {
	switch v {
	case "1", "true", "True":
		return true
	}
	return false
}
