package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/middleware"
)

// Access is the authentication a route demands.
type Access int

const (
	// Open routes identify the caller when a token is sent but never reject.
	Open Access = iota
	// Authenticated routes reject callers without a valid token.
	Authenticated
)

// Route is one entry of the method x path table.
type Route struct {
	Method  string
	Path    string
	Access  Access
	Handler gin.HandlerFunc
}

// Handlers groups everything the route table dispatches to.
type Handlers struct {
	Auth    *api.AuthHandler
	Users   *api.UserHandler
	Recipes *api.RecipeHandler
	Catalog *api.CatalogHandler
	Health  gin.HandlerFunc
}

// Routes returns the full route table.
func Routes(h Handlers) []Route {
	return []Route{
		{http.MethodGet, "/health", Open, h.Health},

		{http.MethodPost, "/api/auth/token/login", Open, h.Auth.Login},
		{http.MethodPost, "/api/auth/token/logout", Authenticated, h.Auth.Logout},

		{http.MethodPost, "/api/users", Open, h.Users.Register},
		{http.MethodGet, "/api/users", Open, h.Users.ListUsers},
		{http.MethodGet, "/api/users/me", Authenticated, h.Users.Me},
		{http.MethodGet, "/api/users/subscriptions", Authenticated, h.Users.Subscriptions},
		{http.MethodGet, "/api/users/:id", Open, h.Users.GetUser},
		{http.MethodPost, "/api/users/:id/subscribe", Authenticated, h.Users.Subscribe},
		{http.MethodDelete, "/api/users/:id/subscribe", Authenticated, h.Users.Unsubscribe},

		{http.MethodGet, "/api/tags", Open, h.Catalog.ListTags},
		{http.MethodGet, "/api/tags/:id", Open, h.Catalog.GetTag},
		{http.MethodGet, "/api/ingredients", Open, h.Catalog.ListIngredients},
		{http.MethodGet, "/api/ingredients/:id", Open, h.Catalog.GetIngredient},

		{http.MethodGet, "/api/recipes", Open, h.Recipes.ListRecipes},
		{http.MethodPost, "/api/recipes", Authenticated, h.Recipes.CreateRecipe},
		{http.MethodGet, "/api/recipes/download_shopping_cart", Authenticated, h.Recipes.DownloadShoppingCart},
		{http.MethodGet, "/api/recipes/:id", Open, h.Recipes.GetRecipe},
		{http.MethodPatch, "/api/recipes/:id", Authenticated, h.Recipes.UpdateRecipe},
		{http.MethodDelete, "/api/recipes/:id", Authenticated, h.Recipes.DeleteRecipe},
		{http.MethodGet, "/api/recipes/:id/get-link", Open, h.Recipes.GetLink},
		{http.MethodPost, "/api/recipes/:id/favorite", Authenticated, h.Recipes.AddFavorite},
		{http.MethodDelete, "/api/recipes/:id/favorite", Authenticated, h.Recipes.RemoveFavorite},
		{http.MethodPost, "/api/recipes/:id/shopping_cart", Authenticated, h.Recipes.AddToCart},
		{http.MethodDelete, "/api/recipes/:id/shopping_cart", Authenticated, h.Recipes.RemoveFromCart},

		{http.MethodGet, "/s/:code", Open, h.Recipes.ResolveShortLink},
		{http.MethodGet, "/s/:code/", Open, h.Recipes.ResolveShortLink},
	}
}

// Options configures the engine around the route table.
type Options struct {
	CORSOrigins []string
	// MediaDir and MediaPrefix serve locally stored uploads when both are set.
	MediaDir    string
	MediaPrefix string
}

// SetupRouter configures the application routes
func SetupRouter(h Handlers, validator middleware.TokenValidator, opts Options) *gin.Engine {
	router := gin.New()
	router.RedirectTrailingSlash = true

	router.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		middleware.CORS(opts.CORSOrigins),
	)

	required := middleware.AuthMiddleware(validator)
	optional := middleware.OptionalAuth(validator)

	for _, r := range Routes(h) {
		guard := optional
		if r.Access == Authenticated {
			guard = required
		}
		router.Handle(r.Method, r.Path, guard, r.Handler)
	}

	if opts.MediaDir != "" && opts.MediaPrefix != "" {
		router.Static(opts.MediaPrefix, opts.MediaDir)
	}

	return router
}
