package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/cache"
	"github.com/pageza/foodgram/backend/internal/router"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/storage"
)

// Dependencies are the external collaborators of the server. Redis is
// optional; without it the catalog is not cached and logout does not
// revoke tokens.
type Dependencies struct {
	Storage service.ObjectStorage
	Redis   *redis.Client
}

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	http   *http.Server
}

// New wires services, handlers and routes into a server.
func New(cfg *config.Config, db *gorm.DB, deps Dependencies) *Server {
	var (
		catalogCache service.Cache
		blacklist    service.TokenBlacklist
	)
	if deps.Redis != nil {
		catalogCache = cache.NewRedisCache(deps.Redis, "catalog", cfg.CacheTTL)
		blacklist = cache.NewTokenBlacklist(deps.Redis)
	}

	favorites := service.NewLedger(db, service.Favorites)
	cart := service.NewLedger(db, service.ShoppingCart)

	authService := service.NewAuthService(db, cfg.JWTSecret, cfg.JWTTTL, blacklist)
	catalogService := service.NewCatalogService(db, catalogCache)
	recipeService := service.NewRecipeService(db, deps.Storage, service.UUIDShortCodes{}, favorites, cart)
	subscriptionService := service.NewSubscriptionService(db)
	shoppingService := service.NewShoppingListService(db, cart)

	paginator := api.Paginator{DefaultLimit: cfg.DefaultPageSize}

	var pinger api.Pinger
	if sqlDB, err := db.DB(); err == nil {
		pinger = sqlDB
	}

	handlers := router.Handlers{
		Auth:    api.NewAuthHandler(authService),
		Users:   api.NewUserHandler(authService, subscriptionService, paginator),
		Recipes: api.NewRecipeHandler(recipeService, favorites, cart, shoppingService, paginator, cfg.PublicBaseURL),
		Catalog: api.NewCatalogHandler(catalogService),
		Health:  api.HealthCheck(pinger),
	}

	opts := router.Options{CORSOrigins: cfg.CORSOrigins}
	if local, ok := deps.Storage.(*storage.LocalStorage); ok {
		opts.MediaDir = local.Root()
		opts.MediaPrefix = cfg.MediaURLPrefix
	}

	engine := router.SetupRouter(handlers, authService, opts)

	return &Server{
		router: engine,
		http: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler exposes the routed engine, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens until the server is shut down. A graceful shutdown is not
// reported as an error.
func (s *Server) Start() error {
	log.Info().Str("addr", s.http.Addr).Msg("HTTP server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
