package api_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/router"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

const pixelPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

type testAPI struct {
	t      *testing.T
	db     *gorm.DB
	auth   *service.AuthService
	engine *gin.Engine
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testhelpers.SetupSQLiteDB(t)
	favorites := service.NewLedger(db, service.Favorites)
	cart := service.NewLedger(db, service.ShoppingCart)

	authService := service.NewAuthService(db, "test-secret", time.Hour, nil)
	recipes := service.NewRecipeService(db, testhelpers.NewMemoryStorage(), service.UUIDShortCodes{}, favorites, cart)
	subscriptions := service.NewSubscriptionService(db)
	paginator := api.Paginator{DefaultLimit: 6}

	handlers := router.Handlers{
		Auth:    api.NewAuthHandler(authService),
		Users:   api.NewUserHandler(authService, subscriptions, paginator),
		Recipes: api.NewRecipeHandler(recipes, favorites, cart, service.NewShoppingListService(db, cart), paginator, ""),
		Catalog: api.NewCatalogHandler(service.NewCatalogService(db, nil)),
		Health:  api.HealthCheck(nil),
	}

	return &testAPI{
		t:      t,
		db:     db,
		auth:   authService,
		engine: router.SetupRouter(handlers, authService, router.Options{}),
	}
}

// token issues a token for user.
func (a *testAPI) token(user *models.User) string {
	a.t.Helper()
	token, err := a.auth.GenerateToken(user)
	require.NoError(a.t, err)
	return token
}

// do sends a request with an optional JSON body and bearer token.
func (a *testAPI) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	a.t.Helper()

	var payload bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}
