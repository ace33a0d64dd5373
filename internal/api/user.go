package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

type UserHandler struct {
	authService   service.IAuthService
	subscriptions service.ISubscriptionService
	paginator     Paginator
}

func NewUserHandler(authService service.IAuthService, subscriptions service.ISubscriptionService, paginator Paginator) *UserHandler {
	return &UserHandler{
		authService:   authService,
		subscriptions: subscriptions,
		paginator:     paginator,
	}
}

// Register handles POST /users.
func (h *UserHandler) Register(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "non_field_errors", "invalid request body")
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":         user.ID,
		"email":      user.Email,
		"username":   user.Username,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
	})
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	page := h.paginator.Request(c)
	users, count, err := h.subscriptions.ListUsers(c.Request.Context(), middleware.CurrentUserID(c), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Page(c, page, count, users))
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		respondError(c, service.ErrNotFound)
		return
	}
	h.respondUser(c, id)
}

// Me handles GET /users/me.
func (h *UserHandler) Me(c *gin.Context) {
	h.respondUser(c, middleware.CurrentUserID(c))
}

// Subscribe handles POST /users/:id/subscribe.
func (h *UserHandler) Subscribe(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		respondError(c, service.ErrNotFound)
		return
	}

	view, err := h.subscriptions.Follow(c.Request.Context(), middleware.CurrentUserID(c), id, recipesLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// Unsubscribe handles DELETE /users/:id/subscribe.
func (h *UserHandler) Unsubscribe(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		respondError(c, service.ErrNotFound)
		return
	}

	if err := h.subscriptions.Unfollow(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Subscriptions handles GET /users/subscriptions.
func (h *UserHandler) Subscriptions(c *gin.Context) {
	page := h.paginator.Request(c)
	views, count, err := h.subscriptions.ListFollowing(c.Request.Context(), middleware.CurrentUserID(c), page, recipesLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Page(c, page, count, views))
}

func (h *UserHandler) respondUser(c *gin.Context, id uint) {
	user, err := h.authService.GetUserByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	view, err := h.subscriptions.UserView(c.Request.Context(), middleware.CurrentUserID(c), user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
