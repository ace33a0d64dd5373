package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/pageza/foodgram/backend/internal/service"
)

// respondError maps a service error onto the HTTP response.
func respondError(c *gin.Context, err error) {
	var (
		verr *service.ValidationError
		rerr *service.ReferentialError
		cerr *service.ConflictError
	)

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, verr.Fields)
	case errors.As(err, &rerr):
		fields := make(map[string][]string, len(rerr.Missing))
		for field, ids := range rerr.Missing {
			for _, id := range ids {
				fields[field] = append(fields[field], fmt.Sprintf("object with id %d does not exist", id))
			}
		}
		c.JSON(http.StatusBadRequest, fields)
	case errors.As(err, &cerr):
		c.JSON(http.StatusBadRequest, gin.H{"errors": cerr.Message})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUnauthorized), errors.Is(err, service.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		log.Error().Err(err).
			Str("request_id", c.GetString("request_id")).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func badRequest(c *gin.Context, field, message string) {
	c.JSON(http.StatusBadRequest, map[string][]string{field: {message}})
}
