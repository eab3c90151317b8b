package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/strandhq/strand/internal/log"
	"github.com/strandhq/strand/internal/objects"
	"github.com/strandhq/strand/internal/server/biz"
	"github.com/strandhq/strand/internal/slug"
	"github.com/strandhq/strand/internal/store"
)

// JSONError returns a JSON error response and adds the error to gin context for access logging.
func JSONError(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	c.JSON(status, objects.ErrorResponse{
		Error: objects.Error{
			Type:    http.StatusText(status),
			Message: err.Error(),
		},
	})
}

// BizError maps service errors onto HTTP statuses. A record owned by
// another tenant surfaces exactly like an absent one.
func BizError(c *gin.Context, err error) {
	switch {
	case store.IsNotFound(err):
		JSONError(c, http.StatusNotFound, errors.New("not found"))
	case errors.Is(err, biz.ErrNotAuthorized):
		JSONError(c, http.StatusForbidden, errors.New("not authorized"))
	case errors.Is(err, biz.ErrValidation),
		errors.Is(err, store.ErrMissingTenant),
		errors.Is(err, slug.ErrExhausted):
		JSONError(c, http.StatusUnprocessableEntity, err)
	case store.IsConflict(err), store.IsUniqueViolation(err):
		JSONError(c, http.StatusConflict, errors.New("conflict"))
	case errors.Is(err, biz.ErrInvalidPassword), errors.Is(err, biz.ErrInvalidJWT):
		JSONError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	default:
		log.Error(c.Request.Context(), "unhandled service error", log.Cause(err))
		JSONError(c, http.StatusInternalServerError, errors.New("internal server error"))
	}
}
