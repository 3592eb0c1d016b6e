package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chronoplan/backend/internal/domain"
)

// Body is the standard API response envelope.
type Body struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

// NoContent sends 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, err string) {
	c.JSON(http.StatusBadRequest, Body{Success: false, Error: err})
}

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, err string) {
	c.JSON(http.StatusUnauthorized, Body{Success: false, Error: err})
}

// Forbidden sends 403.
func Forbidden(c *gin.Context, err string) {
	c.JSON(http.StatusForbidden, Body{Success: false, Error: err})
}

// NotFound sends 404.
func NotFound(c *gin.Context, err string) {
	c.JSON(http.StatusNotFound, Body{Success: false, Error: err})
}

// Conflict sends 409.
func Conflict(c *gin.Context, err string) {
	c.JSON(http.StatusConflict, Body{Success: false, Error: err})
}

// Internal sends 500.
func Internal(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, Body{Success: false, Error: err})
}

// Error translates a domain error into the matching HTTP status: not-found
// kinds to 404, access denied to 403, validation kinds to 400, caps and
// concurrent-write conflicts to 409. Anything else is an opaque 500; the
// underlying store error is never echoed to the client.
func Error(c *gin.Context, err error) {
	switch {
	case domain.IsNotFound(err):
		NotFound(c, err.Error())
	case errors.Is(err, domain.ErrAccessDenied):
		Forbidden(c, err.Error())
	case errors.Is(err, domain.ErrInvalidTimeRange),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrSelfShare):
		BadRequest(c, err.Error())
	case errors.Is(err, domain.ErrDuplicateName),
		errors.Is(err, domain.ErrDuplicateShare),
		errors.Is(err, domain.ErrCategoryInUse),
		errors.Is(err, domain.ErrCategoryLimitExceeded),
		errors.Is(err, domain.ErrShareLimitExceeded),
		errors.Is(err, domain.ErrConflict):
		Conflict(c, err.Error())
	default:
		Internal(c, "internal error")
	}
}
