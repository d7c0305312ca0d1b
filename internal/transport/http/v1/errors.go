package v1

import (
	"errors"
	"log"
	"net/http"

	"github.com/crispai/sitechat/internal/domain"
	"github.com/labstack/echo/v4"
)

// writeError maps a domain error onto a status code. Unexpected errors are
// logged and answered with a generic message.
func writeError(c echo.Context, err error) error {
	switch {
	case domain.IsValidation(err):
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrSessionNotFound):
		return c.JSON(http.StatusNotFound, domain.ErrorResponse{Error: domain.SessionNotFoundText})
	case domain.IsNotFound(err):
		return c.JSON(http.StatusNotFound, domain.ErrorResponse{Error: err.Error()})
	case domain.IsConflict(err):
		return c.JSON(http.StatusConflict, domain.ErrorResponse{Error: err.Error()})
	default:
		log.Printf("ERROR: %s %s: %v", c.Request().Method, c.Path(), err)
		return c.JSON(http.StatusInternalServerError, domain.ErrorResponse{Error: domain.InternalErrorText})
	}
}
