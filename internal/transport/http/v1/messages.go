package v1

import (
	"net/http"
	"strconv"

	"github.com/crispai/sitechat/internal/domain"
	"github.com/labstack/echo/v4"
)

// GetSessionMessages replays a session's history, oldest first.
// GET /chat/sessions/:session_id/messages
func (h *Handler) GetSessionMessages(c echo.Context) error {
	sessionID := c.Param("session_id")
	limit := 50
	if l := c.QueryParam("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil {
			limit = val
		}
	}

	ctx := c.Request().Context()

	messages, err := h.service.GetHistory(ctx, sessionID, limit)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, domain.NewHistoryResponse(sessionID, messages))
}
