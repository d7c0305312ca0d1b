package v1

import (
	"net/http"

	"github.com/crispai/sitechat/internal/domain"
	"github.com/labstack/echo/v4"
)

// Chat handles one chat turn.
// POST /chat
func (h *Handler) Chat(c echo.Context) error {
	var req domain.ChatRequest
	// A non-string message fails to bind and is reported the same as a missing one.
	if err := c.Bind(&req); err != nil {
		return writeError(c, &domain.ValidationError{Field: "message", Message: domain.MessageRequiredText})
	}

	resp, err := h.service.HandleTurn(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

// CreateSession allocates a session identifier.
// POST /chat/session
func (h *Handler) CreateSession(c echo.Context) error {
	return c.JSON(http.StatusOK, domain.SessionResponse{SessionID: h.service.NewSessionID()})
}
