package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/todobot/core/internal/infrastructure/logger"
	"github.com/todobot/core/internal/ports"
)

// NotificationHandler is the messaging gateway endpoint of the bot process
type NotificationHandler struct {
	sender ports.NotificationSender
	logger *logger.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(sender ports.NotificationSender, logger *logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		sender: sender,
		logger: logger,
	}
}

// SendNotification godoc
// @Summary Deliver a chat message
// @Tags gateway
// @Accept json
// @Produce json
// @Param request body ports.NotificationRequest true "Recipient and text"
// @Success 200 {object} ports.MessageResponse
// @Failure 400 {object} ports.ErrorResponse
// @Failure 502 {object} ports.ErrorResponse
// @Router /send_notification [post]
func (h *NotificationHandler) SendNotification(c echo.Context) error {
	var req ports.NotificationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.sender.Send(c.Request().Context(), req.UserID, req.Message); err != nil {
		h.logger.WithTelegramUser(req.UserID).Errorw("Failed to deliver notification", "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, ports.ErrorResponse{Message: "Failed to deliver notification"})
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "sent"})
}
