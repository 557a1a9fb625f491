package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/msk-earth/payment"
	"github.com/msk-earth/payment/models"
)

type PayUHandler interface {
	CreateOrder(c echo.Context) error
	HandleNotify(c echo.Context) error
}

type payuHandler struct {
	Gateway payment.PayUGateway
	logger  *zap.Logger
}

func NewPayUHandler(Gateway payment.PayUGateway, logger *zap.Logger) PayUHandler {
	return &payuHandler{
		Gateway: Gateway,
		logger:  logger,
	}
}

// CreateOrder handles POST /api/payments/create-order
func (ph *payuHandler) CreateOrder(c echo.Context) error {
	var req models.PayUOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error":   "VALIDATION_ERROR",
			"message": "Malformed request body.",
		})
	}

	if req.Total <= 0 || req.Email == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error":   "VALIDATION_ERROR",
			"message": "Missing total or email.",
		})
	}

	order, err := ph.Gateway.CreateOrder(c.Request().Context(), &req, c.RealIP())
	if err != nil {
		var payuErr *payment.PayUError
		if errors.As(err, &payuErr) {
			return c.JSON(http.StatusBadRequest, map[string]any{
				"error":   payuErr.StatusCode,
				"details": payuErr.Details,
			})
		}
		ph.logger.Error("failed to create payu order", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error":   "SERVER_ERROR",
			"message": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, order)
}

// HandleNotify handles POST /api/payments/notify. PayU is always answered
// 200 OK, even when the body is unusable, to stop its retry loop; failures
// are logged for manual review.
func (ph *payuHandler) HandleNotify(c echo.Context) error {
	var notification models.PayUNotification
	if err := c.Bind(&notification); err != nil {
		ph.logger.Error("unreadable payu notification", zap.Error(err))
		return c.String(http.StatusOK, "OK")
	}

	ph.Gateway.HandleNotification(c.Request().Context(), &notification)

	return c.String(http.StatusOK, "OK")
}
