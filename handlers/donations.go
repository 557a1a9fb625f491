package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/msk-earth/payment"
	"github.com/msk-earth/payment/models"
)

type DonationHandler interface {
	CreateDonation(c echo.Context) error
	GetStats(c echo.Context) error
}

type donationHandler struct {
	Payment payment.Payment
	logger  *zap.Logger
}

func NewDonationHandler(Payment payment.Payment, logger *zap.Logger) DonationHandler {
	return &donationHandler{
		Payment: Payment,
		logger:  logger,
	}
}

// CreateDonation handles POST /api/donations: the optimistic pending insert
// the widget performs right after checkout-session creation.
func (dh *donationHandler) CreateDonation(c echo.Context) error {
	var donation models.Donation
	if err := c.Bind(&donation); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}

	if donation.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}

	created, err := dh.Payment.CreateDonation(c.Request().Context(), &donation)
	if err != nil {
		dh.logger.Error("failed to create donation", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create donation"})
	}

	return c.JSON(http.StatusCreated, created)
}

// GetStats handles GET /api/donations/stats
func (dh *donationHandler) GetStats(c echo.Context) error {
	stats, err := dh.Payment.DonationStats(c.Request().Context())
	if err != nil {
		dh.logger.Error("failed to load donation stats", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load donation stats"})
	}

	return c.JSON(http.StatusOK, stats)
}
