package handlers

import (
	"encoding/json"
	"math"
	"net/http"
	"regexp"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/msk-earth/payment"
	"github.com/msk-earth/payment/config"
	"github.com/msk-earth/payment/models"
	"github.com/msk-earth/payment/models/enum"
)

// emailPattern is the same RFC-lite check the donation widget applies
// client-side; the provider does the authoritative validation.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type CheckoutHandler interface {
	CreateCheckoutSession(c echo.Context) error
}

type checkoutHandler struct {
	Payment    payment.Payment
	production bool
	logger     *zap.Logger
}

func NewCheckoutHandler(Payment payment.Payment, cfg *config.Config, logger *zap.Logger) CheckoutHandler {
	return &checkoutHandler{
		Payment:    Payment,
		production: cfg.IsProduction(),
		logger:     logger,
	}
}

type checkoutRequest struct {
	// Amount arrives as a JSON number or a numeric string depending on the
	// widget version.
	Amount      json.Number      `json:"amount"`
	Name        string           `json:"name"`
	Email       string           `json:"email"`
	Locale      string           `json:"locale"`
	Newsletter  bool             `json:"newsletter"`
	SuccessURL  string           `json:"successUrl"`
	CancelURL   string           `json:"cancelUrl"`
	PaymentType enum.PaymentType `json:"payment_type"`
}

// CreateCheckoutSession handles POST /api/create-checkout-session
func (ch *checkoutHandler) CreateCheckoutSession(c echo.Context) error {
	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": localizedMessage(req.Locale, "invalidAmount")})
	}

	amount, err := req.Amount.Float64()
	if err != nil || math.IsInf(amount, 0) || math.IsNaN(amount) || amount <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": localizedMessage(req.Locale, "invalidAmount")})
	}

	if !emailPattern.MatchString(req.Email) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": localizedMessage(req.Locale, "invalidEmail")})
	}

	if req.PaymentType != "" && !req.PaymentType.Valid() {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": localizedMessage(req.Locale, "invalidPaymentType")})
	}

	session, err := ch.Payment.CreateCheckoutSession(c.Request().Context(), &models.CheckoutRequest{
		Amount:      amount,
		Name:        req.Name,
		Email:       req.Email,
		Locale:      req.Locale,
		Newsletter:  req.Newsletter,
		SuccessURL:  req.SuccessURL,
		CancelURL:   req.CancelURL,
		PaymentType: req.PaymentType,
	})
	if err != nil {
		ch.logger.Error("failed to create checkout session", zap.Error(err))
		response := map[string]string{"error": localizedMessage(req.Locale, "serverError")}
		if !ch.production {
			response["details"] = err.Error()
		}
		return c.JSON(http.StatusInternalServerError, response)
	}

	return c.JSON(http.StatusOK, session)
}
