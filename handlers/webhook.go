package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/msk-earth/payment"
)

type WebhookHandler interface {
	HandleStripeWebhook(c echo.Context) error
}

type webhookHandler struct {
	Payment payment.Payment
}

func NewWebhookHandler(
	Payment payment.Payment,
) WebhookHandler {
	return &webhookHandler{
		Payment: Payment,
	}
}

// HandleStripeWebhook handles POST /api/stripe-webhook. The body must stay
// unparsed until the signature is verified.
func (wh *webhookHandler) HandleStripeWebhook(c echo.Context) error {
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.String(http.StatusBadRequest, "Failed to read request body")
	}

	signature := c.Request().Header.Get("Stripe-Signature")

	err = wh.Payment.HandleStripeWebhook(c.Request().Context(), payload, signature)
	if err != nil {
		if errors.Is(err, payment.ErrSignatureVerification) {
			return c.String(http.StatusBadRequest, "Webhook Error: "+err.Error())
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Webhook handler failed"})
	}

	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}
