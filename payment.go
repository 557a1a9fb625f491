package payment

import (
	"context"

	"github.com/msk-earth/payment/models"
)

type Payment interface {
	// CreateCheckoutSession asks Stripe for a hosted checkout page and returns
	// its redirect URL. Input is validated by the HTTP layer; this only talks
	// to the provider.
	CreateCheckoutSession(ctx context.Context, req *models.CheckoutRequest) (*models.CheckoutSession, error)

	// HandleStripeWebhook verifies and reconciles one provider callback.
	// Returns ErrSignatureVerification when the payload cannot be trusted.
	HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error

	// CreateDonation records the optimistic pending row the donation widget
	// inserts at checkout time.
	CreateDonation(ctx context.Context, donation *models.Donation) (*models.Donation, error)

	DonationStats(ctx context.Context) (*models.DonationStats, error)

	Close()
}
