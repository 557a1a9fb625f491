package models

import (
	"time"

	"github.com/msk-earth/payment/models/enum"
)

// Donation represents a single payment attempt. Recurring subscriptions
// produce one row per billing cycle, correlated by that cycle's own
// payment intent.
type Donation struct {
	ID                    int64               `json:"id"`
	Amount                float64             `json:"amount"`
	Currency              string              `json:"currency"`
	DonorName             string              `json:"donor_name,omitempty"`
	DonorEmail            string              `json:"donor_email,omitempty"`
	Status                enum.DonationStatus `json:"status"`
	StripeSessionID       *string             `json:"stripe_session_id,omitempty"`
	StripePaymentIntentID *string             `json:"stripe_payment_intent_id,omitempty"`
	PayUOrderID           *string             `json:"payu_order_id,omitempty"`
	Newsletter            bool                `json:"newsletter"`
	CreatedAt             time.Time           `json:"created_at"`
	CompletedAt           *time.Time          `json:"completed_at,omitempty"`
}

func NewDonation() *Donation {
	return &Donation{
		Currency: "PLN",
		Status:   enum.DonationStatusPending,
	}
}

// DonationStats feeds the fundraising progress bar on the site.
type DonationStats struct {
	GoalAmount    float64 `json:"goalAmount"`
	CurrentAmount float64 `json:"currentAmount"`
	DonorsCount   int64   `json:"donorsCount"`
}
