package models

import (
	"time"

	"github.com/stripe/stripe-go/v79"
)

// Event is the webhook redelivery ledger entry. Stripe may deliver the same
// event more than once; processed events are acknowledged without re-running
// their handler.
type Event struct {
	ID        string           `json:"id"`
	Type      stripe.EventType `json:"type"`
	Processed bool             `json:"processed"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
