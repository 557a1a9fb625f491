package models

import (
	"github.com/msk-earth/payment/models/enum"
)

// CheckoutRequest is a validated donation checkout request. Handlers reject
// malformed input before it ever reaches the payment provider.
type CheckoutRequest struct {
	Amount      float64          `json:"amount"`
	Name        string           `json:"name,omitempty"`
	Email       string           `json:"email"`
	Locale      string           `json:"locale,omitempty"`
	Newsletter  bool             `json:"newsletter,omitempty"`
	SuccessURL  string           `json:"successUrl,omitempty"`
	CancelURL   string           `json:"cancelUrl,omitempty"`
	PaymentType enum.PaymentType `json:"payment_type,omitempty"`
}

// CheckoutSession is the hosted payment page reference returned to the client.
type CheckoutSession struct {
	URL         string           `json:"url"`
	SessionID   string           `json:"sessionId"`
	PaymentType enum.PaymentType `json:"payment_type,omitempty"`
}

// CheckoutMetadata is the fixed set of key/value pairs attached to provider
// sessions, payment intents and subscriptions.
type CheckoutMetadata struct {
	DonorName   string
	DonorEmail  string
	Newsletter  bool
	Source      string
	PaymentType enum.PaymentType
}

func (m CheckoutMetadata) ToMap() map[string]string {
	newsletter := "false"
	if m.Newsletter {
		newsletter = "true"
	}
	return map[string]string{
		"donor_name":   m.DonorName,
		"donor_email":  m.DonorEmail,
		"newsletter":   newsletter,
		"source":       m.Source,
		"payment_type": string(m.PaymentType),
	}
}

func CheckoutMetadataFromMap(values map[string]string) CheckoutMetadata {
	return CheckoutMetadata{
		DonorName:   values["donor_name"],
		DonorEmail:  values["donor_email"],
		Newsletter:  values["newsletter"] == "true",
		Source:      values["source"],
		PaymentType: enum.PaymentType(values["payment_type"]),
	}
}
