package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	qt "github.com/frankban/quicktest"
	"go.uber.org/zap"

	"github.com/msk-earth/payment/models"
)

func TestCreateDonationRecordsPendingRow(t *testing.T) {
	c := qt.New(t)

	var got *models.Donation
	p := &mockPayment{
		CreateDonationFunc: func(ctx context.Context, donation *models.Donation) (*models.Donation, error) {
			got = donation
			donation.ID = 7
			return donation, nil
		},
	}
	h := NewDonationHandler(p, zap.NewNop())

	rec := doJSON(h.CreateDonation, http.MethodPost, "/api/donations",
		`{"amount": 50, "donor_name": "Jan", "donor_email": "jan@example.com", "stripe_session_id": "cs_1"}`)

	c.Assert(rec.Code, qt.Equals, http.StatusCreated)
	c.Assert(got, qt.IsNotNil)
	c.Assert(got.Amount, qt.Equals, 50.0)
	c.Assert(got.DonorEmail, qt.Equals, "jan@example.com")
	c.Assert(got.StripeSessionID, qt.IsNotNil)
	c.Assert(*got.StripeSessionID, qt.Equals, "cs_1")
}

func TestCreateDonationRejectsBadAmount(t *testing.T) {
	c := qt.New(t)

	called := false
	p := &mockPayment{
		CreateDonationFunc: func(ctx context.Context, donation *models.Donation) (*models.Donation, error) {
			called = true
			return donation, nil
		},
	}
	h := NewDonationHandler(p, zap.NewNop())

	rec := doJSON(h.CreateDonation, http.MethodPost, "/api/donations",
		`{"amount": 0, "donor_email": "jan@example.com"}`)

	c.Assert(rec.Code, qt.Equals, http.StatusBadRequest)
	c.Assert(called, qt.IsFalse)
}

func TestGetStats(t *testing.T) {
	c := qt.New(t)

	p := &mockPayment{
		DonationStatsFunc: func(ctx context.Context) (*models.DonationStats, error) {
			return &models.DonationStats{
				GoalAmount:    10000,
				CurrentAmount: 2530.50,
				DonorsCount:   41,
			}, nil
		},
	}
	h := NewDonationHandler(p, zap.NewNop())

	rec := doJSON(h.GetStats, http.MethodGet, "/api/donations/stats", "")

	c.Assert(rec.Code, qt.Equals, http.StatusOK)

	var resp map[string]any
	c.Assert(json.Unmarshal(rec.Body.Bytes(), &resp), qt.IsNil)
	c.Assert(resp["goalAmount"], qt.Equals, 10000.0)
	c.Assert(resp["currentAmount"], qt.Equals, 2530.5)
	c.Assert(resp["donorsCount"], qt.Equals, 41.0)
}
