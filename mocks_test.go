package payment

import (
	"context"
	"time"

	"github.com/msk-earth/payment/models"
)

// mockDonationService implements donation.Service with per-call hooks so
// tests can record what the webhook handlers asked the datastore to do.
type mockDonationService struct {
	CreateFunc                  func(ctx context.Context, d *models.Donation) (*models.Donation, error)
	RecordCycleFunc             func(ctx context.Context, d *models.Donation) (bool, error)
	CompleteBySessionIDFunc     func(ctx context.Context, sessionID string, completedAt time.Time) error
	CompleteByPaymentIntentFunc func(ctx context.Context, paymentIntentID string, completedAt time.Time) error
	FailByPaymentIntentFunc     func(ctx context.Context, paymentIntentID string) error
	CompleteByPayUOrderFunc     func(ctx context.Context, orderID string, completedAt time.Time) error
	FailByPayUOrderFunc         func(ctx context.Context, orderID string) error
	StatsFunc                   func(ctx context.Context) (*models.DonationStats, error)
}

func (m *mockDonationService) Create(ctx context.Context, d *models.Donation) (*models.Donation, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, d)
	}
	return d, nil
}

func (m *mockDonationService) RecordCycle(ctx context.Context, d *models.Donation) (bool, error) {
	if m.RecordCycleFunc != nil {
		return m.RecordCycleFunc(ctx, d)
	}
	return true, nil
}

func (m *mockDonationService) CompleteBySessionID(ctx context.Context, sessionID string, completedAt time.Time) error {
	if m.CompleteBySessionIDFunc != nil {
		return m.CompleteBySessionIDFunc(ctx, sessionID, completedAt)
	}
	return nil
}

func (m *mockDonationService) CompleteByPaymentIntent(ctx context.Context, paymentIntentID string, completedAt time.Time) error {
	if m.CompleteByPaymentIntentFunc != nil {
		return m.CompleteByPaymentIntentFunc(ctx, paymentIntentID, completedAt)
	}
	return nil
}

func (m *mockDonationService) FailByPaymentIntent(ctx context.Context, paymentIntentID string) error {
	if m.FailByPaymentIntentFunc != nil {
		return m.FailByPaymentIntentFunc(ctx, paymentIntentID)
	}
	return nil
}

func (m *mockDonationService) CompleteByPayUOrder(ctx context.Context, orderID string, completedAt time.Time) error {
	if m.CompleteByPayUOrderFunc != nil {
		return m.CompleteByPayUOrderFunc(ctx, orderID, completedAt)
	}
	return nil
}

func (m *mockDonationService) FailByPayUOrder(ctx context.Context, orderID string) error {
	if m.FailByPayUOrderFunc != nil {
		return m.FailByPayUOrderFunc(ctx, orderID)
	}
	return nil
}

func (m *mockDonationService) Stats(ctx context.Context) (*models.DonationStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return &models.DonationStats{}, nil
}

// mockEventService is an in-memory webhook redelivery ledger.
type mockEventService struct {
	processed map[string]bool
	created   []string
}

func newMockEventService() *mockEventService {
	return &mockEventService{processed: make(map[string]bool)}
}

func (m *mockEventService) Create(ctx context.Context, event *models.Event) error {
	m.created = append(m.created, event.ID)
	return nil
}

func (m *mockEventService) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	return m.processed[eventID], nil
}

func (m *mockEventService) MarkEventAsProcessed(ctx context.Context, eventID string) error {
	m.processed[eventID] = true
	return nil
}
