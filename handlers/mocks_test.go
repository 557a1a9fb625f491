package handlers

import (
	"context"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/msk-earth/payment"
	"github.com/msk-earth/payment/models"
)

// mockPayment implements payment.Payment with per-call hooks so handler tests
// can observe whether the provider layer was reached.
type mockPayment struct {
	CreateCheckoutSessionFunc func(ctx context.Context, req *models.CheckoutRequest) (*models.CheckoutSession, error)
	HandleStripeWebhookFunc   func(ctx context.Context, payload []byte, signature string) error
	CreateDonationFunc        func(ctx context.Context, donation *models.Donation) (*models.Donation, error)
	DonationStatsFunc         func(ctx context.Context) (*models.DonationStats, error)
}

func (m *mockPayment) CreateCheckoutSession(ctx context.Context, req *models.CheckoutRequest) (*models.CheckoutSession, error) {
	if m.CreateCheckoutSessionFunc != nil {
		return m.CreateCheckoutSessionFunc(ctx, req)
	}
	return &models.CheckoutSession{URL: "https://checkout.stripe.com/pay/cs_test", SessionID: "cs_test"}, nil
}

func (m *mockPayment) HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error {
	if m.HandleStripeWebhookFunc != nil {
		return m.HandleStripeWebhookFunc(ctx, payload, signature)
	}
	return nil
}

func (m *mockPayment) CreateDonation(ctx context.Context, donation *models.Donation) (*models.Donation, error) {
	if m.CreateDonationFunc != nil {
		return m.CreateDonationFunc(ctx, donation)
	}
	return donation, nil
}

func (m *mockPayment) DonationStats(ctx context.Context) (*models.DonationStats, error) {
	if m.DonationStatsFunc != nil {
		return m.DonationStatsFunc(ctx)
	}
	return &models.DonationStats{}, nil
}

func (m *mockPayment) Close() {}

type mockPayUGateway struct {
	CreateOrderFunc        func(ctx context.Context, req *models.PayUOrderRequest, customerIP string) (*models.PayUOrderResponse, error)
	HandleNotificationFunc func(ctx context.Context, notification *models.PayUNotification)
}

func (m *mockPayUGateway) CreateOrder(ctx context.Context, req *models.PayUOrderRequest, customerIP string) (*models.PayUOrderResponse, error) {
	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(ctx, req, customerIP)
	}
	return &models.PayUOrderResponse{RedirectURI: "https://secure.payu.com/pay/test"}, nil
}

func (m *mockPayUGateway) HandleNotification(ctx context.Context, notification *models.PayUNotification) {
	if m.HandleNotificationFunc != nil {
		m.HandleNotificationFunc(ctx, notification)
	}
}

var _ payment.Payment = (*mockPayment)(nil)
var _ payment.PayUGateway = (*mockPayUGateway)(nil)

// doJSON runs one echo handler against a JSON request body and returns the
// recorded response.
func doJSON(handler echo.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		e.HTTPErrorHandler(err, e.NewContext(req, rec))
	}
	return rec
}
