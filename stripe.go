package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/zap"

	"github.com/msk-earth/payment/config"
	"github.com/msk-earth/payment/donation"
	"github.com/msk-earth/payment/event"
	"github.com/msk-earth/payment/models"
	"github.com/msk-earth/payment/models/enum"
)

// ErrSignatureVerification marks webhook payloads that failed signature
// verification. The HTTP layer maps it to 400 so Stripe retries.
var ErrSignatureVerification = errors.New("webhook signature verification failed")

const (
	donationCurrency = "pln"

	oneTimeProductName   = "Darowizna na cele statutowe MSK"
	recurringProductName = "Cykliczna darowizna na cele statutowe MSK"

	metadataSource = "mskearth-iframe"
)

type StripePayment struct {
	client        *client.API
	webhookSecret string
	site          config.SiteConfig

	// productMu serializes the lazy product lookup; concurrent recurring
	// checkouts must not each create their own product.
	productMu sync.Mutex
	productID string

	donation donation.Service
	event    event.Service
	notifier *EventManager
	logger   *zap.Logger
}

// NewStripePayment constructs the Stripe client once at startup; handlers
// share the instance for the lifetime of the process. The returned cleanup
// drains the notifier and runs when the injector's cleanup is invoked.
func NewStripePayment(cfg *config.Config,
	ds donation.Service,
	es event.Service,
	notifier *EventManager,
	logger *zap.Logger) (Payment, func()) {
	sp := &StripePayment{
		client:        client.New(cfg.Stripe.SecretKey, nil),
		webhookSecret: cfg.Stripe.WebhookSecret,
		productID:     cfg.Stripe.ProductID,
		site:          cfg.Site,
		donation:      ds,
		event:         es,
		notifier:      notifier,
		logger:        logger,
	}
	return sp, sp.Close
}

// MinorUnits converts a major-unit PLN amount to grosze.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func resolveRedirectURLs(req *models.CheckoutRequest, site config.SiteConfig) (string, string) {
	successURL := req.SuccessURL
	if successURL == "" {
		successURL = site.URL + "/donate/success"
	}
	cancelURL := req.CancelURL
	if cancelURL == "" {
		cancelURL = site.URL + "/donate/cancel"
	}
	return successURL, cancelURL
}

func checkoutMetadata(req *models.CheckoutRequest) models.CheckoutMetadata {
	return models.CheckoutMetadata{
		DonorName:   req.Name,
		DonorEmail:  req.Email,
		Newsletter:  req.Newsletter,
		Source:      metadataSource,
		PaymentType: req.PaymentType,
	}
}

func buildOneTimeSessionParams(req *models.CheckoutRequest, site config.SiteConfig) *stripe.CheckoutSessionParams {
	successURL, cancelURL := resolveRedirectURLs(req, site)

	description := "Darowizna"
	if req.Name != "" {
		description = fmt.Sprintf("Darowizna od %s", req.Name)
	}

	locale := req.Locale
	if locale == "" {
		locale = "auto"
	}

	metadata := checkoutMetadata(req).ToMap()

	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModePayment)),
		Currency: stripe.String(donationCurrency),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(donationCurrency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(oneTimeProductName),
						Description: stripe.String(description),
					},
					UnitAmount: stripe.Int64(MinorUnits(req.Amount)),
				},
				Quantity: stripe.Int64(1),
			},
		},
		CustomerEmail: stripe.String(req.Email),
		Locale:        stripe.String(locale),
		SuccessURL:    stripe.String(successURL),
		CancelURL:     stripe.String(cancelURL),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: metadata,
		},
	}
	params.Metadata = metadata

	return params
}

func buildRecurringSessionParams(req *models.CheckoutRequest, customerID, priceID string, site config.SiteConfig) *stripe.CheckoutSessionParams {
	successURL, cancelURL := resolveRedirectURLs(req, site)

	locale := req.Locale
	if locale == "" {
		locale = "auto"
	}

	metadata := checkoutMetadata(req).ToMap()

	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(customerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		Locale:     stripe.String(locale),
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
	}
	params.Metadata = metadata

	return params
}

// buildMonthlyPriceParams creates a fresh monthly price for a donor-chosen
// amount; donation amounts are not a fixed catalog.
func buildMonthlyPriceParams(productID string, amount float64) *stripe.PriceParams {
	return &stripe.PriceParams{
		Product:    stripe.String(productID),
		Currency:   stripe.String(donationCurrency),
		UnitAmount: stripe.Int64(MinorUnits(amount)),
		Recurring: &stripe.PriceRecurringParams{
			Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
		},
	}
}

func (sp *StripePayment) CreateCheckoutSession(ctx context.Context, req *models.CheckoutRequest) (*models.CheckoutSession, error) {
	if req.PaymentType == "" {
		req.PaymentType = enum.PaymentTypeOneTime
	}

	sp.logger.Info("creating Stripe checkout session",
		zap.Float64("amount", req.Amount),
		zap.String("payment_type", string(req.PaymentType)))

	var params *stripe.CheckoutSessionParams
	switch req.PaymentType {
	case enum.PaymentTypeOneTime:
		params = buildOneTimeSessionParams(req, sp.site)
	case enum.PaymentTypeRecurring:
		customerID, err := sp.findOrCreateCustomer(req.Email, req.Name)
		if err != nil {
			return nil, err
		}
		productID, err := sp.findOrCreateProduct()
		if err != nil {
			return nil, err
		}
		price, err := sp.client.Prices.New(buildMonthlyPriceParams(productID, req.Amount))
		if err != nil {
			return nil, fmt.Errorf("failed to create Stripe price: %w", err)
		}
		params = buildRecurringSessionParams(req, customerID, price.ID, sp.site)
	default:
		return nil, fmt.Errorf("unsupported payment type: %s", req.PaymentType)
	}

	session, err := sp.client.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create Stripe checkout session: %w", err)
	}

	sp.logger.Info("Stripe checkout session created", zap.String("session_id", session.ID))

	return &models.CheckoutSession{
		URL:         session.URL,
		SessionID:   session.ID,
		PaymentType: req.PaymentType,
	}, nil
}

// findOrCreateCustomer reuses the Stripe customer matching the donor email so
// repeat subscriptions stay correlated.
func (sp *StripePayment) findOrCreateCustomer(email, name string) (string, error) {
	iter := sp.client.Customers.List(&stripe.CustomerListParams{
		Email: stripe.String(email),
	})
	for iter.Next() {
		return iter.Customer().ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("failed to list Stripe customers: %w", err)
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	if name != "" {
		params.Name = stripe.String(name)
	}
	stripeCustomer, err := sp.client.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create Stripe customer: %w", err)
	}
	return stripeCustomer.ID, nil
}

func (sp *StripePayment) findOrCreateProduct() (string, error) {
	sp.productMu.Lock()
	defer sp.productMu.Unlock()

	if sp.productID != "" {
		return sp.productID, nil
	}

	product, err := sp.client.Products.New(&stripe.ProductParams{
		Name: stripe.String(recurringProductName),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create Stripe product: %w", err)
	}

	sp.productID = product.ID
	return product.ID, nil
}

func (sp *StripePayment) CreateDonation(ctx context.Context, d *models.Donation) (*models.Donation, error) {
	if d.Currency == "" {
		d.Currency = strings.ToUpper(donationCurrency)
	}
	d.Status = enum.DonationStatusPending
	return sp.donation.Create(ctx, d)
}

func (sp *StripePayment) DonationStats(ctx context.Context) (*models.DonationStats, error) {
	return sp.donation.Stats(ctx)
}

// HandleStripeWebhook verifies and reconciles a provider callback. Datastore
// failures inside the handlers are logged and still acknowledged, so Stripe
// does not retry-storm us over our own database.
func (sp *StripePayment) HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error {
	stripeEvent, err := webhook.ConstructEvent(payload, signature, sp.webhookSecret)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureVerification, err)
	}

	processed, err := sp.event.IsEventProcessed(ctx, stripeEvent.ID)
	if err != nil {
		sp.logger.Error("failed to check event ledger", zap.Error(err))
	}
	if processed {
		sp.logger.Info("event is already processed", zap.String("event_id", stripeEvent.ID))
		return nil
	}

	if err = sp.event.Create(ctx, &models.Event{
		ID:   stripeEvent.ID,
		Type: stripeEvent.Type,
	}); err != nil {
		sp.logger.Error("failed to record event", zap.Error(err))
	}

	if err = sp.processEvent(ctx, &stripeEvent); err != nil {
		return err
	}

	if err = sp.event.MarkEventAsProcessed(ctx, stripeEvent.ID); err != nil {
		sp.logger.Error("failed to mark event as processed", zap.Error(err))
	}

	return nil
}

func (sp *StripePayment) processEvent(ctx context.Context, stripeEvent *stripe.Event) error {
	sp.logger.Info("received webhook event",
		zap.String("event_id", stripeEvent.ID),
		zap.String("event_type", string(stripeEvent.Type)))

	switch stripeEvent.Type {
	case "checkout.session.completed":
		return sp.handleCheckoutSessionCompleted(ctx, stripeEvent)
	case "payment_intent.succeeded":
		return sp.handlePaymentIntentSucceeded(ctx, stripeEvent)
	case "payment_intent.payment_failed":
		return sp.handlePaymentIntentFailed(ctx, stripeEvent)
	case "invoice.payment_succeeded":
		return sp.handleInvoicePaymentSucceeded(ctx, stripeEvent)
	case "invoice.payment_failed":
		return sp.handleInvoicePaymentFailed(ctx, stripeEvent)
	case "customer.subscription.deleted":
		return sp.handleSubscriptionDeleted(ctx, stripeEvent)
	default:
		sp.logger.Info("unhandled event type", zap.String("event_type", string(stripeEvent.Type)))
		return nil
	}
}

func (sp *StripePayment) handleCheckoutSessionCompleted(ctx context.Context, stripeEvent *stripe.Event) error {
	session := new(stripe.CheckoutSession)
	if err := json.Unmarshal(stripeEvent.Data.Raw, session); err != nil {
		return fmt.Errorf("failed to unmarshal checkout session event: %w", err)
	}

	if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		sp.logger.Info("checkout completed but not yet paid, leaving donation pending",
			zap.String("session_id", session.ID),
			zap.String("payment_status", string(session.PaymentStatus)))
		return nil
	}

	if err := sp.donation.CompleteBySessionID(ctx, session.ID, time.Now()); err != nil {
		sp.logger.Error("failed to complete donation after checkout",
			zap.String("session_id", session.ID), zap.Error(err))
		return nil
	}

	metadata := models.CheckoutMetadataFromMap(session.Metadata)
	sp.notifier.Publish(&Notification{
		Kind:       NotificationCompleted,
		DonorEmail: metadata.DonorEmail,
	})

	return nil
}

func (sp *StripePayment) handlePaymentIntentSucceeded(ctx context.Context, stripeEvent *stripe.Event) error {
	paymentIntent := new(stripe.PaymentIntent)
	if err := json.Unmarshal(stripeEvent.Data.Raw, paymentIntent); err != nil {
		return fmt.Errorf("failed to unmarshal payment intent event: %w", err)
	}

	if err := sp.donation.CompleteByPaymentIntent(ctx, paymentIntent.ID, time.Now()); err != nil {
		sp.logger.Error("failed to complete donation after payment",
			zap.String("payment_intent_id", paymentIntent.ID), zap.Error(err))
	}

	return nil
}

func (sp *StripePayment) handlePaymentIntentFailed(ctx context.Context, stripeEvent *stripe.Event) error {
	paymentIntent := new(stripe.PaymentIntent)
	if err := json.Unmarshal(stripeEvent.Data.Raw, paymentIntent); err != nil {
		return fmt.Errorf("failed to unmarshal payment intent event: %w", err)
	}

	if err := sp.donation.FailByPaymentIntent(ctx, paymentIntent.ID); err != nil {
		sp.logger.Error("failed to mark donation as failed",
			zap.String("payment_intent_id", paymentIntent.ID), zap.Error(err))
		return nil
	}

	sp.notifier.Publish(&Notification{Kind: NotificationFailed})

	return nil
}

// handleInvoicePaymentSucceeded records each recurring billing cycle as a new
// donation row. The first cycle is skipped; checkout already recorded it.
func (sp *StripePayment) handleInvoicePaymentSucceeded(ctx context.Context, stripeEvent *stripe.Event) error {
	invoice := new(stripe.Invoice)
	if err := json.Unmarshal(stripeEvent.Data.Raw, invoice); err != nil {
		return fmt.Errorf("failed to unmarshal invoice event: %w", err)
	}

	if invoice.Subscription == nil {
		sp.logger.Info("invoice is not tied to a subscription, skipping",
			zap.String("invoice_id", invoice.ID))
		return nil
	}

	if invoice.BillingReason == stripe.InvoiceBillingReasonSubscriptionCreate {
		sp.logger.Info("first subscription invoice already recorded at checkout, skipping",
			zap.String("invoice_id", invoice.ID))
		return nil
	}

	metadata, err := sp.subscriptionMetadata(invoice)
	if err != nil {
		return err
	}

	email := invoice.CustomerEmail
	if email == "" {
		if email, err = sp.customerEmail(invoice); err != nil {
			return err
		}
	}
	if email == "" {
		email = metadata.DonorEmail
	}

	d := models.NewDonation()
	d.Amount = float64(invoice.AmountPaid) / 100
	d.Currency = strings.ToUpper(string(invoice.Currency))
	d.DonorName = metadata.DonorName
	d.DonorEmail = email
	d.Status = enum.DonationStatusCompleted
	d.Newsletter = metadata.Newsletter
	if invoice.PaymentIntent != nil {
		d.StripePaymentIntentID = stripe.String(invoice.PaymentIntent.ID)
	}
	completedAt := time.Now()
	if invoice.StatusTransitions != nil && invoice.StatusTransitions.PaidAt > 0 {
		completedAt = time.Unix(invoice.StatusTransitions.PaidAt, 0)
	}
	d.CompletedAt = &completedAt

	inserted, err := sp.donation.RecordCycle(ctx, d)
	if err != nil {
		sp.logger.Error("failed to record recurring donation",
			zap.String("invoice_id", invoice.ID), zap.Error(err))
		return nil
	}
	if !inserted {
		sp.logger.Info("recurring donation already recorded",
			zap.String("invoice_id", invoice.ID))
		return nil
	}

	sp.notifier.Publish(&Notification{
		Kind:       NotificationCompleted,
		Donation:   d,
		DonorEmail: d.DonorEmail,
	})

	return nil
}

func (sp *StripePayment) handleInvoicePaymentFailed(ctx context.Context, stripeEvent *stripe.Event) error {
	invoice := new(stripe.Invoice)
	if err := json.Unmarshal(stripeEvent.Data.Raw, invoice); err != nil {
		return fmt.Errorf("failed to unmarshal invoice event: %w", err)
	}

	if invoice.Subscription == nil {
		return nil
	}

	email := invoice.CustomerEmail
	if email == "" {
		var err error
		if email, err = sp.customerEmail(invoice); err != nil {
			return err
		}
	}

	d := models.NewDonation()
	d.Amount = float64(invoice.AmountDue) / 100
	d.Currency = strings.ToUpper(string(invoice.Currency))
	d.DonorEmail = email
	d.Status = enum.DonationStatusFailed
	if invoice.PaymentIntent != nil {
		d.StripePaymentIntentID = stripe.String(invoice.PaymentIntent.ID)
	}

	if _, err := sp.donation.RecordCycle(ctx, d); err != nil {
		sp.logger.Error("failed to record failed recurring donation",
			zap.String("invoice_id", invoice.ID), zap.Error(err))
		return nil
	}

	sp.notifier.Publish(&Notification{
		Kind:       NotificationFailed,
		DonorEmail: email,
	})

	return nil
}

// handleSubscriptionDeleted is notification-only; cancelling a subscription
// does not touch donations already recorded.
func (sp *StripePayment) handleSubscriptionDeleted(ctx context.Context, stripeEvent *stripe.Event) error {
	subscription := new(stripe.Subscription)
	if err := json.Unmarshal(stripeEvent.Data.Raw, subscription); err != nil {
		return fmt.Errorf("failed to unmarshal subscription event: %w", err)
	}

	email := subscription.Metadata["donor_email"]
	sp.logger.Info("subscription canceled",
		zap.String("subscription_id", subscription.ID),
		zap.String("donor_email", email))

	sp.notifier.Publish(&Notification{
		Kind:       NotificationSubscriptionCanceled,
		DonorEmail: email,
	})

	return nil
}

func (sp *StripePayment) subscriptionMetadata(invoice *stripe.Invoice) (models.CheckoutMetadata, error) {
	if invoice.SubscriptionDetails != nil && len(invoice.SubscriptionDetails.Metadata) > 0 {
		return models.CheckoutMetadataFromMap(invoice.SubscriptionDetails.Metadata), nil
	}

	subscription, err := sp.client.Subscriptions.Get(invoice.Subscription.ID, nil)
	if err != nil {
		return models.CheckoutMetadata{}, fmt.Errorf("failed to retrieve Stripe subscription: %w", err)
	}
	return models.CheckoutMetadataFromMap(subscription.Metadata), nil
}

func (sp *StripePayment) customerEmail(invoice *stripe.Invoice) (string, error) {
	if invoice.Customer == nil {
		return "", nil
	}
	stripeCustomer, err := sp.client.Customers.Get(invoice.Customer.ID, nil)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve Stripe customer: %w", err)
	}
	return stripeCustomer.Email, nil
}

func (sp *StripePayment) Close() {
	sp.notifier.Close()
	sp.logger.Info("StripePayment successfully shutdown")
}
