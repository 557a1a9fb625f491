package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/msk-earth/payment/config"
	"github.com/msk-earth/payment/donation"
	"github.com/msk-earth/payment/models"
)

// PayUError carries the provider status code back to the HTTP layer so order
// rejections surface as 400 with the provider's reason.
type PayUError struct {
	StatusCode string
	Details    any
}

func (e *PayUError) Error() string {
	return fmt.Sprintf("payu order rejected: %s", e.StatusCode)
}

type PayUGateway interface {
	// CreateOrder registers a PayU order and returns the hosted payment page
	// redirect. A pending donation row is recorded under the external order id.
	CreateOrder(ctx context.Context, req *models.PayUOrderRequest, customerIP string) (*models.PayUOrderResponse, error)

	// HandleNotification processes a PayU IPN callback. It never fails the
	// HTTP response; PayU is always acknowledged to stop retries.
	HandleNotification(ctx context.Context, notification *models.PayUNotification)
}

type payuGateway struct {
	baseURL    string
	posID      string
	publicURL  string
	httpClient *http.Client

	donation donation.Service
	notifier *EventManager
	logger   *zap.Logger
}

// NewPayUGateway wires the OAuth client-credentials token source; tokens are
// fetched lazily and reused until expiry.
func NewPayUGateway(cfg *config.Config, ds donation.Service, notifier *EventManager, logger *zap.Logger) PayUGateway {
	cc := clientcredentials.Config{
		ClientID:     cfg.PayU.ClientID,
		ClientSecret: cfg.PayU.ClientSecret,
		TokenURL:     cfg.PayU.BaseURL + "/pl/standard/user/oauth/token",
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	httpClient := cc.Client(context.Background())
	// PayU answers order creation with a 302 to the payment page; the JSON
	// body on that response is what we need, not the redirect target.
	httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	httpClient.Timeout = 15 * time.Second

	return &payuGateway{
		baseURL:    cfg.PayU.BaseURL,
		posID:      cfg.PayU.PosID,
		publicURL:  cfg.Site.PublicURL,
		httpClient: httpClient,
		donation:   ds,
		notifier:   notifier,
		logger:     logger,
	}
}

type payuOrderPayload struct {
	NotifyURL   string        `json:"notifyUrl"`
	ContinueURL string        `json:"continueUrl"`
	CustomerIP  string        `json:"customerIp"`
	MerchantPos string        `json:"merchantPosId"`
	Description string        `json:"description"`
	Currency    string        `json:"currencyCode"`
	TotalAmount string        `json:"totalAmount"`
	ExtOrderID  string        `json:"extOrderId"`
	Buyer       payuBuyer     `json:"buyer"`
	Products    []payuProduct `json:"products"`
}

type payuBuyer struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
}

type payuProduct struct {
	Name      string `json:"name"`
	UnitPrice string `json:"unitPrice"`
	Quantity  string `json:"quantity"`
}

type payuOrderResult struct {
	RedirectURI string `json:"redirectUri"`
	OrderID     string `json:"orderId"`
	Status      struct {
		StatusCode string `json:"statusCode"`
	} `json:"status"`
}

func buildPayUOrderPayload(req *models.PayUOrderRequest, posID, publicURL, customerIP string) *payuOrderPayload {
	description := req.Description
	if description == "" {
		description = "Donation"
	}

	extOrderID := req.OrderID
	if extOrderID == "" {
		extOrderID = fmt.Sprintf("ORD-%d", time.Now().UnixMilli())
	}

	grosze := strconv.FormatInt(MinorUnits(req.Total), 10)

	return &payuOrderPayload{
		NotifyURL:   publicURL + "/api/payments/notify",
		ContinueURL: publicURL + "/checkout/return",
		CustomerIP:  customerIP,
		MerchantPos: posID,
		Description: description,
		Currency:    "PLN",
		TotalAmount: grosze,
		ExtOrderID:  extOrderID,
		Buyer:       payuBuyer{Email: req.Email, FirstName: req.FirstName},
		Products: []payuProduct{
			{Name: description, UnitPrice: grosze, Quantity: "1"},
		},
	}
}

func (pg *payuGateway) CreateOrder(ctx context.Context, req *models.PayUOrderRequest, customerIP string) (*models.PayUOrderResponse, error) {
	payload := buildPayUOrderPayload(req, pg.posID, pg.publicURL, customerIP)

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payu order: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, pg.baseURL+"/api/v2_1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build payu request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json; charset=utf-8")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := pg.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call payu orders API: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read payu response: %w", err)
	}

	var result payuOrderResult
	if len(raw) > 0 {
		if err = json.Unmarshal(raw, &result); err != nil {
			pg.logger.Warn("non-JSON payu response", zap.Int("status", resp.StatusCode))
		}
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusFound:
		// accepted
	default:
		statusCode := result.Status.StatusCode
		if statusCode == "" {
			statusCode = "ORDER_CREATE_FAILED"
		}
		return nil, &PayUError{StatusCode: statusCode, Details: json.RawMessage(raw)}
	}

	d := models.NewDonation()
	d.Amount = req.Total
	d.DonorName = req.FirstName
	d.DonorEmail = req.Email
	d.PayUOrderID = &payload.ExtOrderID
	if _, err = pg.donation.Create(ctx, d); err != nil {
		pg.logger.Error("failed to record pending payu donation",
			zap.String("ext_order_id", payload.ExtOrderID), zap.Error(err))
	}

	pg.logger.Info("payu order created",
		zap.String("payu_order_id", result.OrderID),
		zap.String("ext_order_id", payload.ExtOrderID))

	return &models.PayUOrderResponse{
		RedirectURI: result.RedirectURI,
		PayUOrderID: result.OrderID,
	}, nil
}

func (pg *payuGateway) HandleNotification(ctx context.Context, notification *models.PayUNotification) {
	order := notification.Order
	pg.logger.Info("payu notify",
		zap.String("order_id", order.OrderID),
		zap.String("ext_order_id", order.ExtOrderID),
		zap.String("status", order.Status))

	switch order.Status {
	case models.PayUStatusCompleted:
		if err := pg.donation.CompleteByPayUOrder(ctx, order.ExtOrderID, time.Now()); err != nil {
			pg.logger.Error("failed to complete payu donation",
				zap.String("ext_order_id", order.ExtOrderID), zap.Error(err))
			return
		}
		notificationEmail := ""
		if order.Buyer != nil {
			notificationEmail = order.Buyer.Email
		}
		pg.notifier.Publish(&Notification{
			Kind:       NotificationCompleted,
			DonorEmail: notificationEmail,
		})
	case models.PayUStatusCanceled:
		if err := pg.donation.FailByPayUOrder(ctx, order.ExtOrderID); err != nil {
			pg.logger.Error("failed to mark payu donation as failed",
				zap.String("ext_order_id", order.ExtOrderID), zap.Error(err))
		}
	default:
		// NEW / PENDING / WAITING_FOR_CONFIRMATION carry no terminal state
	}
}
