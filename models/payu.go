package models

// PayUOrderRequest mirrors the order form posted by the donation widget.
type PayUOrderRequest struct {
	Total       float64 `json:"total"`
	Email       string  `json:"email"`
	FirstName   string  `json:"firstName,omitempty"`
	OrderID     string  `json:"orderId,omitempty"`
	Description string  `json:"description,omitempty"`
}

// PayUOrderResponse carries the hosted payment page redirect back to the client.
type PayUOrderResponse struct {
	RedirectURI string `json:"redirectUri"`
	PayUOrderID string `json:"payuOrderId"`
}

// PayUNotification is the server-to-server IPN body PayU posts on order
// status transitions.
type PayUNotification struct {
	Order PayUOrder `json:"order"`
}

type PayUOrder struct {
	OrderID      string     `json:"orderId"`
	ExtOrderID   string     `json:"extOrderId"`
	Status       string     `json:"status"`
	TotalAmount  string     `json:"totalAmount"`
	CurrencyCode string     `json:"currencyCode"`
	Buyer        *PayUBuyer `json:"buyer,omitempty"`
}

type PayUBuyer struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
}

// PayU order statuses seen on the notify endpoint.
const (
	PayUStatusNew       = "NEW"
	PayUStatusPending   = "PENDING"
	PayUStatusCompleted = "COMPLETED"
	PayUStatusCanceled  = "CANCELED"
)
