package payment

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/msk-earth/payment/models"
)

// Notification kinds published on the bus. External consumers (thank-you
// mailer, newsletter sync) subscribe to donations.<kind>.
const (
	NotificationCompleted            = "completed"
	NotificationFailed               = "failed"
	NotificationSubscriptionCanceled = "subscription_canceled"
)

type Notification struct {
	Kind       string           `json:"kind"`
	Donation   *models.Donation `json:"donation,omitempty"`
	DonorEmail string           `json:"donor_email,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// EventManager publishes donation lifecycle notifications over NATS. A nil
// connection degrades to log-only so a missing broker never blocks payments.
type EventManager struct {
	natsConn *nats.Conn
	logger   *zap.Logger
}

func NewEventManager(natsConn *nats.Conn, logger *zap.Logger) *EventManager {
	return &EventManager{
		natsConn: natsConn,
		logger:   logger,
	}
}

func (em *EventManager) Publish(notification *Notification) {
	if notification.OccurredAt.IsZero() {
		notification.OccurredAt = time.Now()
	}

	if em.natsConn == nil {
		em.logger.Info("donation notification",
			zap.String("kind", notification.Kind),
			zap.String("donor_email", notification.DonorEmail))
		return
	}

	subject := fmt.Sprintf("donations.%s", notification.Kind)
	data, err := json.Marshal(notification)
	if err != nil {
		em.logger.Error("failed to marshal notification", zap.Error(err))
		return
	}

	if err = em.natsConn.Publish(subject, data); err != nil {
		em.logger.Error("failed to publish notification",
			zap.String("subject", subject), zap.Error(err))
	}
}

func (em *EventManager) Close() {
	if em.natsConn != nil {
		em.natsConn.Close()
	}
}
