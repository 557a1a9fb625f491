package donation

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/msk-earth/payment/driver"
	"github.com/msk-earth/payment/models"
	"github.com/msk-earth/payment/models/enum"
)

var _ Repository = (*repository)(nil)

type Repository interface {
	Create(ctx context.Context, tx pgx.Tx, donation *models.Donation) (*models.Donation, error)
	InsertCycle(ctx context.Context, tx pgx.Tx, donation *models.Donation) (bool, error)
	CompleteBySessionID(ctx context.Context, tx pgx.Tx, sessionID string, completedAt time.Time) (int64, error)
	CompleteByPaymentIntent(ctx context.Context, tx pgx.Tx, paymentIntentID string, completedAt time.Time) (int64, error)
	FailByPaymentIntent(ctx context.Context, tx pgx.Tx, paymentIntentID string) (int64, error)
	CompleteByPayUOrder(ctx context.Context, tx pgx.Tx, orderID string, completedAt time.Time) (int64, error)
	FailByPayUOrder(ctx context.Context, tx pgx.Tx, orderID string) (int64, error)
	Stats(ctx context.Context, tx pgx.Tx) (*models.DonationStats, error)
}

type repository struct {
	conn   driver.PostgresPool
	logger *zap.Logger
}

func NewRepository(conn driver.PostgresPool, logger *zap.Logger) Repository {
	return &repository{
		conn:   conn,
		logger: logger,
	}
}

func (r *repository) Create(ctx context.Context, tx pgx.Tx, donation *models.Donation) (*models.Donation, error) {
	row := tx.QueryRow(ctx, `
		INSERT INTO donations (amount, currency, donor_name, donor_email, status,
			stripe_session_id, stripe_payment_intent_id, payu_order_id, newsletter, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`,
		donation.Amount, donation.Currency, donation.DonorName, donation.DonorEmail,
		donation.Status, donation.StripeSessionID, donation.StripePaymentIntentID,
		donation.PayUOrderID, donation.Newsletter, donation.CompletedAt,
	)
	if err := row.Scan(&donation.ID, &donation.CreatedAt); err != nil {
		r.logger.Error("error inserting donation", zap.Error(err))
		return nil, err
	}
	return donation, nil
}

// InsertCycle records one recurring billing cycle. The partial unique index on
// stripe_payment_intent_id makes redelivered invoice events a no-op; the
// returned bool reports whether a row was actually written.
func (r *repository) InsertCycle(ctx context.Context, tx pgx.Tx, donation *models.Donation) (bool, error) {
	tag, err := tx.Exec(ctx, `
		INSERT INTO donations (amount, currency, donor_name, donor_email, status,
			stripe_session_id, stripe_payment_intent_id, payu_order_id, newsletter, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (stripe_payment_intent_id) WHERE stripe_payment_intent_id IS NOT NULL
		DO NOTHING`,
		donation.Amount, donation.Currency, donation.DonorName, donation.DonorEmail,
		donation.Status, donation.StripeSessionID, donation.StripePaymentIntentID,
		donation.PayUOrderID, donation.Newsletter, donation.CompletedAt,
	)
	if err != nil {
		r.logger.Error("error inserting donation cycle", zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repository) CompleteBySessionID(ctx context.Context, tx pgx.Tx, sessionID string, completedAt time.Time) (int64, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE donations
		SET status = $1, completed_at = $2
		WHERE stripe_session_id = $3 AND status = $4`,
		enum.DonationStatusCompleted, completedAt, sessionID, enum.DonationStatusPending,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// CompleteByPaymentIntent also matches the session column because early
// client inserts sometimes stored the intent id there.
func (r *repository) CompleteByPaymentIntent(ctx context.Context, tx pgx.Tx, paymentIntentID string, completedAt time.Time) (int64, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE donations
		SET status = $1, stripe_payment_intent_id = $2, completed_at = $3
		WHERE (stripe_payment_intent_id = $2 OR stripe_session_id = $2) AND status = $4`,
		enum.DonationStatusCompleted, paymentIntentID, completedAt, enum.DonationStatusPending,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repository) FailByPaymentIntent(ctx context.Context, tx pgx.Tx, paymentIntentID string) (int64, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE donations
		SET status = $1
		WHERE stripe_payment_intent_id = $2 AND status = $3`,
		enum.DonationStatusFailed, paymentIntentID, enum.DonationStatusPending,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repository) CompleteByPayUOrder(ctx context.Context, tx pgx.Tx, orderID string, completedAt time.Time) (int64, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE donations
		SET status = $1, completed_at = $2
		WHERE payu_order_id = $3 AND status = $4`,
		enum.DonationStatusCompleted, completedAt, orderID, enum.DonationStatusPending,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repository) FailByPayUOrder(ctx context.Context, tx pgx.Tx, orderID string) (int64, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE donations
		SET status = $1
		WHERE payu_order_id = $2 AND status = $3`,
		enum.DonationStatusFailed, orderID, enum.DonationStatusPending,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repository) Stats(ctx context.Context, tx pgx.Tx) (*models.DonationStats, error) {
	stats := &models.DonationStats{GoalAmount: 10000}

	row := tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0),
		       COUNT(DISTINCT donor_email) FILTER (WHERE donor_email <> '')
		FROM donations
		WHERE status = $1`,
		enum.DonationStatusCompleted,
	)
	if err := row.Scan(&stats.CurrentAmount, &stats.DonorsCount); err != nil {
		r.logger.Error("error aggregating donations", zap.Error(err))
		return nil, err
	}

	var goal float64
	err := tx.QueryRow(ctx, `
		SELECT goal_amount FROM fundraising_settings WHERE active LIMIT 1`,
	).Scan(&goal)
	switch err {
	case nil:
		stats.GoalAmount = goal
	case pgx.ErrNoRows:
		// keep the default goal
	default:
		return nil, err
	}

	return stats, nil
}
