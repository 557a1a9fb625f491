package event

import (
	"context"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/msk-earth/payment/driver"
	"github.com/msk-earth/payment/models"
)

var _ Repository = (*repository)(nil)

type Repository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	MarkAsProcessed(ctx context.Context, id string) error
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

func (r *repository) Create(ctx context.Context, event *models.Event) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO webhook_events (id, type, processed)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING`,
		event.ID, event.Type, event.Processed,
	)
	return err
}

func (r *repository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	event := &models.Event{}
	err := r.conn.QueryRow(ctx, `
		SELECT id, type, processed, created_at, updated_at
		FROM webhook_events WHERE id = $1`,
		id,
	).Scan(&event.ID, &event.Type, &event.Processed, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return event, nil
}

func (r *repository) MarkAsProcessed(ctx context.Context, id string) error {
	_, err := r.conn.Exec(ctx, `
		UPDATE webhook_events SET processed = TRUE, updated_at = now()
		WHERE id = $1`,
		id,
	)
	return err
}
