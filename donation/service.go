package donation

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/msk-earth/payment/driver"
	"github.com/msk-earth/payment/models"
)

const (
	statsCacheKey = "donations:stats"
	statsCacheTTL = time.Minute
)

type Service interface {
	Create(ctx context.Context, donation *models.Donation) (*models.Donation, error)
	RecordCycle(ctx context.Context, donation *models.Donation) (bool, error)
	CompleteBySessionID(ctx context.Context, sessionID string, completedAt time.Time) error
	CompleteByPaymentIntent(ctx context.Context, paymentIntentID string, completedAt time.Time) error
	FailByPaymentIntent(ctx context.Context, paymentIntentID string) error
	CompleteByPayUOrder(ctx context.Context, orderID string, completedAt time.Time) error
	FailByPayUOrder(ctx context.Context, orderID string) error
	Stats(ctx context.Context) (*models.DonationStats, error)
}

type service struct {
	repo               Repository
	transactionManager *driver.TransactionManager
	cache              *redis.Client
	logger             *zap.Logger
}

func NewService(repo Repository, tm *driver.TransactionManager, cache *redis.Client, logger *zap.Logger) Service {
	return &service{
		repo:               repo,
		transactionManager: tm,
		cache:              cache,
		logger:             logger,
	}
}

func (s *service) Create(ctx context.Context, donation *models.Donation) (*models.Donation, error) {
	err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		donation, err = s.repo.Create(ctx, tx, donation)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidateStats(ctx)
	return donation, nil
}

func (s *service) RecordCycle(ctx context.Context, donation *models.Donation) (bool, error) {
	var inserted bool
	err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		inserted, err = s.repo.InsertCycle(ctx, tx, donation)
		return err
	})
	if err != nil {
		return false, err
	}
	if inserted {
		s.invalidateStats(ctx)
	}
	return inserted, nil
}

func (s *service) CompleteBySessionID(ctx context.Context, sessionID string, completedAt time.Time) error {
	return s.terminalUpdate(ctx, func(tx pgx.Tx) (int64, error) {
		return s.repo.CompleteBySessionID(ctx, tx, sessionID, completedAt)
	})
}

func (s *service) CompleteByPaymentIntent(ctx context.Context, paymentIntentID string, completedAt time.Time) error {
	return s.terminalUpdate(ctx, func(tx pgx.Tx) (int64, error) {
		return s.repo.CompleteByPaymentIntent(ctx, tx, paymentIntentID, completedAt)
	})
}

func (s *service) FailByPaymentIntent(ctx context.Context, paymentIntentID string) error {
	return s.terminalUpdate(ctx, func(tx pgx.Tx) (int64, error) {
		return s.repo.FailByPaymentIntent(ctx, tx, paymentIntentID)
	})
}

func (s *service) CompleteByPayUOrder(ctx context.Context, orderID string, completedAt time.Time) error {
	return s.terminalUpdate(ctx, func(tx pgx.Tx) (int64, error) {
		return s.repo.CompleteByPayUOrder(ctx, tx, orderID, completedAt)
	})
}

func (s *service) FailByPayUOrder(ctx context.Context, orderID string) error {
	return s.terminalUpdate(ctx, func(tx pgx.Tx) (int64, error) {
		return s.repo.FailByPayUOrder(ctx, tx, orderID)
	})
}

// terminalUpdate applies a pending → terminal transition. Zero affected rows
// is not an error: the row either never existed or already reached its
// terminal state on an earlier delivery.
func (s *service) terminalUpdate(ctx context.Context, fn func(tx pgx.Tx) (int64, error)) error {
	var affected int64
	err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		affected, err = fn(tx)
		return err
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		s.logger.Info("terminal donation update matched no pending rows")
		return nil
	}
	s.invalidateStats(ctx)
	return nil
}

func (s *service) Stats(ctx context.Context) (*models.DonationStats, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, statsCacheKey).Bytes(); err == nil {
			var stats models.DonationStats
			if err = json.Unmarshal(cached, &stats); err == nil {
				return &stats, nil
			}
		}
	}

	var stats *models.DonationStats
	err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		stats, err = s.repo.Stats(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if encoded, err := json.Marshal(stats); err == nil {
			if err = s.cache.Set(ctx, statsCacheKey, encoded, statsCacheTTL).Err(); err != nil {
				s.logger.Warn("failed to cache donation stats", zap.Error(err))
			}
		}
	}

	return stats, nil
}

func (s *service) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, statsCacheKey).Err(); err != nil {
		s.logger.Warn("failed to invalidate donation stats cache", zap.Error(err))
	}
}
