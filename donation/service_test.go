package donation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	qt "github.com/frankban/quicktest"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/msk-earth/payment/driver"
	"github.com/msk-earth/payment/models"
)

// fakeTx satisfies the commit/rollback surface ExecuteTransaction touches;
// everything else panics through the nil embed if a test strays onto it.
type fakeTx struct {
	pgx.Tx
}

func (fakeTx) Commit(ctx context.Context) error   { return nil }
func (fakeTx) Rollback(ctx context.Context) error { return pgx.ErrTxClosed }

type fakePool struct {
	driver.PostgresPool
}

func (fakePool) Begin(ctx context.Context) (pgx.Tx, error) { return fakeTx{}, nil }

type mockRepository struct {
	CreateFunc              func(ctx context.Context, tx pgx.Tx, donation *models.Donation) (*models.Donation, error)
	InsertCycleFunc         func(ctx context.Context, tx pgx.Tx, donation *models.Donation) (bool, error)
	CompleteBySessionIDFunc func(ctx context.Context, tx pgx.Tx, sessionID string, completedAt time.Time) (int64, error)
	StatsFunc               func(ctx context.Context, tx pgx.Tx) (*models.DonationStats, error)
}

func (m *mockRepository) Create(ctx context.Context, tx pgx.Tx, donation *models.Donation) (*models.Donation, error) {
	return m.CreateFunc(ctx, tx, donation)
}

func (m *mockRepository) InsertCycle(ctx context.Context, tx pgx.Tx, donation *models.Donation) (bool, error) {
	return m.InsertCycleFunc(ctx, tx, donation)
}

func (m *mockRepository) CompleteBySessionID(ctx context.Context, tx pgx.Tx, sessionID string, completedAt time.Time) (int64, error) {
	return m.CompleteBySessionIDFunc(ctx, tx, sessionID, completedAt)
}

func (m *mockRepository) CompleteByPaymentIntent(ctx context.Context, tx pgx.Tx, paymentIntentID string, completedAt time.Time) (int64, error) {
	return 0, nil
}

func (m *mockRepository) FailByPaymentIntent(ctx context.Context, tx pgx.Tx, paymentIntentID string) (int64, error) {
	return 0, nil
}

func (m *mockRepository) CompleteByPayUOrder(ctx context.Context, tx pgx.Tx, orderID string, completedAt time.Time) (int64, error) {
	return 0, nil
}

func (m *mockRepository) FailByPayUOrder(ctx context.Context, tx pgx.Tx, orderID string) (int64, error) {
	return 0, nil
}

func (m *mockRepository) Stats(ctx context.Context, tx pgx.Tx) (*models.DonationStats, error) {
	return m.StatsFunc(ctx, tx)
}

func newTestService(repo Repository) Service {
	tm := driver.NewTransactionManager(fakePool{}, zap.NewNop())
	return NewService(repo, tm, nil, zap.NewNop())
}

func TestServiceCreateRunsInTransaction(t *testing.T) {
	c := qt.New(t)

	repo := &mockRepository{
		CreateFunc: func(ctx context.Context, tx pgx.Tx, donation *models.Donation) (*models.Donation, error) {
			donation.ID = 42
			return donation, nil
		},
	}
	s := newTestService(repo)

	d := models.NewDonation()
	d.Amount = 50
	created, err := s.Create(context.Background(), d)

	c.Assert(err, qt.IsNil)
	c.Assert(created.ID, qt.Equals, int64(42))
}

func TestServiceCompleteBySessionIDZeroRowsIsNotAnError(t *testing.T) {
	c := qt.New(t)

	repo := &mockRepository{
		CompleteBySessionIDFunc: func(ctx context.Context, tx pgx.Tx, sessionID string, completedAt time.Time) (int64, error) {
			return 0, nil
		},
	}
	s := newTestService(repo)

	err := s.CompleteBySessionID(context.Background(), "cs_gone", time.Now())

	c.Assert(err, qt.IsNil)
}

func TestServiceCompleteBySessionIDPropagatesRepoError(t *testing.T) {
	c := qt.New(t)

	repoErr := errors.New("connection reset")
	repo := &mockRepository{
		CompleteBySessionIDFunc: func(ctx context.Context, tx pgx.Tx, sessionID string, completedAt time.Time) (int64, error) {
			return 0, repoErr
		},
	}
	s := newTestService(repo)

	err := s.CompleteBySessionID(context.Background(), "cs_1", time.Now())

	c.Assert(errors.Is(err, repoErr), qt.IsTrue)
}

func TestServiceRecordCycleReportsDuplicates(t *testing.T) {
	c := qt.New(t)

	repo := &mockRepository{
		InsertCycleFunc: func(ctx context.Context, tx pgx.Tx, donation *models.Donation) (bool, error) {
			return false, nil
		},
	}
	s := newTestService(repo)

	inserted, err := s.RecordCycle(context.Background(), models.NewDonation())

	c.Assert(err, qt.IsNil)
	c.Assert(inserted, qt.IsFalse)
}

func TestServiceStatsWithoutCache(t *testing.T) {
	c := qt.New(t)

	calls := 0
	repo := &mockRepository{
		StatsFunc: func(ctx context.Context, tx pgx.Tx) (*models.DonationStats, error) {
			calls++
			return &models.DonationStats{GoalAmount: 10000, CurrentAmount: 120.5, DonorsCount: 3}, nil
		},
	}
	s := newTestService(repo)

	stats, err := s.Stats(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(stats.CurrentAmount, qt.Equals, 120.5)

	_, err = s.Stats(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(calls, qt.Equals, 2)
}

func TestServiceStatsCacheAndInvalidation(t *testing.T) {
	c := qt.New(t)

	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	calls := 0
	repo := &mockRepository{
		StatsFunc: func(ctx context.Context, tx pgx.Tx) (*models.DonationStats, error) {
			calls++
			return &models.DonationStats{GoalAmount: 10000, CurrentAmount: 500, DonorsCount: 7}, nil
		},
		CompleteBySessionIDFunc: func(ctx context.Context, tx pgx.Tx, sessionID string, completedAt time.Time) (int64, error) {
			return 1, nil
		},
	}
	tm := driver.NewTransactionManager(fakePool{}, zap.NewNop())
	s := NewService(repo, tm, cache, zap.NewNop())

	stats, err := s.Stats(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(stats.DonorsCount, qt.Equals, int64(7))
	c.Assert(calls, qt.Equals, 1)

	stats, err = s.Stats(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(stats.DonorsCount, qt.Equals, int64(7))
	c.Assert(calls, qt.Equals, 1)

	err = s.CompleteBySessionID(context.Background(), "cs_1", time.Now())
	c.Assert(err, qt.IsNil)
	c.Assert(mr.Exists(statsCacheKey), qt.IsFalse)

	_, err = s.Stats(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(calls, qt.Equals, 2)
}
