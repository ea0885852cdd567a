package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"hotelbook/internal/domain"
	"hotelbook/internal/models"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverStateRepository serves from primary and switches to fallback when
// primary errors. Primary is probed again once recoveryInterval has passed.
type FailoverStateRepository struct {
	primary  domain.StateRepository
	fallback domain.StateRepository
	logger   *zerolog.Logger
	isDown   atomic.Bool

	mu        sync.Mutex
	lastCheck time.Time
}

func NewFailoverStateRepository(primary, fallback domain.StateRepository, logger *zerolog.Logger) *FailoverStateRepository {
	return &FailoverStateRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverStateRepository) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary state repository failed, falling back to memory")
	r.isDown.Store(true)
	r.mu.Lock()
	r.lastCheck = time.Now()
	r.mu.Unlock()
}

// usePrimary reports whether the call should go to primary, which is the case
// while it is healthy or when a recovery probe is due.
func (r *FailoverStateRepository) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if time.Since(r.lastCheck) > recoveryInterval {
		r.lastCheck = time.Now()
		return true
	}
	return false
}

func (r *FailoverStateRepository) recovered() {
	if r.isDown.CompareAndSwap(true, false) {
		r.logger.Info().Msg("Primary state repository recovered")
	}
}

func (r *FailoverStateRepository) GetDraft(ctx context.Context, visitorID string) (*models.BookingDraft, error) {
	if r.usePrimary() {
		draft, err := r.primary.GetDraft(ctx, visitorID)
		if err == nil {
			r.recovered()
			return draft, nil
		}
		r.markDown(err)
	}
	return r.fallback.GetDraft(ctx, visitorID)
}

func (r *FailoverStateRepository) SaveDraft(ctx context.Context, draft *models.BookingDraft) error {
	if r.usePrimary() {
		err := r.primary.SaveDraft(ctx, draft)
		if err == nil {
			r.recovered()
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.SaveDraft(ctx, draft)
}

func (r *FailoverStateRepository) ClearDraft(ctx context.Context, visitorID string) error {
	if r.usePrimary() {
		err := r.primary.ClearDraft(ctx, visitorID)
		if err == nil {
			r.recovered()
			// the fallback may hold a copy written while primary was down
			_ = r.fallback.ClearDraft(ctx, visitorID)
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.ClearDraft(ctx, visitorID)
}

func (r *FailoverStateRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			r.recovered()
			return allowed, nil
		}
		r.markDown(err)
	}
	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}
