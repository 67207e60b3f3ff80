package repository

import (
	"context"
	"sync/atomic"
	"time"

	"avtoservis/internal/domain"

	"github.com/rs/zerolog"
)

// FailoverSessionRepository trips to the fallback when the primary fails and
// retries the primary after a cooldown.
type FailoverSessionRepository struct {
	primary   domain.SessionRepository
	fallback  domain.SessionRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

const failoverCooldown = time.Minute

func NewFailoverSessionRepository(primary, fallback domain.SessionRepository, logger *zerolog.Logger) *FailoverSessionRepository {
	return &FailoverSessionRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverSessionRepository) StoreRefreshToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	if r.primaryUsable() {
		err := r.primary.StoreRefreshToken(ctx, token, userID, ttl)
		if err == nil {
			r.markUp()
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.StoreRefreshToken(ctx, token, userID, ttl)
}

func (r *FailoverSessionRepository) GetRefreshToken(ctx context.Context, token string) (string, error) {
	if r.primaryUsable() {
		userID, err := r.primary.GetRefreshToken(ctx, token)
		if err == nil {
			r.markUp()
			return userID, nil
		}
		r.markDown(err)
	}
	return r.fallback.GetRefreshToken(ctx, token)
}

func (r *FailoverSessionRepository) RevokeRefreshToken(ctx context.Context, token string) error {
	if r.primaryUsable() {
		err := r.primary.RevokeRefreshToken(ctx, token)
		if err == nil {
			r.markUp()
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.RevokeRefreshToken(ctx, token)
}

func (r *FailoverSessionRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.primaryUsable() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			r.markUp()
			return allowed, nil
		}
		r.markDown(err)
	}
	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}

func (r *FailoverSessionRepository) primaryUsable() bool {
	if !r.isDown.Load() {
		return true
	}
	last := time.Unix(0, r.lastCheck.Load())
	return time.Since(last) > failoverCooldown
}

func (r *FailoverSessionRepository) markUp() {
	r.isDown.Store(false)
}

func (r *FailoverSessionRepository) markDown(err error) {
	r.logger.Error().Err(err).Msg("primary session repository failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck.Store(time.Now().UnixNano())
}
