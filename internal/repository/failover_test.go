package repository

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"avtoservis/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenSessionRepository fails every call and counts attempts.
type brokenSessionRepository struct {
	calls atomic.Int64
}

var errBroken = errors.New("primary is down")

func (r *brokenSessionRepository) StoreRefreshToken(context.Context, string, string, time.Duration) error {
	r.calls.Add(1)
	return errBroken
}

func (r *brokenSessionRepository) GetRefreshToken(context.Context, string) (string, error) {
	r.calls.Add(1)
	return "", errBroken
}

func (r *brokenSessionRepository) RevokeRefreshToken(context.Context, string) error {
	r.calls.Add(1)
	return errBroken
}

func (r *brokenSessionRepository) CheckRateLimit(context.Context, string, int, time.Duration) (bool, error) {
	r.calls.Add(1)
	return false, errBroken
}

var _ domain.SessionRepository = (*brokenSessionRepository)(nil)

func TestFailoverFallsBackOnPrimaryError(t *testing.T) {
	logger := zerolog.New(os.Stdout)
	primary := &brokenSessionRepository{}
	fallback := NewMemorySessionRepository()
	repo := NewFailoverSessionRepository(primary, fallback, &logger)
	ctx := context.Background()

	require.NoError(t, repo.StoreRefreshToken(ctx, "tok-1", "user-1", time.Hour))

	userID, err := repo.GetRefreshToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestFailoverSkipsPrimaryDuringCooldown(t *testing.T) {
	logger := zerolog.New(os.Stdout)
	primary := &brokenSessionRepository{}
	repo := NewFailoverSessionRepository(primary, NewMemorySessionRepository(), &logger)
	ctx := context.Background()

	// First call trips the breaker.
	require.NoError(t, repo.StoreRefreshToken(ctx, "tok-1", "user-1", time.Hour))
	assert.Equal(t, int64(1), primary.calls.Load())

	// Subsequent calls inside the cooldown window go straight to the fallback.
	_, err := repo.GetRefreshToken(ctx, "tok-1")
	require.NoError(t, err)
	require.NoError(t, repo.RevokeRefreshToken(ctx, "tok-1"))
	assert.Equal(t, int64(1), primary.calls.Load())
}

func TestFailoverRecoversWhenPrimaryWorks(t *testing.T) {
	logger := zerolog.New(os.Stdout)
	primary := NewMemorySessionRepository()
	fallback := NewMemorySessionRepository()
	repo := NewFailoverSessionRepository(primary, fallback, &logger)
	ctx := context.Background()

	require.NoError(t, repo.StoreRefreshToken(ctx, "tok-1", "user-1", time.Hour))

	// The token lives in the primary, not the fallback.
	userID, err := primary.GetRefreshToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	userID, err = fallback.GetRefreshToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.Empty(t, userID)
}
