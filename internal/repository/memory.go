package repository

import (
	"context"
	"sync"
	"time"
)

type MemorySessionRepository struct {
	tokens     sync.Map
	rateLimits sync.Map
}

type tokenEntry struct {
	userID    string
	expiresAt time.Time
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{}
}

func (r *MemorySessionRepository) StoreRefreshToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	r.tokens.Store(token, &tokenEntry{userID: userID, expiresAt: time.Now().Add(ttl)})
	return nil
}

func (r *MemorySessionRepository) GetRefreshToken(ctx context.Context, token string) (string, error) {
	val, ok := r.tokens.Load(token)
	if !ok {
		return "", nil
	}
	entry := val.(*tokenEntry)
	if time.Now().After(entry.expiresAt) {
		r.tokens.Delete(token)
		return "", nil
	}
	return entry.userID, nil
}

func (r *MemorySessionRepository) RevokeRefreshToken(ctx context.Context, token string) error {
	r.tokens.Delete(token)
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemorySessionRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	val, ok := r.rateLimits.Load(key)

	var entry *rateLimitEntry
	if !ok {
		entry = &rateLimitEntry{count: 1, expiresAt: now.Add(window)}
	} else {
		entry = val.(*rateLimitEntry)
		if now.After(entry.expiresAt) {
			entry.count = 1
			entry.expiresAt = now.Add(window)
		} else {
			entry.count++
		}
	}

	r.rateLimits.Store(key, entry)
	return entry.count <= limit, nil
}
