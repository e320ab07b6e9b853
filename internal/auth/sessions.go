package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"onlevel/internal/cache"
)

// DefaultSessionTTL is how long a sign-in lasts.
const DefaultSessionTTL = 7 * 24 * time.Hour

const sessionPrefix = "session:"

type sessionRecord struct {
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Sessions maps opaque tokens to user ids.
type Sessions struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewSessions(c cache.Cache, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{cache: c, ttl: ttl}
}

// TTL is the lifetime of new sessions.
func (s *Sessions) TTL() time.Duration { return s.ttl }

// Create issues a new token for userID.
func (s *Sessions) Create(ctx context.Context, userID string) (string, error) {
	token := uuid.NewString()
	rec := sessionRecord{UserID: userID, CreatedAt: time.Now()}
	if err := cache.SetJSON(ctx, s.cache, sessionPrefix+token, rec, s.ttl); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

// Lookup returns the user id of token.
func (s *Sessions) Lookup(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthenticated
	}
	var rec sessionRecord
	found, err := cache.GetJSON(ctx, s.cache, sessionPrefix+token, &rec)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	if !found || rec.UserID == "" {
		return "", ErrUnauthenticated
	}
	return rec.UserID, nil
}

// Revoke deletes token.
func (s *Sessions) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.cache.Delete(ctx, sessionPrefix+token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
