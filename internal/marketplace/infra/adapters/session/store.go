// Package session keeps login sessions in the shared cache.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/brail/marketplace/internal/marketplace/core/domain/entity"
	"github.com/brail/marketplace/internal/marketplace/core/ports"
	"github.com/brail/marketplace/internal/pkg/cache"
)

var _ ports.SessionStore = (*Store)(nil)

type Store struct {
	cache cache.Cache
}

func NewStore(c cache.Cache) *Store {
	return &Store{cache: c}
}

type record struct {
	UserID    int64     `json:"user_id"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Store) key(token string) string {
	return s.cache.GenerateKey("session", token)
}

func (s *Store) Save(ctx context.Context, sess ports.Session, ttl time.Duration) error {
	b, err := json.Marshal(record{UserID: sess.UserID, Role: string(sess.Role), ExpiresAt: sess.ExpiresAt})
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	return s.cache.Set(ctx, s.key(sess.Token), b, ttl)
}

// Get returns entity.ErrNotFound for unknown or expired tokens.
func (s *Store) Get(ctx context.Context, token string) (*ports.Session, error) {
	raw, err := s.cache.Get(ctx, s.key(token))
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, fmt.Errorf("session: %w", entity.ErrNotFound)
	}

	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("session: decode: %w", err)
	}
	return &ports.Session{
		Token:     token,
		UserID:    rec.UserID,
		Role:      entity.Role(rec.Role),
		ExpiresAt: rec.ExpiresAt,
	}, nil
}

func (s *Store) Delete(ctx context.Context, token string) error {
	return s.cache.Delete(ctx, s.key(token))
}
