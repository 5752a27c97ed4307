package sessions

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

// Service wraps repository operations with refresh-token rules.
type Service struct {
	repo Repository
	ttl  time.Duration
	now  func() time.Time
}

func NewService(r Repository, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Service{repo: r, ttl: ttl, now: time.Now}
}

// CreateSession stores a new refresh session and returns the refresh token.
func (s *Service) CreateSession(ctx context.Context, sub string) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	now := s.now().UTC()
	sess := &Session{
		RefreshToken: hex.EncodeToString(b),
		Sub:          sub,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.ttl),
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return "", err
	}
	return sess.RefreshToken, nil
}

// ValidateRefresh returns the session for a live refresh token, or ErrNotFound.
func (s *Service) ValidateRefresh(ctx context.Context, refresh string) (*Session, error) {
	sess, err := s.repo.GetByRefresh(ctx, refresh)
	if err != nil {
		return nil, err
	}
	if sess.Expired(s.now().UTC()) {
		_ = s.repo.DeleteByRefresh(ctx, refresh)
		return nil, ErrNotFound
	}
	return sess, nil
}

// Rotate replaces a live refresh token with a new one for the same subject.
// The old token stops working; when it is presented concurrently only one
// caller gets a new token.
func (s *Service) Rotate(ctx context.Context, refresh string) (*Session, string, error) {
	sess, err := s.repo.Take(ctx, refresh)
	if err != nil {
		return nil, "", err
	}
	if sess.Expired(s.now().UTC()) {
		return nil, "", ErrNotFound
	}
	next, err := s.CreateSession(ctx, sess.Sub)
	if err != nil {
		return nil, "", err
	}
	return sess, next, nil
}

func (s *Service) DeleteRefresh(ctx context.Context, refresh string) error {
	err := s.repo.DeleteByRefresh(ctx, refresh)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// RevokeAll ends every session of sub and reports how many were removed.
func (s *Service) RevokeAll(ctx context.Context, sub string) (int, error) {
	return s.repo.DeleteBySub(ctx, sub)
}
