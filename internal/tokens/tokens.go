package tokens

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/schoolfinder/schoolfinder/internal/config"
	"github.com/schoolfinder/schoolfinder/internal/users"
	"github.com/schoolfinder/schoolfinder/pkg/middleware"
)

var ErrNoSecret = errors.New("jwt secret not configured")

// Manager issues and verifies the service's HS256 access tokens.
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(cfg config.JWTConfig) (*Manager, error) {
	if cfg.Secret == "" {
		return nil, ErrNoSecret
	}
	ttl := cfg.AccessTokenTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Manager{secret: []byte(cfg.Secret), issuer: cfg.Issuer, ttl: ttl, now: time.Now}, nil
}

// TTL is the lifetime of issued access tokens.
func (m *Manager) TTL() time.Duration { return m.ttl }

// DeriveKey returns a key for purpose derived from the signing secret, so other
// components can sign data without sharing the JWT key itself.
func (m *Manager) DeriveKey(purpose string) []byte {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(purpose))
	return mac.Sum(nil)
}

// GenerateAccessToken creates a signed access token for the user.
func (m *Manager) GenerateAccessToken(u *users.User) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.ttl)
	claims := jwt.MapClaims{
		"sub":   u.Sub,
		"uid":   u.ID,
		"name":  u.Name,
		"email": u.Email,
		"iat":   now.Unix(),
		"exp":   exp.Unix(),
		"jti":   uuid.NewString(),
	}
	if m.issuer != "" {
		claims["iss"] = m.issuer
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

type token struct {
	claims jwt.MapClaims
}

func (t *token) Claims(v interface{}) error {
	b, err := json.Marshal(t.claims)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// Verify checks signature, algorithm, expiry and issuer. It satisfies middleware.Verifier.
func (m *Manager) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	claims := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) { return m.secret, nil }, opts...); err != nil {
		return nil, fmt.Errorf("verify access token: %w", err)
	}
	return &token{claims: claims}, nil
}

// ExpiresAt reads the exp claim without verifying the signature. It is used
// to size blacklist entries for tokens that are being revoked.
func ExpiresAt(raw string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, err
	}
	if exp == nil {
		return time.Time{}, errors.New("exp claim not present")
	}
	return exp.Time, nil
}
