package users

import (
	"context"
	"strings"
)

// Service encapsulates user-related business logic.
type Service struct {
	repo UserRepository
}

func NewService(r UserRepository) *Service {
	return &Service{repo: r}
}

// UpsertFromClaims creates or updates a parent account from OIDC claims.
func (s *Service) UpsertFromClaims(ctx context.Context, claims map[string]interface{}) (*User, error) {
	sub := claimString(claims, "sub")
	if sub == "" {
		return nil, ErrMissingSubject
	}
	name := claimString(claims, "name")
	if name == "" {
		name = strings.TrimSpace(claimString(claims, "given_name") + " " + claimString(claims, "family_name"))
	}
	if name == "" {
		name = claimString(claims, "preferred_username")
	}
	u := &User{
		Sub:   sub,
		Email: strings.ToLower(claimString(claims, "email")),
		Name:  name,
		Phone: claimString(claims, "phone_number"),
	}
	return s.repo.UpsertBySub(ctx, u)
}

func (s *Service) GetBySub(ctx context.Context, sub string) (*User, error) {
	return s.repo.GetBySub(ctx, sub)
}

func claimString(claims map[string]interface{}, key string) string {
	v, _ := claims[key].(string)
	return strings.TrimSpace(v)
}
