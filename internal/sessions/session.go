package sessions

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("session not found")

// Session is a refresh session of one parent.
type Session struct {
	RefreshToken string    `bson:"_id" json:"refreshToken"`
	Sub          string    `bson:"sub" json:"sub"`
	ExpiresAt    time.Time `bson:"expiresAt" json:"expiresAt"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
