package users

import (
	"errors"
	"time"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrMissingSubject = errors.New("claims carry no subject")
)

// User is a parent account, mapped from identity provider claims.
type User struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Sub       string    `bson:"sub" json:"sub"`
	Email     string    `bson:"email" json:"email"`
	Name      string    `bson:"name" json:"name"`
	Phone     string    `bson:"phone,omitempty" json:"phone,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
