package catalog

import (
	"errors"
	"slices"
	"strconv"
)

var (
	ErrNotFound = errors.New("school not found")
)

// Address is the postal address of a school campus.
type Address struct {
	Street     string `json:"street,omitempty" yaml:"street" bson:"street,omitempty"`
	Locality   string `json:"locality,omitempty" yaml:"locality" bson:"locality,omitempty"`
	City       string `json:"city" yaml:"city" bson:"city"`
	Region     string `json:"region,omitempty" yaml:"region" bson:"region,omitempty"`
	PostalCode string `json:"postalCode,omitempty" yaml:"postalCode" bson:"postalCode,omitempty"`
	Country    string `json:"country,omitempty" yaml:"country" bson:"country,omitempty"`
}

// School is one catalog record. Slug is the stable public identifier used in URLs.
type School struct {
	ID          string   `json:"id" yaml:"id" bson:"_id"`
	Slug        string   `json:"slug" yaml:"slug" bson:"slug"`
	Name        string   `json:"name" yaml:"name" bson:"name"`
	Board       string   `json:"board" yaml:"board" bson:"board"`
	Location    string   `json:"location" yaml:"location" bson:"location"`
	Address     Address  `json:"address" yaml:"address" bson:"address"`
	Latitude    float64  `json:"latitude" yaml:"latitude" bson:"latitude"`
	Longitude   float64  `json:"longitude" yaml:"longitude" bson:"longitude"`
	Distance    float64  `json:"distance" yaml:"distance" bson:"distance"` // km
	FeeMin      int64    `json:"feeMin" yaml:"feeMin" bson:"feeMin"`       // annual, INR
	FeeMax      int64    `json:"feeMax" yaml:"feeMax" bson:"feeMax"`
	ClassFrom   string   `json:"classFrom" yaml:"classFrom" bson:"classFrom"`
	ClassTo     string   `json:"classTo" yaml:"classTo" bson:"classTo"`
	Hostel      bool     `json:"hostel" yaml:"hostel" bson:"hostel"`
	Transport   bool     `json:"transport" yaml:"transport" bson:"transport"`
	Amenities   []string `json:"amenities" yaml:"amenities" bson:"amenities"`
	Rating      float64  `json:"rating" yaml:"rating" bson:"rating"`
	ReviewCount int      `json:"reviewCount" yaml:"reviewCount" bson:"reviewCount"`
	Images      []string `json:"images" yaml:"images" bson:"images"`
	Description string   `json:"description,omitempty" yaml:"description" bson:"description,omitempty"`
	Phone       string   `json:"phone,omitempty" yaml:"phone" bson:"phone,omitempty"`
	Email       string   `json:"email,omitempty" yaml:"email" bson:"email,omitempty"`
	Website     string   `json:"website,omitempty" yaml:"website" bson:"website,omitempty"`
	Established int      `json:"established,omitempty" yaml:"established" bson:"established,omitempty"`
	Position    int      `json:"-" yaml:"-" bson:"position"`
}

// Offers reports whether the school teaches the given class level key.
// Unknown keys, on either side, never match.
func (s School) Offers(level string) bool {
	idx := classIndex(level)
	from, to := classIndex(s.ClassFrom), classIndex(s.ClassTo)
	if idx < 0 || from < 0 || to < 0 {
		return false
	}
	return idx >= from && idx <= to
}

// Clone returns a deep copy so callers can never alias catalog slices.
func (s School) Clone() School {
	c := s
	c.Amenities = slices.Clone(s.Amenities)
	c.Images = slices.Clone(s.Images)
	return c
}

// FeeLabel renders the fee figures the way listing cards show them.
func (s School) FeeLabel() string {
	if s.FeeMax > s.FeeMin {
		return formatINR(s.FeeMin) + " - " + formatINR(s.FeeMax)
	}
	return formatINR(s.FeeMin)
}

// formatINR groups digits in the Indian style (12,34,567).
func formatINR(v int64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	digits := []byte{}
	s := strconv.FormatInt(v, 10)
	n := len(s)
	for i := 0; i < n; i++ {
		digits = append(digits, s[i])
		rem := n - i - 1
		if rem > 0 && (rem == 3 || (rem > 3 && (rem-3)%2 == 0)) {
			digits = append(digits, ',')
		}
	}
	out := "₹" + string(digits)
	if neg {
		out = "-" + out
	}
	return out
}
