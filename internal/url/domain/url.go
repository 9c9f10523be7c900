package domain

import (
	"math"
	"time"
)

// URL is a short code to long URL mapping
type URL struct {
	ShortCode string     `json:"short_code" db:"short_code"`
	LongURL   string     `json:"long_url" db:"long_url"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	Clicks    int64      `json:"clicks" db:"clicks"`
}

// IsExpired reports whether the mapping is logically expired at now.
func (u *URL) IsExpired(now time.Time) bool {
	return u.ExpiresAt != nil && !u.ExpiresAt.After(now)
}

// MaxExpirationMinutes is the longest expiration a time.Duration can hold.
const MaxExpirationMinutes = int64(math.MaxInt64 / int64(time.Minute))

// ShortenRequest represents the request to shorten a long URL
type ShortenRequest struct {
	LongURL           string `json:"longUrl" binding:"required"`
	CustomShortCode   string `json:"customShortCode,omitempty"`
	ExpirationMinutes *int   `json:"expirationMinutes,omitempty"`
}

// URLResponse represents the API response for URL operations
type URLResponse struct {
	ShortCode string     `json:"short_code"`
	ShortURL  string     `json:"short_url"`
	LongURL   string     `json:"long_url"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Clicks    int64      `json:"clicks"`
}

// ClickEvent describes a successful resolution
type ClickEvent struct {
	ShortCode string    `json:"short_code"`
	Timestamp time.Time `json:"timestamp"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	Referrer  string    `json:"referrer"`
}
