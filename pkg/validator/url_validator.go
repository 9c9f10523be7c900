package validator

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/umanagarjuna/linkshort/pkg/shortcode"
)

const (
	DefaultMaxURLLength  = 2048
	DefaultMaxCodeLength = 16
)

// URLValidator validates long URLs and caller-chosen short codes
type URLValidator interface {
	Validate(rawURL string) error
	ValidateShortCode(code string) error
	IsReserved(code string) bool
}

type DefaultValidator struct {
	blacklistedDomains []string
	reservedCodes      []string
	maxURLLength       int
	maxCodeLength      int
}

func NewDefaultValidator() *DefaultValidator {
	return &DefaultValidator{
		blacklistedDomains: []string{
			"bit.ly", "tinyurl.com", // Prevent recursive shortening
		},
		reservedCodes: []string{"api", "debug", "health", "metrics", "shorten"},
		maxURLLength:  DefaultMaxURLLength,
		maxCodeLength: DefaultMaxCodeLength,
	}
}

// WithMaxCodeLength bounds custom short codes.
func (v *DefaultValidator) WithMaxCodeLength(n int) *DefaultValidator {
	if n > 0 {
		v.maxCodeLength = n
	}
	return v
}

// WithBlacklistedDomains adds domains that may not be shortened.
func (v *DefaultValidator) WithBlacklistedDomains(domains ...string) *DefaultValidator {
	v.blacklistedDomains = append(v.blacklistedDomains, domains...)
	return v
}

func (v *DefaultValidator) Validate(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return fmt.Errorf("URL cannot be empty")
	}

	if len(rawURL) > v.maxURLLength {
		return fmt.Errorf("URL exceeds maximum length of %d characters", v.maxURLLength)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("only HTTP(S) URLs are allowed")
	}

	if u.Host == "" || u.Hostname() == "" {
		return fmt.Errorf("URL must have a host")
	}

	host := strings.ToLower(u.Hostname())
	for _, domain := range v.blacklistedDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return fmt.Errorf("domain %s is blacklisted", domain)
		}
	}

	return nil
}

func (v *DefaultValidator) ValidateShortCode(code string) error {
	if code == "" {
		return fmt.Errorf("short code cannot be empty")
	}

	if len(code) > v.maxCodeLength {
		return fmt.Errorf("short code must be at most %d characters", v.maxCodeLength)
	}

	if !shortcode.IsValid(code) {
		return fmt.Errorf("short code may only contain letters and digits")
	}

	if v.IsReserved(code) {
		return fmt.Errorf("short code %q is reserved", code)
	}

	return nil
}

// IsReserved reports whether code collides with a fixed route.
func (v *DefaultValidator) IsReserved(code string) bool {
	for _, r := range v.reservedCodes {
		if strings.EqualFold(code, r) {
			return true
		}
	}
	return false
}
