package validator

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	v := NewDefaultValidator()

	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https", "https://example.com/a", false},
		{"http with port and query", "http://example.com:8080/path?q=1", false},
		{"uppercase scheme", "HTTPS://example.com", false},
		{"empty", "", true},
		{"blank", "   ", true},
		{"no scheme", "example.com", true},
		{"ftp scheme", "ftp://example.com", true},
		{"just text", "not a url", true},
		{"missing host", "https:///path", true},
		{"blacklisted", "https://bit.ly/abc", true},
		{"blacklisted subdomain", "https://www.tinyurl.com/abc", true},
		{"lookalike allowed", "https://notbit.ly.example.com", false},
		{"too long", "https://example.com/" + strings.Repeat("a", DefaultMaxURLLength), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q) error = %v; wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestValidateShortCode(t *testing.T) {
	v := NewDefaultValidator().WithMaxCodeLength(8)

	tests := []struct {
		code    string
		wantErr bool
	}{
		{"abc123", false},
		{"A", false},
		{"", true},
		{"abc-123", true},
		{"abc_123", true},
		{"toolongcode", true},
		{"health", true},
		{"Shorten", true},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := v.ValidateShortCode(tt.code)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateShortCode(%q) error = %v; wantErr %v", tt.code, err, tt.wantErr)
			}
		})
	}
}

func TestWithBlacklistedDomains(t *testing.T) {
	v := NewDefaultValidator().WithBlacklistedDomains("evil.test")
	if err := v.Validate("https://evil.test/x"); err == nil {
		t.Error("expected blacklisted domain to be rejected")
	}
}

func TestIsReserved(t *testing.T) {
	v := NewDefaultValidator()
	for _, code := range []string{"api", "API", "Debug", "metrics"} {
		if !v.IsReserved(code) {
			t.Errorf("IsReserved(%q) = false", code)
		}
	}
	if v.IsReserved("apis") {
		t.Error("IsReserved(apis) = true")
	}
}
