package auth

import (
	"testing"
	"time"
)

var widgetSecret = []byte("0123456789abcdef0123456789abcdef")

func TestWidgetTokenRoundTrip(t *testing.T) {
	token, err := IssueWidgetToken(widgetSecret, "tenant-1", "https://example.com", time.Now())
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	claims, err := ValidateWidgetToken(widgetSecret, token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.TenantID != "tenant-1" {
		t.Fatalf("wrong tenant: %s", claims.TenantID)
	}
	if claims.Origin != "https://example.com" {
		t.Fatalf("wrong origin: %s", claims.Origin)
	}
}

func TestWidgetTokenWrongSecret(t *testing.T) {
	token, err := IssueWidgetToken(widgetSecret, "tenant-1", "https://example.com", time.Now())
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := ValidateWidgetToken([]byte("another-secret-another-secret-32"), token); err == nil {
		t.Fatalf("expected validation failure with wrong secret")
	}
}

func TestWidgetTokenExpired(t *testing.T) {
	token, err := IssueWidgetToken(widgetSecret, "tenant-1", "https://example.com", time.Now().Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := ValidateWidgetToken(widgetSecret, token); err == nil {
		t.Fatalf("expected expired token rejected")
	}
}

func TestWidgetTokenNoSecret(t *testing.T) {
	if _, err := IssueWidgetToken(nil, "tenant-1", "https://example.com", time.Now()); err == nil {
		t.Fatalf("expected error without a secret")
	}
}
