package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// WidgetClaims authorize an embedded chat widget to call the public
// retrieval surface without a user session. Widget tokens are short-lived
// and signed, not stored; they cannot be slid or revoked individually.
type WidgetClaims struct {
	TenantID string `json:"tenant_id"`
	Origin   string `json:"origin"`
	jwt.RegisteredClaims
}

// IssueWidgetToken signs a one-hour widget token for an embedding origin.
func IssueWidgetToken(secret []byte, tenantID, origin string, now time.Time) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("widget secret not configured")
	}

	claims := WidgetClaims{
		TenantID: tenantID,
		Origin:   origin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   tenantID,
			ExpiresAt: jwt.NewNumericDate(now.Add(1 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "chatbot-retrieval-core",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateWidgetToken parses and verifies a widget token.
func ValidateWidgetToken(secret []byte, tokenString string) (*WidgetClaims, error) {
	claims := &WidgetClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Prevent algorithm confusion attacks
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid widget token")
	}

	return claims, nil
}
