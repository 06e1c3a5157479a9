package backend

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the fields the console reads from backend-issued tokens. Signatures are verified
// by the backend; the console only inspects them.
type Claims struct {
	Subject   string
	Email     string
	Role      string
	ExpiresAt time.Time
}

type tokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

var parser = jwt.NewParser()

// ParseClaims decodes the payload of token without verifying the signature.
func ParseClaims(token string) (Claims, error) {
	var tc tokenClaims
	if _, _, err := parser.ParseUnverified(token, &tc); err != nil {
		return Claims{}, fmt.Errorf("parse token claims: %w", err)
	}

	out := Claims{Subject: tc.Subject, Email: tc.Email, Role: tc.Role}
	if tc.ExpiresAt != nil {
		out.ExpiresAt = tc.ExpiresAt.Time
	}
	return out, nil
}

// IsServiceKey reports whether key is a JWT whose role claim is service_role.
func IsServiceKey(key string) bool {
	claims, err := ParseClaims(key)
	if err != nil {
		return false
	}
	return claims.Role == "service_role"
}

var errNoExpiry = errors.New("token carries no exp claim")

func expiryOf(token string) (time.Time, error) {
	claims, err := ParseClaims(token)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt.IsZero() {
		return time.Time{}, errNoExpiry
	}
	return claims.ExpiresAt, nil
}
