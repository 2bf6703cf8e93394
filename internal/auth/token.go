// internal/auth/token.go
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTypeExtension marks bearer tokens minted for the browser extension
// and internal service scripts. Any other type claim is rejected by the
// identity resolver.
const TokenTypeExtension = "extension_access"

// SessionClaims are the claims carried by both first-party session cookies
// and extension bearer tokens. Tier is one of "free", "paid", "free_forever";
// Role may elevate independently of tier (e.g. "admin").
type SessionClaims struct {
	Email     string `json:"email,omitempty"`
	Tier      string `json:"tier,omitempty"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the subject claim.
func (c *SessionClaims) UserID() string {
	return c.Subject
}

// Verifier validates HS256-signed tokens against a shared secret.
// Verification is a pure CPU-bound check with no I/O.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a verifier from the shared session secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses and validates a signed token and returns its claims.
// Any failure (bad signature, expiry, malformed token) is returned as an
// error; callers in the request path treat errors as absence of identity.
func (v *Verifier) Verify(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}

// Sign mints a token for the given claims. Used by the auth endpoints when
// issuing sessions, and by tests.
func (v *Verifier) Sign(claims SessionClaims) (string, error) {
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(24 * time.Hour))
	}
	if claims.IssuedAt == nil {
		claims.IssuedAt = jwt.NewNumericDate(time.Now())
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
