// internal/gateway/identity.go
package gateway

import (
	"net/http"
	"strings"

	"github.com/Anthony4834/fmr-edge/internal/auth"
)

// Session cookie names tried in order: the __Secure- variant set on HTTPS
// deployments, then the legacy name kept for backward compatibility.
const (
	SecureSessionCookie = "__Secure-session-token"
	LegacySessionCookie = "session-token"
)

// Identity is a caller resolved from a bearer token or session cookie.
// A nil *Identity means anonymous.
type Identity struct {
	UserID string
	Email  string
	Tier   string
	Role   string
}

// resolverFunc attempts one resolution strategy. A nil result means "not
// mine, try the next one"; resolvers never reject a request.
type resolverFunc func(r *http.Request) *Identity

// IdentityResolver resolves a caller identity via an ordered chain of
// strategies, stopping at the first success. Verification failures are
// swallowed and treated as absence of identity.
type IdentityResolver struct {
	resolvers []resolverFunc
}

// NewIdentityResolver builds the default chain: extension bearer token,
// then session cookie. Adding a resolution method is appending to the list.
func NewIdentityResolver(verifier *auth.Verifier) *IdentityResolver {
	return &IdentityResolver{
		resolvers: []resolverFunc{
			bearerResolver(verifier),
			cookieResolver(verifier),
		},
	}
}

// Resolve returns the caller's identity, or nil for anonymous.
func (ir *IdentityResolver) Resolve(r *http.Request) *Identity {
	for _, resolve := range ir.resolvers {
		if id := resolve(r); id != nil {
			return id
		}
	}
	return nil
}

// bearerResolver verifies Authorization: Bearer tokens minted for the
// extension and service scripts. The type claim must match; anything else
// falls through rather than erroring the request.
func bearerResolver(verifier *auth.Verifier) resolverFunc {
	return func(r *http.Request) *Identity {
		header := r.Header.Get("Authorization")
		if header == "" {
			return nil
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return nil
		}

		claims, err := verifier.Verify(token)
		if err != nil || claims.TokenType != auth.TokenTypeExtension {
			return nil
		}

		return identityFromClaims(claims)
	}
}

// cookieResolver reads the first-party session cookie, trying the secure
// name then the legacy one, verified with the same mechanism as tokens.
func cookieResolver(verifier *auth.Verifier) resolverFunc {
	return func(r *http.Request) *Identity {
		for _, name := range []string{SecureSessionCookie, LegacySessionCookie} {
			cookie, err := r.Cookie(name)
			if err != nil || cookie.Value == "" {
				continue
			}
			claims, err := verifier.Verify(cookie.Value)
			if err != nil {
				continue
			}
			return identityFromClaims(claims)
		}
		return nil
	}
}

func identityFromClaims(claims *auth.SessionClaims) *Identity {
	return &Identity{
		UserID: claims.UserID(),
		Email:  claims.Email,
		Tier:   claims.Tier,
		Role:   claims.Role,
	}
}
