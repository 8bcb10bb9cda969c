package auth

import (
	"net/http"
	"strings"
)

const (
	SessionCookie   = "jwt"
	AccessCookie    = "access-token"
	AuthorizationHd = "Authorization"
)

// ExtractToken looks for a credential in the `jwt` cookie, then the
// `access-token` cookie, then an `Authorization: Bearer` header.
// The first non-empty candidate wins.
func ExtractToken(r *http.Request) (string, bool) {
	for _, name := range []string{SessionCookie, AccessCookie} {
		if c, err := r.Cookie(name); err == nil && c.Value != "" {
			return c.Value, true
		}
	}

	parts := strings.Fields(r.Header.Get(AuthorizationHd))
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1], true
	}
	return "", false
}
