package auth

import (
	"chat-dm/errors"
	"log/slog"
	"net/http"
)

// FailureWriter renders a verification failure to the client.
type FailureWriter func(w http.ResponseWriter, r *http.Request, err error)

// Middleware verifies the request credential and injects the caller
// identity into the request context for downstream handlers.
func Middleware(verifier *Verifier, log *slog.Logger, fail FailureWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := ExtractToken(r)
			if !ok {
				log.Debug("No token found in cookies or headers", "path", r.URL.Path)
				fail(w, r, errors.ErrUnauthenticated)
				return
			}

			identity, err := verifier.Verify(token)
			if err != nil {
				switch errors.KindOf(err) {
				case errors.KindInvalidCredential:
					log.Debug("Token verification failed", "error", err, "path", r.URL.Path)
				default:
					log.Error("Authentication failure", "error", err, "path", r.URL.Path)
				}
				fail(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}
