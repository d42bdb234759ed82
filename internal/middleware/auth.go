// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/carterperez-dev/mystery-message/internal/core"
)

const (
	SessionKey contextKey = "session"
)

type TokenVerifier interface {
	VerifyAccessToken(
		ctx context.Context,
		token string,
	) (*SessionIdentity, error)
}

// SessionIdentity is the authenticated caller as recorded when the session
// was issued. The profile flags are a snapshot and may be stale; business
// decisions read the live user record instead.
type SessionIdentity struct {
	UserID              string
	Username            string
	Email               string
	IsVerified          bool
	IsAcceptingMessages bool
	TokenVersion        int
	TokenID             string
	ExpiresAt           time.Time
}

func Authenticator(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)

			if token == "" {
				core.JSONError(w, core.UnauthorizedError("Not authenticated"))
				return
			}

			session, err := verifier.VerifyAccessToken(r.Context(), token)
			if err != nil {
				handleAuthError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// RequireStaticToken guards operator endpoints with a shared bearer token.
// An empty expected token disables the routes entirely.
func RequireStaticToken(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if expected == "" {
				core.NotFound(w, "Not found")
				return
			}

			if !core.ConstantTimeEqual(ExtractToken(r), expected) {
				core.JSONError(w, core.UnauthorizedError("invalid operator token"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func handleAuthError(w http.ResponseWriter, err error) {
	if core.IsAppError(err) {
		core.JSONError(w, err)
		return
	}

	switch {
	case errors.Is(err, core.ErrTokenExpired):
		core.JSONError(w, core.TokenExpiredError())
	case errors.Is(err, core.ErrTokenRevoked):
		core.JSONError(w, core.TokenRevokedError())
	default:
		core.JSONError(w, core.TokenInvalidError())
	}
}

func WithSession(ctx context.Context, session *SessionIdentity) context.Context {
	return context.WithValue(ctx, SessionKey, session)
}

func GetSession(ctx context.Context) *SessionIdentity {
	if session, ok := ctx.Value(SessionKey).(*SessionIdentity); ok {
		return session
	}
	return nil
}

func GetUserID(ctx context.Context) string {
	if session := GetSession(ctx); session != nil {
		return session.UserID
	}
	return ""
}

func IsAuthenticated(ctx context.Context) bool {
	return GetUserID(ctx) != ""
}
