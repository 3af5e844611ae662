package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/taskhub-app/taskhub-be/internal/models"
)

// Identity is the authenticated user plus the exact token value that
// proved it. Logout needs the token value to know which session to revoke.
type Identity struct {
	User  models.User
	Token string
}

type contextKey string

const identityKey = contextKey("authIdentity")

// UserSource resolves a verified token's user ID to the user record.
type UserSource interface {
	GetUserByID(id string) (models.User, error)
}

// SessionSource reports whether a token value is still in a user's
// valid-session set.
type SessionSource interface {
	IsActive(userID, token string) (bool, error)
}

// Middleware guards protected routes. A request passes only when the
// bearer token's signature verifies, it is unexpired, its user still
// exists, and the token is still listed in that user's session set.
// Every failure gets the same 401 body, so a caller cannot probe which
// check rejected it; the distinct cause goes to the log.
func Middleware(tokens *TokenService, users UserSource, sessions SessionSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := bearerToken(r)
			if !ok {
				unauthenticated(w)
				return
			}

			userID, err := tokens.Verify(tokenStr)
			if err != nil {
				log.Debug().Err(err).Msg("Token verification failed")
				unauthenticated(w)
				return
			}

			user, err := users.GetUserByID(userID)
			if err != nil {
				log.Debug().Err(err).Str("user_id", userID).Msg("Token user not found")
				unauthenticated(w)
				return
			}

			active, err := sessions.IsActive(userID, tokenStr)
			if err != nil {
				log.Error().Err(err).Str("user_id", userID).Msg("Session lookup failed")
				unauthenticated(w)
				return
			}
			if !active {
				log.Debug().Str("user_id", userID).Msg("Token revoked")
				unauthenticated(w)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, Identity{User: user, Token: tokenStr})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext retrieves the authenticated identity set by
// Middleware. The second return is false on unguarded routes.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func unauthenticated(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"please authenticate"}`))
}
