// ABOUTME: Authentication middleware for admin and site requests.
// ABOUTME: Resolves the Bearer user and puts the user and its capabilities in the request context.

package auth

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/2389/cpt/internal/caps"
	"github.com/2389/cpt/internal/content"
	"github.com/2389/cpt/internal/store"
)

type contextKey string

const userContextKey contextKey = "user"

// DefaultLogin names the user of requests without a token.
const DefaultLogin = "default"

// Users looks up stored users by login.
type Users interface {
	UserByLogin(ctx context.Context, login string) (*content.User, error)
}

// Middleware resolves "Authorization: Bearer user:LOGIN". Unknown logins and
// requests without a token act as a user with fallbackRole.
func Middleware(users Users, fallbackRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			login := extractUser(r.Header.Get("Authorization"))
			user := &content.User{Login: login, DisplayName: login, Role: fallbackRole}
			if login != DefaultLogin && users != nil {
				u, err := users.UserByLogin(r.Context(), login)
				switch {
				case err == nil:
					user = u
				case !errors.Is(err, store.ErrNotFound):
					log.Printf("auth: lookup %q: %v", login, err)
				}
			}
			ctx := WithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithUser returns a context carrying user and the capabilities of its role.
func WithUser(ctx context.Context, user *content.User) context.Context {
	ctx = context.WithValue(ctx, userContextKey, user)
	return caps.WithChecker(ctx, caps.Role(user.Role))
}

// UserFromContext returns the request user, or the default user with no role.
func UserFromContext(ctx context.Context) *content.User {
	user, ok := ctx.Value(userContextKey).(*content.User)
	if !ok || user == nil {
		return &content.User{Login: DefaultLogin, DisplayName: DefaultLogin}
	}
	return user
}

func extractUser(authHeader string) string {
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return DefaultLogin
	}
	if login, ok := strings.CutPrefix(token, "user:"); ok && login != "" {
		return login
	}
	// Opaque tokens all act as the default user.
	return DefaultLogin
}
