package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sakif/social-ledger/internal/model"
)

// ErrMissingBearer is returned when a request carries no usable
// "Authorization: Bearer <token>" header.
var ErrMissingBearer = errors.New("auth: missing bearer token")

// contextKey is unexported so only this package can read or write the
// caller stored in a request context.
type contextKey string

const callerKey contextKey = "caller"

// CallerResolver turns a bearer token into the user it identifies.
type CallerResolver interface {
	ResolveCaller(ctx context.Context, token string) (*model.User, error)
}

// RequireCaller is a middleware that resolves the caller from the bearer
// token and stores the *model.User in the request context. When the header
// is missing or resolution fails, onError writes the response and the chain
// stops.
func RequireCaller(resolver CallerResolver, onError func(http.ResponseWriter, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := BearerToken(r)
			if err != nil {
				onError(w, err)
				return
			}

			caller, err := resolver.ResolveCaller(r.Context(), token)
			if err != nil {
				onError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

// BearerToken extracts the token from the Authorization header. The scheme
// is matched case-insensitively.
func BearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrMissingBearer
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingBearer
	}
	return token, nil
}

// WithCaller returns a copy of ctx carrying the authenticated user.
func WithCaller(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, callerKey, u)
}

// CallerFromContext retrieves the authenticated user placed by RequireCaller.
// Returns (nil, false) on anonymous requests.
func CallerFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(callerKey).(*model.User)
	return u, ok && u != nil
}
