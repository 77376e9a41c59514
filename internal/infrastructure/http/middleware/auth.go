package middleware

import (
	"context"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gourmetguru/api/internal/domain/user"
	"github.com/gourmetguru/api/internal/ports/inbound"
	apperrors "github.com/gourmetguru/api/pkg/errors"
	"go.uber.org/zap"
)

type contextKey string

const (
	identityKey contextKey = "identity"
	tokenKey    contextKey = "token"
)

// Authenticator resolves bearer tokens to identities
type Authenticator struct {
	auth   inbound.AuthService
	logger *zap.Logger
}

// NewAuthenticator creates the authentication middleware
func NewAuthenticator(auth inbound.AuthService, logger *zap.Logger) *Authenticator {
	return &Authenticator{auth: auth, logger: logger.Named("auth-middleware")}
}

// RequireAuth rejects requests without a valid bearer token
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			WriteError(w, apperrors.NewUnauthorizedError("Authentication required"), chimw.GetReqID(r.Context()))
			return
		}

		identity, err := a.auth.Authenticate(r.Context(), token)
		if err != nil {
			a.logger.Debug("Rejected token", zap.Error(err))
			WriteError(w, asAppError(err), chimw.GetReqID(r.Context()))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity, token)))
	})
}

// OptionalAuth attaches the identity when a valid token is present and
// otherwise lets the request through anonymously
func (a *Authenticator) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		identity, err := a.auth.Authenticate(r.Context(), token)
		if err != nil {
			a.logger.Debug("Ignoring invalid token", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity, token)))
	})
}

// BearerToken extracts the token from the Authorization header. Browsers
// opening a websocket cannot set headers, so the token query parameter is
// accepted as well.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// WithIdentity returns a context carrying the signed-in identity and its token
func WithIdentity(ctx context.Context, identity *user.Identity, token string) context.Context {
	ctx = context.WithValue(ctx, identityKey, identity)
	return context.WithValue(ctx, tokenKey, token)
}

// IdentityFromContext returns the signed-in identity or nil
func IdentityFromContext(ctx context.Context) *user.Identity {
	identity, _ := ctx.Value(identityKey).(*user.Identity)
	return identity
}

// TokenFromContext returns the token the identity was resolved from
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

func contextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, chimw.RequestIDKey, requestID)
}

func asAppError(err error) *apperrors.AppError {
	if appErr, ok := err.(*apperrors.AppError); ok {
		return appErr
	}
	return apperrors.NewUnauthorizedError("Invalid or expired token")
}
