package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"course-market/internal/identity"
	"course-market/internal/model"

	"github.com/rs/zerolog"
)

// TokenResolver turns a bearer token into an identity.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (*identity.Identity, error)
}

// Authenticate requires a valid bearer token and stores the identity, with
// its admin status under policy, in the request context.
func Authenticate(resolver TokenResolver, policy identity.AdminPolicy, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				logger.Warn().Str("path", r.URL.Path).Msg("missing bearer token")
				writeError(w, http.StatusUnauthorized, model.ErrUnauthorized.Message, model.ErrCodeUnauthorised)
				return
			}

			ctx, ok := resolve(w, r, resolver, policy, token, logger)
			if !ok {
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuthenticate attaches the identity when a bearer token is present
// and valid. Requests without a token, or with one that does not resolve,
// continue anonymously.
func OptionalAuthenticate(resolver TokenResolver, policy identity.AdminPolicy, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			id, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				logger.Debug().Err(err).Str("path", r.URL.Path).Msg("ignoring unresolved bearer token")
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(identity.WithIdentity(r.Context(), *id, policy.IsAdmin(*id))))
		})
	}
}

// RequireAdmin rejects callers that Authenticate did not mark as admin.
func RequireAdmin(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := identity.FromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, model.ErrUnauthorized.Message, model.ErrCodeUnauthorised)
				return
			}

			if !identity.IsAdminContext(r.Context()) {
				logger.Warn().
					Str("user_id", id.UserID).
					Str("path", r.URL.Path).
					Msg("admin route denied")
				writeError(w, http.StatusForbidden, model.ErrForbidden.Message, model.ErrCodeForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func resolve(
	w http.ResponseWriter,
	r *http.Request,
	resolver TokenResolver,
	policy identity.AdminPolicy,
	token string,
	logger zerolog.Logger,
) (context.Context, bool) {
	id, err := resolver.Resolve(r.Context(), token)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidToken) {
			logger.Warn().Err(err).Str("path", r.URL.Path).Msg("invalid bearer token")
			writeError(w, http.StatusUnauthorized, model.ErrUnauthorized.Message, model.ErrCodeUnauthorised)
			return nil, false
		}
		logger.Error().Err(err).Msg("identity provider failure")
		writeError(w, http.StatusBadGateway, model.ErrIdentityFailure.Message, model.ErrCodeIdentityFailure)
		return nil, false
	}

	return identity.WithIdentity(r.Context(), *id, policy.IsAdmin(*id)), true
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
