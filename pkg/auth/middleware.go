package auth

import (
	"context"
	"net/http"
	"slices"
	"strings"

	apperrors "homigo/pkg/errors"
	httputil "homigo/pkg/http"
	"homigo/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type contextKey string

const principalKey contextKey = "principal"

type Principal struct {
	UserID string
	Role   string
	Email  string
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// Require wraps an httprouter handle so it only runs for a valid bearer token
// whose role is one of roles. No roles means any authenticated caller.
func (a *Authenticator) Require(log *logger.Logger, next httprouter.Handle, roles ...string) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		claims, err := a.Parse(bearerToken(r))
		if err != nil {
			log.Warn("Rejected unauthenticated request", "path", r.URL.Path, "error", err)
			writeErr(log, w, apperrors.Unauthorized("Authentication required"))
			return
		}

		if len(roles) > 0 && !slices.Contains(roles, claims.Role) {
			log.Warn("Rejected request for role", "path", r.URL.Path, "role", claims.Role, "user_id", claims.Subject)
			writeErr(log, w, apperrors.Forbidden("Insufficient permissions"))
			return
		}

		ctx := WithPrincipal(r.Context(), Principal{
			UserID: claims.Subject,
			Role:   claims.Role,
			Email:  claims.Email,
		})
		next(w, r.WithContext(ctx), ps)
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return ""
	}
	return strings.TrimSpace(token)
}

func writeErr(log *logger.Logger, w http.ResponseWriter, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		log.Error("failed to write error response", "handler", "auth", "error", writeErr)
	}
}
