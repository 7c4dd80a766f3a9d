package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/tixhive/auth-api/internal/domain"
	"github.com/tixhive/auth-api/internal/http/response"
	"github.com/tixhive/auth-api/internal/platform/auth"
)

type ctxKey string

const (
	ctxSubjectID ctxKey = "subject_id"
	ctxRole      ctxKey = "role"
)

// RequireRoles gates a route on a bearer credential whose role is one of the
// listed roles. Membership is exact: a superadmin does not pass an
// admin-only gate unless superadmin is listed.
func RequireRoles(secret []byte, roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				response.MapError(w, err)
				return
			}

			subjectID, role, err := auth.Validate(token, secret)
			if err != nil {
				response.MapError(w, err)
				return
			}

			if err := domain.Authorize(roles, role); err != nil {
				response.MapError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), ctxSubjectID, subjectID)
			ctx = context.WithValue(ctx, ctxRole, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	authz := r.Header.Get("Authorization")
	if authz == "" {
		return "", domain.ErrNoAuthHeader
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(authz, prefix) {
		return "", domain.ErrInvalidAuthHeader
	}
	token := strings.TrimSpace(strings.TrimPrefix(authz, prefix))
	if token == "" {
		return "", domain.ErrInvalidAuthHeader
	}
	return token, nil
}

// SubjectID returns the authenticated subject injected by RequireRoles.
func SubjectID(r *http.Request) (uuid.UUID, bool) {
	id, ok := r.Context().Value(ctxSubjectID).(uuid.UUID)
	return id, ok
}

// SubjectRole returns the authenticated role injected by RequireRoles.
func SubjectRole(r *http.Request) (domain.Role, bool) {
	role, ok := r.Context().Value(ctxRole).(domain.Role)
	return role, ok
}
