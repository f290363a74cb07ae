package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/licenciapp/licencias-backend/api/responses"
	pkgAuth "github.com/licenciapp/licencias-backend/pkg/auth"
	"github.com/licenciapp/licencias-backend/pkg/auth/session"
	"github.com/licenciapp/licencias-backend/pkg/config"
	"github.com/licenciapp/licencias-backend/pkg/db/models"
	pkgerrors "github.com/licenciapp/licencias-backend/pkg/errors"
	"github.com/licenciapp/licencias-backend/pkg/logger"
)

// RoleSource resolves the authoritative role for an authenticated user.
type RoleSource interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

// Auth validates a bearer token, verifies the session is still live, and
// seeds the request context with the actor identity. The role claim inside
// the token is only a hint; the stored profile role wins on every request,
// so demotions take effect immediately.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, roles RoleSource, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			if claims.ID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			if verifier != nil {
				ok, err := verifier.HasSession(r.Context(), claims.ID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !ok {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
					return
				}
			}

			actor := pkgAuth.Actor{ID: claims.UserID, Role: claims.Role}
			if roles != nil {
				profile, err := roles.FindByID(r.Context(), claims.UserID)
				if err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "profile no longer exists"))
						return
					}
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve actor role"))
					return
				}
				actor.Role = profile.Role
			}

			ctx := WithActor(r.Context(), actor)

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    actor.ID.String(),
					"actor_role": string(actor.Role),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
