package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/licenciapp/licencias-backend/api/middleware"
	"github.com/licenciapp/licencias-backend/api/responses"
	"github.com/licenciapp/licencias-backend/api/validators"
	"github.com/licenciapp/licencias-backend/internal/profiles"
	"github.com/licenciapp/licencias-backend/pkg/enums"
	pkgerrors "github.com/licenciapp/licencias-backend/pkg/errors"
	"github.com/licenciapp/licencias-backend/pkg/logger"
)

// ProfileMe returns the authenticated actor's own profile.
func ProfileMe(svc profiles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "profile service unavailable"))
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		if actor.IsZero() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing"))
			return
		}

		profile, err := svc.Get(r.Context(), actor.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profiles.FromModel(profile))
	}
}

type roleUpdateRequest struct {
	Role string `json:"role" validate:"required"`
}

// ProfileUpdateRole changes another profile's role. The service enforces
// the administrador gate and the no-self-change rule.
func ProfileUpdateRole(svc profiles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "profile service unavailable"))
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		if actor.IsZero() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing"))
			return
		}

		profileID, err := uuid.Parse(chi.URLParam(r, "profileId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid profile id"))
			return
		}

		var payload roleUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := enums.ParseActorRole(strings.TrimSpace(payload.Role))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid role"))
			return
		}

		updated, err := svc.UpdateRole(r.Context(), actor, profileID, role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profiles.FromModel(updated))
	}
}
