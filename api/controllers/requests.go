package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/licenciapp/licencias-backend/api/middleware"
	"github.com/licenciapp/licencias-backend/api/responses"
	"github.com/licenciapp/licencias-backend/api/validators"
	"github.com/licenciapp/licencias-backend/internal/requests"
	"github.com/licenciapp/licencias-backend/pkg/db/models"
	"github.com/licenciapp/licencias-backend/pkg/enums"
	pkgerrors "github.com/licenciapp/licencias-backend/pkg/errors"
	"github.com/licenciapp/licencias-backend/pkg/logger"
	"github.com/licenciapp/licencias-backend/pkg/pagination"
)

type requestCreatePayload struct {
	FirstName      string  `json:"first_name" validate:"required"`
	LastName       string  `json:"last_name" validate:"required"`
	DocumentIDType string  `json:"document_id_type" validate:"required"`
	DocumentID     string  `json:"document_id" validate:"required"`
	Position       string  `json:"position" validate:"required"`
	StartDate      string  `json:"start_date" validate:"required"`
	EndDate        string  `json:"end_date" validate:"required"`
	Observation    *string `json:"observation"`
}

const dateLayout = "2006-01-02"

func (p requestCreatePayload) toInput() (requests.CreateRequestInput, error) {
	start, err := time.Parse(dateLayout, strings.TrimSpace(p.StartDate))
	if err != nil {
		return requests.CreateRequestInput{}, pkgerrors.New(pkgerrors.CodeValidation, "start_date must be YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, strings.TrimSpace(p.EndDate))
	if err != nil {
		return requests.CreateRequestInput{}, pkgerrors.New(pkgerrors.CodeValidation, "end_date must be YYYY-MM-DD")
	}
	return requests.CreateRequestInput{
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		DocumentIDType: p.DocumentIDType,
		DocumentID:     p.DocumentID,
		Position:       p.Position,
		StartDate:      start,
		EndDate:        end,
		Observation:    p.Observation,
	}, nil
}

// RequestCreate opens a new license request in pendiente.
func RequestCreate(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "request service unavailable"))
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		if actor.IsZero() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing"))
			return
		}

		var payload requestCreatePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithRadicado(ctx, created.Radicado)
			logg.Info(ctx, "request.created")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, requestResponseFromModel(created))
	}
}

// RequestList returns the actor's requests; elevated roles may pass
// requester_id to inspect one user or omit it to see everything.
func RequestList(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "request service unavailable"))
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		if actor.IsZero() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := requests.ListParams{
			Params: pagination.Params{
				Limit:  limit,
				Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
			},
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("requester_id")); raw != "" {
			requesterID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid requester_id"))
				return
			}
			params.RequesterID = &requesterID
		}

		result, err := svc.ListByRequester(r.Context(), actor, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func RequestGet(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "request service unavailable"))
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		if actor.IsZero() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing"))
			return
		}

		requestID, err := uuid.Parse(chi.URLParam(r, "requestId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request id"))
			return
		}

		row, err := svc.Get(r.Context(), requestID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, requestResponseFromModel(row))
	}
}

// RequestGetByRadicado resolves a request by its tracking code.
func RequestGetByRadicado(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "request service unavailable"))
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		if actor.IsZero() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing"))
			return
		}

		row, err := svc.GetByRadicado(r.Context(), chi.URLParam(r, "radicado"), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, requestResponseFromModel(row))
	}
}

type transitionPayload struct {
	TargetStatus string  `json:"target_status" validate:"required"`
	Comment      *string `json:"comment"`
}

// RequestTransition moves a request through the status machine.
func RequestTransition(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "request service unavailable"))
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		if actor.IsZero() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing"))
			return
		}

		requestID, err := uuid.Parse(chi.URLParam(r, "requestId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request id"))
			return
		}

		var payload transitionPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, err := enums.ParseRequestStatus(strings.TrimSpace(payload.TargetStatus))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid target status"))
			return
		}

		row, err := svc.Transition(r.Context(), requestID, target, actor, payload.Comment)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithFields(logg.WithRadicado(ctx, row.Radicado), map[string]any{"status": string(row.Status)})
			logg.Info(ctx, "request.transitioned")
		}
		responses.WriteSuccess(w, requestResponseFromModel(row))
	}
}

type requestResponse struct {
	ID              uuid.UUID           `json:"id"`
	Radicado        string              `json:"radicado"`
	RequesterID     uuid.UUID           `json:"requester_id"`
	FirstName       string              `json:"first_name"`
	LastName        string              `json:"last_name"`
	DocumentIDType  string              `json:"document_id_type"`
	DocumentID      string              `json:"document_id"`
	Position        string              `json:"position"`
	StartDate       time.Time           `json:"start_date"`
	EndDate         time.Time           `json:"end_date"`
	Observation     *string             `json:"observation,omitempty"`
	Status          enums.RequestStatus `json:"status"`
	ReviewerComment *string             `json:"reviewer_comment,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func requestResponseFromModel(m *models.LicenseRequest) requestResponse {
	return requestResponse{
		ID:              m.ID,
		Radicado:        m.Radicado,
		RequesterID:     m.RequesterID,
		FirstName:       m.FirstName,
		LastName:        m.LastName,
		DocumentIDType:  m.DocumentIDType,
		DocumentID:      m.DocumentID,
		Position:        m.Position,
		StartDate:       m.StartDate,
		EndDate:         m.EndDate,
		Observation:     m.Observation,
		Status:          m.Status,
		ReviewerComment: m.ReviewerComment,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
