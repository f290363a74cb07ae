package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/licenciapp/licencias-backend/api/middleware"
	"github.com/licenciapp/licencias-backend/internal/requests"
	pkgauth "github.com/licenciapp/licencias-backend/pkg/auth"
	"github.com/licenciapp/licencias-backend/pkg/db/models"
	"github.com/licenciapp/licencias-backend/pkg/enums"
	pkgerrors "github.com/licenciapp/licencias-backend/pkg/errors"
)

type stubRequestService struct {
	created       *models.LicenseRequest
	createErr     error
	lastInput     requests.CreateRequestInput
	transitioned  *models.LicenseRequest
	transitionErr error
	lastTarget    enums.RequestStatus
	byRadicado    *models.LicenseRequest
	lastRadicado  string
}

func (s *stubRequestService) Create(ctx context.Context, actor pkgauth.Actor, input requests.CreateRequestInput) (*models.LicenseRequest, error) {
	s.lastInput = input
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.created, nil
}

func (s *stubRequestService) Transition(ctx context.Context, requestID uuid.UUID, target enums.RequestStatus, actor pkgauth.Actor, comment *string) (*models.LicenseRequest, error) {
	s.lastTarget = target
	if s.transitionErr != nil {
		return nil, s.transitionErr
	}
	return s.transitioned, nil
}

func (s *stubRequestService) Get(ctx context.Context, id uuid.UUID, actor pkgauth.Actor) (*models.LicenseRequest, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
}

func (s *stubRequestService) GetByRadicado(ctx context.Context, radicado string, actor pkgauth.Actor) (*models.LicenseRequest, error) {
	s.lastRadicado = radicado
	if s.byRadicado == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
	}
	return s.byRadicado, nil
}

func (s *stubRequestService) ListByRequester(ctx context.Context, actor pkgauth.Actor, params requests.ListParams) (*requests.ListResult, error) {
	return &requests.ListResult{}, nil
}

func (s *stubRequestService) AuthorizeRead(request *models.LicenseRequest, actor pkgauth.Actor) error {
	return nil
}

func sampleRequest(requesterID uuid.UUID) *models.LicenseRequest {
	return &models.LicenseRequest{
		ID:             uuid.New(),
		Radicado:       "LIC-20240110-A1B2C3",
		RequesterID:    requesterID,
		FirstName:      "Ana",
		LastName:       "Soto",
		DocumentIDType: "CC",
		DocumentID:     "1032456789",
		Position:       "Analista",
		StartDate:      time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC),
		Status:         enums.RequestStatusPendiente,
	}
}

func authedRequest(t *testing.T, method, target string, body []byte, actor pkgauth.Actor) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(middleware.WithActor(req.Context(), actor))
}

func TestRequestCreateReturnsRadicado(t *testing.T) {
	actor := pkgauth.Actor{ID: uuid.New(), Role: enums.ActorRoleSolicitante}
	svc := &stubRequestService{created: sampleRequest(actor.ID)}

	body := []byte(`{
		"first_name": "Ana",
		"last_name": "Soto",
		"document_id_type": "CC",
		"document_id": "1032456789",
		"position": "Analista",
		"start_date": "2024-01-10",
		"end_date": "2024-01-12"
	}`)
	req := authedRequest(t, http.MethodPost, "/api/v1/requests", body, actor)
	resp := httptest.NewRecorder()
	RequestCreate(svc, nil)(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data requestResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if envelope.Data.Radicado != "LIC-20240110-A1B2C3" {
		t.Fatalf("unexpected radicado %q", envelope.Data.Radicado)
	}
	if !svc.lastInput.StartDate.Equal(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start date not parsed, got %v", svc.lastInput.StartDate)
	}
}

func TestRequestCreateRejectsMalformedDate(t *testing.T) {
	actor := pkgauth.Actor{ID: uuid.New(), Role: enums.ActorRoleSolicitante}
	svc := &stubRequestService{created: sampleRequest(actor.ID)}

	body := []byte(`{
		"first_name": "Ana",
		"last_name": "Soto",
		"document_id_type": "CC",
		"document_id": "1032456789",
		"position": "Analista",
		"start_date": "10/01/2024",
		"end_date": "2024-01-12"
	}`)
	req := authedRequest(t, http.MethodPost, "/api/v1/requests", body, actor)
	resp := httptest.NewRecorder()
	RequestCreate(svc, nil)(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestRequestCreateRequiresActor(t *testing.T) {
	svc := &stubRequestService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/requests", bytes.NewReader([]byte(`{}`)))
	resp := httptest.NewRecorder()
	RequestCreate(svc, nil)(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestRequestGetByRadicado(t *testing.T) {
	actor := pkgauth.Actor{ID: uuid.New(), Role: enums.ActorRoleRevisor}
	row := sampleRequest(uuid.New())
	svc := &stubRequestService{byRadicado: row}

	router := chi.NewRouter()
	router.Get("/api/v1/requests/radicado/{radicado}", RequestGetByRadicado(svc, nil))

	req := authedRequest(t, http.MethodGet, "/api/v1/requests/radicado/"+row.Radicado, nil, actor)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastRadicado != row.Radicado {
		t.Fatalf("expected radicado param %q, got %q", row.Radicado, svc.lastRadicado)
	}
	var envelope struct {
		Data requestResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if envelope.Data.ID != row.ID {
		t.Fatal("expected the resolved request in the envelope")
	}
}

func TestRequestTransitionParsesTarget(t *testing.T) {
	actor := pkgauth.Actor{ID: uuid.New(), Role: enums.ActorRoleRevisor}
	updated := sampleRequest(uuid.New())
	updated.Status = enums.RequestStatusEnRevision
	svc := &stubRequestService{transitioned: updated}

	router := chi.NewRouter()
	router.Post("/api/v1/requests/{requestId}/transition", RequestTransition(svc, nil))

	body := []byte(`{"target_status": "en_revision"}`)
	req := authedRequest(t, http.MethodPost, "/api/v1/requests/"+updated.ID.String()+"/transition", body, actor)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastTarget != enums.RequestStatusEnRevision {
		t.Fatalf("expected en_revision target, got %s", svc.lastTarget)
	}
}

func TestRequestTransitionMapsStateConflict(t *testing.T) {
	actor := pkgauth.Actor{ID: uuid.New(), Role: enums.ActorRoleRevisor}
	svc := &stubRequestService{transitionErr: pkgerrors.New(pkgerrors.CodeStateConflict, "cannot transition from aprobada to rechazada")}

	router := chi.NewRouter()
	router.Post("/api/v1/requests/{requestId}/transition", RequestTransition(svc, nil))

	body := []byte(`{"target_status": "rechazada"}`)
	req := authedRequest(t, http.MethodPost, "/api/v1/requests/"+uuid.NewString()+"/transition", body, actor)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestRequestTransitionRejectsUnknownStatus(t *testing.T) {
	actor := pkgauth.Actor{ID: uuid.New(), Role: enums.ActorRoleRevisor}
	svc := &stubRequestService{}

	router := chi.NewRouter()
	router.Post("/api/v1/requests/{requestId}/transition", RequestTransition(svc, nil))

	body := []byte(`{"target_status": "archivada"}`)
	req := authedRequest(t, http.MethodPost, "/api/v1/requests/"+uuid.NewString()+"/transition", body, actor)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
