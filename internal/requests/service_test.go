package requests

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	pkgauth "github.com/licenciapp/licencias-backend/pkg/auth"
	"github.com/licenciapp/licencias-backend/pkg/config"
	"github.com/licenciapp/licencias-backend/pkg/db/models"
	"github.com/licenciapp/licencias-backend/pkg/enums"
	pkgerrors "github.com/licenciapp/licencias-backend/pkg/errors"
	"github.com/licenciapp/licencias-backend/pkg/pagination"
	"github.com/licenciapp/licencias-backend/pkg/retry"
)

type stubRequestRepo struct {
	created      *models.LicenseRequest
	createErrs   []error
	createCalls  int
	findResult   *models.LicenseRequest
	findErr      error
	lastRadicado string
	listRows     []models.LicenseRequest
	listErr      error
	lastQuery    listQuery
	updateErr    error
	updateCalls  int
	lastUpdate   statusUpdate
	lastUpdateID uuid.UUID
}

func (s *stubRequestRepo) Create(ctx context.Context, request *models.LicenseRequest) (*models.LicenseRequest, error) {
	s.createCalls++
	if len(s.createErrs) > 0 {
		err := s.createErrs[0]
		s.createErrs = s.createErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	if request.ID == uuid.Nil {
		request.ID = uuid.New()
	}
	s.created = request
	return request, nil
}

func (s *stubRequestRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.LicenseRequest, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.findResult == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.findResult, nil
}

func (s *stubRequestRepo) FindByRadicado(ctx context.Context, radicado string) (*models.LicenseRequest, error) {
	s.lastRadicado = radicado
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.findResult == nil || s.findResult.Radicado != radicado {
		return nil, gorm.ErrRecordNotFound
	}
	return s.findResult, nil
}

func (s *stubRequestRepo) List(ctx context.Context, opts listQuery) ([]models.LicenseRequest, error) {
	s.lastQuery = opts
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.listRows, nil
}

func (s *stubRequestRepo) UpdateStatus(ctx context.Context, id uuid.UUID, update statusUpdate) error {
	s.updateCalls++
	s.lastUpdateID = id
	s.lastUpdate = update
	return s.updateErr
}

func fastRetryPolicy() retry.Policy {
	return retry.NewPolicy(config.RetryConfig{
		MaxAttempts: 3,
		BaseBackoff: time.Millisecond,
		MaxBackoff:  time.Millisecond,
	})
}

func newServiceForTests(repo *stubRequestRepo) (Service, *stubRequestRepo) {
	if repo == nil {
		repo = &stubRequestRepo{}
	}
	svc, err := NewService(repo, fastRetryPolicy())
	if err != nil {
		panic(err)
	}
	return svc, repo
}

func radicadoCollision() error {
	return &pgconn.PgError{Code: "23505", ConstraintName: RadicadoConstraint}
}

func validCreateInput() CreateRequestInput {
	return CreateRequestInput{
		FirstName:      "Laura",
		LastName:       "Gomez",
		DocumentIDType: "CC",
		DocumentID:     "1032456789",
		Position:       "Analista",
		StartDate:      time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
	}
}

func solicitante(id uuid.UUID) pkgauth.Actor {
	return pkgauth.Actor{ID: id, Role: enums.ActorRoleSolicitante}
}

func revisor() pkgauth.Actor {
	return pkgauth.Actor{ID: uuid.New(), Role: enums.ActorRoleRevisor}
}

func administrador() pkgauth.Actor {
	return pkgauth.Actor{ID: uuid.New(), Role: enums.ActorRoleAdministrador}
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected %s code, got %v", code, err)
	}
}

var radicadoFormat = regexp.MustCompile(`^LIC-\d{8}-[0-9A-HJKMNP-TV-Z]{6}$`)

func TestCreateRequestSuccess(t *testing.T) {
	svc, repo := newServiceForTests(nil)
	requester := uuid.New()

	input := validCreateInput()
	input.FirstName = " Laura "

	created, err := svc.Create(context.Background(), solicitante(requester), input)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.Status != enums.RequestStatusPendiente {
		t.Fatalf("expected status pendiente, got %s", created.Status)
	}
	if created.FirstName != "Laura" {
		t.Fatalf("expected trimmed first name, got %q", created.FirstName)
	}
	if !radicadoFormat.MatchString(created.Radicado) {
		t.Fatalf("unexpected radicado format %q", created.Radicado)
	}
	if created.RequesterID != requester {
		t.Fatalf("expected requester stamped, got %s", created.RequesterID)
	}
	if created.CreatedBy == nil || *created.CreatedBy != requester {
		t.Fatal("expected created_by stamped with actor id")
	}
	if repo.created == nil {
		t.Fatal("expected request persisted")
	}
}

func TestCreateRequestRejectsInvertedDates(t *testing.T) {
	svc, repo := newServiceForTests(nil)

	input := validCreateInput()
	input.StartDate = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	input.EndDate = time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	_, err := svc.Create(context.Background(), solicitante(uuid.New()), input)
	assertCode(t, err, pkgerrors.CodeValidation)
	if repo.createCalls != 0 {
		t.Fatalf("expected no persistence attempt, got %d", repo.createCalls)
	}
}

func TestCreateRequestRejectsMissingFields(t *testing.T) {
	svc, _ := newServiceForTests(nil)

	cases := []struct {
		name   string
		mutate func(*CreateRequestInput)
	}{
		{"missing first name", func(in *CreateRequestInput) { in.FirstName = " " }},
		{"missing last name", func(in *CreateRequestInput) { in.LastName = "" }},
		{"missing document type", func(in *CreateRequestInput) { in.DocumentIDType = "" }},
		{"missing document id", func(in *CreateRequestInput) { in.DocumentID = "" }},
		{"missing position", func(in *CreateRequestInput) { in.Position = "" }},
		{"missing dates", func(in *CreateRequestInput) { in.StartDate = time.Time{} }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validCreateInput()
			tc.mutate(&input)
			_, err := svc.Create(context.Background(), solicitante(uuid.New()), input)
			assertCode(t, err, pkgerrors.CodeValidation)
		})
	}
}

func TestCreateRequestRetriesRadicadoCollision(t *testing.T) {
	repo := &stubRequestRepo{createErrs: []error{radicadoCollision(), radicadoCollision()}}
	svc, _ := newServiceForTests(repo)

	created, err := svc.Create(context.Background(), solicitante(uuid.New()), validCreateInput())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if repo.createCalls != 3 {
		t.Fatalf("expected 3 attempts, got %d", repo.createCalls)
	}
	if created.Radicado == "" {
		t.Fatal("expected radicado assigned")
	}
}

func TestCreateRequestRadicadoExhaustionIsConflict(t *testing.T) {
	repo := &stubRequestRepo{createErrs: []error{radicadoCollision(), radicadoCollision(), radicadoCollision()}}
	svc, _ := newServiceForTests(repo)

	_, err := svc.Create(context.Background(), solicitante(uuid.New()), validCreateInput())
	assertCode(t, err, pkgerrors.CodeConflict)
	if repo.createCalls != 3 {
		t.Fatalf("expected attempts capped at 3, got %d", repo.createCalls)
	}
}

func TestCreateRequestOtherDBErrorIsDependency(t *testing.T) {
	repo := &stubRequestRepo{createErrs: []error{gorm.ErrInvalidDB}}
	svc, _ := newServiceForTests(repo)

	_, err := svc.Create(context.Background(), solicitante(uuid.New()), validCreateInput())
	assertCode(t, err, pkgerrors.CodeDependency)
	if repo.createCalls != 1 {
		t.Fatalf("expected single attempt for non-retryable error, got %d", repo.createCalls)
	}
}

func requestInStatus(status enums.RequestStatus, requesterID uuid.UUID) *models.LicenseRequest {
	return &models.LicenseRequest{
		ID:          uuid.New(),
		Radicado:    "LIC-20240105-ABC234",
		RequesterID: requesterID,
		Status:      status,
	}
}

func TestTransitionMatrix(t *testing.T) {
	statuses := []enums.RequestStatus{
		enums.RequestStatusPendiente,
		enums.RequestStatusEnRevision,
		enums.RequestStatusAprobada,
		enums.RequestStatusRechazada,
		enums.RequestStatusAnulada,
	}
	allowed := map[enums.RequestStatus][]enums.RequestStatus{
		enums.RequestStatusPendiente:  {enums.RequestStatusEnRevision, enums.RequestStatusAnulada},
		enums.RequestStatusEnRevision: {enums.RequestStatusAprobada, enums.RequestStatusRechazada, enums.RequestStatusPendiente},
	}

	admin := administrador()

	for _, from := range statuses {
		for _, target := range statuses {
			from, target := from, target
			t.Run(string(from)+"_to_"+string(target), func(t *testing.T) {
				row := requestInStatus(from, uuid.New())
				repo := &stubRequestRepo{findResult: row}
				svc, _ := newServiceForTests(repo)

				updated, err := svc.Transition(context.Background(), row.ID, target, admin, nil)

				if from == target {
					if err != nil {
						t.Fatalf("same-status transition should be idempotent success: %v", err)
					}
					if repo.updateCalls != 0 {
						t.Fatalf("idempotent transition must not write, got %d updates", repo.updateCalls)
					}
					return
				}

				edgeAllowed := false
				for _, candidate := range allowed[from] {
					if candidate == target {
						edgeAllowed = true
					}
				}

				if edgeAllowed {
					if err != nil {
						t.Fatalf("expected %s -> %s to succeed: %v", from, target, err)
					}
					if updated.Status != target {
						t.Fatalf("expected status %s, got %s", target, updated.Status)
					}
					if repo.updateCalls != 1 {
						t.Fatalf("expected one update, got %d", repo.updateCalls)
					}
					return
				}

				assertCode(t, err, pkgerrors.CodeStateConflict)
				if repo.updateCalls != 0 {
					t.Fatalf("disallowed edge must not write, got %d updates", repo.updateCalls)
				}
			})
		}
	}
}

func TestTransitionRequiresElevatedRoleForReview(t *testing.T) {
	owner := uuid.New()
	row := requestInStatus(enums.RequestStatusPendiente, owner)
	repo := &stubRequestRepo{findResult: row}
	svc, _ := newServiceForTests(repo)

	_, err := svc.Transition(context.Background(), row.ID, enums.RequestStatusEnRevision, solicitante(owner), nil)
	assertCode(t, err, pkgerrors.CodeForbidden)
	if repo.updateCalls != 0 {
		t.Fatal("forbidden transition must not write")
	}
}

func TestTransitionOwnerMayCancelPending(t *testing.T) {
	owner := uuid.New()
	row := requestInStatus(enums.RequestStatusPendiente, owner)
	repo := &stubRequestRepo{findResult: row}
	svc, _ := newServiceForTests(repo)

	updated, err := svc.Transition(context.Background(), row.ID, enums.RequestStatusAnulada, solicitante(owner), nil)
	if err != nil {
		t.Fatalf("owner cancel returned error: %v", err)
	}
	if updated.Status != enums.RequestStatusAnulada {
		t.Fatalf("expected anulada, got %s", updated.Status)
	}
}

func TestTransitionStrangerMayNotCancel(t *testing.T) {
	row := requestInStatus(enums.RequestStatusPendiente, uuid.New())
	repo := &stubRequestRepo{findResult: row}
	svc, _ := newServiceForTests(repo)

	_, err := svc.Transition(context.Background(), row.ID, enums.RequestStatusAnulada, solicitante(uuid.New()), nil)
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestTransitionRevisorMayNotCancelOthersRequest(t *testing.T) {
	row := requestInStatus(enums.RequestStatusPendiente, uuid.New())
	repo := &stubRequestRepo{findResult: row}
	svc, _ := newServiceForTests(repo)

	_, err := svc.Transition(context.Background(), row.ID, enums.RequestStatusAnulada, revisor(), nil)
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestTransitionPersistsReviewerComment(t *testing.T) {
	row := requestInStatus(enums.RequestStatusEnRevision, uuid.New())
	repo := &stubRequestRepo{findResult: row}
	svc, _ := newServiceForTests(repo)

	comment := "falta el certificado"
	updated, err := svc.Transition(context.Background(), row.ID, enums.RequestStatusRechazada, revisor(), &comment)
	if err != nil {
		t.Fatalf("Transition returned error: %v", err)
	}
	if repo.lastUpdate.reviewerComment == nil || *repo.lastUpdate.reviewerComment != comment {
		t.Fatal("expected reviewer comment in update")
	}
	if updated.ReviewerComment == nil || *updated.ReviewerComment != comment {
		t.Fatal("expected reviewer comment on returned row")
	}
}

func TestTransitionReturnsPersistedTimestamp(t *testing.T) {
	row := requestInStatus(enums.RequestStatusPendiente, uuid.New())
	row.UpdatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := &stubRequestRepo{findResult: row}
	svc, _ := newServiceForTests(repo)

	before := time.Now().UTC().Add(-time.Second)
	updated, err := svc.Transition(context.Background(), row.ID, enums.RequestStatusEnRevision, administrador(), nil)
	if err != nil {
		t.Fatalf("Transition returned error: %v", err)
	}
	if !updated.UpdatedAt.Equal(repo.lastUpdate.updatedAt) {
		t.Fatalf("returned updated_at %v must match the persisted %v", updated.UpdatedAt, repo.lastUpdate.updatedAt)
	}
	if updated.UpdatedAt.Before(before) {
		t.Fatalf("updated_at %v was not refreshed", updated.UpdatedAt)
	}
}

func TestTransitionNotFound(t *testing.T) {
	svc, _ := newServiceForTests(&stubRequestRepo{})

	_, err := svc.Transition(context.Background(), uuid.New(), enums.RequestStatusEnRevision, administrador(), nil)
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestCanMutateEvidenceTruthTable(t *testing.T) {
	cases := map[enums.RequestStatus]bool{
		enums.RequestStatusPendiente:  true,
		enums.RequestStatusEnRevision: true,
		enums.RequestStatusAprobada:   false,
		enums.RequestStatusRechazada:  false,
		enums.RequestStatusAnulada:    false,
	}
	for status, want := range cases {
		if got := CanMutateEvidence(status); got != want {
			t.Errorf("CanMutateEvidence(%s) = %v, want %v", status, got, want)
		}
	}
}

func TestAuthorizeReadMatrix(t *testing.T) {
	owner := uuid.New()
	row := requestInStatus(enums.RequestStatusPendiente, owner)
	svc, _ := newServiceForTests(nil)

	if err := svc.AuthorizeRead(row, solicitante(owner)); err != nil {
		t.Fatalf("owner read returned error: %v", err)
	}
	if err := svc.AuthorizeRead(row, revisor()); err != nil {
		t.Fatalf("revisor read returned error: %v", err)
	}
	if err := svc.AuthorizeRead(row, administrador()); err != nil {
		t.Fatalf("administrador read returned error: %v", err)
	}
	assertCode(t, svc.AuthorizeRead(row, solicitante(uuid.New())), pkgerrors.CodeForbidden)
}

func TestGetNotFound(t *testing.T) {
	svc, _ := newServiceForTests(&stubRequestRepo{})

	_, err := svc.Get(context.Background(), uuid.New(), administrador())
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestGetByRadicadoNormalizesAndAuthorizes(t *testing.T) {
	owner := uuid.New()
	row := requestInStatus(enums.RequestStatusPendiente, owner)
	repo := &stubRequestRepo{findResult: row}
	svc, _ := newServiceForTests(repo)

	got, err := svc.GetByRadicado(context.Background(), "  lic-20240105-abc234 ", solicitante(owner))
	if err != nil {
		t.Fatalf("GetByRadicado returned error: %v", err)
	}
	if got.ID != row.ID {
		t.Fatal("expected the stored row back")
	}
	if repo.lastRadicado != "LIC-20240105-ABC234" {
		t.Fatalf("expected uppercased trimmed lookup, got %q", repo.lastRadicado)
	}

	_, err = svc.GetByRadicado(context.Background(), row.Radicado, solicitante(uuid.New()))
	assertCode(t, err, pkgerrors.CodeForbidden)

	_, err = svc.GetByRadicado(context.Background(), "LIC-20240105-ZZZ999", solicitante(owner))
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestListPinsRequesterToOwnRows(t *testing.T) {
	actorID := uuid.New()
	repo := &stubRequestRepo{}
	svc, _ := newServiceForTests(repo)

	if _, err := svc.ListByRequester(context.Background(), solicitante(actorID), ListParams{}); err != nil {
		t.Fatalf("ListByRequester returned error: %v", err)
	}
	if repo.lastQuery.requesterID == nil || *repo.lastQuery.requesterID != actorID {
		t.Fatal("expected listing pinned to actor's own rows")
	}
}

func TestListForbidsRequesterListingOthers(t *testing.T) {
	other := uuid.New()
	svc, _ := newServiceForTests(nil)

	_, err := svc.ListByRequester(context.Background(), solicitante(uuid.New()), ListParams{RequesterID: &other})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestListElevatedSeesAll(t *testing.T) {
	repo := &stubRequestRepo{}
	svc, _ := newServiceForTests(repo)

	if _, err := svc.ListByRequester(context.Background(), revisor(), ListParams{}); err != nil {
		t.Fatalf("ListByRequester returned error: %v", err)
	}
	if repo.lastQuery.requesterID != nil {
		t.Fatal("expected unfiltered listing for elevated role")
	}
}

func TestListPagination(t *testing.T) {
	now := time.Now()
	requester := uuid.New()
	rows := []models.LicenseRequest{
		{ID: uuid.New(), Radicado: "LIC-20240105-AAA222", RequesterID: requester, Status: enums.RequestStatusPendiente, CreatedAt: now},
		{ID: uuid.New(), Radicado: "LIC-20240104-BBB333", RequesterID: requester, Status: enums.RequestStatusAprobada, CreatedAt: now.Add(-time.Hour)},
	}
	repo := &stubRequestRepo{listRows: rows}
	svc, _ := newServiceForTests(repo)

	resp, err := svc.ListByRequester(context.Background(), solicitante(requester), ListParams{
		Params: pagination.Params{Limit: 1},
	})
	if err != nil {
		t.Fatalf("ListByRequester returned error: %v", err)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(resp.Items))
	}
	if resp.Cursor == "" {
		t.Fatal("expected cursor for next page")
	}
	if repo.lastQuery.limit != 2 {
		t.Fatalf("expected query limit 2, got %d", repo.lastQuery.limit)
	}
}

func TestListInvalidCursor(t *testing.T) {
	svc, _ := newServiceForTests(nil)

	_, err := svc.ListByRequester(context.Background(), revisor(), ListParams{
		Params: pagination.Params{Cursor: "badcursor"},
	})
	assertCode(t, err, pkgerrors.CodeValidation)
}

// Walks a request through the lifecycle from the point of view of its
// owner, an unrelated user, and a reviewer.
func TestLifecycleScenario(t *testing.T) {
	u1 := uuid.New()
	u2 := uuid.New()
	reviewer := revisor()

	repo := &stubRequestRepo{}
	svc, _ := newServiceForTests(repo)

	created, err := svc.Create(context.Background(), solicitante(u1), validCreateInput())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	repo.findResult = created

	// U2 can neither read nor cancel U1's request.
	assertCode(t, svc.AuthorizeRead(created, solicitante(u2)), pkgerrors.CodeForbidden)
	_, err = svc.Transition(context.Background(), created.ID, enums.RequestStatusAnulada, solicitante(u2), nil)
	assertCode(t, err, pkgerrors.CodeForbidden)

	// Reviewer picks it up and approves.
	inReview, err := svc.Transition(context.Background(), created.ID, enums.RequestStatusEnRevision, reviewer, nil)
	if err != nil {
		t.Fatalf("to en_revision: %v", err)
	}
	repo.findResult = inReview

	approved, err := svc.Transition(context.Background(), created.ID, enums.RequestStatusAprobada, reviewer, nil)
	if err != nil {
		t.Fatalf("to aprobada: %v", err)
	}
	repo.findResult = approved

	// Terminal state: no further edges, evidence frozen.
	_, err = svc.Transition(context.Background(), created.ID, enums.RequestStatusPendiente, administrador(), nil)
	assertCode(t, err, pkgerrors.CodeStateConflict)
	if CanMutateEvidence(approved.Status) {
		t.Fatal("approved request must not accept evidence changes")
	}
}
