package requests

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgauth "github.com/licenciapp/licencias-backend/pkg/auth"
	"github.com/licenciapp/licencias-backend/pkg/db"
	"github.com/licenciapp/licencias-backend/pkg/db/models"
	"github.com/licenciapp/licencias-backend/pkg/enums"
	pkgerrors "github.com/licenciapp/licencias-backend/pkg/errors"
	pkgpagination "github.com/licenciapp/licencias-backend/pkg/pagination"
	"github.com/licenciapp/licencias-backend/pkg/retry"
)

type requestsRepository interface {
	Create(ctx context.Context, request *models.LicenseRequest) (*models.LicenseRequest, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.LicenseRequest, error)
	FindByRadicado(ctx context.Context, radicado string) (*models.LicenseRequest, error)
	List(ctx context.Context, opts listQuery) ([]models.LicenseRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, update statusUpdate) error
}

// Service exposes license request creation, transitions, reads, and listing.
type Service interface {
	Create(ctx context.Context, actor pkgauth.Actor, input CreateRequestInput) (*models.LicenseRequest, error)
	Transition(ctx context.Context, requestID uuid.UUID, target enums.RequestStatus, actor pkgauth.Actor, comment *string) (*models.LicenseRequest, error)
	Get(ctx context.Context, id uuid.UUID, actor pkgauth.Actor) (*models.LicenseRequest, error)
	GetByRadicado(ctx context.Context, radicado string, actor pkgauth.Actor) (*models.LicenseRequest, error)
	ListByRequester(ctx context.Context, actor pkgauth.Actor, params ListParams) (*ListResult, error)
	AuthorizeRead(request *models.LicenseRequest, actor pkgauth.Actor) error
}

type service struct {
	repo        requestsRepository
	retryPolicy retry.Policy
}

// CreateRequestInput holds the fields required to open a request.
type CreateRequestInput struct {
	FirstName      string
	LastName       string
	DocumentIDType string
	DocumentID     string
	Position       string
	StartDate      time.Time
	EndDate        time.Time
	Observation    *string
}

// NewService builds a request service backed by the provided repository.
func NewService(repo requestsRepository, retryPolicy retry.Policy) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("request repository required")
	}
	return &service{
		repo:        repo,
		retryPolicy: retryPolicy,
	}, nil
}

func (s *service) Create(ctx context.Context, actor pkgauth.Actor, input CreateRequestInput) (*models.LicenseRequest, error) {
	if actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor identity missing")
	}
	if strings.TrimSpace(input.FirstName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first_name is required")
	}
	if strings.TrimSpace(input.LastName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "last_name is required")
	}
	if strings.TrimSpace(input.DocumentIDType) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "document_id_type is required")
	}
	if strings.TrimSpace(input.DocumentID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "document_id is required")
	}
	if strings.TrimSpace(input.Position) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "position is required")
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "start_date and end_date are required")
	}
	if input.EndDate.Before(input.StartDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end_date must be on or after start_date")
	}

	actorID := actor.ID
	var created *models.LicenseRequest
	err := s.retryPolicy.Do(ctx, func(ctx context.Context) error {
		radicado, err := newRadicado(time.Now())
		if err != nil {
			return err
		}
		row := &models.LicenseRequest{
			Radicado:       radicado,
			RequesterID:    actor.ID,
			FirstName:      strings.TrimSpace(input.FirstName),
			LastName:       strings.TrimSpace(input.LastName),
			DocumentIDType: strings.TrimSpace(input.DocumentIDType),
			DocumentID:     strings.TrimSpace(input.DocumentID),
			Position:       strings.TrimSpace(input.Position),
			StartDate:      input.StartDate,
			EndDate:        input.EndDate,
			Observation:    input.Observation,
			Status:         enums.RequestStatusPendiente,
			CreatedBy:      &actorID,
			UpdatedBy:      &actorID,
		}
		created, err = s.repo.Create(ctx, row)
		if err != nil {
			if db.IsUniqueViolation(err, RadicadoConstraint) {
				// Fresh candidate on the next attempt.
				return retry.Retryable(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		if db.IsUniqueViolation(err, RadicadoConstraint) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "could not allocate a unique radicado")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create request")
	}
	return created, nil
}

func (s *service) Transition(ctx context.Context, requestID uuid.UUID, target enums.RequestStatus, actor pkgauth.Actor, comment *string) (*models.LicenseRequest, error) {
	if requestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id is required")
	}
	if actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor identity missing")
	}
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid target status")
	}

	row, err := s.findRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	// Repeating an already-applied transition is a success, not a conflict.
	if row.Status == target {
		if err := s.AuthorizeRead(row, actor); err != nil {
			return nil, err
		}
		return row, nil
	}

	if !transitionAllowed(row.Status, target) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot transition from %s to %s", row.Status, target))
	}

	if err := authorizeTransition(row, target, actor); err != nil {
		return nil, err
	}

	update := statusUpdate{
		status:          target,
		reviewerComment: comment,
		updatedBy:       actor.ID,
		updatedAt:       time.Now().UTC(),
	}
	if err := s.repo.UpdateStatus(ctx, requestID, update); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update request status")
	}

	// The returned entity mirrors exactly what the UPDATE persisted.
	row.Status = target
	if comment != nil {
		row.ReviewerComment = comment
	}
	updatedBy := actor.ID
	row.UpdatedBy = &updatedBy
	row.UpdatedAt = update.updatedAt
	return row, nil
}

func authorizeTransition(row *models.LicenseRequest, target enums.RequestStatus, actor pkgauth.Actor) error {
	switch target {
	case enums.RequestStatusEnRevision, enums.RequestStatusAprobada, enums.RequestStatusRechazada, enums.RequestStatusPendiente:
		if !actor.Role.IsElevated() {
			return pkgerrors.New(pkgerrors.CodeForbidden, "review transitions require an elevated role")
		}
	case enums.RequestStatusAnulada:
		if actor.ID != row.RequesterID && actor.Role != enums.ActorRoleAdministrador {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the requester or an administrator may cancel")
		}
	}
	return nil
}

// AuthorizeRead allows the owner and elevated roles to see a request.
func (s *service) AuthorizeRead(request *models.LicenseRequest, actor pkgauth.Actor) error {
	if request == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
	}
	if actor.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "actor identity missing")
	}
	if request.RequesterID == actor.ID || actor.Role.IsElevated() {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "request belongs to another user")
}

func (s *service) Get(ctx context.Context, id uuid.UUID, actor pkgauth.Actor) (*models.LicenseRequest, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id is required")
	}
	row, err := s.findRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.AuthorizeRead(row, actor); err != nil {
		return nil, err
	}
	return row, nil
}

// GetByRadicado resolves a request by its tracking code. The radicado is
// the identifier people actually quote, so lookups by it get first-class
// support.
func (s *service) GetByRadicado(ctx context.Context, radicado string, actor pkgauth.Actor) (*models.LicenseRequest, error) {
	radicado = strings.ToUpper(strings.TrimSpace(radicado))
	if radicado == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "radicado is required")
	}
	row, err := s.repo.FindByRadicado(ctx, radicado)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup request by radicado")
	}
	if err := s.AuthorizeRead(row, actor); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *service) ListByRequester(ctx context.Context, actor pkgauth.Actor, params ListParams) (*ListResult, error) {
	if actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor identity missing")
	}

	requesterID := params.RequesterID
	if !actor.Role.IsElevated() {
		if requesterID != nil && *requesterID != actor.ID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot list requests of another user")
		}
		own := actor.ID
		requesterID = &own
	}

	limit := pkgpagination.NormalizeLimit(params.Limit)
	query := listQuery{
		requesterID: requesterID,
		limit:       pkgpagination.LimitWithBuffer(params.Limit),
	}
	if params.Cursor != "" {
		cursor, err := pkgpagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.cursor = cursor
	}

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list requests")
	}

	nextCursor := ""
	if len(rows) > limit {
		nextCursor = pkgpagination.EncodeCursor(pkgpagination.Cursor{
			CreatedAt: rows[limit].CreatedAt,
			ID:        rows[limit].ID,
		})
		rows = rows[:limit]
	}

	items := make([]ListItem, len(rows))
	for i, row := range rows {
		items[i] = toListItem(row)
	}

	return &ListResult{
		Items:  items,
		Cursor: nextCursor,
	}, nil
}

func (s *service) findRequest(ctx context.Context, id uuid.UUID) (*models.LicenseRequest, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup request")
	}
	return row, nil
}
