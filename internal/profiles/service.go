package profiles

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgauth "github.com/licenciapp/licencias-backend/pkg/auth"
	"github.com/licenciapp/licencias-backend/pkg/db/models"
	"github.com/licenciapp/licencias-backend/pkg/enums"
	pkgerrors "github.com/licenciapp/licencias-backend/pkg/errors"
)

type profilesRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role enums.ActorRole) error
}

// Service exposes profile reads and the admin-gated role update. Role is
// the only profile field the core ever mutates.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	UpdateRole(ctx context.Context, actor pkgauth.Actor, profileID uuid.UUID, role enums.ActorRole) (*models.Profile, error)
}

type service struct {
	repo profilesRepository
}

// NewService builds a profile service over the provided repository.
func NewService(repo profilesRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("profile repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "profile id is required")
	}
	profile, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup profile")
	}
	return profile, nil
}

func (s *service) UpdateRole(ctx context.Context, actor pkgauth.Actor, profileID uuid.UUID, role enums.ActorRole) (*models.Profile, error) {
	if actor.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor identity missing")
	}
	if actor.Role != enums.ActorRoleAdministrador {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role changes require an administrator")
	}
	if profileID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "profile id is required")
	}
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	if actor.ID == profileID {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "administrators cannot change their own role")
	}

	profile, err := s.Get(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if profile.Role == role {
		return profile, nil
	}

	if err := s.repo.UpdateRole(ctx, profileID, role); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update role")
	}

	profile.Role = role
	return profile, nil
}
