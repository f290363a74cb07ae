package requests

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/licenciapp/licencias-backend/pkg/db/models"
	"github.com/licenciapp/licencias-backend/pkg/enums"
)

// RadicadoConstraint is the unique constraint guarding radicado assignment.
const RadicadoConstraint = "uq_license_requests_radicado"

// statusUpdate carries the columns written by a single transition UPDATE.
type statusUpdate struct {
	status          enums.RequestStatus
	reviewerComment *string
	updatedBy       uuid.UUID
	updatedAt       time.Time
}

// Repository exposes license request persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a request repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new request row.
func (r *Repository) Create(ctx context.Context, request *models.LicenseRequest) (*models.LicenseRequest, error) {
	if err := r.db.WithContext(ctx).Create(request).Error; err != nil {
		return nil, err
	}
	return request, nil
}

// FindByID reads the committed row directly; transitions re-read through
// here before validating an edge.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.LicenseRequest, error) {
	var row models.LicenseRequest
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindByRadicado resolves a request by its radicado.
func (r *Repository) FindByRadicado(ctx context.Context, radicado string) (*models.LicenseRequest, error) {
	var row models.LicenseRequest
	if err := r.db.WithContext(ctx).First(&row, "radicado = ?", radicado).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// List returns requests using cursor pagination, optionally narrowed to a
// single requester.
func (r *Repository) List(ctx context.Context, opts listQuery) ([]models.LicenseRequest, error) {
	query := r.db.WithContext(ctx).Model(&models.LicenseRequest{})

	if opts.requesterID != nil {
		query = query.Where("requester_id = ?", *opts.requesterID)
	}
	if opts.cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", opts.cursor.CreatedAt, opts.cursor.CreatedAt, opts.cursor.ID)
	}

	query = query.Order("created_at DESC").Order("id DESC").Limit(opts.limit)

	var rows []models.LicenseRequest
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateStatus persists a transition as one UPDATE. The single-row write
// is the serialization point for concurrent transitions; last write wins.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, update statusUpdate) error {
	columns := map[string]any{
		"status":     update.status,
		"updated_by": update.updatedBy,
		"updated_at": update.updatedAt,
	}
	if update.reviewerComment != nil {
		columns["reviewer_comment"] = *update.reviewerComment
	}
	result := r.db.WithContext(ctx).
		Model(&models.LicenseRequest{}).
		Where("id = ?", id).
		Updates(columns)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
