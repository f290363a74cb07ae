package evidence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/licenciapp/licencias-backend/pkg/db/models"
	"github.com/licenciapp/licencias-backend/pkg/enums"
)

// Repository exposes evidence attachment metadata persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an evidence repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Upsert writes the attachment row keyed by (request_id, document_type,
// item_id). Re-uploading an occupied slot overwrites the row in place.
func (r *Repository) Upsert(ctx context.Context, attachment *models.EvidenceAttachment) (*models.EvidenceAttachment, error) {
	attachment.UploadedAt = time.Now().UTC()
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "request_id"},
			{Name: "document_type"},
			{Name: "item_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"file_name", "object_key", "public_url", "mime_type", "size_bytes", "uploaded_at",
		}),
	}).Create(attachment).Error
	if err != nil {
		return nil, err
	}
	return attachment, nil
}

// FindBySlot retrieves the attachment occupying the slot, if any.
func (r *Repository) FindBySlot(ctx context.Context, requestID uuid.UUID, docType enums.DocumentType, itemID int) (*models.EvidenceAttachment, error) {
	var row models.EvidenceAttachment
	err := r.db.WithContext(ctx).
		First(&row, "request_id = ? AND document_type = ? AND item_id = ?", requestID, docType, itemID).
		Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// DeleteBySlot removes the attachment row for the slot. Deleting an empty
// slot is not an error.
func (r *Repository) DeleteBySlot(ctx context.Context, requestID uuid.UUID, docType enums.DocumentType, itemID int) error {
	return r.db.WithContext(ctx).
		Where("request_id = ? AND document_type = ? AND item_id = ?", requestID, docType, itemID).
		Delete(&models.EvidenceAttachment{}).
		Error
}

// ListByRequest returns every attachment of the request ordered by slot.
func (r *Repository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]models.EvidenceAttachment, error) {
	var rows []models.EvidenceAttachment
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("document_type ASC").
		Order("item_id ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
