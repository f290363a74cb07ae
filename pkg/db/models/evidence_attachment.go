package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/licenciapp/licencias-backend/pkg/enums"
)

// EvidenceAttachment binds one uploaded file to a request's evidence slot.
// The tuple (request_id, document_type, item_id) is the upsert identity:
// re-uploading into an occupied slot overwrites the row, never duplicates it.
type EvidenceAttachment struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RequestID    uuid.UUID          `gorm:"column:request_id;type:uuid;not null;uniqueIndex:idx_evidence_slot,priority:1"`
	DocumentType enums.DocumentType `gorm:"column:document_type;type:document_type;not null;uniqueIndex:idx_evidence_slot,priority:2"`
	ItemID       int                `gorm:"column:item_id;not null;uniqueIndex:idx_evidence_slot,priority:3"`
	FileName     string             `gorm:"column:file_name;not null"`
	ObjectKey    string             `gorm:"column:object_key;not null;unique"`
	PublicURL    string             `gorm:"column:public_url;not null"`
	MimeType     string             `gorm:"column:mime_type;not null"`
	SizeBytes    int64              `gorm:"column:size_bytes;not null"`
	UploadedAt   time.Time          `gorm:"column:uploaded_at;autoCreateTime"`
}

func (EvidenceAttachment) TableName() string {
	return "evidence_attachments"
}
