package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/licenciapp/licencias-backend/pkg/enums"
)

// LicenseRequest is one leave/permission request. The radicado is assigned
// exactly once at creation and never reassigned; status changes go through
// the requests service state machine only.
type LicenseRequest struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Radicado        string              `gorm:"column:radicado;not null;unique"`
	RequesterID     uuid.UUID           `gorm:"column:requester_id;type:uuid;not null"`
	FirstName       string              `gorm:"column:first_name;not null"`
	LastName        string              `gorm:"column:last_name;not null"`
	DocumentIDType  string              `gorm:"column:document_id_type;not null"`
	DocumentID      string              `gorm:"column:document_id;not null"`
	Position        string              `gorm:"column:position;not null"`
	StartDate       time.Time           `gorm:"column:start_date;type:date;not null"`
	EndDate         time.Time           `gorm:"column:end_date;type:date;not null"`
	Observation     *string             `gorm:"column:observation"`
	Status          enums.RequestStatus `gorm:"column:status;type:request_status;not null;default:pendiente"`
	ReviewerComment *string             `gorm:"column:reviewer_comment"`
	CreatedBy       *uuid.UUID          `gorm:"column:created_by;type:uuid"`
	UpdatedBy       *uuid.UUID          `gorm:"column:updated_by;type:uuid"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (LicenseRequest) TableName() string {
	return "license_requests"
}
