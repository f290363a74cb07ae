package requests

import (
	"time"

	"github.com/google/uuid"

	"github.com/licenciapp/licencias-backend/pkg/db/models"
	"github.com/licenciapp/licencias-backend/pkg/enums"
	pkgpagination "github.com/licenciapp/licencias-backend/pkg/pagination"
)

type ListParams struct {
	// RequesterID narrows the listing to one requester. Elevated roles may
	// leave it empty to list everything; requesters are always pinned to
	// their own rows.
	RequesterID *uuid.UUID
	pkgpagination.Params
}

type ListResult struct {
	Items  []ListItem `json:"items"`
	Cursor string     `json:"cursor"`
}

type ListItem struct {
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

type listQuery struct {
	requesterID *uuid.UUID
	limit       int
	cursor      *pkgpagination.Cursor
}

func toListItem(m models.LicenseRequest) ListItem {
	return ListItem{
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
