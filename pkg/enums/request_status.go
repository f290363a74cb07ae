package enums

import "fmt"

// RequestStatus describes the lifecycle state of a license request.
// The set is closed: transitions between states are validated by the
// requests service, never written free-form.
type RequestStatus string

const (
	RequestStatusPendiente  RequestStatus = "pendiente"
	RequestStatusEnRevision RequestStatus = "en_revision"
	RequestStatusAprobada   RequestStatus = "aprobada"
	RequestStatusRechazada  RequestStatus = "rechazada"
	RequestStatusAnulada    RequestStatus = "anulada"
)

var validRequestStatuses = []RequestStatus{
	RequestStatusPendiente,
	RequestStatusEnRevision,
	RequestStatusAprobada,
	RequestStatusRechazada,
	RequestStatusAnulada,
}

// String returns the literal string for the status.
func (r RequestStatus) String() string {
	return string(r)
}

// IsValid reports whether the status is known.
func (r RequestStatus) IsValid() bool {
	for _, candidate := range validRequestStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition may leave the status.
func (r RequestStatus) IsTerminal() bool {
	switch r {
	case RequestStatusAprobada, RequestStatusRechazada, RequestStatusAnulada:
		return true
	}
	return false
}

// ParseRequestStatus converts raw input into a RequestStatus.
func ParseRequestStatus(value string) (RequestStatus, error) {
	for _, candidate := range validRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid request status %q", value)
}
