package requests

import "github.com/licenciapp/licencias-backend/pkg/enums"

// allowedTransitions is the closed edge set of the request state machine.
// Terminal states have no outgoing edges.
var allowedTransitions = map[enums.RequestStatus][]enums.RequestStatus{
	enums.RequestStatusPendiente: {
		enums.RequestStatusEnRevision,
		enums.RequestStatusAnulada,
	},
	enums.RequestStatusEnRevision: {
		enums.RequestStatusAprobada,
		enums.RequestStatusRechazada,
		enums.RequestStatusPendiente,
	},
}

// transitionAllowed reports whether the edge current -> target exists.
func transitionAllowed(current, target enums.RequestStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == target {
			return true
		}
	}
	return false
}

// CanMutateEvidence reports whether evidence may still be attached to or
// removed from a request in the given status. Only pre-decision states
// accept evidence changes.
func CanMutateEvidence(status enums.RequestStatus) bool {
	return status == enums.RequestStatusPendiente || status == enums.RequestStatusEnRevision
}
