package domain

import "fmt"

// allowedTransitions is the legal edge set of the grievance workflow.
// ESCALATED is entered through the escalation operation only, never through a
// plain status update; it is listed here so escalation shares the same check.
var allowedTransitions = map[GrievanceStatus][]GrievanceStatus{
	StatusSubmitted:  {StatusInReview},
	StatusInReview:   {StatusInProgress, StatusResolved, StatusEscalated},
	StatusInProgress: {StatusResolved, StatusEscalated},
	StatusEscalated:  {StatusInProgress},
	StatusResolved:   {StatusClosed},
	StatusClosed:     {},
}

// CanTransition reports whether current -> next is a legal workflow edge.
func CanTransition(current, next GrievanceStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// NextStatuses returns the states reachable from the given one.
func NextStatuses(current GrievanceStatus) []GrievanceStatus {
	return append([]GrievanceStatus(nil), allowedTransitions[current]...)
}

// CanEscalate reports whether escalation is legal from the current state.
func CanEscalate(current GrievanceStatus) bool {
	return CanTransition(current, StatusEscalated)
}

// AcceptsFeedback reports whether the grievance state permits feedback.
func AcceptsFeedback(status GrievanceStatus) bool {
	return status == StatusResolved || status == StatusClosed
}

// TransitionError describes a rejected workflow move.
type TransitionError struct {
	From GrievanceStatus
	To   GrievanceStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal transition from %s to %s", e.From, e.To)
}
