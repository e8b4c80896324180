package loan

// Status is the lifecycle stage of a borrower (loan application).
type Status string

const (
	StatusDraft                 Status = "DRAFT"
	StatusSubmitted             Status = "SUBMITTED"
	StatusInReview              Status = "IN_REVIEW"
	StatusProcessing            Status = "PROCESSING"
	StatusUnderwriting          Status = "UNDERWRITING"
	StatusConditionallyApproved Status = "CONDITIONALLY_APPROVED"
	StatusApproved              Status = "APPROVED"
	StatusClosed                Status = "CLOSED"
	StatusDenied                Status = "DENIED"
	StatusWithdrawn             Status = "WITHDRAWN"
)

// transitions is the allowed-successor graph. DENIED and WITHDRAWN are
// reachable from every non-terminal state. APPROVED, CLOSED, DENIED and
// WITHDRAWN are terminal: once reached, every transition request is
// rejected. Closing therefore branches off CONDITIONALLY_APPROVED, the
// last non-terminal stage.
var transitions = map[Status][]Status{
	StatusDraft:                 {StatusSubmitted, StatusDenied, StatusWithdrawn},
	StatusSubmitted:             {StatusInReview, StatusDenied, StatusWithdrawn},
	StatusInReview:              {StatusProcessing, StatusDenied, StatusWithdrawn},
	StatusProcessing:            {StatusUnderwriting, StatusDenied, StatusWithdrawn},
	StatusUnderwriting:          {StatusConditionallyApproved, StatusDenied, StatusWithdrawn},
	StatusConditionallyApproved: {StatusApproved, StatusClosed, StatusDenied, StatusWithdrawn},
	StatusApproved:              {},
	StatusClosed:                {},
	StatusDenied:                {},
	StatusWithdrawn:             {},
}

// successors rebuilt as sets for O(1) checks.
var successors = func() map[Status]map[Status]bool {
	m := make(map[Status]map[Status]bool, len(transitions))
	for from, tos := range transitions {
		set := make(map[Status]bool, len(tos))
		for _, to := range tos {
			set[to] = true
		}
		m[from] = set
	}
	return m
}()

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether no further transition is permitted.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusApproved, StatusClosed, StatusDenied, StatusWithdrawn:
		return true
	}
	return false
}

// CanTransition reports whether to is a direct successor of from.
func CanTransition(from, to Status) bool {
	set, ok := successors[from]
	if !ok {
		return false
	}
	return set[to]
}

// Successors returns the allowed successor statuses of s.
func Successors(s Status) []Status {
	return transitions[s]
}
