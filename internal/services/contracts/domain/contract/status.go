package contract

import "strings"

// Status is a node in the contract lifecycle.
type Status string

const (
	StatusCreated  Status = "CREATED"
	StatusApproved Status = "APPROVED"
	StatusSent     Status = "SENT"
	StatusSigned   Status = "SIGNED"
	StatusLocked   Status = "LOCKED"
	StatusRevoked  Status = "REVOKED"
)

// transitions is the lifecycle adjacency. Every non-terminal status has
// exactly one edge other than REVOKED; NextStatus depends on that.
var transitions = map[Status][]Status{
	StatusCreated:  {StatusApproved, StatusRevoked},
	StatusApproved: {StatusSent},
	StatusSent:     {StatusSigned, StatusRevoked},
	StatusSigned:   {StatusLocked},
	StatusLocked:   {},
	StatusRevoked:  {},
}

// Statuses lists every status in lifecycle order.
func Statuses() []Status {
	return []Status{StatusCreated, StatusApproved, StatusSent, StatusSigned, StatusLocked, StatusRevoked}
}

// ParseStatus canonicalizes a status name such as "sent" or " SENT ".
func ParseStatus(value string) (Status, bool) {
	status := Status(strings.ToUpper(strings.TrimSpace(value)))
	if !status.Valid() {
		return "", false
	}
	return status, true
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether s has no outgoing edges. Unknown statuses are
// treated as terminal.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Label is the display name of s.
func (s Status) Label() string {
	switch s {
	case StatusCreated:
		return "Created"
	case StatusApproved:
		return "Approved"
	case StatusSent:
		return "Sent"
	case StatusSigned:
		return "Signed"
	case StatusLocked:
		return "Locked"
	case StatusRevoked:
		return "Revoked"
	default:
		return string(s)
	}
}

// CanTransition reports whether target is directly reachable from current.
// Unknown statuses on either side yield false.
func CanTransition(current, target Status) bool {
	for _, next := range transitions[current] {
		if next == target {
			return true
		}
	}
	return false
}

// Targets returns the statuses directly reachable from current.
func Targets(current Status) []Status {
	return append([]Status(nil), transitions[current]...)
}

// NextStatus returns the forward (non-revocation) successor of current, or
// false for terminal and unknown statuses.
func NextStatus(current Status) (Status, bool) {
	for _, next := range transitions[current] {
		if next != StatusRevoked {
			return next, true
		}
	}
	return "", false
}
