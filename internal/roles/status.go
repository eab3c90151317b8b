package roles

import (
	"errors"
	"fmt"
)

// MembershipStatus is the lifecycle state of a membership record.
// Only active memberships confer access.
type MembershipStatus string

const (
	MembershipStatusPending   MembershipStatus = "pending"
	MembershipStatusActive    MembershipStatus = "active"
	MembershipStatusSuspended MembershipStatus = "suspended"
	MembershipStatusDeclined  MembershipStatus = "declined"
)

// ErrInvalidTransition reports a membership status transition that the
// lifecycle does not allow.
var ErrInvalidTransition = errors.New("invalid membership status transition")

// transitions holds the allowed status machine:
// pending -> active (accept), pending -> declined (decline),
// active -> suspended (suspend).
var transitions = map[MembershipStatus][]MembershipStatus{
	MembershipStatusPending:   {MembershipStatusActive, MembershipStatusDeclined},
	MembershipStatusActive:    {MembershipStatusSuspended},
	MembershipStatusSuspended: {},
	MembershipStatusDeclined:  {},
}

// IsValidMembershipStatus checks if a status is part of the lifecycle.
func IsValidMembershipStatus(status MembershipStatus) bool {
	_, ok := transitions[status]
	return ok
}

// Transition validates a status change, returning ErrInvalidTransition for
// moves the lifecycle does not allow.
func Transition(from, to MembershipStatus) error {
	allowed, ok := transitions[from]
	if !ok {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, from)
	}

	for _, next := range allowed {
		if next == to {
			return nil
		}
	}

	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
