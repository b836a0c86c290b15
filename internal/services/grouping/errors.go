package grouping

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrIncompatibleGroupMembership is returned when a task cannot join or stay in a group
var ErrIncompatibleGroupMembership = errors.New("incompatible group membership")

// IncompatibleMembershipError carries the reason a membership change was rejected
type IncompatibleMembershipError struct {
	GroupID uuid.UUID
	TaskID  uuid.UUID
	Reason  string
}

func (e *IncompatibleMembershipError) Error() string {
	return fmt.Sprintf("task %s cannot join group %s: %s", e.TaskID, e.GroupID, e.Reason)
}

func (e *IncompatibleMembershipError) Unwrap() error {
	return ErrIncompatibleGroupMembership
}
