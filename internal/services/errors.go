package services

import (
	"errors"
	"fmt"
)

// Failure modes of the team engines. Handlers map these onto HTTP status
// codes: not-found → 404, not-a-member → 403, conflicts → 409, the rest → 400.
var (
	ErrProjectNotFound  = errors.New("project not found")
	ErrTeamNotFound     = errors.New("team not found")
	ErrRequestNotFound  = errors.New("delete request not found")
	ErrUserNotFound     = errors.New("invited user not found")
	ErrNotTeamMember    = errors.New("not a team member")
	ErrAlreadyHasTeam   = errors.New("you already have a team for this project")
	ErrPendingInvite    = errors.New("you have a pending invite for this project, respond to it first")
	ErrDuplicateMember  = errors.New("duplicate member in invite list")
	ErrDeletePending    = errors.New("delete request already pending")
	ErrAlreadyResponded = errors.New("you already responded to this delete request")
	ErrDirectDelete     = errors.New("team deletion requires every member's approval, use the delete request flow")
)

// MemberConflictError reports which invited member already holds a team for
// the project, so the caller can fix the invite list.
type MemberConflictError struct {
	Login string
}

func (e *MemberConflictError) Error() string {
	return fmt.Sprintf("%s already has a team for this project", e.Login)
}

// TeamSizeError reports the allowed member range for the project.
type TeamSizeError struct {
	Min int
	Max int
}

func (e *TeamSizeError) Error() string {
	if e.Min == e.Max {
		return fmt.Sprintf("this project requires exactly %d members", e.Min)
	}
	return fmt.Sprintf("this project requires between %d and %d members", e.Min, e.Max)
}
