package services

import (
	"errors"

	"github.com/peerhub-dev/peerhub/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CreateTeamInput struct {
	Name        string
	ProjectSlug string
	MemberIDs   []uint
}

type InviteResult struct {
	Deleted         bool
	AcceptanceCount int
	TotalMembers    int
	BecameActive    bool
}

type DeleteRequestResult struct {
	Deleted bool
	Request *models.DeleteRequest
}

type DeleteResponseResult struct {
	Deleted       bool
	Rejected      bool
	ApprovalCount int
	TotalMembers  int
}

// lockTeam loads the team row under FOR UPDATE so that concurrent quorum
// recomputations for the same team serialize. sqlite has no row locks; its
// single-writer model already serializes the transaction.
func lockTeam(tx *gorm.DB, teamID uint, team *models.Team) error {
	q := tx
	if tx.Dialector.Name() != "sqlite" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(team, teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTeamNotFound
		}
		return err
	}
	return nil
}

// holdsTeam reports whether the user has an approved seat on any team for
// the project. The creator's seat is approved from creation, so this also
// covers teams the user proposed.
func holdsTeam(tx *gorm.DB, userID uint, projectSlug string) (bool, error) {
	var count int64
	err := tx.Model(&models.TeamMember{}).
		Joins("JOIN teams ON teams.id = team_members.team_id").
		Where("team_members.user_id = ? AND team_members.status = ? AND teams.project_slug = ?",
			userID, models.MemberStatusApproved, projectSlug).
		Count(&count).Error
	return count > 0, err
}

func hasPendingInvite(tx *gorm.DB, userID uint, projectSlug string) (bool, error) {
	var count int64
	err := tx.Model(&models.TeamMember{}).
		Joins("JOIN teams ON teams.id = team_members.team_id").
		Where("team_members.user_id = ? AND team_members.status = ? AND teams.project_slug = ?",
			userID, models.MemberStatusPending, projectSlug).
		Count(&count).Error
	return count > 0, err
}

func memberOf(members []models.TeamMember, userID uint) bool {
	for _, m := range members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// deleteTeam removes the team and everything hanging off it. Children are
// deleted explicitly rather than relying on database-level cascades.
func deleteTeam(tx *gorm.DB, teamID uint) error {
	var request models.DeleteRequest
	err := tx.Where("team_id = ?", teamID).First(&request).Error
	switch {
	case err == nil:
		if err := tx.Where("delete_request_id = ?", request.ID).Delete(&models.DeleteApproval{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&request).Error; err != nil {
			return err
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	if err := tx.Where("team_id = ?", teamID).Delete(&models.TeamMember{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Team{}, teamID).Error
}

// CreateTeam validates and creates a pending team for a project: the creator
// gets an approved seat, every invited member a pending one. Validation order
// follows the invite flow: project, invite list shape, size bounds, the
// creator's own standing, then each invitee's standing.
func CreateTeam(gdb *gorm.DB, userID uint, in CreateTeamInput) (*models.Team, error) {
	var teamID uint

	err := gdb.Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.Where("slug = ?", in.ProjectSlug).First(&project).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProjectNotFound
			}
			return err
		}

		seen := map[uint]bool{userID: true}
		for _, id := range in.MemberIDs {
			if seen[id] {
				return ErrDuplicateMember
			}
			seen[id] = true
		}

		if size := 1 + len(in.MemberIDs); size < project.MinTeam || size > project.MaxTeam {
			return &TeamSizeError{Min: project.MinTeam, Max: project.MaxTeam}
		}

		holds, err := holdsTeam(tx, userID, project.Slug)
		if err != nil {
			return err
		}
		if holds {
			return ErrAlreadyHasTeam
		}

		pending, err := hasPendingInvite(tx, userID, project.Slug)
		if err != nil {
			return err
		}
		if pending {
			return ErrPendingInvite
		}

		var invitees []models.User
		if err := tx.Where("id IN ?", in.MemberIDs).Find(&invitees).Error; err != nil {
			return err
		}
		if len(invitees) != len(in.MemberIDs) {
			return ErrUserNotFound
		}

		for _, invitee := range invitees {
			holds, err := holdsTeam(tx, invitee.ID, project.Slug)
			if err != nil {
				return err
			}
			if holds {
				return &MemberConflictError{Login: invitee.Login}
			}
		}

		members := make([]models.TeamMember, 0, 1+len(invitees))
		members = append(members, models.TeamMember{UserID: userID, Status: models.MemberStatusApproved})
		for _, invitee := range invitees {
			members = append(members, models.TeamMember{UserID: invitee.ID, Status: models.MemberStatusPending})
		}

		team := models.Team{
			Name:        in.Name,
			ProjectSlug: project.Slug,
			ProjectName: project.Name,
			CreatorID:   userID,
			Status:      models.TeamStatusPending,
			Kanban:      models.DefaultKanban(),
			Members:     members,
		}
		if err := tx.Create(&team).Error; err != nil {
			return err
		}

		teamID = team.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	var team models.Team
	if err := gdb.Preload("Members.User").First(&team, teamID).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

// RespondToInvite records one member's answer to a team invitation. An accept
// promotes the team to approved the moment every seat is approved; a decline
// deletes the team outright.
//
// The roster is re-read after the member's row is written, inside the same
// transaction that holds the team row lock, so two members accepting at the
// same time cannot both observe a pre-mutation roster and miss the promotion.
func RespondToInvite(gdb *gorm.DB, teamID, userID uint, accept bool) (*InviteResult, error) {
	var res InviteResult

	err := gdb.Transaction(func(tx *gorm.DB) error {
		var team models.Team
		if err := lockTeam(tx, teamID, &team); err != nil {
			return err
		}

		var member models.TeamMember
		if err := tx.Where("team_id = ? AND user_id = ?", teamID, userID).First(&member).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotTeamMember
			}
			return err
		}

		if !accept {
			res.Deleted = true
			return deleteTeam(tx, team.ID)
		}

		if member.Status != models.MemberStatusApproved {
			if err := tx.Model(&member).Update("status", models.MemberStatusApproved).Error; err != nil {
				return err
			}
		}

		var members []models.TeamMember
		if err := tx.Where("team_id = ?", teamID).Find(&members).Error; err != nil {
			return err
		}

		res.TotalMembers = len(members)
		for _, m := range members {
			if m.Status == models.MemberStatusApproved {
				res.AcceptanceCount++
			}
		}

		if res.AcceptanceCount == res.TotalMembers && team.Status == models.TeamStatusPending {
			if err := tx.Model(&team).Update("status", models.TeamStatusApproved).Error; err != nil {
				return err
			}
			res.BecameActive = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// RequestDelete opens a deletion consensus for a team. A one-member team is
// deleted on the spot, no quorum possible or needed. The requester's approval
// is seeded into the ledger so only the remaining members still have to
// answer.
func RequestDelete(gdb *gorm.DB, teamID, userID uint) (*DeleteRequestResult, error) {
	var res DeleteRequestResult

	err := gdb.Transaction(func(tx *gorm.DB) error {
		var team models.Team
		if err := lockTeam(tx, teamID, &team); err != nil {
			return err
		}

		var members []models.TeamMember
		if err := tx.Where("team_id = ?", teamID).Find(&members).Error; err != nil {
			return err
		}
		if !memberOf(members, userID) {
			return ErrNotTeamMember
		}

		if len(members) == 1 {
			res.Deleted = true
			return deleteTeam(tx, team.ID)
		}

		var existing models.DeleteRequest
		err := tx.Where("team_id = ?", teamID).First(&existing).Error
		switch {
		case err == nil:
			if existing.Status == models.DeleteRequestStatusPending {
				return ErrDeletePending
			}
			// A rejected request is terminal; clear it so a fresh one can open.
			if err := tx.Where("delete_request_id = ?", existing.ID).Delete(&models.DeleteApproval{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		request := models.DeleteRequest{
			TeamID:      teamID,
			RequesterID: userID,
			Status:      models.DeleteRequestStatusPending,
			Approvals:   []models.DeleteApproval{{UserID: userID, Approved: true}},
		}
		if err := tx.Create(&request).Error; err != nil {
			return err
		}
		res.Request = &request
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// RespondToDeleteRequest records one member's answer to a pending deletion
// consensus. Each member answers at most once. Full approval quorum deletes
// the team together with the request; a single rejection marks the request
// rejected and leaves the team untouched.
func RespondToDeleteRequest(gdb *gorm.DB, requestID, userID uint, accept bool) (*DeleteResponseResult, error) {
	var res DeleteResponseResult

	err := gdb.Transaction(func(tx *gorm.DB) error {
		var request models.DeleteRequest
		if err := tx.First(&request, requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRequestNotFound
			}
			return err
		}
		if request.Status != models.DeleteRequestStatusPending {
			return ErrRequestNotFound
		}

		var team models.Team
		if err := lockTeam(tx, request.TeamID, &team); err != nil {
			return err
		}

		var members []models.TeamMember
		if err := tx.Where("team_id = ?", team.ID).Find(&members).Error; err != nil {
			return err
		}
		if !memberOf(members, userID) {
			return ErrNotTeamMember
		}

		var prior models.DeleteApproval
		err := tx.Where("delete_request_id = ? AND user_id = ?", request.ID, userID).First(&prior).Error
		switch {
		case err == nil:
			return ErrAlreadyResponded
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		response := models.DeleteApproval{DeleteRequestID: request.ID, UserID: userID, Approved: accept}
		if err := tx.Create(&response).Error; err != nil {
			return err
		}

		if !accept {
			res.Rejected = true
			return tx.Model(&request).Update("status", models.DeleteRequestStatusRejected).Error
		}

		var approvals int64
		if err := tx.Model(&models.DeleteApproval{}).
			Where("delete_request_id = ? AND approved = ?", request.ID, true).
			Count(&approvals).Error; err != nil {
			return err
		}

		res.ApprovalCount = int(approvals)
		res.TotalMembers = len(members)
		if res.ApprovalCount >= res.TotalMembers {
			res.Deleted = true
			return deleteTeam(tx, team.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// DirectDelete removes a team without consensus. Only a lone member, or the
// creator of a team that is still pending, may do this; anything else has to
// go through the delete request flow.
func DirectDelete(gdb *gorm.DB, teamID, userID uint) error {
	return gdb.Transaction(func(tx *gorm.DB) error {
		var team models.Team
		if err := lockTeam(tx, teamID, &team); err != nil {
			return err
		}

		var members []models.TeamMember
		if err := tx.Where("team_id = ?", teamID).Find(&members).Error; err != nil {
			return err
		}
		if !memberOf(members, userID) {
			return ErrNotTeamMember
		}

		if len(members) == 1 || (team.Status == models.TeamStatusPending && team.CreatorID == userID) {
			return deleteTeam(tx, team.ID)
		}
		return ErrDirectDelete
	})
}
