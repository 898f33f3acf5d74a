package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/peerhub-dev/peerhub/db"
	"github.com/peerhub-dev/peerhub/internal/models"
	"github.com/peerhub-dev/peerhub/internal/services"
	"github.com/peerhub-dev/peerhub/internal/utils"
)

type CreateTeamRequest struct {
	Name        string `json:"name" binding:"required"`
	ProjectSlug string `json:"projectSlug" binding:"required"`
	MemberIDs   []uint `json:"memberIds" binding:"required,min=1"`
}

// RespondRequest carries an accept/decline answer. Accept is a pointer so
// that an explicit false still passes the required binding.
type RespondRequest struct {
	Accept *bool `json:"accept" binding:"required"`
}

type ProjectInfo struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type TeamMemberResponse struct {
	UserID uint                `json:"userId"`
	Login  string              `json:"login"`
	Avatar string              `json:"avatar"`
	Status models.MemberStatus `json:"status"`
}

type CreatorSummary struct {
	Login  string `json:"login"`
	Avatar string `json:"avatar"`
}

type RequestedBy struct {
	ID    uint   `json:"id"`
	Login string `json:"login"`
}

type DeleteRequestSummary struct {
	ID            uint        `json:"id"`
	TeamID        uint        `json:"teamId"`
	TeamName      string      `json:"teamName"`
	Project       ProjectInfo `json:"project"`
	RequestedBy   RequestedBy `json:"requestedBy"`
	ApprovalCount int         `json:"approvalCount"`
	TotalMembers  int         `json:"totalMembers"`
}

type TeamResponse struct {
	ID              uint                  `json:"id"`
	Name            string                `json:"name"`
	Project         ProjectInfo           `json:"project"`
	CreatorID       uint                  `json:"creatorId"`
	Status          models.TeamStatus     `json:"status"`
	Members         []TeamMemberResponse  `json:"members"`
	AcceptanceCount int                   `json:"acceptanceCount"`
	TotalMembers    int                   `json:"totalMembers"`
	CreatedAt       time.Time             `json:"createdAt"`
	Creator         *CreatorSummary       `json:"creator,omitempty"`
	DeleteRequest   *DeleteRequestSummary `json:"deleteRequest,omitempty"`
}

// teamResponse expects Members.User to be preloaded.
func teamResponse(team *models.Team) TeamResponse {
	resp := TeamResponse{
		ID:           team.ID,
		Name:         team.Name,
		Project:      ProjectInfo{Slug: team.ProjectSlug, Name: team.ProjectName},
		CreatorID:    team.CreatorID,
		Status:       team.Status,
		Members:      make([]TeamMemberResponse, 0, len(team.Members)),
		TotalMembers: len(team.Members),
		CreatedAt:    team.CreatedAt,
	}

	for i := range team.Members {
		member := &team.Members[i]
		if member.Status == models.MemberStatusApproved {
			resp.AcceptanceCount++
		}
		resp.Members = append(resp.Members, TeamMemberResponse{
			UserID: member.UserID,
			Login:  member.User.Login,
			Avatar: member.User.AvatarURL(),
			Status: member.Status,
		})
	}
	return resp
}

func teamErrorResponse(ctx *gin.Context, err error, fallback string) {
	var memberConflict *services.MemberConflictError
	var sizeErr *services.TeamSizeError

	switch {
	case errors.Is(err, services.ErrProjectNotFound),
		errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrRequestNotFound),
		errors.Is(err, services.ErrUserNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotTeamMember):
		ctx.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrAlreadyHasTeam),
		errors.Is(err, services.ErrPendingInvite),
		errors.Is(err, services.ErrDeletePending),
		errors.Is(err, services.ErrAlreadyResponded):
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &memberConflict):
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error(), "member": memberConflict.Login})
	case errors.As(err, &sizeErr),
		errors.Is(err, services.ErrDuplicateMember),
		errors.Is(err, services.ErrDirectDelete):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("%s: %v", fallback, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func CreateTeam(ctx *gin.Context) {
	var body CreateTeamRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	team, err := services.CreateTeam(db.DB, user.ID, services.CreateTeamInput{
		Name:        body.Name,
		ProjectSlug: body.ProjectSlug,
		MemberIDs:   body.MemberIDs,
	})

	if err != nil {
		teamErrorResponse(ctx, err, "Failed to create team")
		return
	}

	ctx.JSON(http.StatusOK, teamResponse(team))
}

// GetPendingInvites lists teams where the caller is invited but has not yet
// answered. Self-created teams never show here since the creator's seat is
// approved from the start.
func GetPendingInvites(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var teams []models.Team

	err = db.DB.
		Joins("JOIN team_members ON team_members.team_id = teams.id").
		Where("team_members.user_id = ? AND team_members.status = ?", user.ID, models.MemberStatusPending).
		Preload("Members.User").
		Preload("Creator").
		Order("teams.created_at DESC").
		Find(&teams).Error

	if err != nil {
		log.Printf("Failed to fetch pending invites: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch pending invites"})
		return
	}

	response := make([]TeamResponse, 0, len(teams))

	for i := range teams {
		resp := teamResponse(&teams[i])
		resp.Creator = &CreatorSummary{
			Login:  teams[i].Creator.Login,
			Avatar: teams[i].Creator.AvatarURL(),
		}
		response = append(response, resp)
	}

	ctx.JSON(http.StatusOK, response)
}

func RespondToInvite(ctx *gin.Context) {
	teamID, err := utils.GetTeamID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var body RespondRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	result, err := services.RespondToInvite(db.DB, teamID, user.ID, *body.Accept)

	if err != nil {
		teamErrorResponse(ctx, err, "Failed to respond to invite")
		return
	}

	if result.Deleted {
		ctx.JSON(http.StatusOK, gin.H{"deleted": true})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":         true,
		"acceptanceCount": result.AcceptanceCount,
		"totalMembers":    result.TotalMembers,
		"isActive":        result.BecameActive,
	})
}

// GetMyTeams lists teams the caller has an approved seat on, annotated with
// acceptance progress and any pending delete request.
func GetMyTeams(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var teams []models.Team

	err = db.DB.
		Joins("JOIN team_members ON team_members.team_id = teams.id").
		Where("team_members.user_id = ? AND team_members.status = ?", user.ID, models.MemberStatusApproved).
		Preload("Members.User").
		Preload("DeleteRequest.Requester").
		Preload("DeleteRequest.Approvals").
		Order("teams.created_at DESC").
		Find(&teams).Error

	if err != nil {
		log.Printf("Failed to fetch teams: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch teams"})
		return
	}

	response := make([]TeamResponse, 0, len(teams))

	for i := range teams {
		team := &teams[i]
		resp := teamResponse(team)

		if team.DeleteRequest != nil && team.DeleteRequest.Status == models.DeleteRequestStatusPending {
			resp.DeleteRequest = deleteRequestSummary(team.DeleteRequest, team, len(team.Members))
		}
		response = append(response, resp)
	}

	ctx.JSON(http.StatusOK, response)
}

// deleteRequestSummary expects Requester and Approvals to be preloaded.
func deleteRequestSummary(request *models.DeleteRequest, team *models.Team, totalMembers int) *DeleteRequestSummary {
	approvals := 0
	for _, a := range request.Approvals {
		if a.Approved {
			approvals++
		}
	}

	return &DeleteRequestSummary{
		ID:       request.ID,
		TeamID:   team.ID,
		TeamName: team.Name,
		Project:  ProjectInfo{Slug: team.ProjectSlug, Name: team.ProjectName},
		RequestedBy: RequestedBy{
			ID:    request.RequesterID,
			Login: request.Requester.Login,
		},
		ApprovalCount: approvals,
		TotalMembers:  totalMembers,
	}
}

func DeleteTeam(ctx *gin.Context) {
	teamID, err := utils.GetTeamID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if err := services.DirectDelete(db.DB, teamID, user.ID); err != nil {
		teamErrorResponse(ctx, err, "Failed to delete team")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"deleted": true})
}

func RequestDeleteTeam(ctx *gin.Context) {
	teamID, err := utils.GetTeamID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	result, err := services.RequestDelete(db.DB, teamID, user.ID)

	if err != nil {
		teamErrorResponse(ctx, err, "Failed to request deletion")
		return
	}

	if result.Deleted {
		ctx.JSON(http.StatusOK, gin.H{"deleted": true})
		return
	}

	var team models.Team

	if err := db.DB.Preload("Members").First(&team, teamID).Error; err != nil {
		log.Printf("Failed to load team after delete request: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to request deletion"})
		return
	}

	request := result.Request
	request.Requester.Login = user.Login

	ctx.JSON(http.StatusOK, gin.H{
		"message":       "Delete request created",
		"deleteRequest": deleteRequestSummary(request, &team, len(team.Members)),
	})
}

// GetDeleteRequests lists pending delete consensus rounds the caller still
// has to answer, excluding the ones the caller opened.
func GetDeleteRequests(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var requests []models.DeleteRequest

	err = db.DB.
		Joins("JOIN team_members ON team_members.team_id = delete_requests.team_id").
		Where("delete_requests.status = ? AND team_members.user_id = ? AND delete_requests.requester_id <> ?",
			models.DeleteRequestStatusPending, user.ID, user.ID).
		Preload("Requester").
		Preload("Approvals").
		Order("delete_requests.created_at DESC").
		Find(&requests).Error

	if err != nil {
		log.Printf("Failed to fetch delete requests: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch delete requests"})
		return
	}

	response := make([]DeleteRequestSummary, 0, len(requests))

	for i := range requests {
		request := &requests[i]

		var team models.Team
		if err := db.DB.Preload("Members").First(&team, request.TeamID).Error; err != nil {
			log.Printf("Failed to load team %d for delete request: %v", request.TeamID, err)
			continue
		}

		response = append(response, *deleteRequestSummary(request, &team, len(team.Members)))
	}

	ctx.JSON(http.StatusOK, response)
}

func RespondToDeleteRequest(ctx *gin.Context) {
	requestID, err := utils.GetRequestID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var body RespondRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	result, err := services.RespondToDeleteRequest(db.DB, requestID, user.ID, *body.Accept)

	if err != nil {
		teamErrorResponse(ctx, err, "Failed to respond to delete request")
		return
	}

	switch {
	case result.Deleted:
		ctx.JSON(http.StatusOK, gin.H{"deleted": true})
	case result.Rejected:
		ctx.JSON(http.StatusOK, gin.H{"rejected": true})
	default:
		ctx.JSON(http.StatusOK, gin.H{
			"success":       true,
			"approvalCount": result.ApprovalCount,
			"totalMembers":  result.TotalMembers,
		})
	}
}

// GetTeamKanban returns the team's board columns. Tasks are managed by the
// front-end; the server only stores the document.
func GetTeamKanban(ctx *gin.Context) {
	teamID, err := utils.GetTeamID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var team models.Team

	if err := db.DB.First(&team, teamID).Error; err != nil {
		teamErrorResponse(ctx, services.ErrTeamNotFound, "Failed to fetch board")
		return
	}

	var membership models.TeamMember

	if err := db.DB.Where("team_id = ? AND user_id = ?", teamID, user.ID).First(&membership).Error; err != nil {
		ctx.JSON(http.StatusForbidden, gin.H{"error": services.ErrNotTeamMember.Error()})
		return
	}

	board := team.Kanban
	if len(board) == 0 {
		board = models.DefaultKanban()
	}

	ctx.JSON(http.StatusOK, gin.H{
		"teamId": team.ID,
		"board":  json.RawMessage(board),
	})
}
