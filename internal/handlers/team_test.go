package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/peerhub-dev/peerhub/db"
	"github.com/peerhub-dev/peerhub/internal/middleware"
	"github.com/peerhub-dev/peerhub/internal/models"
	"github.com/peerhub-dev/peerhub/internal/services"
	"github.com/peerhub-dev/peerhub/internal/testutil"
	"github.com/peerhub-dev/peerhub/internal/types"
	"gorm.io/gorm"
)

// newAPIRouter wires the authenticated routes with a stub middleware that
// injects whatever *current points at, so tests can switch callers between
// requests.
func newAPIRouter(current *middleware.AuthenticatedUser) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	router.Use(func(ctx *gin.Context) {
		ctx.Set(types.ContextUserKey, *current)
		ctx.Next()
	})

	teams := router.Group("/api/teams")
	{
		teams.POST("", CreateTeam)
		teams.GET("/pending", GetPendingInvites)
		teams.GET("/my-teams", GetMyTeams)
		teams.GET("/delete-requests", GetDeleteRequests)
		teams.PATCH("/delete-requests/:request_id/respond", RespondToDeleteRequest)
		teams.PATCH("/:team_id/respond", RespondToInvite)
		teams.POST("/:team_id/request-delete", RequestDeleteTeam)
		teams.DELETE("/:team_id", DeleteTeam)
		teams.GET("/:team_id/kanban", GetTeamKanban)
	}

	friends := router.Group("/api/friends")
	{
		friends.GET("", GetFriends)
		friends.GET("/requests", GetFriendRequests)
		friends.POST("/request", SendFriendRequest)
		friends.PATCH("/requests/:friendship_id/respond", RespondToFriendRequest)
		friends.DELETE("/:friendship_id", RemoveFriend)
		friends.GET("/search-users", SearchAllUsers)
	}

	profile := router.Group("/api/profile")
	{
		profile.GET("", GetProfile)
		profile.PATCH("", UpdateProfile)
	}

	return router
}

func asUser(user *models.User) middleware.AuthenticatedUser {
	return middleware.AuthenticatedUser{ID: user.ID, IntraID: user.IntraID, Login: user.Login}
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func TestCreateTeamEndpoint(t *testing.T) {
	gdb := testutil.SetupTestDB(t)
	db.DB = gdb
	testutil.CreateProject(t, gdb, "minishell", 3, 2, 2)
	alice := testutil.CreateUser(t, gdb, "alice")
	bob := testutil.CreateUser(t, gdb, "bob")

	current := asUser(alice)
	router := newAPIRouter(&current)

	rec := doJSON(t, router, http.MethodPost, "/api/teams", gin.H{
		"name":        "shell squad",
		"projectSlug": "minishell",
		"memberIds":   []uint{bob.ID},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var team TeamResponse
	decodeBody(t, rec, &team)

	if team.Status != models.TeamStatusPending {
		t.Fatalf("expected pending team, got %s", team.Status)
	}
	if team.AcceptanceCount != 1 || team.TotalMembers != 2 {
		t.Fatalf("expected 1/2 acceptances, got %d/%d", team.AcceptanceCount, team.TotalMembers)
	}
	if team.Project.Slug != "minishell" {
		t.Fatalf("expected minishell, got %s", team.Project.Slug)
	}
}

func TestCreateTeamEndpointErrors(t *testing.T) {
	gdb := testutil.SetupTestDB(t)
	db.DB = gdb
	testutil.CreateProject(t, gdb, "minishell", 3, 2, 2)
	alice := testutil.CreateUser(t, gdb, "alice")
	bob := testutil.CreateUser(t, gdb, "bob")
	carol := testutil.CreateUser(t, gdb, "carol")

	current := asUser(alice)
	router := newAPIRouter(&current)

	rec := doJSON(t, router, http.MethodPost, "/api/teams", gin.H{
		"name": "ghost", "projectSlug": "nope", "memberIds": []uint{bob.ID},
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown project, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/teams", gin.H{
		"name": "empty", "projectSlug": "minishell", "memberIds": []uint{},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty invite list, got %d", rec.Code)
	}

	// Put bob on an approved team, then have carol try to invite him.
	team, err := services.CreateTeam(gdb, alice.ID, services.CreateTeamInput{
		Name: "pair", ProjectSlug: "minishell", MemberIDs: []uint{bob.ID},
	})
	if err != nil {
		t.Fatalf("CreateTeam failed: %v", err)
	}
	if _, err := services.RespondToInvite(gdb, team.ID, bob.ID, true); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	current = asUser(carol)
	rec = doJSON(t, router, http.MethodPost, "/api/teams", gin.H{
		"name": "rival", "projectSlug": "minishell", "memberIds": []uint{bob.ID},
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for committed invitee, got %d: %s", rec.Code, rec.Body.String())
	}

	var body map[string]interface{}
	decodeBody(t, rec, &body)
	if body["member"] != "bob" {
		t.Fatalf("expected the conflicting member login, got %v", body["member"])
	}
}

func TestInviteFlowEndpoints(t *testing.T) {
	gdb := testutil.SetupTestDB(t)
	db.DB = gdb
	testutil.CreateProject(t, gdb, "minishell", 3, 2, 2)
	alice := testutil.CreateUser(t, gdb, "alice")
	bob := testutil.CreateUser(t, gdb, "bob")

	current := asUser(alice)
	router := newAPIRouter(&current)

	rec := doJSON(t, router, http.MethodPost, "/api/teams", gin.H{
		"name": "pair", "projectSlug": "minishell", "memberIds": []uint{bob.ID},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("create failed: %d %s", rec.Code, rec.Body.String())
	}
	var created TeamResponse
	decodeBody(t, rec, &created)

	// The invitee sees the pending invite, annotated with the creator.
	current = asUser(bob)
	rec = doJSON(t, router, http.MethodGet, "/api/teams/pending", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("pending failed: %d", rec.Code)
	}
	var pending []TeamResponse
	decodeBody(t, rec, &pending)
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending invite, got %d", len(pending))
	}
	if pending[0].Creator == nil || pending[0].Creator.Login != "alice" {
		t.Fatalf("expected creator annotation, got %+v", pending[0].Creator)
	}

	// The creator has no pending invite; their seat is already approved.
	current = asUser(alice)
	rec = doJSON(t, router, http.MethodGet, "/api/teams/pending", nil)
	decodeBody(t, rec, &pending)
	if len(pending) != 0 {
		t.Fatalf("creator should have no pending invites, got %d", len(pending))
	}

	current = asUser(bob)
	rec = doJSON(t, router, http.MethodPatch, "/api/teams/"+itoa(created.ID)+"/respond", gin.H{"accept": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("respond failed: %d %s", rec.Code, rec.Body.String())
	}
	var result map[string]interface{}
	decodeBody(t, rec, &result)
	if result["isActive"] != true {
		t.Fatalf("expected isActive true, got %v", result)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/teams/my-teams", nil)
	var mine []TeamResponse
	decodeBody(t, rec, &mine)
	if len(mine) != 1 || mine[0].Status != models.TeamStatusApproved {
		t.Fatalf("expected one approved team, got %+v", mine)
	}
}

func TestDeleteConsensusEndpoints(t *testing.T) {
	gdb := testutil.SetupTestDB(t)
	db.DB = gdb
	testutil.CreateProject(t, gdb, "minishell", 3, 2, 2)
	alice := testutil.CreateUser(t, gdb, "alice")
	bob := testutil.CreateUser(t, gdb, "bob")

	team, err := services.CreateTeam(gdb, alice.ID, services.CreateTeamInput{
		Name: "pair", ProjectSlug: "minishell", MemberIDs: []uint{bob.ID},
	})
	if err != nil {
		t.Fatalf("CreateTeam failed: %v", err)
	}
	if _, err := services.RespondToInvite(gdb, team.ID, bob.ID, true); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	current := asUser(alice)
	router := newAPIRouter(&current)

	// Direct delete is off the table for an approved pair.
	rec := doJSON(t, router, http.MethodDelete, "/api/teams/"+itoa(team.ID), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for direct delete, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/teams/"+itoa(team.ID)+"/request-delete", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("request-delete failed: %d %s", rec.Code, rec.Body.String())
	}
	var opened struct {
		DeleteRequest DeleteRequestSummary `json:"deleteRequest"`
	}
	decodeBody(t, rec, &opened)
	if opened.DeleteRequest.ApprovalCount != 1 || opened.DeleteRequest.TotalMembers != 2 {
		t.Fatalf("expected 1/2 approvals, got %+v", opened.DeleteRequest)
	}

	// Bob sees the open round, alice does not (she opened it).
	current = asUser(bob)
	rec = doJSON(t, router, http.MethodGet, "/api/teams/delete-requests", nil)
	var rounds []DeleteRequestSummary
	decodeBody(t, rec, &rounds)
	if len(rounds) != 1 || rounds[0].RequestedBy.Login != "alice" {
		t.Fatalf("expected one round requested by alice, got %+v", rounds)
	}

	current = asUser(alice)
	rec = doJSON(t, router, http.MethodGet, "/api/teams/delete-requests", nil)
	decodeBody(t, rec, &rounds)
	if len(rounds) != 0 {
		t.Fatalf("requester should not see their own round, got %+v", rounds)
	}

	// The pending round also shows up on my-teams.
	rec = doJSON(t, router, http.MethodGet, "/api/teams/my-teams", nil)
	var mine []TeamResponse
	decodeBody(t, rec, &mine)
	if len(mine) != 1 || mine[0].DeleteRequest == nil {
		t.Fatalf("expected the delete request on my-teams, got %+v", mine)
	}

	// Bob rejects; the team survives.
	current = asUser(bob)
	rec = doJSON(t, router, http.MethodPatch,
		"/api/teams/delete-requests/"+itoa(opened.DeleteRequest.ID)+"/respond", gin.H{"accept": false})
	if rec.Code != http.StatusOK {
		t.Fatalf("respond failed: %d %s", rec.Code, rec.Body.String())
	}
	var verdict map[string]interface{}
	decodeBody(t, rec, &verdict)
	if verdict["rejected"] != true {
		t.Fatalf("expected rejected true, got %v", verdict)
	}

	var stored models.Team
	if err := gdb.First(&stored, team.ID).Error; err != nil {
		t.Fatalf("team should survive the rejection: %v", err)
	}

	// Bob approves a fresh round; quorum reached, team gone.
	rec = doJSON(t, router, http.MethodPost, "/api/teams/"+itoa(team.ID)+"/request-delete", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("second request-delete failed: %d %s", rec.Code, rec.Body.String())
	}
	decodeBody(t, rec, &opened)

	current = asUser(alice)
	rec = doJSON(t, router, http.MethodPatch,
		"/api/teams/delete-requests/"+itoa(opened.DeleteRequest.ID)+"/respond", gin.H{"accept": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("final respond failed: %d %s", rec.Code, rec.Body.String())
	}
	decodeBody(t, rec, &verdict)
	if verdict["deleted"] != true {
		t.Fatalf("expected deleted true, got %v", verdict)
	}

	if err := gdb.First(&stored, team.ID).Error; !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected team to be gone, got %v", err)
	}
}

func TestKanbanEndpoint(t *testing.T) {
	gdb := testutil.SetupTestDB(t)
	db.DB = gdb
	testutil.CreateProject(t, gdb, "minishell", 3, 2, 2)
	alice := testutil.CreateUser(t, gdb, "alice")
	bob := testutil.CreateUser(t, gdb, "bob")
	mallory := testutil.CreateUser(t, gdb, "mallory")

	team, err := services.CreateTeam(gdb, alice.ID, services.CreateTeamInput{
		Name: "pair", ProjectSlug: "minishell", MemberIDs: []uint{bob.ID},
	})
	if err != nil {
		t.Fatalf("CreateTeam failed: %v", err)
	}

	current := asUser(alice)
	router := newAPIRouter(&current)

	rec := doJSON(t, router, http.MethodGet, "/api/teams/"+itoa(team.ID)+"/kanban", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("kanban failed: %d %s", rec.Code, rec.Body.String())
	}
	var board struct {
		TeamID uint                       `json:"teamId"`
		Board  map[string]json.RawMessage `json:"board"`
	}
	decodeBody(t, rec, &board)
	if _, ok := board.Board["todo"]; !ok {
		t.Fatalf("expected a todo column, got %v", board.Board)
	}

	current = asUser(mallory)
	rec = doJSON(t, router, http.MethodGet, "/api/teams/"+itoa(team.ID)+"/kanban", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for outsider, got %d", rec.Code)
	}
}

func TestDirectDeleteEndpoint(t *testing.T) {
	gdb := testutil.SetupTestDB(t)
	db.DB = gdb
	testutil.CreateProject(t, gdb, "minishell", 3, 2, 2)
	alice := testutil.CreateUser(t, gdb, "alice")
	bob := testutil.CreateUser(t, gdb, "bob")

	team, err := services.CreateTeam(gdb, alice.ID, services.CreateTeamInput{
		Name: "pair", ProjectSlug: "minishell", MemberIDs: []uint{bob.ID},
	})
	if err != nil {
		t.Fatalf("CreateTeam failed: %v", err)
	}

	current := asUser(alice)
	router := newAPIRouter(&current)

	rec := doJSON(t, router, http.MethodDelete, "/api/teams/"+itoa(team.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodDelete, "/api/teams/"+itoa(team.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a deleted team, got %d", rec.Code)
	}
}
