package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/peerhub-dev/peerhub/db"
	"github.com/peerhub-dev/peerhub/internal/models"
	"github.com/peerhub-dev/peerhub/internal/testutil"
)

func TestUpdateProfileNickname(t *testing.T) {
	gdb := testutil.SetupTestDB(t)
	db.DB = gdb
	alice := testutil.CreateUser(t, gdb, "alice")

	current := asUser(alice)
	router := newAPIRouter(&current)

	rec := doJSON(t, router, http.MethodPatch, "/api/profile", gin.H{"nickname": "ace_42"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update failed: %d %s", rec.Code, rec.Body.String())
	}

	var stored models.User
	if err := gdb.First(&stored, alice.ID).Error; err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if stored.Nickname == nil || *stored.Nickname != "ace_42" {
		t.Fatalf("expected nickname ace_42, got %v", stored.Nickname)
	}

	// Clearing with an empty string.
	rec = doJSON(t, router, http.MethodPatch, "/api/profile", gin.H{"nickname": ""})
	if rec.Code != http.StatusOK {
		t.Fatalf("clear failed: %d %s", rec.Code, rec.Body.String())
	}
	if err := gdb.First(&stored, alice.ID).Error; err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if stored.Nickname != nil {
		t.Fatalf("expected nickname cleared, got %v", *stored.Nickname)
	}
}

func TestUpdateProfileNicknameValidation(t *testing.T) {
	gdb := testutil.SetupTestDB(t)
	db.DB = gdb
	alice := testutil.CreateUser(t, gdb, "alice")
	bob := testutil.CreateUser(t, gdb, "bob")

	taken := "Taken"
	if err := gdb.Model(bob).Update("nickname", &taken).Error; err != nil {
		t.Fatalf("failed to set bob's nickname: %v", err)
	}

	current := asUser(alice)
	router := newAPIRouter(&current)

	cases := []struct {
		name     string
		nickname string
	}{
		{"too short", "a"},
		{"too long", strings.Repeat("a", 21)},
		{"bad characters", "no spaces!"},
		{"taken, case-insensitive", "taken"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPatch, "/api/profile", gin.H{"nickname": tc.nickname})
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 for %q, got %d", tc.nickname, rec.Code)
			}
		})
	}
}

func TestUpdateProfileAvatar(t *testing.T) {
	gdb := testutil.SetupTestDB(t)
	db.DB = gdb
	alice := testutil.CreateUser(t, gdb, "alice")

	current := asUser(alice)
	router := newAPIRouter(&current)

	rec := doJSON(t, router, http.MethodPatch, "/api/profile", gin.H{
		"customAvatar": "data:image/png;base64,iVBORw0KGgo=",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("avatar update failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPatch, "/api/profile", gin.H{
		"customAvatar": "data:text/html;base64,PGI+",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a non-image data URI, got %d", rec.Code)
	}

	huge := "data:image/png;base64," + strings.Repeat("A", 3*1024*1024)
	rec = doJSON(t, router, http.MethodPatch, "/api/profile", gin.H{"customAvatar": huge})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an oversized image, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPatch, "/api/profile", gin.H{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 when nothing is updated, got %d", rec.Code)
	}
}

func TestGetProfile(t *testing.T) {
	gdb := testutil.SetupTestDB(t)
	db.DB = gdb
	alice := testutil.CreateUser(t, gdb, "alice")

	current := asUser(alice)
	router := newAPIRouter(&current)

	rec := doJSON(t, router, http.MethodGet, "/api/profile", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get profile failed: %d %s", rec.Code, rec.Body.String())
	}

	var body struct {
		User UserResponse `json:"user"`
	}
	decodeBody(t, rec, &body)
	if body.User.Login != "alice" {
		t.Fatalf("expected alice, got %+v", body.User)
	}
}
