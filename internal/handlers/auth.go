package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/peerhub-dev/peerhub/db"
	"github.com/peerhub-dev/peerhub/internal/auth"
	"github.com/peerhub-dev/peerhub/internal/intra"
	"github.com/peerhub-dev/peerhub/internal/models"
	"github.com/peerhub-dev/peerhub/internal/utils"
	"golang.org/x/oauth2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type UserResponse struct {
	ID               uint            `json:"id"`
	IntraID          int             `json:"intraId"`
	Login            string          `json:"login"`
	DisplayName      string          `json:"displayName"`
	Email            string          `json:"email"`
	Nickname         *string         `json:"nickname"`
	Avatar           string          `json:"avatar"`
	CustomAvatar     string          `json:"customAvatar,omitempty"`
	Campus           string          `json:"campus"`
	Level            float64         `json:"level"`
	Wallet           int             `json:"wallet"`
	CorrectionPoints int             `json:"correctionPoints"`
	Curriculum       string          `json:"curriculum"`
	Grade            string          `json:"grade"`
	CurrentCircle    int             `json:"currentCircle"`
	Coalition        json.RawMessage `json:"coalition,omitempty"`
	LastSyncedAt     time.Time       `json:"lastSyncedAt"`
}

func userResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:               user.ID,
		IntraID:          user.IntraID,
		Login:            user.Login,
		DisplayName:      user.DisplayName,
		Email:            user.Email,
		Nickname:         user.Nickname,
		Avatar:           user.AvatarURL(),
		CustomAvatar:     user.CustomAvatar,
		Campus:           user.Campus,
		Level:            user.Level,
		Wallet:           user.Wallet,
		CorrectionPoints: user.CorrectionPoints,
		Curriculum:       user.Curriculum,
		Grade:            user.Grade,
		CurrentCircle:    user.CurrentCircle,
		Coalition:        json.RawMessage(user.Coalition),
		LastSyncedAt:     user.LastSyncedAt,
	}
}

func loginErrorRedirect(ctx *gin.Context, code string) {
	ctx.Redirect(http.StatusFound, os.Getenv("FRONTEND_URL")+"/login?error="+code)
}

// RedirectTo42 starts the OAuth flow against the intra identity provider.
func RedirectTo42(ctx *gin.Context) {
	state, err := auth.NewState(ctx, db.RDB)

	if err != nil {
		log.Printf("Failed to issue OAuth state: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to initiate authentication"})
		return
	}

	ctx.Redirect(http.StatusFound, auth.OAuthConfig.AuthCodeURL(state))
}

// OAuthCallback finishes the OAuth flow: validates the state nonce, exchanges
// the code, mirrors the intra profile and hands a JWT to the front-end.
func OAuthCallback(ctx *gin.Context) {
	if ctx.Query("error") != "" {
		loginErrorRedirect(ctx, "access_denied")
		return
	}

	code := ctx.Query("code")

	if code == "" {
		loginErrorRedirect(ctx, "no_code")
		return
	}

	valid, err := auth.ConsumeState(ctx, db.RDB, ctx.Query("state"))

	if err != nil {
		log.Printf("Failed to verify OAuth state: %v", err)
		loginErrorRedirect(ctx, "auth_failed")
		return
	}

	if !valid {
		loginErrorRedirect(ctx, "invalid_state")
		return
	}

	token, err := auth.OAuthConfig.Exchange(ctx, code)

	if err != nil {
		log.Printf("Token exchange failed: %v", err)
		loginErrorRedirect(ctx, "auth_failed")
		return
	}

	client := intra.NewClient(ctx, auth.OAuthConfig, token)

	profile, err := client.Me(ctx)

	if err != nil {
		log.Printf("Failed to fetch intra profile: %v", err)
		loginErrorRedirect(ctx, "auth_failed")
		return
	}

	// Quest history is best effort; without it the circle stays at zero.
	quests, err := client.QuestsUsers(ctx, profile.ID)

	if err != nil {
		log.Printf("Failed to fetch quests for %s: %v", profile.Login, err)
		quests = nil
	}

	user, err := upsertUser(profile, quests, token)

	if err != nil {
		log.Printf("Failed to store user %s: %v", profile.Login, err)
		loginErrorRedirect(ctx, "auth_failed")
		return
	}

	jwt, err := auth.GenerateJWT(user.ID, user.Login, user.IntraID)

	if err != nil {
		log.Printf("Failed to sign JWT: %v", err)
		loginErrorRedirect(ctx, "auth_failed")
		return
	}

	ctx.Redirect(http.StatusFound, os.Getenv("FRONTEND_URL")+"/auth/success?token="+url.QueryEscape(jwt))
}

func upsertUser(profile *intra.Profile, quests []intra.QuestUser, token *oauth2.Token) (*models.User, error) {
	var user models.User

	err := db.DB.Where("intra_id = ?", profile.ID).First(&user).Error
	isNew := errors.Is(err, gorm.ErrRecordNotFound)

	if err != nil && !isNew {
		return nil, err
	}

	if err := applyProfile(&user, profile, quests); err != nil {
		return nil, err
	}

	expiry := token.Expiry
	user.AccessToken = token.AccessToken
	user.RefreshToken = token.RefreshToken
	user.TokenExpiresAt = &expiry
	user.LastLogin = time.Now()

	if isNew {
		err = db.DB.Create(&user).Error
	} else {
		err = db.DB.Save(&user).Error
	}

	if err != nil {
		return nil, err
	}

	return &user, nil
}

// applyProfile copies the intra snapshot onto the user row and recomputes the
// derived progress fields.
func applyProfile(user *models.User, profile *intra.Profile, quests []intra.QuestUser) error {
	avatar, err := json.Marshal(profile.Image.Versions)
	if err != nil {
		return err
	}

	cursusUsers, err := json.Marshal(profile.CursusUsers)
	if err != nil {
		return err
	}

	projectsUsers, err := json.Marshal(profile.ProjectsUsers)
	if err != nil {
		return err
	}

	questsUsers, err := json.Marshal(quests)
	if err != nil {
		return err
	}

	user.IntraID = profile.ID
	user.Login = profile.Login
	user.Email = profile.Email
	user.FirstName = profile.FirstName
	user.LastName = profile.LastName
	user.DisplayName = profile.DisplayName
	user.Avatar = datatypes.JSON(avatar)
	user.Wallet = profile.Wallet
	user.CorrectionPoints = profile.CorrectionPoint

	if len(profile.Campus) > 0 {
		user.Campus = profile.Campus[0].Name
	}

	user.Level = intra.Level(profile.CursusUsers)
	user.Grade = intra.Grade(profile.CursusUsers)
	user.Curriculum = intra.DetectCurriculum(profile.ProjectsUsers)
	user.CurrentCircle = intra.CurrentCircle(quests)

	user.CursusUsers = datatypes.JSON(cursusUsers)
	user.ProjectsUsers = datatypes.JSON(projectsUsers)
	user.QuestsUsers = datatypes.JSON(questsUsers)

	if len(profile.Achievements) > 0 {
		user.Achievements = datatypes.JSON(profile.Achievements)
	}

	var coalitions []json.RawMessage
	if json.Unmarshal(profile.Coalitions, &coalitions) == nil && len(coalitions) > 0 {
		user.Coalition = datatypes.JSON(coalitions[0])
	}

	user.LastSyncedAt = time.Now()
	return nil
}

func syncProfile(ctx context.Context, user *models.User) error {
	token := &oauth2.Token{
		AccessToken:  user.AccessToken,
		RefreshToken: user.RefreshToken,
	}
	if user.TokenExpiresAt != nil {
		token.Expiry = *user.TokenExpiresAt
	}

	client := intra.NewClient(ctx, auth.OAuthConfig, token)

	profile, err := client.Me(ctx)
	if err != nil {
		return err
	}

	quests, err := client.QuestsUsers(ctx, profile.ID)
	if err != nil {
		log.Printf("Failed to fetch quests for %s: %v", profile.Login, err)
		quests = nil
	}

	if err := applyProfile(user, profile, quests); err != nil {
		return err
	}

	return db.DB.Save(user).Error
}

const syncInterval = time.Hour

// Me returns the caller's mirrored profile, re-syncing it from intra when the
// snapshot has gone stale. A failed sync serves the cached copy.
func Me(ctx *gin.Context) {
	current, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var user models.User

	if err := db.DB.First(&user, current.ID).Error; err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if time.Since(user.LastSyncedAt) > syncInterval && user.AccessToken != "" {
		if err := syncProfile(ctx, &user); err != nil {
			log.Printf("Failed to sync profile for %s: %v", user.Login, err)
		}
	}

	ctx.JSON(http.StatusOK, gin.H{"user": userResponse(&user)})
}

// RefreshUserData forces a re-sync from intra regardless of snapshot age.
func RefreshUserData(ctx *gin.Context) {
	current, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var user models.User

	if err := db.DB.First(&user, current.ID).Error; err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if user.AccessToken == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No access token available"})
		return
	}

	if err := syncProfile(ctx, &user); err != nil {
		log.Printf("Failed to refresh profile for %s: %v", user.Login, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh user data"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Data refreshed successfully",
		"user":    userResponse(&user),
	})
}

// Logout exists for front-end symmetry; the JWT is stateless so the client
// just drops it.
func Logout(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// CursusProjects exposes the raw progress snapshots the dashboard renders.
func CursusProjects(ctx *gin.Context) {
	current, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var user models.User

	if err := db.DB.First(&user, current.ID).Error; err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	projectsUsers := json.RawMessage(user.ProjectsUsers)
	if len(projectsUsers) == 0 {
		projectsUsers = json.RawMessage("[]")
	}

	questsUsers := json.RawMessage(user.QuestsUsers)
	if len(questsUsers) == 0 {
		questsUsers = json.RawMessage("[]")
	}

	ctx.JSON(http.StatusOK, gin.H{
		"currentCircle": user.CurrentCircle,
		"curriculum":    user.Curriculum,
		"projectsUsers": projectsUsers,
		"questsUsers":   questsUsers,
	})
}

type UserSearchResult struct {
	ID          uint    `json:"id"`
	Login       string  `json:"login"`
	DisplayName string  `json:"displayName"`
	Nickname    *string `json:"nickname"`
	Avatar      string  `json:"avatar"`
	Campus      string  `json:"campus"`
	Level       float64 `json:"level"`
}

// SearchUsers finds students by login prefix, used by the invite picker.
func SearchUsers(ctx *gin.Context) {
	current, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	query := strings.TrimSpace(ctx.Query("q"))

	if len(query) < 2 {
		ctx.JSON(http.StatusOK, []UserSearchResult{})
		return
	}

	var users []models.User

	err = db.DB.
		Where("LOWER(login) LIKE ? AND id <> ?", "%"+strings.ToLower(query)+"%", current.ID).
		Order("login ASC").
		Limit(10).
		Find(&users).Error

	if err != nil {
		log.Printf("User search failed: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search users"})
		return
	}

	results := make([]UserSearchResult, 0, len(users))

	for i := range users {
		user := &users[i]
		results = append(results, UserSearchResult{
			ID:          user.ID,
			Login:       user.Login,
			DisplayName: user.DisplayName,
			Nickname:    user.Nickname,
			Avatar:      user.AvatarURL(),
			Campus:      user.Campus,
			Level:       user.Level,
		})
	}

	ctx.JSON(http.StatusOK, results)
}
