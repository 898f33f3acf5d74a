package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/peerhub-dev/peerhub/db"
	"github.com/peerhub-dev/peerhub/internal/models"
	"github.com/peerhub-dev/peerhub/internal/utils"
	"gorm.io/gorm"
)

type FriendSummary struct {
	FriendshipID uint    `json:"friendshipId"`
	ID           uint    `json:"id"`
	IntraID      int     `json:"intraId"`
	Login        string  `json:"login"`
	DisplayName  string  `json:"displayName"`
	Nickname     *string `json:"nickname"`
	Avatar       string  `json:"avatar"`
	Campus       string  `json:"campus"`
	Level        float64 `json:"level"`
	Grade        string  `json:"grade"`
}

func friendSummary(friendshipID uint, user *models.User) FriendSummary {
	return FriendSummary{
		FriendshipID: friendshipID,
		ID:           user.ID,
		IntraID:      user.IntraID,
		Login:        user.Login,
		DisplayName:  user.DisplayName,
		Nickname:     user.Nickname,
		Avatar:       user.AvatarURL(),
		Campus:       user.Campus,
		Level:        user.Level,
		Grade:        user.Grade,
	}
}

// otherSide returns the counterpart of userID on a friendship. Requester and
// Addressee must be preloaded.
func otherSide(friendship *models.Friendship, userID uint) *models.User {
	if friendship.RequesterID == userID {
		return &friendship.Addressee
	}
	return &friendship.Requester
}

func GetFriends(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var friendships []models.Friendship

	err = db.DB.
		Where("status = ? AND (requester_id = ? OR addressee_id = ?)",
			models.FriendshipStatusAccepted, user.ID, user.ID).
		Preload("Requester").
		Preload("Addressee").
		Order("updated_at DESC").
		Find(&friendships).Error

	if err != nil {
		log.Printf("Failed to fetch friends: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch friends"})
		return
	}

	friends := make([]FriendSummary, 0, len(friendships))

	for i := range friendships {
		friends = append(friends, friendSummary(friendships[i].ID, otherSide(&friendships[i], user.ID)))
	}

	ctx.JSON(http.StatusOK, friends)
}

// GetFriendRequests returns the caller's open requests, split by direction.
func GetFriendRequests(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var incoming []models.Friendship

	err = db.DB.
		Where("status = ? AND addressee_id = ?", models.FriendshipStatusPending, user.ID).
		Preload("Requester").
		Order("created_at DESC").
		Find(&incoming).Error

	if err != nil {
		log.Printf("Failed to fetch friend requests: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch friend requests"})
		return
	}

	var outgoing []models.Friendship

	err = db.DB.
		Where("status = ? AND requester_id = ?", models.FriendshipStatusPending, user.ID).
		Preload("Addressee").
		Order("created_at DESC").
		Find(&outgoing).Error

	if err != nil {
		log.Printf("Failed to fetch friend requests: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch friend requests"})
		return
	}

	incomingSummaries := make([]FriendSummary, 0, len(incoming))
	for i := range incoming {
		incomingSummaries = append(incomingSummaries, friendSummary(incoming[i].ID, &incoming[i].Requester))
	}

	outgoingSummaries := make([]FriendSummary, 0, len(outgoing))
	for i := range outgoing {
		outgoingSummaries = append(outgoingSummaries, friendSummary(outgoing[i].ID, &outgoing[i].Addressee))
	}

	ctx.JSON(http.StatusOK, gin.H{
		"incoming": incomingSummaries,
		"outgoing": outgoingSummaries,
	})
}

type SendFriendRequestBody struct {
	UserID uint `json:"userId" binding:"required"`
}

// SendFriendRequest opens a pending friendship. A pending request in the
// opposite direction is accepted instead of duplicated.
func SendFriendRequest(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body SendFriendRequestBody

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if body.UserID == user.ID {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "You can't add yourself"})
		return
	}

	var target models.User

	if err := db.DB.First(&target, body.UserID).Error; err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var existing models.Friendship

	err = db.DB.
		Where("(requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)",
			user.ID, target.ID, target.ID, user.ID).
		First(&existing).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		friendship := models.Friendship{
			RequesterID: user.ID,
			AddresseeID: target.ID,
			Status:      models.FriendshipStatusPending,
		}

		if err := db.DB.Create(&friendship).Error; err != nil {
			log.Printf("Failed to create friend request: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send friend request"})
			return
		}

		ctx.JSON(http.StatusOK, gin.H{"message": "Friend request sent", "friendshipId": friendship.ID})
	case err != nil:
		log.Printf("Friendship lookup failed: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send friend request"})
	case existing.Status == models.FriendshipStatusAccepted:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Already friends"})
	case existing.RequesterID == user.ID:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Request already sent"})
	default:
		// They already asked us, accept instead.
		update := db.DB.Model(&existing).Update("status", models.FriendshipStatusAccepted)

		if update.Error != nil {
			log.Printf("Failed to accept friend request: %v", update.Error)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send friend request"})
			return
		}

		ctx.JSON(http.StatusOK, gin.H{
			"message":      "Friend request accepted",
			"autoAccepted": true,
			"friendshipId": existing.ID,
		})
	}
}

// RespondToFriendRequest lets the addressee accept or decline. Declining
// removes the row so the requester can try again later.
func RespondToFriendRequest(ctx *gin.Context) {
	friendshipID, err := utils.GetFriendshipID(ctx)

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

	var friendship models.Friendship

	if err := db.DB.First(&friendship, friendshipID).Error; err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Friend request not found"})
		return
	}

	if friendship.AddresseeID != user.ID {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to respond to this request"})
		return
	}

	if friendship.Status != models.FriendshipStatusPending {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Request is no longer pending"})
		return
	}

	if *body.Accept {
		if err := db.DB.Model(&friendship).Update("status", models.FriendshipStatusAccepted).Error; err != nil {
			log.Printf("Failed to accept friend request: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to respond to friend request"})
			return
		}

		ctx.JSON(http.StatusOK, gin.H{"message": "Friend request accepted"})
		return
	}

	if err := db.DB.Delete(&friendship).Error; err != nil {
		log.Printf("Failed to decline friend request: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to respond to friend request"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"deleted": true})
}

func RemoveFriend(ctx *gin.Context) {
	friendshipID, err := utils.GetFriendshipID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var friendship models.Friendship

	if err := db.DB.First(&friendship, friendshipID).Error; err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Friendship not found"})
		return
	}

	if friendship.RequesterID != user.ID && friendship.AddresseeID != user.ID {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to remove this friendship"})
		return
	}

	if err := db.DB.Delete(&friendship).Error; err != nil {
		log.Printf("Failed to remove friend: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove friend"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"deleted": true})
}

// SearchFriends filters the caller's accepted friends by login, nickname or
// display name.
func SearchFriends(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	query := strings.ToLower(strings.TrimSpace(ctx.Query("q")))

	var friendships []models.Friendship

	err = db.DB.
		Where("status = ? AND (requester_id = ? OR addressee_id = ?)",
			models.FriendshipStatusAccepted, user.ID, user.ID).
		Preload("Requester").
		Preload("Addressee").
		Find(&friendships).Error

	if err != nil {
		log.Printf("Failed to search friends: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search friends"})
		return
	}

	results := make([]FriendSummary, 0, len(friendships))

	for i := range friendships {
		friend := otherSide(&friendships[i], user.ID)

		if query != "" && !matchesFriend(friend, query) {
			continue
		}
		results = append(results, friendSummary(friendships[i].ID, friend))
	}

	ctx.JSON(http.StatusOK, results)
}

func matchesFriend(user *models.User, query string) bool {
	if strings.Contains(strings.ToLower(user.Login), query) {
		return true
	}
	if strings.Contains(strings.ToLower(user.DisplayName), query) {
		return true
	}
	if user.Nickname != nil && strings.Contains(strings.ToLower(*user.Nickname), query) {
		return true
	}
	return false
}

type AnnotatedUserResult struct {
	UserSearchResult
	FriendStatus string `json:"friendStatus"`
	FriendshipID *uint  `json:"friendshipId,omitempty"`
}

// SearchAllUsers searches every student and annotates each hit with the
// friendship state relative to the caller.
func SearchAllUsers(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	query := strings.TrimSpace(ctx.Query("q"))

	if len(query) < 2 {
		ctx.JSON(http.StatusOK, []AnnotatedUserResult{})
		return
	}

	pattern := "%" + strings.ToLower(query) + "%"

	var users []models.User

	err = db.DB.
		Where("(LOWER(login) LIKE ? OR LOWER(display_name) LIKE ?) AND id <> ?", pattern, pattern, user.ID).
		Order("login ASC").
		Limit(10).
		Find(&users).Error

	if err != nil {
		log.Printf("User search failed: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search users"})
		return
	}

	var friendships []models.Friendship

	err = db.DB.
		Where("requester_id = ? OR addressee_id = ?", user.ID, user.ID).
		Find(&friendships).Error

	if err != nil {
		log.Printf("Friendship lookup failed: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search users"})
		return
	}

	results := make([]AnnotatedUserResult, 0, len(users))

	for i := range users {
		hit := &users[i]

		result := AnnotatedUserResult{
			UserSearchResult: UserSearchResult{
				ID:          hit.ID,
				Login:       hit.Login,
				DisplayName: hit.DisplayName,
				Nickname:    hit.Nickname,
				Avatar:      hit.AvatarURL(),
				Campus:      hit.Campus,
				Level:       hit.Level,
			},
			FriendStatus: "none",
		}

		for j := range friendships {
			friendship := &friendships[j]

			if friendship.RequesterID != hit.ID && friendship.AddresseeID != hit.ID {
				continue
			}

			id := friendship.ID
			result.FriendshipID = &id

			switch {
			case friendship.Status == models.FriendshipStatusAccepted:
				result.FriendStatus = "friends"
			case friendship.RequesterID == user.ID:
				result.FriendStatus = "sent"
			default:
				result.FriendStatus = "received"
			}
			break
		}

		results = append(results, result)
	}

	ctx.JSON(http.StatusOK, results)
}
