package handlers

import (
	"errors"
	"log"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/peerhub-dev/peerhub/db"
	"github.com/peerhub-dev/peerhub/internal/models"
	"github.com/peerhub-dev/peerhub/internal/utils"
	"gorm.io/gorm"
)

var (
	nicknameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	avatarRe   = regexp.MustCompile(`^data:image/(jpeg|jpg|png|gif|webp);base64,`)
)

const maxAvatarBytes = 2 * 1024 * 1024

type UpdateProfileRequest struct {
	Nickname     *string `json:"nickname"`
	CustomAvatar *string `json:"customAvatar"`
}

func GetProfile(ctx *gin.Context) {
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

	ctx.JSON(http.StatusOK, gin.H{"user": userResponse(&user)})
}

// UpdateProfile changes the caller's nickname or custom avatar. Passing an
// empty string clears the field.
func UpdateProfile(ctx *gin.Context) {
	current, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body UpdateProfileRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var user models.User

	if err := db.DB.First(&user, current.ID).Error; err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	updates := map[string]interface{}{}

	if body.Nickname != nil {
		nickname := strings.TrimSpace(*body.Nickname)

		if nickname == "" {
			updates["nickname"] = nil
		} else {
			if len(nickname) < 2 || len(nickname) > 20 {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Nickname must be between 2 and 20 characters"})
				return
			}

			if !nicknameRe.MatchString(nickname) {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Nickname can only contain letters, numbers, hyphens and underscores"})
				return
			}

			var existing models.User
			err := db.DB.Where("LOWER(nickname) = LOWER(?) AND id <> ?", nickname, user.ID).First(&existing).Error

			if err == nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Nickname is already taken"})
				return
			}

			if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("Nickname lookup failed: %v", err)
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
				return
			}

			updates["nickname"] = nickname
		}
	}

	if body.CustomAvatar != nil {
		avatar := *body.CustomAvatar

		if avatar == "" {
			updates["custom_avatar"] = ""
		} else {
			if !avatarRe.MatchString(avatar) {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Avatar must be a jpeg, png, gif or webp data URI"})
				return
			}

			// base64 inflates by 4/3, so the decoded size is roughly len*3/4.
			if len(avatar)*3/4 > maxAvatarBytes {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Image must be smaller than 2MB"})
				return
			}

			updates["custom_avatar"] = avatar
		}
	}

	if len(updates) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update"})
		return
	}

	if err := db.DB.Model(&user).Updates(updates).Error; err != nil {
		log.Printf("Failed to update profile for %s: %v", user.Login, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	if err := db.DB.First(&user, user.ID).Error; err != nil {
		log.Printf("Failed to reload profile for %s: %v", user.Login, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": userResponse(&user)})
}
