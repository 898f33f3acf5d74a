package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User mirrors the authenticated student's intra profile. The snapshot
// columns are refreshed from the identity provider; the team core only ever
// reads ID, Login and the avatar.
type User struct {
	gorm.Model

	IntraID     int    `gorm:"uniqueIndex;not null"`
	Login       string `gorm:"uniqueIndex;not null"`
	Email       string `gorm:"not null"`
	FirstName   string
	LastName    string
	DisplayName string

	Nickname     *string `gorm:"uniqueIndex"`
	CustomAvatar string  `gorm:"type:text"`

	Avatar           datatypes.JSON // {small, medium, large}
	Campus           string
	Level            float64
	Wallet           int
	CorrectionPoints int
	Curriculum       string
	Grade            string
	CurrentCircle    int

	CursusUsers   datatypes.JSON
	ProjectsUsers datatypes.JSON
	QuestsUsers   datatypes.JSON
	Achievements  datatypes.JSON
	Coalition     datatypes.JSON

	AccessToken    string
	RefreshToken   string
	TokenExpiresAt *time.Time
	LastLogin      time.Time
	LastSyncedAt   time.Time

	// Relationships
	TeamMemberships []TeamMember `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

// AvatarURL returns the medium avatar variant, or the custom one when set.
func (u *User) AvatarURL() string {
	if u.CustomAvatar != "" {
		return u.CustomAvatar
	}
	var versions struct {
		Small  string `json:"small"`
		Medium string `json:"medium"`
		Large  string `json:"large"`
	}
	if len(u.Avatar) == 0 {
		return ""
	}
	if err := json.Unmarshal(u.Avatar, &versions); err != nil {
		return ""
	}
	return versions.Medium
}
