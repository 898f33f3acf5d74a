package models

type MemberStatus string

const (
	MemberStatusPending  MemberStatus = "pending"
	MemberStatusApproved MemberStatus = "approved"
	MemberStatusDeclined MemberStatus = "declined"
)

// TeamMember is one user's seat on a team. The creator's entry is created
// pre-approved; invited members start pending.
type TeamMember struct {
	BaseModel

	TeamID uint         `gorm:"not null;uniqueIndex:idx_team_user"`
	UserID uint         `gorm:"not null;uniqueIndex:idx_team_user"`
	Status MemberStatus `gorm:"not null;default:'pending'"`

	// Relationships
	Team Team `gorm:"foreignKey:TeamID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
