package models

import "gorm.io/datatypes"

type TeamStatus string

const (
	TeamStatusPending  TeamStatus = "pending"
	TeamStatusApproved TeamStatus = "approved"
)

// Team is a group formed for one catalog project. Invariant: Status is
// approved if and only if every member entry is approved.
type Team struct {
	BaseModel

	Name        string     `gorm:"not null"`
	ProjectSlug string     `gorm:"not null;index"`
	ProjectName string     `gorm:"not null"`
	CreatorID   uint       `gorm:"not null;index"`
	Status      TeamStatus `gorm:"not null;default:'pending';index"`
	Kanban      datatypes.JSON

	// Relationships
	Creator       User           `gorm:"foreignKey:CreatorID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Members       []TeamMember   `gorm:"foreignKey:TeamID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	DeleteRequest *DeleteRequest `gorm:"foreignKey:TeamID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

// DefaultKanban is the empty board every team starts with. Task manipulation
// is handled by the front-end for now; the server only stores the columns.
func DefaultKanban() datatypes.JSON {
	return datatypes.JSON([]byte(`{"todo":[],"inProgress":[],"review":[],"done":[]}`))
}
