package models

type DeleteRequestStatus string

const (
	DeleteRequestStatusPending  DeleteRequestStatus = "pending"
	DeleteRequestStatusRejected DeleteRequestStatus = "rejected"
)

// DeleteRequest is the consensus record for destroying a team. At most one
// row exists per team; a pending request either collects an approval from
// every member (team and request are then both removed) or is rejected by a
// single member and becomes terminal.
type DeleteRequest struct {
	BaseModel

	TeamID      uint                `gorm:"not null;uniqueIndex"`
	RequesterID uint                `gorm:"not null"`
	Status      DeleteRequestStatus `gorm:"not null;default:'pending'"`

	// Relationships
	Requester User             `gorm:"foreignKey:RequesterID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Approvals []DeleteApproval `gorm:"foreignKey:DeleteRequestID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

// DeleteApproval is one member's recorded response to a delete request.
// Each member may respond exactly once.
type DeleteApproval struct {
	BaseModel

	DeleteRequestID uint `gorm:"not null;uniqueIndex:idx_request_user"`
	UserID          uint `gorm:"not null;uniqueIndex:idx_request_user"`
	Approved        bool `gorm:"not null"`
}
