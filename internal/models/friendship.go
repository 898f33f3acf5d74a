package models

type FriendshipStatus string

const (
	FriendshipStatusPending  FriendshipStatus = "pending"
	FriendshipStatusAccepted FriendshipStatus = "accepted"
)

type Friendship struct {
	BaseModel

	RequesterID uint             `gorm:"not null;uniqueIndex:idx_requester_addressee"`
	AddresseeID uint             `gorm:"not null;uniqueIndex:idx_requester_addressee"`
	Status      FriendshipStatus `gorm:"not null;default:'pending'"`

	// Relationships
	Requester User `gorm:"foreignKey:RequesterID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Addressee User `gorm:"foreignKey:AddresseeID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
