package models

import "time"

// BaseModel is used instead of gorm.Model for entities that are hard-deleted.
// Team records must actually disappear once a deletion reaches quorum, so
// soft-delete scoping would get in the way of the membership queries.
type BaseModel struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
