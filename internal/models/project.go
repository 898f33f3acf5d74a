package models

import "gorm.io/gorm"

// Project is the reference catalog entry for a curriculum project. Seeded
// once at startup; MinTeam/MaxTeam bound the size of teams formed for it.
type Project struct {
	gorm.Model

	Slug        string `gorm:"uniqueIndex;not null"`
	Name        string `gorm:"not null"`
	Circle      int    `gorm:"not null;index"`
	MinTeam     int    `gorm:"not null;default:1"`
	MaxTeam     int    `gorm:"not null;default:1"`
	IsOuterCore bool   `gorm:"not null;default:false"`

	// Relationships
	Curricula []Curriculum `gorm:"many2many:project_curricula"`
}
