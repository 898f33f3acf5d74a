package models

import "gorm.io/gorm"

type Curriculum struct {
	gorm.Model

	Name        string `gorm:"uniqueIndex;not null"`
	DisplayName string `gorm:"not null"`
}
