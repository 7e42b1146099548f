package models

import "gorm.io/gorm"

// Category represents a quiz category (e.g., "History", "Science").
type Category struct {
	gorm.Model
	Name        string `gorm:"size:100;unique;not null"`
	Description string
	Active      bool `gorm:"not null;default:true;index"`
}
