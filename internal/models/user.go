package models

import (
	"encoding/json"

	"gorm.io/gorm"
)

// User represents a player account with its lifetime quiz progression.
type User struct {
	gorm.Model
	Username     string `gorm:"size:255;unique;not null"`
	Email        string `gorm:"size:255;unique;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Role         string `gorm:"size:50;not null;default:'user';index"`

	// Progression, updated by the match finalizer.
	XP            int    `gorm:"not null;default:0;index"`
	WeeklyXP      int    `gorm:"not null;default:0;index"`
	Rank          string `gorm:"size:50;not null;default:'Bronze'"`
	Badges        string `gorm:"type:text;not null;default:'[]'"` // JSON array of badge ids
	MatchesPlayed int    `gorm:"not null;default:0"`
	MatchesWon    int    `gorm:"not null;default:0"`
}

// BadgeList decodes the serialized badge ids. A corrupt column yields an
// empty list rather than an error; badges are additive and never load-bearing.
func (u *User) BadgeList() []string {
	var badges []string
	if err := json.Unmarshal([]byte(u.Badges), &badges); err != nil {
		return []string{}
	}
	return badges
}

// HasBadge reports whether the user already holds the given badge.
func (u *User) HasBadge(id string) bool {
	for _, b := range u.BadgeList() {
		if b == id {
			return true
		}
	}
	return false
}

// AddBadge appends a badge id if not already held.
func (u *User) AddBadge(id string) {
	if u.HasBadge(id) {
		return
	}
	badges := append(u.BadgeList(), id)
	data, err := json.Marshal(badges)
	if err != nil {
		return
	}
	u.Badges = string(data)
}
