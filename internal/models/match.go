package models

import (
	"encoding/json"
	"time"
)

// MatchState is the persisted lifecycle state of a match.
type MatchState string

const (
	MatchWaiting  MatchState = "waiting"
	MatchActive   MatchState = "active"
	MatchFinished MatchState = "finished"
)

// Match is the persistent record of a duel. It is created together with the
// in-memory room and updated on second-player join and at finalize; once
// finished it is never mutated again.
type Match struct {
	ID          string     `gorm:"primaryKey;size:64"`
	CategoryID  uint       `gorm:"not null;index"`
	State       MatchState `gorm:"size:20;not null;default:'waiting';index"`
	QuestionIDs string     `gorm:"type:text;not null"` // ordered JSON array of question ids
	WinnerID    *uint
	Reason      string `gorm:"size:50"` // finished, forfeit, disconnect, draw
	StartedAt   *time.Time
	FinishedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Category Category      `gorm:"foreignKey:CategoryID"`
	Players  []MatchPlayer `gorm:"foreignKey:MatchID"`
}

// MatchPlayer records one participant's final standing in a match.
type MatchPlayer struct {
	MatchID   string `gorm:"primaryKey;size:64"`
	UserID    uint   `gorm:"primaryKey"`
	Username  string `gorm:"size:255;not null"`
	Score     int    `gorm:"not null;default:0"`
	Forfeited bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// QuestionIDList decodes the ordered question id list.
func (m *Match) QuestionIDList() ([]uint, error) {
	var ids []uint
	if err := json.Unmarshal([]byte(m.QuestionIDs), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// SetQuestionIDs serializes the ordered question id list onto the row.
func (m *Match) SetQuestionIDs(ids []uint) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	m.QuestionIDs = string(data)
	return nil
}
