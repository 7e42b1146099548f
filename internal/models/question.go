package models

import (
	"encoding/json"

	"gorm.io/gorm"
)

// Option is a single answer choice of a question.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question represents a quiz question in the bank. Only questions that are
// both active and approved are eligible for matches.
type Question struct {
	gorm.Model
	CategoryID      uint   `gorm:"not null;index"`
	Text            string `gorm:"not null"`
	Options         string `gorm:"type:text;not null"` // JSON array of Option
	CorrectOptionID string `gorm:"size:50;not null"`
	Difficulty      string `gorm:"size:50;not null;default:'medium'"`
	Active          bool   `gorm:"not null;default:true;index"`
	Approved        bool   `gorm:"not null;default:false;index"`

	Category Category `gorm:"foreignKey:CategoryID"`
}

// OptionList decodes the serialized answer options.
func (q *Question) OptionList() ([]Option, error) {
	var opts []Option
	if err := json.Unmarshal([]byte(q.Options), &opts); err != nil {
		return nil, err
	}
	return opts, nil
}

// SetOptions serializes the answer options onto the row.
func (q *Question) SetOptions(opts []Option) error {
	data, err := json.Marshal(opts)
	if err != nil {
		return err
	}
	q.Options = string(data)
	return nil
}
