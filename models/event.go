package models

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/lib/pq"
)

// Event is a campus event; each question of a round is one Event.
type Event struct {
	ID                uint           `json:"id" gorm:"primaryKey"`
	Name              string         `json:"name" gorm:"size:100;not null"`
	Description       string         `json:"description" gorm:"type:text"`
	Organization      string         `json:"organization" gorm:"size:100"`
	ImageData         []byte         `json:"-"`
	ImageFormat       string         `json:"-" gorm:"size:10;not null;default:'jpg'"`
	AcceptableAnswers pq.StringArray `json:"acceptable_answers" gorm:"type:text[]"`
	PointsValue       int            `json:"points_value" gorm:"not null;default:100"`
	EventDate         time.Time      `json:"event_date" gorm:"autoCreateTime"`
}

func (Event) TableName() string { return "uic_events" }

// DefaultPointsValue is awarded for an event without an explicit value.
const DefaultPointsValue = 100

// ImageDataURL renders the stored image as a data URL, or "" when absent.
func (e Event) ImageDataURL() string {
	if len(e.ImageData) == 0 {
		return ""
	}
	format := strings.ToLower(e.ImageFormat)
	switch format {
	case "", "jpg":
		format = "jpeg"
	}
	return "data:image/" + format + ";base64," + base64.StdEncoding.EncodeToString(e.ImageData)
}

// Answers returns every accepted spelling, the event name included.
func (e Event) Answers() []string {
	answers := make([]string, 0, len(e.AcceptableAnswers)+1)
	answers = append(answers, e.Name)
	for _, a := range e.AcceptableAnswers {
		if a != "" && !strings.EqualFold(a, e.Name) {
			answers = append(answers, a)
		}
	}
	return answers
}
