package domain

import "time"

// TimeLog records time spent on a project on a given date.
type TimeLog struct {
	ID        int       `json:"id"`
	ProjectID int       `json:"project_id" gorm:"notNull;index"`
	Project   Project   `json:"-"`
	Date      time.Time `json:"date" gorm:"notNull"`
	Hours     int       `json:"hours" gorm:"notNull;default:0"`
	Minutes   int       `json:"minutes" gorm:"notNull;default:0"`
	Notes     string    `json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TimeLogService is a set of methods to manipulate and work with the
// TimeLog model.
type TimeLogService interface {
	ByID(id int) (*TimeLog, error)
	Create(log *TimeLog) error
	Update(log *TimeLog) error
}
