package model

import "time"

type PartyStatus string

const (
	PartyStatusWaiting  PartyStatus = "waiting"
	PartyStatusCalled   PartyStatus = "called"
	PartyStatusServed   PartyStatus = "served"
	PartyStatusCanceled PartyStatus = "canceled"
)

// Active reports whether the party still occupies a slot in the queue.
func (s PartyStatus) Active() bool {
	return s == PartyStatusWaiting || s == PartyStatusCalled
}

// Terminal reports whether the party can no longer change state.
func (s PartyStatus) Terminal() bool {
	return s == PartyStatusServed || s == PartyStatusCanceled
}

// Party is one waitlist entry. Rows are never deleted: served and canceled
// parties stay as history, and their codes are never reissued.
type Party struct {
	ID        uint        `gorm:"primaryKey" json:"-"`
	Code      string      `gorm:"type:varchar(6);uniqueIndex;not null" json:"code"`
	Name      string      `gorm:"type:varchar(50);not null" json:"name"`
	Size      int         `gorm:"not null;check:size >= 1 AND size <= 5" json:"size"`
	Sushi     string      `gorm:"type:varchar(100);not null" json:"sushi"`
	Status    PartyStatus `gorm:"type:varchar(16);not null;default:waiting;index" json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	CalledAt  *time.Time  `json:"called_at,omitempty"`
	ServedAt  *time.Time  `json:"served_at,omitempty"`
}

func (Party) TableName() string { return "parties" }
