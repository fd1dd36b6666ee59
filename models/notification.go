package models

import (
	"time"
)

// Notification tells a student about a journal they were tagged in. JournalID
// is a weak reference: deleting the journal leaves the notification in place.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StudentID uint      `gorm:"not null;index" json:"student_id"`
	JournalID uint      `gorm:"not null;index" json:"journal_id"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	IsRead    bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}
