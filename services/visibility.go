package services

import (
	"time"

	"github.com/yeremiapane/school-journal/models"
)

// CanView decides whether caller may open journal at instant now. Teachers
// see only what they wrote, in any state. Students see a journal only when
// they are tagged on it and it is published. journal.Tags must be loaded.
func CanView(caller Caller, journal *models.Journal, now time.Time) bool {
	switch c := caller.(type) {
	case Teacher:
		return journal.TeacherID == c.ID
	case Student:
		return journal.HasStudent(c.ID) && IsPublishedAt(journal.PublishedAt, now)
	default:
		return false
	}
}
