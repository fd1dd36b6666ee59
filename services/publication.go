package services

import (
	"time"

	"github.com/yeremiapane/school-journal/models"
)

type PublicationState int

const (
	Draft PublicationState = iota
	Scheduled
	Published
)

func (s PublicationState) String() string {
	switch s {
	case Draft:
		return "draft"
	case Scheduled:
		return "scheduled"
	case Published:
		return "published"
	default:
		return "unknown"
	}
}

// StateAt derives the publication state from publishedAt at instant now. A
// publishedAt equal to now already counts as published.
func StateAt(publishedAt *time.Time, now time.Time) PublicationState {
	switch {
	case publishedAt == nil:
		return Draft
	case publishedAt.After(now):
		return Scheduled
	default:
		return Published
	}
}

func IsPublishedAt(publishedAt *time.Time, now time.Time) bool {
	return StateAt(publishedAt, now) == Published
}

// publishEdge reports whether a mutation moved a journal into Published,
// comparing the publishedAt before and after it at the same instant.
func publishEdge(before, after *time.Time, now time.Time) bool {
	return !IsPublishedAt(before, now) && IsPublishedAt(after, now)
}

// stampPublication refreshes the derived IsPublished flag.
func stampPublication(j *models.Journal, now time.Time) {
	j.IsPublished = IsPublishedAt(j.PublishedAt, now)
}

func stampAll(journals []models.Journal, now time.Time) {
	for i := range journals {
		stampPublication(&journals[i], now)
	}
}
