package models

import "time"

type AttachmentType string

const (
	AttachmentImage AttachmentType = "image"
	AttachmentVideo AttachmentType = "video"
	AttachmentPDF   AttachmentType = "pdf"
	AttachmentURL   AttachmentType = "url"
)

// Journal is a teacher-authored post. IsPublished is never persisted; it is
// stamped from PublishedAt every time a journal leaves the service layer.
type Journal struct {
	ID          uint                `gorm:"primaryKey" json:"id"`
	Title       string              `gorm:"type:varchar(255);not null" json:"title"`
	Description string              `gorm:"type:text;not null" json:"description"`
	TeacherID   uint                `gorm:"not null;index" json:"teacher_id"`
	Teacher     *User               `gorm:"foreignKey:TeacherID;references:ID" json:"teacher,omitempty"`
	PublishedAt *time.Time          `gorm:"index" json:"published_at"`
	IsPublished bool                `gorm:"-" json:"is_published"`
	CreatedAt   time.Time           `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time           `gorm:"not null" json:"updated_at"`
	Attachments []Attachment        `gorm:"foreignKey:JournalID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"attachments"`
	Tags        []JournalStudentTag `gorm:"foreignKey:JournalID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"tagged_students"`
}

type Attachment struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	JournalID      uint           `gorm:"not null;index" json:"journal_id"`
	FilePath       string         `gorm:"type:varchar(2048);not null" json:"file_path"`
	AttachmentType AttachmentType `gorm:"type:varchar(50);not null" json:"attachment_type"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
}

// JournalStudentTag marks a student as part of a journal's audience.
type JournalStudentTag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	JournalID uint      `gorm:"not null;index" json:"journal_id"`
	StudentID uint      `gorm:"not null;index" json:"student_id"`
	Student   *User     `gorm:"foreignKey:StudentID;references:ID" json:"student,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

// TaggedStudentIDs returns the distinct student ids tagged on the journal, in
// tag order. Tags must be preloaded.
func (j *Journal) TaggedStudentIDs() []uint {
	seen := make(map[uint]struct{}, len(j.Tags))
	ids := make([]uint, 0, len(j.Tags))
	for _, tag := range j.Tags {
		if _, ok := seen[tag.StudentID]; ok {
			continue
		}
		seen[tag.StudentID] = struct{}{}
		ids = append(ids, tag.StudentID)
	}
	return ids
}

func (j *Journal) HasStudent(studentID uint) bool {
	for _, tag := range j.Tags {
		if tag.StudentID == studentID {
			return true
		}
	}
	return false
}
