package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/yeremiapane/school-journal/models"
	"github.com/yeremiapane/school-journal/storage"
	"github.com/yeremiapane/school-journal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxTitleLength = 255

type JournalInput struct {
	Title       string
	Description string
	StudentIDs  []uint
	PublishedAt *time.Time
}

// JournalUpdate replaces title and description. A nil StudentIDs keeps the
// current tags; a non-nil one (even empty) replaces them. A nil PublishedAt
// keeps the current publication time.
type JournalUpdate struct {
	Title       string
	Description string
	StudentIDs  *[]uint
	PublishedAt *time.Time
}

// NewAttachment carries an upload. For url attachments Filename is the URL
// itself and Content is ignored.
type NewAttachment struct {
	Type     models.AttachmentType
	Filename string
	Content  io.Reader
}

type JournalService struct {
	DB       *gorm.DB
	Files    storage.FileStore
	Policy   AttachmentPolicy
	Notifier Notifier
	PageSize int
	Now      func() time.Time
}

func NewJournalService(db *gorm.DB, files storage.FileStore, policy AttachmentPolicy, notifier Notifier, pageSize int) *JournalService {
	return &JournalService{
		DB:       db,
		Files:    files,
		Policy:   policy,
		Notifier: notifierOrNop(notifier),
		PageSize: pageSize,
		Now:      time.Now,
	}
}

func (s *JournalService) now() time.Time {
	return s.Now().UTC()
}

func (s *JournalService) CreateJournal(ctx context.Context, caller Caller, in JournalInput) (*models.Journal, error) {
	teacher, err := requireTeacher(caller)
	if err != nil {
		return nil, err
	}
	if err := validateTitle(in.Title); err != nil {
		return nil, err
	}

	now := s.now()
	studentIDs := uniqueIDs(in.StudentIDs)
	journal := models.Journal{
		Title:       in.Title,
		Description: in.Description,
		TeacherID:   teacher.ID,
		PublishedAt: utcPtr(in.PublishedAt),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var created []models.Notification
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkStudents(tx, studentIDs); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&journal).Error; err != nil {
			return err
		}
		if err := replaceTags(tx, journal.ID, studentIDs, now); err != nil {
			return err
		}
		if publishEdge(nil, journal.PublishedAt, now) {
			created, err = fanOut(tx, &journal, now)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Infof("Journal %d created by teacher %d (%s)", journal.ID, teacher.ID, StateAt(journal.PublishedAt, now))
	s.Notifier.NotificationsCreated(created)
	return s.load(ctx, journal.ID, now)
}

func (s *JournalService) UpdateJournal(ctx context.Context, caller Caller, journalID uint, upd JournalUpdate) (*models.Journal, error) {
	teacher, err := requireTeacher(caller)
	if err != nil {
		return nil, err
	}
	if err := validateTitle(upd.Title); err != nil {
		return nil, err
	}

	now := s.now()
	var created []models.Notification
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var journal models.Journal
		if err := ownedJournal(tx, teacher, journalID, &journal); err != nil {
			return err
		}

		before := journal.PublishedAt
		journal.Title = upd.Title
		journal.Description = upd.Description
		journal.UpdatedAt = now
		if upd.PublishedAt != nil {
			// tidak ada jalan keluar dari Published
			if IsPublishedAt(before, now) && !IsPublishedAt(upd.PublishedAt, now) {
				return newValidationError(ErrAlreadyPublished, "Journal %d is already published and cannot be rescheduled", journalID)
			}
			journal.PublishedAt = utcPtr(upd.PublishedAt)
		}

		if err := tx.Omit(clause.Associations).Save(&journal).Error; err != nil {
			return err
		}

		if upd.StudentIDs != nil {
			studentIDs := uniqueIDs(*upd.StudentIDs)
			if err := checkStudents(tx, studentIDs); err != nil {
				return err
			}
			if err := tx.Where("journal_id = ?", journal.ID).Delete(&models.JournalStudentTag{}).Error; err != nil {
				return err
			}
			if err := replaceTags(tx, journal.ID, studentIDs, now); err != nil {
				return err
			}
		}

		if publishEdge(before, journal.PublishedAt, now) {
			created, err = fanOut(tx, &journal, now)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Notifier.NotificationsCreated(created)
	return s.load(ctx, journalID, now)
}

// PublishJournal publishes at publishedAt, or now when nil. A future time
// schedules the journal instead. Publishing an already published journal
// changes nothing.
func (s *JournalService) PublishJournal(ctx context.Context, caller Caller, journalID uint, publishedAt *time.Time) (*models.Journal, error) {
	teacher, err := requireTeacher(caller)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var created []models.Notification
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var journal models.Journal
		if err := ownedJournal(tx, teacher, journalID, &journal); err != nil {
			return err
		}

		before := journal.PublishedAt
		if IsPublishedAt(before, now) {
			return nil
		}

		at := now
		if publishedAt != nil {
			at = publishedAt.UTC()
		}
		journal.PublishedAt = &at
		journal.UpdatedAt = now
		if err := tx.Omit(clause.Associations).Save(&journal).Error; err != nil {
			return err
		}

		if publishEdge(before, journal.PublishedAt, now) {
			created, err = fanOut(tx, &journal, now)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(created) > 0 {
		utils.InfoLogger.Infof("Journal %d published, %d students notified", journalID, len(created))
	}
	s.Notifier.NotificationsCreated(created)
	return s.load(ctx, journalID, now)
}

// DeleteJournal removes the journal with its tags and attachments. Backing
// files are removed after the rows are gone; failures there are only logged.
func (s *JournalService) DeleteJournal(ctx context.Context, caller Caller, journalID uint) error {
	teacher, err := requireTeacher(caller)
	if err != nil {
		return err
	}

	var attachments []models.Attachment
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var journal models.Journal
		if err := ownedJournal(tx, teacher, journalID, &journal); err != nil {
			return err
		}
		if err := tx.Where("journal_id = ?", journalID).Find(&attachments).Error; err != nil {
			return err
		}
		if err := tx.Where("journal_id = ?", journalID).Delete(&models.Attachment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("journal_id = ?", journalID).Delete(&models.JournalStudentTag{}).Error; err != nil {
			return err
		}
		return tx.Delete(&journal).Error
	})
	if err != nil {
		return err
	}

	for _, a := range attachments {
		s.removeFile(ctx, a)
	}
	utils.InfoLogger.Infof("Journal %d deleted by teacher %d", journalID, teacher.ID)
	return nil
}

// AddAttachment stores the content first and only then inserts the row, so
// a failed write never leaves a row behind.
func (s *JournalService) AddAttachment(ctx context.Context, caller Caller, journalID uint, in NewAttachment) (*models.Attachment, error) {
	teacher, err := requireTeacher(caller)
	if err != nil {
		return nil, err
	}

	db := s.DB.WithContext(ctx)
	var journal models.Journal
	if err := ownedJournal(db, teacher, journalID, &journal); err != nil {
		return nil, err
	}

	ext, err := s.Policy.Validate(in.Type, in.Filename)
	if err != nil {
		return nil, err
	}

	attachment := models.Attachment{
		JournalID:      journalID,
		AttachmentType: in.Type,
		CreatedAt:      s.now(),
	}
	if in.Type == models.AttachmentURL {
		if strings.TrimSpace(in.Filename) == "" {
			return nil, newValidationError(ErrInvalidInput, "URL attachment requires a url")
		}
		attachment.FilePath = in.Filename
	} else {
		if s.Files == nil || in.Content == nil {
			return nil, newValidationError(ErrInvalidInput, "File content is required for %s attachments", in.Type)
		}
		name := uuid.New().String() + "." + ext
		location, err := s.Files.Save(ctx, name, in.Content)
		if err != nil {
			return nil, fmt.Errorf("store attachment: %w", err)
		}
		attachment.FilePath = location
	}

	// the journal may have been deleted while the content was being stored
	err = db.Transaction(func(tx *gorm.DB) error {
		var current models.Journal
		if err := ownedJournal(tx.Clauses(clause.Locking{Strength: "UPDATE"}), teacher, journalID, &current); err != nil {
			return err
		}
		return tx.Create(&attachment).Error
	})
	if err != nil {
		s.removeFile(ctx, attachment)
		return nil, err
	}
	return &attachment, nil
}

// DeleteAttachment removes one attachment of a journal the caller owns. A
// zero journalID skips the journal match.
func (s *JournalService) DeleteAttachment(ctx context.Context, caller Caller, journalID, attachmentID uint) error {
	teacher, err := requireTeacher(caller)
	if err != nil {
		return err
	}

	var attachment models.Attachment
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&attachment, attachmentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFoundOrForbidden
			}
			return err
		}
		if journalID != 0 && attachment.JournalID != journalID {
			return ErrNotFoundOrForbidden
		}
		var journal models.Journal
		if err := ownedJournal(tx, teacher, attachment.JournalID, &journal); err != nil {
			return err
		}
		return tx.Delete(&attachment).Error
	})
	if err != nil {
		return err
	}

	s.removeFile(ctx, attachment)
	return nil
}

// GetJournal returns the journal only when CanView allows it. Missing and
// hidden journals give the same error.
func (s *JournalService) GetJournal(ctx context.Context, caller Caller, journalID uint) (*models.Journal, error) {
	now := s.now()
	journal, err := s.load(ctx, journalID, now)
	if err != nil {
		return nil, err
	}
	if !CanView(caller, journal, now) {
		return nil, ErrNotFoundOrForbidden
	}
	return journal, nil
}

// ListFeed returns the caller's feed newest first. Teachers get their own
// journals in any state. Students get every published journal, the ones
// they are tagged on winning ties on created_at.
func (s *JournalService) ListFeed(ctx context.Context, caller Caller, skip, limit int) ([]models.Journal, error) {
	now := s.now()
	skip, limit = normalizePage(skip, limit, s.PageSize)
	db := s.DB.WithContext(ctx)

	switch c := caller.(type) {
	case Teacher:
		var journals []models.Journal
		err := db.Preload("Attachments").Preload("Tags").
			Where("teacher_id = ?", c.ID).
			Order("created_at DESC").Order("id DESC").
			Offset(skip).Limit(limit).
			Find(&journals).Error
		if err != nil {
			return nil, err
		}
		stampAll(journals, now)
		return journals, nil

	case Student:
		// Tagged journals are a subset of the published ones, so the feed is
		// the published set with tagged rows first among equal created_at.
		taggedIDs := db.Model(&models.JournalStudentTag{}).Select("journal_id").Where("student_id = ?", c.ID)
		var page []models.Journal
		err := publishedScope(db, now).
			Order(clause.OrderBy{Expression: clause.Expr{
				SQL:                "created_at DESC, CASE WHEN id IN (?) THEN 0 ELSE 1 END, id DESC",
				Vars:               []interface{}{taggedIDs},
				WithoutParentheses: true,
			}}).
			Offset(skip).Limit(limit).
			Find(&page).Error
		if err != nil {
			return nil, err
		}
		return s.withAssociations(ctx, onlyPublished(page, now), now)

	default:
		return nil, ErrForbidden
	}
}

func publishedScope(db *gorm.DB, now time.Time) *gorm.DB {
	return db.Model(&models.Journal{}).
		Where("published_at IS NOT NULL AND published_at <= ?", now)
}

// onlyPublished re-applies the publication predicate to rows the database
// already filtered, so the feed never depends on how the driver compares
// timestamps.
func onlyPublished(journals []models.Journal, now time.Time) []models.Journal {
	out := journals[:0]
	for _, j := range journals {
		if IsPublishedAt(j.PublishedAt, now) {
			out = append(out, j)
		}
	}
	return out
}

// withAssociations loads attachments and tags for an ordered page and keeps
// the page order.
func (s *JournalService) withAssociations(ctx context.Context, page []models.Journal, now time.Time) ([]models.Journal, error) {
	if len(page) == 0 {
		return []models.Journal{}, nil
	}
	ids := make([]uint, len(page))
	for i, j := range page {
		ids[i] = j.ID
	}

	var loaded []models.Journal
	if err := s.DB.WithContext(ctx).Preload("Attachments").Preload("Tags").
		Where("id IN ?", ids).Find(&loaded).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Journal, len(loaded))
	for _, j := range loaded {
		byID[j.ID] = j
	}

	out := make([]models.Journal, 0, len(page))
	for _, id := range ids {
		if j, ok := byID[id]; ok {
			out = append(out, j)
		}
	}
	stampAll(out, now)
	return out, nil
}

func (s *JournalService) load(ctx context.Context, journalID uint, now time.Time) (*models.Journal, error) {
	var journal models.Journal
	err := s.DB.WithContext(ctx).Preload("Attachments").Preload("Tags").First(&journal, journalID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFoundOrForbidden
		}
		return nil, err
	}
	stampPublication(&journal, now)
	return &journal, nil
}

func (s *JournalService) removeFile(ctx context.Context, a models.Attachment) {
	if a.AttachmentType == models.AttachmentURL || a.FilePath == "" || s.Files == nil {
		return
	}
	if err := s.Files.Remove(ctx, a.FilePath); err != nil {
		utils.ErrorLogger.Errorf("Error deleting file %s of attachment %d: %v", a.FilePath, a.ID, err)
	}
}

// ownedJournal loads the journal into dst when teacher wrote it.
func ownedJournal(db *gorm.DB, teacher Teacher, journalID uint, dst *models.Journal) error {
	if err := db.First(dst, journalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFoundOrForbidden
		}
		return err
	}
	if dst.TeacherID != teacher.ID {
		return ErrNotFoundOrForbidden
	}
	return nil
}

// fanOut writes one notification per distinct student currently tagged on
// the journal.
func fanOut(tx *gorm.DB, journal *models.Journal, now time.Time) ([]models.Notification, error) {
	if err := tx.Where("journal_id = ?", journal.ID).Order("id").Find(&journal.Tags).Error; err != nil {
		return nil, err
	}
	studentIDs := journal.TaggedStudentIDs()
	if len(studentIDs) == 0 {
		return nil, nil
	}

	notifications := make([]models.Notification, len(studentIDs))
	for i, id := range studentIDs {
		notifications[i] = models.Notification{
			StudentID: id,
			JournalID: journal.ID,
			Message:   "You've been tagged in a new journal: " + journal.Title,
			CreatedAt: now,
		}
	}
	if err := tx.Create(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

func replaceTags(tx *gorm.DB, journalID uint, studentIDs []uint, now time.Time) error {
	if len(studentIDs) == 0 {
		return nil
	}
	tags := make([]models.JournalStudentTag, len(studentIDs))
	for i, id := range studentIDs {
		tags[i] = models.JournalStudentTag{JournalID: journalID, StudentID: id, CreatedAt: now}
	}
	return tx.Create(&tags).Error
}

// checkStudents rejects ids that do not belong to a student account.
func checkStudents(tx *gorm.DB, studentIDs []uint) error {
	if len(studentIDs) == 0 {
		return nil
	}
	var count int64
	err := tx.Model(&models.User{}).
		Where("id IN ? AND role = ?", studentIDs, models.RoleStudent).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count != int64(len(studentIDs)) {
		return newValidationError(ErrInvalidInput, "student_ids must all refer to existing students")
	}
	return nil
}

func validateTitle(title string) error {
	n := utf8.RuneCountInString(title)
	if strings.TrimSpace(title) == "" || n > maxTitleLength {
		return newValidationError(ErrInvalidInput, "Title must be between 1 and %d characters", maxTitleLength)
	}
	return nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
