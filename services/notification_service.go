package services

import (
	"context"
	"errors"

	"github.com/yeremiapane/school-journal/models"
	"gorm.io/gorm"
)

type NotificationService struct {
	DB       *gorm.DB
	Notifier Notifier
	PageSize int
}

func NewNotificationService(db *gorm.DB, notifier Notifier, pageSize int) *NotificationService {
	return &NotificationService{DB: db, Notifier: notifierOrNop(notifier), PageSize: pageSize}
}

// List returns the student's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, caller Caller, skip, limit int) ([]models.Notification, error) {
	student, err := requireStudent(caller)
	if err != nil {
		return nil, err
	}
	skip, limit = normalizePage(skip, limit, s.PageSize)

	notifications := []models.Notification{}
	err = s.DB.WithContext(ctx).
		Where("student_id = ?", student.ID).
		Order("created_at DESC").Order("id DESC").
		Offset(skip).Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

func (s *NotificationService) ListUnread(ctx context.Context, caller Caller) ([]models.Notification, error) {
	student, err := requireStudent(caller)
	if err != nil {
		return nil, err
	}

	notifications := []models.Notification{}
	err = s.DB.WithContext(ctx).
		Where("student_id = ? AND is_read = ?", student.ID, false).
		Order("created_at DESC").Order("id DESC").
		Find(&notifications).Error
	return notifications, err
}

func (s *NotificationService) UnreadCount(ctx context.Context, caller Caller) (int64, error) {
	student, err := requireStudent(caller)
	if err != nil {
		return 0, err
	}
	return s.unreadCount(ctx, student.ID)
}

// MarkRead flags one of the student's notifications as read. Notifications
// of other students are reported as not found.
func (s *NotificationService) MarkRead(ctx context.Context, caller Caller, notificationID uint) (*models.Notification, error) {
	student, err := requireStudent(caller)
	if err != nil {
		return nil, err
	}

	db := s.DB.WithContext(ctx)
	var notification models.Notification
	if err := db.Where("id = ? AND student_id = ?", notificationID, student.ID).First(&notification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !notification.IsRead {
		if err := db.Model(&notification).Update("is_read", true).Error; err != nil {
			return nil, err
		}
		notification.IsRead = true
		s.publishUnread(ctx, student.ID)
	}
	return &notification, nil
}

// MarkAllRead flags every unread notification of the student and returns
// how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, caller Caller) (int64, error) {
	student, err := requireStudent(caller)
	if err != nil {
		return 0, err
	}

	result := s.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("student_id = ? AND is_read = ?", student.ID, false).
		Update("is_read", true)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		s.Notifier.UnreadCountChanged(student.ID, 0)
	}
	return result.RowsAffected, nil
}

func (s *NotificationService) unreadCount(ctx context.Context, studentID uint) (int64, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("student_id = ? AND is_read = ?", studentID, false).
		Count(&count).Error
	return count, err
}

func (s *NotificationService) publishUnread(ctx context.Context, studentID uint) {
	count, err := s.unreadCount(ctx, studentID)
	if err != nil {
		return
	}
	s.Notifier.UnreadCountChanged(studentID, count)
}
