package services

import "github.com/yeremiapane/school-journal/models"

// Notifier receives notification events after they are committed. Delivery
// is best effort and must not block the caller.
type Notifier interface {
	NotificationsCreated(notifications []models.Notification)
	UnreadCountChanged(studentID uint, unread int64)
}

type nopNotifier struct{}

func (nopNotifier) NotificationsCreated([]models.Notification) {}
func (nopNotifier) UnreadCountChanged(uint, int64)             {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
