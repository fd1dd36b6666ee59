package database

import (
	"github.com/yeremiapane/school-journal/models"
	"github.com/yeremiapane/school-journal/utils"
	"gorm.io/gorm"
)

// Migrate creates or updates the schema. Order matters for the foreign keys:
// users first, then journals and the rows that hang off them.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Journal{},
		&models.Attachment{},
		&models.JournalStudentTag{},
		&models.Notification{},
	)
	if err != nil {
		return err
	}

	// feed murid: notifikasi belum dibaca dan tag per murid
	if !db.Migrator().HasIndex(&models.Notification{}, "idx_notifications_student_unread") {
		if err := db.Exec("CREATE INDEX idx_notifications_student_unread ON notifications (student_id, is_read)").Error; err != nil {
			return err
		}
	}
	if !db.Migrator().HasIndex(&models.JournalStudentTag{}, "idx_tags_student_journal") {
		if err := db.Exec("CREATE INDEX idx_tags_student_journal ON journal_student_tags (student_id, journal_id)").Error; err != nil {
			return err
		}
	}

	utils.InfoLogger.Println("AutoMigrate completed.")
	return nil
}
