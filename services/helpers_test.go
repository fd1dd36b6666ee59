package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/school-journal/config"
	"github.com/yeremiapane/school-journal/database"
	"github.com/yeremiapane/school-journal/models"
	"github.com/yeremiapane/school-journal/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var baseTime = time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memoryStore keeps attachment bytes in a map and records removals.
type memoryStore struct {
	mu      sync.Mutex
	files   map[string]string
	removed []string
	saveErr error
	// afterSave runs once the bytes are stored
	afterSave func()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{files: make(map[string]string)}
}

func (m *memoryStore) Save(_ context.Context, name string, r io.Reader) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	location := "mem/" + name
	m.mu.Lock()
	m.files[location] = string(data)
	m.mu.Unlock()
	if m.afterSave != nil {
		m.afterSave()
	}
	return location, nil
}

func (m *memoryStore) Remove(_ context.Context, location string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, location)
	if _, ok := m.files[location]; !ok {
		return os.ErrNotExist
	}
	delete(m.files, location)
	return nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	created []models.Notification
	unread  map[uint]int64
}

func (r *recordingNotifier) NotificationsCreated(n []models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, n...)
}

func (r *recordingNotifier) UnreadCountChanged(studentID uint, unread int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unread == nil {
		r.unread = make(map[uint]int64)
	}
	r.unread[studentID] = unread
}

type fixture struct {
	db       *gorm.DB
	clock    *testClock
	store    *memoryStore
	notifier *recordingNotifier
	journals *JournalService
	notifs   *NotificationService

	teacher1, teacher2 Teacher
	student1, student2 Student
	student3           Student
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	utils.SilenceLoggers()

	db := setupTestDB(t)
	f := &fixture{
		db:       db,
		clock:    &testClock{now: baseTime},
		store:    newMemoryStore(),
		notifier: &recordingNotifier{},
	}

	cfg := &config.Config{
		ImageExtensions:    []string{"jpg", "jpeg", "png", "gif"},
		DocumentExtensions: []string{"pdf", "doc", "docx", "txt"},
		VideoExtensions:    []string{"mp4", "mov", "avi"},
	}
	f.journals = NewJournalService(db, f.store, NewAttachmentPolicy(cfg), f.notifier, 100)
	f.journals.Now = f.clock.Now
	f.notifs = NewNotificationService(db, f.notifier, 100)

	f.teacher1 = Teacher{ID: seedUser(t, db, "teacher_ann", models.RoleTeacher)}
	f.teacher2 = Teacher{ID: seedUser(t, db, "teacher_bob", models.RoleTeacher)}
	f.student1 = Student{ID: seedUser(t, db, "student_cy", models.RoleStudent)}
	f.student2 = Student{ID: seedUser(t, db, "student_di", models.RoleStudent)}
	f.student3 = Student{ID: seedUser(t, db, "student_ed", models.RoleStudent)}
	return f
}

func seedUser(t *testing.T, db *gorm.DB, username string, role models.Role) uint {
	t.Helper()
	user := models.User{Username: username, Password: "x", Role: role}
	require.NoError(t, db.Create(&user).Error)
	return user.ID
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func (f *fixture) createJournal(t *testing.T, teacher Teacher, title string, publishedAt *time.Time, students ...Student) *models.Journal {
	t.Helper()
	ids := make([]uint, len(students))
	for i, s := range students {
		ids[i] = s.ID
	}
	j, err := f.journals.CreateJournal(context.Background(), teacher, JournalInput{
		Title:       title,
		Description: title + " body",
		StudentIDs:  ids,
		PublishedAt: publishedAt,
	})
	require.NoError(t, err)
	return j
}

func (f *fixture) notificationsFor(t *testing.T, journalID uint) []models.Notification {
	t.Helper()
	var out []models.Notification
	require.NoError(t, f.db.Where("journal_id = ?", journalID).Order("student_id").Find(&out).Error)
	return out
}

// mergeFeed is the in-memory reference for the student feed: sources are
// concatenated in order, the first copy of each id wins and a stable sort
// puts the newest first.
func mergeFeed(sources ...[]models.Journal) []models.Journal {
	seen := make(map[uint]struct{})
	var merged []models.Journal
	for _, src := range sources {
		for _, j := range src {
			if _, ok := seen[j.ID]; ok {
				continue
			}
			seen[j.ID] = struct{}{}
			merged = append(merged, j)
		}
	}
	sort.SliceStable(merged, func(a, b int) bool {
		return merged[a].CreatedAt.After(merged[b].CreatedAt)
	})
	return merged
}

func paginate(journals []models.Journal, skip, limit int) []models.Journal {
	if skip >= len(journals) {
		return []models.Journal{}
	}
	end := skip + limit
	if end > len(journals) {
		end = len(journals)
	}
	return journals[skip:end]
}

func journalIDs(journals []models.Journal) []uint {
	ids := make([]uint, len(journals))
	for i, j := range journals {
		ids[i] = j.ID
	}
	return ids
}
