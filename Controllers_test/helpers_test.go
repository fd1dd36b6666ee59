package Controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/school-journal/config"
	"github.com/yeremiapane/school-journal/database"
	"github.com/yeremiapane/school-journal/graph"
	"github.com/yeremiapane/school-journal/realtime"
	"github.com/yeremiapane/school-journal/router"
	"github.com/yeremiapane/school-journal/services"
	"github.com/yeremiapane/school-journal/storage"
	"github.com/yeremiapane/school-journal/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testApp struct {
	router *gin.Engine
	db     *gorm.DB
	cfg    *config.Config
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// setupTestDB menggunakan SQLite in-memory untuk testing
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

// setupApp wires the real router on top of sqlite and a temp upload dir.
func setupApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.SilenceLoggers()

	db := setupTestDB(t)
	cfg := &config.Config{
		JWTSecret:          "controller-test-secret",
		TokenExpiry:        time.Hour,
		UploadDirectory:    t.TempDir(),
		MaxUploadSizeBytes: 1024,
		ImageExtensions:    []string{"jpg", "jpeg", "png", "gif"},
		DocumentExtensions: []string{"pdf", "doc", "docx", "txt"},
		VideoExtensions:    []string{"mp4", "mov", "avi"},
		StorageDriver:      "local",
		AllowedOrigins:     []string{"*"},
		FeedPageSize:       100,
		EnableGraphQL:      true,
		EnableFileUploads:  true,
	}

	files, err := storage.NewLocalStore(cfg.UploadDirectory)
	require.NoError(t, err)

	hub := realtime.NewHub()
	auth := services.NewAuthService(db, utils.NewTokenManager(cfg.JWTSecret, cfg.TokenExpiry), nil, false)
	journals := services.NewJournalService(db, files, services.NewAttachmentPolicy(cfg), hub, cfg.FeedPageSize)
	notifications := services.NewNotificationService(db, hub, cfg.FeedPageSize)
	schema, err := graph.NewSchema(&graph.Resolver{Journals: journals, Notifications: notifications, Auth: auth})
	require.NoError(t, err)

	r := router.SetupRouter(router.Deps{
		Config:        cfg,
		Auth:          auth,
		Journals:      journals,
		Notifications: notifications,
		Hub:           hub,
		Schema:        &schema,
	})
	return &testApp{router: r, db: db, cfg: cfg}
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return a.send(req, token)
}

func (a *testApp) send(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// registerAndLogin creates the user and returns its token and id.
func (a *testApp) registerAndLogin(t *testing.T, username, userType string) (string, uint) {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username":  username,
		"password":  "password123",
		"user_type": userType,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(t, http.MethodPost, "/api/v1/auth/token", "", map[string]string{
		"username": username,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var login struct {
		AccessToken string `json:"access_token"`
		User        struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	decodeData(t, w, &login)
	return login.AccessToken, login.User.ID
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	env := decode(t, w)
	require.NoError(t, json.Unmarshal(env.Data, dst))
}
