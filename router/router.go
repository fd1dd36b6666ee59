package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"
	"github.com/yeremiapane/school-journal/config"
	"github.com/yeremiapane/school-journal/controllers"
	"github.com/yeremiapane/school-journal/middlewares"
	"github.com/yeremiapane/school-journal/realtime"
	"github.com/yeremiapane/school-journal/services"
)

// Deps holds everything the routes are built from.
type Deps struct {
	Config        *config.Config
	Auth          *services.AuthService
	Journals      *services.JournalService
	Notifications *services.NotificationService
	Hub           *realtime.Hub
	// Schema is nil when GraphQL is disabled.
	Schema *graphql.Schema
}

func SetupRouter(deps Deps) *gin.Engine {
	cfg := deps.Config

	r := gin.New()
	r.Use(gin.Recovery())

	// Apply security middlewares
	r.Use(middlewares.SecurityHeaders("/uploads"))
	r.Use(middlewares.CORSMiddlewares(cfg.AllowedOrigins))
	r.Use(middlewares.LoggerMiddleware())

	// file lokal hanya dilayani untuk storage driver local
	if cfg.StorageDriver == "local" {
		r.Static("/uploads", cfg.UploadDirectory)
	}

	// Inisialisasi controller
	userCtrl := controllers.NewUserController(deps.Auth)
	journalCtrl := controllers.NewJournalController(deps.Journals, cfg.MaxUploadSizeBytes, cfg.EnableFileUploads)
	notificationCtrl := controllers.NewNotificationController(deps.Notifications)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	api := r.Group(config.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", userCtrl.Register)
		// Rate limiter untuk login
		auth.POST("/token", middlewares.NewStrictRateLimiter(), userCtrl.Token)
	}

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	authed := api.Group("/")
	authed.Use(middlewares.AuthMiddleware(deps.Auth))
	{
		authed.POST("/auth/logout", userCtrl.Logout)
		authed.GET("/auth/status", userCtrl.Status)
		authed.GET("/users/:user_id", userCtrl.GetUser)

		authed.GET("/journals", journalCtrl.GetJournals)
		authed.GET("/journals/:journal_id", journalCtrl.GetJournalByID)

		if deps.Schema != nil {
			graphCtrl := controllers.NewGraphQLController(*deps.Schema)
			authed.POST("/graphql", graphCtrl.Query)
		}
	}

	// -- TEACHER --
	teacher := api.Group("/journals")
	teacher.Use(middlewares.AuthMiddleware(deps.Auth), middlewares.RequireTeacher(), middlewares.LogJournalChange())
	{
		teacher.POST("", journalCtrl.CreateJournal)
		teacher.PUT("/:journal_id", journalCtrl.UpdateJournal)
		teacher.DELETE("/:journal_id", journalCtrl.DeleteJournal)
		teacher.POST("/:journal_id/publish", journalCtrl.PublishJournal)
		teacher.POST("/:journal_id/attachments", middlewares.UploadLimit(cfg.MaxUploadSizeBytes), journalCtrl.AddAttachment)
		teacher.DELETE("/:journal_id/attachments/:attachment_id", journalCtrl.DeleteAttachment)
	}

	// -- STUDENT --
	student := api.Group("/notifications")
	student.Use(middlewares.AuthMiddleware(deps.Auth), middlewares.RequireStudent())
	{
		student.GET("", notificationCtrl.GetNotifications)
		student.GET("/unread", notificationCtrl.GetUnreadNotifications)
		student.GET("/unread/count", notificationCtrl.GetUnreadCount)
		student.PUT("/read-all", notificationCtrl.MarkAllAsRead)
		student.PUT("/:notification_id/read", notificationCtrl.MarkAsRead)
	}

	// WebSocket notifikasi siswa
	if deps.Hub != nil {
		socket := controllers.NewNotificationSocket(deps.Hub, deps.Notifications, cfg.AllowedOrigins)
		api.GET("/ws/notifications", middlewares.WebSocketAuthMiddleware(deps.Auth), socket.Handle)
	}

	return r
}
