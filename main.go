package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/yeremiapane/school-journal/config"
	"github.com/yeremiapane/school-journal/database"
	"github.com/yeremiapane/school-journal/graph"
	"github.com/yeremiapane/school-journal/realtime"
	"github.com/yeremiapane/school-journal/router"
	"github.com/yeremiapane/school-journal/services"
	"github.com/yeremiapane/school-journal/storage"
	"github.com/yeremiapane/school-journal/utils"
)

func init() {
	// Load .env file di awal sebelum apapun
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading: %v", err)
	}

	utils.InitLogger()
}

func main() {
	cfg := config.Load()
	utils.SetDebug(cfg.Debug)

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize DB
	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")

	files, err := newFileStore(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to set up attachment storage: %v", err)
	}

	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.TokenExpiry)
	auth := services.NewAuthService(db, tokens, newBlacklist(cfg), cfg.DemoAuth)
	if cfg.DemoAuth {
		utils.InfoLogger.Warn("DEMO_AUTH is on: any password is accepted and unknown users are created on login")
	}

	hub := realtime.NewHub()
	journals := services.NewJournalService(db, files, services.NewAttachmentPolicy(cfg), hub, cfg.FeedPageSize)
	notifications := services.NewNotificationService(db, hub, cfg.FeedPageSize)

	deps := router.Deps{
		Config:        cfg,
		Auth:          auth,
		Journals:      journals,
		Notifications: notifications,
		Hub:           hub,
	}
	if cfg.EnableGraphQL {
		schema, err := graph.NewSchema(&graph.Resolver{Journals: journals, Notifications: notifications, Auth: auth})
		if err != nil {
			utils.ErrorLogger.Fatalf("Failed to build GraphQL schema: %v", err)
		}
		deps.Schema = &schema
	}

	// Setup router
	r := router.SetupRouter(deps)
	r.SetTrustedProxies([]string{"127.0.0.1"})

	utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func newFileStore(cfg *config.Config) (storage.FileStore, error) {
	switch cfg.StorageDriver {
	case "supabase":
		utils.InfoLogger.Printf("Storing attachments in Supabase bucket %s", cfg.SupabaseBucket)
		return storage.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseBucket)
	default:
		utils.InfoLogger.Printf("Storing attachments in %s", cfg.UploadDirectory)
		return storage.NewLocalStore(cfg.UploadDirectory)
	}
}

// newBlacklist uses Redis when REDIS_URI is set and reachable, and process
// memory otherwise.
func newBlacklist(cfg *config.Config) utils.TokenBlacklist {
	if cfg.RedisURI == "" {
		return utils.NewMemoryBlacklist()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := utils.ConnectRedis(ctx, cfg.RedisURI)
	if err != nil {
		utils.ErrorLogger.Errorf("Redis unavailable, falling back to in-memory token blacklist: %v", err)
		return utils.NewMemoryBlacklist()
	}
	utils.InfoLogger.Println("Token blacklist backed by Redis")
	return utils.NewRedisBlacklist(client)
}
