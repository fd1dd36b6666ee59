package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const APIPrefix = "/api/v1"

// Config is read once at startup and handed to every constructor that needs
// it. Nothing in here is consulted through package globals.
type Config struct {
	Port    string
	GinMode string
	Debug   bool

	DBDriver string // mysql, postgres or sqlite
	DBDSN    string

	JWTSecret   string
	TokenExpiry time.Duration
	DemoAuth    bool

	UploadDirectory    string
	MaxUploadSizeBytes int64
	ImageExtensions    []string
	DocumentExtensions []string
	VideoExtensions    []string

	StorageDriver  string // local or supabase
	SupabaseURL    string
	SupabaseKey    string
	SupabaseBucket string

	RedisURI       string
	AllowedOrigins []string
	FeedPageSize   int

	EnableGraphQL     bool
	EnableFileUploads bool
}

func Load() *Config {
	return &Config{
		Port:    getEnv("PORT", "8000"),
		GinMode: getEnv("GIN_MODE", "debug"),
		Debug:   getBool("DEBUG", false),

		DBDriver: strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		DBDSN:    getEnv("DB_DSN", ""),

		JWTSecret:   getEnv("JWT_SECRET", "your-super-secret-key-change-this-in-production"),
		TokenExpiry: time.Duration(getInt("ACCESS_TOKEN_EXPIRE_MINUTES", 1440)) * time.Minute,
		DemoAuth:    getBool("DEMO_AUTH", false),

		UploadDirectory:    getEnv("UPLOAD_DIRECTORY", "./uploads"),
		MaxUploadSizeBytes: int64(getInt("MAX_UPLOAD_SIZE_MB", 5)) * 1024 * 1024,
		ImageExtensions:    getList("IMAGE_EXTENSIONS", []string{"jpg", "jpeg", "png", "gif"}),
		DocumentExtensions: getList("DOCUMENT_EXTENSIONS", []string{"pdf", "doc", "docx", "txt"}),
		VideoExtensions:    getList("VIDEO_EXTENSIONS", []string{"mp4", "mov", "avi"}),

		StorageDriver:  strings.ToLower(getEnv("STORAGE_DRIVER", "local")),
		SupabaseURL:    getEnv("SUPABASE_URL", ""),
		SupabaseKey:    getEnv("SUPABASE_KEY", ""),
		SupabaseBucket: getEnv("SUPABASE_BUCKET", "uploads"),

		RedisURI:       getEnv("REDIS_URI", ""),
		AllowedOrigins: getList("ALLOWED_ORIGINS", []string{"*"}),
		FeedPageSize:   getInt("FEED_PAGE_SIZE", 100),

		EnableGraphQL:     getBool("ENABLE_GRAPHQL", true),
		EnableFileUploads: getBool("ENABLE_FILE_UPLOADS", true),
	}
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return n
}

func getBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return b
}

// getList splits a comma separated value, lower-casing and dropping blanks.
func getList(key string, defaultValue []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
