package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_DRIVER", "ACCESS_TOKEN_EXPIRE_MINUTES", "IMAGE_EXTENSIONS", "ENABLE_GRAPHQL"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, 24*time.Hour, cfg.TokenExpiry)
	assert.Equal(t, []string{"jpg", "jpeg", "png", "gif"}, cfg.ImageExtensions)
	assert.Equal(t, int64(5*1024*1024), cfg.MaxUploadSizeBytes)
	assert.True(t, cfg.EnableGraphQL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("IMAGE_EXTENSIONS", " PNG, webp ,,")
	t.Setenv("ENABLE_GRAPHQL", "false")
	t.Setenv("FEED_PAGE_SIZE", "not-a-number")

	cfg := Load()

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, []string{"png", "webp"}, cfg.ImageExtensions)
	assert.False(t, cfg.EnableGraphQL)
	assert.Equal(t, 100, cfg.FeedPageSize)
}

func TestDialectorForUnknownDriver(t *testing.T) {
	_, err := dialectorFor("oracle", "")
	assert.Error(t, err)
}
