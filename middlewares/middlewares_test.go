package middlewares

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/yeremiapane/school-journal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiterPerIP(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Now()

	assert.True(t, rl.allow("10.0.0.1", now))
	assert.True(t, rl.allow("10.0.0.1", now))
	assert.False(t, rl.allow("10.0.0.1", now))
	assert.True(t, rl.allow("10.0.0.2", now), "other clients keep their own budget")

	assert.True(t, rl.allow("10.0.0.1", now.Add(31*time.Second)), "tokens refill over the interval")
}

func TestRateLimitHandler(t *testing.T) {
	r := gin.New()
	r.POST("/token", NewRateLimiter(1, time.Minute).RateLimit(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	send := func() int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/token", nil))
		return w.Code
	}
	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
}

func TestRoleCheck(t *testing.T) {
	tests := []struct {
		name string
		role string
		want int
	}{
		{"teacher passes", "teacher", http.StatusOK},
		{"student refused", "student", http.StatusForbidden},
		{"no role is unauthorized", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/", func(c *gin.Context) {
				if tt.role != "" {
					c.Set(ContextRole, tt.role)
				}
				c.Next()
			}, RoleCheck(models.RoleTeacher), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestUploadLimit(t *testing.T) {
	r := gin.New()
	r.POST("/upload", UploadLimit(10), func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	t.Run("declared length over file size plus framing", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/upload", nil)
		req.ContentLength = 10 + multipartSlack + 1
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("framing on top of a full size file passes", func(t *testing.T) {
		w := httptest.NewRecorder()
		body := strings.Repeat("x", 10+1024)
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(body)))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("undeclared length is still capped", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(strings.Repeat("x", 10+multipartSlack+1)))
		req.ContentLength = -1
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("empty body", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/upload", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders("/uploads"))
	r.GET("/api/v1/journals", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/uploads/:name", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/journals", nil))
	assert.Equal(t, apiContentPolicy, w.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"), "plain http gets no HSTS")

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/uploads/photo.png", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	r.ServeHTTP(w, req)
	assert.Equal(t, uploadContentPolicy, w.Header().Get("Content-Security-Policy"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "img-src 'self'")
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploadsfoo", nil))
	assert.Equal(t, apiContentPolicy, w.Header().Get("Content-Security-Policy"))
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddlewares([]string{"http://school.test"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://school.test")
	r.ServeHTTP(w, req)
	assert.Equal(t, "http://school.test", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.test")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
