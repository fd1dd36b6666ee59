package middlewares

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/school-journal/utils"
)

// multipartSlack is allowed on top of the file size for boundaries, part
// headers and the other form fields.
const multipartSlack = 64 * 1024

// UploadLimit caps the request body of upload endpoints at maxBytes plus the
// multipart framing. The per-file size is checked by the handler.
func UploadLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := maxBytes + multipartSlack
		if c.Request.ContentLength > limit {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"status":  false,
				"message": "File too large",
			})
			c.Abort()
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// LogJournalChange logs mutations of a journal and whether they succeeded.
func LogJournalChange() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		journalID := c.Param("journal_id")

		c.Next()

		status := c.Writer.Status()
		if status < 400 {
			utils.InfoLogger.Infof("Journal change %s %s (journal_id=%s) done in %v", c.Request.Method, c.FullPath(), journalID, time.Since(start))
		} else {
			utils.ErrorLogger.Errorf("Journal change %s %s (journal_id=%s) failed with %d", c.Request.Method, c.FullPath(), journalID, status)
		}
	}
}
