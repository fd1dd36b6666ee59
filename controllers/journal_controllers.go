package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/school-journal/middlewares"
	"github.com/yeremiapane/school-journal/models"
	"github.com/yeremiapane/school-journal/services"
	"github.com/yeremiapane/school-journal/utils"
)

type JournalController struct {
	Journals      *services.JournalService
	MaxUploadSize int64
	// UploadsEnabled switches off file attachments; url attachments still work.
	UploadsEnabled bool
}

func NewJournalController(journals *services.JournalService, maxUploadSize int64, uploadsEnabled bool) *JournalController {
	return &JournalController{Journals: journals, MaxUploadSize: maxUploadSize, UploadsEnabled: uploadsEnabled}
}

type journalRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	StudentIDs  *[]uint    `json:"student_ids"`
	PublishedAt *time.Time `json:"published_at"`
}

// GetJournals -> feed for the caller
func (jc *JournalController) GetJournals(c *gin.Context) {
	caller, _ := middlewares.CallerFrom(c)
	skip, limit := pageParams(c)

	journals, err := jc.Journals.ListFeed(c.Request.Context(), caller, skip, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of journals", journals)
}

func (jc *JournalController) GetJournalByID(c *gin.Context) {
	id, ok := parseID(c, "journal_id")
	if !ok {
		return
	}
	caller, _ := middlewares.CallerFrom(c)

	journal, err := jc.Journals.GetJournal(c.Request.Context(), caller, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Journal detail", journal)
}

func (jc *JournalController) CreateJournal(c *gin.Context) {
	var req journalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	caller, _ := middlewares.CallerFrom(c)

	in := services.JournalInput{
		Title:       req.Title,
		Description: req.Description,
		PublishedAt: req.PublishedAt,
	}
	if req.StudentIDs != nil {
		in.StudentIDs = *req.StudentIDs
	}

	journal, err := jc.Journals.CreateJournal(c.Request.Context(), caller, in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Journal created", journal)
}

func (jc *JournalController) UpdateJournal(c *gin.Context) {
	id, ok := parseID(c, "journal_id")
	if !ok {
		return
	}
	var req journalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	caller, _ := middlewares.CallerFrom(c)

	journal, err := jc.Journals.UpdateJournal(c.Request.Context(), caller, id, services.JournalUpdate{
		Title:       req.Title,
		Description: req.Description,
		StudentIDs:  req.StudentIDs,
		PublishedAt: req.PublishedAt,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Journal updated", journal)
}

func (jc *JournalController) DeleteJournal(c *gin.Context) {
	id, ok := parseID(c, "journal_id")
	if !ok {
		return
	}
	caller, _ := middlewares.CallerFrom(c)

	if err := jc.Journals.DeleteJournal(c.Request.Context(), caller, id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PublishJournal -> body is optional; {"published_at": ...} schedules
func (jc *JournalController) PublishJournal(c *gin.Context) {
	id, ok := parseID(c, "journal_id")
	if !ok {
		return
	}
	var req struct {
		PublishedAt *time.Time `json:"published_at"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
	}
	caller, _ := middlewares.CallerFrom(c)

	journal, err := jc.Journals.PublishJournal(c.Request.Context(), caller, id, req.PublishedAt)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Journal published", journal)
}

// AddAttachment takes multipart form fields attachment_type and either file
// or, for url attachments, url.
func (jc *JournalController) AddAttachment(c *gin.Context) {
	id, ok := parseID(c, "journal_id")
	if !ok {
		return
	}
	caller, _ := middlewares.CallerFrom(c)

	attachmentType := models.AttachmentType(strings.ToLower(c.PostForm("attachment_type")))
	in := services.NewAttachment{Type: attachmentType}

	if attachmentType == models.AttachmentURL {
		in.Filename = strings.TrimSpace(c.PostForm("url"))
	} else {
		if !jc.UploadsEnabled {
			utils.RespondError(c, http.StatusBadRequest, errors.New("File uploads are disabled"))
			return
		}
		file, err := c.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				respondServiceError(c, err)
				return
			}
			utils.RespondError(c, http.StatusBadRequest, errors.New("file is required"))
			return
		}
		if jc.MaxUploadSize > 0 && file.Size > jc.MaxUploadSize {
			utils.RespondError(c, http.StatusRequestEntityTooLarge, errors.New("File too large"))
			return
		}

		src, err := file.Open()
		if err != nil {
			respondServiceError(c, err)
			return
		}
		defer src.Close()
		in.Filename = file.Filename
		in.Content = src
	}

	attachment, err := jc.Journals.AddAttachment(c.Request.Context(), caller, id, in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Attachment added", attachment)
}

func (jc *JournalController) DeleteAttachment(c *gin.Context) {
	journalID, ok := parseID(c, "journal_id")
	if !ok {
		return
	}
	attachmentID, ok := parseID(c, "attachment_id")
	if !ok {
		return
	}
	caller, _ := middlewares.CallerFrom(c)

	if err := jc.Journals.DeleteAttachment(c.Request.Context(), caller, journalID, attachmentID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
