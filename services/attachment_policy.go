package services

import (
	"strings"

	"github.com/yeremiapane/school-journal/config"
	"github.com/yeremiapane/school-journal/models"
)

// AttachmentPolicy lists the file extensions each attachment type accepts.
// A type that is present with a nil list (url) skips the extension check; a
// type that is absent is rejected.
type AttachmentPolicy struct {
	Extensions map[models.AttachmentType][]string
}

// NewAttachmentPolicy maps attachment types onto the configured extension
// categories: image to images, video to videos and pdf to documents.
func NewAttachmentPolicy(cfg *config.Config) AttachmentPolicy {
	return AttachmentPolicy{
		Extensions: map[models.AttachmentType][]string{
			models.AttachmentImage: cfg.ImageExtensions,
			models.AttachmentVideo: cfg.VideoExtensions,
			models.AttachmentPDF:   cfg.DocumentExtensions,
			models.AttachmentURL:   nil,
		},
	}
}

// Validate checks type and filename and returns the lower-cased extension.
func (p AttachmentPolicy) Validate(attachmentType models.AttachmentType, filename string) (string, error) {
	allowed, known := p.Extensions[attachmentType]
	if !known {
		return "", newValidationError(ErrInvalidType, "Invalid attachment type %q", attachmentType)
	}
	if attachmentType == models.AttachmentURL {
		return "", nil
	}

	ext := Extension(filename)
	for _, a := range allowed {
		if strings.EqualFold(a, ext) {
			return ext, nil
		}
	}
	return "", newValidationError(ErrInvalidExtension, "File extension '.%s' not allowed for %s", ext, attachmentType)
}

// Extension returns the text after the last dot, lower-cased, or "" when
// the name has no dot.
func Extension(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}
