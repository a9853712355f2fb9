package session

import (
	"fmt"
	"mime"
	"strings"

	"github.com/dunamismax/imagetools/internal/domain"
	"github.com/gabriel-vasile/mimetype"
)

const DefaultMaxUploadBytes int64 = 10 << 20

var acceptedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
}

var typeAliases = map[string]string{
	"image/jpg":      "image/jpeg",
	"image/pjpeg":    "image/jpeg",
	"image/x-png":    "image/png",
	"image/x-ms-bmp": "image/bmp",
	"image/x-bmp":    "image/bmp",
}

// Upload is a raw file handed over by the file input surface.
type Upload struct {
	Filename     string
	DeclaredType string
	Data         []byte
}

// AcceptedTypes lists the content types Upload accepts.
func AcceptedTypes() []string {
	return []string{"image/jpeg", "image/png", "image/gif", "image/webp", "image/bmp"}
}

const (
	rejectEmpty    = "empty"
	rejectTooLarge = "too_large"
	rejectType     = "type"
)

// validateUpload checks the size ceiling, the declared type and the sniffed
// content type. It returns the sniffed content type, or a reject reason used
// as a metric label.
func validateUpload(u Upload, maxBytes int64) (string, string, error) {
	if len(u.Data) == 0 {
		return "", rejectEmpty, fmt.Errorf("%w: file is empty", domain.ErrUploadRejected)
	}
	if maxBytes > 0 && int64(len(u.Data)) > maxBytes {
		return "", rejectTooLarge, fmt.Errorf("%w: %w: %d bytes exceeds %d", domain.ErrUploadRejected, domain.ErrUploadTooLarge, len(u.Data), maxBytes)
	}

	declared := normalizeContentType(u.DeclaredType)
	if declared == "application/octet-stream" {
		declared = ""
	}
	if declared != "" && !acceptedTypes[declared] {
		return "", rejectType, fmt.Errorf("%w: content type %s is not accepted", domain.ErrUploadRejected, declared)
	}

	sniffed := normalizeContentType(mimetype.Detect(u.Data).String())
	if !acceptedTypes[sniffed] {
		return "", rejectType, fmt.Errorf("%w: file content is %s, not a supported image", domain.ErrUploadRejected, sniffed)
	}

	return sniffed, "", nil
}

func normalizeContentType(ct string) string {
	ct = strings.TrimSpace(ct)
	if ct == "" {
		return ""
	}
	if parsed, _, err := mime.ParseMediaType(ct); err == nil {
		ct = parsed
	}
	ct = strings.ToLower(ct)
	if alias, ok := typeAliases[ct]; ok {
		return alias
	}
	return ct
}
