// Package storage stores uploaded blog images and returns their public URLs.
// Images go to S3 in production; a local directory can stand in during
// development.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // GIF dimensions
	_ "image/jpeg" // JPEG dimensions
	_ "image/png"  // PNG dimensions
	"regexp"
	"time"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp" // WebP dimensions
)

// ImageStore puts an object and reports where it can be fetched.
type ImageStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// ImageInfo describes an uploaded file.
type ImageInfo struct {
	ContentType string `json:"contentType"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)

// SanitizeFilename replaces every character outside [a-zA-Z0-9_.-] with "-".
func SanitizeFilename(name string) string {
	return unsafeChars.ReplaceAllString(name, "-")
}

// ObjectKey builds "yyyy/mm/<id>-<sanitized name>".
func ObjectKey(now time.Time, id, filename string) string {
	return fmt.Sprintf("%04d/%02d/%s-%s", now.Year(), int(now.Month()), id, SanitizeFilename(filename))
}

// Inspect sniffs the content type and, for decodable images, the pixel size.
// declared is used when sniffing finds nothing more specific.
func Inspect(data []byte, declared string) ImageInfo {
	info := ImageInfo{ContentType: declared}
	if sniffed := mimetype.Detect(data); !sniffed.Is("application/octet-stream") || declared == "" {
		info.ContentType = sniffed.String()
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		info.Width, info.Height = cfg.Width, cfg.Height
	}
	return info
}
