package services

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// defaultUploadTimeout caps a single upload to a media host.
const defaultUploadTimeout = 60 * time.Second

// MediaFile is one uploaded binary as received from the client.
type MediaFile struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// MediaUploader stores a binary with a media host and returns its durable public URL.
type MediaUploader interface {
	Upload(ctx context.Context, file MediaFile) (string, error)
	Provider() string
}

// objectName keeps the client's extension and replaces the rest with a fresh id so two
// uploads of "screenshot.png" never collide.
func objectName(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	return uuid.NewString() + ext
}
