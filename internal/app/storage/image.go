package storage

import (
	"path/filepath"
	"strings"
	"time"

	"vcturbo/internal/pkg/errs"
)

const (
	// MaxProfilePicSize is the maximum allowed profile picture size in bytes.
	MaxProfilePicSize = 5 * 1024 * 1024

	// PresignedURLDuration is how long an upload URL stays valid.
	PresignedURLDuration = 5 * time.Minute

	// ProfilePicPrefix is the key prefix of profile pictures.
	ProfilePicPrefix = "profile-pics"
)

// extToMIME maps the accepted image extensions to their MIME type.
var extToMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// ValidateImage checks that an upload is a supported image of acceptable size
// whose extension agrees with its MIME type. It returns the lower-cased extension.
func ValidateImage(fileName, mimeType string, fileSize int64) (string, *errs.CustomError) {
	if fileSize <= 0 {
		return "", errs.NewError(errs.ErrInvalidParams)
	}
	if fileSize > MaxProfilePicSize {
		return "", errs.NewError(errs.ErrFileTooLarge)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	expected, ok := extToMIME[ext]
	if !ok || expected != strings.ToLower(mimeType) {
		return "", errs.NewError(errs.ErrFileTypeNotAllowed)
	}

	return ext, nil
}
