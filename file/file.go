// Package file normalizes the many shapes an upload can arrive in
// (multipart form, base64 payload, remote URL, local path) into one
// canonical, locally addressable file handle.
package file

import (
	"errors"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrFile is the category error for invalid or unreadable uploads. Wrap
// sites use %w so callers can match with errors.Is.
var ErrFile = errors.New("invalid upload")

// Extensions that are never accepted, regardless of the declared MIME type.
// "unknown" covers files whose extension could not be guessed at all.
var bannedExtensions = []string{"exe", "bat", "bin", "php", "sh", "unknown"}

// imageMimes maps the MIME types that go through the resize pipeline.
// Anything else is stored byte for byte.
var imageMimes = []string{
	"image/bmp",
	"image/gif",
	"image/jpeg",
	"image/pjpeg",
	"image/png",
	"image/webp",
}

// UploadedFile is the canonical representation of one upload. The temp
// bytes at TempPath belong to the attachment for the duration of a single
// save cycle and are removed once moved or discarded.
type UploadedFile struct {
	TempPath     string
	OriginalName string
	MimeType     string
	Size         int64
}

// IsImage reports whether the upload should go through the image transform
// step, based on the sniffed MIME type only.
func (f *UploadedFile) IsImage() bool {
	for _, m := range imageMimes {
		if f.MimeType == m {
			return true
		}
	}

	return false
}

// Extension returns the lowercased extension of the original name without
// the leading dot, or "" when there is none.
func (f *UploadedFile) Extension() string {
	return strings.TrimPrefix(filepath.Ext(f.OriginalName), ".")
}

// Basename returns the original name with its extension stripped.
func (f *UploadedFile) Basename() string {
	return strings.TrimSuffix(f.OriginalName, filepath.Ext(f.OriginalName))
}

var (
	whitespaceRuns = regexp.MustCompile(`\s+`)
	disallowed     = regexp.MustCompile(`[^A-Za-z0-9\-_.]`)
)

// SanitizeName makes an arbitrary client supplied file name safe for use in
// storage paths: URL decode, lowercase, whitespace runs become single
// dashes, everything outside [A-Za-z0-9-_.] is stripped.
func SanitizeName(name string) string {
	if decoded, err := url.QueryUnescape(name); err == nil {
		name = decoded
	}

	name = strings.ToLower(name)
	name = whitespaceRuns.ReplaceAllString(name, "-")

	return disallowed.ReplaceAllString(name, "")
}

func extensionBanned(ext string) bool {
	if ext == "" {
		ext = "unknown"
	}

	for _, banned := range bannedExtensions {
		if ext == banned {
			return true
		}
	}

	return false
}
