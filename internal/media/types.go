package media

import (
	"path/filepath"
	"strings"
	"time"
)

// File is one image found by the scanner.
type File struct {
	// Path is relative to the media directory, using forward slashes. It is
	// also the gallery item id.
	Path     string    `json:"path"`
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"modTime"`
	MimeType string    `json:"mimeType"`

	// Width and Height are the native dimensions, zero when the header could
	// not be read.
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

// ImageExtensions maps file extensions to whether they can be decoded.
var ImageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".webp": true, ".tiff": true, ".tif": true,
}

var mimeTypes = map[string]string{
	".jpg": "image/jpeg", ".jpeg": "image/jpeg", ".png": "image/png",
	".gif": "image/gif", ".bmp": "image/bmp", ".webp": "image/webp",
	".tiff": "image/tiff", ".tif": "image/tiff",
}

// IsImage reports whether name has a supported image extension.
func IsImage(name string) bool {
	return ImageExtensions[strings.ToLower(filepath.Ext(name))]
}

// MimeType returns the MIME type for name, or application/octet-stream.
func MimeType(name string) string {
	if mime, ok := mimeTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return mime
	}
	return "application/octet-stream"
}
