package image

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultExtension is appended to file names without an extension
const DefaultExtension = ".png"

// DefaultName generates a time-based file name (image-<unix millis>)
func DefaultName(now time.Time) string {
	return "image-" + strconv.FormatInt(now.UnixMilli(), 10)
}

// SaveFile decodes the base64 content and writes it to dir/name, creating dir if necessary.
// An empty name is replaced by DefaultName and names without an extension get DefaultExtension.
func SaveFile(name, base64Content, dir string) (string, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultName(time.Now())
	}
	if filepath.Ext(name) == "" {
		name += DefaultExtension
	}
	if dir == "" {
		dir = "."
	}

	data, err := base64.StdEncoding.DecodeString(base64Content)
	if err != nil {
		return "", fmt.Errorf("decode image content: %w", err)
	}

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return path, nil
}

// MimeTypeFromPath derives the image MIME type from the extension of path
func MimeTypeFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png", nil
	case ".jpg", ".jpeg":
		return "image/jpeg", nil
	case ".webp":
		return "image/webp", nil
	case ".gif":
		return "image/gif", nil
	default:
		return "", fmt.Errorf("unsupported image type %q", filepath.Ext(path))
	}
}

// ExtensionFromMimeType maps an image MIME type to a file extension, defaulting to DefaultExtension
func ExtensionFromMimeType(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return DefaultExtension
	}
}

// LoadFile reads an image file and returns its base64 payload together with its MIME type
func LoadFile(path string) (string, string, error) {
	mimeType, err := MimeTypeFromPath(path)
	if err != nil {
		return "", "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("read image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), mimeType, nil
}
