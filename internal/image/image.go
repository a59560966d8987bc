package image

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/skybi/imagefx/internal/prompt"
)

// ErrEmptyPayload is returned when an image is constructed without any encoded image data
var ErrEmptyPayload = errors.New("encoded image data is required")

// GeneratedImage represents a single image produced by the generation endpoint
type GeneratedImage struct {
	Seed          int                `json:"seed"`
	Model         prompt.Model       `json:"model"`
	Prompt        string             `json:"prompt"`
	AspectRatio   prompt.AspectRatio `json:"aspect_ratio"`
	MediaID       string             `json:"media_id"`
	EncodedImage  string             `json:"encoded_image"`
	WorkflowID    string             `json:"workflow_id,omitempty"`
	FingerprintID string             `json:"fingerprint_id,omitempty"`
}

// New validates the given image data and returns it as a GeneratedImage
func New(data GeneratedImage) (*GeneratedImage, error) {
	if strings.TrimSpace(data.EncodedImage) == "" {
		return nil, ErrEmptyPayload
	}
	img := data
	return &img, nil
}

// Bytes decodes the base64 image payload
func (img *GeneratedImage) Bytes() ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(img.EncodedImage)
	if err != nil {
		return nil, fmt.Errorf("decode image payload: %w", err)
	}
	return raw, nil
}

// ToPrompt returns the prompt that reproduces this image (one image with the same seed, model and aspect ratio)
func (img *GeneratedImage) ToPrompt() prompt.Prompt {
	return prompt.Prompt{
		Text:        img.Prompt,
		Seed:        img.Seed,
		ImageCount:  1,
		AspectRatio: img.AspectRatio,
		Model:       img.Model,
	}.Normalize()
}

// Save writes the image into dir using the given file name (see SaveFile)
func (img *GeneratedImage) Save(name, dir string) (string, error) {
	return SaveFile(name, img.EncodedImage, dir)
}
