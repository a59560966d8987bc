package history

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/skybi/imagefx/internal/image"
	"github.com/skybi/imagefx/internal/prompt"
)

// DefaultLimit is the amount of history entries returned if no limit is given
const DefaultLimit = 50

// Prompt represents a recorded generation request
type Prompt struct {
	ID          uuid.UUID          `json:"id"`
	UserID      uuid.UUID          `json:"user_id"`
	Text        string             `json:"text"`
	Seed        int                `json:"seed"`
	ImageCount  int                `json:"image_count"`
	AspectRatio prompt.AspectRatio `json:"aspect_ratio"`
	Model       prompt.Model       `json:"model"`
	WorkflowID  string             `json:"workflow_id,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// Image represents a recorded generated image.
// PromptText is filled in from the corresponding prompt if one was recorded.
type Image struct {
	ID            uuid.UUID          `json:"id"`
	UserID        uuid.UUID          `json:"user_id"`
	PromptID      *uuid.UUID         `json:"prompt_id,omitempty"`
	PromptText    string             `json:"prompt_text,omitempty"`
	MediaID       string             `json:"media_id"`
	EncodedImage  string             `json:"encoded_image"`
	Seed          int                `json:"seed"`
	Model         prompt.Model       `json:"model"`
	AspectRatio   prompt.AspectRatio `json:"aspect_ratio"`
	FingerprintID string             `json:"fingerprint_id,omitempty"`
	WorkflowID    string             `json:"workflow_id,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

// Caption represents a recorded image caption
type Caption struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ImagePath string    `json:"image_path"`
	ImageType string    `json:"image_type"`
	Text      string    `json:"text"`
	MediaID   string    `json:"media_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Generation is used to record a prompt together with the images generated for it
type Generation struct {
	UserID uuid.UUID
	Prompt prompt.Prompt
	Images []*image.GeneratedImage
}

// Captions is used to record the captions generated for a single image
type Captions struct {
	UserID    uuid.UUID
	ImagePath string
	ImageType string
	Texts     []string
}

// Repository defines the history repository API
type Repository interface {
	// CreateGeneration records a prompt and its images atomically
	CreateGeneration(ctx context.Context, gen *Generation) (*Prompt, []*Image, error)

	// CreateCaptions records the captions of an image
	CreateCaptions(ctx context.Context, create *Captions) ([]*Caption, error)

	// GetPrompts retrieves the latest prompts of a user (newest first).
	// If limit is 0, DefaultLimit is used.
	GetPrompts(ctx context.Context, userID uuid.UUID, limit uint64) ([]*Prompt, error)

	// GetImages retrieves the latest generated images of a user (newest first).
	// If limit is 0, DefaultLimit is used.
	GetImages(ctx context.Context, userID uuid.UUID, limit uint64) ([]*Image, error)

	// GetCaptions retrieves the latest captions of a user (newest first).
	// If limit is 0, DefaultLimit is used.
	GetCaptions(ctx context.Context, userID uuid.UUID, limit uint64) ([]*Caption, error)
}

// NormalizeLimit replaces a zero limit by DefaultLimit
func NormalizeLimit(limit uint64) uint64 {
	if limit == 0 {
		return DefaultLimit
	}
	return limit
}
