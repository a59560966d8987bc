package prompt

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultImageCount is the amount of images requested if none is set
	DefaultImageCount = 1

	// DefaultAspectRatio is the aspect ratio used if none is set
	DefaultAspectRatio = AspectRatioLandscape

	// DefaultModel is the model used if none is set
	DefaultModel = ModelImagen3

	tool = "IMAGE_FX"
)

var (
	// ErrEmptyText is returned if a prompt carries no description
	ErrEmptyText = errors.New("the prompt text must not be empty")

	// ErrInvalidImageCount is returned if a prompt requests a negative amount of images
	ErrInvalidImageCount = errors.New("the image count must be positive")
)

// Prompt describes the image(s) to generate.
// Zero values of ImageCount, AspectRatio and Model are replaced by their defaults through Normalize.
type Prompt struct {
	Text        string
	Seed        int
	ImageCount  int
	AspectRatio AspectRatio
	Model       Model
}

// New creates a new prompt with the default settings
func New(text string) Prompt {
	return Prompt{Text: text}.Normalize()
}

// Normalize returns a copy of the prompt with every unset field replaced by its default
func (prompt Prompt) Normalize() Prompt {
	prompt.Text = strings.TrimSpace(prompt.Text)
	if prompt.ImageCount == 0 {
		prompt.ImageCount = DefaultImageCount
	}
	if prompt.AspectRatio == "" {
		prompt.AspectRatio = DefaultAspectRatio
	}
	if prompt.Model == "" {
		prompt.Model = DefaultModel
	}
	return prompt
}

// Validate checks whether the prompt can be sent to the generation endpoint
func (prompt Prompt) Validate() error {
	if strings.TrimSpace(prompt.Text) == "" {
		return ErrEmptyText
	}
	if prompt.ImageCount < 0 {
		return ErrInvalidImageCount
	}
	if prompt.AspectRatio != "" && !prompt.AspectRatio.Valid() {
		return errors.New("unknown aspect ratio " + string(prompt.AspectRatio))
	}
	if prompt.Model != "" && !prompt.Model.Valid() {
		return errors.New("unknown model " + string(prompt.Model))
	}
	return nil
}

// SessionID builds the client session identifier the web client sends along with every request
func SessionID(now time.Time) string {
	return ";" + strconv.FormatInt(now.UnixMilli(), 10)
}

type requestBody struct {
	UserInput     userInput     `json:"userInput"`
	ClientContext clientContext `json:"clientContext"`
	ModelInput    modelInput    `json:"modelInput"`
	AspectRatio   AspectRatio   `json:"aspectRatio"`
}

type userInput struct {
	CandidatesCount int      `json:"candidatesCount"`
	Prompts         []string `json:"prompts"`
	Seed            int      `json:"seed"`
}

type clientContext struct {
	SessionID string `json:"sessionId"`
	Tool      string `json:"tool"`
}

type modelInput struct {
	ModelNameType Model `json:"modelNameType"`
}

// Body serializes the normalized prompt into the request body of the generation endpoint.
// The output only depends on the prompt and the given session ID.
func (prompt Prompt) Body(sessionID string) ([]byte, error) {
	normalized := prompt.Normalize()
	return json.Marshal(requestBody{
		UserInput: userInput{
			CandidatesCount: normalized.ImageCount,
			Prompts:         []string{normalized.Text},
			Seed:            normalized.Seed,
		},
		ClientContext: clientContext{
			SessionID: sessionID,
			Tool:      tool,
		},
		ModelInput: modelInput{
			ModelNameType: normalized.Model,
		},
		AspectRatio: normalized.AspectRatio,
	})
}
