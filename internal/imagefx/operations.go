package imagefx

import (
	"context"
	"net/http"
	"strings"

	"github.com/skybi/imagefx/internal/image"
	"github.com/skybi/imagefx/internal/prompt"
	"github.com/skybi/imagefx/internal/response"
	"github.com/skybi/imagefx/internal/retry"
)

// GenerateImage generates images for the given prompt.
// Failed upstream calls are re-attempted up to maxRetries times; the session is only refreshed in between if it expired.
func (client *Client) GenerateImage(ctx context.Context, p prompt.Prompt, maxRetries int) ([]*image.GeneratedImage, error) {
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, &response.GenerationError{Message: "invalid prompt", Cause: err}
	}
	body, err := p.Body(prompt.SessionID(client.now()))
	if err != nil {
		return nil, &response.GenerationError{Message: "could not serialize the prompt", Cause: err}
	}

	policy := retry.Policy{
		MaxRetries: maxRetries,
		Retryable:  retryableCall,
		OnRetry:    client.logRetry("generate"),
	}
	raw, err := retry.Do(ctx, policy, func(ctx context.Context) (string, error) {
		return client.authenticatedCall(ctx, http.MethodPost, client.endpoints.Generate, body)
	})
	if err != nil {
		return nil, err
	}
	return response.ParseGeneratedImages(raw)
}

// GenerateImageFromText generates images for a plain text description using the default prompt settings
func (client *Client) GenerateImageFromText(ctx context.Context, text string, maxRetries int) ([]*image.GeneratedImage, error) {
	return client.GenerateImage(ctx, prompt.New(text), maxRetries)
}

// Regenerate generates a single new image using the prompt, seed, model and aspect ratio of img
func (client *Client) Regenerate(ctx context.Context, img *image.GeneratedImage, maxRetries int) ([]*image.GeneratedImage, error) {
	return client.GenerateImage(ctx, img.ToPrompt(), maxRetries)
}

// GetImageByID fetches a previously generated image by its media identifier
func (client *Client) GetImageByID(ctx context.Context, id string) (*image.GeneratedImage, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, &response.FetchError{Message: "an image ID is required"}
	}
	query, err := response.FetchMediaQuery(id)
	if err != nil {
		return nil, &response.FetchError{Message: "could not build the fetch query", Cause: err}
	}

	raw, err := client.authenticatedCall(ctx, http.MethodGet, client.endpoints.Fetch+"?"+query, nil)
	if err != nil {
		return nil, err
	}
	return response.ParseImageByID(raw)
}

// GenerateCaptions requests count captions describing the given base64 encoded image.
// mimeType may be a full MIME type (image/png) or a bare image type (png).
func (client *Client) GenerateCaptions(ctx context.Context, imageBase64, mimeType string, count int) ([]string, error) {
	imageBase64 = strings.TrimSpace(imageBase64)
	if imageBase64 == "" {
		return nil, &response.CaptionError{Message: "an image is required"}
	}
	if count < 1 {
		count = 1
	}
	body, err := response.CaptionBody(prompt.SessionID(client.now()), DataURI(mimeType, imageBase64), count)
	if err != nil {
		return nil, &response.CaptionError{Message: "could not build the caption request", Cause: err}
	}

	raw, err := client.authenticatedCall(ctx, http.MethodPost, client.endpoints.Caption, body)
	if err != nil {
		return nil, err
	}
	return response.ParseCaptions(raw)
}

// NormalizeMimeType turns bare image types like "png" into full MIME types; empty input yields image/png
func NormalizeMimeType(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	switch {
	case mimeType == "":
		return "image/png"
	case strings.Contains(mimeType, "/"):
		return mimeType
	case mimeType == "jpg":
		return "image/jpeg"
	default:
		return "image/" + mimeType
	}
}

// DataURI builds the data URI carrying a base64 encoded image
func DataURI(mimeType, imageBase64 string) string {
	return "data:" + NormalizeMimeType(mimeType) + ";base64," + imageBase64
}
