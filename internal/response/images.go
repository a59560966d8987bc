package response

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/skybi/imagefx/internal/image"
	"github.com/skybi/imagefx/internal/prompt"
)

// generatedImage mirrors a single image as sent by the upstream.
// Only the fields listed here are ever copied into an image.GeneratedImage.
type generatedImage struct {
	EncodedImage           string             `json:"encodedImage"`
	Seed                   int                `json:"seed"`
	MediaGenerationID      string             `json:"mediaGenerationId"`
	Prompt                 string             `json:"prompt"`
	ModelNameType          prompt.Model       `json:"modelNameType"`
	AspectRatio            prompt.AspectRatio `json:"aspectRatio"`
	WorkflowID             string             `json:"workflowId"`
	FingerprintLogRecordID string             `json:"fingerprintLogRecordId"`
}

func (raw *generatedImage) toImage() (*image.GeneratedImage, error) {
	return image.New(image.GeneratedImage{
		Seed:          raw.Seed,
		Model:         raw.ModelNameType,
		Prompt:        raw.Prompt,
		AspectRatio:   raw.AspectRatio,
		MediaID:       raw.MediaGenerationID,
		EncodedImage:  raw.EncodedImage,
		WorkflowID:    raw.WorkflowID,
		FingerprintID: raw.FingerprintLogRecordID,
	})
}

type generationResponse struct {
	ImagePanels []struct {
		Prompt          string          `json:"prompt"`
		GeneratedImages json.RawMessage `json:"generatedImages"`
	} `json:"imagePanels"`
}

// ParseGeneratedImages maps the body of the generation endpoint into images.
// A missing, malformed or empty image list is a *GenerationError, never an empty result.
func ParseGeneratedImages(body string) ([]*image.GeneratedImage, error) {
	var raw generationResponse
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, &GenerationError{Message: "generation response is not valid JSON", Cause: err}
	}
	if len(raw.ImagePanels) == 0 || len(raw.ImagePanels[0].GeneratedImages) == 0 {
		return nil, &GenerationError{Message: "server responded with empty images"}
	}
	panel := raw.ImagePanels[0]

	var entries []generatedImage
	if err := json.Unmarshal(panel.GeneratedImages, &entries); err != nil {
		return nil, &GenerationError{Message: "server responded with empty images", Cause: err}
	}
	if len(entries) == 0 {
		return nil, &GenerationError{Message: "server responded with empty images"}
	}

	images := make([]*image.GeneratedImage, 0, len(entries))
	for i, entry := range entries {
		if entry.Prompt == "" {
			entry.Prompt = panel.Prompt
		}
		img, err := entry.toImage()
		if err != nil {
			return nil, &GenerationError{Message: fmt.Sprintf("image %d is invalid", i), Cause: err}
		}
		images = append(images, img)
	}
	return images, nil
}

type fetchResponse struct {
	Result struct {
		Data struct {
			JSON struct {
				Result struct {
					Image *generatedImage `json:"image"`
				} `json:"result"`
			} `json:"json"`
		} `json:"data"`
	} `json:"result"`
}

// ParseImageByID maps the body of the media fetch endpoint into an image
func ParseImageByID(body string) (*image.GeneratedImage, error) {
	var raw fetchResponse
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, &FetchError{Message: "fetch response is not valid JSON", Cause: err}
	}
	entry := raw.Result.Data.JSON.Result.Image
	if entry == nil {
		return nil, &FetchError{Message: "server responded with empty image"}
	}
	img, err := entry.toImage()
	if err != nil {
		return nil, &FetchError{Message: "server responded with an invalid image", Cause: err}
	}
	return img, nil
}

type fetchInput struct {
	JSON struct {
		MediaKey string `json:"mediaKey"`
	} `json:"json"`
}

// FetchMediaQuery builds the query string of the media fetch endpoint for the given media identifier
func FetchMediaQuery(mediaID string) (string, error) {
	var input fetchInput
	input.JSON.MediaKey = mediaID
	raw, err := json.Marshal(input)
	if err != nil {
		return "", err
	}
	return url.Values{"input": {string(raw)}}.Encode(), nil
}
