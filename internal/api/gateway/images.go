package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/skybi/imagefx/internal/api/schema"
	"github.com/skybi/imagefx/internal/history"
	"github.com/skybi/imagefx/internal/image"
	"github.com/skybi/imagefx/internal/prompt"
)

type endpointGenerateImagesRequestPayload struct {
	Prompt      string `json:"prompt" required:"true"`
	Seed        int    `json:"seed"`
	Count       int    `json:"count" min:"0" max:"8"`
	AspectRatio string `json:"aspect_ratio"`
	Model       string `json:"model"`
	Retries     int    `json:"retries" min:"0" max:"5"`
}

type endpointGenerateImagesResponse struct {
	PromptID *string                 `json:"prompt_id,omitempty"`
	Images   []*image.GeneratedImage `json:"images"`
}

// EndpointGenerateImages handles the 'POST /v1/images' endpoint
func (service *Service) EndpointGenerateImages(writer http.ResponseWriter, request *http.Request) {
	payload, validationErrs, err := schema.UnmarshalBody[endpointGenerateImagesRequestPayload](request)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}

	// Resolve the optional aspect ratio and model
	p := prompt.Prompt{}
	if payload != nil {
		p = prompt.Prompt{
			Text:       payload.Prompt,
			Seed:       payload.Seed,
			ImageCount: payload.Count,
		}
		if payload.AspectRatio != "" {
			ratio, err := prompt.ParseAspectRatio(payload.AspectRatio)
			if err != nil {
				validationErrs = append(validationErrs, schema.ErrRequestBodyParameterInvalidChoice("aspect_ratio", payload.AspectRatio, aspectRatioChoices()))
			}
			p.AspectRatio = ratio
		}
		if payload.Model != "" {
			model, err := prompt.ParseModel(payload.Model)
			if err != nil {
				validationErrs = append(validationErrs, schema.ErrRequestBodyParameterInvalidChoice("model", payload.Model, modelChoices()))
			}
			p.Model = model
		}
	}
	if len(validationErrs) > 0 {
		service.writer.WriteErrors(writer, http.StatusBadRequest, validationErrs...)
		return
	}

	images, err := service.Client.GenerateImage(request.Context(), p, payload.Retries)
	if err != nil {
		service.writeUpstreamError(writer, err)
		return
	}
	logEvent := service.Logger.Debug().Int("images", len(images))
	if idToken := idTokenFromContext(request.Context()); idToken != nil {
		logEvent = logEvent.Str("subject", idToken.Subject)
	}
	logEvent.Msg("generated images")

	resp := &endpointGenerateImagesResponse{Images: images}
	if service.Recorder != nil {
		promptObj := service.recordGeneration(request, p, images)
		if promptObj != nil {
			id := promptObj.ID.String()
			resp.PromptID = &id
		}
	}
	service.writer.WriteJSON(writer, resp)
}

// recordGeneration records a generation; failures only get logged as the images were generated anyway
func (service *Service) recordGeneration(request *http.Request, p prompt.Prompt, images []*image.GeneratedImage) *history.Prompt {
	account, err := service.Client.User(request.Context())
	if err != nil {
		service.Logger.Error().Err(err).Msg("could not resolve the account of a generation")
		return nil
	}
	promptObj, _, err := service.Recorder.RecordGeneration(request.Context(), account, p, images)
	if err != nil {
		service.Logger.Error().Err(err).Msg("could not record a generation")
		return nil
	}
	return promptObj
}

// EndpointGetImage handles the 'GET /v1/images/{id}' endpoint
func (service *Service) EndpointGetImage(writer http.ResponseWriter, request *http.Request) {
	id := chi.URLParam(request, "id")

	img, err := service.Client.GetImageByID(request.Context(), id)
	if err != nil {
		service.writeUpstreamError(writer, err)
		return
	}

	service.writer.WriteJSON(writer, img)
}

func aspectRatioChoices() []string {
	ratios := prompt.AspectRatios()
	choices := make([]string, 0, len(ratios))
	for _, ratio := range ratios {
		choices = append(choices, string(ratio))
	}
	return choices
}

func modelChoices() []string {
	models := prompt.Models()
	choices := make([]string, 0, len(models))
	for _, model := range models {
		choices = append(choices, string(model))
	}
	return choices
}
