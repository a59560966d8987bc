package gateway

import (
	"net/http"
	"strings"

	"github.com/skybi/imagefx/internal/api/schema"
	"github.com/skybi/imagefx/internal/imagefx"
)

type endpointGenerateCaptionsRequestPayload struct {
	Image    string `json:"image" required:"true"`
	MimeType string `json:"mime_type"`
	Name     string `json:"name"`
	Count    int    `json:"count" min:"0" max:"8"`
}

type endpointGenerateCaptionsResponse struct {
	Captions []string `json:"captions"`
}

// EndpointGenerateCaptions handles the 'POST /v1/captions' endpoint.
// The image is sent as plain base64 or as a data URI.
func (service *Service) EndpointGenerateCaptions(writer http.ResponseWriter, request *http.Request) {
	payload, validationErrs, err := schema.UnmarshalBody[endpointGenerateCaptionsRequestPayload](request)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	if len(validationErrs) > 0 {
		service.writer.WriteErrors(writer, http.StatusBadRequest, validationErrs...)
		return
	}

	encoded, mimeType := splitDataURI(payload.Image, payload.MimeType)
	captions, err := service.Client.GenerateCaptions(request.Context(), encoded, mimeType, payload.Count)
	if err != nil {
		service.writeUpstreamError(writer, err)
		return
	}

	if service.Recorder != nil {
		account, err := service.Client.User(request.Context())
		if err == nil {
			_, err = service.Recorder.RecordCaptions(request.Context(), account, payload.Name, imagefx.NormalizeMimeType(mimeType), captions)
		}
		if err != nil {
			service.Logger.Error().Err(err).Msg("could not record captions")
		}
	}

	service.writer.WriteJSON(writer, &endpointGenerateCaptionsResponse{Captions: captions})
}

// splitDataURI extracts the MIME type and the base64 payload out of a 'data:<type>;base64,<payload>' URI.
// Plain base64 input is returned as is together with the fallback MIME type.
func splitDataURI(raw, fallbackMimeType string) (string, string) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "data:") {
		return raw, fallbackMimeType
	}
	header, payload, ok := strings.Cut(strings.TrimPrefix(raw, "data:"), ",")
	if !ok {
		return raw, fallbackMimeType
	}
	mimeType, _, _ := strings.Cut(header, ";")
	if mimeType == "" {
		mimeType = fallbackMimeType
	}
	return payload, mimeType
}
