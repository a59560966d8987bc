package gateway

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/skybi/imagefx/internal/api/schema"
	"github.com/skybi/imagefx/internal/api/validation"
	"github.com/skybi/imagefx/internal/history"
)

// EndpointGetPromptHistory handles the 'GET /v1/history/prompts?limit={number?:50}' endpoint
func (service *Service) EndpointGetPromptHistory(writer http.ResponseWriter, request *http.Request) {
	serveHistory(service, writer, request, service.Storage.History().GetPrompts)
}

// EndpointGetImageHistory handles the 'GET /v1/history/images?limit={number?:50}' endpoint
func (service *Service) EndpointGetImageHistory(writer http.ResponseWriter, request *http.Request) {
	serveHistory(service, writer, request, service.Storage.History().GetImages)
}

// EndpointGetCaptionHistory handles the 'GET /v1/history/captions?limit={number?:50}' endpoint
func (service *Service) EndpointGetCaptionHistory(writer http.ResponseWriter, request *http.Request) {
	serveHistory(service, writer, request, service.Storage.History().GetCaptions)
}

func serveHistory[T any](service *Service, writer http.ResponseWriter, request *http.Request, get func(context.Context, uuid.UUID, uint64) ([]T, error)) {
	limit, validationErr := validation.QueryLimit(request, history.DefaultLimit)
	if validationErr != nil {
		service.writer.WriteErrors(writer, http.StatusBadRequest, validationErr)
		return
	}

	// Resolve the stored user of the ImageFX account
	account, err := service.Client.User(request.Context())
	if err != nil {
		service.writeUpstreamError(writer, err)
		return
	}
	obj, err := service.Recorder.ResolveUser(request.Context(), account)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}

	entries, err := get(request.Context(), obj.ID, limit)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}

	service.writer.WriteJSON(writer, schema.BuildListResponse(limit, entries))
}
