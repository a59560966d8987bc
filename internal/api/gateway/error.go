package gateway

import (
	"errors"
	"net/http"

	"github.com/skybi/imagefx/internal/api/schema"
	"github.com/skybi/imagefx/internal/auth"
	"github.com/skybi/imagefx/internal/prompt"
	"github.com/skybi/imagefx/internal/response"
	"github.com/skybi/imagefx/internal/transport"
)

// writeUpstreamError maps a failed ImageFX operation to an error response
func (service *Service) writeUpstreamError(writer http.ResponseWriter, err error) {
	var (
		authErr       *auth.Error
		transportErr  *transport.Error
		generationErr *response.GenerationError
		fetchErr      *response.FetchError
		captionErr    *response.CaptionError
	)
	switch {
	case errors.Is(err, prompt.ErrEmptyText), errors.Is(err, prompt.ErrInvalidImageCount):
		service.writer.WriteErrors(writer, http.StatusBadRequest, schema.ErrUpstream("validation", err.Error()))
	case errors.As(err, &authErr):
		service.writer.WriteErrors(writer, http.StatusUnauthorized, schema.ErrUpstream("auth", authErr.Error()))
	case errors.As(err, &transportErr):
		service.writer.WriteErrors(writer, http.StatusBadGateway, schema.ErrUpstream("transport", transportErr.Error()))
	case errors.As(err, &generationErr):
		service.writer.WriteErrors(writer, http.StatusBadGateway, schema.ErrUpstream("generation", generationErr.Error()))
	case errors.As(err, &fetchErr):
		service.writer.WriteErrors(writer, http.StatusBadGateway, schema.ErrUpstream("fetch", fetchErr.Error()))
	case errors.As(err, &captionErr):
		service.writer.WriteErrors(writer, http.StatusBadGateway, schema.ErrUpstream("caption", captionErr.Error()))
	default:
		service.writer.WriteInternalError(writer, err)
	}
}
