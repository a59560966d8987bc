package gateway

import (
	"net/http"

	"github.com/skybi/imagefx/internal/auth"
	"github.com/skybi/imagefx/internal/user"
)

type endpointGetSelfResponse struct {
	Account auth.User  `json:"account"`
	User    *user.User `json:"user,omitempty"`
}

// EndpointGetSelf handles the 'GET /v1/me' endpoint
func (service *Service) EndpointGetSelf(writer http.ResponseWriter, request *http.Request) {
	account, err := service.Client.User(request.Context())
	if err != nil {
		service.writeUpstreamError(writer, err)
		return
	}

	resp := &endpointGetSelfResponse{Account: account}
	if service.Recorder != nil {
		obj, err := service.Recorder.ResolveUser(request.Context(), account)
		if err != nil {
			service.writer.WriteInternalError(writer, err)
			return
		}
		resp.User = obj
	}

	service.writer.WriteJSON(writer, resp)
}
