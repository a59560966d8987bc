package gateway

import (
	"context"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/skybi/imagefx/internal/api/schema"
)

type contextKey string

const contextKeyIDToken contextKey = "id_token"

// MiddlewareVerifyIDToken makes sure that the requesting client has provided a valid OIDC ID token as its bearer token.
// Requests pass unchecked if no OIDC provider is configured.
func (service *Service) MiddlewareVerifyIDToken(next http.HandlerFunc) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		if service.verifier == nil {
			next(writer, request)
			return
		}

		// Try to read the 'Authorization' header and verify it is of type 'Bearer'
		header := request.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			service.writer.WriteErrors(writer, http.StatusUnauthorized, schema.ErrUnauthorized)
			return
		}

		rawIDToken := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		idToken, err := service.verifier.Verify(request.Context(), rawIDToken)
		if err != nil {
			service.Logger.Debug().Err(err).Msg("rejected ID token")
			service.writer.WriteErrors(writer, http.StatusUnauthorized, schema.ErrUnauthorized)
			return
		}

		// Delegate to the next handler
		request = request.WithContext(context.WithValue(request.Context(), contextKeyIDToken, idToken))
		next(writer, request)
	}
}

// MiddlewareRequirePersistence rejects requests to history endpoints if no history is recorded
func (service *Service) MiddlewareRequirePersistence(next http.HandlerFunc) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		if service.Storage == nil || service.Recorder == nil {
			service.writer.WriteErrors(writer, http.StatusNotFound, schema.ErrPersistenceDisabled)
			return
		}
		next(writer, request)
	}
}

func idTokenFromContext(ctx context.Context) *oidc.IDToken {
	idToken, _ := ctx.Value(contextKeyIDToken).(*oidc.IDToken)
	return idToken
}
