package gateway

import (
	"context"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/skybi/imagefx/internal/api/schema"
	"github.com/skybi/imagefx/internal/auth"
	"github.com/skybi/imagefx/internal/config"
	"github.com/skybi/imagefx/internal/history"
	"github.com/skybi/imagefx/internal/image"
	"github.com/skybi/imagefx/internal/prompt"
	"github.com/skybi/imagefx/internal/storage"
)

// ImageFX defines the ImageFX operations exposed through the gateway
type ImageFX interface {
	User(ctx context.Context) (auth.User, error)
	GenerateImage(ctx context.Context, p prompt.Prompt, maxRetries int) ([]*image.GeneratedImage, error)
	GetImageByID(ctx context.Context, id string) (*image.GeneratedImage, error)
	GenerateCaptions(ctx context.Context, imageBase64, mimeType string, count int) ([]string, error)
}

type idTokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)
}

// Service represents the ImageFX gateway API service
type Service struct {
	server *http.Server

	Config *config.Config
	Client ImageFX
	Logger zerolog.Logger

	// Storage and Recorder are nil if no history is recorded
	Storage  storage.Driver
	Recorder *history.Recorder

	verifier idTokenVerifier
	writer   *schema.Writer
}

// Handler builds the HTTP handler serving every gateway endpoint
func (service *Service) Handler(ctx context.Context) (http.Handler, error) {
	// Create the HTTP schema writer
	service.writer = &schema.Writer{
		InternalErrorHook: func(err error) {
			service.Logger.Error().Err(err).Msg("the gateway API experienced an unexpected error")
		},
	}

	// Create the ID token verifier if requests have to be authenticated
	if service.verifier == nil && service.Config.HasOIDC() {
		provider, err := oidc.NewProvider(ctx, service.Config.OIDCProviderURL)
		if err != nil {
			return nil, err
		}
		service.verifier = provider.Verifier(&oidc.Config{
			ClientID: service.Config.OIDCClientID,
		})
	}

	// Create the HTTP router
	router := chi.NewRouter()
	router.Use(middleware.RedirectSlashes)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{service.Config.APIAllowedOrigin},
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))
	router.NotFound(func(writer http.ResponseWriter, _ *http.Request) {
		service.writer.WriteErrors(writer, http.StatusNotFound, schema.ErrNotFound)
	})
	router.MethodNotAllowed(func(writer http.ResponseWriter, _ *http.Request) {
		service.writer.WriteErrors(writer, http.StatusMethodNotAllowed, schema.ErrMethodNotAllowed)
	})

	// Register the account endpoint
	router.Get("/v1/me", withMiddlewares(service.EndpointGetSelf, service.MiddlewareVerifyIDToken))

	// Register the ImageFX endpoints
	router.Post("/v1/images", withMiddlewares(service.EndpointGenerateImages, service.MiddlewareVerifyIDToken))
	router.Get("/v1/images/{id}", withMiddlewares(service.EndpointGetImage, service.MiddlewareVerifyIDToken))
	router.Post("/v1/captions", withMiddlewares(service.EndpointGenerateCaptions, service.MiddlewareVerifyIDToken))

	// Register the history endpoints
	router.Get("/v1/history/prompts", withMiddlewares(service.EndpointGetPromptHistory, service.MiddlewareVerifyIDToken, service.MiddlewareRequirePersistence))
	router.Get("/v1/history/images", withMiddlewares(service.EndpointGetImageHistory, service.MiddlewareVerifyIDToken, service.MiddlewareRequirePersistence))
	router.Get("/v1/history/captions", withMiddlewares(service.EndpointGetCaptionHistory, service.MiddlewareVerifyIDToken, service.MiddlewareRequirePersistence))

	return router, nil
}

// Startup starts up the gateway API and blocks until it is shut down
func (service *Service) Startup() error {
	handler, err := service.Handler(context.Background())
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:    service.Config.APIListenAddress,
		Handler: handler,
	}
	service.server = server
	return server.ListenAndServe()
}

// Shutdown shuts down the gateway API
func (service *Service) Shutdown() {
	if service.server != nil {
		service.server.Close()
		service.server = nil
	}
}

func withMiddlewares(end http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	final := end
	for i := len(middlewares); i > 0; i-- {
		final = middlewares[i-1](final)
	}
	return final
}
