package api

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/skybi/imagefx/internal/api/gateway"
	"github.com/skybi/imagefx/internal/config"
	"github.com/skybi/imagefx/internal/history"
	"github.com/skybi/imagefx/internal/storage"
)

// Service represents the API service
type Service struct {
	Config   *config.Config
	Client   gateway.ImageFX
	Storage  storage.Driver
	Recorder *history.Recorder
	Logger   zerolog.Logger
	gateway  *gateway.Service
}

// Startup starts up the gateway API in the background; unexpected errors are sent to errs
func (service *Service) Startup(errs chan<- error) {
	gatewayService := &gateway.Service{
		Config:   service.Config,
		Client:   service.Client,
		Logger:   service.Logger,
		Storage:  service.Storage,
		Recorder: service.Recorder,
	}
	service.gateway = gatewayService
	go func() {
		if err := gatewayService.Startup(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()
}

// Shutdown shuts down the gateway API
func (service *Service) Shutdown() {
	if service.gateway != nil {
		service.gateway.Shutdown()
		service.gateway = nil
	}
}
