package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/skybi/imagefx/internal/api"
	"github.com/skybi/imagefx/internal/config"
	"github.com/skybi/imagefx/internal/history"
	"github.com/skybi/imagefx/internal/imagefx"
	"github.com/skybi/imagefx/internal/storage"
	"github.com/skybi/imagefx/internal/storage/cache"
	"github.com/skybi/imagefx/internal/storage/postgres"
	"github.com/skybi/imagefx/internal/task"
	"github.com/skybi/imagefx/internal/transport"
)

func main() {
	// Set up zerolog to use pretty printing
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out: os.Stderr,
	})
	log.Info().Msg("starting up...")

	// Load the application configuration
	log.Info().Msg("loading configuration...")
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("could not load the configuration")
	}
	if cfg.IsEnvProduction() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Debug().Str("listen_address", cfg.APIListenAddress).Bool("persistence", cfg.HasPersistence()).Bool("oidc", cfg.HasOIDC()).Msg("loaded configuration")

	credential, err := cfg.Credential()
	if err != nil {
		log.Fatal().Err(err).Msg("no usable ImageFX credential configured")
	}

	// Initialize the PostgreSQL storage driver wrapped into the caching one if a database is configured
	var (
		driver   storage.Driver
		recorder *history.Recorder
	)
	if cfg.HasPersistence() {
		log.Info().Msg("initializing database connection...")
		cachingDriver := cache.New(postgres.New(cfg.PostgresDSN))
		if err := cachingDriver.Initialize(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("could not initialize the database connection")
		}
		defer cachingDriver.Close()
		driver = cachingDriver
		recorder = history.NewRecorder(driver.Users(), driver.History(), driver.Sessions(), log.Logger)

		// Schedule a task that purges expired session records
		purgingTask := task.NewRepeating(func(ctx context.Context) {
			n, err := driver.Sessions().TerminateExpired(ctx)
			if err != nil {
				log.Error().Err(err).Msg("could not purge expired sessions")
			} else if n > 0 {
				log.Info().Int("amount", n).Msg("purged expired sessions")
			}
		}, cfg.SessionPurgeInterval)
		purgingTask.Start()
		defer purgingTask.Stop(false)
	} else {
		log.Warn().Msg("no database configured; history recording is disabled")
	}

	// Create the ImageFX client
	opts := []imagefx.Option{
		imagefx.WithEndpoints(cfg.Endpoints()),
		imagefx.WithExecutor(transport.New(
			transport.WithTimeout(cfg.Timeout),
			transport.WithLogger(log.Logger),
		)),
		imagefx.WithRefreshRetries(cfg.RefreshRetries),
		imagefx.WithLogger(log.Logger),
	}
	if recorder != nil {
		opts = append(opts, imagefx.WithRefreshHook(recorder.SessionHook()))
	}
	client, err := imagefx.New(credential, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("could not create the ImageFX client")
	}

	// Start up the gateway API
	log.Info().Str("address", cfg.APIListenAddress).Msg("starting up the gateway API...")
	apis := &api.Service{
		Config:   cfg,
		Client:   client,
		Storage:  driver,
		Recorder: recorder,
		Logger:   log.Logger,
	}
	apiErrs := make(chan error, 1)
	apis.Startup(apiErrs)
	go func() {
		err := <-apiErrs
		log.Fatal().Err(err).Msg("the API service raised an unexpected error")
	}()
	defer func() {
		log.Info().Msg("shutting down the gateway API...")
		apis.Shutdown()
	}()

	log.Info().Msg("done!")
	defer log.Info().Msg("shutting down...")

	// Wait for the application to be terminated
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt)
	<-shutdown
}
