package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/skybi/imagefx/internal/auth"
	"github.com/skybi/imagefx/internal/config"
	"github.com/skybi/imagefx/internal/history"
	"github.com/skybi/imagefx/internal/imagefx"
	"github.com/skybi/imagefx/internal/response"
	"github.com/skybi/imagefx/internal/storage"
	"github.com/skybi/imagefx/internal/storage/postgres"
	"github.com/skybi/imagefx/internal/transport"
	"github.com/spf13/cobra"
)

// ErrPersistenceDisabled is returned by commands that need a database if none is configured
var ErrPersistenceDisabled = errors.New("no database configured (set IMAGEFX_POSTGRES_DSN)")

// Option configures the command line interface
type Option func(*app)

// WithLogger sets the logger used by the commands and the ImageFX client
func WithLogger(logger zerolog.Logger) Option {
	return func(app *app) {
		app.logger = logger
	}
}

// WithStorage replaces the storage driver otherwise opened using the configured DSN.
// The driver is expected to be initialized already.
func WithStorage(driver storage.Driver) Option {
	return func(app *app) {
		app.driver = driver
		app.ownsDriver = false
	}
}

// WithClock replaces the time source used to name saved images
func WithClock(now func() time.Time) Option {
	return func(app *app) {
		app.now = now
	}
}

type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	now    func() time.Time

	cookie string
	token  string

	driver     storage.Driver
	ownsDriver bool
	recorder   *history.Recorder
}

// NewCLI builds the root command of the imagefx command line interface
func NewCLI(cfg *config.Config, opts ...Option) *cobra.Command {
	app := &app{
		cfg:        cfg,
		logger:     zerolog.Nop(),
		now:        time.Now,
		ownsDriver: true,
	}
	for _, opt := range opts {
		opt(app)
	}

	rootCmd := &cobra.Command{
		Use:   "imagefx",
		Short: "Generate, fetch and caption images using Google ImageFX",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cmd.SilenceUsage = true
		},
	}
	rootCmd.PersistentFlags().StringVar(&app.cookie, "cookie", "", "Google account session cookie (overrides IMAGEFX_COOKIE)")
	rootCmd.PersistentFlags().StringVar(&app.token, "auth", "", "Pre-obtained bearer token (overrides IMAGEFX_TOKEN)")

	cobra.EnableCommandSorting = false

	rootCmd.AddCommand(
		app.generateCommand(),
		app.fetchCommand(),
		app.captionCommand(),
		app.whoamiCommand(),
		app.historyCommand(),
		app.sessionsCommand(),
	)
	return rootCmd
}

// client builds an ImageFX client out of the configuration and the credential flags.
// Refreshed sessions are recorded if a database is configured.
func (app *app) client(ctx context.Context) (*imagefx.Client, error) {
	cookie, token := app.cfg.Cookie, app.cfg.Token
	if app.cookie != "" {
		cookie = app.cookie
	}
	if app.token != "" {
		token = app.token
	}
	credential, err := auth.NewCredential(cookie, token)
	if err != nil {
		return nil, err
	}

	opts := []imagefx.Option{
		imagefx.WithEndpoints(app.cfg.Endpoints()),
		imagefx.WithExecutor(transport.New(
			transport.WithTimeout(app.cfg.Timeout),
			transport.WithLogger(app.logger),
		)),
		imagefx.WithRefreshRetries(app.cfg.RefreshRetries),
		imagefx.WithLogger(app.logger),
	}
	recorder, err := app.history(ctx)
	if err != nil && !errors.Is(err, ErrPersistenceDisabled) {
		return nil, err
	}
	if recorder != nil {
		opts = append(opts, imagefx.WithRefreshHook(recorder.SessionHook()))
	}
	return imagefx.New(credential, opts...)
}

// storage returns the storage driver, opening the configured database on first use
func (app *app) storage(ctx context.Context) (storage.Driver, error) {
	if app.driver != nil {
		return app.driver, nil
	}
	if !app.cfg.HasPersistence() {
		return nil, ErrPersistenceDisabled
	}
	driver := postgres.New(app.cfg.PostgresDSN)
	if err := driver.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	app.driver = driver
	app.ownsDriver = true
	return driver, nil
}

// history returns the history recorder backed by the storage driver
func (app *app) history(ctx context.Context) (*history.Recorder, error) {
	if app.recorder != nil {
		return app.recorder, nil
	}
	driver, err := app.storage(ctx)
	if err != nil {
		return nil, err
	}
	app.recorder = history.NewRecorder(driver.Users(), driver.History(), driver.Sessions(), app.logger)
	return app.recorder, nil
}

// run wraps a command implementation so that an opened database is closed afterwards
func (app *app) run(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer app.close()
		return fn(cmd, args)
	}
}

func (app *app) close() {
	if app.driver != nil && app.ownsDriver {
		app.driver.Close()
		app.driver = nil
		app.recorder = nil
	}
}

// Describe renders an error as '<kind>: <message>'
func Describe(err error) string {
	var (
		authErr       *auth.Error
		transportErr  *transport.Error
		generationErr *response.GenerationError
		fetchErr      *response.FetchError
		captionErr    *response.CaptionError
	)
	kind := "error"
	switch {
	case errors.As(err, &authErr):
		kind = "auth"
	case errors.As(err, &transportErr):
		kind = "transport"
	case errors.As(err, &generationErr):
		kind = "generation"
	case errors.As(err, &fetchErr):
		kind = "fetch"
	case errors.As(err, &captionErr):
		kind = "caption"
	}
	return kind + ": " + strings.TrimSpace(err.Error())
}
