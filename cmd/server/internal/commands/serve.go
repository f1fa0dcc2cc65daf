package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/apiscaffold/internal/config"
	"github.com/wolfeidau/apiscaffold/internal/datastore"
	"github.com/wolfeidau/apiscaffold/internal/logger"
	"github.com/wolfeidau/apiscaffold/internal/server"
	"github.com/wolfeidau/apiscaffold/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	shutdownTimeout = 10 * time.Second
	serviceName     = "apiscaffold"
)

type ServeCmd struct {
	EnvFile     string        `help:"env file to load settings from, optional" default:".env" env:"APP_ENV_FILE"`
	Listen      string        `help:"listen address, overrides APP_HOST and APP_PORT" default:""`
	WaitTimeout time.Duration `help:"wait this long for the data store before serving, 0 to skip" default:"0s" env:"APP_WAIT_TIMEOUT"`
	Tracing     bool          `help:"export traces and metrics over OTLP" default:"false" env:"APP_TRACING"`

	// out receives the startup banner. Default: os.Stdout
	out io.Writer
}

func (c *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	settings, err := config.Load(c.EnvFile)
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	if settings.AppVersion == "" {
		settings.AppVersion = globals.Version
	}

	if c.Tracing {
		log.Info().Msg("Tracing is enabled")
		shutdown, err := telemetry.InitTelemetry(ctx, serviceName, settings.AppVersion)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without it")
			shutdown = func(ctx context.Context) error { return nil }
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		}()
	}

	store, err := datastore.New(ctx, settings)
	if err != nil {
		return fmt.Errorf("failed to create data store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close data store")
		}
	}()

	if c.WaitTimeout > 0 {
		if err := datastore.WaitReady(ctx, store, datastore.WaitOptions{MaxWait: c.WaitTimeout}); err != nil {
			return err
		}
	}

	addr := c.Listen
	if addr == "" {
		addr = settings.ListenAddr()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	c.banner(settings, store, ln.Addr())
	log.Info().
		Str("version", settings.AppVersion).
		Str("addr", ln.Addr().String()).
		Str("database", string(settings.DatabaseType)).
		Str("backend", store.Name()).
		Bool("debug", globals.Debug).
		Msg("Starting server")

	handler := instrument(server.New(settings, store, log).Handler(), c.Tracing)
	return serve(ctx, configureHTTPServer(addr, handler), ln, log)
}

func (c *ServeCmd) banner(settings *config.Settings, store datastore.Prober, addr net.Addr) {
	out := c.out
	if out == nil {
		out = os.Stdout
	}
	version := settings.AppVersion
	if version == "" {
		version = "dev"
	}
	fmt.Fprintf(out, "%s %s\n", serviceName, version)
	fmt.Fprintf(out, "  listening on http://%s\n", addr)
	fmt.Fprintf(out, "  database     %s (%s)\n", settings.DatabaseType, store.Name())
}

// instrument wraps h in OpenTelemetry HTTP spans and metrics when tracing
// is enabled.
func instrument(h http.Handler, tracing bool) http.Handler {
	if !tracing {
		return h
	}
	return otelhttp.NewHandler(h, serviceName)
}

// serve runs srv on ln until ctx is cancelled, then drains in-flight
// requests.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, log zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
