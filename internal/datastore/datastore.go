// Package datastore opens and pings the data store selected by the
// application settings. It only answers "is the backend reachable"; it does
// not model collections or queries.
package datastore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/apiscaffold/internal/config"
)

var (
	ErrUnsupportedBackend = errors.New("unsupported database backend")
	ErrUnsupportedURL     = errors.New("unsupported database URL")
)

// Prober checks connectivity to a backend.
type Prober interface {
	// Name identifies the backend in logs and health output.
	Name() string
	Ping(ctx context.Context) error
	Close() error
}

// New creates a Prober for the backend selected in s. No connection is
// made until Ping is called.
func New(ctx context.Context, s *config.Settings) (Prober, error) {
	switch {
	case s.DatabaseType.Relational():
		return newSQL(ctx, s)
	case s.DatabaseType == config.DatabaseMongo:
		return newMongo(s)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, s.DatabaseType)
	}
}

func newSQL(ctx context.Context, s *config.Settings) (Prober, error) {
	switch {
	case strings.HasPrefix(s.DatabaseURL, "postgres://"), strings.HasPrefix(s.DatabaseURL, "postgresql://"):
		return newPostgres(ctx, s)
	case strings.HasPrefix(s.DatabaseURL, sqliteScheme), strings.HasPrefix(s.DatabaseURL, "file:"):
		return newSQLite(s)
	default:
		scheme, _, _ := strings.Cut(s.DatabaseURL, ":")
		return nil, fmt.Errorf("%w: scheme %q", ErrUnsupportedURL, scheme)
	}
}

// WaitOptions tunes WaitReady.
type WaitOptions struct {
	// MaxWait bounds the total time spent retrying. Default: 60 seconds
	MaxWait time.Duration
	// InitialInterval is the first retry delay. Default: 500ms
	InitialInterval time.Duration
}

func (o *WaitOptions) applyDefaults() {
	if o.MaxWait == 0 {
		o.MaxWait = 60 * time.Second
	}
	if o.InitialInterval == 0 {
		o.InitialInterval = 500 * time.Millisecond
	}
}

// WaitReady pings p with exponential backoff until it answers or MaxWait
// elapses, returning the last ping error on timeout.
func WaitReady(ctx context.Context, p Prober, opts WaitOptions) error {
	opts.applyDefaults()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = opts.InitialInterval

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		return struct{}{}, p.Ping(ctx)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxElapsedTime(opts.MaxWait),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Debug().
				Err(err).
				Str("backend", p.Name()).
				Int("attempt", attempt).
				Dur("next", next).
				Msg("data store not ready")
		}),
	)
	if err != nil {
		return fmt.Errorf("%s not ready after %d attempts: %w", p.Name(), attempt, err)
	}
	return nil
}
