// Package preferences persists the answer set a member submits at the end of
// onboarding. Every backend keeps exactly one record per profile, named
// onboarding.PreferencesKey, holding the answers as JSON.
package preferences

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kingrea/skillmatch/internal/config"
	"github.com/kingrea/skillmatch/internal/onboarding"
)

// ErrNotFound is returned by Load when a profile has no stored record.
var ErrNotFound = errors.New("preferences: not found")

// Store saves and loads userPreferences records.
type Store interface {
	onboarding.PreferenceWriter
	Load(ctx context.Context, profile string) (onboarding.Answers, error)
	Close() error
}

// Timestamped is implemented by stores that track when a record was written.
type Timestamped interface {
	UpdatedAt(ctx context.Context, profile string) (time.Time, error)
}

// Option customizes a store during construction.
type Option func(*options)

type options struct {
	logger *zap.Logger
	now    func() time.Time
}

// WithLogger sets the logger used by the backend.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock overrides the clock used for updated_at timestamps.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.now = clock
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Open builds the backend selected in the configuration.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (Store, error) {
	switch cfg.Backend() {
	case config.BackendFile:
		return NewFileStore(cfg.StoragePath(), opts...)
	case config.BackendSQLite:
		return NewSQLiteStore(ctx, cfg.StoragePath(), opts...)
	case config.BackendFirebase:
		fb := cfg.Project.Storage.Firebase
		return NewFirebaseStore(ctx, fb.CredentialsFile, fb.DatabaseURL, fb.Root, opts...)
	case config.BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("preferences: unknown backend %q", cfg.Backend())
	}
}

func validateProfile(profile string) error {
	if err := config.ValidateProfile(profile); err != nil {
		return fmt.Errorf("preferences: %w", err)
	}
	return nil
}
