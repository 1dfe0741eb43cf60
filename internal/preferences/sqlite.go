package preferences

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/kingrea/skillmatch/internal/onboarding"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS preferences (
	profile    TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (profile, key)
);`

// SQLiteStore keeps records in a preferences table keyed by (profile, key).
type SQLiteStore struct {
	db     *sql.DB
	path   string
	now    func() time.Time
	logger *zap.Logger
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	o := buildOptions(opts)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("preferences: ensure %s: %w", filepath.Dir(path), err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("preferences: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("preferences: create schema: %w", err)
	}
	return &SQLiteStore{db: db, path: path, now: o.now, logger: o.logger}, nil
}

// Save upserts the record for profile.
func (s *SQLiteStore) Save(ctx context.Context, profile string, answers onboarding.Answers) error {
	if err := validateProfile(profile); err != nil {
		return err
	}
	data, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("preferences: encode %s: %w", profile, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO preferences (profile, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (profile, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		profile, onboarding.PreferencesKey, string(data), s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("preferences: upsert %s: %w", profile, err)
	}
	s.logger.Debug("preferences saved", zap.String("profile", profile), zap.String("db", s.path))
	return nil
}

// Load reads the record for profile.
func (s *SQLiteStore) Load(ctx context.Context, profile string) (onboarding.Answers, error) {
	if err := validateProfile(profile); err != nil {
		return nil, err
	}
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM preferences WHERE profile = ? AND key = ?`,
		profile, onboarding.PreferencesKey,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("preferences: query %s: %w", profile, err)
	}
	var answers onboarding.Answers
	if err := json.Unmarshal([]byte(raw), &answers); err != nil {
		return nil, fmt.Errorf("preferences: decode %s: %w", profile, err)
	}
	return answers, nil
}

// UpdatedAt returns when the record for profile was last written.
func (s *SQLiteStore) UpdatedAt(ctx context.Context, profile string) (time.Time, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT updated_at FROM preferences WHERE profile = ? AND key = ?`,
		profile, onboarding.PreferencesKey,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, ErrNotFound
		}
		return time.Time{}, fmt.Errorf("preferences: query %s: %w", profile, err)
	}
	return time.Parse(time.RFC3339Nano, raw)
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
