package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/kingrea/skillmatch/internal/onboarding"
)

// FileStore keeps one JSON file per profile:
// <dir>/<profile>/userPreferences.json.
type FileStore struct {
	dir    string
	logger *zap.Logger
}

// NewFileStore roots a store at dir, creating it if needed.
func NewFileStore(dir string, opts ...Option) (*FileStore, error) {
	o := buildOptions(opts)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("preferences: ensure %s: %w", dir, err)
	}
	return &FileStore{dir: dir, logger: o.logger}, nil
}

// Path returns the record file for profile.
func (s *FileStore) Path(profile string) string {
	return filepath.Join(s.dir, profile, onboarding.PreferencesKey+".json")
}

// Save replaces the record atomically by writing a temp file and renaming it.
func (s *FileStore) Save(_ context.Context, profile string, answers onboarding.Answers) error {
	if err := validateProfile(profile); err != nil {
		return err
	}
	data, err := json.MarshalIndent(answers, "", "  ")
	if err != nil {
		return fmt.Errorf("preferences: encode %s: %w", profile, err)
	}
	path := s.Path(profile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("preferences: ensure profile dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), onboarding.PreferencesKey+"-*.tmp")
	if err != nil {
		return fmt.Errorf("preferences: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("preferences: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("preferences: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("preferences: replace %s: %w", path, err)
	}
	s.logger.Debug("preferences saved", zap.String("profile", profile), zap.String("path", path))
	return nil
}

// Load reads the record for profile.
func (s *FileStore) Load(_ context.Context, profile string) (onboarding.Answers, error) {
	if err := validateProfile(profile); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(profile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("preferences: read %s: %w", profile, err)
	}
	var answers onboarding.Answers
	if err := json.Unmarshal(data, &answers); err != nil {
		return nil, fmt.Errorf("preferences: decode %s: %w", profile, err)
	}
	return answers, nil
}

// Close is a no-op.
func (s *FileStore) Close() error { return nil }
