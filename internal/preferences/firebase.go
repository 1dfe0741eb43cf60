package preferences

import (
	"context"
	"encoding/json"
	"fmt"
	"path"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/kingrea/skillmatch/internal/onboarding"
)

// FirebaseStore keeps records in a Firebase realtime database under
// <root>/profiles/<profile>/userPreferences.
type FirebaseStore struct {
	client *db.Client
	root   string
	logger *zap.Logger
}

// NewFirebaseStore connects to the realtime database with a service account.
func NewFirebaseStore(ctx context.Context, credentialsFile, databaseURL, root string, opts ...Option) (*FirebaseStore, error) {
	o := buildOptions(opts)
	app, err := firebase.NewApp(ctx, &firebase.Config{DatabaseURL: databaseURL}, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("preferences: initialize firebase app: %w", err)
	}
	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("preferences: get database client: %w", err)
	}
	return &FirebaseStore{client: client, root: root, logger: o.logger}, nil
}

func recordPath(root, profile string) string {
	return path.Join("/", root, "profiles", profile, onboarding.PreferencesKey)
}

// Save replaces the record for profile.
func (s *FirebaseStore) Save(ctx context.Context, profile string, answers onboarding.Answers) error {
	if err := validateProfile(profile); err != nil {
		return err
	}
	ref := s.client.NewRef(recordPath(s.root, profile))
	if err := ref.Set(ctx, answers); err != nil {
		return fmt.Errorf("preferences: set %s: %w", ref.Path, err)
	}
	s.logger.Debug("preferences saved", zap.String("profile", profile), zap.String("ref", ref.Path))
	return nil
}

// Load reads the record for profile.
func (s *FirebaseStore) Load(ctx context.Context, profile string) (onboarding.Answers, error) {
	if err := validateProfile(profile); err != nil {
		return nil, err
	}
	ref := s.client.NewRef(recordPath(s.root, profile))
	var raw json.RawMessage
	if err := ref.Get(ctx, &raw); err != nil {
		return nil, fmt.Errorf("preferences: get %s: %w", ref.Path, err)
	}
	return decodeRecord(raw)
}

// Close is a no-op; the SDK owns its HTTP client.
func (s *FirebaseStore) Close() error { return nil }

// decodeRecord turns a realtime database payload into answers. Missing nodes
// come back as null.
func decodeRecord(raw json.RawMessage) (onboarding.Answers, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, ErrNotFound
	}
	var answers onboarding.Answers
	if err := json.Unmarshal(raw, &answers); err != nil {
		return nil, fmt.Errorf("preferences: decode record: %w", err)
	}
	return answers, nil
}
