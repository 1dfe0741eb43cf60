// internal/config/config.go
//
// This package handles configuration and the .skillmatch directory structure.
// Every working directory that runs skillmatch gets a .skillmatch/ folder.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	// Dir is the name of the directory we create in each working directory
	Dir = ".skillmatch"

	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendFirebase = "firebase"
	BackendMemory   = "memory"

	defaultGoalQuestion = "goal"
	defaultProfile      = "local"
	defaultLogLevel     = "info"
	defaultFirebaseRoot = "skillmatch"
	defaultSQLiteFile   = "preferences.db"
)

const defaultProjectConfigYAML = `# skillmatch configuration
version: 1

# Where completed onboarding answers are stored.
# backend: file | sqlite | firebase | memory
storage:
  backend: file
  # path: .skillmatch/state/preferences.db
  # firebase:
  #   credentials_file: service-account.json
  #   database_url: https://example.firebaseio.com
  #   root: skillmatch

onboarding:
  # questions_file: questions.yaml
  goal_question: goal
  profile: local

# telegram:
#   token: set SKILLMATCH_TELEGRAM_TOKEN instead of committing it here

log:
  level: info
`

// FirebaseConfig points the firebase backend at a realtime database.
type FirebaseConfig struct {
	CredentialsFile string `yaml:"credentials_file,omitempty" env:"FIREBASE_SERVICE_ACCOUNT_KEY_PATH"`
	DatabaseURL     string `yaml:"database_url,omitempty" env:"FIREBASE_DATABASE_URL" validate:"omitempty,url"`
	Root            string `yaml:"root,omitempty"`
}

// StorageConfig selects the preferences backend.
type StorageConfig struct {
	Backend  string         `yaml:"backend" env:"SKILLMATCH_STORAGE_BACKEND" validate:"oneof=file sqlite firebase memory"`
	Path     string         `yaml:"path,omitempty" env:"SKILLMATCH_STORAGE_PATH"`
	Firebase FirebaseConfig `yaml:"firebase,omitempty"`
}

// OnboardingConfig controls the question catalog and routing.
type OnboardingConfig struct {
	QuestionsFile string `yaml:"questions_file,omitempty" env:"SKILLMATCH_QUESTIONS_FILE"`
	GoalQuestion  string `yaml:"goal_question" validate:"required"`
	Profile       string `yaml:"profile" env:"SKILLMATCH_PROFILE" validate:"required,profile"`
}

// TelegramConfig holds bot credentials.
type TelegramConfig struct {
	Token string `yaml:"token,omitempty" env:"SKILLMATCH_TELEGRAM_TOKEN"`
}

// LogConfig sets the zap level.
type LogConfig struct {
	Level string `yaml:"level" env:"SKILLMATCH_LOG_LEVEL" validate:"oneof=debug info warn error"`
}

// ProjectConfig models .skillmatch/config.yaml.
type ProjectConfig struct {
	Version    int              `yaml:"version" validate:"gte=1"`
	Storage    StorageConfig    `yaml:"storage"`
	Onboarding OnboardingConfig `yaml:"onboarding"`
	Telegram   TelegramConfig   `yaml:"telegram,omitempty"`
	Log        LogConfig        `yaml:"log"`
}

// Config holds the runtime configuration for skillmatch.
type Config struct {
	// ProjectDir is the directory skillmatch was started from
	ProjectDir string

	// StateRoot is ProjectDir/.skillmatch
	StateRoot string

	Project ProjectConfig
}

// InitDir creates the .skillmatch directory structure in the given directory.
//
// Structure created:
// .skillmatch/
// ├── config.yaml
// ├── logs/      <- zap log and the onboarding journal
// └── state/     <- stored preferences (file and sqlite backends)
func InitDir(projectDir string) error {
	root := filepath.Join(projectDir, Dir)
	dirs := []string{
		filepath.Join(root, "logs"),
		filepath.Join(root, "state"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return ensureProjectConfig(filepath.Join(root, "config.yaml"))
}

// NewConfig loads .skillmatch/config.yaml (if present) and applies
// environment overrides.
func NewConfig(projectDir string) (*Config, error) {
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", projectDir, err)
	}
	cfg := &Config{
		ProjectDir: abs,
		StateRoot:  filepath.Join(abs, Dir),
		Project:    defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.StateRoot, "logs")
}

// StateDir returns the path to the state directory
func (c *Config) StateDir() string {
	return filepath.Join(c.StateRoot, "state")
}

// JournalPath returns the onboarding journal file.
func (c *Config) JournalPath() string {
	return filepath.Join(c.LogsDir(), "journal.log")
}

// ProjectConfigPath returns the on-disk location for the config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.StateRoot, "config.yaml")
}

// StoragePath returns where the selected backend keeps its data: a directory
// for the file backend, a database file for sqlite.
func (c *Config) StoragePath() string {
	if c.Project.Storage.Path != "" {
		return c.Project.Storage.Path
	}
	if c.Project.Storage.Backend == BackendSQLite {
		return filepath.Join(c.StateDir(), defaultSQLiteFile)
	}
	return c.StateDir()
}

// Backend returns the configured storage backend.
func (c *Config) Backend() string {
	return c.Project.Storage.Backend
}

// QuestionsFile returns the custom catalog path, or "" for the built-in one.
func (c *Config) QuestionsFile() string {
	return c.Project.Onboarding.QuestionsFile
}

// GoalQuestion returns the question ID that decides routing.
func (c *Config) GoalQuestion() string {
	return c.Project.Onboarding.GoalQuestion
}

// Profile returns the local member profile.
func (c *Config) Profile() string {
	return c.Project.Onboarding.Profile
}

// LogLevel returns the configured log level.
func (c *Config) LogLevel() string {
	return c.Project.Log.Level
}

// TelegramToken returns the bot token, if any.
func (c *Config) TelegramToken() string {
	return c.Project.Telegram.Token
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	parsed := defaultProjectConfig()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return fmt.Errorf("config: parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := env.Parse(&parsed); err != nil {
		return fmt.Errorf("config: environment: %w", err)
	}
	parsed.applyDefaults()
	parsed.normalize(c.ProjectDir)
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		Storage: StorageConfig{
			Backend:  BackendFile,
			Firebase: FirebaseConfig{Root: defaultFirebaseRoot},
		},
		Onboarding: OnboardingConfig{
			GoalQuestion: defaultGoalQuestion,
			Profile:      defaultProfile,
		},
		Log: LogConfig{Level: defaultLogLevel},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.Storage.Backend) == "" {
		pc.Storage.Backend = BackendFile
	}
	if strings.TrimSpace(pc.Storage.Firebase.Root) == "" {
		pc.Storage.Firebase.Root = defaultFirebaseRoot
	}
	if strings.TrimSpace(pc.Onboarding.GoalQuestion) == "" {
		pc.Onboarding.GoalQuestion = defaultGoalQuestion
	}
	if strings.TrimSpace(pc.Onboarding.Profile) == "" {
		pc.Onboarding.Profile = defaultProfile
	}
	if strings.TrimSpace(pc.Log.Level) == "" {
		pc.Log.Level = defaultLogLevel
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.Storage.Backend = strings.ToLower(strings.TrimSpace(pc.Storage.Backend))
	pc.Storage.Path = resolvePath(base, pc.Storage.Path)
	pc.Storage.Firebase.CredentialsFile = resolvePath(base, pc.Storage.Firebase.CredentialsFile)
	pc.Storage.Firebase.DatabaseURL = strings.TrimSpace(pc.Storage.Firebase.DatabaseURL)
	pc.Storage.Firebase.Root = strings.Trim(strings.TrimSpace(pc.Storage.Firebase.Root), "/")
	pc.Onboarding.QuestionsFile = resolvePath(base, pc.Onboarding.QuestionsFile)
	pc.Onboarding.GoalQuestion = strings.TrimSpace(pc.Onboarding.GoalQuestion)
	pc.Onboarding.Profile = strings.TrimSpace(pc.Onboarding.Profile)
	pc.Telegram.Token = strings.TrimSpace(pc.Telegram.Token)
	pc.Log.Level = strings.ToLower(strings.TrimSpace(pc.Log.Level))
}

var profilePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidateProfile checks a member profile name. Profiles become file names
// and RTDB path segments, so only letters, digits and ._- are allowed.
func ValidateProfile(profile string) error {
	if !profilePattern.MatchString(profile) {
		return fmt.Errorf("invalid profile %q: use letters, digits, '.', '_' or '-' (at most 128)", profile)
	}
	return nil
}

var structValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("profile", func(fl validator.FieldLevel) bool {
		return ValidateProfile(fl.Field().String()) == nil
	}); err != nil {
		panic(err)
	}
	return v
}

func (pc *ProjectConfig) validate() error {
	if err := structValidator.Struct(pc); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return fmt.Errorf("%s: failed %q check (value %q)", first.Namespace(), first.Tag(), fmt.Sprint(first.Value()))
		}
		return err
	}
	if pc.Storage.Backend == BackendFirebase {
		if pc.Storage.Firebase.CredentialsFile == "" {
			return fmt.Errorf("storage.firebase.credentials_file is required for the firebase backend")
		}
		if pc.Storage.Firebase.DatabaseURL == "" {
			return fmt.Errorf("storage.firebase.database_url is required for the firebase backend")
		}
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}
