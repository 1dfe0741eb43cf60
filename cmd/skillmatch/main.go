// cmd/skillmatch/main.go
//
// This is the entry point for the skillmatch CLI.
// Running `skillmatch` with no arguments starts the onboarding wizard in the
// terminal; subcommands expose the Telegram bot and the stored preferences.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kingrea/skillmatch/internal/config"
	"github.com/kingrea/skillmatch/internal/logbook"
	"github.com/kingrea/skillmatch/internal/logging"
	"github.com/kingrea/skillmatch/internal/onboarding"
	"github.com/kingrea/skillmatch/internal/preferences"
)

var (
	// Global flags
	projectDir string
	verbose    bool
	dryRun     bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "skillmatch",
	Short: "Skill Match - onboarding for the village skill exchange",
	Long: `skillmatch asks a new member a few questions, stores their answers as
userPreferences and sends them to the part of the app that fits their goal.

Run without arguments to start the onboarding wizard.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWizard(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectDir, "dir", "d", "", "Project directory holding .skillmatch (default: current)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run the wizard without persisting answers")
	rootCmd.Flags().StringVar(&profileFlag, "profile", "", "Profile to store answers under (default: onboarding.profile)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(telegramCmd)
	rootCmd.AddCommand(preferencesCmd)
	rootCmd.AddCommand(questionsCmd)
	rootCmd.AddCommand(journalCmd)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runtime bundles what every command needs once the project is loaded.
type runtime struct {
	cfg     *config.Config
	logger  *logging.Logger
	journal *logbook.Logbook
	store   preferences.Store
}

func resolveProjectDir() (string, error) {
	if projectDir != "" {
		return projectDir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	return cwd, nil
}

// setup initializes .skillmatch, then opens the logger, journal and store.
func setup(ctx context.Context) (*runtime, error) {
	dir, err := resolveProjectDir()
	if err != nil {
		return nil, err
	}
	if err := config.InitDir(dir); err != nil {
		return nil, fmt.Errorf("initializing %s: %w", config.Dir, err)
	}
	cfg, err := config.NewConfig(dir)
	if err != nil {
		return nil, err
	}
	if dryRun {
		cfg.Project.Storage.Backend = config.BackendMemory
	}
	level := cfg.LogLevel()
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(cfg.LogsDir(), level)
	if err != nil {
		return nil, err
	}
	journal, err := logbook.New(cfg.JournalPath())
	if err != nil {
		_ = logger.Close()
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	store, err := preferences.Open(ctx, cfg, preferences.WithLogger(logger.Named("preferences")))
	if err != nil {
		_ = logger.Close()
		return nil, err
	}
	logger.Debug("runtime ready",
		zap.String("project", cfg.ProjectDir),
		zap.String("backend", cfg.Backend()),
		zap.String("storage", cfg.StoragePath()),
	)
	return &runtime{cfg: cfg, logger: logger, journal: journal, store: store}, nil
}

func (r *runtime) Close() {
	if err := r.store.Close(); err != nil {
		r.logger.Warn("closing store", zap.Error(err))
	}
	_ = r.logger.Close()
}

// profile is the --profile override, or the configured profile.
func (r *runtime) profile() (string, error) {
	if profileFlag == "" {
		return r.cfg.Profile(), nil
	}
	if err := config.ValidateProfile(profileFlag); err != nil {
		return "", fmt.Errorf("--profile: %w", err)
	}
	return profileFlag, nil
}

// questions loads the configured catalog or falls back to the built-in one.
func (r *runtime) questions() ([]onboarding.Question, error) {
	path := r.cfg.QuestionsFile()
	if path == "" {
		return onboarding.DefaultQuestions(), nil
	}
	qs, err := onboarding.LoadCatalog(path, r.cfg.GoalQuestion())
	if err != nil {
		return nil, err
	}
	r.logger.Info("loaded question catalog", zap.String("path", path), zap.Int("questions", len(qs)))
	return qs, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, preferences.ErrNotFound)
}
