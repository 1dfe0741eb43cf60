package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-telegram/bot"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/skillmatch/internal/config"
	"github.com/kingrea/skillmatch/internal/onboarding"
	"github.com/kingrea/skillmatch/internal/preferences"
	"github.com/kingrea/skillmatch/internal/telegram"
	"github.com/kingrea/skillmatch/internal/tui"
)

var (
	profileFlag string
	jsonOutput  bool
	journalMax  int
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create .skillmatch with a default config.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := resolveProjectDir()
		if err != nil {
			return err
		}
		if err := config.InitDir(dir); err != nil {
			return err
		}
		cfg, err := config.NewConfig(dir)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s (backend: %s)\n", cfg.StateRoot, cfg.Backend())
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Run the onboarding wizard",
	Long: `Walks through the registration questions. Nothing is stored until you
complete the last question; quitting early discards your answers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWizard(cmd.Context())
	},
}

var telegramCmd = &cobra.Command{
	Use:   "telegram",
	Short: "Serve onboarding through a Telegram bot",
	Long: `Starts a long-polling Telegram bot. Members send /register and answer
with inline buttons. The token comes from telegram.token in config.yaml or
SKILLMATCH_TELEGRAM_TOKEN.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTelegram(cmd.Context())
	},
}

var preferencesCmd = &cobra.Command{
	Use:   "preferences",
	Short: "Show the stored userPreferences record",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		profile, err := rt.profile()
		if err != nil {
			return err
		}
		answers, err := rt.store.Load(cmd.Context(), profile)
		if isNotFound(err) {
			fmt.Fprintf(cmd.OutOrStdout(), "No preferences stored for %s. Run `skillmatch register` first.\n", profile)
			return nil
		}
		if err != nil {
			return err
		}
		if jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]onboarding.Answers{onboarding.PreferencesKey: answers})
		}
		qs, err := rt.questions()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", onboarding.PreferencesKey, profile)
		if ts, ok := rt.store.(preferences.Timestamped); ok {
			if at, err := ts.UpdatedAt(cmd.Context(), profile); err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-16s %s\n", "updated", at.Local().Format(time.DateTime))
			}
		}
		for _, q := range qs {
			a, ok := answers[q.ID]
			if !ok {
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %-16s %s\n", q.ID, a)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  → %s\n", onboarding.DestinationFor(answers[rt.cfg.GoalQuestion()]).Route())
		return nil
	},
}

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Print the active question catalog as YAML",
	Long: `Prints the catalog in the format accepted by onboarding.questions_file,
which makes a good starting point for a custom catalog.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()
		qs, err := rt.questions()
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(onboarding.Catalog{Questions: qs})
	},
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show recent onboarding journal entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()
		lines, total := rt.journal.Tail(journalMax)
		if total == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Journal is empty.")
			return nil
		}
		for _, line := range lines {
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		if total > len(lines) {
			fmt.Fprintf(cmd.OutOrStdout(), "(%d of %d entries)\n", len(lines), total)
		}
		return nil
	},
}

func init() {
	registerCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run the wizard without persisting answers")
	registerCmd.Flags().StringVar(&profileFlag, "profile", "", "Profile to store answers under (default: onboarding.profile)")
	preferencesCmd.Flags().StringVar(&profileFlag, "profile", "", "Profile to read (default: onboarding.profile)")
	preferencesCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the raw record as JSON")
	journalCmd.Flags().IntVarP(&journalMax, "lines", "n", 20, "Number of entries to show")
}

func runWizard(ctx context.Context) error {
	rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	qs, err := rt.questions()
	if err != nil {
		return err
	}
	profile, err := rt.profile()
	if err != nil {
		return err
	}
	router := tui.NewRouter()
	ctrl, err := onboarding.NewController(qs,
		onboarding.WithWriter(rt.store),
		onboarding.WithRouter(router),
		onboarding.WithJournal(rt.journal),
		onboarding.WithLogger(rt.logger.Named("onboarding")),
		onboarding.WithProfile(profile),
		onboarding.WithGoalQuestion(rt.cfg.GoalQuestion()),
	)
	if err != nil {
		return err
	}
	rt.logger.Info("wizard started", zap.String("profile", profile), zap.String("session", ctrl.SessionID()))

	app := tui.NewApp(ctrl, router.Routes(), tui.WithLogbook(rt.journal), tui.WithContext(ctx))
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running TUI: %w", err)
	}
	if dest := app.Destination(); dest != "" {
		fmt.Printf("Welcome aboard! Opening %s (%s)\n", dest.Title(), dest.Route())
	}
	return nil
}

func runTelegram(ctx context.Context) error {
	rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	token := rt.cfg.TelegramToken()
	if token == "" {
		return errors.New("telegram: no bot token; set SKILLMATCH_TELEGRAM_TOKEN")
	}
	qs, err := rt.questions()
	if err != nil {
		return err
	}
	handler, err := telegram.NewHandler(qs, rt.store,
		telegram.WithJournal(rt.journal),
		telegram.WithLogger(rt.logger.Named("telegram")),
		telegram.WithGoalQuestion(rt.cfg.GoalQuestion()),
	)
	if err != nil {
		return err
	}
	b, err := bot.New(token, bot.WithDefaultHandler(handler.Handle))
	if err != nil {
		return fmt.Errorf("telegram: creating bot: %w", err)
	}
	rt.logger.Info("telegram bot started", zap.String("backend", rt.cfg.Backend()))
	fmt.Fprintln(os.Stderr, "Telegram bot running. Press Ctrl+C to stop.")
	b.Start(ctx)
	rt.logger.Info("telegram bot stopped")
	return nil
}
