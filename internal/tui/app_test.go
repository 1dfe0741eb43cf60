package tui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/skillmatch/internal/logbook"
	"github.com/kingrea/skillmatch/internal/onboarding"
	"github.com/kingrea/skillmatch/internal/preferences"
)

var (
	keyNext     = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")}
	keyPrevious = tea.KeyMsg{Type: tea.KeyLeft}
	keyDown     = tea.KeyMsg{Type: tea.KeyDown}
	keySpace    = tea.KeyMsg{Type: tea.KeySpace}
	keyComplete = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")}
	keyQuit     = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}
)

type failingWriter struct {
	failures int
	calls    int
}

func (w *failingWriter) Save(context.Context, string, onboarding.Answers) error {
	w.calls++
	if w.calls <= w.failures {
		return errors.New("disk full")
	}
	return nil
}

type blockingWriter struct {
	release chan struct{}
	err     error
	store   *preferences.MemoryStore
}

func (w *blockingWriter) Save(ctx context.Context, profile string, answers onboarding.Answers) error {
	<-w.release
	if w.err != nil {
		return w.err
	}
	return w.store.Save(ctx, profile, answers)
}

func newTestApp(t *testing.T, writer onboarding.PreferenceWriter, opts ...AppOption) *App {
	t.Helper()
	router := NewRouter()
	ctrl, err := onboarding.NewController(onboarding.DefaultQuestions(),
		onboarding.WithWriter(writer),
		onboarding.WithRouter(router),
	)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	return NewApp(ctrl, router.Routes(), opts...)
}

func runCommands(t *testing.T, model tea.Model, cmd tea.Cmd) *App {
	t.Helper()
	app, ok := model.(*App)
	if !ok {
		t.Fatalf("unexpected model type: %T", model)
	}
	for cmd != nil {
		msg := cmd()
		if msg == nil {
			break
		}
		if _, quit := msg.(tea.QuitMsg); quit {
			break
		}
		nextModel, nextCmd := app.Update(msg)
		var ok bool
		app, ok = nextModel.(*App)
		if !ok {
			t.Fatalf("unexpected model type: %T", nextModel)
		}
		cmd = nextCmd
	}
	return app
}

func press(t *testing.T, app *App, keys ...tea.KeyMsg) *App {
	t.Helper()
	for _, k := range keys {
		model, cmd := app.Update(k)
		app = runCommands(t, model, cmd)
	}
	return app
}

// answerAll walks the default questions: first age, Technology and Arts &
// Crafts, first learning style, then the goal at goalIndex.
func answerAll(t *testing.T, app *App, goalIndex int) *App {
	t.Helper()
	app = press(t, app, keySpace, keyNext)
	app = press(t, app, keySpace, keyDown, keyDown, keySpace, keyNext)
	app = press(t, app, keySpace, keyNext)
	for i := 0; i < goalIndex; i++ {
		app = press(t, app, keyDown)
	}
	return press(t, app, keySpace)
}

func TestWizardCompletesAndRoutes(t *testing.T) {
	store := preferences.NewMemoryStore()
	app := newTestApp(t, store)
	app = answerAll(t, app, 0)
	if !app.flow.Ready() {
		t.Fatalf("expected flow ready on last question, position %d", app.flow.Position())
	}
	app = press(t, app, keyComplete)

	if app.state != stateDestination {
		t.Fatalf("expected destination screen, got state %d (status %q, err %v)", app.state, app.statusMsg, app.err)
	}
	if got := app.Destination(); got != onboarding.DestinationSkillCreation {
		t.Fatalf("destination = %s, want skill-creation", got)
	}
	if store.Saves() != 1 {
		t.Fatalf("expected one save, got %d", store.Saves())
	}
	saved, err := store.Load(context.Background(), "local")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	interests := saved["interests"].Values()
	if strings.Join(interests, ",") != "Technology,Arts & Crafts" {
		t.Fatalf("unexpected interests %v", interests)
	}
	view := app.View()
	if !strings.Contains(view, "Share Your Skills") || !strings.Contains(view, "/create-skill") {
		t.Fatalf("destination view missing title or route:\n%s", view)
	}
}

func TestWizardExploringGoesHome(t *testing.T) {
	app := newTestApp(t, preferences.NewMemoryStore())
	app = answerAll(t, app, 3)
	app = press(t, app, keyComplete)
	if got := app.Destination(); got != onboarding.DestinationHome {
		t.Fatalf("destination = %s, want home", got)
	}
}

func TestWizardNextRequiresAnswer(t *testing.T) {
	app := newTestApp(t, preferences.NewMemoryStore())
	app = press(t, app, keyNext)
	if app.flow.Position() != 0 {
		t.Fatalf("next without an answer moved to %d", app.flow.Position())
	}
	if app.statusMsg == "" {
		t.Fatalf("expected a hint after blocked next")
	}
	app = press(t, app, keySpace, keyNext)
	if app.flow.Position() != 1 || app.statusMsg != "" {
		t.Fatalf("expected step 2 with cleared status, got %d %q", app.flow.Position(), app.statusMsg)
	}
}

func TestWizardPreviousRestoresCursor(t *testing.T) {
	app := newTestApp(t, preferences.NewMemoryStore())
	app = press(t, app, keyDown, keyDown, keySpace, keyNext)
	if app.cursor != 0 {
		t.Fatalf("cursor should reset on an unanswered question, got %d", app.cursor)
	}
	app = press(t, app, keyPrevious)
	if app.flow.Position() != 0 {
		t.Fatalf("previous did not move back")
	}
	if app.cursor != 2 {
		t.Fatalf("cursor should land on the saved answer, got %d", app.cursor)
	}
	if !app.flow.IsSelected("35-54 (Adult)") {
		t.Fatalf("saved answer not restored: %v", app.flow.Selection())
	}
}

func TestWizardCompleteOnlyOnReadyFlow(t *testing.T) {
	store := preferences.NewMemoryStore()
	app := newTestApp(t, store)
	app = press(t, app, keySpace, keyComplete)
	if app.state != stateWizard || store.Saves() != 0 {
		t.Fatalf("complete on step 1 should be ignored")
	}
}

func TestWizardSaveFailureAllowsRetry(t *testing.T) {
	writer := &failingWriter{failures: 1}
	app := newTestApp(t, writer)
	app = answerAll(t, app, 1)
	app = press(t, app, keyComplete)
	if app.state != stateWizard || app.err == nil {
		t.Fatalf("expected to stay in wizard with an error, state %d err %v", app.state, app.err)
	}
	if app.completing {
		t.Fatalf("completing flag should clear after failure")
	}
	app = press(t, app, keyComplete)
	if app.state != stateDestination || app.Destination() != onboarding.DestinationSkillDiscovery {
		t.Fatalf("retry should complete, state %d dest %s", app.state, app.Destination())
	}
	if writer.calls != 2 {
		t.Fatalf("expected two save attempts, got %d", writer.calls)
	}
}

func TestWizardIgnoresInputWhileCompleting(t *testing.T) {
	app := newTestApp(t, preferences.NewMemoryStore())
	app = press(t, app, keySpace)
	app.completing = true
	model, cmd := app.Update(keyNext)
	if cmd != nil {
		t.Fatalf("expected no command while completing")
	}
	if model.(*App).flow.Position() != 0 {
		t.Fatalf("input should be ignored while completing")
	}
}

func TestWizardQuitWritesNothing(t *testing.T) {
	store := preferences.NewMemoryStore()
	lb, err := logbook.New(filepath.Join(t.TempDir(), "journal.log"))
	if err != nil {
		t.Fatalf("logbook: %v", err)
	}
	app := newTestApp(t, store, WithLogbook(lb))
	app = press(t, app, keySpace, keyNext)
	model, cmd := app.Update(keyQuit)
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
	if !model.(*App).Quitting() {
		t.Fatalf("app should report quitting")
	}
	if store.Saves() != 0 {
		t.Fatalf("quit must not persist answers")
	}
	lines, _ := lb.Tail(5)
	if len(lines) != 1 || !strings.Contains(lines[0], " left ") || !strings.Contains(lines[0], "local at Step 2 of 4") {
		t.Fatalf("unexpected journal lines %v", lines)
	}
}

// startComplete presses Complete and runs the save on its own goroutine, the
// way the bubbletea runtime does.
func startComplete(t *testing.T, app *App) (*App, <-chan tea.Msg) {
	t.Helper()
	model, cmd := app.Update(keyComplete)
	if cmd == nil {
		t.Fatalf("expected a complete command")
	}
	results := make(chan tea.Msg, 1)
	go func() { results <- cmd() }()
	return model.(*App), results
}

func TestWizardQuitWaitsForPendingSave(t *testing.T) {
	writer := &blockingWriter{store: preferences.NewMemoryStore(), release: make(chan struct{})}
	lb, err := logbook.New(filepath.Join(t.TempDir(), "journal.log"))
	if err != nil {
		t.Fatalf("logbook: %v", err)
	}
	app := newTestApp(t, writer, WithLogbook(lb))
	app = answerAll(t, app, 1)
	app, results := startComplete(t, app)

	model, cmd := app.Update(keyQuit)
	app = model.(*App)
	if cmd != nil {
		t.Fatalf("quit should wait for the save in flight")
	}
	if app.Quitting() {
		t.Fatalf("app should not report quitting while the save is pending")
	}

	close(writer.release)
	model, cmd = app.Update(<-results)
	app = model.(*App)
	if cmd == nil {
		t.Fatalf("expected quit once the save finished")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
	if app.Quitting() {
		t.Fatalf("a saved member did not leave onboarding")
	}
	if app.Destination() != onboarding.DestinationSkillDiscovery {
		t.Fatalf("destination = %s", app.Destination())
	}
	if writer.store.Saves() != 1 {
		t.Fatalf("saves = %d, want 1", writer.store.Saves())
	}
	if lines, total := lb.Tail(5); total != 0 {
		t.Fatalf("nothing should be journalled as left, got %v", lines)
	}
}

func TestWizardQuitAfterFailedPendingSave(t *testing.T) {
	writer := &blockingWriter{store: preferences.NewMemoryStore(), release: make(chan struct{}), err: errors.New("disk full")}
	lb, err := logbook.New(filepath.Join(t.TempDir(), "journal.log"))
	if err != nil {
		t.Fatalf("logbook: %v", err)
	}
	app := newTestApp(t, writer, WithLogbook(lb))
	app = answerAll(t, app, 0)
	app, results := startComplete(t, app)

	model, _ := app.Update(keyQuit)
	app = model.(*App)
	close(writer.release)
	model, cmd := app.Update(<-results)
	app = model.(*App)
	if cmd == nil {
		t.Fatalf("expected quit once the save finished")
	}
	if !app.Quitting() {
		t.Fatalf("member left without a saved record")
	}
	if writer.store.Saves() != 0 {
		t.Fatalf("failed save must not persist")
	}
	lines, _ := lb.Tail(5)
	if len(lines) != 1 || !strings.Contains(lines[0], "local at Step 4 of 4") {
		t.Fatalf("unexpected journal lines %v", lines)
	}
}

func TestWizardViewShowsProgressAndHints(t *testing.T) {
	app := newTestApp(t, preferences.NewMemoryStore())
	view := app.View()
	for _, want := range []string{"Step 1 of 4", "What's your age group?", "🧒", "Please tell us about yourself"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
	app = press(t, app, keySpace, keyNext)
	if view := app.View(); !strings.Contains(view, "Select all that apply") {
		t.Fatalf("multi question should show hint:\n%s", view)
	}
}

func TestRouterDropsSecondPendingRoute(t *testing.T) {
	r := NewRouter()
	ctx := context.Background()
	if err := r.Navigate(ctx, onboarding.DestinationHome); err != nil {
		t.Fatalf("first navigate: %v", err)
	}
	if err := r.Navigate(ctx, onboarding.DestinationSkillDiscovery); err == nil {
		t.Fatalf("expected error when a destination is already pending")
	}
	if got := <-r.Routes(); got != onboarding.DestinationHome {
		t.Fatalf("got %s", got)
	}
}
