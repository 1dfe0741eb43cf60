// internal/tui/app.go
//
// This is the onboarding wizard for skillmatch.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The flow is: User Input -> Message -> Update -> New Model -> View -> Screen

package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/skillmatch/internal/logbook"
	"github.com/kingrea/skillmatch/internal/onboarding"
)

// appState represents which "screen" we're on
type appState int

const (
	stateWizard      appState = iota // Answering questions
	stateDestination                 // Onboarding finished, showing where the member landed
)

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithLogbook shows the journal tail on the destination screen and records
// quits.
func WithLogbook(lb *logbook.Logbook) AppOption {
	return func(a *App) {
		if lb != nil {
			a.logbook = lb
		}
	}
}

// WithContext sets the context passed to Complete.
func WithContext(ctx context.Context) AppOption {
	return func(a *App) {
		if ctx != nil {
			a.ctx = ctx
		}
	}
}

// completeResultMsg carries the outcome of Controller.Complete.
type completeResultMsg struct {
	dest onboarding.Destination
	ok   bool
	err  error
}

// routeMsg is delivered when the router hands over a destination.
type routeMsg struct {
	dest onboarding.Destination
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	state      appState
	ctx        context.Context
	controller *onboarding.Controller
	profile    string
	routes     <-chan onboarding.Destination
	logbook    *logbook.Logbook

	// flow is a snapshot of the controller's flow. The view reads it so a
	// pending Complete never races with rendering.
	flow       onboarding.Flow
	cursor     int
	completing bool
	saved      bool
	quitting   bool

	// pendingQuit defers a quit until the Complete in flight reports back.
	pendingQuit bool

	destination onboarding.Destination
	statusMsg   string
	err         error

	keys     keyMap
	help     help.Model
	progress progress.Model

	// Window size (we get this from bubbletea)
	width  int
	height int
}

// NewApp creates the wizard around a controller whose router feeds routes.
func NewApp(controller *onboarding.Controller, routes <-chan onboarding.Destination, opts ...AppOption) *App {
	app := &App{
		state:      stateWizard,
		ctx:        context.Background(),
		controller: controller,
		profile:    controller.Profile(),
		routes:     routes,
		keys:       defaultKeyMap(),
		help:       help.New(),
		progress:   progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	app.syncFlow()
	return app
}

// Destination reports where onboarding ended, or "" while it is in progress.
func (a *App) Destination() onboarding.Destination { return a.destination }

// Quitting reports whether the member left before finishing.
func (a *App) Quitting() bool { return a.quitting }

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return nil
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.progress.Width = max(10, min(60, msg.Width-8))
		return a, nil

	case completeResultMsg:
		return a.handleCompleteResult(msg)

	case routeMsg:
		a.state = stateDestination
		a.destination = msg.dest
		a.statusMsg = ""
		return a, nil

	case tea.KeyMsg:
		if key.Matches(msg, a.keys.Quit) {
			return a.quit()
		}
		if a.state == stateDestination {
			if msg.String() == "enter" {
				return a, tea.Quit
			}
			return a, nil
		}
		if a.completing || a.saved {
			return a, nil
		}
		return a.handleWizardKey(msg)
	}

	return a, nil
}

func (a *App) handleWizardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	options := a.flow.Current().Options
	switch {
	case key.Matches(msg, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
	case key.Matches(msg, a.keys.Down):
		if a.cursor < len(options)-1 {
			a.cursor++
		}
	case key.Matches(msg, a.keys.Select):
		if a.cursor < len(options) && a.controller.Select(options[a.cursor]) {
			a.statusMsg = ""
			a.syncFlow()
		}
	case key.Matches(msg, a.keys.Next):
		if a.controller.Next() {
			a.statusMsg = ""
			a.syncFlow()
			a.resetCursor()
		} else if !a.flow.IsLast() {
			a.statusMsg = "Choose an answer to continue"
		}
	case key.Matches(msg, a.keys.Previous):
		if a.controller.Previous() {
			a.statusMsg = ""
			a.syncFlow()
			a.resetCursor()
		}
	case key.Matches(msg, a.keys.Complete):
		if !a.flow.Ready() {
			a.statusMsg = "Answer the last question to finish"
			return a, nil
		}
		a.completing = true
		a.err = nil
		a.statusMsg = "Saving your preferences..."
		return a, a.complete()
	}
	return a, nil
}

func (a *App) complete() tea.Cmd {
	ctrl := a.controller
	ctx := a.ctx
	return func() tea.Msg {
		dest, ok, err := ctrl.Complete(ctx)
		return completeResultMsg{dest: dest, ok: ok, err: err}
	}
}

func (a *App) waitForRoute() tea.Cmd {
	routes := a.routes
	if routes == nil {
		return nil
	}
	return func() tea.Msg {
		dest, ok := <-routes
		if !ok {
			return nil
		}
		return routeMsg{dest: dest}
	}
}

func (a *App) handleCompleteResult(msg completeResultMsg) (tea.Model, tea.Cmd) {
	a.completing = false
	if !msg.ok {
		if msg.err != nil {
			a.err = msg.err
			a.statusMsg = "Could not save your preferences. Press c to try again."
		} else {
			a.statusMsg = "Answer the last question to finish"
		}
		if a.pendingQuit {
			return a.quit()
		}
		return a, nil
	}
	a.saved = true
	if a.pendingQuit {
		// The controller journalled the completion; nothing was abandoned.
		a.destination = msg.dest
		return a, tea.Quit
	}
	if msg.err != nil {
		// Saved but the hand-off failed; show the destination directly.
		a.err = msg.err
		a.state = stateDestination
		a.destination = msg.dest
		a.statusMsg = ""
		return a, nil
	}
	a.statusMsg = "Preferences saved"
	if cmd := a.waitForRoute(); cmd != nil {
		return a, cmd
	}
	return a.Update(routeMsg{dest: msg.dest})
}

// quit never touches the controller: a Complete may be running on a command
// goroutine. While one is in flight the quit waits for its result.
func (a *App) quit() (tea.Model, tea.Cmd) {
	if a.completing {
		a.pendingQuit = true
		a.statusMsg = "Finishing the save before quitting..."
		return a, nil
	}
	if a.state == stateWizard && !a.saved {
		a.quitting = true
		a.logbook.Left(a.profile, a.flow.Progress().String())
	}
	return a, tea.Quit
}

func (a *App) syncFlow() {
	a.flow = a.controller.Flow()
	a.keys.Previous.SetEnabled(a.flow.CanRetreat())
	a.keys.Next.SetEnabled(!a.flow.IsLast())
	a.keys.Complete.SetEnabled(a.flow.IsLast())
}

// resetCursor points at the first selected option of the active question.
func (a *App) resetCursor() {
	a.cursor = 0
	q := a.flow.Current()
	for i, option := range q.Options {
		if a.flow.IsSelected(option) {
			a.cursor = i
			return
		}
	}
}

