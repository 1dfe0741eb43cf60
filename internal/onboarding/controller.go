package onboarding

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PreferencesKey is the record name the answer set is persisted under.
const PreferencesKey = "userPreferences"

// PreferenceWriter persists a completed answer set for a profile.
type PreferenceWriter interface {
	Save(ctx context.Context, profile string, answers Answers) error
}

// Router receives the destination chosen at completion.
type Router interface {
	Navigate(ctx context.Context, dest Destination) error
}

// RouterFunc adapts a function to Router.
type RouterFunc func(ctx context.Context, dest Destination) error

// Navigate calls f.
func (f RouterFunc) Navigate(ctx context.Context, dest Destination) error {
	return f(ctx, dest)
}

// Journal records human-readable milestones.
type Journal interface {
	Completed(profile, session, goal, route string)
	SaveFailed(profile, session string, err error)
}

// Controller drives one onboarding session. It is not safe for concurrent use;
// callers serialise events per session.
type Controller struct {
	flow        Flow
	goalID      string
	profile     string
	session     string
	writer      PreferenceWriter
	router      Router
	journal     Journal
	logger      *zap.Logger
	done        bool
	destination Destination
}

// Option customises a Controller.
type Option func(*Controller)

// WithWriter sets where the answer set is persisted on completion.
func WithWriter(w PreferenceWriter) Option {
	return func(c *Controller) {
		c.writer = w
	}
}

// WithRouter sets who is told the destination on completion.
func WithRouter(r Router) Option {
	return func(c *Controller) {
		c.router = r
	}
}

// WithJournal records completions in a human-facing log.
func WithJournal(j Journal) Option {
	return func(c *Controller) {
		c.journal = j
	}
}

// WithLogger overrides the no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithProfile names the member the answers belong to.
func WithProfile(profile string) Option {
	return func(c *Controller) {
		if profile != "" {
			c.profile = profile
		}
	}
}

// WithGoalQuestion overrides the question used for routing.
func WithGoalQuestion(id string) Option {
	return func(c *Controller) {
		if id != "" {
			c.goalID = id
		}
	}
}

// WithSessionID pins the session identifier, mostly for tests.
func WithSessionID(id string) Option {
	return func(c *Controller) {
		if id != "" {
			c.session = id
		}
	}
}

// NewController validates the questions and starts a flow at the first one.
func NewController(questions []Question, opts ...Option) (*Controller, error) {
	c := &Controller{
		goalID:  DefaultGoalQuestion,
		profile: "local",
		session: uuid.NewString(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := ValidateCatalog(questions, c.goalID); err != nil {
		return nil, fmt.Errorf("onboarding: %w", err)
	}
	flow, err := NewFlow(questions)
	if err != nil {
		return nil, err
	}
	c.flow = flow
	c.logger = c.logger.With(zap.String("session", c.session), zap.String("profile", c.profile))
	c.logger.Debug("onboarding started", zap.Int("questions", flow.Len()))
	return c, nil
}

// Flow returns the current state for rendering.
func (c *Controller) Flow() Flow { return c.flow }

// Profile returns the member the session belongs to.
func (c *Controller) Profile() string { return c.profile }

// SessionID returns the identifier used in logs and the journal.
func (c *Controller) SessionID() string { return c.session }

// Done reports whether the flow has been completed.
func (c *Controller) Done() bool { return c.done }

// Destination returns where the member was routed, once done.
func (c *Controller) Destination() Destination { return c.destination }

// Select applies an option to the active question and reports whether it was
// accepted.
func (c *Controller) Select(option string) bool {
	if c.done || !c.flow.Current().HasOption(option) {
		return false
	}
	c.flow = c.flow.Select(option)
	c.logger.Debug("option selected",
		zap.String("question", c.flow.Current().ID),
		zap.String("option", option),
		zap.Strings("selection", c.flow.Selection()),
	)
	return true
}

// Next advances the cursor and reports whether it moved.
func (c *Controller) Next() bool {
	if c.done {
		return false
	}
	return c.move(c.flow.Next(), "next")
}

// Previous moves the cursor back and reports whether it moved.
func (c *Controller) Previous() bool {
	if c.done {
		return false
	}
	return c.move(c.flow.Previous(), "previous")
}

func (c *Controller) move(next Flow, action string) bool {
	if next.Position() == c.flow.Position() {
		c.logger.Debug("transition ignored", zap.String("action", action), zap.Int("position", c.flow.Position()))
		return false
	}
	c.flow = next
	c.logger.Debug("moved", zap.String("action", action), zap.Int("position", next.Position()), zap.String("question", next.Current().ID))
	return true
}

// Complete persists the answer set, discards the flow and hands the
// destination to the router. ok is false when the flow is not ready, in which
// case nothing happens. A persistence error leaves the flow in place so the
// member can retry; a routing error is reported after completion took effect.
func (c *Controller) Complete(ctx context.Context) (dest Destination, ok bool, err error) {
	if c.done || !c.flow.Ready() {
		c.logger.Debug("complete ignored", zap.Int("position", c.flow.Position()))
		return "", false, nil
	}
	answers := c.flow.Answers()
	if c.writer != nil {
		if err := c.writer.Save(ctx, c.profile, answers); err != nil {
			c.logger.Warn("saving preferences failed", zap.Error(err))
			if c.journal != nil {
				c.journal.SaveFailed(c.profile, c.session, err)
			}
			return "", false, fmt.Errorf("onboarding: save %s: %w", PreferencesKey, err)
		}
	}
	dest = DestinationFor(answers[c.goalID])
	c.done = true
	c.destination = dest
	c.flow = Flow{}

	c.logger.Info("onboarding complete",
		zap.String("destination", string(dest)),
		zap.String("goal", answers[c.goalID].Value()),
	)
	if c.journal != nil {
		c.journal.Completed(c.profile, c.session, answers[c.goalID].String(), dest.Route())
	}
	if c.router != nil {
		if err := c.router.Navigate(ctx, dest); err != nil {
			return dest, true, fmt.Errorf("onboarding: navigate to %s: %w", dest, err)
		}
	}
	return dest, true, nil
}
