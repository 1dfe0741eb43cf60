package onboarding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type recordingWriter struct {
	saves   []Answers
	profile string
	err     error
}

func (w *recordingWriter) Save(_ context.Context, profile string, answers Answers) error {
	if w.err != nil {
		return w.err
	}
	w.profile = profile
	w.saves = append(w.saves, answers)
	return nil
}

type recordingJournal struct {
	lines []string
}

func (j *recordingJournal) Completed(profile, session, goal, route string) {
	j.lines = append(j.lines, fmt.Sprintf("completed %s %s %s %s", profile, session, goal, route))
}

func (j *recordingJournal) SaveFailed(profile, session string, err error) {
	j.lines = append(j.lines, fmt.Sprintf("save-failed %s %s %v", profile, session, err))
}

func newTestController(t *testing.T, w PreferenceWriter, routes *[]Destination, opts ...Option) *Controller {
	t.Helper()
	router := RouterFunc(func(_ context.Context, dest Destination) error {
		*routes = append(*routes, dest)
		return nil
	})
	all := append([]Option{WithWriter(w), WithRouter(router), WithProfile("tester"), WithSessionID("s-1")}, opts...)
	c, err := NewController(DefaultQuestions(), all...)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	return c
}

func walkTo(t *testing.T, c *Controller, age string, interests []string, style, goal string) {
	t.Helper()
	steps := []func() bool{
		func() bool { return c.Select(age) },
		c.Next,
	}
	for _, interest := range interests {
		interest := interest
		steps = append(steps, func() bool { return c.Select(interest) })
	}
	steps = append(steps,
		c.Next,
		func() bool { return c.Select(style) },
		c.Next,
		func() bool { return c.Select(goal) },
	)
	for i, step := range steps {
		if !step() {
			t.Fatalf("step %d was rejected at position %d", i, c.Flow().Position())
		}
	}
}

func TestControllerCompleteWritesOnceAndRoutes(t *testing.T) {
	cases := map[string]Destination{
		GoalTeach:   DestinationSkillCreation,
		GoalLearn:   DestinationSkillDiscovery,
		GoalBoth:    DestinationHome,
		GoalExplore: DestinationHome,
	}
	for goal, want := range cases {
		writer := &recordingWriter{}
		var routes []Destination
		journal := &recordingJournal{}
		c := newTestController(t, writer, &routes, WithJournal(journal))
		walkTo(t, c, "55+ (Wise Elder)", []string{"Gardening", "Cooking"}, "In-person meetups", goal)

		if len(writer.saves) != 0 {
			t.Fatalf("%s: preferences written before completion", goal)
		}
		dest, ok, err := c.Complete(context.Background())
		if err != nil || !ok {
			t.Fatalf("%s: complete = %v, %v", goal, ok, err)
		}
		if dest != want {
			t.Fatalf("%s: destination = %s, want %s", goal, dest, want)
		}
		if diff := cmp.Diff([]Destination{want}, routes); diff != "" {
			t.Fatalf("%s: routes (-want +got):\n%s", goal, diff)
		}
		if len(writer.saves) != 1 {
			t.Fatalf("%s: saves = %d, want 1", goal, len(writer.saves))
		}
		wantAnswers := Answers{
			"age":            Single("55+ (Wise Elder)"),
			"interests":      Multi("Gardening", "Cooking"),
			"learning_style": Single("In-person meetups"),
			"goal":           Single(goal),
		}
		if diff := cmp.Diff(wantAnswers, writer.saves[0]); diff != "" {
			t.Fatalf("%s: saved answers (-want +got):\n%s", goal, diff)
		}
		if writer.profile != "tester" {
			t.Fatalf("%s: profile = %q", goal, writer.profile)
		}
		if len(journal.lines) != 1 || !strings.Contains(journal.lines[0], want.Route()) {
			t.Fatalf("%s: journal = %v", goal, journal.lines)
		}

		// The flow is gone: nothing else happens.
		if _, ok, _ := c.Complete(context.Background()); ok {
			t.Fatalf("%s: second complete accepted", goal)
		}
		if c.Select(GoalTeach) || c.Previous() || c.Next() {
			t.Fatalf("%s: transitions accepted after completion", goal)
		}
		if len(writer.saves) != 1 || len(routes) != 1 {
			t.Fatalf("%s: extra side effects after completion", goal)
		}
	}
}

func TestControllerCompleteRequiresLastAnsweredQuestion(t *testing.T) {
	writer := &recordingWriter{}
	var routes []Destination
	c := newTestController(t, writer, &routes)

	c.Select("13-17 (Youth)")
	if _, ok, err := c.Complete(context.Background()); ok || err != nil {
		t.Fatalf("complete on first question = %v, %v", ok, err)
	}
	c.Next()
	c.Select("Music")
	c.Next()
	c.Select("Video calls")
	c.Next()
	if _, ok, _ := c.Complete(context.Background()); ok {
		t.Fatalf("complete accepted without a goal")
	}
	if len(writer.saves) != 0 || len(routes) != 0 {
		t.Fatalf("rejected completion had side effects")
	}
}

func TestControllerSaveFailureKeepsFlow(t *testing.T) {
	writer := &recordingWriter{err: errors.New("disk full")}
	var routes []Destination
	journal := &recordingJournal{}
	c := newTestController(t, writer, &routes, WithJournal(journal))
	walkTo(t, c, "18-34 (Young Adult)", []string{"Technology"}, "Text messages", GoalLearn)

	_, ok, err := c.Complete(context.Background())
	if err == nil || ok {
		t.Fatalf("expected save failure, got ok=%v err=%v", ok, err)
	}
	if !strings.Contains(err.Error(), PreferencesKey) {
		t.Fatalf("error should name the record: %v", err)
	}
	if c.Done() || len(routes) != 0 {
		t.Fatalf("failed save must not complete or route")
	}
	if c.Flow().Position() != 3 || !c.Flow().Ready() {
		t.Fatalf("flow lost its state after failed save")
	}

	writer.err = nil
	dest, ok, err := c.Complete(context.Background())
	if err != nil || !ok || dest != DestinationSkillDiscovery {
		t.Fatalf("retry = %s, %v, %v", dest, ok, err)
	}
	want := []string{
		"save-failed tester s-1 disk full",
		`completed tester s-1 "I want to learn new things" /skill-match`,
	}
	if diff := cmp.Diff(want, journal.lines); diff != "" {
		t.Fatalf("journal (-want +got):\n%s", diff)
	}
}

func TestControllerRouterFailureStillCompletes(t *testing.T) {
	writer := &recordingWriter{}
	router := RouterFunc(func(context.Context, Destination) error { return errors.New("no route") })
	c, err := NewController(DefaultQuestions(), WithWriter(writer), WithRouter(router))
	if err != nil {
		t.Fatal(err)
	}
	walkTo(t, c, "35-54 (Adult)", []string{"Sports"}, "Voice messages", GoalTeach)
	dest, ok, err := c.Complete(context.Background())
	if err == nil || !ok || dest != DestinationSkillCreation {
		t.Fatalf("complete = %s, %v, %v", dest, ok, err)
	}
	if !c.Done() || len(writer.saves) != 1 {
		t.Fatalf("completion should have taken effect")
	}
}

func TestControllerRejectsCatalogWithoutGoal(t *testing.T) {
	if _, err := NewController(DefaultQuestions(), WithGoalQuestion("missing")); err == nil {
		t.Fatalf("expected error for unknown goal question")
	}
}

func TestControllerSelectReportsRejection(t *testing.T) {
	var routes []Destination
	c := newTestController(t, &recordingWriter{}, &routes)
	if c.Select("Technology") {
		t.Fatalf("option from another question accepted")
	}
	if c.Previous() {
		t.Fatalf("previous accepted at first question")
	}
	if c.Next() {
		t.Fatalf("next accepted without an answer")
	}
	if c.SessionID() != "s-1" || c.Profile() != "tester" {
		t.Fatalf("options not applied: %s %s", c.SessionID(), c.Profile())
	}
}
