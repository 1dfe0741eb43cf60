package onboarding

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// ErrNoQuestions is returned when a flow is started without any question.
var ErrNoQuestions = errors.New("onboarding: no questions")

// Flow is the state of one onboarding session: the cursor, the answer set and
// the selection buffer of the active question. Transition methods never mutate
// the receiver; they return the next Flow. The zero Flow has no questions and
// ignores every transition.
type Flow struct {
	questions []Question
	position  int
	answers   Answers
	selection []string
}

// Progress describes how far the flow is, counting the active question.
type Progress struct {
	Step    int
	Total   int
	Percent int
}

// String renders "Step i of N".
func (p Progress) String() string {
	return fmt.Sprintf("Step %d of %d", p.Step, p.Total)
}

// Fraction returns Step/Total in [0, 1].
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Step) / float64(p.Total)
}

// NewFlow starts a flow at the first question with no answers.
func NewFlow(questions []Question) (Flow, error) {
	if len(questions) == 0 {
		return Flow{}, ErrNoQuestions
	}
	owned := make([]Question, len(questions))
	for i, q := range questions {
		if err := q.Validate(); err != nil {
			return Flow{}, fmt.Errorf("onboarding: questions[%d]: %w", i, err)
		}
		owned[i] = cloneQuestion(q)
	}
	return Flow{questions: owned, answers: Answers{}}, nil
}

// Len returns the number of questions.
func (f Flow) Len() int { return len(f.questions) }

// Position returns the cursor.
func (f Flow) Position() int { return f.position }

// Current returns the active question.
func (f Flow) Current() Question {
	if len(f.questions) == 0 {
		return Question{}
	}
	return f.questions[f.position]
}

// Questions returns the sequence the flow walks.
func (f Flow) Questions() []Question {
	return slices.Clone(f.questions)
}

// IsFirst reports whether the cursor is on the first question.
func (f Flow) IsFirst() bool { return f.position == 0 }

// IsLast reports whether the cursor is on the last question.
func (f Flow) IsLast() bool { return len(f.questions) > 0 && f.position == len(f.questions)-1 }

// Answers returns a copy of the answer set.
func (f Flow) Answers() Answers { return f.answers.Clone() }

// Answer returns the recorded answer for the active question.
func (f Flow) Answer() (Answer, bool) {
	return f.answers.Get(f.Current().ID)
}

// Selection returns the selection buffer of the active question.
func (f Flow) Selection() []string { return slices.Clone(f.selection) }

// IsSelected reports whether option is highlighted on the active question.
func (f Flow) IsSelected(option string) bool {
	return slices.Contains(f.selection, option)
}

// CanProceed reports whether the active question has a usable answer.
func (f Flow) CanProceed() bool {
	if len(f.questions) == 0 {
		return false
	}
	answer, ok := f.Answer()
	return ok && answer.Satisfied()
}

// CanAdvance reports whether Next would move the cursor.
func (f Flow) CanAdvance() bool { return !f.IsLast() && f.CanProceed() }

// CanRetreat reports whether Previous would move the cursor.
func (f Flow) CanRetreat() bool { return len(f.questions) > 0 && f.position > 0 }

// Ready reports whether the flow can be completed.
func (f Flow) Ready() bool { return f.IsLast() && f.CanProceed() }

// Progress reports the step counter shown above the active question.
func (f Flow) Progress() Progress {
	total := len(f.questions)
	if total == 0 {
		return Progress{}
	}
	step := f.position + 1
	return Progress{
		Step:    step,
		Total:   total,
		Percent: int(math.Round(float64(step) / float64(total) * 100)),
	}
}

// Select records option for the active question. Single-choice kinds replace
// the answer; multi-choice toggles the option in the sequence. Options that are
// not part of the question are ignored.
func (f Flow) Select(option string) Flow {
	q := f.Current()
	if len(f.questions) == 0 || !q.HasOption(option) {
		return f
	}
	next := f.withOwnAnswers()
	switch q.Kind {
	case KindSingle, KindIconChoice:
		next.answers[q.ID] = Single(option)
	case KindMulti:
		next.answers[q.ID] = next.answers[q.ID].Toggle(option)
	default:
		return f
	}
	next.selection = next.answers[q.ID].Values()
	return next
}

// Next moves to the following question when the active one is answered and
// is not the last.
func (f Flow) Next() Flow {
	if !f.CanAdvance() {
		return f
	}
	return f.moveTo(f.position + 1)
}

// Previous moves back one question. Recorded answers are kept.
func (f Flow) Previous() Flow {
	if !f.CanRetreat() {
		return f
	}
	return f.moveTo(f.position - 1)
}

func (f Flow) moveTo(position int) Flow {
	next := f
	next.position = position
	next.selection = nil
	if answer, ok := f.answers.Get(f.questions[position].ID); ok {
		next.selection = answer.Values()
	}
	if next.selection == nil {
		next.selection = []string{}
	}
	return next
}

func (f Flow) withOwnAnswers() Flow {
	next := f
	next.answers = f.answers.Clone()
	return next
}
