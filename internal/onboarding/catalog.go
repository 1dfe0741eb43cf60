package onboarding

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultGoalQuestion is the ID of the question that decides routing.
const DefaultGoalQuestion = "goal"

// Catalog is the on-disk shape of a question file.
type Catalog struct {
	Questions []Question `yaml:"questions"`
}

// DefaultQuestions returns the built-in registration questions.
func DefaultQuestions() []Question {
	return []Question{
		{
			ID:      "age",
			Prompt:  "What's your age group?",
			Guide:   "Please tell us about yourself to get started",
			Kind:    KindIconChoice,
			Options: []string{"13-17 (Youth)", "18-34 (Young Adult)", "35-54 (Adult)", "55+ (Wise Elder)"},
			Icons:   []string{"🧒", "🧑", "👨", "👴"},
		},
		{
			ID:      "interests",
			Prompt:  "What interests you most?",
			Guide:   "What are your main interests?",
			Kind:    KindMulti,
			Options: []string{"Technology", "Cooking", "Arts & Crafts", "Music", "Sports", "Gardening", "Languages", "Life Skills"},
			Icons:   []string{"💻", "👨‍🍳", "🎨", "🎵", "⚽", "🌱", "🗣️", "📚"},
		},
		{
			ID:      "learning_style",
			Prompt:  "How do you prefer to learn?",
			Guide:   "How do you prefer to learn?",
			Kind:    KindSingle,
			Options: []string{"Video calls", "Text messages", "In-person meetups", "Voice messages"},
			Icons:   []string{"📹", "💬", "🤝", "🎤"},
		},
		{
			ID:      DefaultGoalQuestion,
			Prompt:  "What brings you here?",
			Guide:   "What would you like to do?",
			Kind:    KindSingle,
			Options: []string{GoalTeach, GoalLearn, GoalBoth, GoalExplore},
			Icons:   []string{"🎯", "📖", "🔄", "👀"},
		},
	}
}

// LoadCatalog reads questions from a YAML file and validates them against the
// goal question ID.
func LoadCatalog(path, goalID string) ([]Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("onboarding: read catalog %s: %w", path, err)
	}
	questions, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("onboarding: parse catalog %s: %w", path, err)
	}
	if err := ValidateCatalog(questions, goalID); err != nil {
		return nil, fmt.Errorf("onboarding: catalog %s: %w", path, err)
	}
	return questions, nil
}

// ParseCatalog decodes a YAML catalog document.
func ParseCatalog(data []byte) ([]Question, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, err
	}
	for i := range catalog.Questions {
		q := &catalog.Questions[i]
		q.ID = strings.TrimSpace(q.ID)
		q.Prompt = strings.TrimSpace(q.Prompt)
		q.Guide = strings.TrimSpace(q.Guide)
	}
	return catalog.Questions, nil
}

// ValidateCatalog checks every question, ID uniqueness, and that goalID names
// a single-answer question.
func ValidateCatalog(questions []Question, goalID string) error {
	if len(questions) == 0 {
		return ErrNoQuestions
	}
	seen := make(map[string]struct{}, len(questions))
	var goal *Question
	for i := range questions {
		q := questions[i]
		if err := q.Validate(); err != nil {
			return fmt.Errorf("questions[%d]: %w", i, err)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("questions[%d]: duplicate id %q", i, q.ID)
		}
		seen[q.ID] = struct{}{}
		if q.ID == goalID {
			goal = &questions[i]
		}
	}
	if goal == nil {
		return fmt.Errorf("goal question %q is not in the catalog", goalID)
	}
	if goal.Kind == KindMulti {
		return fmt.Errorf("goal question %q must be single choice", goalID)
	}
	return nil
}
