package onboarding

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultIcon is shown next to options that have no icon of their own.
const DefaultIcon = "✨"

// Kind tags how a question collects its answer.
type Kind int

const (
	// KindSingle keeps exactly one selected option.
	KindSingle Kind = iota
	// KindMulti keeps an ordered set of toggled options.
	KindMulti
	// KindIconChoice behaves like KindSingle but is laid out as an icon grid.
	KindIconChoice
)

// String returns the catalog name of the kind.
func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindMulti:
		return "multiple"
	case KindIconChoice:
		return "icons"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind resolves a catalog name to a Kind.
func ParseKind(value string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "single", "":
		return KindSingle, nil
	case "multiple", "multi":
		return KindMulti, nil
	case "icons", "icon":
		return KindIconChoice, nil
	default:
		return KindSingle, fmt.Errorf("onboarding: unknown question kind %q", value)
	}
}

// UnmarshalYAML lets catalogs spell kinds by name.
func (k *Kind) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseKind(raw)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MarshalYAML writes the kind by name.
func (k Kind) MarshalYAML() (any, error) {
	return k.String(), nil
}

// Question is one step of the onboarding flow. Questions are built once and
// never mutated after a Flow has been started with them.
type Question struct {
	ID      string   `yaml:"id"`
	Prompt  string   `yaml:"prompt"`
	Guide   string   `yaml:"guide,omitempty"`
	Kind    Kind     `yaml:"kind"`
	Options []string `yaml:"options"`
	Icons   []string `yaml:"icons,omitempty"`
}

// Icon returns the icon aligned with option i, falling back to DefaultIcon.
func (q Question) Icon(i int) string {
	if i < 0 || i >= len(q.Icons) || strings.TrimSpace(q.Icons[i]) == "" {
		return DefaultIcon
	}
	return q.Icons[i]
}

// HasOption reports whether option is one of the question's choices.
func (q Question) HasOption(option string) bool {
	return q.OptionIndex(option) >= 0
}

// OptionIndex returns the position of option, or -1.
func (q Question) OptionIndex(option string) int {
	for i, candidate := range q.Options {
		if candidate == option {
			return i
		}
	}
	return -1
}

// Validate checks the invariants a Flow relies on.
func (q Question) Validate() error {
	if strings.TrimSpace(q.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(q.Prompt) == "" {
		return fmt.Errorf("question %s: prompt is required", q.ID)
	}
	switch q.Kind {
	case KindSingle, KindMulti, KindIconChoice:
	default:
		return fmt.Errorf("question %s: unsupported kind %s", q.ID, q.Kind)
	}
	if len(q.Options) == 0 {
		return fmt.Errorf("question %s: at least one option is required", q.ID)
	}
	seen := make(map[string]struct{}, len(q.Options))
	for _, option := range q.Options {
		if strings.TrimSpace(option) == "" {
			return fmt.Errorf("question %s: options must not be blank", q.ID)
		}
		if _, dup := seen[option]; dup {
			return fmt.Errorf("question %s: duplicate option %q", q.ID, option)
		}
		seen[option] = struct{}{}
	}
	if len(q.Icons) > len(q.Options) {
		return fmt.Errorf("question %s: %d icons for %d options", q.ID, len(q.Icons), len(q.Options))
	}
	return nil
}

func cloneQuestion(q Question) Question {
	q.Options = append([]string(nil), q.Options...)
	q.Icons = append([]string(nil), q.Icons...)
	return q
}
