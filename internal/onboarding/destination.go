package onboarding

// Destination identifies the view a member lands on after onboarding.
type Destination string

const (
	DestinationHome           Destination = "home"
	DestinationSkillDiscovery Destination = "skill-discovery"
	DestinationSkillCreation  Destination = "skill-creation"
)

// Options of the default goal question.
const (
	GoalTeach   = "I want to teach skills"
	GoalLearn   = "I want to learn new things"
	GoalBoth    = "Both teaching and learning"
	GoalExplore = "Just exploring"
)

// DestinationFor maps the recorded goal answer to a destination. Anything
// other than the teach and learn goals, including an unknown value, lands on
// the home view.
func DestinationFor(goal Answer) Destination {
	if goal.IsMulti() {
		return DestinationHome
	}
	switch goal.Value() {
	case GoalTeach:
		return DestinationSkillCreation
	case GoalLearn:
		return DestinationSkillDiscovery
	default:
		return DestinationHome
	}
}

// Route returns the client path of the destination.
func (d Destination) Route() string {
	switch d {
	case DestinationSkillCreation:
		return "/create-skill"
	case DestinationSkillDiscovery:
		return "/skill-match"
	default:
		return "/"
	}
}

// Title is the heading shown on the destination view.
func (d Destination) Title() string {
	switch d {
	case DestinationSkillCreation:
		return "Share Your Skills"
	case DestinationSkillDiscovery:
		return "Find Skills"
	default:
		return "Skill Match"
	}
}

// Description is the one-line blurb under the title.
func (d Destination) Description() string {
	switch d {
	case DestinationSkillCreation:
		return "Create and share your skills with the village"
	case DestinationSkillDiscovery:
		return "Discover villagers who can teach you something new"
	default:
		return "Connect with other villagers and see community activity"
	}
}
