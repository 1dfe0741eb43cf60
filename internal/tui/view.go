package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/skillmatch/internal/onboarding"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")).MarginBottom(1)
	promptStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	guideStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Italic(true)
	optionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).MarginTop(1)
	navStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#555555"))
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1)
)

// View renders the current screen.
func (a *App) View() string {
	if a.quitting {
		return "See you next time.\n"
	}
	switch a.state {
	case stateDestination:
		return a.renderDestination()
	default:
		return a.renderWizard()
	}
}

func (a *App) renderWizard() string {
	q := a.flow.Current()
	p := a.flow.Progress()

	sections := []string{
		headerStyle.Render("Welcome to Skill Match"),
		fmt.Sprintf("%s  %s", a.progress.ViewAs(p.Fraction()), guideStyle.Render(fmt.Sprintf("%s · %d%%", p, p.Percent))),
		"",
	}
	if q.Guide != "" {
		sections = append(sections, guideStyle.Render(q.Guide))
	}
	sections = append(sections, promptStyle.Render(q.Prompt))
	if q.Kind == onboarding.KindMulti {
		sections = append(sections, hintStyle.Render("Select all that apply"))
	}
	sections = append(sections, "", a.renderOptions(q), "", a.renderNav())

	body := panelStyle.Width(a.panelWidth()).Render(strings.Join(sections, "\n"))
	footer := []string{body, a.renderStatus(), a.help.View(a.keys)}
	return strings.Join(footer, "\n")
}

func (a *App) panelWidth() int {
	if a.width <= 0 {
		return 76
	}
	return max(30, a.width-4)
}

func (a *App) renderOptions(q onboarding.Question) string {
	rows := make([]string, 0, len(q.Options))
	for i, option := range q.Options {
		pointer := "  "
		if i == a.cursor {
			pointer = cursorStyle.Render("› ")
		}
		mark := "[ ]"
		if q.Kind != onboarding.KindMulti {
			mark = "( )"
		}
		style := optionStyle
		if a.flow.IsSelected(option) {
			if q.Kind == onboarding.KindMulti {
				mark = "[x]"
			} else {
				mark = "(•)"
			}
			style = selectedStyle
		}
		rows = append(rows, fmt.Sprintf("%s%s %s %s", pointer, mark, q.Icon(i), style.Render(option)))
	}
	return strings.Join(rows, "\n")
}

// renderNav shows the navigation affordances, dimmed while unavailable.
func (a *App) renderNav() string {
	affordance := func(label string, enabled bool) string {
		if enabled {
			return navStyle.Render(label)
		}
		return dimStyle.Render(label)
	}
	parts := []string{affordance("◀ Previous", a.flow.CanRetreat())}
	if a.flow.IsLast() {
		parts = append(parts, affordance("Complete ✓", a.flow.Ready()))
	} else {
		parts = append(parts, affordance("Next ▶", a.flow.CanAdvance()))
	}
	return strings.Join(parts, "    ")
}

func (a *App) renderStatus() string {
	var lines []string
	if a.err != nil {
		lines = append(lines, errorStyle.Render(fmt.Sprintf("⚠ %v", a.err)))
	}
	if a.statusMsg != "" {
		lines = append(lines, a.statusMsg)
	}
	return statusStyle.Render(strings.Join(lines, "\n"))
}

func (a *App) renderDestination() string {
	dest := a.destination
	lines := []string{
		headerStyle.Render(dest.Title()),
		dest.Description(),
		"",
		guideStyle.Render(fmt.Sprintf("Route: %s", dest.Route())),
	}
	sections := []string{panelStyle.Width(a.panelWidth()).Render(strings.Join(lines, "\n"))}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	sections = append(sections, a.renderStatus(), hintStyle.Render("Enter or q → exit"))
	return strings.Join(sections, "\n")
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines, _ := a.logbook.Tail(5)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("LOG · %s", fileName))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return panelStyle.Render(fmt.Sprintf("%s\n%s", head, body))
}
