package telegram

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"

	"github.com/kingrea/skillmatch/internal/onboarding"
)

const callbackPrefix = "ob:"

type action int

const (
	actionSelect action = iota
	actionPrevious
	actionNext
	actionComplete
)

type callback struct {
	action action
	option int
}

// encode returns the callback_data string for c.
func (c callback) encode() string {
	switch c.action {
	case actionSelect:
		return callbackPrefix + "sel:" + strconv.Itoa(c.option)
	case actionPrevious:
		return callbackPrefix + "prev"
	case actionNext:
		return callbackPrefix + "next"
	default:
		return callbackPrefix + "done"
	}
}

func parseCallback(data string) (callback, error) {
	rest, ok := strings.CutPrefix(data, callbackPrefix)
	if !ok {
		return callback{}, fmt.Errorf("telegram: foreign callback %q", data)
	}
	switch rest {
	case "prev":
		return callback{action: actionPrevious}, nil
	case "next":
		return callback{action: actionNext}, nil
	case "done":
		return callback{action: actionComplete}, nil
	}
	raw, ok := strings.CutPrefix(rest, "sel:")
	if !ok {
		return callback{}, fmt.Errorf("telegram: unknown callback %q", data)
	}
	idx, err := strconv.Atoi(raw)
	if err != nil || idx < 0 {
		return callback{}, fmt.Errorf("telegram: bad option index %q", raw)
	}
	return callback{action: actionSelect, option: idx}, nil
}

// questionText renders the message body for the active question.
func questionText(f onboarding.Flow) string {
	q := f.Current()
	var b strings.Builder
	b.WriteString(f.Progress().String())
	b.WriteString("\n\n")
	if q.Guide != "" {
		b.WriteString(q.Guide)
		b.WriteString("\n\n")
	}
	b.WriteString(q.Prompt)
	if q.Kind == onboarding.KindMulti {
		b.WriteString("\n(Select all that apply)")
	}
	return b.String()
}

// keyboard builds one button per option and a navigation row.
func keyboard(f onboarding.Flow) *models.InlineKeyboardMarkup {
	q := f.Current()
	rows := make([][]models.InlineKeyboardButton, 0, len(q.Options)+1)
	for i, option := range q.Options {
		label := fmt.Sprintf("%s %s", q.Icon(i), option)
		if f.IsSelected(option) {
			label = "✅ " + label
		}
		rows = append(rows, []models.InlineKeyboardButton{{
			Text:         label,
			CallbackData: callback{action: actionSelect, option: i}.encode(),
		}})
	}
	var nav []models.InlineKeyboardButton
	if f.CanRetreat() {
		nav = append(nav, models.InlineKeyboardButton{Text: "◀ Previous", CallbackData: callback{action: actionPrevious}.encode()})
	}
	if f.IsLast() {
		nav = append(nav, models.InlineKeyboardButton{Text: "Complete", CallbackData: callback{action: actionComplete}.encode()})
	} else {
		nav = append(nav, models.InlineKeyboardButton{Text: "Next ▶", CallbackData: callback{action: actionNext}.encode()})
	}
	rows = append(rows, nav)
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// destinationText is sent once onboarding is complete.
func destinationText(dest onboarding.Destination) string {
	return fmt.Sprintf("%s\n%s\n\nNext stop: %s", dest.Title(), dest.Description(), dest.Route())
}

// preferencesText lists stored answers in question order. Answers for
// questions no longer in the catalog are appended in key order.
func preferencesText(questions []onboarding.Question, answers onboarding.Answers) string {
	var b strings.Builder
	b.WriteString("Your preferences:\n")
	seen := make(map[string]bool, len(questions))
	for _, q := range questions {
		seen[q.ID] = true
		a, ok := answers[q.ID]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "• %s %s\n", q.Prompt, formatAnswer(a))
	}
	var extra []string
	for id := range answers {
		if !seen[id] {
			extra = append(extra, id)
		}
	}
	slices.Sort(extra)
	for _, id := range extra {
		fmt.Fprintf(&b, "• %s: %s\n", id, formatAnswer(answers[id]))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatAnswer(a onboarding.Answer) string {
	if a.IsMulti() {
		return strings.Join(a.Values(), ", ")
	}
	return a.Value()
}
