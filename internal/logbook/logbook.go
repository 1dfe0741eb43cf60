// Package logbook keeps the onboarding journal, one line per milestone a
// member reaches. `skillmatch journal` and the destination screen show it
// as-is.
package logbook

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"
)

// Level represents the severity of a journal entry.
type Level string

const (
	LevelInfo Level = "INFO"
	LevelWarn Level = "WARN"
)

// Event names the milestone an entry records.
type Event string

const (
	EventCompleted  Event = "completed"
	EventLeft       Event = "left"
	EventCancelled  Event = "cancelled"
	EventSaveFailed Event = "save-failed"
)

// Entry is one parsed journal line.
type Entry struct {
	Time    time.Time
	Level   Level
	Event   Event
	Profile string
	Detail  string
}

// String renders the entry in the on-disk line format.
func (e Entry) String() string {
	line := fmt.Sprintf("%s %-5s %-11s %s", e.Time.UTC().Format(time.RFC3339), e.Level, e.Event, e.Profile)
	if e.Detail != "" {
		line += " " + e.Detail
	}
	return line
}

// ParseEntry reads a line written by Logbook.
func ParseEntry(line string) (Entry, error) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return Entry{}, fmt.Errorf("logbook: malformed entry %q", line)
	}
	ts, err := time.Parse(time.RFC3339, fields[0])
	if err != nil {
		return Entry{}, fmt.Errorf("logbook: bad timestamp in %q: %w", line, err)
	}
	e := Entry{Time: ts, Level: Level(fields[1]), Event: Event(fields[2]), Profile: fields[3]}
	rest := line
	for _, field := range fields[:4] {
		rest = strings.TrimLeftFunc(rest, unicode.IsSpace)[len(field):]
	}
	e.Detail = strings.TrimSpace(rest)
	return e, nil
}

// Logbook appends onboarding milestones to a text file.
type Logbook struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// Option customizes a Logbook.
type Option func(*Logbook)

// WithClock overrides the clock used for entry timestamps.
func WithClock(clock func() time.Time) Option {
	return func(l *Logbook) {
		if clock != nil {
			l.now = clock
		}
	}
}

// New creates a logbook that writes to the provided path.
func New(path string, opts ...Option) (*Logbook, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	l := &Logbook{path: path, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Path returns the file backing this logbook.
func (l *Logbook) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Completed records a saved answer set and where the member was sent.
func (l *Logbook) Completed(profile, session, goal, route string) {
	l.record(LevelInfo, EventCompleted, profile, fmt.Sprintf("session=%s goal=%s route=%s", session, goal, route))
}

// SaveFailed records a completion attempt the store rejected.
func (l *Logbook) SaveFailed(profile, session string, err error) {
	l.record(LevelWarn, EventSaveFailed, profile, fmt.Sprintf("session=%s error=%q", session, err))
}

// Left records a member quitting the wizard at the given step.
func (l *Logbook) Left(profile, step string) {
	l.record(LevelInfo, EventLeft, profile, "at "+step)
}

// Cancelled records a chat member abandoning onboarding.
func (l *Logbook) Cancelled(profile, via string) {
	l.record(LevelInfo, EventCancelled, profile, "via "+via)
}

func (l *Logbook) record(level Level, event Event, profile, detail string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	entry := Entry{
		Time:    l.now(),
		Level:   level,
		Event:   event,
		Profile: strings.TrimSpace(profile),
		Detail:  strings.TrimSpace(detail),
	}
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer file.Close()
	_, _ = file.WriteString(entry.String() + "\n")
}

// Tail returns up to maxLines of the most recent entries and the total
// number of entries in the journal.
func (l *Logbook) Tail(maxLines int) ([]string, int) {
	if l == nil || maxLines <= 0 {
		return nil, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	file, err := os.Open(l.path)
	if err != nil {
		return nil, 0
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	total := len(lines)
	if total == 0 {
		return nil, 0
	}
	if total > maxLines {
		lines = lines[total-maxLines:]
	}
	return lines, total
}
