package model

import (
	"slices"
	"strings"
	"time"
)

// Status is the author-set state of a task. It is independent of the
// per-user completion tracked in CompletedBy.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// DefaultTopic is used when a task has no topic
const DefaultTopic = "General"

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Task is a single item of a roadmap
type Task struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Topic       string   `json:"topic"`
	WeekNumber  int      `json:"weekNumber"`
	Status      Status   `json:"status"`
	Links       []string `json:"links"`
	CompletedBy []string `json:"completedBy"`
	HiddenBy    []string `json:"hiddenBy"`

	// CompletionTimes records when each user last marked the task done.
	// Older documents do not carry it.
	CompletionTimes map[string]time.Time `json:"completionTimes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TaskInput holds the author-supplied fields of a new task
type TaskInput struct {
	Title      string   `json:"title" yaml:"title"`
	Topic      string   `json:"topic,omitempty" yaml:"topic,omitempty"`
	WeekNumber int      `json:"weekNumber,omitempty" yaml:"week,omitempty"`
	Status     Status   `json:"status,omitempty" yaml:"status,omitempty"`
	Links      []string `json:"links,omitempty" yaml:"links,omitempty"`
}

// TaskPatch holds optional edits to a task. Nil fields are left untouched.
type TaskPatch struct {
	Title      *string
	Topic      *string
	WeekNumber *int
	Status     *Status
	Links      []string
}

// IsCompletedBy returns true if userID personally marked the task done
func (t *Task) IsCompletedBy(userID string) bool {
	return slices.Contains(t.CompletedBy, userID)
}

// IsHiddenBy returns true if userID hid the task from their own view
func (t *Task) IsHiddenBy(userID string) bool {
	return slices.Contains(t.HiddenBy, userID)
}

// CompletedAt returns when userID completed the task, if recorded
func (t *Task) CompletedAt(userID string) (time.Time, bool) {
	at, ok := t.CompletionTimes[userID]
	return at, ok
}

func (t Task) clone() Task {
	t.Links = slices.Clone(t.Links)
	t.CompletedBy = slices.Clone(t.CompletedBy)
	t.HiddenBy = slices.Clone(t.HiddenBy)
	if t.CompletionTimes != nil {
		times := make(map[string]time.Time, len(t.CompletionTimes))
		for id, at := range t.CompletionTimes {
			times[id] = at
		}
		t.CompletionTimes = times
	}
	return t
}

// normalize fills defaults and repairs per-user sets
func (t *Task) normalize() {
	t.Title = strings.TrimSpace(t.Title)
	if strings.TrimSpace(t.Topic) == "" {
		t.Topic = DefaultTopic
	}
	if t.WeekNumber < 1 {
		t.WeekNumber = 1
	}
	if !t.Status.Valid() {
		t.Status = StatusPending
	}
	if t.Links == nil {
		t.Links = []string{}
	}
	t.CompletedBy = dedupe(t.CompletedBy)

	// A user can only stay hidden on a task they still count as complete.
	hidden := make([]string, 0, len(t.HiddenBy))
	for _, id := range dedupe(t.HiddenBy) {
		if t.IsCompletedBy(id) {
			hidden = append(hidden, id)
		}
	}
	t.HiddenBy = hidden

	for id := range t.CompletionTimes {
		if !t.IsCompletedBy(id) {
			delete(t.CompletionTimes, id)
		}
	}
}

func (in TaskInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return ErrInvalidTask
	}
	if in.WeekNumber < 0 {
		return ErrInvalidTask
	}
	if in.Status != "" && !in.Status.Valid() {
		return ErrInvalidTask
	}
	return nil
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
