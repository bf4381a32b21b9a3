// Package progress computes per-user completion state for a single roadmap.
//
// Everything here is a pure function of its arguments. Functions that change
// completion state mutate only the roadmap they are handed; callers persist
// it through a store.
package progress

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/dori/trailmap/internal/model"
)

const (
	FilledGlyph = "█"
	EmptyGlyph  = "░"

	// DefaultBarWidth is the bar width used for whole-roadmap progress
	DefaultBarWidth = 15
)

// Percent returns round(100 * part / total), or 0 when total is zero.
// Halves round away from zero.
func Percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(total)))
}

// IsCompletedBy reports whether userID personally completed the task
func IsCompletedBy(t *model.Task, userID string) bool {
	return t.IsCompletedBy(userID)
}

// CompletedCount returns how many tasks userID completed
func CompletedCount(r *model.Roadmap, userID string) int {
	n := 0
	for i := range r.Tasks {
		if r.Tasks[i].IsCompletedBy(userID) {
			n++
		}
	}
	return n
}

// CompletionPercentage returns the share of tasks userID completed, 0..100
func CompletionPercentage(r *model.Roadmap, userID string) int {
	return Percent(CompletedCount(r, userID), len(r.Tasks))
}

// ProgressBar renders width cells, round(percentage/100 * width) of them
// filled. The percentage is clamped to 0..100.
func ProgressBar(percentage, width int) string {
	if width <= 0 {
		return ""
	}
	percentage = max(0, min(100, percentage))
	filled := int(math.Round(float64(percentage) / 100 * float64(width)))
	return strings.Repeat(FilledGlyph, filled) + strings.Repeat(EmptyGlyph, width-filled)
}

// WeekProgress counts tasks and user completions for one week
type WeekProgress struct {
	WeekNumber int `json:"weekNumber"`
	Total      int `json:"total"`
	Completed  int `json:"completed"`
}

// Percentage returns the completed share of the week
func (w WeekProgress) Percentage() int {
	return Percent(w.Completed, w.Total)
}

// WeeklyBreakdown groups tasks by week number in ascending numeric order
func WeeklyBreakdown(r *model.Roadmap, userID string) []WeekProgress {
	byWeek := make(map[int]*WeekProgress)
	for i := range r.Tasks {
		t := &r.Tasks[i]
		week := t.WeekNumber
		if week < 1 {
			week = 1
		}
		w, ok := byWeek[week]
		if !ok {
			w = &WeekProgress{WeekNumber: week}
			byWeek[week] = w
		}
		w.Total++
		if t.IsCompletedBy(userID) {
			w.Completed++
		}
	}

	out := make([]WeekProgress, 0, len(byWeek))
	for _, w := range byWeek {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].WeekNumber < out[j].WeekNumber
	})
	return out
}

// VisibleTasks returns the tasks userID has not hidden, in roadmap order
func VisibleTasks(r *model.Roadmap, userID string) []model.Task {
	out := make([]model.Task, 0, len(r.Tasks))
	for _, t := range r.Tasks {
		if !t.IsHiddenBy(userID) {
			out = append(out, t)
		}
	}
	return out
}

// Toggle is the outcome of a completion or visibility change. Changed is
// false when the task was already in the requested state.
type Toggle struct {
	Task    model.Task
	Changed bool
}

// ToggleCompletion marks (mark=true) or unmarks a task for userID
func ToggleCompletion(r *model.Roadmap, taskID int, userID string, mark bool) (Toggle, error) {
	return ToggleCompletionAt(r, taskID, userID, mark, time.Now().UTC())
}

// ToggleCompletionAt is ToggleCompletion with an explicit completion time.
// Unmarking also unhides the task for userID.
func ToggleCompletionAt(r *model.Roadmap, taskID int, userID string, mark bool, at time.Time) (Toggle, error) {
	t, err := r.FindTask(taskID)
	if err != nil {
		return Toggle{}, err
	}

	if t.IsCompletedBy(userID) == mark {
		return Toggle{Task: *t}, nil
	}

	if mark {
		t.CompletedBy = append(t.CompletedBy, userID)
		if t.CompletionTimes == nil {
			t.CompletionTimes = make(map[string]time.Time)
		}
		t.CompletionTimes[userID] = at
	} else {
		t.CompletedBy = remove(t.CompletedBy, userID)
		t.HiddenBy = remove(t.HiddenBy, userID)
		delete(t.CompletionTimes, userID)
	}
	t.UpdatedAt = at

	return Toggle{Task: *t, Changed: true}, nil
}

// SetHidden hides (hide=true) or unhides a completed task for userID.
// Hiding a task the user has not completed fails with model.ErrNotCompleted.
func SetHidden(r *model.Roadmap, taskID int, userID string, hide bool) (Toggle, error) {
	t, err := r.FindTask(taskID)
	if err != nil {
		return Toggle{}, err
	}

	if t.IsHiddenBy(userID) == hide {
		return Toggle{Task: *t}, nil
	}
	if hide && !t.IsCompletedBy(userID) {
		return Toggle{}, model.ErrNotCompleted
	}

	if hide {
		t.HiddenBy = append(t.HiddenBy, userID)
	} else {
		t.HiddenBy = remove(t.HiddenBy, userID)
	}
	t.UpdatedAt = time.Now().UTC()

	return Toggle{Task: *t, Changed: true}, nil
}

func remove(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, s := range ids {
		if s != id {
			out = append(out, s)
		}
	}
	return out
}
