package progress

import (
	"sort"
	"time"

	"github.com/dori/trailmap/internal/model"
)

// StatusCounts tallies the author-set status of every task
type StatusCounts struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	Completed  int `json:"completed"`
}

// Percentage returns the share of tasks the author marked completed
func (c StatusCounts) Percentage() int {
	return Percent(c.Completed, c.Total)
}

// CountStatuses tallies author-set statuses
func CountStatuses(r *model.Roadmap) StatusCounts {
	c := StatusCounts{Total: len(r.Tasks)}
	for _, t := range r.Tasks {
		switch t.Status {
		case model.StatusCompleted:
			c.Completed++
		case model.StatusInProgress:
			c.InProgress++
		default:
			c.Pending++
		}
	}
	return c
}

// UserStats summarizes one user's work on one roadmap
type UserStats struct {
	Completed int            `json:"completed"`
	Pending   int            `json:"pending"`
	Total     int            `json:"total"`
	Rate      int            `json:"rate"`
	Weekly    []WeekProgress `json:"weekly"`

	// ActiveWeeks counts weeks with at least one completion
	ActiveWeeks int `json:"activeWeeks"`

	// Timing is derived from recorded completion times only; Timed is the
	// number of completions that carried one.
	Timed             int           `json:"timed"`
	AvgCompletionTime time.Duration `json:"avgCompletionTime"`
	StreakDays        int           `json:"streakDays"`
}

// HasTiming reports whether any completion carried a timestamp
func (s UserStats) HasTiming() bool {
	return s.Timed > 0
}

// Summarize computes UserStats at time now
func Summarize(r *model.Roadmap, userID string, now time.Time) UserStats {
	s := UserStats{
		Total:  len(r.Tasks),
		Weekly: WeeklyBreakdown(r, userID),
	}

	var elapsed time.Duration
	var days []time.Time
	for i := range r.Tasks {
		t := &r.Tasks[i]
		if !t.IsCompletedBy(userID) {
			s.Pending++
			continue
		}
		s.Completed++

		at, ok := t.CompletedAt(userID)
		if !ok {
			continue
		}
		s.Timed++
		if d := at.Sub(t.CreatedAt); d > 0 {
			elapsed += d
		}
		days = append(days, day(at))
	}

	s.Rate = Percent(s.Completed, s.Total)
	for _, w := range s.Weekly {
		if w.Completed > 0 {
			s.ActiveWeeks++
		}
	}
	if s.Timed > 0 {
		s.AvgCompletionTime = elapsed / time.Duration(s.Timed)
	}
	s.StreakDays = streak(days, day(now))
	return s
}

// streak counts consecutive days with a completion, ending at the latest
// completion day. The streak is broken when that day is before yesterday.
func streak(days []time.Time, today time.Time) int {
	if len(days) == 0 {
		return 0
	}

	seen := make(map[time.Time]bool, len(days))
	for _, d := range days {
		seen[d] = true
	}
	unique := make([]time.Time, 0, len(seen))
	for d := range seen {
		unique = append(unique, d)
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i].After(unique[j]) })

	latest := unique[0]
	if today.Sub(latest) > 24*time.Hour {
		return 0
	}

	n := 0
	for d := latest; seen[d]; d = d.AddDate(0, 0, -1) {
		n++
	}
	return n
}

func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
