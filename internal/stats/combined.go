package stats

import (
	"slices"

	"github.com/dori/trailmap/internal/progress"
	"github.com/dori/trailmap/internal/store"
)

// RoadmapStats is one user's tally on one roadmap
type RoadmapStats struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	Completed int    `json:"completed"`
	Pending   int    `json:"pending"`
	Total     int    `json:"total"`
	Rate      int    `json:"rate"`
}

// Combined rolls a user's tallies up across roadmaps
type Combined struct {
	Roadmaps       []RoadmapStats `json:"roadmaps"`
	TotalCompleted int            `json:"totalCompleted"`
	TotalPending   int            `json:"totalPending"`
	TotalTasks     int            `json:"totalTasks"`
	OverallRate    int            `json:"overallRate"`
}

// CombinedStats tallies userID across entries, which the caller has
// already filtered to the roadmaps the user can access.
func CombinedStats(entries []store.Entry, userID string) Combined {
	c := Combined{Roadmaps: make([]RoadmapStats, 0, len(entries))}
	for _, e := range entries {
		r := e.Roadmap
		done := progress.CompletedCount(r, userID)
		rs := RoadmapStats{
			Key:       e.Key,
			Name:      r.Name,
			Completed: done,
			Pending:   len(r.Tasks) - done,
			Total:     len(r.Tasks),
			Rate:      progress.Percent(done, len(r.Tasks)),
		}
		c.Roadmaps = append(c.Roadmaps, rs)
		c.TotalCompleted += rs.Completed
		c.TotalPending += rs.Pending
		c.TotalTasks += rs.Total
	}
	c.OverallRate = progress.Percent(c.TotalCompleted, c.TotalTasks)
	return c
}

// TaskInteraction lists who completed and who hid one task
type TaskInteraction struct {
	TaskID      int      `json:"taskId"`
	Title       string   `json:"title"`
	CompletedBy []string `json:"completedBy"`
	HiddenBy    []string `json:"hiddenBy"`
}

// TaskInteractions returns per-task completion records for auditing, in
// roadmap order.
func TaskInteractions(entry store.Entry) []TaskInteraction {
	out := make([]TaskInteraction, 0, len(entry.Roadmap.Tasks))
	for _, t := range entry.Roadmap.Tasks {
		out = append(out, TaskInteraction{
			TaskID:      t.ID,
			Title:       t.Title,
			CompletedBy: slices.Clone(t.CompletedBy),
			HiddenBy:    slices.Clone(t.HiddenBy),
		})
	}
	return out
}

// Overview counts roadmaps and author-completed tasks across the store
type Overview struct {
	Roadmaps       int `json:"roadmaps"`
	Tasks          int `json:"tasks"`
	CompletedTasks int `json:"completedTasks"`
	Tenants        int `json:"tenants"`
}

// BuildOverview summarizes every entry regardless of tenant
func BuildOverview(entries []store.Entry) Overview {
	var o Overview
	tenants := make(map[string]struct{})
	for _, e := range entries {
		o.Roadmaps++
		tenants[e.Roadmap.TenantID] = struct{}{}
		counts := progress.CountStatuses(e.Roadmap)
		o.Tasks += counts.Total
		o.CompletedTasks += counts.Completed
	}
	o.Tenants = len(tenants)
	return o
}
