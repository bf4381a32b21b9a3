// Package stats aggregates completion data across roadmaps and users.
package stats

import (
	"math"
	"slices"
	"sort"

	"github.com/dori/trailmap/internal/access"
	"github.com/dori/trailmap/internal/progress"
	"github.com/dori/trailmap/internal/store"
)

// LeaderboardSize is the number of ranked users returned
const LeaderboardSize = 10

// Standing is one user's leaderboard row
type Standing struct {
	UserID         string   `json:"userId"`
	TotalCompleted int      `json:"totalCompleted"`
	TotalTasks     int      `json:"totalTasks"`
	CompletionRate int      `json:"completionRate"`
	ActiveRoadmaps []string `json:"activeRoadmaps"`
}

// Summary describes every ranked user, not only the ones shown
type Summary struct {
	ActiveUsers    int `json:"activeUsers"`
	TotalCompleted int `json:"totalCompleted"`
	AveragePerUser int `json:"averagePerUser"`
}

// Leaderboard is the ranked result with its summary
type Leaderboard struct {
	Standings []Standing `json:"standings"`
	Summary   Summary    `json:"summary"`
}

// BuildLeaderboard ranks users of tenantID across entries.
//
// Every completion counts toward its user. Every holder of a roadmap's role
// adds that roadmap's task count to their denominator, whether or not they
// completed anything. Users without completions are left out of the
// ranking. Order is completions descending, then rate descending, then
// user ID.
func BuildLeaderboard(tenantID string, entries []store.Entry, roles access.RoleResolver) Leaderboard {
	byUser := make(map[string]*Standing)
	get := func(userID string) *Standing {
		s, ok := byUser[userID]
		if !ok {
			s = &Standing{UserID: userID, ActiveRoadmaps: []string{}}
			byUser[userID] = s
		}
		return s
	}

	for _, e := range entries {
		r := e.Roadmap
		for _, t := range r.Tasks {
			for _, userID := range t.CompletedBy {
				s := get(userID)
				s.TotalCompleted++
				if !slices.Contains(s.ActiveRoadmaps, r.Name) {
					s.ActiveRoadmaps = append(s.ActiveRoadmaps, r.Name)
				}
			}
		}

		if roles == nil {
			continue
		}
		for _, userID := range roles.MembersWithRole(tenantID, r.RoleID) {
			get(userID).TotalTasks += len(r.Tasks)
		}
	}

	ranked := make([]Standing, 0, len(byUser))
	for _, s := range byUser {
		if s.TotalCompleted == 0 {
			continue
		}
		s.CompletionRate = progress.Percent(s.TotalCompleted, s.TotalTasks)
		ranked = append(ranked, *s)
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.TotalCompleted != b.TotalCompleted {
			return a.TotalCompleted > b.TotalCompleted
		}
		if a.CompletionRate != b.CompletionRate {
			return a.CompletionRate > b.CompletionRate
		}
		return a.UserID < b.UserID
	})

	summary := Summary{ActiveUsers: len(ranked)}
	for _, s := range ranked {
		summary.TotalCompleted += s.TotalCompleted
	}
	if summary.ActiveUsers > 0 {
		summary.AveragePerUser = int(math.Round(float64(summary.TotalCompleted) / float64(summary.ActiveUsers)))
	}

	if len(ranked) > LeaderboardSize {
		ranked = ranked[:LeaderboardSize]
	}

	return Leaderboard{Standings: ranked, Summary: summary}
}
