package app

import (
	"errors"
	"time"

	"github.com/dori/trailmap/internal/access"
	"github.com/dori/trailmap/internal/model"
	"github.com/dori/trailmap/internal/progress"
	"github.com/dori/trailmap/internal/stats"
	"github.com/dori/trailmap/internal/store"
)

// ProgressReport is either a single roadmap's progress for a user or,
// when the user named no roadmap and can see several, an overview.
type ProgressReport struct {
	Roadmap    *model.Roadmap
	Completed  int
	Total      int
	Percentage int
	Weekly     []progress.WeekProgress

	Overview []stats.RoadmapStats
}

// IsOverview reports whether the report covers several roadmaps
func (p ProgressReport) IsOverview() bool {
	return p.Roadmap == nil
}

// Progress reports the target member's completion
func (a *App) Progress(tenantID, name string, target Member) (ProgressReport, error) {
	entry, err := a.resolve(tenantID, name, target)
	var ambiguous *access.AmbiguousError
	if errors.As(err, &ambiguous) {
		entries, err := a.ListAccessible(tenantID, target)
		if err != nil {
			return ProgressReport{}, err
		}
		return ProgressReport{Overview: stats.CombinedStats(entries, target.UserID).Roadmaps}, nil
	}
	if err != nil {
		return ProgressReport{}, err
	}

	r := entry.Roadmap
	if err := checkAccess(r, target); err != nil {
		return ProgressReport{}, err
	}

	return ProgressReport{
		Roadmap:    r,
		Completed:  progress.CompletedCount(r, target.UserID),
		Total:      len(r.Tasks),
		Percentage: progress.CompletionPercentage(r, target.UserID),
		Weekly:     progress.WeeklyBreakdown(r, target.UserID),
	}, nil
}

// StatsReport holds either one roadmap's detailed stats or a combined
// rollup across every accessible roadmap.
type StatsReport struct {
	Roadmap  *model.Roadmap
	User     progress.UserStats
	Combined *stats.Combined
}

// Stats reports detailed statistics for the target member
func (a *App) Stats(tenantID, name string, target Member) (StatsReport, error) {
	entry, err := a.resolve(tenantID, name, target)
	var ambiguous *access.AmbiguousError
	if errors.As(err, &ambiguous) {
		entries, err := a.ListAccessible(tenantID, target)
		if err != nil {
			return StatsReport{}, err
		}
		combined := stats.CombinedStats(entries, target.UserID)
		return StatsReport{Combined: &combined}, nil
	}
	if err != nil {
		return StatsReport{}, err
	}

	if err := checkAccess(entry.Roadmap, target); err != nil {
		return StatsReport{}, err
	}

	return StatsReport{
		Roadmap: entry.Roadmap,
		User:    progress.Summarize(entry.Roadmap, target.UserID, time.Now()),
	}, nil
}

// Leaderboard ranks the tenant's users, optionally within one roadmap
func (a *App) Leaderboard(tenantID, name string) (stats.Leaderboard, error) {
	var entries []store.Entry
	if name != "" {
		entry, err := a.find(tenantID, name)
		if err != nil {
			return stats.Leaderboard{}, err
		}
		entries = []store.Entry{entry}
	} else {
		all, err := a.Store.GetAll()
		if err != nil {
			return stats.Leaderboard{}, err
		}
		entries = store.TenantEntries(all, tenantID)
	}

	if len(entries) == 0 {
		return stats.Leaderboard{}, access.ErrNoRoadmaps
	}
	return stats.BuildLeaderboard(tenantID, entries, a.Roles), nil
}

// RoadmapView is what a member sees when opening a roadmap
type RoadmapView struct {
	Roadmap  *model.Roadmap
	Statuses progress.StatusCounts
	// Visible excludes tasks the viewer has hidden
	Visible    []model.Task
	Percentage int
}

// ShowRoadmap returns the roadmap as seen by viewer
func (a *App) ShowRoadmap(tenantID, name string, viewer Member) (RoadmapView, error) {
	entry, err := a.find(tenantID, name)
	if err != nil {
		return RoadmapView{}, err
	}
	r := entry.Roadmap
	if err := checkAccess(r, viewer); err != nil {
		return RoadmapView{}, err
	}

	return RoadmapView{
		Roadmap:    r,
		Statuses:   progress.CountStatuses(r),
		Visible:    progress.VisibleTasks(r, viewer.UserID),
		Percentage: progress.CompletionPercentage(r, viewer.UserID),
	}, nil
}

// Interactions lists who completed each task of a roadmap
func (a *App) Interactions(tenantID, name string) ([]stats.TaskInteraction, error) {
	entry, err := a.find(tenantID, name)
	if err != nil {
		return nil, err
	}
	return stats.TaskInteractions(entry), nil
}

// Overview counts roadmaps and tasks across every tenant
func (a *App) Overview() (stats.Overview, error) {
	all, err := a.Store.GetAll()
	if err != nil {
		return stats.Overview{}, err
	}
	return stats.BuildOverview(store.Entries(all)), nil
}
