// Package ui formats application results as terminal text for the CLI.
package ui

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dori/trailmap/internal/app"
	"github.com/dori/trailmap/internal/model"
	"github.com/dori/trailmap/internal/progress"
	"github.com/dori/trailmap/internal/stats"
	"github.com/dori/trailmap/internal/ui/theme"
)

// weekBarWidth is the narrower bar used per week
const weekBarWidth = 8

// Renderer turns reports into styled text
type Renderer struct {
	theme    theme.Theme
	styles   theme.Styles
	barWidth int
}

// NewRenderer creates a renderer. Unknown theme names fall back to blurple.
func NewRenderer(themeName string, barWidth int) *Renderer {
	t, ok := theme.ByName(themeName)
	if !ok {
		t = theme.Blurple
	}
	if barWidth < 1 {
		barWidth = progress.DefaultBarWidth
	}
	return &Renderer{theme: t, styles: theme.NewStyles(t), barWidth: barWidth}
}

func (r *Renderer) bar(percentage, width int) string {
	return lipgloss.NewStyle().
		Foreground(r.theme.Tier(percentage)).
		Render(progress.ProgressBar(percentage, width))
}

// Progress renders a progress report
func (r *Renderer) Progress(rep app.ProgressReport) string {
	var b strings.Builder

	if rep.IsOverview() {
		b.WriteString(r.styles.Title.Render("Progress Overview") + "\n\n")
		for _, rs := range rep.Overview {
			fmt.Fprintf(&b, "%s\n%s %d%%  %d/%d tasks completed\n\n",
				r.styles.Value.Render(rs.Name), r.bar(rs.Rate, r.barWidth), rs.Rate, rs.Completed, rs.Total)
		}
		return strings.TrimRight(b.String(), "\n")
	}

	b.WriteString(r.styles.Title.Render("Progress: "+rep.Roadmap.Name) + "\n\n")
	if rep.Total == 0 {
		b.WriteString(r.styles.Notice.Render("No tasks in this roadmap yet."))
		return b.String()
	}

	fmt.Fprintf(&b, "%s %d%% complete\n%d out of %d tasks completed\n",
		r.bar(rep.Percentage, r.barWidth), rep.Percentage, rep.Completed, rep.Total)

	if len(rep.Weekly) > 1 {
		b.WriteString("\n" + r.styles.Label.Render("Weekly Breakdown") + "\n")
		for _, w := range rep.Weekly {
			fmt.Fprintf(&b, "Week %d: %s %d%% (%d/%d)\n",
				w.WeekNumber, r.bar(w.Percentage(), weekBarWidth), w.Percentage(), w.Completed, w.Total)
		}
	}

	b.WriteString("\n" + r.styles.Subtitle.Render(Motivation(rep.Percentage)))
	return b.String()
}

// Stats renders a stats report
func (r *Renderer) Stats(rep app.StatsReport) string {
	var b strings.Builder

	if rep.Combined != nil {
		c := rep.Combined
		b.WriteString(r.styles.Title.Render("Combined Stats") + "\n\n")
		for _, rs := range c.Roadmaps {
			fmt.Fprintf(&b, "%s  done %d | pending %d | %d%%\n", r.styles.Value.Render(rs.Name), rs.Completed, rs.Pending, rs.Rate)
		}
		fmt.Fprintf(&b, "\nTotal completed: %d\nTotal pending: %d\nOverall rate: %d%%", c.TotalCompleted, c.TotalPending, c.OverallRate)
		return b.String()
	}

	s := rep.User
	b.WriteString(r.styles.Title.Render("Stats: "+rep.Roadmap.Name) + "\n\n")
	fmt.Fprintf(&b, "Tasks completed: %d\nPending tasks: %d\nCompletion rate: %s\n",
		s.Completed, s.Pending, lipgloss.NewStyle().Foreground(r.theme.Tier(s.Rate)).Render(fmt.Sprintf("%d%%", s.Rate)))

	if s.HasTiming() {
		fmt.Fprintf(&b, "Avg completion time: %s\n", FormatDuration(s.AvgCompletionTime))
	} else {
		b.WriteString("Avg completion time: no data\n")
	}
	if s.StreakDays > 0 {
		fmt.Fprintf(&b, "Consistency: %d day streak\n", s.StreakDays)
	} else {
		b.WriteString("Consistency: no streak\n")
	}

	if len(s.Weekly) > 0 {
		fmt.Fprintf(&b, "Weekly progress: %d/%d weeks active\n\n", s.ActiveWeeks, len(s.Weekly))
		b.WriteString(r.styles.Label.Render("Weekly Breakdown") + "\n")
		for _, w := range s.Weekly {
			fmt.Fprintf(&b, "Week %d: %d/%d (%d%%)\n", w.WeekNumber, w.Completed, w.Total, w.Percentage())
		}
	} else {
		b.WriteString("Weekly progress: no weekly data\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Leaderboard renders ranked standings and the summary
func (r *Renderer) Leaderboard(lb stats.Leaderboard, scope string) string {
	var b strings.Builder

	b.WriteString(r.styles.Title.Render("Leaderboard") + "\n")
	if scope != "" {
		b.WriteString(r.styles.Subtitle.Render("Top performers in "+scope) + "\n\n")
	} else {
		b.WriteString(r.styles.Subtitle.Render("Top performers across all roadmaps") + "\n\n")
	}

	if len(lb.Standings) == 0 {
		b.WriteString(r.styles.Notice.Render("No completed tasks yet."))
		return b.String()
	}

	for i, s := range lb.Standings {
		fmt.Fprintf(&b, "%s %d. %s  %d tasks completed (%d%%)\n   active in: %s\n",
			Medal(i+1), i+1, r.styles.Value.Render(s.UserID), s.TotalCompleted, s.CompletionRate, strings.Join(s.ActiveRoadmaps, ", "))
	}

	sum := lb.Summary
	fmt.Fprintf(&b, "\n%s\nActive users: %d\nTotal tasks completed: %d\nAverage per user: %d tasks",
		r.styles.Label.Render("Server Summary"), sum.ActiveUsers, sum.TotalCompleted, sum.AveragePerUser)
	return b.String()
}

// Roadmap renders a roadmap with its visible tasks
func (r *Renderer) Roadmap(v app.RoadmapView) string {
	var b strings.Builder
	rm := v.Roadmap

	b.WriteString(r.styles.Title.Render(rm.Name) + "\n")
	fmt.Fprintf(&b, "Progress: %d%% (%d/%d tasks completed)\n",
		v.Statuses.Percentage(), v.Statuses.Completed, v.Statuses.Total)
	fmt.Fprintf(&b, "Required role: %s\nCreated by: %s on %s\n",
		rm.RoleID, rm.CreatedBy, rm.CreatedAt.Format("Jan 2, 2006"))
	fmt.Fprintf(&b, "Tasks: %d pending, %d in progress, %d completed\n",
		v.Statuses.Pending, v.Statuses.InProgress, v.Statuses.Completed)
	fmt.Fprintf(&b, "Your progress: %s %d%%\n\n", r.bar(v.Percentage, r.barWidth), v.Percentage)

	if len(v.Visible) == 0 {
		b.WriteString(r.styles.Notice.Render("No tasks to show."))
		return b.String()
	}

	for _, t := range v.Visible {
		fmt.Fprintf(&b, "%s %d. %s  [%s, week %d]\n",
			r.statusMark(t.Status), t.ID, t.Title, t.Topic, t.WeekNumber)
		for _, link := range t.Links {
			fmt.Fprintf(&b, "     %s %s\n", LinkLabel(link), r.styles.Label.Render(link))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Interactions renders who completed each task
func (r *Renderer) Interactions(roadmap string, rows []stats.TaskInteraction) string {
	var b strings.Builder
	b.WriteString(r.styles.Title.Render("Task Interactions: "+roadmap) + "\n\n")
	for _, row := range rows {
		who := "nobody"
		if len(row.CompletedBy) > 0 {
			who = strings.Join(row.CompletedBy, ", ")
		}
		fmt.Fprintf(&b, "%d. %s\n   completed by: %s\n", row.TaskID, row.Title, who)
		if len(row.HiddenBy) > 0 {
			fmt.Fprintf(&b, "   hidden by: %s\n", strings.Join(row.HiddenBy, ", "))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Overview renders store-wide counts
func (r *Renderer) Overview(o stats.Overview, lastUpdated time.Time) string {
	body := fmt.Sprintf("Roadmaps: %d\nTasks: %d\nCompleted: %d\nServers: %d",
		o.Roadmaps, o.Tasks, o.CompletedTasks, o.Tenants)
	if !lastUpdated.IsZero() {
		body += "\nLast updated: " + lastUpdated.Local().Format(time.RFC1123)
	}
	return r.styles.Title.Render("Overview") + "\n" + r.styles.Panel.Render(body)
}

// Outcome renders the result of a completion change
func (r *Renderer) Outcome(verb string, o app.Outcome) string {
	if !o.Changed {
		return r.styles.Notice.Render(fmt.Sprintf("Nothing to do: task %d in %s is already %s.", o.Task.ID, o.Roadmap, verb))
	}
	return fmt.Sprintf("%s\nTask: %s\nTopic: %s\nWeek: %d\nRoadmap: %s",
		r.styles.Title.Render(fmt.Sprintf("Task %d %s", o.Task.ID, verb)), o.Task.Title, o.Task.Topic, o.Task.WeekNumber, o.Roadmap)
}

// Error renders an error message
func (r *Renderer) Error(err error) string {
	return r.styles.Error.Render("Error: " + err.Error())
}

func (r *Renderer) statusMark(s model.Status) string {
	switch s {
	case model.StatusCompleted:
		return lipgloss.NewStyle().Foreground(r.theme.StatusCompleted).Render("[x]")
	case model.StatusInProgress:
		return lipgloss.NewStyle().Foreground(r.theme.StatusInProgress).Render("[~]")
	default:
		return lipgloss.NewStyle().Foreground(r.theme.StatusPending).Render("[ ]")
	}
}

// Medal returns the rank marker for a leaderboard position
func Medal(position int) string {
	switch position {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	case 4, 5:
		return "🏅"
	default:
		return "▫️"
	}
}

// Motivation returns an encouragement line for a percentage
func Motivation(percentage int) string {
	switch {
	case percentage >= 100:
		return "Congratulations! You've completed all tasks!"
	case percentage >= 75:
		return "Great job! You're almost there!"
	case percentage >= 50:
		return "Keep it up! You're halfway through!"
	case percentage >= 25:
		return "Good start! Keep pushing forward!"
	default:
		return "Time to get started! Every task counts!"
	}
}

var youtubeID = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)([^&\n?#]+)`)

// LinkLabel returns a short display label for a URL without fetching it
func LinkLabel(link string) string {
	if (strings.Contains(link, "youtube.com") || strings.Contains(link, "youtu.be")) && youtubeID.MatchString(link) {
		return "YouTube Video"
	}

	u, err := url.Parse(link)
	if err != nil || u.Hostname() == "" {
		return "Link"
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// FormatDuration renders a duration in days, hours or minutes
func FormatDuration(d time.Duration) string {
	switch {
	case d >= 24*time.Hour:
		return fmt.Sprintf("%.1f days", d.Hours()/24)
	case d >= time.Hour:
		return fmt.Sprintf("%.1f hours", d.Hours())
	default:
		return fmt.Sprintf("%d minutes", int(d.Minutes()))
	}
}
