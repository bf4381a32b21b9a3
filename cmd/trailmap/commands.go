package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dori/trailmap/internal/app"
	"github.com/dori/trailmap/internal/model"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// scheduleFile is the import format. Either list weeks of tasks, where a
// task's week defaults to its position, or a flat list of tasks.
//
//	weeks:
//	  - - title: HTML basics
//	      topic: HTML
//	      links: [https://developer.mozilla.org/]
//	  - - title: CSS layout
//	tasks:
//	  - title: Capstone
//	    week: 12
type scheduleFile struct {
	Weeks [][]model.TaskInput `yaml:"weeks"`
	Tasks []model.TaskInput   `yaml:"tasks"`
}

func newCreateCmd(e *env) *cobra.Command {
	var roleID string

	cmd := &cobra.Command{
		Use:   "create <roadmap>",
		Short: "Create an empty roadmap gated by a role",
		Args:  cobra.ExactArgs(1),
		RunE: e.run(func(cmd *cobra.Command, args []string) error {
			m, err := e.member()
			if err != nil {
				return err
			}
			r, err := e.app.CreateRoadmap(e.tenantID, args[0], roleID, m.UserID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created roadmap %q (role %s)\n", r.Name, r.RoleID)
			return nil
		}),
	}

	cmd.Flags().StringVar(&roleID, "role", "", "role required to see the roadmap")
	cmd.MarkFlagRequired("role")
	return cmd
}

func newDropCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "drop <roadmap>",
		Short: "Delete a roadmap and all of its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: e.run(func(cmd *cobra.Command, args []string) error {
			if err := e.app.DeleteRoadmap(e.tenantID, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted roadmap %q\n", args[0])
			return nil
		}),
	}
}

func newEmptyCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "empty <roadmap>",
		Short: "Remove every task from a roadmap",
		Args:  cobra.ExactArgs(1),
		RunE: e.run(func(cmd *cobra.Command, args []string) error {
			n, err := e.app.EmptyRoadmap(e.tenantID, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d tasks from %q\n", n, args[0])
			return nil
		}),
	}
}

func newAddCmd(e *env) *cobra.Command {
	var in model.TaskInput
	var status string

	cmd := &cobra.Command{
		Use:   "add <roadmap> <title>",
		Short: "Add a task to a roadmap",
		Args:  cobra.MinimumNArgs(2),
		RunE: e.run(func(cmd *cobra.Command, args []string) error {
			in.Title = strings.Join(args[1:], " ")
			in.Status = model.Status(status)

			added, err := e.app.AddTasks(e.tenantID, args[0], []model.TaskInput{in})
			if err != nil {
				return err
			}
			for _, t := range added {
				fmt.Fprintf(cmd.OutOrStdout(), "Added task %d: %s (%s, week %d)\n", t.ID, t.Title, t.Topic, t.WeekNumber)
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&in.Topic, "topic", "", "task topic (default General)")
	cmd.Flags().IntVar(&in.WeekNumber, "week", 0, "week number (default 1)")
	cmd.Flags().StringVar(&status, "status", "", "pending, in-progress or completed")
	cmd.Flags().StringSliceVar(&in.Links, "link", nil, "resource link, repeatable")
	return cmd
}

func newImportCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "import <roadmap> <schedule.yaml>",
		Short: "Add tasks from a YAML schedule",
		Args:  cobra.ExactArgs(2),
		RunE: e.run(func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("failed to read schedule: %w", err)
			}
			var f scheduleFile
			if err := yaml.Unmarshal(data, &f); err != nil {
				return fmt.Errorf("failed to parse schedule: %w", err)
			}

			added, err := e.app.ImportSchedule(e.tenantID, args[0], f.Weeks, f.Tasks)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tasks into %q\n", len(added), args[0])
			return nil
		}),
	}
}

func newRemoveTaskCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-task <roadmap> <task-id>",
		Short: "Delete a task; later task IDs shift down by one",
		Args:  cobra.ExactArgs(2),
		RunE: e.run(func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[1])
			if err != nil {
				return err
			}
			removed, err := e.app.DeleteTask(e.tenantID, args[0], id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %d: %s\n", id, removed.Title)
			return nil
		}),
	}
}

func newEditTaskCmd(e *env) *cobra.Command {
	var (
		title, topic, status string
		week                 int
		links                []string
	)

	cmd := &cobra.Command{
		Use:   "edit-task <roadmap> <task-id>",
		Short: "Change a task's title, topic, week, status or links",
		Args:  cobra.ExactArgs(2),
		RunE: e.run(func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[1])
			if err != nil {
				return err
			}

			var patch model.TaskPatch
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("topic") {
				patch.Topic = &topic
			}
			if flags.Changed("week") {
				patch.WeekNumber = &week
			}
			if flags.Changed("status") {
				s := model.Status(status)
				patch.Status = &s
			}
			if flags.Changed("link") {
				patch.Links = links
			}

			t, err := e.app.EditTask(e.tenantID, args[0], id, patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated task %d: %s (%s, week %d, %s)\n", t.ID, t.Title, t.Topic, t.WeekNumber, t.Status)
			return nil
		}),
	}

	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&topic, "topic", "", "new topic")
	cmd.Flags().IntVar(&week, "week", 0, "new week number")
	cmd.Flags().StringVar(&status, "status", "", "pending, in-progress or completed")
	cmd.Flags().StringSliceVar(&links, "link", nil, "replacement links, repeatable")
	return cmd
}

type completionFunc func(a *app.App, tenantID, name string, taskID int, m app.Member) (app.Outcome, error)

func newCompletionCmd(e *env, use, short, verb string, fn completionFunc) *cobra.Command {
	var roadmap string

	cmd := &cobra.Command{
		Use:   use + " <task-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: e.run(func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			m, err := e.member()
			if err != nil {
				return err
			}
			out, err := fn(e.app, e.tenantID, roadmap, id, m)
			if err != nil {
				return err
			}
			e.print(cmd.OutOrStdout(), e.renderer.Outcome(verb, out))
			return nil
		}),
	}

	cmd.Flags().StringVarP(&roadmap, "roadmap", "r", "", "roadmap name (default: your only roadmap)")
	return cmd
}

func newProgressCmd(e *env) *cobra.Command {
	var roadmap, target string

	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show completion progress",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command, args []string) error {
			m, err := e.target(target)
			if err != nil {
				return err
			}
			rep, err := e.app.Progress(e.tenantID, roadmap, m)
			if err != nil {
				return err
			}
			e.print(cmd.OutOrStdout(), e.renderer.Progress(rep))
			return nil
		}),
	}

	cmd.Flags().StringVarP(&roadmap, "roadmap", "r", "", "roadmap name (default: all of yours)")
	cmd.Flags().StringVar(&target, "target", "", "show another user's progress")
	return cmd
}

func newStatsCmd(e *env) *cobra.Command {
	var roadmap, target string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show detailed completion statistics",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command, args []string) error {
			m, err := e.target(target)
			if err != nil {
				return err
			}
			rep, err := e.app.Stats(e.tenantID, roadmap, m)
			if err != nil {
				return err
			}
			e.print(cmd.OutOrStdout(), e.renderer.Stats(rep))
			return nil
		}),
	}

	cmd.Flags().StringVarP(&roadmap, "roadmap", "r", "", "roadmap name (default: all of yours)")
	cmd.Flags().StringVar(&target, "target", "", "show another user's stats")
	return cmd
}

func newLeaderboardCmd(e *env) *cobra.Command {
	var roadmap string

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Rank users by completed tasks",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command, args []string) error {
			lb, err := e.app.Leaderboard(e.tenantID, roadmap)
			if err != nil {
				return err
			}
			e.print(cmd.OutOrStdout(), e.renderer.Leaderboard(lb, roadmap))
			return nil
		}),
	}

	cmd.Flags().StringVarP(&roadmap, "roadmap", "r", "", "limit to one roadmap")
	return cmd
}

func newShowCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <roadmap>",
		Short: "Show a roadmap and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: e.run(func(cmd *cobra.Command, args []string) error {
			m, err := e.member()
			if err != nil {
				return err
			}
			view, err := e.app.ShowRoadmap(e.tenantID, args[0], m)
			if err != nil {
				return err
			}
			e.print(cmd.OutOrStdout(), e.renderer.Roadmap(view))
			return nil
		}),
	}
}

func newInteractionsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "interactions <roadmap>",
		Short: "List who completed each task",
		Args:  cobra.ExactArgs(1),
		RunE: e.run(func(cmd *cobra.Command, args []string) error {
			rows, err := e.app.Interactions(e.tenantID, args[0])
			if err != nil {
				return err
			}
			e.print(cmd.OutOrStdout(), e.renderer.Interactions(args[0], rows))
			return nil
		}),
	}
}

func newOverviewCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "Count roadmaps and tasks across every tenant",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command, args []string) error {
			o, err := e.app.Overview()
			if err != nil {
				return err
			}
			e.print(cmd.OutOrStdout(), e.renderer.Overview(o, e.app.LastUpdated()))
			return nil
		}),
	}
}

func newBackupCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Write a timestamped copy of the store",
		Args:  cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command, args []string) error {
			path, err := e.app.Backup()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s\n", path)
			return nil
		}),
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "trailmap v%s\n", version)
		},
	}
}

// target returns the member a report is about: another user when given,
// otherwise the acting user.
func (e *env) target(userID string) (app.Member, error) {
	if userID != "" {
		return e.memberOf(userID), nil
	}
	return e.member()
}

func parseTaskID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid task ID %q", s)
	}
	return id, nil
}
