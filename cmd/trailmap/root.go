package main

import (
	"fmt"
	"io"

	"github.com/dori/trailmap/internal/access"
	"github.com/dori/trailmap/internal/app"
	"github.com/dori/trailmap/internal/config"
	"github.com/dori/trailmap/internal/logging"
	"github.com/dori/trailmap/internal/ui"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// env is the state shared by every subcommand
type env struct {
	configPath string
	tenantID   string
	userID     string

	cfg      *config.Config
	log      *logrus.Logger
	roles    *access.StaticRoles
	app      *app.App
	renderer *ui.Renderer
}

func newRootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:   "trailmap",
		Short: "Track progress through shared learning roadmaps",
		Long: `trailmap keeps role-gated roadmaps of weekly tasks for a group and
tracks which members completed which tasks.

Members are identified by --user within a --tenant. Their roles are
read from the roles file (see roles.file in the config).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&e.configPath, "config", "", "config file (default: ./trailmap.yaml or $HOME/.config/trailmap/trailmap.yaml)")
	root.PersistentFlags().StringVarP(&e.tenantID, "tenant", "t", "default", "tenant (server) the command applies to")
	root.PersistentFlags().StringVarP(&e.userID, "user", "u", "", "acting user ID")

	root.AddCommand(
		newCreateCmd(e),
		newDropCmd(e),
		newEmptyCmd(e),
		newAddCmd(e),
		newImportCmd(e),
		newRemoveTaskCmd(e),
		newEditTaskCmd(e),
		newCompletionCmd(e, "done", "Mark a task as completed", "completed", (*app.App).Complete),
		newCompletionCmd(e, "undo", "Remove your completion of a task", "undone", (*app.App).Undo),
		newCompletionCmd(e, "hide", "Hide a completed task from your view", "hidden", (*app.App).Hide),
		newCompletionCmd(e, "unhide", "Show a hidden task again", "visible", (*app.App).Unhide),
		newProgressCmd(e),
		newStatsCmd(e),
		newLeaderboardCmd(e),
		newShowCmd(e),
		newInteractionsCmd(e),
		newOverviewCmd(e),
		newBackupCmd(e),
		newVersionCmd(),
	)

	return root
}

// open loads configuration and opens the store. Commands call it lazily so
// that version and help never touch the data directory.
func (e *env) open() error {
	if e.app != nil {
		return nil
	}

	cfg, err := config.Load(e.configPath)
	if err != nil {
		return err
	}
	e.cfg = cfg
	e.log = logging.New(cfg.Log)

	e.roles, err = access.LoadStaticRoles(cfg.Roles.File)
	if err != nil {
		return err
	}

	e.app, err = app.New(cfg, e.roles, e.log)
	if err != nil {
		return err
	}

	e.renderer = ui.NewRenderer(cfg.UI.Theme, cfg.UI.BarWidth)
	return nil
}

func (e *env) close() error {
	if e.app == nil {
		return nil
	}
	err := e.app.Close()
	e.app = nil
	return err
}

// member returns the acting user with their roles in the current tenant
func (e *env) member() (app.Member, error) {
	if e.userID == "" {
		return app.Member{}, fmt.Errorf("--user is required")
	}
	return e.memberOf(e.userID), nil
}

func (e *env) memberOf(userID string) app.Member {
	return app.Member{UserID: userID, RoleIDs: e.roles.RolesOf(e.tenantID, userID)}
}

func (e *env) print(w io.Writer, s string) {
	fmt.Fprintln(w, s)
}

// run wraps a command body so the store is opened first and errors are
// rendered with the configured theme.
func (e *env) run(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		if err := e.open(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return err
		}
		defer func() {
			if cerr := e.close(); err == nil {
				err = cerr
			}
		}()

		if err := fn(cmd, args); err != nil {
			e.print(cmd.ErrOrStderr(), e.renderer.Error(err))
			return err
		}
		return nil
	}
}
