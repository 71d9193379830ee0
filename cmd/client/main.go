package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amingeek/task-manager/internal/app"
	"github.com/amingeek/task-manager/internal/config"
	"github.com/amingeek/task-manager/internal/guard"
	"github.com/amingeek/task-manager/internal/views"
)

var errNotLoggedIn = errors.New("not logged in: run `taskmanager login` first")

// cli carries the state shared by every command.
type cli struct {
	configDir string
	server    string
	app       *app.App
}

func main() {
	c := &cli{}
	root := c.rootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", views.Message(err))
		os.Exit(1)
	}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "taskmanager",
		Short:         "Command line client for the task manager",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "keygen" {
				return nil
			}
			return c.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.app != nil {
				_ = c.app.Log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&c.configDir, "config-dir", ".", "directory holding .env and config files")
	root.PersistentFlags().StringVar(&c.server, "server", "", "API base URL, overrides TASKMANAGER_API_URL")

	root.AddCommand(
		c.loginCmd(), c.registerCmd(), c.logoutCmd(), c.whoamiCmd(),
		c.tasksCmd(), c.progressCmd(), c.filesCmd(),
		c.groupsCmd(), c.invitationsCmd(), c.notificationsCmd(), c.profileCmd(),
		keygenCmd(),
	)
	return root
}

func (c *cli) setup() error {
	cfg, err := config.LoadConfig(c.configDir)
	if err != nil {
		return err
	}
	if c.server != "" {
		cfg.APIURL = strings.TrimRight(c.server, "/")
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a, err := app.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	c.app = a
	return nil
}

// show mounts view behind the route guard. Nothing is shown unless the persisted session
// is still accepted by the server. The view stays mounted until done is called, so
// mutations made in between refetch into it.
func (c *cli) show(ctx context.Context, view views.View) (done func(), err error) {
	c.app.Session.Initialize(ctx)
	g := c.app.Protect(view)

	_, err = g.Activate(ctx)
	// A 401 while loading logs out and moves the guard off the view.
	if g.Decision() != guard.RenderView {
		g.Deactivate()
		return nil, errNotLoggedIn
	}
	if err != nil {
		g.Deactivate()
		return nil, err
	}
	return g.Deactivate, nil
}

// session makes sure a session exists for commands that have no view.
func (c *cli) session(ctx context.Context) error {
	if guard.Decide(c.app.Session.Initialize(ctx)) != guard.RenderView {
		return errNotLoggedIn
	}
	return nil
}

func parseID(s string) (uint, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return uint(n), nil
}

func parseIDs(args []string) ([]uint, error) {
	ids := make([]uint, 0, len(args))
	for _, a := range args {
		id, err := parseID(a)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
