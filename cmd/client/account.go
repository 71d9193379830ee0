package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/amingeek/task-manager/internal/crypto"
	"github.com/amingeek/task-manager/internal/models"
)

func (c *cli) invitationsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "invitations", Short: "Answer group invitations"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List pending invitations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := c.app.Invitations()
			done, err := c.show(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer done()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "GROUP\tNAME\tROLE\tINVITED")
			for _, inv := range v.List.Get() {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", inv.GroupID, inv.GroupName, inv.Role, formatTime(&inv.InvitedAt))
			}
			tw.Flush()
			return nil
		},
	}

	accept := &cobra.Command{
		Use:   "accept <group-id>",
		Short: "Join a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			v := c.app.Invitations()
			done, err := c.show(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer done()
			if err := v.Accept(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Joined group %d\n", id)
			return nil
		},
	}

	// The backend has no reject endpoint, so reject only hides the row for this run.
	reject := &cobra.Command{
		Use:   "reject <group-id>",
		Short: "Hide an invitation (it stays pending on the server)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			v := c.app.Invitations()
			done, err := c.show(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer done()
			v.Reject(id)
			fmt.Fprintf(cmd.OutOrStdout(), "Hid invitation to group %d, %d left\n", id, len(v.List.Get()))
			return nil
		},
	}

	cmd.AddCommand(list, accept, reject)
	return cmd
}

func (c *cli) notificationsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "notifications", Short: "Read notifications"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := c.app.NotificationList()
			done, err := c.show(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer done()
			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\t\tTITLE\tMESSAGE")
			for _, n := range v.List.Get() {
				mark := " "
				if !n.IsRead {
					mark = "*"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", n.ID, mark, n.Title, n.Message)
			}
			tw.Flush()
			fmt.Fprintf(out, "\n%d unread\n", v.Unread())
			return nil
		},
	}

	read := &cobra.Command{
		Use:   "read <id>",
		Short: "Mark a notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			v := c.app.NotificationList()
			done, err := c.show(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer done()
			if err := v.MarkRead(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d unread\n", v.Unread())
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a notification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			v := c.app.NotificationList()
			done, err := c.show(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer done()
			if err := v.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted notification %d\n", id)
			return nil
		},
	}

	cmd.AddCommand(list, read, del)
	return cmd
}

func (c *cli) profileCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "profile", Short: "Show or edit your profile"}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show profile, task stats and streak",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := c.app.Profile()
			done, err := c.show(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer done()
			out := cmd.OutOrStdout()
			if u := v.User(); u != nil {
				fmt.Fprintf(out, "%s <%s>\n", u.Username, u.Email)
				if u.FullName != "" {
					fmt.Fprintln(out, u.FullName)
				}
				if u.Bio != "" {
					fmt.Fprintln(out, u.Bio)
				}
			}
			st := v.Stats()
			fmt.Fprintf(out, "tasks: %d total, %d completed (%d%%)\n", st.Total, st.Completed, st.CompletionRate)
			if s := v.Streak.Get(); s != nil {
				fmt.Fprintf(out, "streak: %d days (longest %d)\n", s.CurrentStreak, s.LongestStreak)
			}
			return nil
		},
	}

	var in models.ProfileInput
	update := &cobra.Command{
		Use:   "update",
		Short: "Replace the editable profile fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := c.app.Profile()
			done, err := c.show(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer done()
			if err := v.Update(cmd.Context(), in); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Profile updated")
			return nil
		},
	}
	update.Flags().StringVar(&in.FullName, "full-name", "", "full name")
	update.Flags().StringVar(&in.Bio, "bio", "", "short bio")
	update.Flags().StringVar(&in.AvatarURL, "avatar-url", "", "avatar image URL")

	cmd.AddCommand(show, update)
	return cmd
}

// keygenCmd writes a new master key for session-file encryption. It never overwrites.
func keygenCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a master key for TASKMANAGER_SESSION_KEY_HEX",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists, refusing to overwrite", path)
			} else if !errors.Is(err, os.ErrNotExist) {
				return err
			}
			key, err := crypto.GenerateMasterKey()
			if err != nil {
				return fmt.Errorf("generate key: %w", err)
			}
			if err := os.WriteFile(path, []byte(key+"\n"), 0600); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Master key written to %s\nSet TASKMANAGER_SESSION_KEY_HEX to its contents to encrypt the stored session.\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "out", "o", "master.key", "output path")
	return cmd
}
