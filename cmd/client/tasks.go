package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/amingeek/task-manager/internal/models"
)

const timeLayout = "2006-01-02 15:04"

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func printTasks(w io.Writer, tasks []models.Task) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tGROUP\tEND")
	for _, t := range tasks {
		group := "-"
		if t.GroupID != nil {
			group = fmt.Sprint(*t.GroupID)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", t.ID, t.Title, t.Status, group, formatTime(t.EndTime))
	}
	tw.Flush()
}

func parseTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(timeLayout, s, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid time %q, want %q", s, timeLayout)
	}
	return &t, nil
}

// ===== tasks =====

func (c *cli) tasksCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "tasks", Short: "List and edit tasks"}
	cmd.AddCommand(
		c.tasksListCmd(), c.tasksCreateCmd(), c.tasksShowCmd(),
		c.tasksStatusCmd("done", "Mark a personal task completed", models.StatusCompleted),
		c.tasksStatusCmd("start", "Mark a personal task in progress", models.StatusInProgress),
		c.tasksStatusCmd("reopen", "Move a personal task back to pending", models.StatusPending),
		c.tasksDeleteCmd(),
	)
	return cmd
}

func (c *cli) tasksListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tasks with completion stats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := c.app.Dashboard()
			done, err := c.show(cmd.Context(), d)
			if err != nil {
				return err
			}
			defer done()
			out := cmd.OutOrStdout()
			printTasks(out, d.Tasks.Get())
			st := d.Stats()
			fmt.Fprintf(out, "\n%d tasks, %d completed, %d in progress, %d pending, %d expired (%d%%)\n",
				st.Total, st.Completed, st.InProgress, st.Pending, st.Expired, st.CompletionRate)
			return nil
		},
	}
}

func (c *cli) tasksCreateCmd() *cobra.Command {
	var (
		in         models.TaskInput
		start, end string
	)
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a personal task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			in.Title = args[0]
			if in.StartTime, err = parseTime(start); err != nil {
				return err
			}
			if in.EndTime, err = parseTime(end); err != nil {
				return err
			}
			d := c.app.Dashboard()
			done, err := c.show(cmd.Context(), d)
			if err != nil {
				return err
			}
			defer done()
			if err := d.CreateTask(cmd.Context(), in); err != nil {
				return err
			}
			printTasks(cmd.OutOrStdout(), d.Tasks.Get())
			return nil
		},
	}
	cmd.Flags().StringVarP(&in.Description, "description", "d", "", "task description")
	cmd.Flags().StringVar(&start, "start", "", "start time ("+timeLayout+")")
	cmd.Flags().StringVar(&end, "end", "", "end time ("+timeLayout+")")
	return cmd
}

func (c *cli) tasksStatusCmd(use, short string, status models.TaskStatus) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			d := c.app.Dashboard()
			done, err := c.show(cmd.Context(), d)
			if err != nil {
				return err
			}
			defer done()
			if err := d.SetStatus(cmd.Context(), id, status); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %d is now %s\n", id, status)
			return nil
		},
	}
}

func (c *cli) tasksDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			d := c.app.Dashboard()
			done, err := c.show(cmd.Context(), d)
			if err != nil {
				return err
			}
			defer done()
			if err := d.DeleteTask(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %d\n", id)
			return nil
		},
	}
}

func (c *cli) tasksShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task with progress and files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			d := c.app.TaskDetail(id)
			done, err := c.show(cmd.Context(), d)
			if err != nil {
				return err
			}
			defer done()
			out := cmd.OutOrStdout()
			t := d.Task.Get()
			fmt.Fprintf(out, "#%d %s [%s]\n", t.ID, t.Title, t.Status)
			if t.Description != "" {
				fmt.Fprintln(out, t.Description)
			}
			fmt.Fprintf(out, "start %s  end %s\n", formatTime(t.StartTime), formatTime(t.EndTime))
			if p := d.MyProgress.Get(); p != nil {
				fmt.Fprintf(out, "my progress: %d%%\n", p.Progress)
			}

			if roster := d.Roster.Get(); len(roster) > 0 {
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "\nMEMBER\tPROGRESS\tAPPROVED\tNOTES")
				for _, p := range roster {
					name := fmt.Sprint(p.UserID)
					if p.User != nil {
						name = p.User.Username
					}
					fmt.Fprintf(tw, "%s\t%d%%\t%t\t%s\n", name, p.Progress, p.Approved, p.Notes)
				}
				tw.Flush()
			}
			printFiles(out, d.Files.Get())
			return nil
		},
	}
}

// ===== progress =====

func (c *cli) progressCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "progress", Short: "Report progress on tasks"}

	var notes string
	set := &cobra.Command{
		Use:   "set <task-id> <percent>",
		Short: "Set your own progress on a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			pct, err := parsePercent(args[1])
			if err != nil {
				return err
			}
			d := c.app.TaskDetail(id)
			done, err := c.show(cmd.Context(), d)
			if err != nil {
				return err
			}
			defer done()
			if err := d.UpdateProgress(cmd.Context(), pct, notes); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Progress on task %d set to %d%%\n", id, pct)
			return nil
		},
	}
	set.Flags().StringVarP(&notes, "notes", "n", "", "progress notes")

	var memberNotes string
	member := &cobra.Command{
		Use:   "member <task-id> <user-id> <percent>",
		Short: "Set a member's progress on a group task (admins only)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args[:2])
			if err != nil {
				return err
			}
			pct, err := parsePercent(args[2])
			if err != nil {
				return err
			}
			d := c.app.TaskDetail(ids[0])
			done, err := c.show(cmd.Context(), d)
			if err != nil {
				return err
			}
			defer done()
			if err := d.SetMemberProgress(cmd.Context(), ids[1], pct, memberNotes); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Progress of user %d set to %d%%\n", ids[1], pct)
			return nil
		},
	}
	member.Flags().StringVarP(&memberNotes, "notes", "n", "", "progress notes")

	cmd.AddCommand(set, member)
	return cmd
}

func parsePercent(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid percentage %q", s)
	}
	return n, nil
}

// ===== files =====

func printFiles(w io.Writer, files []models.File) {
	if len(files) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\nFILE\tNAME\tSIZE\tUPLOADER\tNOTES")
	for _, f := range files {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\n", f.ID, f.Filename, f.Size, f.UploaderID, f.Notes)
	}
	tw.Flush()
}

func (c *cli) filesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "files", Short: "Manage task attachments"}

	list := &cobra.Command{
		Use:   "list <task-id>",
		Short: "List files of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			d := c.app.TaskDetail(id)
			done, err := c.show(cmd.Context(), d)
			if err != nil {
				return err
			}
			defer done()
			printFiles(cmd.OutOrStdout(), d.Files.Get())
			return nil
		},
	}

	var notes string
	upload := &cobra.Command{
		Use:   "upload <task-id> <path>",
		Short: "Attach a file to a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			d := c.app.TaskDetail(id)
			done, err := c.show(cmd.Context(), d)
			if err != nil {
				return err
			}
			defer done()
			if err := d.UploadFile(cmd.Context(), filepath.Base(args[1]), f, notes); err != nil {
				return err
			}
			printFiles(cmd.OutOrStdout(), d.Files.Get())
			return nil
		},
	}
	upload.Flags().StringVarP(&notes, "notes", "n", "", "notes stored with the file")

	var output string
	download := &cobra.Command{
		Use:   "download <task-id> <file-id>",
		Short: "Download an attachment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			d := c.app.TaskDetail(ids[0])
			done, err := c.show(cmd.Context(), d)
			if err != nil {
				return err
			}
			defer done()
			name := output
			if name == "" {
				name = fmt.Sprintf("file-%d", ids[1])
				for _, f := range d.Files.Get() {
					if f.ID == ids[1] {
						name = filepath.Base(f.Filename)
					}
				}
			}
			out, err := os.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
			if err != nil {
				return err
			}
			n, err := d.DownloadFile(cmd.Context(), ids[1], out)
			if cerr := out.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				os.Remove(name)
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d bytes)\n", name, n)
			return nil
		},
	}
	download.Flags().StringVarP(&output, "output", "o", "", "destination path (defaults to the stored name)")

	del := &cobra.Command{
		Use:   "delete <task-id> <file-id>",
		Short: "Delete an attachment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			d := c.app.TaskDetail(ids[0])
			done, err := c.show(cmd.Context(), d)
			if err != nil {
				return err
			}
			defer done()
			if err := d.DeleteFile(cmd.Context(), ids[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted file %d\n", ids[1])
			return nil
		},
	}

	cmd.AddCommand(list, upload, download, del)
	return cmd
}
