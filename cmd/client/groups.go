package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/amingeek/task-manager/internal/models"
)

func printGroups(w io.Writer, groups []models.Group) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tMEMBERS\tDESCRIPTION")
	for _, g := range groups {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", g.ID, g.Name, len(g.Members), g.Description)
	}
	tw.Flush()
}

func (c *cli) groupsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "groups", Short: "Manage groups and their members"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List your groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := c.app.GroupList()
			done, err := c.show(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer done()
			printGroups(cmd.OutOrStdout(), v.List.Get())
			return nil
		},
	}

	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Search groups by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := c.app.GroupList()
			done, err := c.show(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer done()
			if err := v.Search(cmd.Context(), args[0]); err != nil {
				return err
			}
			printGroups(cmd.OutOrStdout(), v.Results.Get())
			return nil
		},
	}

	var (
		description string
		members     []uint
	)
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a group and invite members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := c.app.GroupList()
			done, err := c.show(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer done()
			if err := v.Create(cmd.Context(), args[0], description, members); err != nil {
				return err
			}
			printGroups(cmd.OutOrStdout(), v.List.Get())
			return nil
		},
	}
	create.Flags().StringVarP(&description, "description", "d", "", "group description")
	create.Flags().UintSliceVarP(&members, "member", "m", nil, "user id to invite (repeatable)")

	cmd.AddCommand(list, search, create,
		c.groupShowCmd(), c.groupAddMemberCmd(), c.groupRemoveMemberCmd(),
		c.groupDeleteCmd(), c.groupTaskCmd(), c.groupCandidatesCmd())
	return cmd
}

func (c *cli) groupShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a group with its members and tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			v := c.app.GroupSettings(id)
			done, err := c.show(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer done()
			g := v.Group.Get()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "#%d %s\n", g.ID, g.Name)
			if g.Description != "" {
				fmt.Fprintln(out, g.Description)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "\nUSER\tNAME\tROLE\tACCEPTED")
			for _, m := range g.Members {
				name := "-"
				if m.User != nil {
					name = m.User.Username
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%t\n", m.UserID, name, m.Role, m.Accepted)
			}
			tw.Flush()
			if len(g.Tasks) > 0 {
				fmt.Fprintln(out)
				printTasks(out, g.Tasks)
			}
			return nil
		},
	}
}

func (c *cli) groupCandidatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "candidates <group-id> <query>",
		Short: "Find users who are not yet members",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			v := c.app.GroupSettings(id)
			done, err := c.show(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer done()
			if err := v.SearchCandidates(cmd.Context(), args[1]); err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL")
			for _, u := range v.Candidates.Get() {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", u.ID, u.Username, u.Email)
			}
			tw.Flush()
			return nil
		},
	}
}

func (c *cli) groupAddMemberCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-member <group-id> <user-id>",
		Short: "Invite a user to a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			v := c.app.GroupSettings(ids[0])
			done, err := c.show(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer done()
			if err := v.AddMember(cmd.Context(), ids[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Invited user %d, %d members listed\n", ids[1], len(v.Group.Get().Members))
			return nil
		},
	}
}

func (c *cli) groupRemoveMemberCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-member <group-id> <user-id>",
		Short: "Remove a member from a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			v := c.app.GroupSettings(ids[0])
			done, err := c.show(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer done()
			if err := v.RemoveMember(cmd.Context(), ids[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed user %d, %d members listed\n", ids[1], len(v.Group.Get().Members))
			return nil
		},
	}
}

func (c *cli) groupDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			v := c.app.GroupSettings(id)
			done, err := c.show(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer done()
			if err := v.Delete(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted group %d\n", id)
			return nil
		},
	}
}

func (c *cli) groupTaskCmd() *cobra.Command {
	var (
		in         models.GroupTaskInput
		start, end string
	)
	cmd := &cobra.Command{
		Use:   "task <group-id> <title>",
		Short: "Create a task for group members",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			in.Title = args[1]
			if in.StartTime, err = parseTime(start); err != nil {
				return err
			}
			if in.EndTime, err = parseTime(end); err != nil {
				return err
			}
			v := c.app.GroupSettings(id)
			done, err := c.show(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer done()
			if err := v.CreateTask(cmd.Context(), in); err != nil {
				return err
			}
			printTasks(cmd.OutOrStdout(), v.Group.Get().Tasks)
			return nil
		},
	}
	cmd.Flags().StringVarP(&in.Description, "description", "d", "", "task description")
	cmd.Flags().StringVar(&start, "start", "", "start time ("+timeLayout+")")
	cmd.Flags().StringVar(&end, "end", "", "end time ("+timeLayout+")")
	cmd.Flags().UintSliceVarP(&in.UserIDs, "assign", "a", nil, "assignee user id (repeatable, defaults to all members)")
	return cmd
}
