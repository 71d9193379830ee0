package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amingeek/task-manager/internal/auth"
)

// readSecret returns flagValue, or the next line of in when the flag was left empty.
func readSecret(cmd *cobra.Command, prompt, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *cli) loginCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Sign in and remember the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readSecret(cmd, "Password: ", password)
			if err != nil {
				return err
			}
			sess, err := c.app.Session.Login(cmd.Context(), args[0], pw)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", sess.User.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (read from stdin when empty)")
	return cmd
}

func (c *cli) registerCmd() *cobra.Command {
	var in auth.RegisterInput
	cmd := &cobra.Command{
		Use:   "register <username> <email>",
		Short: "Create an account and sign in",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Username, in.Email = args[0], args[1]
			var err error
			if in.Password, err = readSecret(cmd, "Password: ", in.Password); err != nil {
				return err
			}
			if in.Confirm == "" {
				if in.Confirm, err = readSecret(cmd, "Confirm password: ", ""); err != nil {
					return err
				}
			}
			sess, err := c.app.Session.Register(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s\n", sess.User.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&in.Password, "password", "p", "", "password, at least 6 characters")
	cmd.Flags().StringVar(&in.Confirm, "confirm", "", "password confirmation")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.app.Session.Logout()
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.session(cmd.Context()); err != nil {
				return err
			}
			u := c.app.Session.Snapshot().User
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> (id %d)\n", u.Username, u.Email, u.ID)
			return nil
		},
	}
}
