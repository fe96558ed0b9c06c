package admin

import (
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/dmitrijs2005/omniguard/internal/common"
	"github.com/dmitrijs2005/omniguard/internal/server/services"
	"github.com/spf13/cobra"
)

func newUsersCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "User maintenance commands",
	}

	cmd.AddCommand(newUsersListCmd(e))
	cmd.AddCommand(newUsersCreateCmd(e))
	cmd.AddCommand(newUsersPasswdCmd(e))
	cmd.AddCommand(newUsersRenameCmd(e))
	cmd.AddCommand(newUsersDeleteCmd(e))
	cmd.AddCommand(newUsersDecryptCmd(e))

	return cmd
}

func newUsersListCmd(e *env) *cobra.Command {
	var showCredentials bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := e.app.Auth().ListUserData(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			if showCredentials {
				fmt.Fprintln(tw, "ID\tNOMBRE\tPASSWORD")
			} else {
				fmt.Fprintln(tw, "ID\tNOMBRE")
			}
			for _, u := range data {
				if showCredentials {
					fmt.Fprintf(tw, "%d\t%s\t%s\n", u.ID, u.Name, u.Credential)
				} else {
					fmt.Fprintf(tw, "%d\t%s\n", u.ID, u.Name)
				}
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&showCredentials, "show-credentials", false, "Include the stored credential column")

	return cmd
}

// password returns flagValue or prompts for one.
func (e *env) password(cmd *cobra.Command, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	return GetPassword(e.in, "Password", cmd.ErrOrStderr())
}

func resultErr(res services.Result) error {
	if res.Success {
		return nil
	}
	return fmt.Errorf("%w: %s", res.Code, res.Message)
}

func newUsersCreateCmd(e *env) *cobra.Command {
	var pass string

	cmd := &cobra.Command{
		Use:   "create NOMBRE",
		Short: "Register a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := e.password(cmd, pass)
			if err != nil {
				return err
			}
			if err := resultErr(e.app.Auth().Register(cmd.Context(), args[0], pw)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %s created\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&pass, "password", "", "Password; prompted for when empty")

	return cmd
}

func newUsersPasswdCmd(e *env) *cobra.Command {
	var pass string

	cmd := &cobra.Command{
		Use:   "passwd NOMBRE",
		Short: "Set a new password for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := e.password(cmd, pass)
			if err != nil {
				return err
			}
			if err := e.app.Auth().ChangePassword(cmd.Context(), args[0], pw); err != nil {
				return notFound(args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "password for %s changed\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&pass, "password", "", "Password; prompted for when empty")

	return cmd
}

func newUsersRenameCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "rename NOMBRE NUEVO",
		Short: "Rename a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.app.Auth().RenameUser(cmd.Context(), args[0], args[1]); err != nil {
				if errors.Is(err, common.ErrAlreadyExists) {
					return fmt.Errorf("user %s already exists", args[1])
				}
				return notFound(args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %s renamed to %s\n", args[0], args[1])
			return nil
		},
	}
}

func newUsersDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NOMBRE",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.app.Auth().DeleteUser(cmd.Context(), args[0]); err != nil {
				return notFound(args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %s deleted\n", args[0])
			return nil
		},
	}
}

func newUsersDecryptCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "decrypt ID",
		Short: "Print the plain password of a user (cipher scheme only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("%w: id must be a number", common.ErrValidation)
			}
			plain, err := e.app.Auth().DecodeUserCredential(cmd.Context(), id)
			if err != nil {
				return notFound(args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), plain)
			return nil
		},
	}
}

func notFound(name string, err error) error {
	if errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("%w: user %s", common.ErrNotFound, name)
	}
	return err
}
