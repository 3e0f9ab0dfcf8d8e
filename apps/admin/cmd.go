package main

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db      *sql.DB
	usrRepo user.Repository
	logger  core.Logger
	out     io.Writer
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Campus administration commands",
		Long:          "admin manages the campus database: schema migrations and administrator accounts.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = cmd.Usage()
			return errHelp
		},
	}
	root.SetOut(cli.out)
	root.SetErr(cli.out)

	root.AddCommand(cli.migrateCmd(), cli.createAdminCmd(), cli.resetPasswordCmd())
	return root
}

func (cli *commandLine) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS...]",
		Short: "Run a database migration command",
		Long: `Run a goose migration command against the embedded migrations.

Commands: up, up-by-one, up-to VERSION, down, down-to VERSION, redo, reset, status, version, create NAME [go|sql], fix`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Usage()
				return errHelp
			}
			return cli.migrate(args)
		},
	}
}

func (cli *commandLine) createAdminCmd() *cobra.Command {
	var email, name string
	cmd := &cobra.Command{
		Use:   "createadmin",
		Short: "Create an active administrator, or promote an existing account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" {
				_ = cmd.Usage()
				return errHelp
			}
			pwd, err := cli.promptPassword()
			if err != nil {
				return err
			}
			if pwd == "" {
				_ = cmd.Usage()
				return errHelp
			}
			return cli.createAdmin(name, email, pwd)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "The administrator's email. The password will be prompted next.")
	cmd.Flags().StringVar(&name, "name", "", "The administrator's name (defaults to the email).")
	return cmd
}

func (cli *commandLine) resetPasswordCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "resetpassword",
		Short: "Reset a user's password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" {
				_ = cmd.Usage()
				return errHelp
			}
			pwd, err := cli.promptPassword()
			if err != nil {
				return err
			}
			if pwd == "" {
				_ = cmd.Usage()
				return errHelp
			}
			return cli.resetPassword(email, pwd)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "The user's email. The password will be prompted next.")
	return cmd
}

func (cli *commandLine) promptPassword() (string, error) {
	_, _ = fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	_, _ = fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

// run executes the command line; args include the program name.
func (cli *commandLine) run(args []string) error {
	root := cli.rootCmd()
	root.SetArgs(args[1:])
	return root.Execute()
}
