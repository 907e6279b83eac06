package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
)

const tokenEnv = "GOPHAUTH_TOKEN"

// credentials returns the username from args or a prompt, then the password.
func (app *App) credentials(cmd *cobra.Command, args []string) (string, []byte, error) {
	prompts := cmd.ErrOrStderr()

	userName := ""
	if len(args) > 0 {
		userName = args[0]
	} else {
		var err error
		userName, err = GetSimpleText(app.reader, "Enter username", prompts)
		if err != nil {
			return "", nil, err
		}
	}

	password, err := GetPassword(app.reader, prompts)
	if err != nil {
		return "", nil, err
	}
	return userName, password, nil
}

func newRegisterCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "register [username]",
		Short: "Create an account",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userName, password, err := app.credentials(cmd, args)
			if err != nil {
				return err
			}
			defer wipe(password)

			acc, err := app.api.Register(commandContext(cmd), userName, string(password))
			if err != nil {
				return describe(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (id %s)\n", acc.Username, acc.ID)
			return nil
		},
	}
}

func newLoginCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "login [username]",
		Short: "Log in and print a bearer token",
		Long: `Log in and print a bearer token on stdout, e.g.

  export ` + tokenEnv + `=$(gophauth-client login alice)`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userName, password, err := app.credentials(cmd, args)
			if err != nil {
				return err
			}
			defer wipe(password)

			s, err := app.api.Login(commandContext(cmd), userName, string(password))
			if err != nil {
				return describe(err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), s.Token)
			return nil
		},
	}
}

func newProfileCmd(app *App) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the account a token belongs to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if token == "" {
				token = os.Getenv(tokenEnv)
			}
			if token == "" {
				var err error
				token, err = GetSimpleText(app.reader, "Enter token", cmd.ErrOrStderr())
				if err != nil {
					return err
				}
			}

			p, err := app.api.Profile(commandContext(cmd), token)
			if err != nil {
				return describe(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "username: %s\n", p.Username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&token, "token", "t", "", "bearer token (default $"+tokenEnv+")")

	return cmd
}

// describe turns client errors into messages for a person at a terminal.
func describe(err error) error {
	var apiErr *client.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return errors.New(apiErr.Message)
	case errors.Is(err, client.ErrUnavailable):
		return fmt.Errorf("cannot reach server: %w", err)
	default:
		return err
	}
}
