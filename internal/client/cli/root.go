package cli

import (
	"bufio"
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
)

// App holds what every command needs once flags are parsed.
type App struct {
	config *config.Config
	api    client.Client
	reader *bufio.Reader

	// newAPI builds the API client from the final configuration.
	newAPI func(cfg *config.Config) (client.Client, error)
}

type rootFlags struct {
	configFile string
	serverURL  string
	timeout    time.Duration
}

func defaultAPI(cfg *config.Config) (client.Client, error) {
	return client.NewHTTPClient(cfg.ServerURL, cfg.RequestTimeout)
}

// NewRootCmd creates the root command of the client.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{newAPI: defaultAPI})
}

func newRootCmd(app *App) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:          "gophauth-client",
		Short:        "Register, log in and inspect your profile on a gophauth server",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.init(cmd, flags)
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "JSON config file")
	cmd.PersistentFlags().StringVarP(&flags.serverURL, "server", "a", "", "server base URL (e.g. http://127.0.0.1:8080)")
	cmd.PersistentFlags().DurationVar(&flags.timeout, "timeout", 0, "request timeout")

	cmd.AddCommand(newRegisterCmd(app))
	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newProfileCmd(app))

	return cmd
}

func (app *App) init(cmd *cobra.Command, flags *rootFlags) error {
	cfg, err := config.LoadConfig(flags.configFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("server") {
		cfg.ServerURL = flags.serverURL
	}
	if cmd.Flags().Changed("timeout") {
		cfg.RequestTimeout = flags.timeout
	}
	app.config = cfg

	api, err := app.newAPI(cfg)
	if err != nil {
		return err
	}
	app.api = api
	app.reader = bufio.NewReader(cmd.InOrStdin())
	return nil
}

// commandContext returns cobra's context, which is nil when the command is
// run without ExecuteContext.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
