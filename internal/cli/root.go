// Package cli wires the netwatch commands.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/netwatch/fixtures"
	"github.com/example/netwatch/internal/config"
	"github.com/example/netwatch/internal/ui"
)

var version = "0.3.0"

type rootOptions struct {
	configPath string
	envFile    string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "netwatch",
		Short: "netwatch - network security dashboard backend",
		Long: ui.Brand.Sprint("netwatch") + " serves the live topology layout, alerts and threat map\n" +
			ui.Subtle.Sprint("Run `netwatch serve` to start the API, or inspect the data from the terminal"),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("netwatch {{ .Version }}\n")
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/netwatch/config.toml)")
	root.PersistentFlags().StringVar(&opts.envFile, "env", ".env", "Dotenv file to load before reading NETWATCH_* variables")

	root.AddCommand(
		serveCmd(opts),
		layoutCmd(opts),
		alertsCmd(opts),
		threatsCmd(opts),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		ui.Bad.Fprintf(root.ErrOrStderr(), "netwatch: %v\n", err)
		return err
	}
	return nil
}

func (o *rootOptions) load() (*config.Config, *fixtures.Dataset, error) {
	if err := config.LoadDotEnv(o.envFile); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	var ds *fixtures.Dataset
	if cfg.Fixtures.Dir != "" {
		ds, err = fixtures.LoadDir(cfg.Fixtures.Dir)
	} else {
		ds, err = fixtures.Load()
	}
	if err != nil {
		return nil, nil, err
	}
	return cfg, ds, nil
}
