package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/d4n3436/fergun/bot"
	"github.com/d4n3436/fergun/core/bootstrap"
	"github.com/d4n3436/fergun/core/buildinfo"
	corecmd "github.com/d4n3436/fergun/core/cmd"
)

const defaultConfigPath = "config.yaml"

// NewRootCommand creates the fergun command tree.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "fergun",
		Short:         "Telegram bot with interactive paginators and selections",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newRunCommand(), newVersionCommand())
	return cmd
}

func newRunCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the bot",
		Long: `Start the bot with the given configuration.

The config path is taken from --config, then CONFIG_PATH, then ./config.yaml.

Example:
  fergun run --config /etc/fergun/config.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return corecmd.Run(cmd.Context(), runOptions(configPath))
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the YAML config file")
	return cmd
}

func runOptions(configPath string) corecmd.Options {
	return corecmd.Options{
		ConfigPath:        configPath,
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: defaultConfigPath,
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			cfg, err := bot.LoadConfig(path)
			if err != nil {
				return nil, err
			}
			return cfg, nil
		},
		Bootstrap: func(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			cfg, ok := carrier.(*bot.Config)
			if !ok {
				return nil, fmt.Errorf("unexpected config type %T", carrier)
			}
			res, err := bootstrap.Run(ctx, bootstrap.Options{
				Config:   cfg.CoreConfig(),
				Database: cfg.Database,
			})
			if err != nil {
				return nil, err
			}
			return bot.New(cfg, res.DB), nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
		},
	}
}
