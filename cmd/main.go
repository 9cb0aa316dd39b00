package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/theblitlabs/starknet-env/cmd/cli"
	"github.com/theblitlabs/starknet-env/internal/utils/cliutil"
	"github.com/theblitlabs/starknet-env/pkg/logger"
)

var (
	logMode    string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "starknet-env",
	Short: "Starknet environment service",
	Long:  `Owns the environment and wallet session of the Starknet IDE plugin`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		switch logMode {
		case "debug", "pretty", "info", "prod", "test":
			logger.InitWithMode(logMode)
		default:
			logger.InitWithMode("pretty")
		}
	},
}

func newCommands() []*cobra.Command {
	log := logger.WithComponent("cli")

	serveCmd := cliutil.CreateCommand(cliutil.CommandConfig{
		Use:   "serve",
		Short: "Start the environment service and wallet bridge",
		Args:  cobra.NoArgs,
		RunFunc: func(cmd *cobra.Command, args []string) error {
			return cli.RunServe(configPath)
		},
	}, log)

	trimCmd := cliutil.CreateCommand(cliutil.CommandConfig{
		Use:     "trim <address>...",
		Short:   "Print the short form of addresses",
		Example: "  starknet-env trim 0x064b48806902a367c8598f4f95c305e8c1a1acba5f082d294a43793113115691",
		Args:    cobra.MinimumNArgs(1),
		RunFunc: func(cmd *cobra.Command, args []string) error {
			return cli.RunTrim(cmd.OutOrStdout(), args)
		},
	}, log)

	accountsCmd := cliutil.CreateCommand(cliutil.CommandConfig{
		Use:   "accounts",
		Short: "List the accounts of a devnet",
		Args:  cobra.NoArgs,
		Flags: map[string]cliutil.Flag{
			"devnet":  {Type: cliutil.FlagTypeString, Shorthand: "d", Description: "Devnet name"},
			"timeout": {Type: cliutil.FlagTypeDuration, DefaultDuration: 10 * time.Second, Description: "Request timeout"},
		},
		RunFunc: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("devnet")
			ctx, cancel := commandContext(cmd)
			defer cancel()
			return cli.RunDevnetAccounts(ctx, cmd.OutOrStdout(), configPath, name)
		},
	}, log)

	statusCmd := cliutil.CreateCommand(cliutil.CommandConfig{
		Use:   "status",
		Short: "Check which configured devnets are running",
		Args:  cobra.NoArgs,
		Flags: map[string]cliutil.Flag{
			"timeout": {Type: cliutil.FlagTypeDuration, DefaultDuration: 10 * time.Second, Description: "Request timeout"},
		},
		RunFunc: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			return cli.RunDevnetStatus(ctx, cmd.OutOrStdout(), configPath)
		},
	}, log)

	devnetCmd := cliutil.CreateGroup("devnet", "Inspect configured devnets", accountsCmd, statusCmd)

	return []*cobra.Command{serveCmd, trimCmd, devnetCmd}
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	return context.WithTimeout(cmd.Context(), timeout)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logMode, "log", "pretty", "Log mode: debug, pretty, info, prod, test")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the config file")
}

func main() {
	rootCmd.AddCommand(newCommands()...)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
