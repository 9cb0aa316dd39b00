package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/theblitlabs/starknet-env/internal/config"
	"github.com/theblitlabs/starknet-env/internal/connection"
	"github.com/theblitlabs/starknet-env/internal/devnet"
	"github.com/theblitlabs/starknet-env/internal/environment"
	"github.com/theblitlabs/starknet-env/internal/models"
	"github.com/theblitlabs/starknet-env/internal/utils"
	"github.com/theblitlabs/starknet-env/pkg/logger"
)

// RunDevnetAccounts lists the accounts of a configured devnet. An empty name
// uses the configured default devnet, then the first one.
func RunDevnetAccounts(ctx context.Context, out io.Writer, configPath, name string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if name == "" {
		name = cfg.Environment.DefaultDevnet
	}
	if name == "" && len(cfg.Devnets) > 0 {
		name = cfg.Devnets[0].Name
	}

	selector := environment.NewSelector(connection.NewState(), cfg.Devnets, models.EnvModeDevnet, cfg.Environment.DevnetTimeout)
	defer selector.Close()

	accounts, err := selector.Accounts(ctx, name)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INDEX\tADDRESS\tBALANCE")
	for i, account := range accounts {
		fmt.Fprintf(w, "%d\t%s\t%s\n", i, utils.TrimAddress(account.Address), utils.FormatBalance(account.InitialBalance))
	}
	return w.Flush()
}

// RunDevnetStatus probes every configured devnet.
func RunDevnetStatus(ctx context.Context, out io.Writer, configPath string) error {
	log := logger.WithComponent("cli")

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tURL\tSTATUS\tCHAIN")
	for _, d := range cfg.Devnets {
		status, chain := probeDevnet(ctx, d, cfg.Environment.DevnetTimeout)
		log.Debug().Str("devnet", d.Name).Str("status", status).Msg("Devnet probed")
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Name, d.URL, status, chain)
	}
	return w.Flush()
}

func probeDevnet(ctx context.Context, d models.Devnet, timeout time.Duration) (string, string) {
	client := devnet.NewClient(d, timeout)
	defer client.Close()

	if err := client.IsAlive(ctx); err != nil {
		return "offline", "-"
	}
	chain, err := client.ChainID(ctx)
	if err != nil {
		return "alive", "unknown"
	}
	return "alive", chain
}
