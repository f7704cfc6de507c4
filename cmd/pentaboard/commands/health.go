package commands

import (
	"context"

	"github.com/dyluth/pentaboard/internal/printer"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the solving service is reachable",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	api, err := newAPIClient(cfg)
	if err != nil {
		return err
	}

	status, err := api.Health(ctx)
	if err != nil {
		return printer.APIError("Health check", err, serviceURL(api))
	}
	printer.Success("Solving service at %s is healthy (%s)\n", serviceURL(api), status)

	if cfg.Redis.Enabled() {
		client, err := newCacheClient(ctx, cfg)
		if err != nil {
			return err
		}
		defer client.Close()
		printer.Success("Redis at %s is reachable (instance '%s')\n", cfg.Redis.Addr, client.InstanceName())
	}
	return nil
}
