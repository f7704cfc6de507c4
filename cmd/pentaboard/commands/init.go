package commands

import (
	"fmt"

	"github.com/dyluth/pentaboard/internal/printer"
	"github.com/dyluth/pentaboard/internal/scaffold"
	"github.com/spf13/cobra"
)

var (
	forceInit bool
	initDir   string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented pentaboard.yml",
	Long: `Write a pentaboard.yml with every setting at its default value and a
comment explaining it.

Use --force to overwrite an existing file.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing pentaboard.yml")
	initCmd.Flags().StringVar(&initDir, "dir", ".", "Directory to write pentaboard.yml into")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if !forceInit {
		if err := scaffold.CheckExisting(initDir); err != nil {
			return printer.Error("already initialized", err.Error(), nil)
		}
	}

	created, err := scaffold.Initialize(initDir, forceInit)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	printer.Success("Created %s\n", created[0])
	printer.Info("\nNext steps:\n")
	printer.Info("  1. Set api.base_url to your solving service\n")
	printer.Info("  2. Run 'pentaboard health' to check the connection\n")
	printer.Info("  3. Run 'pentaboard play'\n")
	return nil
}
