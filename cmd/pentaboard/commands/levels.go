package commands

import (
	"context"
	"fmt"

	"github.com/dyluth/pentaboard/internal/printer"
	"github.com/dyluth/pentaboard/internal/render"
	"github.com/dyluth/pentaboard/pkg/puzzle"
	"github.com/spf13/cobra"
)

var levelsOutputFormat string

var levelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "List the level catalog",
	Long: `List every level of the solving service in canonical order.

Groups are ordered by the configured group priority (starter, junior,
expert, master, wizard by default); levels within a group by their numeric
id. The level selected when the game starts is marked with "*".

Output Formats:
  default - Human-readable table
  jsonl   - Line-delimited JSON, one level per line

Examples:
  # List levels
  pentaboard levels

  # Keys of all expert levels
  pentaboard levels -o jsonl | jq -r 'select(.group_id=="expert") | .key'`,
	Args: cobra.NoArgs,
	RunE: runLevels,
}

func init() {
	levelsCmd.Flags().StringVarP(&levelsOutputFormat, "output", "o", "default", "Output format (default or jsonl)")
	rootCmd.AddCommand(levelsCmd)
}

func runLevels(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	outputFormat, err := render.ParseOutputFormat(levelsOutputFormat)
	if err != nil {
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", levelsOutputFormat),
			[]string{"Valid formats: default, jsonl"},
		)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	api, err := newAPIClient(cfg)
	if err != nil {
		return err
	}

	catalog, err := fetchCatalog(ctx, cfg, api)
	if err != nil {
		return printer.APIError("Load levels", err, serviceURL(api))
	}

	w := cmd.OutOrStdout()
	if outputFormat == render.OutputFormatJSONL {
		return render.FormatJSONL(w, catalog)
	}
	render.FormatTable(w, catalog, puzzle.ResolveDefault(catalog))
	return nil
}
