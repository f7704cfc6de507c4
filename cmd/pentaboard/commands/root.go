package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string
)

// Global flags
var (
	configPath string
	apiURL     string
	redisAddr  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pentaboard",
	Short: "Pentaboard - terminal client for a pentomino solving service",
	Long: `Pentaboard browses the level catalog of a remote pentomino solving
service, asks it to solve a level and draws the solved board.

Levels are organised in groups (starter, junior, expert, ...). A level is
addressed by its composite key "group/level".

When Redis is configured, solved boards are cached per board shape and every
board change is published so other terminals can follow along with
"pentaboard watch".`,
	Version: version,
	// Show help instead of silently succeeding
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// Silence Cobra's default error and usage printing
	// We print formatted colored errors directly in the printer package
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default ./pentaboard.yml if present)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "Solving service base URL (overrides api.base_url)")
	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis", "", "Redis address or redis:// URL (overrides redis.addr)")
}
