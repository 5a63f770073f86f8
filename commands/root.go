package commands

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Config file
	configFile string

	// Logging related
	debug bool

	// Output related
	outputFormat string
	timezone     string

	// Snapshot cache
	reset bool

	rootCmd = &cobra.Command{
		Use:   "go-ssgg-monitor",
		Short: "SSGG operations dashboard for the terminal",
		Long: `go-ssgg-monitor reads the SSGG operations portal and prints its dashboards:
water consumption, line downtime, direct contact and non-conformities.

Log in once, then run any of the dashboard commands. Filters cascade: a month
needs a year, a day needs a month.

Examples:
  go-ssgg-monitor login --user ana --password secret   # Store a session
  go-ssgg-monitor water                                # Last 7 days of water
  go-ssgg-monitor water --year 2025 --month 5          # Daily water for May 2025
  go-ssgg-monitor downtime --year 2025 --month Mar     # Downtime per day of March
  go-ssgg-monitor contact --area "Sala 1" -o summary   # Direct contact of one room
  go-ssgg-monitor nc list --year 2025 -o json          # Non-conformities as JSON
  go-ssgg-monitor top                                  # Interactive water cascade
  go-ssgg-monitor export --format parquet --year 2025  # Export water readings`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"Config file (default is ./.go-ssgg-monitor.yaml, then $HOME/.go-ssgg-monitor.yaml)")

	// Output configuration
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table",
		"Output format (table, json, csv, summary)")
	rootCmd.PersistentFlags().StringVar(&timezone, "timezone", "Local",
		"Timezone setting (e.g., America/Santiago, UTC)")

	// System and debugging
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode")
	rootCmd.PersistentFlags().BoolVarP(&reset, "reset", "r", false,
		"Clear the snapshot cache before running")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		panic(err)
	}
}

// initConfig points the global viper at the config file and environment.
func initConfig() {
	configureViper(viper.GetViper(), viper.GetString("config"))
}

func Execute() error {
	return rootCmd.Execute()
}

// Helper functions

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
