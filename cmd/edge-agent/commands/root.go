package commands

import (
	"os"

	"github.com/spf13/cobra"
)

// Build-time version information, set by main.go from ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "edge-agent",
	Short: "edge-agent - connected vehicle telemetry collection and inspection engine",
	Long: `edge-agent collects vehicle signals, evaluates inspection conditions
against them in real time, and forwards matched data upstream.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/edge-agent/config.yaml.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root cobra command, primarily for testing.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/edge-agent/config.yaml)")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(completionCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// GetConfigFile returns the path passed via --config, or "" if unset.
func GetConfigFile() string {
	return cfgFile
}

// PrintErr writes a formatted error message through the root command.
func PrintErr(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
}

// Exit prints a formatted error message and terminates the process.
func Exit(format string, args ...any) {
	PrintErr(format, args...)
	os.Exit(1)
}
