// Package commands implements the multilocator CLI (SPEC_FULL.md §4.13).
package commands

import (
	"os"

	"github.com/spf13/cobra"

	configcmd "github.com/marmos91/multilocator/cmd/multilocator/commands/config"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile string
	broker  string
)

// rootCmd is both the base command and the server entry point: running
// "multilocator -c <path>" with no subcommand loads config, wires the core,
// and runs the event loop until SIGINT/SIGTERM (spec.md §6's single-binary
// invocation, preserved through the Cobra scaffolding).
var rootCmd = &cobra.Command{
	Use:   "multilocator",
	Short: "multilocator - Bluetooth AoA indirect position aggregator",
	Long: `multilocator correlates per-locator angle-of-arrival reports for the
same tag and sequence number across a fixed set of locators, and publishes
an estimated 2D/3D position once enough locators have reported in: all of
them for the newest pending sequence, fewer for older ones.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runStart,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen
// once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	// Persistent so "multilocator config show" inherits the same flag; only
	// the start path (runStart) actually requires it to be set.
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to config file (required to start)")
	rootCmd.Flags().StringVarP(&broker, "broker", "m", "", "MQTT broker address, overriding the config file's broker")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configcmd.Cmd)
}

// GetConfigFile returns the config file path from the global flag.
func GetConfigFile() string {
	return cfgFile
}

// GetBrokerOverride returns the -m/--broker override, empty if unset.
func GetBrokerOverride() string {
	return broker
}

// PrintErr prints an error message to stderr.
func PrintErr(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
}

// Exit prints an error and exits with code 1.
func Exit(format string, args ...any) {
	PrintErr(format, args...)
	os.Exit(1)
}
