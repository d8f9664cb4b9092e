// Package config implements the "multilocator config" command group
// (SPEC_FULL.md §4.13), adapted from the teacher's
// cmd/dittofs/commands/config package. Only "show" survives here: this
// aggregator's configuration is a single static file with no remote
// store to edit/validate/schema-generate against.
package config

import "github.com/spf13/cobra"

var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration inspection",
	Long: `Inspect the multilocator configuration.

Subcommands:
  show      Display the loaded configuration`,
}

func init() {
	Cmd.AddCommand(showCmd)
}
