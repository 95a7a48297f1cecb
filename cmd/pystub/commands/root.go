// Package commands implements the pystub command line.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/pystub/config"
	"github.com/teranos/pystub/errors"
	"github.com/teranos/pystub/logger"
)

var (
	configPath string
	jsonLogs   bool
)

// RootCmd is the pystub command
var RootCmd = &cobra.Command{
	Use:   "pystub",
	Short: "Generate Python type stubs for Go extension modules",
	Long: `pystub generates .pyi stub files for Python extension modules implemented in Go.

Modules are described in YAML, TOML or JSON files, or extracted from Go
packages annotated with //pystub: directives. Every Go type at the boundary is
mapped to a Python annotation and the stubs are written one file per module.

Available commands:
  generate - Generate stubs (optionally watching for changes)
  check    - Verify that stubs on disk are up to date
  init     - Write a default pystub.toml
  types    - List the built-in type mappings
  version  - Show version information

Examples:
  pystub generate                   # Use pystub.toml
  pystub generate stubs/geo.yaml    # Explicit descriptions
  pystub generate --watch -v        # Regenerate on change
  pystub check                      # Exit 1 when stubs are stale`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		if err := logger.Initialize(jsonLogs, verbosity); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		return nil
	},
}

func init() {
	RootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to pystub.toml (default: search upward from the current directory)")
	RootCmd.PersistentFlags().BoolVar(&jsonLogs, "log-json", false, "Write logs as JSON")

	RootCmd.AddCommand(GenerateCmd)
	RootCmd.AddCommand(CheckCmd)
	RootCmd.AddCommand(InitCmd)
	RootCmd.AddCommand(TypesCmd)
	RootCmd.AddCommand(VersionCmd)
}

// loadConfig reads the configuration named by --config, or searches for one.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load(".")
}
