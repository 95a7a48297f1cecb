package commands

import (
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/pystub/config"
)

var (
	initDir   string
	initForce bool
)

// InitCmd writes a default configuration
var InitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default pystub.toml",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := filepath.Join(initDir, config.FileName)
		if err := config.Write(path, config.Default(), initForce); err != nil {
			return err
		}
		pterm.Success.Printfln("Wrote %s", path)
		return nil
	},
}

func init() {
	InitCmd.Flags().StringVarP(&initDir, "dir", "d", ".", "Directory to write pystub.toml into")
	InitCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing pystub.toml")
}
