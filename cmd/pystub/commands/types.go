package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/pystub/registry"
)

// TypesCmd lists the built-in mappings
var TypesCmd = &cobra.Command{
	Use:   "types",
	Short: "List built-in type mappings",
	Long: `List every source type name the registry maps, with its output and input
annotations. Mappings unavailable under the configured runtime are marked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		caps, err := cfg.Capabilities()
		if err != nil {
			return err
		}

		data := pterm.TableData{{"Type", "Output", "Input", "Available"}}
		for _, e := range registry.New(caps).Entries() {
			available := "yes"
			if !e.Available {
				available = pterm.Yellow("no (limited API)")
			}
			data = append(data, []string{e.Name, e.Output, e.Input, available})
		}
		return pterm.DefaultTable.WithHasHeader().WithWriter(cmd.OutOrStdout()).WithData(data).Render()
	},
}
