package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/teranos/pystub/errors"
	"github.com/teranos/pystub/internal/pipeline"
)

// CheckCmd checks if generated stubs are up to date
var CheckCmd = &cobra.Command{
	Use:   "check [description globs...]",
	Short: "Check if generated stubs are up to date",
	Long: `Render every stub in memory and compare with the stubs on disk.

Exit codes:
  0 - Stubs are up to date
  1 - Stubs are missing, differ, or are left over from removed modules
  2 - Error during check`,
	RunE: runCheck,
}

func init() {
	CheckCmd.Flags().StringSliceVarP(&generatePackages, "package", "p", nil, "Go package patterns to extract")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p := pipeline.New(cfg, afero.NewOsFs())

	run, err := p.Run(cmd.Context(), pipeline.Options{Descriptions: args, Packages: generatePackages})
	if err != nil {
		return err
	}
	result, err := p.Writer().Compare(run.Outputs)
	if err != nil {
		return errors.Wrap(err, "failed to compare stubs")
	}

	if result.UpToDate {
		pterm.Success.Printfln("%d stub(s) up to date", len(run.Outputs))
		return nil
	}

	list := func(title string, files []string) {
		if len(files) == 0 {
			return
		}
		pterm.Error.Printfln("%s:", title)
		for _, f := range files {
			pterm.Printfln("  - %s", f)
		}
	}
	list("Missing", result.Missing)
	list("Out of date", result.Different)
	list("No longer generated", result.Orphaned)

	return errors.WithHint(errors.ErrStale, "run 'pystub generate' to update")
}
