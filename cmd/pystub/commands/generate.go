package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/teranos/pystub/internal/pipeline"
	"github.com/teranos/pystub/logger"
	"github.com/teranos/pystub/watch"
)

var (
	generateOutput   string
	generatePackages []string
	generateWatch    bool
	generateStdout   bool
)

// GenerateCmd generates stubs
var GenerateCmd = &cobra.Command{
	Use:   "generate [description globs...]",
	Short: "Generate .pyi stubs",
	Long: `Generate stub files for every described module and annotated Go package.

Arguments replace generate.descriptions from pystub.toml; --package replaces
generate.packages. Unchanged stubs are not rewritten.

Examples:
  pystub generate                          # Inputs from pystub.toml
  pystub generate 'stubs/**/*.yaml'        # Descriptions only
  pystub generate -p ./ext/... -o typings  # Extract Go packages
  pystub generate --stdout stubs/geo.yaml  # Print instead of writing`,
	RunE: runGenerate,
}

func init() {
	GenerateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "Output directory (default: generate.output)")
	GenerateCmd.Flags().StringSliceVarP(&generatePackages, "package", "p", nil, "Go package patterns to extract")
	GenerateCmd.Flags().BoolVarP(&generateWatch, "watch", "w", false, "Regenerate when inputs change")
	GenerateCmd.Flags().BoolVar(&generateStdout, "stdout", false, "Print stubs to stdout instead of writing files")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if generateOutput != "" {
		cfg.Generate.Output = generateOutput
	}
	p := pipeline.New(cfg, afero.NewOsFs())
	opts := pipeline.Options{Descriptions: args, Packages: generatePackages}

	err = generateOnce(cmd, p, opts)
	if !generateWatch {
		return err
	}
	if err != nil {
		pterm.Error.Println(err)
	}

	w, err := watch.New(p.WatchDirs(opts), watch.MatchExt(".yaml", ".yml", ".toml", ".json", ".go"), watch.DefaultDebounce)
	if err != nil {
		return err
	}
	pterm.Info.Println("Watching for changes (Ctrl-C to stop)")
	return w.Run(cmd.Context(), func(ctx context.Context, changed []string) error {
		logger.Debugw("regenerating", logger.FieldCount, len(changed))
		return generateOnce(cmd, p, opts)
	})
}

func generateOnce(cmd *cobra.Command, p *pipeline.Pipeline, opts pipeline.Options) error {
	run, err := p.Run(cmd.Context(), opts)
	if err != nil {
		return err
	}

	if generateStdout {
		out := cmd.OutOrStdout()
		for i, o := range run.Outputs {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprint(out, o.Text)
		}
		return nil
	}

	res, err := p.Writer().Write(run.Outputs)
	if err != nil {
		return err
	}
	for _, path := range res.Written {
		pterm.Success.Printfln("Generated %s", path)
	}
	pterm.Info.Printfln("%d stub(s) written, %d unchanged in %s",
		len(res.Written), len(res.Unchanged), run.Duration.Round(time.Millisecond))
	return nil
}
