package stubgen

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/teranos/pystub/errors"
)

// DefaultWorkers bounds concurrent rendering when no limit is configured.
const DefaultWorkers = 4

// Output is the rendered stub of one module.
type Output struct {
	Module string
	Text   string
}

// Generator renders modules concurrently.
type Generator struct {
	workers int
}

// NewGenerator creates a generator rendering at most workers modules at once.
func NewGenerator(workers int) *Generator {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Generator{workers: workers}
}

// Generate renders every module. Results are in input order. The first error
// cancels the remaining work; a cancelled ctx stops scheduling new modules.
func (g *Generator) Generate(ctx context.Context, modules []Module) ([]Output, error) {
	seen := make(map[string]bool, len(modules))
	for _, m := range modules {
		if seen[m.Name] {
			return nil, errors.NewInvalidDescriptionError("module %s described more than once", m.Name)
		}
		seen[m.Name] = true
	}

	outputs := make([]Output, len(modules))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)

	for i, m := range modules {
		if gctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, err := Render(m)
			if err != nil {
				return errors.Wrapf(err, "module %s", m.Name)
			}
			outputs[i] = Output{Module: m.Name, Text: text}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "generation cancelled")
	}
	return outputs, nil
}
