// Package pipeline runs one stub generation from configuration to rendered
// text: descriptions and Go packages are extracted, resolved against a
// registry built for the configured runtime, and rendered concurrently.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/teranos/pystub/config"
	"github.com/teranos/pystub/describe"
	"github.com/teranos/pystub/errors"
	"github.com/teranos/pystub/goextract"
	"github.com/teranos/pystub/logger"
	"github.com/teranos/pystub/registry"
	"github.com/teranos/pystub/stubgen"
	"github.com/teranos/pystub/writer"
)

// Options overrides configured inputs for a run.
type Options struct {
	// Descriptions replaces generate.descriptions when non-empty.
	Descriptions []string
	// Packages replaces generate.packages when non-empty.
	Packages []string
}

// Run is the result of one generation.
type Run struct {
	ID       string
	Modules  []stubgen.Module
	Outputs  []stubgen.Output
	Duration time.Duration
}

// Pipeline generates stubs for a configuration.
type Pipeline struct {
	cfg *config.Config
	fs  afero.Fs
}

// New creates a pipeline reading and writing through fs. Relative paths are
// resolved against the configuration directory.
func New(cfg *config.Config, fs afero.Fs) *Pipeline {
	return &Pipeline{cfg: cfg, fs: fs}
}

func (p *Pipeline) inputs(opts Options) (descriptions, packages []string) {
	descriptions, packages = p.cfg.Generate.Descriptions, p.cfg.Generate.Packages
	if len(opts.Descriptions) > 0 {
		descriptions = opts.Descriptions
	}
	if len(opts.Packages) > 0 {
		packages = opts.Packages
	}
	return descriptions, packages
}

// Run generates every module. Descriptions are declared first so Go
// packages may refer to described classes and the other way round.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Run, error) {
	run := &Run{ID: uuid.NewString()}
	ctx = logger.WithRunID(ctx, run.ID)
	log := logger.LoggerFromContext(ctx).Named("pipeline")
	start := time.Now()

	caps, err := p.cfg.Capabilities()
	if err != nil {
		return nil, err
	}
	res, err := registry.NewResolver(registry.New(caps), registry.Options{Policy: p.cfg.Policy()})
	if err != nil {
		return nil, err
	}

	root, err := filepath.Abs(p.cfg.Dir())
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve project directory")
	}
	descriptions, packages := p.inputs(opts)
	loader := describe.NewLoader(afero.NewBasePathFs(p.fs, root))
	files, err := loader.Load(descriptions)
	if err != nil {
		return nil, err
	}
	log.Debugw("loaded descriptions", logger.FieldCount, len(files), logger.FieldPattern, strings.Join(descriptions, " "))
	if err := describe.Declare(res, files); err != nil {
		return nil, err
	}

	if len(packages) > 0 {
		ext := goextract.New(res, goextract.Options{Dir: p.cfg.Dir(), FinalClasses: p.cfg.Generate.FinalClasses})
		modules, err := ext.Extract(packages...)
		if err != nil {
			return nil, err
		}
		log.Debugw("extracted packages", logger.FieldCount, len(modules), logger.FieldPackage, strings.Join(packages, " "))
		run.Modules = append(run.Modules, modules...)
	}

	buildOpts := describe.Options{FinalClasses: p.cfg.Generate.FinalClasses}
	for _, f := range files {
		m, err := describe.BuildModule(res, f, buildOpts)
		if err != nil {
			return nil, err
		}
		run.Modules = append(run.Modules, m)
	}
	if len(run.Modules) == 0 {
		return nil, errors.WithHint(errors.New("nothing to generate"),
			"add description files matching generate.descriptions or Go packages to generate.packages")
	}

	run.Outputs, err = stubgen.NewGenerator(p.cfg.Generate.Workers).Generate(ctx, run.Modules)
	if err != nil {
		return nil, err
	}
	run.Duration = time.Since(start)
	log.Infow("generated stubs",
		logger.FieldCount, len(run.Outputs),
		logger.FieldDurationMS, run.Duration.Milliseconds())
	return run, nil
}

// Writer returns a writer rooted at the configured output directory.
func (p *Pipeline) Writer() *writer.Writer {
	return writer.New(p.fs, p.cfg.Resolve(p.cfg.Generate.Output))
}

// WatchDirs lists the existing directories whose changes can affect a run:
// the static prefix of every description glob and every local package
// pattern.
func (p *Pipeline) WatchDirs(opts Options) []string {
	descriptions, packages := p.inputs(opts)
	seen := make(map[string]bool)
	var dirs []string
	add := func(dir string) {
		dir = filepath.Clean(p.cfg.Resolve(dir))
		if seen[dir] {
			return
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}

	for _, pattern := range descriptions {
		base, _ := doublestar.SplitPattern(filepath.ToSlash(pattern))
		add(filepath.FromSlash(base))
	}
	for _, pkg := range packages {
		// Only relative patterns name directories
		if !strings.HasPrefix(pkg, ".") {
			continue
		}
		add(strings.TrimSuffix(strings.TrimSuffix(pkg, "..."), "/"))
	}
	sort.Strings(dirs)
	return dirs
}
