package declgraph

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"github.com/emenda-labs/stubcheck/core/driver"
	"github.com/emenda-labs/stubcheck/core/stuberr"
	"github.com/emenda-labs/stubcheck/core/symbols"
	"github.com/emenda-labs/stubcheck/pkg/archive"
	"github.com/emenda-labs/stubcheck/pkg/bundle"
)

var _ driver.Analyzer = (*Driver)(nil)

// Options configures a Driver.
type Options struct {
	Decode DecodeOptions

	// Bundles downloads http(s) references. A default client is used
	// when nil.
	Bundles *bundle.Client

	Logger *slog.Logger
}

// Driver implements driver.Analyzer for declaration graph files.
type Driver struct {
	opts Options
}

// NewDriver creates a Driver.
func NewDriver(opts Options) *Driver {
	if opts.Bundles == nil {
		opts.Bundles = bundle.NewClient()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Driver{opts: opts}
}

// Build loads the handwritten and reference graphs in parallel. The
// first failure cancels the other load.
func (d *Driver) Build(ctx context.Context, req driver.BuildRequest) (driver.Build, error) {
	if req.HandwrittenPath == "" {
		return driver.Build{}, stuberr.New(stuberr.BuildFailed, "no handwritten stubs given")
	}
	if req.ReferencePath == "" {
		return driver.Build{}, stuberr.New(stuberr.BuildFailed,
			"no reference stubs given and none configured (set reference.path or reference.url)")
	}

	var b driver.Build
	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) error {
		g, err := d.Load(ctx, req.HandwrittenPath)
		b.Handwritten = g
		return err
	})
	p.Go(func(ctx context.Context) error {
		g, err := d.Load(ctx, req.ReferencePath)
		b.Reference = g
		return err
	})
	if err := p.Wait(); err != nil {
		return driver.Build{}, err
	}

	return b, nil
}

// Load reads the graph at location: a graph file, a directory of graph
// files, a .zip bundle or an http(s) URL of a .zip bundle.
func (d *Driver) Load(ctx context.Context, location string) (*symbols.Graph, error) {
	g, err := d.load(ctx, location)
	if err != nil {
		if stuberr.HasCode(err, stuberr.BuildFailed) {
			return nil, err
		}
		return nil, stuberr.Wrap(stuberr.BuildFailed, err, "loading %s", location)
	}
	d.opts.Logger.Info("declaration graph loaded",
		"location", location, "modules", len(g.Modules), "symbols", len(g.Index))
	return g, nil
}

func (d *Driver) load(ctx context.Context, location string) (*symbols.Graph, error) {
	if bundle.IsURL(location) {
		d.opts.Logger.Info("downloading reference bundle", "url", location)
		data, err := d.opts.Bundles.Download(ctx, location)
		if err != nil {
			return nil, fmt.Errorf("downloading bundle: %w", err)
		}
		dir, cleanup, err := archive.ExtractZip(data, "bundle")
		if err != nil {
			return nil, fmt.Errorf("extracting bundle: %w", err)
		}
		defer cleanup()
		return d.loadDir(ctx, dir)
	}

	info, err := os.Stat(location)
	if err != nil {
		return nil, err
	}
	switch {
	case info.IsDir():
		return d.loadDir(ctx, location)
	case strings.EqualFold(filepath.Ext(location), ".zip"):
		dir, cleanup, err := archive.ExtractZipFile(location)
		if err != nil {
			return nil, fmt.Errorf("extracting bundle: %w", err)
		}
		defer cleanup()
		return d.loadDir(ctx, dir)
	}
	return d.loadFile(location)
}

func (d *Driver) loadDir(ctx context.Context, dir string) (*symbols.Graph, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), FileSuffix) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s files found in %s", FileSuffix, dir)
	}

	graphs := make([]*symbols.Graph, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		g, err := d.loadFile(f)
		if err != nil {
			return nil, err
		}
		graphs = append(graphs, g)
	}
	return d.merge(graphs), nil
}

func (d *Driver) loadFile(path string) (*symbols.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := Decode(f, d.opts.Decode)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// merge combines graphs of one tree. The first definition of a name
// wins.
func (d *Driver) merge(graphs []*symbols.Graph) *symbols.Graph {
	if len(graphs) == 1 {
		return graphs[0]
	}

	out := &symbols.Graph{
		Format:   graphs[0].Format,
		Analyzer: graphs[0].Analyzer,
		Index:    make(map[string]*symbols.Symbol),
	}
	for _, g := range graphs {
		for _, m := range g.Modules {
			if existing, ok := out.Index[m.FullName]; ok && existing != m {
				continue
			}
			out.Modules = append(out.Modules, m)
		}
		for name, sym := range g.Index {
			if _, dup := out.Index[name]; dup {
				d.opts.Logger.Warn("duplicate declaration ignored", "name", name)
				continue
			}
			out.Index[name] = sym
		}
	}
	return out
}
