// Package batch converts every layout sheet in a directory.
package batch

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/layout-localizer/backend/internal/export"
	"github.com/layout-localizer/backend/internal/localize"
	"github.com/layout-localizer/backend/internal/models"
	"github.com/layout-localizer/backend/internal/parser"
)

// Options configures a Driver.
type Options struct {
	// Extensions lists the input extensions to pick up, e.g. ".xlsx".
	Extensions []string
	// OutputDir defaults to the input directory.
	OutputDir    string
	OutputSuffix string
	OutputExt    string
	Format       export.Format
	// Out receives progress lines. Defaults to os.Stdout.
	Out io.Writer
}

// Result reports the outcome for one input file.
type Result struct {
	Input      string
	Output     string
	Stats      localize.Stats
	RowErrors  []*models.ParseError
	Err        error
	DurationMs int64
}

// Summary aggregates a directory run.
type Summary struct {
	Results []Result
	Failed  int
}

// Driver scans a directory and converts each sheet independently.
type Driver struct {
	registry  *parser.Registry
	converter *localize.Converter
	opts      Options
}

// NewDriver creates a Driver.
func NewDriver(registry *parser.Registry, converter *localize.Converter, opts Options) *Driver {
	if len(opts.Extensions) == 0 {
		opts.Extensions = []string{".xlsx"}
	}
	if opts.OutputSuffix == "" {
		opts.OutputSuffix = export.DefaultOutputSuffix
	}
	if opts.OutputExt == "" {
		opts.OutputExt = export.DefaultOutputExt
	}
	if opts.Format == "" {
		opts.Format = export.FormatJSON
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	return &Driver{registry: registry, converter: converter, opts: opts}
}

// Discover lists input files in dir, sorted by name.
func (d *Driver) Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		// Office lock files ("~$menu.xlsx") are not workbooks.
		if strings.HasPrefix(name, "~$") {
			continue
		}
		if d.matches(name) {
			files = append(files, filepath.Join(dir, name))
		}
	}
	sort.Strings(files)
	return files, nil
}

func (d *Driver) matches(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range d.opts.Extensions {
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}

// RunDir converts every matching file in dir. A failing file is reported
// and the run continues with the next one.
func (d *Driver) RunDir(dir string) (*Summary, error) {
	files, err := d.Discover(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		fmt.Fprintf(d.opts.Out, "[Batch] No %s files found in %s\n", strings.Join(d.opts.Extensions, "/"), dir)
	}
	return d.RunFiles(files), nil
}

// RunFiles converts the given files in order.
func (d *Driver) RunFiles(files []string) *Summary {
	summary := &Summary{Results: make([]Result, 0, len(files))}
	for _, f := range files {
		res := d.ConvertFile(f)
		if res.Err != nil {
			summary.Failed++
			fmt.Fprintf(d.opts.Out, "[Batch] ERROR %s: %v\n", filepath.Base(f), res.Err)
		} else {
			fmt.Fprintf(d.opts.Out, "[Batch] Wrote %s (%d pages, %d elements, %d rows skipped) in %dms\n",
				res.Output, res.Stats.Pages, res.Stats.Elements, res.Stats.Skipped, res.DurationMs)
		}
		for _, pe := range res.RowErrors {
			fmt.Fprintf(d.opts.Out, "[Batch]   %s line %d: %s\n", filepath.Base(f), pe.Line, pe.Reason)
		}
		summary.Results = append(summary.Results, res)
	}
	return summary
}

// ConvertFile converts one sheet and writes its output file.
func (d *Driver) ConvertFile(inputPath string) Result {
	start := time.Now()
	res := Result{Input: inputPath}

	p, err := d.registry.FindParser(inputPath)
	if err != nil {
		res.Err = err
		return res
	}

	rows, rowErrs, err := p.Parse(inputPath)
	if err != nil {
		res.Err = fmt.Errorf("reading %s: %w", filepath.Base(inputPath), err)
		return res
	}
	res.RowErrors = rowErrs

	doc, stats := d.converter.ConvertWithStats(rows)
	res.Stats = stats

	outDir := d.opts.OutputDir
	if outDir == "" {
		outDir = filepath.Dir(inputPath)
	}
	res.Output = filepath.Join(outDir, export.OutputName(inputPath, d.opts.OutputSuffix, d.opts.OutputExt))

	if err := export.WriteFile(res.Output, doc, d.opts.Format); err != nil {
		res.Err = err
		return res
	}

	res.DurationMs = time.Since(start).Milliseconds()
	return res
}
