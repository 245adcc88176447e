// Command segplot renders every chart a match export supports into a
// directory and optionally archives the normalized records in SQLite.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"segviz-srv/internal/config"
	"segviz-srv/internal/database"
	"segviz-srv/internal/logx"
	"segviz-srv/internal/models"
	"segviz-srv/internal/parser"
	"segviz-srv/internal/render"
	"segviz-srv/internal/segments"
)

type options struct {
	In     string
	Out    string
	Min    *float64
	Max    *float64
	Format string
	DB     string
	Charts string
}

// boundFlag is an optional float flag; nil means "not given".
type boundFlag struct{ v **float64 }

func (b boundFlag) String() string {
	if b.v == nil || *b.v == nil {
		return ""
	}
	return strconv.FormatFloat(**b.v, 'f', -1, 64)
}

func (b boundFlag) Set(s string) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("not a number: %q", s)
	}
	*b.v = &f
	return nil
}

func parseArgs(argv []string, stderr io.Writer) (*options, error) {
	var o options
	fs := flag.NewFlagSet("segplot", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.In, "in", "", "match export CSV (required)")
	fs.StringVar(&o.Out, "out", ".", "directory for chart files")
	fs.Var(boundFlag{&o.Min}, "min", "lower cM bound for histogram and scatter (default MIN_CM)")
	fs.Var(boundFlag{&o.Max}, "max", "upper cM bound for histogram and scatter (default: largest value)")
	fs.StringVar(&o.Format, "format", "png", "output format: png or svg")
	fs.StringVar(&o.DB, "db", "", "SQLite file to archive the normalized records in")
	fs.StringVar(&o.Charts, "charts", "", "comma separated subset of bar3d,line3d,histogram,scatter")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: segplot -in export.csv [-out dir] [-min cM] [-max cM] [-format png|svg] [-db file.db]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(argv); err != nil {
		return nil, err
	}
	if o.In == "" {
		fs.Usage()
		return nil, errors.New("-in is required")
	}
	return &o, nil
}

func chartList(list string) ([]models.ChartKind, error) {
	if strings.TrimSpace(list) == "" {
		return models.ChartKinds, nil
	}
	var kinds []models.ChartKind
	for _, part := range strings.Split(list, ",") {
		k := models.ChartKind(strings.ToLower(strings.TrimSpace(part)))
		if !k.Valid() {
			return nil, fmt.Errorf("unknown chart %q", part)
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

func writeChart(path string, c render.Canvas, ds *segments.Dataset, kind models.ChartKind, opts render.Options) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".segplot-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if err := render.Chart(c, f, ds, kind, opts); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// run returns 0 on success, 1 when the input cannot be loaded or written,
// and 2 on bad usage. A chart skipped for a missing column is not a failure.
func run(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(argv, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(stderr, "segplot:", err)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, "segplot:", err)
		return 2
	}
	logx.SetLogLevel(cfg.LogLevel)

	format, err := render.ParseFormat(opts.Format)
	if err != nil {
		fmt.Fprintln(stderr, "segplot:", err)
		return 2
	}
	kinds, err := chartList(opts.Charts)
	if err != nil {
		fmt.Fprintln(stderr, "segplot:", err)
		return 2
	}

	aliases := parser.DefaultAliases()
	if cfg.AliasFile != "" {
		extra, err := parser.LoadAliasFile(cfg.AliasFile)
		if err != nil {
			fmt.Fprintln(stderr, "segplot:", err)
			return 2
		}
		aliases.Merge(extra)
	}

	in, err := os.Open(opts.In)
	if err != nil {
		fmt.Fprintln(stderr, "segplot:", err)
		return 1
	}
	defer in.Close()

	ds, err := segments.NewLoader(aliases).Load(in)
	if err != nil {
		fmt.Fprintf(stderr, "segplot: %s: %v\n", opts.In, err)
		return 1
	}
	r := ds.Report
	fmt.Fprintf(stdout, "%s: %d rows, %d segments, %d cM records\n", opts.In, r.Rows, r.Segments, r.CMRecords)
	if dropped := r.DroppedChromosome + r.DroppedLocation + r.InvertedSpans; dropped > 0 {
		fmt.Fprintf(stdout, "  dropped %d segment rows (chromosome %d, location %d, inverted %d)\n",
			dropped, r.DroppedChromosome, r.DroppedLocation, r.InvertedSpans)
	}
	if r.UnparsedCM > 0 {
		fmt.Fprintf(stdout, "  %d cM values could not be read and count as 0\n", r.UnparsedCM)
	}

	if err := os.MkdirAll(opts.Out, 0o755); err != nil {
		fmt.Fprintln(stderr, "segplot:", err)
		return 1
	}

	lo := opts.Min
	if lo == nil {
		floor := cfg.MinCM
		lo = &floor
	}
	ropts := render.Options{
		Range: segments.DefaultRange(ds.CMRecords).Override(lo, opts.Max),
		Bins:  cfg.HistogramBins,
	}

	stem := strings.TrimSuffix(filepath.Base(opts.In), filepath.Ext(opts.In))
	for _, kind := range kinds {
		c := render.NewCanvas(format, cfg.ChartWidth, cfg.ChartHeight)
		path := filepath.Join(opts.Out, stem+"-"+string(kind)+"."+c.Extension())

		err := writeChart(path, c, ds, kind, ropts)
		var mc *parser.MissingColumnError
		switch {
		case errors.As(err, &mc):
			fmt.Fprintf(stdout, "%-9s skipped: %v\n", kind, mc)
		case errors.Is(err, render.ErrNoData):
			fmt.Fprintf(stdout, "%-9s skipped: %v\n", kind, err)
		case err != nil:
			fmt.Fprintf(stderr, "segplot: %s: %v\n", kind, err)
			return 1
		default:
			fmt.Fprintf(stdout, "%-9s %s\n", kind, path)
		}
	}

	if opts.DB != "" {
		db, err := database.Open(opts.DB)
		if err != nil {
			fmt.Fprintln(stderr, "segplot:", err)
			return 1
		}
		defer db.Close()
		id, err := database.ExportDataset(ctx, db, filepath.Base(opts.In), ds)
		if err != nil {
			fmt.Fprintln(stderr, "segplot:", err)
			return 1
		}
		fmt.Fprintf(stdout, "archived as load %d in %s\n", id, opts.DB)
	}
	return 0
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
