package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/roster-cli/internal/config"
	"github.com/sells-group/roster-cli/internal/export"
	"github.com/sells-group/roster-cli/internal/model"
	"github.com/sells-group/roster-cli/internal/reconcile"
	"github.com/sells-group/roster-cli/internal/roster"
)

// errFindings signals --fail-on-findings without printing an extra error.
var errFindings = eris.New("findings reported")

type reconcileOptions struct {
	SourceA        string
	SourceB        string
	Format         string
	Output         string
	Label          string
	Sheet          string
	ColumnMap      string
	Organizations  []string
	Save           bool
	FailOnFindings bool
}

var reconcileFlags reconcileOptions

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile registry A against registry B",
	Long: "Loads the employment registry (A) and the training-portal membership list (B) " +
		"from local files, http(s) or ftp URLs, matches people across them and reports every disagreement.",
	Example: "  roster-cli reconcile --a hr.xlsx --b portal.csv\n" +
		"  roster-cli reconcile --a hr.csv --b https://portal.example.com/members.csv -o findings.xlsx --save",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rep, err := runReconcile(cmd.Context(), cfg, reconcileFlags, os.Stdout)
		if err != nil {
			return err
		}
		if reconcileFlags.FailOnFindings && rep.Summary.TotalFindings > 0 {
			cmd.SilenceUsage = true
			return errFindings
		}
		return nil
	},
}

func init() {
	f := reconcileCmd.Flags()
	f.StringVar(&reconcileFlags.SourceA, "a", "", "registry A roster (path or URL)")
	f.StringVar(&reconcileFlags.SourceB, "b", "", "registry B roster (path or URL)")
	f.StringVarP(&reconcileFlags.Format, "format", "f", "", "output format: table, json, yaml, csv, xlsx (default from config or output extension)")
	f.StringVarP(&reconcileFlags.Output, "output", "o", "", "write the report to this file instead of stdout")
	f.StringVar(&reconcileFlags.Label, "label", "", "label stored with the run")
	f.StringVar(&reconcileFlags.Sheet, "sheet", "", "worksheet name for xlsx rosters (default first sheet)")
	f.StringVar(&reconcileFlags.ColumnMap, "column-map", "", "YAML file of extra header labels per field")
	f.StringSliceVar(&reconcileFlags.Organizations, "org", nil, "additional known organization names")
	f.BoolVar(&reconcileFlags.Save, "save", false, "persist the run in the configured store")
	f.BoolVar(&reconcileFlags.FailOnFindings, "fail-on-findings", false, "exit non-zero when any finding is reported")
	_ = reconcileCmd.MarkFlagRequired("a")
	_ = reconcileCmd.MarkFlagRequired("b")

	rootCmd.AddCommand(reconcileCmd)
}

// runReconcile loads both rosters concurrently, reconciles them, writes the
// report and optionally saves the run.
func runReconcile(ctx context.Context, c *config.Config, opts reconcileOptions, stdout io.Writer) (*model.Report, error) {
	if err := c.Validate("reconcile"); err != nil {
		return nil, err
	}
	log := zap.L().With(zap.String("component", "reconcile"))

	format, err := outputFormat(c, opts)
	if err != nil {
		return nil, err
	}

	loader, closeFn, err := newLoader(ctx, c, opts)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	var (
		as []model.RecordA
		bs []model.RecordB
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		as, err = loader.LoadA(gctx, opts.SourceA)
		return eris.Wrap(err, "load registry A")
	})
	g.Go(func() error {
		var err error
		bs, err = loader.LoadB(gctx, opts.SourceB)
		return eris.Wrap(err, "load registry B")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	engineOpts := append(c.EngineOptions(), reconcile.WithOrganizations(opts.Organizations...))
	start := time.Now()
	rep := reconcile.New(engineOpts...).Reconcile(as, bs)
	log.Info("reconciliation complete",
		zap.Int("registry_a", len(as)),
		zap.Int("registry_b", len(bs)),
		zap.Int("findings", rep.Summary.TotalFindings),
		zap.Duration("elapsed", time.Since(start)),
	)

	if err := writeReport(rep, format, opts.Output, stdout); err != nil {
		return nil, err
	}

	if opts.Save {
		id, err := saveRun(ctx, c, opts, rep)
		if err != nil {
			return nil, err
		}
		log.Info("run saved", zap.String("run_id", id))
	}
	return rep, nil
}

func outputFormat(c *config.Config, opts reconcileOptions) (export.Format, error) {
	if opts.Format != "" {
		return export.ParseFormat(opts.Format)
	}
	def, err := export.ParseFormat(c.Report.Format)
	if err != nil {
		return "", err
	}
	return export.FormatFor(opts.Output, def), nil
}

func newLoader(ctx context.Context, c *config.Config, opts reconcileOptions) (*roster.Loader, func(), error) {
	colPath := opts.ColumnMap
	if colPath == "" {
		colPath = c.Loader.ColumnMap
	}
	var cols roster.ColumnMap
	if colPath != "" {
		var err error
		if cols, err = roster.LoadColumnMap(colPath); err != nil {
			return nil, nil, err
		}
	}

	sheet := opts.Sheet
	if sheet == "" {
		sheet = c.Loader.Sheet
	}

	rc := initCache(ctx, c)
	fetcher := roster.NewFetcher(roster.FetchOptions{
		UserAgent:  c.Loader.UserAgent,
		Timeout:    secs(c.Loader.TimeoutSecs),
		MaxRetries: c.Loader.MaxRetries,
	})
	loader := roster.NewLoader(fetcher, rc, roster.Options{
		Sheet:     sheet,
		Delimiter: delimiter(c.Loader.Delimiter),
		Columns:   cols,
	})
	return loader, func() { _ = rc.Close() }, nil
}

func writeReport(rep *model.Report, format export.Format, path string, stdout io.Writer) error {
	if path == "" {
		return export.Write(stdout, rep, format)
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	if err := export.Write(f, rep, format); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "close %s", path)
	}
	fmt.Fprintf(os.Stderr, "Report written to %s (%d findings)\n", path, rep.Summary.TotalFindings)
	return nil
}

func saveRun(ctx context.Context, c *config.Config, opts reconcileOptions, rep *model.Report) (string, error) {
	st, err := openStore(ctx, c)
	if err != nil {
		return "", err
	}
	defer st.Close() //nolint:errcheck

	run := &model.Run{Label: opts.Label, SourceA: opts.SourceA, SourceB: opts.SourceB, Report: rep}
	if err := st.SaveRun(ctx, run); err != nil {
		return "", eris.Wrap(err, "save run")
	}
	return run.ID, nil
}

// delimiter maps the configured CSV delimiter to a rune. "tab" and `\t`
// select a tab; empty selects the parser default.
func delimiter(s string) rune {
	switch s {
	case "":
		return 0
	case "tab", `\t`:
		return '\t'
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

func secs(n int) time.Duration {
	return time.Duration(n) * time.Second
}
