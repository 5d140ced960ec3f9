package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/larder/internal/export"
	"github.com/mesh-intelligence/larder/internal/paths"
	"github.com/mesh-intelligence/larder/pkg/types"
)

type exportFlags struct {
	outputDir string
	watch     bool
	schedule  string
}

func newExportCmd(a *app) *cobra.Command {
	var f exportFlags
	cmd := &cobra.Command{
		Use:   "export [PATH[=NAME]...]",
		Short: "Export every table of each source database",
		Long: "Export writes one document per source database, keyed by table name,\n" +
			"to <output-dir>/<name>.<format>. Sources given as arguments replace the\n" +
			"configured ones; NAME defaults to the file name without its extension.\n" +
			"The last '=' starts NAME unless the text after it contains a path\n" +
			"separator or the whole argument is an existing file. A path that\n" +
			"contains '=' can always be given with an explicit name: x=1.db=x1.\n" +
			"Missing sources are skipped. The command exits 2 only when every source fails.",
		Example: "  larder export\n" +
			"  larder export app.db=app_export --format yaml\n" +
			"  larder export data/*.db --parallel 4 --output-dir exports",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExport(cmd, args, f)
		},
	}

	def := types.DefaultConfig()
	fl := cmd.Flags()
	fl.StringVarP(&f.outputDir, "output-dir", "o", "", "directory artifacts are written to (default: current directory)")
	fl.StringP("format", "f", string(def.Format), "artifact format: json or yaml")
	fl.Int("indent", def.Indent, "indentation width; 0 writes compact JSON")
	fl.String("blob-policy", string(def.BlobPolicy), "binary value handling: base64, hex or reject")
	fl.String("driver", def.Driver, "database/sql driver: sqlite or sqlite3")
	fl.IntP("parallel", "p", def.Parallelism, "sources exported at once")
	fl.Duration("debounce", def.Debounce, "quiet period before a watched source is re-exported")
	fl.String("metrics-file", "", "write Prometheus metrics to this file after each run")
	fl.BoolVarP(&f.watch, "watch", "w", false, "re-export sources when their files change")
	fl.StringVar(&f.schedule, "schedule", "", "export on a cron schedule, e.g. \"@every 1h\"")
	cmd.MarkFlagsMutuallyExclusive("watch", "schedule")

	return cmd
}

func (a *app) runExport(cmd *cobra.Command, args []string, f exportFlags) error {
	sources, err := a.sources(args)
	if err != nil {
		return usageError(err)
	}

	cfg := a.cfg
	cfg.OutputDir, err = paths.ResolveOutputDir(f.outputDir, cfg.OutputDir)
	if err != nil {
		return usageError(fmt.Errorf("resolve output dir: %w", err))
	}

	exp := export.New(cfg, export.WithLogger(a.logger), export.WithMetrics(export.NewMetrics()))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if f.schedule != "" {
		if err := exp.Schedule(ctx, f.schedule, sources); err != nil {
			return usageError(err)
		}
		return nil
	}

	results := exp.Run(ctx, sources)
	printResults(cmd.OutOrStdout(), results)

	if f.watch {
		return exp.Watch(ctx, sources)
	}
	if types.AllFailed(results) {
		return &exitError{code: exitAllFailed, err: fmt.Errorf("all %d sources failed", len(results))}
	}
	return nil
}

// sources returns the sources named on the command line, or the configured
// ones when there are none.
func (a *app) sources(args []string) ([]types.Source, error) {
	if len(args) == 0 {
		return a.cfg.Sources, nil
	}
	out := make([]types.Source, 0, len(args))
	for _, arg := range args {
		src := types.ParseSource(arg)
		if err := src.Validate(); err != nil {
			return nil, fmt.Errorf("argument %q: %w", arg, err)
		}
		out = append(out, src)
	}
	return out, nil
}

func printResults(w io.Writer, results []types.Result) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, r := range results {
		switch r.Status {
		case types.StatusPersisted:
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d tables, %d rows\n",
				r.Status, r.Source.Path, r.Artifact, r.Tables, r.Rows)
		default:
			fmt.Fprintf(tw, "%s\t%s\t-\t%v\n", r.Status, r.Source.Path, r.Err)
		}
	}
	tw.Flush()
}

