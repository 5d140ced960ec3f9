package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/larder/internal/export"
	"github.com/mesh-intelligence/larder/pkg/types"
)

func newTablesCmd(a *app) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "tables [PATH...]",
		Short: "List the tables of each source with column and row counts",
		Long: "Tables opens each source read-only and lists its tables without\n" +
			"exporting anything. Missing or unreadable sources are reported inline.",
		RunE: func(cmd *cobra.Command, args []string) error {
			sources, err := a.sources(args)
			if err != nil {
				return usageError(err)
			}
			exp := export.New(a.cfg, export.WithLogger(a.logger))
			report := exp.Inspect(cmd.Context(), sources)
			if jsonOut {
				return writeInspectionsJSON(cmd.OutOrStdout(), report)
			}
			writeInspections(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().String("driver", types.DefaultDriver, "database/sql driver: sqlite or sqlite3")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")
	return cmd
}

func writeInspectionsJSON(w io.Writer, report []export.Inspection) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func writeInspections(w io.Writer, report []export.Inspection) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tTABLE\tCOLUMNS\tROWS")
	for _, in := range report {
		if in.Err != nil {
			fmt.Fprintf(tw, "%s\t-\t-\t%s\n", in.Source.Path, in.Error)
			continue
		}
		if len(in.Tables) == 0 {
			fmt.Fprintf(tw, "%s\t(no tables)\t\t\n", in.Source.Path)
			continue
		}
		for _, t := range in.Tables {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", in.Source.Path, t.Name, t.Columns, t.Rows)
		}
	}
	tw.Flush()
}
