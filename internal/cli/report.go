package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"worktally/internal/aggregate"
	"worktally/internal/exporter"
	"worktally/internal/model"
)

// 报表模式：前三种输出分隔符文本，其余输出 JSON
const (
	modePivot    = "pivot"
	modeRows     = "rows"
	modeRecords  = "records"
	modeCategory = "category"
	modeRatio    = "ratio"
	modeDate     = "date"
	modeTotals   = "totals"
)

func newReportCmd(app *App) *cobra.Command {
	var (
		mode         string
		cfg          model.ReportConfig
		separator    string
		outPath      string
		taxonomyPath string
	)

	cmd := &cobra.Command{
		Use:   "report <file>...",
		Short: "Ingest files and write an aggregated report",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if separator == "" {
				separator = app.Config.Export.Separator
			}
			sep, err := exporter.ParseSeparator(separator)
			if err != nil {
				return err
			}

			session, _, err := app.ingestFiles(cmd, args, taxonomyPath)
			if err != nil {
				return err
			}

			var out io.Writer = cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("create %s: %w", outPath, err)
				}
				defer f.Close()
				out = f
			}

			records := session.Records()
			taxonomy := session.Taxonomy()
			filtered := aggregate.FilterFromConfig(cfg).Apply(records)

			switch mode {
			case modePivot, modeRows, modeRecords:
				table, err := exporter.BuildTable(exporter.Kind(mode), records, taxonomy, cfg)
				if err != nil {
					return err
				}
				return exporter.WriteDelimited(out, table, sep, exporter.LogProgress(app.Logger.WithField("mode", mode)))
			case modeCategory:
				return writeJSON(out, aggregate.ByCategory(filtered, taxonomy))
			case modeRatio:
				return writeJSON(out, aggregate.ByRatio(filtered))
			case modeDate:
				return writeJSON(out, aggregate.ByDate(filtered))
			case modeTotals:
				return writeJSON(out, aggregate.ComputeTotals(filtered))
			default:
				return fmt.Errorf("unknown report mode %q", mode)
			}
		},
	}

	f := cmd.Flags()
	f.StringVar(&mode, "mode", modeRows, "pivot|rows|records|category|ratio|date|totals")
	f.StringSliceVar(&cfg.GroupBy, "group-by", nil, "pivot dimensions")
	f.StringSliceVar(&cfg.Metrics, "metrics", nil, "pivot metrics")
	f.StringVar(&cfg.From, "from", "", "first work date (YYYY-MM-DD)")
	f.StringVar(&cfg.To, "to", "", "last work date (YYYY-MM-DD)")
	f.StringVar(&cfg.Project, "project", "", "project code substring")
	f.StringVar(&cfg.Contractor, "contractor", "", "contractor name substring")
	f.StringVar(&cfg.Employment, "employment", "", "employment code")
	f.StringVar(&separator, "separator", "", "field separator (default from config; \"tab\" for TSV)")
	f.StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	f.StringVar(&taxonomyPath, "taxonomy", "", "taxonomy YAML seed file")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
