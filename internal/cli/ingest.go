package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"worktally/internal/ingest"
	"worktally/internal/store"
)

// fileSummary 单个文件的导入摘要（命令行输出）
type fileSummary struct {
	Filename       string               `json:"filename"`
	Records        int                  `json:"records"`
	Summary        store.MergeSummary   `json:"summary"`
	Validation     []ingest.RecordIssue `json:"validation,omitempty"`
	UndefinedCodes []string             `json:"undefinedCodes,omitempty"`
	Sheets         []ingest.SheetReport `json:"sheets"`
}

func newIngestCmd(app *App) *cobra.Command {
	var asJSON bool
	var strict bool
	var taxonomyPath string

	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Ingest timesheet files and print per-file summaries",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strict {
				app.Config.Ingest.Strict = true
			}
			session, summaries, err := app.ingestFiles(cmd, args, taxonomyPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"files":  summaries,
					"status": session.Status(),
				})
			}
			return printSummaries(out, summaries, session.Status())
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print summaries as JSON")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when any record has validation issues")
	cmd.Flags().StringVar(&taxonomyPath, "taxonomy", "", "taxonomy YAML seed file")
	return cmd
}

// ingestFiles 并行导入并按参数顺序合并进新会话
func (a *App) ingestFiles(cmd *cobra.Command, paths []string, taxonomyPath string) (*store.Session, []fileSummary, error) {
	session, err := a.newSession(taxonomyPath)
	if err != nil {
		return nil, nil, err
	}
	opts, err := a.Config.IngestOptions()
	if err != nil {
		return nil, nil, err
	}
	opts = append(opts, ingest.WithLogger(a.Logger), ingest.WithTaxonomySource(session.Taxonomy))

	results, err := ingest.NewIngestor(opts...).IngestFiles(cmd.Context(), paths, a.Config.Ingest.Concurrency)
	if err != nil {
		return nil, nil, err
	}

	summaries := make([]fileSummary, 0, len(results))
	for _, res := range results {
		fs := fileSummary{
			Filename:   res.Filename,
			Records:    len(res.Records),
			Summary:    session.Merge(res),
			Validation: res.Validation,
			Sheets:     res.Sheets,
		}
		for _, u := range res.UndefinedCodes {
			fs.UndefinedCodes = append(fs.UndefinedCodes, u.SubworkCode)
		}
		summaries = append(summaries, fs)
	}
	return session, summaries, nil
}

func printSummaries(w io.Writer, summaries []fileSummary, status store.Status) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tRECORDS\tINSERTED\tUPDATED\tDUPLICATES\tERRORS\tUNDEFINED")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
			s.Filename, s.Records, s.Summary.Inserted, s.Summary.Updated,
			s.Summary.Duplicates, s.Summary.Errors, s.Summary.UndefinedCodes)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, s := range summaries {
		for _, issue := range s.Validation {
			fmt.Fprintf(w, "%s %s row %d: %v\n", s.Filename, issue.Sheet, issue.RowNo, issue.Messages)
		}
		if len(s.UndefinedCodes) > 0 {
			fmt.Fprintf(w, "%s undefined codes: %v\n", s.Filename, s.UndefinedCodes)
		}
	}
	_, err := fmt.Fprintf(w, "total records: %d, taxonomy entries: %d\n", status.Records, status.TaxonomyEntries)
	return err
}
