package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"worktally/internal/model"
)

// DefaultSeparator 默认分隔符
const DefaultSeparator = ','

// progressEvery 每写出多少行上报一次进度
const progressEvery = 500

// Table 待导出的平面表：表头 + 行
type Table struct {
	Header []string
	Rows   [][]string
}

// WriteDelimited 写出表头行及每一行，值之间以 sep 分隔
func WriteDelimited(w io.Writer, t Table, sep rune, progress ProgressFunc) error {
	if sep == 0 {
		sep = DefaultSeparator
	}
	if !utf8.ValidRune(sep) || sep == '"' || sep == '\r' || sep == '\n' {
		return fmt.Errorf("invalid separator %q", sep)
	}

	cw := csv.NewWriter(w)
	cw.Comma = sep
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	emitProgress(progress, StageHeader, 0, len(t.Rows))

	for i, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
		if (i+1)%progressEvery == 0 {
			emitProgress(progress, StageRows, i+1, len(t.Rows))
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	emitProgress(progress, StageDone, len(t.Rows), len(t.Rows))
	return nil
}

// ParseSeparator 配置中的分隔符：空为默认，"tab"/"\t" 为制表符，否则取首个字符
func ParseSeparator(s string) (rune, error) {
	switch s {
	case "":
		return DefaultSeparator, nil
	case "tab", `\t`, "\t":
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || size != len(s) {
		return 0, fmt.Errorf("separator must be a single character, got %q", s)
	}
	return r, nil
}

// ReportRowsTable 明细行 → 平面表
func ReportRowsTable(rows []model.ReportRow) Table {
	t := Table{Header: []string{
		"projectCode", "subworkCode", "majorName", "subworkName",
		"regularHours", "overtimeHours", "totalHours", "overtimeFraction",
	}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			r.ProjectCode, r.SubworkCode, r.MajorName, r.SubworkName,
			formatFloat(r.RegularHours), formatFloat(r.OvertimeHours),
			formatFloat(r.TotalHours), formatFloat(r.OvertimeFraction),
		})
	}
	return t
}

// PivotTable 分组结果 → 平面表（维度列在前，指标列在后）
func PivotTable(p *model.PivotTable) Table {
	t := Table{Header: append(append([]string{}, p.Dimensions...), p.Metrics...)}
	for _, r := range p.Rows {
		row := append([]string{}, r.Keys...)
		for _, v := range r.Values {
			row = append(row, formatFloat(v))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// RecordsTable 工时记录 → 平面表
func RecordsTable(records []model.WorkRecord) Table {
	t := Table{Header: []string{
		"workDate", "contractorName", "reporter", "headcount", "employmentCode",
		"projectCode", "subareaCode", "subworkCode", "inHours", "outHours", "totalHours", "contentHash",
	}}
	for _, r := range records {
		t.Rows = append(t.Rows, []string{
			r.WorkDate, r.ContractorName, r.Reporter, formatFloat(r.Headcount), r.EmploymentCode,
			r.ProjectCode, r.SubareaCode, r.SubworkCode,
			formatFloat(r.InHours), formatFloat(r.OutHours), formatFloat(r.TotalHours), r.ContentHash,
		})
	}
	return t
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
