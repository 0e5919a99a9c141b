package aggregate

import (
	"fmt"
	"sort"

	"worktally/internal/model"
)

// 报表分组维度
const (
	DimDate       = "date"
	DimMonth      = "month"
	DimContractor = "contractor"
	DimProject    = "project"
	DimSubwork    = "subwork"
	DimCategory   = "category"
	DimEmployment = "employment"
	DimSubarea    = "subarea"
	DimReporter   = "reporter"
)

// 报表指标
const (
	MetricRegularHours  = "regularHours"
	MetricOvertimeHours = "overtimeHours"
	MetricTotalHours    = "totalHours"
	MetricHeadcount     = "headcount"
	MetricRecords       = "records"
)

var (
	defaultDimensions = []string{DimProject, DimSubwork}
	defaultMetrics    = []string{MetricRegularHours, MetricOvertimeHours, MetricTotalHours}
)

type dimensionFunc func(r *model.WorkRecord, taxonomy *model.Taxonomy) string

var dimensions = map[string]dimensionFunc{
	DimDate:       func(r *model.WorkRecord, _ *model.Taxonomy) string { return r.WorkDate },
	DimMonth:      func(r *model.WorkRecord, _ *model.Taxonomy) string { return monthOf(r.WorkDate) },
	DimContractor: func(r *model.WorkRecord, _ *model.Taxonomy) string { return r.ContractorName },
	DimProject:    func(r *model.WorkRecord, _ *model.Taxonomy) string { return r.ProjectCode },
	DimSubwork:    func(r *model.WorkRecord, _ *model.Taxonomy) string { return r.SubworkCode },
	DimCategory: func(r *model.WorkRecord, t *model.Taxonomy) string {
		return CategoryName(r.ProjectCode, r.SubworkCode, t)
	},
	DimEmployment: func(r *model.WorkRecord, _ *model.Taxonomy) string { return r.EmploymentCode },
	DimSubarea:    func(r *model.WorkRecord, _ *model.Taxonomy) string { return r.SubareaCode },
	DimReporter:   func(r *model.WorkRecord, _ *model.Taxonomy) string { return r.Reporter },
}

var metrics = map[string]func(r *model.WorkRecord) float64{
	MetricRegularHours:  func(r *model.WorkRecord) float64 { return r.InHours },
	MetricOvertimeHours: func(r *model.WorkRecord) float64 { return r.OutHours },
	MetricTotalHours:    func(r *model.WorkRecord) float64 { return r.TotalHours },
	MetricHeadcount:     func(r *model.WorkRecord) float64 { return r.Headcount },
	MetricRecords:       func(*model.WorkRecord) float64 { return 1 },
}

func monthOf(date string) string {
	if len(date) < 7 {
		return ""
	}
	return date[:7]
}

// Dimensions 支持的分组维度
func Dimensions() []string {
	return sortedKeys(dimensions)
}

// Metrics 支持的指标
func Metrics() []string {
	return sortedKeys(metrics)
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Pivot 按配置的维度分组并计算指标
//
// 先按配置中的条件筛选；未指定维度/指标时使用默认值。行按分组键升序排列，
// 分页不在此处处理。
func Pivot(records []model.WorkRecord, taxonomy *model.Taxonomy, cfg model.ReportConfig) (*model.PivotTable, error) {
	dims := cfg.GroupBy
	if len(dims) == 0 {
		dims = defaultDimensions
	}
	mets := cfg.Metrics
	if len(mets) == 0 {
		mets = defaultMetrics
	}

	dimFns := make([]dimensionFunc, len(dims))
	for i, d := range dims {
		fn, ok := dimensions[d]
		if !ok {
			return nil, fmt.Errorf("unknown dimension %q", d)
		}
		dimFns[i] = fn
	}
	metFns := make([]func(*model.WorkRecord) float64, len(mets))
	for i, m := range mets {
		fn, ok := metrics[m]
		if !ok {
			return nil, fmt.Errorf("unknown metric %q", m)
		}
		metFns[i] = fn
	}

	filtered := FilterFromConfig(cfg).Apply(records)

	index := make(map[string]*model.PivotRow)
	for i := range filtered {
		r := &filtered[i]
		keys := make([]string, len(dimFns))
		for j, fn := range dimFns {
			keys[j] = fn(r, taxonomy)
		}
		id := fmt.Sprintf("%q", keys)
		row, ok := index[id]
		if !ok {
			row = &model.PivotRow{Keys: keys, Values: make([]float64, len(metFns))}
			index[id] = row
		}
		for j, fn := range metFns {
			row.Values[j] += fn(r)
		}
	}

	rows := make([]model.PivotRow, 0, len(index))
	for _, row := range index {
		for j := range row.Values {
			row.Values[j] = round1(row.Values[j])
		}
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return lessKeys(rows[i].Keys, rows[j].Keys) })

	return &model.PivotTable{
		Dimensions: append([]string(nil), dims...),
		Metrics:    append([]string(nil), mets...),
		Rows:       rows,
		Total:      len(rows),
	}, nil
}

func lessKeys(a, b []string) bool {
	for i := range a {
		if i >= len(b) {
			return false
		}
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// Paginate 截取第 page 页（从 1 开始）；pageSize <= 0 时返回全部
func Paginate[T any](rows []T, page, pageSize int) []T {
	if pageSize <= 0 {
		return rows
	}
	if page < 1 {
		page = 1
	}
	// 先按页数比较，避免大页码相乘溢出
	if len(rows) == 0 || page-1 > (len(rows)-1)/pageSize {
		return []T{}
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}
