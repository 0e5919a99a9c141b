package model

// HoursBucket 聚合桶：某一分组键下累计的工时
type HoursBucket struct {
	Key           string  `json:"key"`
	RegularHours  float64 `json:"regularHours"`
	OvertimeHours float64 `json:"overtimeHours"`
	TotalHours    float64 `json:"totalHours"`
}

// Add 累加一条记录
func (b *HoursBucket) Add(r *WorkRecord) {
	b.RegularHours += r.InHours
	b.OvertimeHours += r.OutHours
	b.TotalHours += r.TotalHours
}

// CategorySummary 按分类汇总的一行
type CategorySummary struct {
	Name          string  `json:"name"`
	RegularHours  float64 `json:"regularHours"`
	OvertimeHours float64 `json:"overtimeHours"`
	TotalHours    float64 `json:"totalHours"`
}

// RatioSlice 规内/规外占比（饼图）
type RatioSlice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// DailySummary 按日期汇总的一行
type DailySummary struct {
	Date          string  `json:"date"`
	RegularHours  float64 `json:"regularHours"`
	OvertimeHours float64 `json:"overtimeHours"`
	TotalHours    float64 `json:"totalHours"`
}

// Totals 合计
type Totals struct {
	RegularHours  float64 `json:"regularHours"`
	OvertimeHours float64 `json:"overtimeHours"`
	TotalHours    float64 `json:"totalHours"`
	OvertimeRatio float64 `json:"overtimeRatio"` // 百分比，保留一位小数
	RecordCount   int     `json:"recordCount"`
}

// ReportRow 工事番号 × 工种 明细行
type ReportRow struct {
	ProjectCode      string  `json:"projectCode"`
	SubworkCode      string  `json:"subworkCode"`
	MajorName        string  `json:"majorName"`
	SubworkName      string  `json:"subworkName"`
	RegularHours     float64 `json:"regularHours"`
	OvertimeHours    float64 `json:"overtimeHours"`
	TotalHours       float64 `json:"totalHours"`
	OvertimeFraction float64 `json:"overtimeFraction"` // 比例（非百分比），保留三位小数
}

// ReportConfig 报表筛选/分组配置（分页由展示层消费）
type ReportConfig struct {
	GroupBy    []string `json:"groupBy"`
	Metrics    []string `json:"metrics"`
	From       string   `json:"from,omitempty"`
	To         string   `json:"to,omitempty"`
	Contractor string   `json:"contractor,omitempty"`
	Project    string   `json:"project,omitempty"`
	Employment string   `json:"employment,omitempty"`
	Page       int      `json:"page"`
	PageSize   int      `json:"pageSize"`
}

// PivotTable 通用分组结果
type PivotTable struct {
	Dimensions []string   `json:"dimensions"`
	Metrics    []string   `json:"metrics"`
	Rows       []PivotRow `json:"rows"`
	Total      int        `json:"total"`
}

// PivotRow 分组结果中的一行
type PivotRow struct {
	Keys   []string  `json:"keys"`
	Values []float64 `json:"values"`
}
