package aggregate

import (
	"strings"

	"worktally/internal/model"
)

// Filter 聚合前的记录筛选条件；空字段表示不限制
type Filter struct {
	From       string `json:"from,omitempty" form:"from"`
	To         string `json:"to,omitempty" form:"to"`
	Project    string `json:"project,omitempty" form:"project"`
	Contractor string `json:"contractor,omitempty" form:"contractor"`
	Employment string `json:"employment,omitempty" form:"employment"`
}

// FilterFromConfig 从报表配置提取筛选条件
func FilterFromConfig(cfg model.ReportConfig) Filter {
	return Filter{
		From:       cfg.From,
		To:         cfg.To,
		Project:    cfg.Project,
		Contractor: cfg.Contractor,
		Employment: cfg.Employment,
	}
}

// IsZero 是否未设置任何条件
func (f Filter) IsZero() bool {
	return f == Filter{}
}

// Match 单条记录是否满足条件
//
// 日期区间为闭区间，按规范化后的 YYYY-MM-DD 字符串比较；设置了区间时无日期的记录被排除。
func (f Filter) Match(r *model.WorkRecord) bool {
	if f.Project != "" && !strings.Contains(r.ProjectCode, f.Project) {
		return false
	}
	if f.Contractor != "" && !strings.Contains(r.ContractorName, f.Contractor) {
		return false
	}
	if f.Employment != "" && r.EmploymentCode != f.Employment {
		return false
	}
	if f.From != "" && (r.WorkDate == "" || r.WorkDate < f.From) {
		return false
	}
	if f.To != "" && (r.WorkDate == "" || r.WorkDate > f.To) {
		return false
	}
	return true
}

// Apply 返回满足条件的记录（新切片，不修改输入）
func (f Filter) Apply(records []model.WorkRecord) []model.WorkRecord {
	if f.IsZero() {
		out := make([]model.WorkRecord, len(records))
		copy(out, records)
		return out
	}
	out := make([]model.WorkRecord, 0, len(records))
	for i := range records {
		if f.Match(&records[i]) {
			out = append(out, records[i])
		}
	}
	return out
}
