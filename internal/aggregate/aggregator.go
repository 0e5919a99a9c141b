package aggregate

import (
	"fmt"
	"sort"

	"worktally/internal/model"
)

// 占比图的固定标签与颜色
const (
	LabelRegular  = "regular"
	LabelOvertime = "overtime"

	ColorRegular  = "#4e79a7"
	ColorOvertime = "#e15759"
)

// groupKey 工事番号 + 工种代码
type groupKey struct {
	project string
	subwork string
}

type group struct {
	key    groupKey
	bucket model.HoursBucket
}

// groupByProjectSubwork 按 (工事番号, 工种代码) 分组，保持首次出现顺序
func groupByProjectSubwork(records []model.WorkRecord) []*group {
	index := make(map[groupKey]*group)
	var order []*group
	for i := range records {
		r := &records[i]
		k := groupKey{project: r.ProjectCode, subwork: r.SubworkCode}
		g, ok := index[k]
		if !ok {
			g = &group{key: k}
			index[k] = g
			order = append(order, g)
		}
		g.bucket.Add(r)
	}
	return order
}

// CategoryName 分组显示名：大分类名 → 工种名 → 由工事番号与工种代码合成
func CategoryName(projectCode, subworkCode string, taxonomy *model.Taxonomy) string {
	if def, ok := taxonomy.Lookup(subworkCode); ok {
		if def.MajorName != "" {
			return def.MajorName
		}
		if def.SubworkName != "" {
			return def.SubworkName
		}
	}
	return fallbackName(projectCode, subworkCode)
}

func fallbackName(projectCode, subworkCode string) string {
	return fmt.Sprintf("未分類(%s/%s)", projectCode, subworkCode)
}

// ByCategory 按分类显示名汇总；显示名相同的分组合并，按合计降序
func ByCategory(records []model.WorkRecord, taxonomy *model.Taxonomy) []model.CategorySummary {
	index := make(map[string]*model.CategorySummary)
	var order []string
	for _, g := range groupByProjectSubwork(records) {
		name := CategoryName(g.key.project, g.key.subwork, taxonomy)
		s, ok := index[name]
		if !ok {
			s = &model.CategorySummary{Name: name}
			index[name] = s
			order = append(order, name)
		}
		s.RegularHours += g.bucket.RegularHours
		s.OvertimeHours += g.bucket.OvertimeHours
		s.TotalHours += g.bucket.TotalHours
	}

	out := make([]model.CategorySummary, 0, len(order))
	for _, name := range order {
		s := index[name]
		out = append(out, model.CategorySummary{
			Name:          s.Name,
			RegularHours:  round1(s.RegularHours),
			OvertimeHours: round1(s.OvertimeHours),
			TotalHours:    round1(s.TotalHours),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalHours > out[j].TotalHours })
	return out
}

// ByRatio 规内/规外两项合计（固定两项，顺序固定）
func ByRatio(records []model.WorkRecord) []model.RatioSlice {
	var regular, overtime float64
	for i := range records {
		regular += records[i].InHours
		overtime += records[i].OutHours
	}
	return []model.RatioSlice{
		{Name: LabelRegular, Value: round1(regular), Color: ColorRegular},
		{Name: LabelOvertime, Value: round1(overtime), Color: ColorOvertime},
	}
}

// ByDate 按日期汇总，日期升序；无日期的记录不参与
func ByDate(records []model.WorkRecord) []model.DailySummary {
	index := make(map[string]*model.HoursBucket)
	for i := range records {
		r := &records[i]
		if r.WorkDate == "" {
			continue
		}
		b, ok := index[r.WorkDate]
		if !ok {
			b = &model.HoursBucket{Key: r.WorkDate}
			index[r.WorkDate] = b
		}
		b.Add(r)
	}

	out := make([]model.DailySummary, 0, len(index))
	for date, b := range index {
		out = append(out, model.DailySummary{
			Date:          date,
			RegularHours:  round1(b.RegularHours),
			OvertimeHours: round1(b.OvertimeHours),
			TotalHours:    round1(b.TotalHours),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// ComputeTotals 合计与规外占比
//
// TotalHours 为规内与规外之和；合计为 0 时占比为 0。
func ComputeTotals(records []model.WorkRecord) model.Totals {
	var regular, overtime float64
	for i := range records {
		regular += records[i].InHours
		overtime += records[i].OutHours
	}
	total := regular + overtime

	t := model.Totals{
		RegularHours:  round1(regular),
		OvertimeHours: round1(overtime),
		TotalHours:    round1(total),
		RecordCount:   len(records),
	}
	if total > 0 {
		t.OvertimeRatio = round1(100 * overtime / total)
	}
	return t
}

// ReportRows 工事番号 × 工种明细，带两级分类名与规外比例，按合计降序
func ReportRows(records []model.WorkRecord, taxonomy *model.Taxonomy) []model.ReportRow {
	groups := groupByProjectSubwork(records)
	out := make([]model.ReportRow, 0, len(groups))
	for _, g := range groups {
		row := model.ReportRow{
			ProjectCode:   g.key.project,
			SubworkCode:   g.key.subwork,
			RegularHours:  round1(g.bucket.RegularHours),
			OvertimeHours: round1(g.bucket.OvertimeHours),
			TotalHours:    round1(g.bucket.TotalHours),
		}
		if def, ok := taxonomy.Lookup(g.key.subwork); ok {
			row.MajorName = def.MajorName
			row.SubworkName = def.SubworkName
		} else {
			row.MajorName = fallbackName(g.key.project, g.key.subwork)
		}
		if g.bucket.TotalHours > 0 {
			row.OvertimeFraction = round3(g.bucket.OvertimeHours / g.bucket.TotalHours)
		}
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalHours > out[j].TotalHours })
	return out
}
