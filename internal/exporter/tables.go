package exporter

import (
	"fmt"

	"worktally/internal/aggregate"
	"worktally/internal/model"
)

// Kind 导出内容类型
type Kind string

const (
	KindPivot   Kind = "pivot"   // 按维度分组的报表
	KindRows    Kind = "rows"    // 工事番号 × 工种 明细
	KindRecords Kind = "records" // 原始记录
)

// BuildTable 按类型生成导出表；记录先按报表配置中的条件筛选
func BuildTable(kind Kind, records []model.WorkRecord, taxonomy *model.Taxonomy, cfg model.ReportConfig) (Table, error) {
	switch kind {
	case "", KindPivot:
		p, err := aggregate.Pivot(records, taxonomy, cfg)
		if err != nil {
			return Table{}, err
		}
		return PivotTable(p), nil
	case KindRows:
		filtered := aggregate.FilterFromConfig(cfg).Apply(records)
		return ReportRowsTable(aggregate.ReportRows(filtered, taxonomy)), nil
	case KindRecords:
		return RecordsTable(aggregate.FilterFromConfig(cfg).Apply(records)), nil
	default:
		return Table{}, fmt.Errorf("unknown export kind %q", kind)
	}
}
