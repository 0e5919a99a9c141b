package parser

import (
	"fmt"

	"worktally/internal/model"
)

// Template 固定列序的导出模板：跳过同义词搜索，直接按列位置映射
type Template struct {
	Name      string
	HeaderRow int                 // 表头所在行（0 起）
	Columns   map[model.Field]int // 规范字段 → 列索引（0 起）
}

// StandardTemplate 标准日报导出模板
func StandardTemplate() *Template {
	return &Template{
		Name:      "standard",
		HeaderRow: 0,
		Columns: map[model.Field]int{
			model.FieldWorkDate:       0,
			model.FieldContractorName: 1,
			model.FieldReporter:       2,
			model.FieldHeadcount:      3,
			model.FieldEmploymentCode: 4,
			model.FieldProjectCode:    5,
			model.FieldSubareaCode:    6,
			model.FieldSubworkCode:    7,
			model.FieldInHours:        8,
			model.FieldOutHours:       9,
			model.FieldTotalHours:     10,
		},
	}
}

// Validate 检查模板声明是否合法
func (t *Template) Validate() error {
	if t.HeaderRow < 0 {
		return fmt.Errorf("template %q: header row must be >= 0", t.Name)
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("template %q: no columns declared", t.Name)
	}
	seen := make(map[int]model.Field, len(t.Columns))
	for f, idx := range t.Columns {
		if idx < 0 {
			return fmt.Errorf("template %q: field %s has negative column", t.Name, f)
		}
		if other, ok := seen[idx]; ok {
			return fmt.Errorf("template %q: column %d declared for both %s and %s", t.Name, idx, other, f)
		}
		seen[idx] = f
	}
	return nil
}

// Map 按列位置生成映射；表头行中缺失的列使用空表头
func (t *Template) Map(headers []string) model.ColumnMapping {
	mapping := make(model.ColumnMapping, len(t.Columns))
	for f, idx := range t.Columns {
		header := ""
		if idx < len(headers) {
			header = headers[idx]
		}
		mapping[f] = model.ColumnMatch{
			Header:      header,
			ColumnIndex: idx,
			Kind:        model.MatchPositional,
		}
	}
	return mapping
}
