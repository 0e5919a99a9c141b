package parser

import (
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"worktally/internal/model"
)

// ErrTaxonomyHeaderNotFound 分类表中找不到可识别的表头行
var ErrTaxonomyHeaderNotFound = errors.New("taxonomy header row not found")

// TaxonomyParser 工种分类表解析器
type TaxonomyParser struct {
	recognizer *SheetRecognizer
	matcher    *HeaderMatcher
}

// NewTaxonomyParser 创建分类表解析器
func NewTaxonomyParser(recognizer *SheetRecognizer) *TaxonomyParser {
	if recognizer == nil {
		recognizer = NewSheetRecognizer(nil, 0)
	}
	return &TaxonomyParser{
		recognizer: recognizer,
		matcher:    NewTaxonomyMatcher(),
	}
}

// ParseSheet 解析分类表：扫描表头行，其后每个非空行生成一个条目
func (p *TaxonomyParser) ParseSheet(sheet *Sheet, updatedAt time.Time) ([]model.WorkCodeDefinition, error) {
	headerRow := p.recognizer.FindTaxonomyHeaderRow(sheet)
	if headerRow < 0 {
		return nil, fmt.Errorf("sheet %q: %w", sheet.Name, ErrTaxonomyHeaderNotFound)
	}

	mapping := p.matcher.Match(RowStrings(sheet.Rows[headerRow]))
	cell := func(row []any, f model.Field) string {
		c, ok := mapping[f]
		if !ok || c.ColumnIndex >= len(row) {
			return ""
		}
		return CoerceString(row[c.ColumnIndex])
	}

	out := make([]model.WorkCodeDefinition, 0, len(sheet.Rows)-headerRow-1)
	for _, row := range sheet.Rows[headerRow+1:] {
		if IsEmptyRow(row) {
			continue
		}
		code := cell(row, taxSubworkCode)
		if code == "" {
			continue // 分组标题行等
		}
		out = append(out, model.WorkCodeDefinition{
			SubworkCode: code,
			SubworkName: cell(row, taxSubworkName),
			MajorCode:   cell(row, taxMajorCode),
			MajorName:   cell(row, taxMajorName),
			Note:        cell(row, taxNote),
			UpdatedAt:   updatedAt,
		})
	}
	return out, nil
}

// taxonomyFile YAML 种子文件结构
type taxonomyFile struct {
	Codes []model.WorkCodeDefinition `yaml:"codes"`
}

// LoadTaxonomyYAML 从 YAML 种子文件读取分类条目
func LoadTaxonomyYAML(r io.Reader, updatedAt time.Time) ([]model.WorkCodeDefinition, error) {
	var f taxonomyFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return []model.WorkCodeDefinition{}, nil
		}
		return nil, fmt.Errorf("failed to decode taxonomy yaml: %w", err)
	}
	out := make([]model.WorkCodeDefinition, 0, len(f.Codes))
	for _, c := range f.Codes {
		c.SubworkCode = CoerceString(c.SubworkCode)
		if c.SubworkCode == "" {
			continue
		}
		c.UpdatedAt = updatedAt
		out = append(out, c)
	}
	return out, nil
}
