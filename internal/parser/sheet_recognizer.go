package parser

import (
	"strings"

	"worktally/internal/model"
)

// DefaultScanRows 查找表头时默认扫描的行数
const DefaultScanRows = 10

// 工时表的关键字段：命中越多越可能是明细表
var timesheetKeyFields = []model.Field{
	model.FieldWorkDate,
	model.FieldContractorName,
	model.FieldProjectCode,
	model.FieldSubworkCode,
	model.FieldInHours,
}

// SheetRecognizer Sheet 类型识别器
type SheetRecognizer struct {
	timesheet *HeaderMatcher
	taxonomy  *HeaderMatcher
	scanRows  int
}

// NewSheetRecognizer 创建识别器；scanRows <= 0 时使用默认值
func NewSheetRecognizer(matcher *HeaderMatcher, scanRows int) *SheetRecognizer {
	if matcher == nil {
		matcher = NewHeaderMatcher()
	}
	if scanRows <= 0 {
		scanRows = DefaultScanRows
	}
	return &SheetRecognizer{
		timesheet: matcher,
		taxonomy:  NewTaxonomyMatcher(),
		scanRows:  scanRows,
	}
}

// Recognize 识别 Sheet 类型并定位表头行
func (r *SheetRecognizer) Recognize(sheet *Sheet) SheetRecognitionResult {
	best := SheetRecognitionResult{
		SheetName: sheet.Name,
		SheetType: SheetTypeUnknown,
	}

	limit := r.scanRows
	if limit > len(sheet.Rows) {
		limit = len(sheet.Rows)
	}

	for i := 0; i < limit; i++ {
		headers := RowStrings(sheet.Rows[i])

		if conf := r.timesheetConfidence(sheet.Name, headers); conf > best.Confidence {
			best.SheetType = SheetTypeTimesheet
			best.Confidence = conf
			best.HeaderRow = i
		}
		if conf := r.taxonomyConfidence(sheet.Name, headers); conf > best.Confidence {
			best.SheetType = SheetTypeTaxonomy
			best.Confidence = conf
			best.HeaderRow = i
		}
	}

	if best.Confidence < 0.5 {
		best.SheetType = SheetTypeUnknown
	}
	return best
}

// FindTaxonomyHeaderRow 在分类表中扫描包含可识别表头的行；找不到时返回 -1
func (r *SheetRecognizer) FindTaxonomyHeaderRow(sheet *Sheet) int {
	bestRow, bestScore := -1, 0
	for i := 0; i < len(sheet.Rows) && i < r.scanRows; i++ {
		mapping := r.taxonomy.Match(RowStrings(sheet.Rows[i]))
		if _, ok := mapping[taxSubworkCode]; !ok {
			continue
		}
		if len(mapping) > bestScore {
			bestRow, bestScore = i, len(mapping)
		}
	}
	return bestRow
}

func (r *SheetRecognizer) timesheetConfidence(sheetName string, headers []string) float64 {
	mapping := r.timesheet.Match(headers)
	hit := 0
	for _, f := range timesheetKeyFields {
		if _, ok := mapping[f]; ok {
			hit++
		}
	}
	confidence := float64(hit) / float64(len(timesheetKeyFields))
	if confidence == 0 {
		return 0
	}

	// Sheet 名称辅助判定
	name := NormalizeColumnName(sheetName)
	if ContainsAny(name, []string{"日報", "工数", "作業", "timesheet", "report", "data"}) {
		confidence += 0.1
	}
	return confidence
}

func (r *SheetRecognizer) taxonomyConfidence(sheetName string, headers []string) float64 {
	mapping := r.taxonomy.Match(headers)
	if _, ok := mapping[taxSubworkCode]; !ok {
		return 0
	}
	hit := 0
	for _, f := range []model.Field{taxMajorCode, taxMajorName, taxSubworkCode, taxSubworkName} {
		if _, ok := mapping[f]; ok {
			hit++
		}
	}
	confidence := float64(hit) / 4

	name := strings.ToLower(sheetName)
	if ContainsAny(name, []string{"工種", "分類", "コード", "マスタ", "taxonomy", "code"}) {
		confidence += 0.2
	}
	return confidence
}
