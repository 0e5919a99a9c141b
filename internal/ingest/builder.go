package ingest

import (
	"math"
	"time"

	"github.com/google/uuid"

	"worktally/internal/model"
	"worktally/internal/parser"
)

const (
	contractorNamespace = "contractor:"
	projectNamespace    = "project:"
)

// RecordBuilder 把映射后的行转换为规范工时记录
type RecordBuilder struct {
	now   func() time.Time
	newID func() string
}

// NewRecordBuilder 创建记录构造器；now 为空时使用 time.Now
func NewRecordBuilder(now func() time.Time) *RecordBuilder {
	if now == nil {
		now = time.Now
	}
	return &RecordBuilder{
		now:   now,
		newID: func() string { return uuid.NewString() },
	}
}

// Build 从表头行之后的每一个非空行构造记录
func (b *RecordBuilder) Build(sheet *parser.Sheet, headerRow int, mapping model.ColumnMapping) []model.WorkRecord {
	if sheet == nil || headerRow+1 >= len(sheet.Rows) {
		return nil
	}

	createdAt := b.now()
	records := make([]model.WorkRecord, 0, len(sheet.Rows)-headerRow-1)
	for i := headerRow + 1; i < len(sheet.Rows); i++ {
		row := sheet.Rows[i]
		if parser.IsEmptyRow(row) {
			continue
		}
		rec := b.BuildRow(row, mapping, createdAt)
		rec.SourceSheet = sheet.Name
		rec.RowNo = i + 1
		records = append(records, rec)
	}
	return records
}

// BuildRow 构造单条记录
func (b *RecordBuilder) BuildRow(row []any, mapping model.ColumnMapping, createdAt time.Time) model.WorkRecord {
	cell := func(f model.Field) any {
		m, ok := mapping[f]
		if !ok || m.ColumnIndex < 0 || m.ColumnIndex >= len(row) {
			return nil
		}
		return row[m.ColumnIndex]
	}

	rec := model.WorkRecord{
		ID:             b.newID(),
		WorkDate:       parser.CoerceDate(cell(model.FieldWorkDate)),
		ContractorName: parser.CoerceString(cell(model.FieldContractorName)),
		Reporter:       parser.CoerceString(cell(model.FieldReporter)),
		Headcount:      parser.CoerceNumber(cell(model.FieldHeadcount)),
		EmploymentCode: parser.CoerceString(cell(model.FieldEmploymentCode)),
		ProjectCode:    parser.CoerceString(cell(model.FieldProjectCode)),
		SubareaCode:    parser.CoerceString(cell(model.FieldSubareaCode)),
		SubworkCode:    parser.CoerceString(cell(model.FieldSubworkCode)),
		InHours:        parser.CoerceNumber(cell(model.FieldInHours)),
		OutHours:       parser.CoerceNumber(cell(model.FieldOutHours)),
		CreatedAt:      createdAt,
	}
	rec.ContractorID = contractorNamespace + rec.ContractorName
	rec.ProjectID = projectNamespace + rec.ProjectCode

	// 源表给出合计列且非零时直接采用
	rec.TotalHours = math.Max(0, rec.InHours+rec.OutHours)
	if _, ok := mapping[model.FieldTotalHours]; ok {
		if sourced := parser.CoerceNumber(cell(model.FieldTotalHours)); sourced > 0 {
			rec.TotalHours = sourced
		}
	}

	rec.ContentHash = ContentHash(&rec)
	return rec
}
