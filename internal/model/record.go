package model

import "time"

// Field 规范字段名
type Field string

const (
	FieldWorkDate       Field = "workDate"
	FieldContractorName Field = "contractorName"
	FieldReporter       Field = "reporter"
	FieldHeadcount      Field = "headcount"
	FieldEmploymentCode Field = "employmentCode"
	FieldProjectCode    Field = "projectCode"
	FieldSubareaCode    Field = "subareaCode"
	FieldSubworkCode    Field = "subworkCode"
	FieldInHours        Field = "inHours"
	FieldOutHours       Field = "outHours"
	FieldTotalHours     Field = "totalHours"
)

// CanonicalFields 规范字段声明顺序（表头匹配时按此顺序认领列）
var CanonicalFields = []Field{
	FieldWorkDate,
	FieldContractorName,
	FieldReporter,
	FieldHeadcount,
	FieldEmploymentCode,
	FieldProjectCode,
	FieldSubareaCode,
	FieldSubworkCode,
	FieldInHours,
	FieldOutHours,
	FieldTotalHours,
}

// WorkRecord 工时记录（一行上报数据）
type WorkRecord struct {
	ID             string    `json:"id"`
	WorkDate       string    `json:"workDate" validate:"required,datetime=2006-01-02"`
	ContractorID   string    `json:"contractorId"`
	ContractorName string    `json:"contractorName" validate:"required"`
	Reporter       string    `json:"reporter"`
	Headcount      float64   `json:"headcount" validate:"gte=0,maxheadcount"`
	EmploymentCode string    `json:"employmentCode"`
	ProjectID      string    `json:"projectId"`
	ProjectCode    string    `json:"projectCode" validate:"required"`
	SubareaCode    string    `json:"subareaCode"`
	SubworkCode    string    `json:"subworkCode" validate:"required"`
	InHours        float64   `json:"inHours" validate:"gte=0,maxhours"`
	OutHours       float64   `json:"outHours" validate:"gte=0,maxhours"`
	TotalHours     float64   `json:"totalHours" validate:"gte=0"`
	ContentHash    string    `json:"contentHash"`
	CreatedAt      time.Time `json:"createdAt"`

	// 来源信息
	SourceSheet string `json:"sourceSheet,omitempty"`
	RowNo       int    `json:"rowNo,omitempty"`
}

// WorkCodeDefinition 工种分类条目
type WorkCodeDefinition struct {
	SubworkCode string    `json:"subworkCode" yaml:"subwork_code"`
	SubworkName string    `json:"subworkName" yaml:"subwork_name"`
	MajorCode   string    `json:"majorCode" yaml:"major_code"`
	MajorName   string    `json:"majorName" yaml:"major_name"`
	Note        string    `json:"note,omitempty" yaml:"note,omitempty"`
	Version     int       `json:"version" yaml:"-"`
	UpdatedAt   time.Time `json:"updatedAt" yaml:"-"`
}

// UndefinedCodeStat 未在分类表中定义的工种代码统计
type UndefinedCodeStat struct {
	SubworkCode string `json:"subworkCode"`
	Count       int    `json:"count"`
	FirstSeen   string `json:"firstSeen"`
}

// MatchKind 列匹配方式
type MatchKind string

const (
	MatchExact      MatchKind = "exact"
	MatchContains   MatchKind = "contains"
	MatchFuzzy      MatchKind = "fuzzy"
	MatchPositional MatchKind = "positional"
)

// ColumnMatch 单个规范字段对应的原始列
type ColumnMatch struct {
	Header      string    `json:"header"`
	ColumnIndex int       `json:"columnIndex"`
	Kind        MatchKind `json:"kind"`
}

// ColumnMapping 规范字段 → 实际观察到的表头（每批次生成，不持久化）
type ColumnMapping map[Field]ColumnMatch

// Headers 返回 规范字段 → 原始表头 的简化视图
func (m ColumnMapping) Headers() map[Field]string {
	out := make(map[Field]string, len(m))
	for f, c := range m {
		out[f] = c.Header
	}
	return out
}
