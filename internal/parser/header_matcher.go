package parser

import (
	"strings"

	"worktally/internal/model"
)

// defaultSynonyms 各规范字段的候选表头（按优先级排列）
var defaultSynonyms = map[model.Field][]string{
	model.FieldWorkDate: {
		"日付", "作業日", "年月日", "実施日", "日付(YYYYMMDD)",
		"work_date", "workdate", "date",
	},
	model.FieldContractorName: {
		"業者名", "業者", "協力会社名", "協力会社", "会社名",
		"contractor_name", "contractor", "vendor",
	},
	model.FieldReporter: {
		"報告者", "記入者", "入力者", "担当者",
		"reporter", "reported_by",
	},
	model.FieldHeadcount: {
		"人数", "人員", "人工",
		"headcount", "workers",
	},
	model.FieldEmploymentCode: {
		"雇用区分", "雇用形態", "雇用コード",
		"employment_code", "employment",
	},
	model.FieldProjectCode: {
		"工事番号", "工番", "工事コード", "工事No",
		"project_code", "project", "job_no",
	},
	model.FieldSubareaCode: {
		"工区", "エリア", "区域",
		"subarea_code", "subarea", "area",
	},
	model.FieldSubworkCode: {
		"工種コード", "細目コード", "作業コード", "工種", "細目",
		"subwork_code", "subwork", "work_code",
	},
	model.FieldInHours: {
		"規内", "規内時間", "規内(numeric)", "定時内", "定時",
		"in_hours", "regular_hours", "regular",
	},
	model.FieldOutHours: {
		"規外", "規外時間", "規外(numeric)", "残業", "時間外",
		"out_hours", "overtime_hours", "overtime",
	},
	model.FieldTotalHours: {
		"合計時間", "合計", "総時間",
		"total_hours", "total",
	},
}

// 分类表字段
const (
	taxMajorCode   model.Field = "majorCode"
	taxMajorName   model.Field = "majorName"
	taxSubworkCode model.Field = "subworkCode"
	taxSubworkName model.Field = "subworkName"
	taxNote        model.Field = "note"
)

var taxonomyFields = []model.Field{taxMajorCode, taxMajorName, taxSubworkCode, taxSubworkName, taxNote}

var taxonomySynonyms = map[model.Field][]string{
	taxMajorCode:   {"大分類コード", "大工種コード", "大分類CD", "major_code"},
	taxMajorName:   {"大分類名", "大工種名", "大分類", "major_name"},
	taxSubworkCode: {"工種コード", "細目コード", "小分類コード", "subwork_code", "sub_code"},
	taxSubworkName: {"工種名", "細目名", "小分類名", "subwork_name", "sub_name"},
	taxNote:        {"備考", "注記", "note", "remarks"},
}

// HeaderMatcher 表头匹配器：原始表头 → 规范字段
type HeaderMatcher struct {
	fields   []model.Field
	synonyms map[model.Field][]string // 已规范化
}

// NewHeaderMatcher 使用内置同义词表创建工时表匹配器
func NewHeaderMatcher() *HeaderMatcher {
	return newHeaderMatcher(model.CanonicalFields, defaultSynonyms)
}

// NewTaxonomyMatcher 创建工种分类表的表头匹配器
func NewTaxonomyMatcher() *HeaderMatcher {
	return newHeaderMatcher(taxonomyFields, taxonomySynonyms)
}

func newHeaderMatcher(fields []model.Field, synonyms map[model.Field][]string) *HeaderMatcher {
	m := &HeaderMatcher{
		fields:   fields,
		synonyms: make(map[model.Field][]string, len(synonyms)),
	}
	for f, cands := range synonyms {
		m.synonyms[f] = normalizeCandidates(cands)
	}
	return m
}

// WithSynonyms 追加同义词；追加的候选排在内置候选之前
func (m *HeaderMatcher) WithSynonyms(extra map[model.Field][]string) *HeaderMatcher {
	for f, cands := range extra {
		m.synonyms[f] = append(normalizeCandidates(cands), m.synonyms[f]...)
	}
	return m
}

func normalizeCandidates(cands []string) []string {
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		if n := NormalizeColumnName(c); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Match 按字段声明顺序为每个规范字段认领一列。
// 每个候选依次尝试：完全匹配 → 双向包含 → 逐字符子序列；一列只能被第一个匹配的字段认领。
func (m *HeaderMatcher) Match(headers []string) model.ColumnMapping {
	mapping := make(model.ColumnMapping)
	if len(headers) == 0 {
		return mapping
	}

	normalized := NormalizeHeaders(headers)
	claimed := make([]bool, len(headers))

	for _, field := range m.fields {
		for _, cand := range m.synonyms[field] {
			idx, kind := findHeader(cand, normalized, claimed)
			if idx < 0 {
				continue
			}
			claimed[idx] = true
			mapping[field] = model.ColumnMatch{
				Header:      headers[idx],
				ColumnIndex: idx,
				Kind:        kind,
			}
			break
		}
	}

	return mapping
}

func findHeader(cand string, headers []string, claimed []bool) (int, model.MatchKind) {
	for i, h := range headers {
		if h != "" && !claimed[i] && h == cand {
			return i, model.MatchExact
		}
	}
	for i, h := range headers {
		if h != "" && !claimed[i] && (strings.Contains(h, cand) || strings.Contains(cand, h)) {
			return i, model.MatchContains
		}
	}
	for i, h := range headers {
		if h != "" && !claimed[i] && isSubsequence(cand, h) {
			return i, model.MatchFuzzy
		}
	}
	return -1, ""
}
