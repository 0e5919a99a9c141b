package parser

import (
	"testing"

	"worktally/internal/model"
)

func TestHeaderMatcher_LocalizedHeaders(t *testing.T) {
	t.Parallel()

	headers := []string{"日付(YYYYMMDD)", "業者名", "工事番号(Sxxxx)"}
	mapping := NewHeaderMatcher().Match(headers)

	want := map[model.Field]string{
		model.FieldWorkDate:       "日付(YYYYMMDD)",
		model.FieldContractorName: "業者名",
		model.FieldProjectCode:    "工事番号(Sxxxx)",
	}
	for f, header := range want {
		got, ok := mapping[f]
		if !ok {
			t.Fatalf("field %s not matched, mapping=%v", f, mapping)
		}
		if got.Header != header {
			t.Fatalf("field %s header=%q, want %q", f, got.Header, header)
		}
	}
	if len(mapping) != len(want) {
		t.Fatalf("unexpected extra matches: %v", mapping)
	}
}

func TestHeaderMatcher_EmptyHeaders(t *testing.T) {
	t.Parallel()

	m := NewHeaderMatcher()
	if got := m.Match(nil); len(got) != 0 {
		t.Fatalf("nil headers mapping=%v", got)
	}
	if got := m.Match([]string{"", "  "}); len(got) != 0 {
		t.Fatalf("blank headers mapping=%v", got)
	}
}

func TestHeaderMatcher_MatchKinds(t *testing.T) {
	t.Parallel()

	headers := []string{"ＩＮ＿ＨＯＵＲＳ", "規外時間(h)", "工種CD"}
	mapping := NewHeaderMatcher().Match(headers)

	if c := mapping[model.FieldInHours]; c.ColumnIndex != 0 || c.Kind != model.MatchExact {
		t.Fatalf("inHours=%+v, want exact on column 0", c)
	}
	if c := mapping[model.FieldOutHours]; c.ColumnIndex != 1 || c.Kind != model.MatchContains {
		t.Fatalf("outHours=%+v, want contains on column 1", c)
	}
	if c := mapping[model.FieldSubworkCode]; c.ColumnIndex != 2 || c.Kind != model.MatchContains {
		t.Fatalf("subworkCode=%+v, want contains on column 2", c)
	}
}

func TestHeaderMatcher_FuzzyFallback(t *testing.T) {
	t.Parallel()

	mapping := NewHeaderMatcher().Match([]string{"報告した者"})
	c, ok := mapping[model.FieldReporter]
	if !ok || c.Kind != model.MatchFuzzy {
		t.Fatalf("reporter=%+v ok=%v, want fuzzy match", c, ok)
	}
}

func TestHeaderMatcher_FirstDeclaredFieldClaimsHeader(t *testing.T) {
	t.Parallel()

	// "時間" 同时包含于 inHours/outHours/totalHours 的候选中，由先声明的 inHours 认领
	mapping := NewHeaderMatcher().Match([]string{"時間"})
	if _, ok := mapping[model.FieldInHours]; !ok {
		t.Fatalf("inHours not matched: %v", mapping)
	}
	if len(mapping) != 1 {
		t.Fatalf("header claimed more than once: %v", mapping)
	}
}

func TestHeaderMatcher_WithSynonyms(t *testing.T) {
	t.Parallel()

	m := NewHeaderMatcher().WithSynonyms(map[model.Field][]string{
		model.FieldProjectCode: {"現場コード"},
	})
	mapping := m.Match([]string{"現場コード"})
	if c := mapping[model.FieldProjectCode]; c.Header != "現場コード" {
		t.Fatalf("projectCode=%+v", c)
	}
}

func TestTemplate_Map(t *testing.T) {
	t.Parallel()

	tpl := StandardTemplate()
	if err := tpl.Validate(); err != nil {
		t.Fatalf("standard template invalid: %v", err)
	}

	mapping := tpl.Map([]string{"A", "B"})
	if c := mapping[model.FieldContractorName]; c.ColumnIndex != 1 || c.Header != "B" || c.Kind != model.MatchPositional {
		t.Fatalf("contractorName=%+v", c)
	}
	if c := mapping[model.FieldTotalHours]; c.ColumnIndex != 10 || c.Header != "" {
		t.Fatalf("totalHours=%+v", c)
	}
}

func TestTemplate_ValidateDuplicateColumn(t *testing.T) {
	t.Parallel()

	tpl := &Template{Name: "bad", Columns: map[model.Field]int{
		model.FieldWorkDate:    0,
		model.FieldProjectCode: 0,
	}}
	if err := tpl.Validate(); err == nil {
		t.Fatalf("expected duplicate column error")
	}
}
