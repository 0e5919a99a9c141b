package aggregate

import (
	"math"
	"reflect"
	"testing"

	"worktally/internal/model"
)

func TestFilter_DateRangeInclusive(t *testing.T) {
	t.Parallel()

	records := []model.WorkRecord{
		rec("2025-01-09", "P", "A", 1, 0),
		rec("2025-01-10", "P", "A", 1, 0),
		rec("2025-01-15", "P", "A", 1, 0),
		rec("2025-01-20", "P", "A", 1, 0),
		rec("2025-01-21", "P", "A", 1, 0),
		rec("", "P", "A", 1, 0),
	}
	got := Filter{From: "2025-01-10", To: "2025-01-20"}.Apply(records)
	if len(got) != 3 {
		t.Fatalf("len=%d, want 3", len(got))
	}
	if got[0].WorkDate != "2025-01-10" || got[2].WorkDate != "2025-01-20" {
		t.Fatalf("bounds not inclusive: %+v", got)
	}

	all := (Filter{}).Apply(records)
	if len(all) != len(records) {
		t.Fatalf("empty filter dropped records")
	}
	all[0].ProjectCode = "changed"
	if records[0].ProjectCode != "P" {
		t.Fatalf("Apply must not alias its input")
	}
	if !(Filter{}).IsZero() || (Filter{Employment: "E1"}).IsZero() {
		t.Fatalf("IsZero mismatch")
	}
}

func TestFilter_Substrings(t *testing.T) {
	t.Parallel()

	a := rec("2025-01-10", "S1001", "A", 1, 0)
	b := rec("2025-01-10", "T2002", "A", 1, 0)
	b.ContractorName = "鈴木工業"
	b.EmploymentCode = "E2"

	if got := (Filter{Project: "100"}).Apply([]model.WorkRecord{a, b}); len(got) != 1 || got[0].ProjectCode != "S1001" {
		t.Fatalf("project filter=%+v", got)
	}
	if got := (Filter{Contractor: "鈴木"}).Apply([]model.WorkRecord{a, b}); len(got) != 1 || got[0].ContractorName != "鈴木工業" {
		t.Fatalf("contractor filter=%+v", got)
	}
	if got := (Filter{Employment: "E"}).Apply([]model.WorkRecord{a, b}); len(got) != 0 {
		t.Fatalf("employment must match exactly: %+v", got)
	}
	if got := (Filter{Employment: "E2"}).Apply([]model.WorkRecord{a, b}); len(got) != 1 {
		t.Fatalf("employment filter=%+v", got)
	}
}

func TestPivot(t *testing.T) {
	t.Parallel()

	records := []model.WorkRecord{
		rec("2025-01-15", "S1001", "A01", 8, 1),
		rec("2025-02-01", "S1001", "A02", 4, 0),
		rec("2025-01-20", "S1001", "Z99", 2, 0),
		rec("2025-03-01", "S9999", "A01", 5, 0),
	}
	table, err := Pivot(records, sampleTaxonomy(), model.ReportConfig{
		GroupBy: []string{DimMonth, DimCategory},
		Metrics: []string{MetricTotalHours, MetricRecords},
		Project: "S1001",
	})
	if err != nil {
		t.Fatalf("Pivot: %v", err)
	}
	if table.Total != 3 {
		t.Fatalf("total=%d, rows=%+v", table.Total, table.Rows)
	}
	want := []model.PivotRow{
		{Keys: []string{"2025-01", "土工"}, Values: []float64{9, 1}},
		{Keys: []string{"2025-01", "未分類(S1001/Z99)"}, Values: []float64{2, 1}},
		{Keys: []string{"2025-02", "土工"}, Values: []float64{4, 1}},
	}
	if !reflect.DeepEqual(table.Rows, want) {
		t.Fatalf("rows=%+v, want %+v", table.Rows, want)
	}
}

func TestPivot_Defaults(t *testing.T) {
	t.Parallel()

	table, err := Pivot([]model.WorkRecord{rec("2025-01-15", "S1001", "A01", 8, 1)}, nil, model.ReportConfig{})
	if err != nil {
		t.Fatalf("Pivot: %v", err)
	}
	if !reflect.DeepEqual(table.Dimensions, []string{DimProject, DimSubwork}) || len(table.Metrics) != 3 {
		t.Fatalf("defaults dims=%v metrics=%v", table.Dimensions, table.Metrics)
	}
	if table.Rows[0].Values[2] != 9 {
		t.Fatalf("totalHours=%v", table.Rows[0].Values[2])
	}
}

func TestPivot_UnknownDimension(t *testing.T) {
	t.Parallel()

	if _, err := Pivot(nil, nil, model.ReportConfig{GroupBy: []string{"weather"}}); err == nil {
		t.Fatalf("expected error for unknown dimension")
	}
	if _, err := Pivot(nil, nil, model.ReportConfig{Metrics: []string{"cost"}}); err == nil {
		t.Fatalf("expected error for unknown metric")
	}
}

func TestPaginate(t *testing.T) {
	t.Parallel()

	rows := []int{1, 2, 3, 4, 5}
	if got := Paginate(rows, 2, 2); !reflect.DeepEqual(got, []int{3, 4}) {
		t.Fatalf("page 2=%v", got)
	}
	if got := Paginate(rows, 3, 2); !reflect.DeepEqual(got, []int{5}) {
		t.Fatalf("page 3=%v", got)
	}
	if got := Paginate(rows, 9, 2); len(got) != 0 {
		t.Fatalf("out of range=%v", got)
	}
	if got := Paginate(rows, 0, 0); len(got) != 5 {
		t.Fatalf("no paging=%v", got)
	}
	if got := Paginate(rows, math.MaxInt, 2); len(got) != 0 {
		t.Fatalf("max page=%v", got)
	}
	if got := Paginate([]int{1, 2, 3}, math.MaxInt-2, 2); len(got) != 0 {
		t.Fatalf("huge page=%v", got)
	}
	if got := Paginate(rows, 2, math.MaxInt); len(got) != 0 {
		t.Fatalf("huge page size=%v", got)
	}
	if got := Paginate([]int{}, 1, 10); len(got) != 0 {
		t.Fatalf("empty=%v", got)
	}
}
