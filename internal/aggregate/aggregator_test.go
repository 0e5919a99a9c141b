package aggregate

import (
	"testing"

	"worktally/internal/model"
)

func sampleTaxonomy() *model.Taxonomy {
	return model.NewTaxonomy([]model.WorkCodeDefinition{
		{SubworkCode: "A01", SubworkName: "掘削", MajorCode: "10", MajorName: "土工"},
		{SubworkCode: "A02", SubworkName: "埋戻し", MajorCode: "10", MajorName: "土工"},
		{SubworkCode: "C01", SubworkName: "鉄筋"},
	})
}

func rec(date, project, subwork string, in, out float64) model.WorkRecord {
	return model.WorkRecord{
		WorkDate:       date,
		ContractorName: "山田建設",
		ProjectCode:    project,
		SubworkCode:    subwork,
		InHours:        in,
		OutHours:       out,
		TotalHours:     in + out,
	}
}

func TestByCategory_MergesSharedName(t *testing.T) {
	t.Parallel()

	records := []model.WorkRecord{
		rec("2025-01-15", "S1001", "A01", 8.0, 1.5),
		rec("2025-01-16", "S1002", "A02", 7.5, 0.5),
	}
	got := ByCategory(records, sampleTaxonomy())
	if len(got) != 1 {
		t.Fatalf("len=%d, want 1: %+v", len(got), got)
	}
	s := got[0]
	if s.Name != "土工" || s.RegularHours != 15.5 || s.OvertimeHours != 2.0 || s.TotalHours != 17.5 {
		t.Fatalf("summary=%+v", s)
	}
}

func TestByCategory_NameFallback(t *testing.T) {
	t.Parallel()

	records := []model.WorkRecord{
		rec("2025-01-15", "S1001", "C01", 4, 0),
		rec("2025-01-15", "S1001", "Z99", 2, 0),
		rec("2025-01-15", "S1001", "A01", 10, 0),
	}
	got := ByCategory(records, sampleTaxonomy())
	if len(got) != 3 {
		t.Fatalf("len=%d", len(got))
	}
	want := []string{"土工", "鉄筋", "未分類(S1001/Z99)"}
	for i, name := range want {
		if got[i].Name != name {
			t.Fatalf("row %d name=%q, want %q", i, got[i].Name, name)
		}
	}
}

func TestByRatio(t *testing.T) {
	t.Parallel()

	got := ByRatio([]model.WorkRecord{rec("", "P", "A", 8, 1.5), rec("", "P", "A", 7.5, 0.5)})
	if len(got) != 2 {
		t.Fatalf("len=%d", len(got))
	}
	if got[0].Name != LabelRegular || got[0].Value != 15.5 || got[0].Color != ColorRegular {
		t.Fatalf("regular=%+v", got[0])
	}
	if got[1].Name != LabelOvertime || got[1].Value != 2 || got[1].Color != ColorOvertime {
		t.Fatalf("overtime=%+v", got[1])
	}

	if empty := ByRatio(nil); len(empty) != 2 || empty[0].Value != 0 || empty[1].Value != 0 {
		t.Fatalf("empty=%+v", empty)
	}
}

func TestByDate(t *testing.T) {
	t.Parallel()

	records := []model.WorkRecord{
		rec("2025-01-16", "P", "A", 0.2, 0),
		rec("2025-01-15", "P", "A", 8, 1),
		rec("", "P", "A", 100, 0),
		rec("2025-01-16", "P", "A", 0.1, 0),
	}
	got := ByDate(records)
	if len(got) != 2 {
		t.Fatalf("len=%d: %+v", len(got), got)
	}
	if got[0].Date != "2025-01-15" || got[1].Date != "2025-01-16" {
		t.Fatalf("order=%+v", got)
	}
	if got[0].TotalHours != 9 || got[1].RegularHours != 0.3 {
		t.Fatalf("sums=%+v", got)
	}
}

func TestComputeTotals(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		records   []model.WorkRecord
		wantRatio float64
		wantTotal float64
	}{
		{"mixed", []model.WorkRecord{rec("", "P", "A", 8, 1.5), rec("", "P", "A", 7.5, 0.5)}, 11.4, 17.5},
		{"quarter", []model.WorkRecord{rec("", "P", "A", 3, 1)}, 25.0, 4},
		{"empty", nil, 0, 0},
		{"zero hours", []model.WorkRecord{rec("", "P", "A", 0, 0)}, 0, 0},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ComputeTotals(tc.records)
			if got.OvertimeRatio != tc.wantRatio || got.TotalHours != tc.wantTotal {
				t.Fatalf("totals=%+v, want ratio=%v total=%v", got, tc.wantRatio, tc.wantTotal)
			}
			if got.RecordCount != len(tc.records) {
				t.Fatalf("recordCount=%d", got.RecordCount)
			}
		})
	}
}

func TestReportRows(t *testing.T) {
	t.Parallel()

	records := []model.WorkRecord{
		rec("2025-01-15", "S1001", "A01", 3, 1),
		rec("2025-01-15", "S1002", "Z99", 10, 0),
		rec("2025-01-16", "S1001", "A01", 2, 1),
	}
	rows := ReportRows(records, sampleTaxonomy())
	if len(rows) != 2 {
		t.Fatalf("len=%d", len(rows))
	}
	if rows[0].ProjectCode != "S1002" || rows[0].TotalHours != 10 || rows[0].OvertimeFraction != 0 {
		t.Fatalf("row0=%+v", rows[0])
	}
	r := rows[1]
	if r.MajorName != "土工" || r.SubworkName != "掘削" || r.TotalHours != 7 {
		t.Fatalf("row1=%+v", r)
	}
	if r.OvertimeFraction != 0.286 {
		t.Fatalf("overtimeFraction=%v, want 0.286", r.OvertimeFraction)
	}
}

func TestRounding(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   float64
		want float64
	}{
		{11.428571, 11.4},
		{0.25, 0.3},
		{-0.25, -0.3},
		{25, 25},
	}
	for _, tc := range cases {
		if got := round1(tc.in); got != tc.want {
			t.Fatalf("round1(%v)=%v, want %v", tc.in, got, tc.want)
		}
	}
	if got := round3(2.0 / 7.0); got != 0.286 {
		t.Fatalf("round3=%v", got)
	}
}
