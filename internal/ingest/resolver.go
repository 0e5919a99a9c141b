package ingest

import (
	"sort"

	"worktally/internal/model"
)

// ResolveCodes 统计分类表中不存在的工种代码
//
// 空代码不计入；FirstSeen 取最早的非空日期。taxonomy 为 nil 时所有代码均视为未定义。
func ResolveCodes(records []model.WorkRecord, taxonomy *model.Taxonomy) []model.UndefinedCodeStat {
	stats := make(map[string]*model.UndefinedCodeStat)
	for _, r := range records {
		if r.SubworkCode == "" {
			continue
		}
		if _, ok := taxonomy.Lookup(r.SubworkCode); ok {
			continue
		}
		s, ok := stats[r.SubworkCode]
		if !ok {
			s = &model.UndefinedCodeStat{SubworkCode: r.SubworkCode}
			stats[r.SubworkCode] = s
		}
		s.Count++
		if r.WorkDate != "" && (s.FirstSeen == "" || r.WorkDate < s.FirstSeen) {
			s.FirstSeen = r.WorkDate
		}
	}

	out := make([]model.UndefinedCodeStat, 0, len(stats))
	for _, s := range stats {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubworkCode < out[j].SubworkCode })
	return out
}
