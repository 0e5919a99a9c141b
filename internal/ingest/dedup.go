package ingest

import "worktally/internal/model"

// Partition 去重结果
type Partition struct {
	Unique     []model.WorkRecord `json:"unique"`
	Duplicates []model.WorkRecord `json:"duplicates"`
}

// Dedupe 按内容指纹划分批内唯一/重复记录，首次出现者保留，顺序不变
func Dedupe(records []model.WorkRecord) Partition {
	seen := make(map[string]struct{}, len(records))
	p := Partition{Unique: make([]model.WorkRecord, 0, len(records))}
	for _, r := range records {
		if _, dup := seen[r.ContentHash]; dup {
			p.Duplicates = append(p.Duplicates, r)
			continue
		}
		seen[r.ContentHash] = struct{}{}
		p.Unique = append(p.Unique, r)
	}
	return p
}
