package model

import "sort"

// Taxonomy 工种分类快照（subworkCode → 定义）
type Taxonomy struct {
	Version int
	entries map[string]WorkCodeDefinition
	order   []string
}

// NewTaxonomy 由条目列表构建快照；同一代码重复出现时以后出现者为准
func NewTaxonomy(entries []WorkCodeDefinition) *Taxonomy {
	t := &Taxonomy{entries: make(map[string]WorkCodeDefinition, len(entries))}
	for _, e := range entries {
		if e.SubworkCode == "" {
			continue
		}
		if _, ok := t.entries[e.SubworkCode]; !ok {
			t.order = append(t.order, e.SubworkCode)
		}
		t.entries[e.SubworkCode] = e
	}
	return t
}

// Lookup 按工种代码查找；nil 快照视为空表
func (t *Taxonomy) Lookup(code string) (WorkCodeDefinition, bool) {
	if t == nil {
		return WorkCodeDefinition{}, false
	}
	def, ok := t.entries[code]
	return def, ok
}

// Len 条目数量
func (t *Taxonomy) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Entries 按首次出现顺序返回全部条目
func (t *Taxonomy) Entries() []WorkCodeDefinition {
	if t == nil {
		return []WorkCodeDefinition{}
	}
	out := make([]WorkCodeDefinition, 0, len(t.order))
	for _, code := range t.order {
		out = append(out, t.entries[code])
	}
	return out
}

// MajorCategories 返回去重后的大分类名（按名称排序）
func (t *Taxonomy) MajorCategories() []string {
	seen := make(map[string]struct{})
	for _, e := range t.Entries() {
		if e.MajorName != "" {
			seen[e.MajorName] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
