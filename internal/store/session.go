package store

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"worktally/internal/ingest"
	"worktally/internal/model"
)

// ErrRecordNotFound 记录不存在
var ErrRecordNotFound = errors.New("record not found")

// MergeSummary 一次导入批次合并后的计数
type MergeSummary struct {
	Inserted       int `json:"inserted"`
	Updated        int `json:"updated"`    // 指纹已存在，被新批次覆盖
	Duplicates     int `json:"duplicates"` // 批内重复
	Errors         int `json:"errors"`     // 校验未通过的记录数
	UndefinedCodes int `json:"undefinedCodes"`
}

// ImportLog 导入日志（仅保存在会话内）
type ImportLog struct {
	ID              string               `json:"id"`
	Filename        string               `json:"filename"`
	ImportedAt      time.Time            `json:"importedAt"`
	Summary         MergeSummary         `json:"summary"`
	TaxonomyVersion int                  `json:"taxonomyVersion"`
	Sheets          []ingest.SheetReport `json:"sheets,omitempty"`
}

// Status 会话概况
type Status struct {
	Records         int        `json:"records"`
	TaxonomyEntries int        `json:"taxonomyEntries"`
	TaxonomyVersion int        `json:"taxonomyVersion"`
	Imports         int        `json:"imports"`
	LastImportAt    *time.Time `json:"lastImportAt,omitempty"`
}

// Session 会话级记录仓库：调用方创建一次并显式传递，按内容指纹保存记录
type Session struct {
	mu       sync.RWMutex
	records  map[string]model.WorkRecord
	order    []string
	taxonomy *model.Taxonomy
	imports  []ImportLog
	now      func() time.Time
}

// NewSession 创建会话仓库
func NewSession() *Session {
	return &Session{
		records:  make(map[string]model.WorkRecord),
		taxonomy: model.NewTaxonomy(nil),
		now:      time.Now,
	}
}

// Merge 合并一次导入结果
//
// 文件内带分类表时先替换分类快照；随后按指纹插入或覆盖记录，保留首次插入的顺序。
func (s *Session) Merge(res *ingest.Result) MergeSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(res.TaxonomyEntries) > 0 {
		s.replaceTaxonomyLocked(res.TaxonomyEntries)
	}

	summary := MergeSummary{
		Duplicates:     len(res.Duplicates),
		Errors:         len(res.Validation),
		UndefinedCodes: len(res.UndefinedCodes),
	}
	for _, r := range res.Records {
		if _, ok := s.records[r.ContentHash]; ok {
			summary.Updated++
		} else {
			s.order = append(s.order, r.ContentHash)
			summary.Inserted++
		}
		s.records[r.ContentHash] = r
	}

	s.imports = append(s.imports, ImportLog{
		ID:              uuid.NewString(),
		Filename:        res.Filename,
		ImportedAt:      s.now(),
		Summary:         summary,
		TaxonomyVersion: s.taxonomy.Version,
		Sheets:          res.Sheets,
	})
	return summary
}

// ReplaceTaxonomy 载入新的分类快照，返回新版本号
func (s *Session) ReplaceTaxonomy(entries []model.WorkCodeDefinition) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceTaxonomyLocked(entries)
}

func (s *Session) replaceTaxonomyLocked(entries []model.WorkCodeDefinition) int {
	version := s.taxonomy.Version + 1
	now := s.now()
	stamped := make([]model.WorkCodeDefinition, len(entries))
	for i, e := range entries {
		e.Version = version
		if e.UpdatedAt.IsZero() {
			e.UpdatedAt = now
		}
		stamped[i] = e
	}
	t := model.NewTaxonomy(stamped)
	t.Version = version
	s.taxonomy = t
	return version
}

// Taxonomy 当前分类快照（只读使用）
func (s *Session) Taxonomy() *model.Taxonomy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.taxonomy
}

// Records 按插入顺序返回全部记录的副本
func (s *Session) Records() []model.WorkRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.WorkRecord, 0, len(s.order))
	for _, h := range s.order {
		out = append(out, s.records[h])
	}
	return out
}

// Record 按内容指纹获取记录
func (s *Session) Record(hash string) (model.WorkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[hash]
	if !ok {
		return model.WorkRecord{}, ErrRecordNotFound
	}
	return r, nil
}

// UndefinedCodes 基于当前分类快照重新统计未定义代码
func (s *Session) UndefinedCodes() []model.UndefinedCodeStat {
	records := s.Records()
	return ingest.ResolveCodes(records, s.Taxonomy())
}

// Imports 导入日志副本
func (s *Session) Imports() []ImportLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ImportLog(nil), s.imports...)
}

// Status 会话概况
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		Records:         len(s.records),
		TaxonomyEntries: s.taxonomy.Len(),
		TaxonomyVersion: s.taxonomy.Version,
		Imports:         len(s.imports),
	}
	if n := len(s.imports); n > 0 {
		at := s.imports[n-1].ImportedAt
		st.LastImportAt = &at
	}
	return st
}

// Clear 清空记录与导入日志（分类快照保留）
func (s *Session) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.records)
	s.records = make(map[string]model.WorkRecord)
	s.order = nil
	s.imports = nil
	return n
}
