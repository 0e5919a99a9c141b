package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"worktally/internal/model"
	"worktally/internal/parser"
)

// ProgressEvent 导入进度事件
type ProgressEvent struct {
	Type      string      `json:"type"` // start/sheet_done/done/error
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// SheetReport 单个 Sheet 的处理结果
type SheetReport struct {
	SheetName  string           `json:"sheetName"`
	SheetType  parser.SheetType `json:"sheetType"`
	Confidence float64          `json:"confidence"`
	HeaderRow  int              `json:"headerRow"`
	Rows       int              `json:"rows"`
	Status     string           `json:"status"` // success/skipped/error
	Errors     []string         `json:"errors,omitempty"`
}

// Result 单个文件的导入结果
type Result struct {
	Filename        string                     `json:"filename"`
	Records         []model.WorkRecord         `json:"records"`
	TaxonomyEntries []model.WorkCodeDefinition `json:"taxonomyEntries"`
	ColumnMapping   model.ColumnMapping        `json:"columnMapping"`
	Duplicates      []model.WorkRecord         `json:"duplicates"`
	Validation      []RecordIssue              `json:"validation"`
	UndefinedCodes  []model.UndefinedCodeStat  `json:"undefinedCodes"`
	Sheets          []SheetReport              `json:"sheets"`
	Duration        time.Duration              `json:"duration"`
}

// Option Ingestor 配置项
type Option func(*Ingestor)

// WithLogger 指定日志
func WithLogger(l *logrus.Logger) Option {
	return func(i *Ingestor) { i.logger = l }
}

// WithTemplate 使用固定列位置模板（跳过同义词匹配）
func WithTemplate(t *parser.Template) Option {
	return func(i *Ingestor) { i.template = t }
}

// WithScanRows 表头扫描行数
func WithScanRows(n int) Option {
	return func(i *Ingestor) { i.scanRows = n }
}

// WithSynonyms 追加表头同义词（优先于内置候选）
func WithSynonyms(extra map[model.Field][]string) Option {
	return func(i *Ingestor) { i.synonyms = extra }
}

// WithLimits 数值校验上限
func WithLimits(l Limits) Option {
	return func(i *Ingestor) { i.limits = l }
}

// WithClock 指定时间源
func WithClock(now func() time.Time) Option {
	return func(i *Ingestor) { i.now = now }
}

// WithTaxonomySource 未定义代码判定时使用的参考分类表
func WithTaxonomySource(src func() *model.Taxonomy) Option {
	return func(i *Ingestor) { i.taxonomy = src }
}

// WithStrictValidation 校验问题视为致命：返回 VALIDATION_FAILURE，不产出结果
func WithStrictValidation(strict bool) Option {
	return func(i *Ingestor) { i.strict = strict }
}

// WithProgress 进度回调
func WithProgress(fn func(ProgressEvent)) Option {
	return func(i *Ingestor) { i.progress = fn }
}

// Ingestor 导入协调器：字节 → 工作簿 → 识别 → 构造记录 → 去重 → 校验 → 代码解析
type Ingestor struct {
	logger   *logrus.Logger
	template *parser.Template
	scanRows int
	synonyms map[model.Field][]string
	limits   Limits
	now      func() time.Time
	taxonomy func() *model.Taxonomy
	progress func(ProgressEvent)
	strict   bool

	matcher    *parser.HeaderMatcher
	recognizer *parser.SheetRecognizer
	taxParser  *parser.TaxonomyParser
	builder    *RecordBuilder
	validator  *Validator
}

// NewIngestor 创建导入协调器
func NewIngestor(opts ...Option) *Ingestor {
	i := &Ingestor{
		limits: DefaultLimits(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.logger == nil {
		i.logger = logrus.New()
	}

	i.matcher = parser.NewHeaderMatcher()
	if len(i.synonyms) > 0 {
		i.matcher = i.matcher.WithSynonyms(i.synonyms)
	}
	i.recognizer = parser.NewSheetRecognizer(i.matcher, i.scanRows)
	i.taxParser = parser.NewTaxonomyParser(i.recognizer)
	i.builder = NewRecordBuilder(i.now)
	i.validator = NewValidator(i.limits)
	return i
}

// IngestFile 读取文件后导入
func (i *Ingestor) IngestFile(ctx context.Context, path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fileReadError(err)
	}
	return i.Ingest(ctx, data, filepath.Base(path))
}

// IngestFiles 并行导入多个独立文件，结果顺序与输入一致；任一文件结构性失败即返回
func (i *Ingestor) IngestFiles(ctx context.Context, paths []string, concurrency int) ([]*Result, error) {
	results := make([]*Result, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for idx, path := range paths {
		idx, path := idx, path
		g.Go(func() error {
			res, err := i.IngestFile(gctx, path)
			if err != nil {
				return fmt.Errorf("%s: %w", filepath.Base(path), err)
			}
			results[idx] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Ingest 导入已读入内存的文件内容
func (i *Ingestor) Ingest(ctx context.Context, data []byte, filename string) (*Result, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	i.emit(ProgressEvent{Type: "start", Message: "import started", Data: map[string]string{"filename": filename}})

	wb, err := LoadWorkbook(data, filename)
	if err != nil {
		i.fail(filename, err)
		return nil, err
	}

	res := &Result{
		Filename:        wb.Filename,
		Records:         []model.WorkRecord{},
		TaxonomyEntries: []model.WorkCodeDefinition{},
		ColumnMapping:   model.ColumnMapping{},
		Duplicates:      []model.WorkRecord{},
		Validation:      []RecordIssue{},
		UndefinedCodes:  []model.UndefinedCodeStat{},
	}

	var built []model.WorkRecord
	timesheets := 0
	for idx := range wb.Sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sheet := &wb.Sheets[idx]
		report, records, entries := i.processSheet(sheet)
		res.Sheets = append(res.Sheets, report.SheetReport)
		if report.SheetType == parser.SheetTypeTimesheet && report.Status == "success" {
			if timesheets == 0 {
				res.ColumnMapping = report.mapping
			}
			timesheets++
		}
		built = append(built, records...)
		res.TaxonomyEntries = append(res.TaxonomyEntries, entries...)
		i.emit(ProgressEvent{Type: "sheet_done", Message: fmt.Sprintf("sheet %s processed", sheet.Name), Data: report.SheetReport})
	}

	if timesheets == 0 && len(res.TaxonomyEntries) == 0 {
		err := parseError("no recognizable data sheet", fmt.Errorf("%d sheet(s) scanned", len(wb.Sheets)))
		i.fail(filename, err)
		return nil, err
	}

	part := Dedupe(built)
	res.Records = part.Unique
	if part.Duplicates != nil {
		res.Duplicates = part.Duplicates
	}
	if issues := i.validator.Validate(res.Records); issues != nil {
		if i.strict {
			err := ValidationError(issues)
			i.fail(filename, err)
			return nil, err
		}
		res.Validation = issues
	}
	res.UndefinedCodes = ResolveCodes(res.Records, i.referenceTaxonomy(res.TaxonomyEntries))
	res.Duration = time.Since(start)

	i.logger.WithFields(logrus.Fields{
		"file":       res.Filename,
		"records":    len(res.Records),
		"duplicates": len(res.Duplicates),
		"issues":     len(res.Validation),
		"undefined":  len(res.UndefinedCodes),
		"taxonomy":   len(res.TaxonomyEntries),
		"duration":   res.Duration.String(),
	}).Info("import finished")
	i.emit(ProgressEvent{Type: "done", Message: "import finished", Data: res.Sheets})
	return res, nil
}

type sheetOutcome struct {
	SheetReport
	mapping model.ColumnMapping
}

func (i *Ingestor) processSheet(sheet *parser.Sheet) (sheetOutcome, []model.WorkRecord, []model.WorkCodeDefinition) {
	rec := i.recognizer.Recognize(sheet)
	out := sheetOutcome{SheetReport: SheetReport{
		SheetName:  sheet.Name,
		SheetType:  rec.SheetType,
		Confidence: rec.Confidence,
		HeaderRow:  rec.HeaderRow,
		Status:     "skipped",
	}}
	log := i.logger.WithFields(logrus.Fields{"sheet": sheet.Name, "type": rec.SheetType, "confidence": rec.Confidence})

	if rec.SheetType == parser.SheetTypeTaxonomy {
		entries, err := i.taxParser.ParseSheet(sheet, i.now())
		if err != nil {
			out.Status = "error"
			out.Errors = []string{err.Error()}
			log.WithError(err).Warn("taxonomy sheet rejected")
			return out, nil, nil
		}
		out.Status = "success"
		out.Rows = len(entries)
		log.WithField("rows", len(entries)).Debug("taxonomy sheet parsed")
		return out, nil, entries
	}

	var mapping model.ColumnMapping
	switch {
	case i.template != nil:
		if len(sheet.Rows) <= i.template.HeaderRow {
			out.Errors = []string{"sheet is shorter than the template header row"}
			return out, nil, nil
		}
		out.SheetType = parser.SheetTypeTimesheet
		out.HeaderRow = i.template.HeaderRow
		mapping = i.template.Map(parser.RowStrings(sheet.Rows[i.template.HeaderRow]))
	case rec.SheetType == parser.SheetTypeTimesheet:
		mapping = i.matcher.Match(parser.RowStrings(sheet.Rows[rec.HeaderRow]))
	default:
		out.Errors = []string{"sheet type not recognized"}
		log.Debug("sheet skipped")
		return out, nil, nil
	}

	records := i.builder.Build(sheet, out.HeaderRow, mapping)
	out.Status = "success"
	out.Rows = len(records)
	out.mapping = mapping
	log.WithField("rows", len(records)).Debug("timesheet sheet parsed")
	return out, records, nil
}

// referenceTaxonomy 参考分类表与本文件内分类条目合并（文件内条目优先）
func (i *Ingestor) referenceTaxonomy(fileEntries []model.WorkCodeDefinition) *model.Taxonomy {
	var ref *model.Taxonomy
	if i.taxonomy != nil {
		ref = i.taxonomy()
	}
	if len(fileEntries) == 0 {
		return ref
	}
	return model.NewTaxonomy(append(ref.Entries(), fileEntries...))
}

func (i *Ingestor) emit(ev ProgressEvent) {
	if i.progress == nil {
		return
	}
	ev.Timestamp = time.Now()
	i.progress(ev)
}

func (i *Ingestor) fail(filename string, err error) {
	i.logger.WithFields(logrus.Fields{"file": filename}).WithError(err).Error("import failed")
	i.emit(ProgressEvent{Type: "error", Message: err.Error()})
}
