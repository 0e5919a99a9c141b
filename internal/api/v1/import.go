package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"worktally/internal/config"
	"worktally/internal/ingest"
	"worktally/internal/model"
	"worktally/internal/parser"
	"worktally/internal/store"
)

// ImportResponse 单个文件的导入结果摘要
type ImportResponse struct {
	Filename       string                    `json:"filename"`
	Summary        store.MergeSummary        `json:"summary"`
	ColumnMapping  map[model.Field]string    `json:"columnMapping"`
	Validation     []ingest.RecordIssue      `json:"validation"`
	UndefinedCodes []model.UndefinedCodeStat `json:"undefinedCodes"`
	Sheets         []ingest.SheetReport      `json:"sheets"`
}

// Import 导入一个或多个工时文件
// POST /api/import  (multipart: file[]；?stream=true 时以 SSE 推送进度；?strict=true 时校验问题中止导入)
func (h *Handler) Import(c *gin.Context) {
	paths, cleanup, ok := h.saveUploads(c)
	if !ok {
		return
	}
	defer cleanup()

	if c.Query("stream") != "true" {
		responses, err := h.ingestAndMerge(c, paths, nil)
		if err != nil {
			config.LogError(h.logger, "api", "Import", "ingest uploads", gin.H{"files": len(paths)}, err)
			ingestErrorResponse(c, err)
			return
		}
		success(c, responses)
		return
	}

	// 设置 SSE 响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		errorResponse(c, CodeInternal, "streaming not supported")
		return
	}

	events := make(chan ingest.ProgressEvent, 100)
	go func() {
		defer close(events)
		responses, err := h.ingestAndMerge(c, paths, func(ev ingest.ProgressEvent) { events <- ev })
		if err != nil {
			config.LogError(h.logger, "api", "Import", "ingest uploads (stream)", gin.H{"files": len(paths)}, err)
			events <- ingest.ProgressEvent{Type: "error", Message: err.Error(), Data: ingestErrorBody(err), Timestamp: time.Now()}
			return
		}
		events <- ingest.ProgressEvent{Type: "merged", Message: "import merged", Data: responses, Timestamp: time.Now()}
	}()

	for event := range events {
		eventData, err := json.Marshal(event)
		if err != nil {
			continue
		}
		// SSE 格式: data: {json}\n\n
		fmt.Fprintf(c.Writer, "data: %s\n\n", eventData)
		flusher.Flush()
	}
}

// ingestAndMerge 并行导入后按上传顺序合并进会话
func (h *Handler) ingestAndMerge(c *gin.Context, paths []string, progress func(ingest.ProgressEvent)) ([]ImportResponse, error) {
	var extra []ingest.Option
	if progress != nil {
		extra = append(extra, ingest.WithProgress(progress))
	}
	if c.Query("strict") == "true" {
		extra = append(extra, ingest.WithStrictValidation(true))
	}
	results, err := h.newIngestor(extra...).IngestFiles(c.Request.Context(), paths, 0)
	if err != nil {
		return nil, err
	}

	responses := make([]ImportResponse, 0, len(results))
	for _, res := range results {
		summary := h.session.Merge(res)
		responses = append(responses, ImportResponse{
			Filename:       res.Filename,
			Summary:        summary,
			ColumnMapping:  res.ColumnMapping.Headers(),
			Validation:     res.Validation,
			UndefinedCodes: res.UndefinedCodes,
			Sheets:         res.Sheets,
		})
		h.logger.WithField("file", res.Filename).WithField("inserted", summary.Inserted).
			WithField("updated", summary.Updated).Info("import merged into session")
	}
	return responses, nil
}

// saveUploads 保存上传文件到临时目录，文件名保留原始扩展名以便格式判断
func (h *Handler) saveUploads(c *gin.Context) ([]string, func(), bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	form, err := c.MultipartForm()
	if err != nil {
		errorResponse(c, CodeBadRequest, "invalid multipart form")
		return nil, nil, false
	}
	files := form.File["file"]
	if len(files) == 0 {
		errorResponse(c, CodeBadRequest, "no file uploaded")
		return nil, nil, false
	}

	dir, err := os.MkdirTemp("", "worktally_import_")
	if err != nil {
		errorResponse(c, CodeInternal, "failed to create temp dir")
		return nil, nil, false
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	paths := make([]string, 0, len(files))
	for i, fh := range files {
		// 每个文件单独子目录，避免同名覆盖且保留原始文件名
		sub := filepath.Join(dir, fmt.Sprintf("%03d", i))
		p := filepath.Join(sub, filepath.Base(fh.Filename))
		if err := os.MkdirAll(sub, 0o755); err != nil {
			cleanup()
			errorResponse(c, CodeInternal, "failed to save upload")
			return nil, nil, false
		}
		if err := c.SaveUploadedFile(fh, p); err != nil {
			cleanup()
			errorResponse(c, CodeInternal, "failed to save upload")
			return nil, nil, false
		}
		paths = append(paths, p)
	}
	return paths, cleanup, true
}

// ImportTaxonomy 导入工种分类表（YAML 或含分类表的工作簿）并替换会话快照
// POST /api/taxonomy
func (h *Handler) ImportTaxonomy(c *gin.Context) {
	paths, cleanup, ok := h.saveUploads(c)
	if !ok {
		return
	}
	defer cleanup()

	path := paths[0]
	var entries []model.WorkCodeDefinition
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			errorResponse(c, CodeFileRead, err.Error())
			return
		}
		defer f.Close()
		entries, err = parser.LoadTaxonomyYAML(f, time.Now())
		if err != nil {
			errorResponse(c, CodeParse, err.Error())
			return
		}
	default:
		res, err := h.newIngestor().IngestFile(c.Request.Context(), path)
		if err != nil {
			config.LogError(h.logger, "api", "ImportTaxonomy", "ingest taxonomy workbook", gin.H{"file": filepath.Base(path)}, err)
			ingestErrorResponse(c, err)
			return
		}
		entries = res.TaxonomyEntries
	}

	if len(entries) == 0 {
		errorResponse(c, CodeTaxonomyMissing, "no taxonomy entries found")
		return
	}
	version := h.session.ReplaceTaxonomy(entries)
	h.logger.WithField("entries", len(entries)).WithField("version", version).Info("taxonomy replaced")
	success(c, gin.H{
		"version":        version,
		"entries":        len(entries),
		"undefinedCodes": h.session.UndefinedCodes(),
	})
}

// GetTaxonomy 当前分类快照
// GET /api/taxonomy
func (h *Handler) GetTaxonomy(c *gin.Context) {
	t := h.session.Taxonomy()
	success(c, gin.H{
		"version":    t.Version,
		"entries":    t.Entries(),
		"categories": t.MajorCategories(),
	})
}
