package v1

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"worktally/internal/aggregate"
	"worktally/internal/config"
	"worktally/internal/exporter"
	"worktally/internal/model"
)

// Report 按配置分组并分页返回
// POST /api/report
func (h *Handler) Report(c *gin.Context) {
	var cfg model.ReportConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		errorResponse(c, CodeBadRequest, "invalid report config: "+err.Error())
		return
	}

	table, err := aggregate.Pivot(h.session.Records(), h.session.Taxonomy(), cfg)
	if err != nil {
		errorResponse(c, CodeBadRequest, err.Error())
		return
	}

	success(c, gin.H{
		"dimensions": table.Dimensions,
		"metrics":    table.Metrics,
		"rows":       aggregate.Paginate(table.Rows, cfg.Page, cfg.PageSize),
		"total":      table.Total,
		"page":       cfg.Page,
		"pageSize":   cfg.PageSize,
	})
}

// ExportRequest 导出请求
type ExportRequest struct {
	Config    model.ReportConfig `json:"config"`
	Kind      exporter.Kind      `json:"kind"`      // pivot/rows/records
	Separator string             `json:"separator"` // 为空时使用服务端配置
}

// ExportReport 生成分隔符文本文件并返回一次性下载地址
// POST /api/report/export
func (h *Handler) ExportReport(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, CodeBadRequest, "invalid export request: "+err.Error())
		return
	}

	sep := h.separator
	if req.Separator != "" {
		r, err := exporter.ParseSeparator(req.Separator)
		if err != nil {
			errorResponse(c, CodeBadRequest, err.Error())
			return
		}
		sep = r
	}
	if sep == 0 {
		sep = exporter.DefaultSeparator
	}

	table, err := exporter.BuildTable(req.Kind, h.session.Records(), h.session.Taxonomy(), req.Config)
	if err != nil {
		errorResponse(c, CodeBadRequest, err.Error())
		return
	}

	dir := h.exportDir
	if dir == "" {
		dir = os.TempDir()
	}
	kind := req.Kind
	if kind == "" {
		kind = exporter.KindPivot
	}
	ext := ".csv"
	if sep == '\t' {
		ext = ".tsv"
	}
	filename := fmt.Sprintf("worktally_%s_%s%s", kind, time.Now().Format("20060102_150405"), ext)

	f, err := os.CreateTemp(dir, "worktally_export_*"+ext)
	if err != nil {
		config.LogError(h.logger, "api", "ExportReport", "create export file", gin.H{"dir": dir}, err)
		errorResponse(c, CodeExportFailed, "failed to create export file")
		return
	}
	tempPath := f.Name()
	if err := exporter.WriteDelimited(f, table, sep, exporter.LogProgress(h.logger.WithField("kind", kind))); err != nil {
		_ = f.Close()
		_ = os.Remove(tempPath)
		config.LogError(h.logger, "api", "ExportReport", "write export file", gin.H{"kind": kind, "rows": len(table.Rows)}, err)
		errorResponse(c, CodeExportFailed, "failed to write export file")
		return
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tempPath)
		errorResponse(c, CodeExportFailed, "failed to write export file")
		return
	}

	token := h.downloads.put(tempPath, filename, h.downloadTTL)
	prefix := "/api"
	if strings.HasPrefix(c.Request.URL.Path, "/api/v1/") {
		prefix = "/api/v1"
	}

	h.logger.WithField("kind", kind).WithField("rows", len(table.Rows)).Info("report exported")
	success(c, gin.H{
		"token":       token,
		"filename":    filename,
		"rows":        len(table.Rows),
		"downloadUrl": fmt.Sprintf("%s/report/download/%s", prefix, token),
	})
}

// DownloadExport 下载导出文件（一次性）
// GET /api/report/download/:token
func (h *Handler) DownloadExport(c *gin.Context) {
	token := c.Param("token")
	item, ok := h.downloads.take(token)
	if !ok {
		c.JSON(http.StatusNotFound, Response{Code: CodeNotFound, Message: "download link expired or not found"})
		return
	}

	c.FileAttachment(item.filePath, filepath.Base(item.filename))
	_ = os.Remove(item.filePath)
}
