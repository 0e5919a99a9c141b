package v1

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"worktally/internal/ingest"
	"worktally/internal/store"
)

// Options Handler 依赖项
type Options struct {
	Session       *store.Session
	Logger        *logrus.Logger
	IngestOptions []ingest.Option
	ExportDir     string
	Separator     rune
	DownloadTTL   time.Duration
	MaxUploadSize int64
}

// Handler V1 API 处理器
type Handler struct {
	session       *store.Session
	logger        *logrus.Logger
	ingestOptions []ingest.Option
	exportDir     string
	separator     rune
	downloadTTL   time.Duration
	maxUpload     int64
	downloads     *exportDownloadStore
}

// NewHandler 创建 V1 API 处理器
func NewHandler(opts Options) *Handler {
	h := &Handler{
		session:       opts.Session,
		logger:        opts.Logger,
		ingestOptions: opts.IngestOptions,
		exportDir:     opts.ExportDir,
		separator:     opts.Separator,
		downloadTTL:   opts.DownloadTTL,
		maxUpload:     opts.MaxUploadSize,
		downloads:     newExportDownloadStore(),
	}
	if h.session == nil {
		h.session = store.NewSession()
	}
	if h.logger == nil {
		h.logger = logrus.New()
	}
	if h.downloadTTL <= 0 {
		h.downloadTTL = 10 * time.Minute
	}
	if h.maxUpload <= 0 {
		h.maxUpload = 32 << 20
	}
	return h
}

// newIngestor 每次请求创建导入协调器；未定义代码按会话当前分类表判定
func (h *Handler) newIngestor(extra ...ingest.Option) *ingest.Ingestor {
	opts := append([]ingest.Option{
		ingest.WithLogger(h.logger),
		ingest.WithTaxonomySource(h.session.Taxonomy),
	}, h.ingestOptions...)
	return ingest.NewIngestor(append(opts, extra...)...)
}

// RegisterRoutes 注册 V1 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)

	// 数据导入
	router.POST("/import", h.Import)
	router.POST("/taxonomy", h.ImportTaxonomy)
	router.GET("/taxonomy", h.GetTaxonomy)

	// 记录
	router.GET("/records", h.ListRecords)
	router.GET("/records/:hash", h.GetRecord)
	router.DELETE("/records", h.ClearRecords)
	router.GET("/imports", h.ListImports)
	router.GET("/undefined-codes", h.ListUndefinedCodes)

	// 聚合视图
	aggregate := router.Group("/aggregate")
	aggregate.GET("/category", h.AggregateByCategory)
	aggregate.GET("/ratio", h.AggregateByRatio)
	aggregate.GET("/date", h.AggregateByDate)
	aggregate.GET("/totals", h.AggregateTotals)
	aggregate.GET("/rows", h.AggregateRows)

	// 报表
	router.POST("/report", h.Report)
	router.POST("/report/export", h.ExportReport)
	router.GET("/report/download/:token", h.DownloadExport)
}
