package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	v1 "worktally/internal/api/v1"
	"worktally/internal/config"
	"worktally/internal/exporter"
	"worktally/internal/store"
)

// Server HTTP服务器
type Server struct {
	router  *gin.Engine
	session *store.Session
	v1      *v1.Handler
	logger  *logrus.Logger
	origins []string

	mu     sync.Mutex
	http   *http.Server
	closed bool
}

// NewServer 创建服务器；session 为空时新建
func NewServer(cfg *config.AppConfig, session *store.Session, logger *logrus.Logger) (*Server, error) {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}
	if session == nil {
		session = store.NewSession()
	}
	if logger == nil {
		logger = logrus.New()
	}

	ingestOpts, err := cfg.IngestOptions()
	if err != nil {
		return nil, err
	}
	sep, err := exporter.ParseSeparator(cfg.Export.Separator)
	if err != nil {
		return nil, fmt.Errorf("export.separator: %w", err)
	}
	exportDir, err := config.EnsureExportDir(cfg)
	if err != nil {
		// 导出目录不可用时退回系统临时目录
		logger.WithError(err).Warn("export dir unavailable, using temp dir")
		exportDir = ""
	}

	handler := v1.NewHandler(v1.Options{
		Session:       session,
		Logger:        logger,
		IngestOptions: ingestOpts,
		ExportDir:     exportDir,
		Separator:     sep,
		DownloadTTL:   time.Duration(cfg.Export.TokenTTLSec) * time.Second,
		MaxUploadSize: cfg.Server.MaxUploadMB << 20,
	})

	s := &Server{
		router:  gin.New(),
		session: session,
		v1:      handler,
		logger:  logger,
		origins: cfg.Server.CORSOrigins,
	}
	s.setupRoutes()
	return s, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery(), requestLogger(s.logger))

	s.router.Use(cors.New(corsConfig(s.origins)))

	api := s.router.Group("/api")
	{
		s.v1.RegisterRoutes(api)
	}
	// 兼容带版本前缀的访问
	s.v1.RegisterRoutes(s.router.Group("/api/v1"))

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, v1.Response{Code: v1.CodeNotFound, Message: "not found"})
	})
}

// corsConfig 未配置允许来源时放开所有来源（本地工具场景）
func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	if len(origins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	c.AddAllowMethods("PATCH", "DELETE", "OPTIONS")
	c.AddAllowHeaders("Authorization")
	c.AddExposeHeaders("Content-Disposition")
	return c
}

// requestLogger 访问日志
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Debug("request")
	}
}

// Router 路由（用于测试）
func (s *Server) Router() http.Handler {
	return s.router
}

// Session 会话存储（用于测试）
func (s *Server) Session() *store.Session {
	return s.session
}

// Run 启动服务器，阻塞直到关闭；Shutdown 之后调用直接返回
func (s *Server) Run(addr string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.http = srv
	s.mu.Unlock()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 优雅关闭；可在 Run 之前调用
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	srv := s.http
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
