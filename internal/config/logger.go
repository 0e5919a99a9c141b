package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// NewLogger 按配置创建日志
func NewLogger(cfg LogConfig, out io.Writer) (*logrus.Logger, error) {
	logg := logrus.New()
	if out == nil {
		out = os.Stderr
	}
	logg.SetOutput(out)

	level := logrus.InfoLevel
	if cfg.Level != "" {
		lv, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("log.level: %w", err)
		}
		level = lv
	}
	logg.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		logg.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logg.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("log.format: unsupported %q", cfg.Format)
	}
	return logg, nil
}

// LogError 带模块、函数、上下文字段记录错误
func LogError(logger *logrus.Logger, moduleName string, funcName string, context string, data any, err error) {
	fields := logrus.Fields{
		"module":   moduleName,
		"funcName": funcName,
		"context":  context,
	}
	if data != nil {
		fields["data"] = data
	}
	logger.WithFields(fields).Error(err.Error())
}
