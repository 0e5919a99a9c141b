package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"

	"worktally/internal/exporter"
	"worktally/internal/ingest"
	"worktally/internal/model"
	"worktally/internal/parser"
)

// 环境变量覆盖
const (
	EnvPort     = "WORKTALLY_PORT"
	EnvLogLevel = "WORKTALLY_LOG_LEVEL"
)

// ConfigFileName 配置文件名（位于可执行文件同目录）
const ConfigFileName = "config.toml"

// AppConfig 应用配置
type AppConfig struct {
	Server     ServerConfig   `toml:"server"`
	Ingest     IngestConfig   `toml:"ingest"`
	Template   TemplateConfig `toml:"template"`
	Validation ingest.Limits  `toml:"validation"`
	Export     ExportConfig   `toml:"export"`
	Log        LogConfig      `toml:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port        int      `toml:"port"`
	DevMode     bool     `toml:"dev_mode"`
	MaxUploadMB int64    `toml:"max_upload_mb"`
	CORSOrigins []string `toml:"cors_origins"` // 为空时允许所有来源
}

// IngestConfig 导入配置
type IngestConfig struct {
	ScanRows     int                 `toml:"scan_rows"`
	Concurrency  int                 `toml:"concurrency"`
	Synonyms     map[string][]string `toml:"synonyms"` // 规范字段 → 追加的表头同义词
	TaxonomyYAML string              `toml:"taxonomy_yaml"`
	Strict       bool                `toml:"strict"` // 校验问题视为致命
}

// TemplateConfig 固定列位置模板；启用后跳过表头同义词匹配
type TemplateConfig struct {
	Enabled   bool           `toml:"enabled"`
	Name      string         `toml:"name"`
	HeaderRow int            `toml:"header_row"`
	Columns   map[string]int `toml:"columns"` // 规范字段 → 列索引（0 起）
}

// ExportConfig 导出配置
type ExportConfig struct {
	Separator   string `toml:"separator"`
	Dir         string `toml:"dir"`
	TokenTTLSec int    `toml:"token_ttl_sec"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // text/json
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	FileFound     bool
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:        20262,
			DevMode:     false,
			MaxUploadMB: 32,
		},
		Ingest: IngestConfig{
			ScanRows:    parser.DefaultScanRows,
			Concurrency: 4,
		},
		Template: TemplateConfig{
			Enabled: false,
		},
		Validation: ingest.DefaultLimits(),
		Export: ExportConfig{
			Separator:   ",",
			Dir:         "exports",
			TokenTTLSec: 600,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// LoadConfigWithInfo 从可执行文件同目录的 config.toml 加载配置并返回元信息
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}
	return LoadConfigFrom(filepath.Join(exeDir, ConfigFileName))
}

// LoadConfigFrom 从指定路径加载配置；文件不存在时使用默认配置
func LoadConfigFrom(path string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{Path: path}
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// 配置文件不存在，使用默认配置
	case err != nil:
		return nil, info, fmt.Errorf("read config %s: %w", path, err)
	default:
		info.FileFound = true
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(config, &info); err != nil {
		return nil, info, err
	}
	return config, info, nil
}

// applyEnv 环境变量覆盖（用于容器 / 本地运行）
func applyEnv(config *AppConfig, info *LoadConfigInfo) error {
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("invalid %s: %q", EnvPort, v)
		}
		config.Server.Port = port
		info.PortSpecified = true
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		config.Log.Level = v
	}
	return nil
}

// SaveConfig 保存配置到指定路径；overwrite 为 false 时拒绝覆盖已有文件
func SaveConfig(config *AppConfig, path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config %s already exists", path)
		}
	}
	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate 检查配置取值
func (c *AppConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if _, err := exporter.ParseSeparator(c.Export.Separator); err != nil {
		return fmt.Errorf("export.separator: %w", err)
	}
	if _, err := c.Synonyms(); err != nil {
		return err
	}
	if _, err := c.ColumnTemplate(); err != nil {
		return err
	}
	return nil
}

// Synonyms 追加同义词（字段名校验后）
func (c *AppConfig) Synonyms() (map[model.Field][]string, error) {
	if len(c.Ingest.Synonyms) == 0 {
		return nil, nil
	}
	out := make(map[model.Field][]string, len(c.Ingest.Synonyms))
	for name, words := range c.Ingest.Synonyms {
		f, err := canonicalField(name)
		if err != nil {
			return nil, fmt.Errorf("ingest.synonyms: %w", err)
		}
		out[f] = words
	}
	return out, nil
}

// ColumnTemplate 由 [template] 生成固定列模板；未启用时返回 nil
//
// 启用但未声明列时使用内置标准模板。
func (c *AppConfig) ColumnTemplate() (*parser.Template, error) {
	if !c.Template.Enabled {
		return nil, nil
	}
	if len(c.Template.Columns) == 0 {
		t := parser.StandardTemplate()
		t.HeaderRow = c.Template.HeaderRow
		return t, t.Validate()
	}

	t := &parser.Template{
		Name:      c.Template.Name,
		HeaderRow: c.Template.HeaderRow,
		Columns:   make(map[model.Field]int, len(c.Template.Columns)),
	}
	if t.Name == "" {
		t.Name = "custom"
	}
	for name, idx := range c.Template.Columns {
		f, err := canonicalField(name)
		if err != nil {
			return nil, fmt.Errorf("template.columns: %w", err)
		}
		t.Columns[f] = idx
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// IngestOptions 由配置生成导入选项
func (c *AppConfig) IngestOptions() ([]ingest.Option, error) {
	opts := []ingest.Option{
		ingest.WithScanRows(c.Ingest.ScanRows),
		ingest.WithLimits(c.Validation),
	}
	if c.Ingest.Strict {
		opts = append(opts, ingest.WithStrictValidation(true))
	}
	syn, err := c.Synonyms()
	if err != nil {
		return nil, err
	}
	if syn != nil {
		opts = append(opts, ingest.WithSynonyms(syn))
	}
	tpl, err := c.ColumnTemplate()
	if err != nil {
		return nil, err
	}
	if tpl != nil {
		opts = append(opts, ingest.WithTemplate(tpl))
	}
	return opts, nil
}

func canonicalField(name string) (model.Field, error) {
	for _, f := range model.CanonicalFields {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown field %q", name)
}

// EnsureExportDir 确保导出目录存在（相对路径位于可执行文件同目录下）
func EnsureExportDir(config *AppConfig) (string, error) {
	dir := config.Export.Dir
	if !filepath.IsAbs(dir) {
		exeDir, err := GetExeDir()
		if err != nil {
			exeDir = "."
		}
		dir = filepath.Join(exeDir, dir)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}
