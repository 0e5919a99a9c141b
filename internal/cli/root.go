package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"worktally/internal/config"
	"worktally/internal/parser"
	"worktally/internal/store"
)

// App 命令共享状态；配置与日志在 PersistentPreRunE 中加载
type App struct {
	ConfigPath string
	LogLevel   string

	Config *config.AppConfig
	Info   config.LoadConfigInfo
	Logger *logrus.Logger
}

// NewRootCmd 创建顶层 "worktally" 命令并注册子命令
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "worktally",
		Short:         "Timesheet ingestion and work-hour aggregation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.load(cmd)
		},
	}

	root.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "config.toml path (default: next to the executable)")
	root.PersistentFlags().StringVar(&app.LogLevel, "log-level", "", "log level override (debug/info/warn/error)")

	root.AddCommand(
		newServeCmd(app),
		newIngestCmd(app),
		newReportCmd(app),
		newConfigCmd(app),
	)
	return root
}

func (a *App) load(cmd *cobra.Command) error {
	var (
		cfg  *config.AppConfig
		info config.LoadConfigInfo
		err  error
	)
	if a.ConfigPath != "" {
		cfg, info, err = config.LoadConfigFrom(a.ConfigPath)
	} else {
		cfg, info, err = config.LoadConfigWithInfo()
	}
	if err != nil {
		return err
	}
	if a.LogLevel != "" {
		cfg.Log.Level = a.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", info.Path, err)
	}

	logger, err := config.NewLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.Config, a.Info, a.Logger = cfg, info, logger
	return nil
}

// newSession 创建会话；配置或参数指定了分类种子文件时预先载入
func (a *App) newSession(taxonomyPath string) (*store.Session, error) {
	session := store.NewSession()
	if taxonomyPath == "" {
		taxonomyPath = a.Config.Ingest.TaxonomyYAML
	}
	if taxonomyPath == "" {
		return session, nil
	}

	f, err := os.Open(taxonomyPath)
	if err != nil {
		return nil, fmt.Errorf("open taxonomy %s: %w", taxonomyPath, err)
	}
	defer f.Close()

	entries, err := parser.LoadTaxonomyYAML(f, time.Now())
	if err != nil {
		return nil, err
	}
	version := session.ReplaceTaxonomy(entries)
	a.Logger.WithFields(logrus.Fields{"path": taxonomyPath, "entries": len(entries), "version": version}).Info("taxonomy loaded")
	return session, nil
}
