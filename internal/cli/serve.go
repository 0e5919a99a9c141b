package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"worktally/internal/server"
	"worktally/internal/util"
)

func newServeCmd(app *App) *cobra.Command {
	var port int
	var devMode bool
	var openBrowser bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.Config
			// config.toml 中显式配置的端口优先
			if port > 0 && !app.Info.PortSpecified {
				cfg.Server.Port = port
			}
			if devMode {
				cfg.Server.DevMode = true
			}

			session, err := app.newSession("")
			if err != nil {
				return err
			}
			srv, err := server.NewServer(cfg, session, app.Logger)
			if err != nil {
				return err
			}

			addr := fmt.Sprintf(":%d", cfg.Server.Port)
			errCh := make(chan error, 1)
			go func() {
				app.Logger.WithField("addr", addr).Info("server listening")
				errCh <- srv.Run(addr)
			}()

			if openBrowser {
				url := fmt.Sprintf("http://localhost:%d/api/status", cfg.Server.Port)
				if err := util.OpenBrowser(url); err != nil {
					app.Logger.WithError(err).Warnf("could not open browser, visit %s manually", url)
				}
			}

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)

			select {
			case err := <-errCh:
				return err
			case <-quit:
			}

			app.Logger.Info("shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "listen port (ignored when config.toml sets server.port)")
	cmd.Flags().BoolVar(&devMode, "dev", false, "development mode")
	cmd.Flags().BoolVar(&openBrowser, "open", false, "open the status endpoint in a browser after start")
	return cmd
}
