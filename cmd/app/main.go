package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"khaja/cmd/fx/account_fx"
	"khaja/cmd/fx/config_fx"
	"khaja/cmd/fx/controllers_fx"
	"khaja/cmd/fx/dashboard"
	"khaja/cmd/fx/db_fx"
	"khaja/cmd/fx/dispute_fx"
	"khaja/cmd/fx/mail_fx"
	"khaja/cmd/fx/memcache_fx"
	"khaja/cmd/fx/metrics_fx"
	"khaja/cmd/fx/professional_fx"
	"khaja/cmd/fx/project_fx"
	"khaja/cmd/fx/quote_fx"
	"khaja/cmd/fx/subscription_fx"
	"khaja/internal/config"
	"khaja/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "khaja",
		Short:         "Khaja home services platform",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newPlansCmd())

	root.PersistentFlags().StringP("config", "c", "config/khaja.yml", "path to config file")
	return root
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.LoadFrom(path)
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			app := newApp(cfg)
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}
}

func newApp(cfg config.Config) *fx.App {
	return fx.New(
		fx.Supply(cfg),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		logger.Module,
		config_fx.Module,
		db_fx.Module,
		memcache_fx.Module,
		metrics_fx.Module,
		mail_fx.Module,
		account_fx.Module,
		subscription_fx.Module,
		professional_fx.Module,
		quote_fx.Module,
		project_fx.Module,
		dispute_fx.Module,
		dashboard.Module,
		controllers_fx.Module,

		fx.Invoke(StartServer),
	)
}

func StartServer(lc fx.Lifecycle, cfg config.Config, engine *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("starting HTTP server", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("stopping HTTP server")
			return srv.Shutdown(ctx)
		},
	})
}
