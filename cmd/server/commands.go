package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/wupeiyao/larkchat/internal/domain/doc"
	"github.com/wupeiyao/larkchat/internal/infrastructure/config"
	applog "github.com/wupeiyao/larkchat/internal/infrastructure/log"
	"github.com/wupeiyao/larkchat/internal/infrastructure/singleton"
	"github.com/wupeiyao/larkchat/internal/wire"
)

// rootOptions 全局命令行参数
type rootOptions struct {
	ConfigFile string
}

// newRootCommand 不带子命令时等同于 serve
func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "larkchat",
		Short:         "Feishu knowledge base Q&A service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "config file (default <data_dir>/config.yaml)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newSyncCommand(opts))

	return cmd
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP, MCP and the periodic document sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func newSyncCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one document sync pass and print the report as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			reconciler, cleanup, err := wire.InitializeReconciler(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize sync: %w", err)
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(contextOf(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			report, syncErr := reconciler.Reconcile(ctx, doc.TriggerCLI)
			if report != nil {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			}
			return syncErr
		},
	}
}

// loadConfig 加载配置并初始化日志
func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applog.Init(&cfg.Log)
	return cfg, nil
}

func runServe(ctx context.Context, opts *rootOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger := applog.GetLogger()

	// 单例锁：监听成功的 listener 直接交给 HTTP 服务器
	listener, err := singleton.CheckAndLock(cfg.Server.HTTPPort)
	if errors.Is(err, singleton.ErrAlreadyRunning) {
		logger.Info("Another instance is already running, exiting", "addr", cfg.Server.HTTPPort)
		return nil
	}
	if err != nil {
		return err
	}

	app, cleanup, err := wire.InitializeApp(cfg)
	if err != nil {
		_ = listener.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer cleanup()

	if err := app.Start(listener); err != nil {
		_ = app.Stop()
		return fmt.Errorf("failed to start application: %w", err)
	}

	// 优雅关闭
	ctx, stop := signal.NotifyContext(contextOrBackground(ctx), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutting down application...")
	case serveErr = <-app.Errors():
	}

	if err := app.Stop(); err != nil {
		logger.Error("Error during application shutdown",
			"error", err,
		)
	}
	logger.Info("Application stopped")
	return serveErr
}

func contextOf(cmd *cobra.Command) context.Context {
	return contextOrBackground(cmd.Context())
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
