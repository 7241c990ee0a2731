package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vocabvoyage/vocabvoyage/api"
	"github.com/vocabvoyage/vocabvoyage/internal/app"
	"github.com/vocabvoyage/vocabvoyage/internal/config"
	"github.com/vocabvoyage/vocabvoyage/internal/dialog"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "啟動 HTTP API 伺服器",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "監聽位址（預設取自設定檔）")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	flow := dialog.NewFlow(a.Genkit, a.Engine)
	server := api.NewServer(a.Store, a.Engine, flow, logger)

	addr := flagAddr
	if addr == "" {
		addr = cfg.ServerAddr
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(ctx, addr)
	})
	return g.Wait()
}
