// Package main запускает HTTP-сервер шлюза данных магазина.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/vega-gateway/internal/config"
	"github.com/mmeshcher/vega-gateway/internal/handler"
	"github.com/mmeshcher/vega-gateway/internal/middleware"
	"github.com/mmeshcher/vega-gateway/internal/pix"
	"github.com/mmeshcher/vega-gateway/internal/service"
	"github.com/mmeshcher/vega-gateway/internal/sheets"
	"github.com/mmeshcher/vega-gateway/internal/webhook"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	if cfg.SheetID == "" {
		sugar.Fatalw("spreadsheet identifier is required")
	}

	sheetClient := sheets.NewClient(cfg.SheetBaseURL, cfg.SheetID)
	webhookClient := webhook.NewClient(cfg.WebhookURL)
	encoder := pix.NewEncoder(cfg.PixKey, cfg.MerchantName, cfg.MerchantCity, cfg.PixTxID)

	svc := service.NewService(sheetClient, webhookClient, encoder, service.Options{
		CatalogTabs:     cfg.CatalogTabs,
		Admins:          cfg.Admins,
		SettleDelay:     cfg.SettleDelay,
		RefreshInterval: cfg.RefreshInterval,
	}, logger)

	authMiddleware := middleware.NewAuthMiddleware(cfg.SessionSecret)
	h := handler.NewHandler(svc, logger, authMiddleware)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Первичная загрузка и фоновое обновление коллекций
	g.Go(func() error {
		svc.RefreshCatalog(ctx)
		if err := svc.RefreshStaff(ctx); err != nil {
			sugar.Warnw("initial staff load failed", "error", err.Error())
		}
		if err := svc.RefreshOrders(ctx); err != nil {
			sugar.Warnw("initial orders load failed", "error", err.Error())
		}
		svc.StartBackgroundRefresh(ctx)
		return nil
	})

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting gateway server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
