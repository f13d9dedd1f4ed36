package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockbook/internal/config"
	"github.com/mamadbah2/stockbook/internal/domain/models"
	"github.com/mamadbah2/stockbook/internal/metrics"
	"github.com/mamadbah2/stockbook/internal/repository/mongodb"
	"github.com/mamadbah2/stockbook/internal/repository/sheets"
	"github.com/mamadbah2/stockbook/internal/scheduler"
	"github.com/mamadbah2/stockbook/internal/server/handlers"
	"github.com/mamadbah2/stockbook/internal/server/router"
	commandsvc "github.com/mamadbah2/stockbook/internal/service/commands"
	inventorysvc "github.com/mamadbah2/stockbook/internal/service/inventory"
	reportingsvc "github.com/mamadbah2/stockbook/internal/service/reporting"
	whatsappsvc "github.com/mamadbah2/stockbook/internal/service/whatsapp"
	whatsappclient "github.com/mamadbah2/stockbook/pkg/clients/whatsapp"
	"github.com/mamadbah2/stockbook/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level, cfg.Log.Development))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	loc, err := cfg.Location()
	if err != nil {
		baseLogger.Fatal("invalid timezone", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog := loadCatalog(ctx, cfg, baseLogger)

	recorder := metrics.NewRecorder(prometheus.DefaultRegisterer)
	inventorySvc, err := inventorysvc.NewService(catalog, baseLogger.Named("svc.inventory"), inventorysvc.WithObserver(recorder))
	if err != nil {
		baseLogger.Fatal("failed to init inventory", zap.Error(err))
	}
	recorder.StockChanged(inventorySvc.ListStock())

	reportingSvc := reportingsvc.NewService(inventorySvc, loc, baseLogger.Named("svc.reporting"))

	schedOpts := []scheduler.Option{scheduler.WithRunRecorder(recorder)}

	if cfg.MongoDB.Enabled() {
		archive, err := mongodb.NewReportArchive(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName, baseLogger.Named("repo.mongodb"))
		if err != nil {
			baseLogger.Fatal("failed to init mongodb archive", zap.Error(err))
		}
		defer func() {
			if err := archive.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		schedOpts = append(schedOpts, scheduler.WithArchive(archive))
	} else {
		baseLogger.Warn("mongodb not configured, daily reports will not be archived")
	}

	var chatHandler *handlers.ChatHandler
	if cfg.WhatsApp.Enabled() {
		dispatcher := commandsvc.NewService(inventorySvc, reportingSvc, cfg.Shop.AllowOversell, baseLogger.Named("svc.commands"))
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, dispatcher, baseLogger.Named("svc.whatsapp"))
		chatHandler = handlers.NewChatHandler(messagingSvc, baseLogger.Named("handlers.whatsapp"))
		if cfg.WhatsApp.OwnerNumber != "" {
			schedOpts = append(schedOpts, scheduler.WithNotifier(messagingSvc))
		}
	} else {
		baseLogger.Warn("whatsapp not configured, chat commands disabled")
	}

	sched := scheduler.NewScheduler(cfg.Reporting.CronSchedule, loc, reportingSvc, baseLogger.Named("scheduler"), schedOpts...)
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	var metricsHandler http.Handler
	if cfg.Server.MetricsEnabled {
		metricsHandler = promhttp.Handler()
	}

	shopHandler := handlers.NewInventoryHandler(inventorySvc, reportingSvc, cfg.Shop.AllowOversell, baseLogger.Named("handlers.inventory"))
	engine := router.New(shopHandler, chatHandler, metricsHandler, baseLogger.Named("router"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("timezone", loc.String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// loadCatalog reads the catalog sheet when configured and falls back to the seed catalog.
func loadCatalog(ctx context.Context, cfg *config.Config, log *zap.Logger) []models.StockItem {
	if !cfg.Sheets.Enabled() {
		log.Info("using default catalog")
		return inventorysvc.DefaultCatalog()
	}

	repo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, log.Named("repo.sheets"))
	if err != nil {
		log.Fatal("failed to init sheets repository", zap.Error(err))
	}

	loadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	catalog, err := sheets.LoadCatalog(loadCtx, repo, cfg.Sheets.CatalogRange)
	if err != nil {
		log.Fatal("failed to load catalog sheet", zap.Error(err), zap.String("range", cfg.Sheets.CatalogRange))
	}
	log.Info("catalog loaded from sheet", zap.Int("items", len(catalog)))
	return catalog
}
