package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/sangkips/pos-api/internal/application/service"
	"github.com/sangkips/pos-api/internal/config"
	domainRepo "github.com/sangkips/pos-api/internal/domain/repository"
	"github.com/sangkips/pos-api/internal/infrastructure/cache"
	"github.com/sangkips/pos-api/internal/infrastructure/database"
	"github.com/sangkips/pos-api/internal/infrastructure/repository"
	"github.com/sangkips/pos-api/internal/presentation/http/handler"
	"github.com/sangkips/pos-api/internal/presentation/http/routes"
	"github.com/sangkips/pos-api/pkg/logger"
	"github.com/sangkips/pos-api/pkg/metrics"
	"github.com/sangkips/pos-api/pkg/printer"
	"github.com/sangkips/pos-api/pkg/utils"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

const idempotencyPurgeInterval = time.Hour

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() (err error) {
	cfg := config.Load()

	format := "json"
	if cfg.Log.Pretty {
		format = "console"
	}
	log := logger.New(logger.Options{
		ServiceName: cfg.App.Name,
		Level:       logger.ParseLevel(cfg.Log.Level),
		Format:      format,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	defer func() {
		if err != nil {
			log.Error(context.Background(), "server exited with error", err)
		}
	}()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgresDB(&cfg.Database, cfg.Log.Level)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	var closers []func() error
	closers = append(closers, sqlDB.Close)
	defer func() {
		var closeErr error
		for i := len(closers) - 1; i >= 0; i-- {
			closeErr = multierr.Append(closeErr, closers[i]())
		}
		if closeErr != nil {
			log.Error(context.Background(), "failed to release resources", closeErr)
		}
	}()

	if err := database.AutoMigrate(db); err != nil {
		return err
	}
	if err := database.SeedDefaultData(ctx, db, cfg.Admin, log); err != nil {
		log.Warn(ctx, "failed to seed default data", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)
	posMetrics := metrics.NewPOSMetrics(registry)

	jwtManager := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.ExpiryHours)

	userRepo := repository.NewUserRepository(db)
	orderRepo := repository.NewPosOrderRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	stockRepo := repository.NewStockRepository(db)
	transactor := repository.NewTransactor(db)

	ready := func() error { return sqlDB.PingContext(context.Background()) }

	var idempotencyRepo domainRepo.IdempotencyRepository
	switch cfg.Idempotency.Store {
	case "redis":
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		closers = append(closers, redisClient.Close)
		idempotencyRepo = cache.NewIdempotencyRepository(redisClient)
		ready = func() error {
			pingCtx := context.Background()
			return multierr.Combine(sqlDB.PingContext(pingCtx), redisClient.Ping(pingCtx))
		}
	default:
		idempotencyRepo = repository.NewIdempotencyRepository(db)
	}

	thermalPrinter, err := printer.New(printer.Config{
		Type:    cfg.Printer.Type,
		USBPath: cfg.Printer.USBPath,
		Address: cfg.Printer.Address,
		Timeout: cfg.Printer.Timeout,
	})
	if err != nil {
		log.Warn(ctx, "failed to initialize printer, receipts will not be printed", err)
		thermalPrinter, _ = printer.New(printer.Config{Type: printer.TypeNone})
	}
	closers = append(closers, thermalPrinter.Close)

	shop := service.ShopInfo{
		Name:    cfg.Receipt.ShopName,
		Address: cfg.Receipt.ShopAddress,
		Phone:   cfg.Receipt.ShopPhone,
		TaxID:   cfg.Receipt.ShopTaxID,
	}

	authService := service.NewAuthService(userRepo, jwtManager)
	printerService := service.NewPrinterService(thermalPrinter, orderRepo, catalogRepo, shop, cfg.Printer.Type, cfg.Printer.PaperWidth, log)
	orderService := service.NewPosOrderService(transactor, orderRepo, analyticsRepo, printerService, posMetrics, log)
	stockService := service.NewStockService(transactor, stockRepo, posMetrics, log)
	exportService := service.NewExportService(orderRepo, shop)

	handlers := &routes.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Order:   handler.NewPosOrderHandler(orderService, exportService),
		Stock:   handler.NewStockHandler(stockService),
		Printer: handler.NewPrinterHandler(printerService),
	}

	rateLimiter := routes.NewRateLimiter(cfg.RateLimit)
	defer rateLimiter.Stop()

	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
		RateLimiter:     rateLimiter,
		Logger:          log,
		HTTPMetrics:     httpMetrics,
		Gatherer:        registry,
		Ready:           ready,
	})

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Event(gctx, zerolog.InfoLevel).
			Str("port", port).
			Str("env", cfg.App.Env).
			Msg("starting http server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		log.Info(shutdownCtx, "shutting down http server")
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(idempotencyPurgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				n, err := idempotencyRepo.DeleteExpired(gctx)
				if err != nil {
					log.Warn(gctx, "failed to purge expired idempotency keys", err)
					continue
				}
				if n > 0 {
					log.Event(gctx, zerolog.DebugLevel).Int64("purged", n).Msg("expired idempotency keys removed")
				}
			}
		}
	})

	return g.Wait()
}
