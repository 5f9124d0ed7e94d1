// cmd/server/main.go
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

	"printer-service/internal/config"
	"printer-service/internal/database"
	"printer-service/internal/discovery"
	"printer-service/internal/dispatch"
	"printer-service/internal/handler"
	"printer-service/internal/model"
	"printer-service/internal/orchestrator"
	"printer-service/internal/orders"
	"printer-service/internal/repository"
	"printer-service/internal/routes"
	"printer-service/internal/service"
	"printer-service/internal/transport"
	"printer-service/internal/utils"
)

// Application represents the main application
type Application struct {
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
	database *database.DB
	migrator *database.Migrator

	// Repositories
	printerRepo repository.PrinterRepository
	jobRepo     repository.JobRepository

	// Core components
	transport    *transport.Transport
	scanner      *discovery.Scanner
	dispatcher   *dispatch.Dispatcher
	ordersClient *orders.Client
	ordersStream *orders.Stream
	orchestrator *orchestrator.Orchestrator
	eventBus     *handler.EventBus

	// Services
	printerService   *service.PrinterService
	discoveryService *service.DiscoveryService

	// Cancels background goroutines on shutdown
	cancelBackground context.CancelFunc
}

func main() {
	app, err := NewApplication()
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if err := app.Start(); err != nil {
		app.logger.Fatal("Failed to start application", zap.Error(err))
	}
}

// NewApplication creates a new application instance
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	serviceLogger := utils.NewServiceLogger(logger, "printer-service")
	serviceLogger.LogServiceStart(cfg.App.Version, cfg)

	app := &Application{
		config: cfg,
		logger: logger,
	}

	if err := app.initializeDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initializeComponents(); err != nil {
		return nil, fmt.Errorf("failed to initialize components: %w", err)
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := app.initializeServer(); err != nil {
		return nil, fmt.Errorf("failed to initialize server: %w", err)
	}

	return app, nil
}

// initializeDatabase sets up the connection pool and runs migrations
func (app *Application) initializeDatabase() error {
	db, err := database.NewConnection(app.config, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}
	app.database = db

	app.migrator = database.NewMigrator(db, app.logger, &app.config.Database)
	if err := app.migrator.Up(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	app.printerRepo = repository.NewPrinterRepository(db, app.logger)
	app.jobRepo = repository.NewJobRepository(db, app.logger)

	app.logger.Info("Database initialized successfully")
	return nil
}

// initializeComponents wires the transport, scanner, dispatcher and the
// order pipeline.
func (app *Application) initializeComponents() error {
	app.eventBus = handler.NewEventBus(app.logger)
	go app.eventBus.Start()

	app.transport = transport.New(app.logger, app.config.Printer.SendTimeout)

	app.scanner = discovery.NewScanner(app.logger, &discovery.Config{
		PingTimeout:  app.config.Discovery.PingTimeout,
		ProbeTimeout: app.config.Discovery.ProbeTimeout,
		ProbeDelay:   app.config.Discovery.ProbeDelay,
		Workers:      app.config.Discovery.Workers,
		DefaultPort:  app.config.Printer.DefaultPort,
	}, app.transport)

	app.dispatcher = dispatch.NewDispatcher(app.logger, &dispatch.Config{
		ConnectTimeout:       app.config.Printer.ConnectTimeout,
		SettleDelay:          app.config.Printer.SettleDelay,
		DelayAfterDisconnect: app.config.Printer.DelayAfterDisconnect,
		ReceiptBrand:         app.config.Printer.ReceiptBrand,
		FoldDiacritics:       app.config.Printer.FoldDiacritics,
	}, app.transport)

	app.ordersClient = orders.NewClient(app.logger, &orders.Config{
		BaseURL:        app.config.Orders.BaseURL,
		RequestTimeout: app.config.Orders.RequestTimeout,
	})

	app.orchestrator = orchestrator.New(
		app.logger,
		&orchestrator.Config{
			PollInterval: app.config.Orders.PollInterval,
			HealthWindow: app.config.Orders.HealthWindow,
			RetryPolicy: orders.Policy{
				BaseDelay:    app.config.Orders.RetryBaseDelay,
				MaxDelay:     app.config.Orders.RetryMaxDelay,
				MaxRetries:   app.config.Orders.MaxRetries,
				LongInterval: app.config.Orders.LongInterval,
			},
		},
		app.ordersClient,
		app.printerRepo,
		app.dispatcher,
		app.jobRepo,
		app.eventBus,
		nil,
	)

	app.ordersStream = orders.NewStream(
		app.logger,
		app.config.Orders.BaseURL,
		app.config.Orders.StreamPath,
		app.orchestrator.OnStreamEvent,
	)
	app.orchestrator.SetStream(app.ordersStream)

	app.logger.Info("Core components initialized successfully")
	return nil
}

// initializeServices creates service instances
func (app *Application) initializeServices() error {
	app.printerService = service.NewPrinterService(
		app.logger,
		&app.config.Printer,
		app.printerRepo,
		app.transport,
		app.dispatcher,
	)

	app.discoveryService = service.NewDiscoveryService(
		app.logger,
		app.scanner,
		app.printerRepo,
		app.eventBus,
		app.config.Printer.DefaultPort,
	)

	app.logger.Info("Services initialized successfully")
	return nil
}

// initializeServer sets up HTTP server and routes
func (app *Application) initializeServer() error {
	routerManager := routes.NewRouter(
		app.config,
		app.logger,
		app.database,
		app.printerService,
		app.discoveryService,
		app.orchestrator,
		app.jobRepo,
		app.eventBus,
	)

	router := routerManager.SetupRouter()

	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}

	app.logger.Info("HTTP server initialized",
		zap.String("address", app.config.GetServerAddr()),
	)
	return nil
}

// startBackgroundServices starts the order pipeline and housekeeping loops
func (app *Application) startBackgroundServices() {
	ctx, cancel := context.WithCancel(context.Background())
	app.cancelBackground = cancel

	go app.orchestrator.Run(ctx)
	go app.ordersStream.Run(ctx)
	go app.startPrinterMonitoring(ctx)
	go app.startCleanupService(ctx)

	app.logger.Info("Background services started")
}

// startPrinterMonitoring probes active printers on an interval and records
// status transitions.
func (app *Application) startPrinterMonitoring(ctx context.Context) {
	interval := app.config.Printer.HealthCheckInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	app.logger.Info("Printer monitoring started", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		app.checkPrinters(checkCtx)
		cancel()
	}
}

// checkPrinters probes every active printer once
func (app *Application) checkPrinters(ctx context.Context) {
	printers, err := app.printerRepo.ListActive(ctx)
	if err != nil {
		app.logger.Error("Failed to list printers for monitoring", zap.Error(err))
		return
	}

	for _, printer := range printers {
		status := model.PrinterStatusOnline
		if err := app.transport.Probe(ctx, printer.LocalIP, printer.Port, app.config.Printer.ConnectTimeout); err != nil {
			status = model.PrinterStatusOffline
		}

		if status == printer.Status {
			continue
		}

		if err := app.printerRepo.UpdateStatus(ctx, printer.ID, status); err != nil {
			app.logger.Error("Failed to update printer status",
				zap.String("printer", printer.Name),
				zap.Error(err),
			)
			continue
		}

		app.logger.Info("Printer status changed",
			zap.String("printer", printer.Name),
			zap.String("from", string(printer.Status)),
			zap.String("to", string(status)),
		)
		app.eventBus.Publish(model.EventPrinterStatus, model.JSONObject{
			"printer_id": printer.ID.String(),
			"name":       printer.Name,
			"status":     string(status),
		}, "INFO")
	}
}

// startCleanupService removes print job history past the retention window
func (app *Application) startCleanupService(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	app.logger.Info("Cleanup service started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		cleanupCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
		cutoff := time.Now().AddDate(0, 0, -30)
		if _, err := app.jobRepo.DeleteOlderThan(cleanupCtx, cutoff); err != nil {
			app.logger.Error("Failed to clean up old print jobs", zap.Error(err))
		}
		cancel()
	}
}

// waitForShutdown waits for shutdown signal and performs graceful shutdown
func (app *Application) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	app.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	app.shutdown()
}

// shutdown performs graceful shutdown
func (app *Application) shutdown() {
	serviceLogger := utils.NewServiceLogger(app.logger, "printer-service")
	serviceLogger.LogServiceStop("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		app.logger.Info("HTTP server stopped")
	}

	if app.cancelBackground != nil {
		app.cancelBackground()
	}

	// Drain the print queue before cutting connections
	app.dispatcher.Close()
	closed := app.transport.ResetAll()
	if closed > 0 {
		app.logger.Info("Closed lingering printer connections", zap.Int("count", closed))
	}

	if app.database != nil {
		if err := app.database.Close(); err != nil {
			app.logger.Error("Database close error", zap.Error(err))
		} else {
			app.logger.Info("Database connection closed")
		}
	}

	if err := utils.CloseLogger(app.logger); err != nil {
		fmt.Printf("Logger close error: %v\n", err)
	}

	app.logger.Info("Application shutdown completed")
}

func (app *Application) Start() error {
	go func() {
		app.logger.Info("Starting HTTP server",
			zap.String("address", app.server.Addr),
		)

		if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	app.startBackgroundServices()
	app.waitForShutdown()

	return nil
}
