package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	billingapp "github.com/epicerie/backend/internal/application/billing"
	"github.com/epicerie/backend/internal/domain/billing"
	"github.com/epicerie/backend/internal/infrastructure/config"
	"github.com/epicerie/backend/internal/infrastructure/logger"
	"github.com/epicerie/backend/internal/infrastructure/persistence"
	"github.com/epicerie/backend/internal/interfaces/http/handler"
	"github.com/epicerie/backend/internal/interfaces/http/middleware"
	"github.com/epicerie/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting billing backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database connection
	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	if err := db.AutoMigrate(); err != nil {
		log.Fatal("Failed to migrate database schema", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Initialize repositories and providers
	quoteRepo := persistence.NewGormQuoteRepository(db)
	poRepo := persistence.NewGormPurchaseOrderRepository(db)
	orderRepo := persistence.NewGormOrderRepository(db)
	invoiceRepo := persistence.NewGormInvoiceRepository(db)
	allocator := persistence.NewGormSequenceAllocator(db)
	provider := persistence.NewGormProvider(db)
	txManager := persistence.NewTransactionManager(db)

	// Initialize domain services
	numbers := billing.NewNumberGenerator(allocator, cfg.Billing.CustomerTokenLength)
	converter := billing.NewConversionService(
		quoteRepo, poRepo, orderRepo, invoiceRepo,
		provider, provider, numbers, txManager,
		cfg.Billing.DefaultTermDays,
	)

	// Initialize application services
	quoteService := billingapp.NewQuoteService(
		quoteRepo, provider, provider, numbers, converter, log,
		cfg.Billing.QuoteValidityDays,
	)
	poService := billingapp.NewPurchaseOrderService(
		poRepo, provider, provider, numbers, converter, log,
	)
	invoiceService := billingapp.NewInvoiceService(
		invoiceRepo, orderRepo, converter, log,
	)

	// Set up HTTP server
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()
	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.CORSWithConfig(middleware.DefaultCORSConfig()),
	)

	engine.GET("/health", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.NewRouter(engine).
		Register(handler.NewQuoteHandler(quoteService)).
		Register(handler.NewPurchaseOrderHandler(poService)).
		Register(handler.NewInvoiceHandler(invoiceService)).
		Setup()

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	// Background sweep: expire priced quotes past their validity window
	// and flag invoices past their due date
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go runDocumentSweeps(sweepCtx, quoteService, invoiceService, cfg.Billing.SweepInterval, log)

	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
	log.Info("Server stopped")
}

// runDocumentSweeps periodically expires stale quotes and flags overdue
// invoices until ctx is cancelled
func runDocumentSweeps(ctx context.Context, quotes *billingapp.QuoteService, invoices *billingapp.InvoiceService, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := quotes.ExpireDue(ctx); err != nil {
				log.Error("Quote expiry sweep failed", zap.Error(err))
			}
			if _, err := invoices.MarkOverdueDue(ctx); err != nil {
				log.Error("Invoice overdue sweep failed", zap.Error(err))
			}
		}
	}
}
