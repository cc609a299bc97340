package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	billingapp "github.com/coursebill/backend/internal/application/billing"
	payablesapp "github.com/coursebill/backend/internal/application/payables"
	"github.com/coursebill/backend/internal/infrastructure/auth"
	"github.com/coursebill/backend/internal/infrastructure/config"
	"github.com/coursebill/backend/internal/infrastructure/event"
	"github.com/coursebill/backend/internal/infrastructure/logger"
	"github.com/coursebill/backend/internal/infrastructure/notification"
	"github.com/coursebill/backend/internal/infrastructure/persistence"
	"github.com/coursebill/backend/internal/infrastructure/telemetry"
	"github.com/coursebill/backend/internal/interfaces/http/handler"
	"github.com/coursebill/backend/internal/interfaces/http/middleware"
	"github.com/coursebill/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
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

	log.Info("Starting CourseBill Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Database connection with a GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Repositories
	courseRepo := persistence.NewGormCourseRepository(db.DB)
	orgRepo := persistence.NewGormOrganizationRepository(db.DB)
	priceRepo := persistence.NewGormPriceConfigRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	vendorInvoiceRepo := persistence.NewGormVendorInvoiceRepository(db.DB)
	vendorPaymentRepo := persistence.NewGormVendorPaymentRepository(db.DB)

	billingUow := persistence.NewBillingUnitOfWork(db.DB)
	payablesUow := persistence.NewPayablesUnitOfWork(db.DB)

	// Event bus and notification dispatch
	eventBus := event.NewInMemoryEventBus(log)
	dispatcher := notification.NewDispatcher(nil, log)
	eventBus.Subscribe(dispatcher)
	log.Info("Notification dispatcher registered",
		zap.Strings("event_types", dispatcher.EventTypes()),
	)

	// Application services
	policy := billingapp.BillingPolicy{
		TaxRate: decimal.NewFromFloat(cfg.Billing.TaxRate),
		DueDays: cfg.Billing.DueDays,
	}
	invoiceService := billingapp.NewInvoiceService(
		billingUow, invoiceRepo, paymentRepo, courseRepo, orgRepo, priceRepo, eventBus, policy,
	)
	paymentService := billingapp.NewPaymentService(billingUow, paymentRepo, eventBus)
	verificationService := billingapp.NewVerificationService(billingUow, eventBus)
	vendorInvoiceService := payablesapp.NewVendorInvoiceService(
		payablesUow, vendorInvoiceRepo, vendorPaymentRepo, eventBus,
	)

	jwtService := auth.NewJWTService(cfg.JWT)

	// HTTP handlers
	handlers := router.Handlers{
		Billing: handler.NewBillingHandler(invoiceService, paymentService, verificationService),
		Vendor:  handler.NewVendorHandler(vendorInvoiceService),
		System:  handler.NewSystemHandler(db),
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	router.Setup(engine, jwtService, handlers)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
