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

	checkoutapp "github.com/retailpos/backend/internal/application/checkout"
	customerapp "github.com/retailpos/backend/internal/application/customer"
	paymentapp "github.com/retailpos/backend/internal/application/payment"
	reportapp "github.com/retailpos/backend/internal/application/report"
	"github.com/retailpos/backend/internal/infrastructure/auth"
	"github.com/retailpos/backend/internal/infrastructure/cache"
	"github.com/retailpos/backend/internal/infrastructure/config"
	"github.com/retailpos/backend/internal/infrastructure/event"
	"github.com/retailpos/backend/internal/infrastructure/gateway"
	"github.com/retailpos/backend/internal/infrastructure/logger"
	"github.com/retailpos/backend/internal/infrastructure/persistence"
	"github.com/retailpos/backend/internal/infrastructure/telemetry"
	"github.com/retailpos/backend/internal/interfaces/http/handler"
	"github.com/retailpos/backend/internal/interfaces/http/middleware"
	"github.com/retailpos/backend/internal/interfaces/http/router"

	"github.com/retailpos/backend/internal/domain/shared"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

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

	log.Info("Starting POS Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Tracing first so the GORM plugin can attach to the connection
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}, log)
	if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	// Repositories
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	ledgerRepo := persistence.NewGormLedgerRepository(db.DB)
	saleRepo := persistence.NewGormSaleRepository(db.DB)
	seqRepo := persistence.NewGormSequenceRepository(db.DB)
	txRepo := persistence.NewGormTransactionRepository(db.DB)
	statsRepo := persistence.NewGormStatsRepository(db.DB)
	uow := persistence.NewGormUnitOfWork(db.DB)

	// Event bus with the audit trail subscribed to everything
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewAuditHandler(log))
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Webhook replay protection
	idempotencyStore, err := cache.NewIdempotencyStore(cfg.Idempotency, cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to initialize idempotency store", zap.Error(err))
	}
	idemCfg := shared.IdempotencyConfig{
		Enabled: cfg.Idempotency.Enabled,
		TTL:     cfg.Idempotency.TTL,
	}

	// Gateway normalizers and signature verifiers from config
	normalizers := gateway.NewRegistry(cfg.Gateways)
	verifiers := gateway.NewVerifiers(cfg.Gateways)

	// Application services
	customerService := customerapp.NewService(customerRepo, ledgerRepo, uow, eventBus, log)
	checkoutService := checkoutapp.NewService(saleRepo, seqRepo, customerRepo, ledgerRepo, txRepo, uow, eventBus, log)
	paymentService := paymentapp.NewService(txRepo, saleRepo, customerRepo, ledgerRepo, normalizers, idempotencyStore, idemCfg, uow, eventBus, log)
	reportService := reportapp.NewService(statsRepo, log)

	jwtService := auth.NewJWTService(cfg.JWT)

	// HTTP handlers
	customerHandler := handler.NewCustomerHandler(customerService)
	saleHandler := handler.NewSaleHandler(checkoutService)
	transactionHandler := handler.NewTransactionHandler(paymentService)
	webhookHandler := handler.NewWebhookHandler(paymentService, verifiers, log)
	reportHandler := handler.NewReportHandler(reportService)
	systemHandler := handler.NewSystemHandler(db.DB)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.SpanErrorMarker())
	}

	// Liveness and readiness outside API versioning
	engine.GET("/health", systemHandler.Health)
	engine.GET("/ready", systemHandler.Ready)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Webhooks authenticate by gateway signature, everything else via JWT
	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.Logger = log
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))
	r.Use(middleware.TenantMiddleware())

	customerRoutes := router.NewDomainGroup("customer", "/customers")
	customerRoutes.POST("", customerHandler.Create)
	customerRoutes.GET("", customerHandler.List)
	customerRoutes.GET("/lookup", customerHandler.Lookup)
	customerRoutes.GET("/stats", customerHandler.GetStatistics)
	customerRoutes.GET("/code/:code", customerHandler.GetByCode)
	customerRoutes.GET("/:id", customerHandler.GetByID)
	customerRoutes.PUT("/:id", customerHandler.Update)
	customerRoutes.POST("/:id/payments", customerHandler.RecordPayment)
	customerRoutes.POST("/:id/adjustments", customerHandler.AdjustDue)
	customerRoutes.POST("/:id/activate", customerHandler.Activate)
	customerRoutes.POST("/:id/deactivate", customerHandler.Deactivate)
	customerRoutes.GET("/:id/ledger", customerHandler.GetLedger)
	customerRoutes.GET("/:id/sales", saleHandler.ListByCustomer)

	saleRoutes := router.NewDomainGroup("sale", "/sales")
	saleRoutes.POST("", saleHandler.Create)
	saleRoutes.GET("", saleHandler.List)
	saleRoutes.GET("/receipt/:number", saleHandler.GetByReceipt)
	saleRoutes.GET("/:id", saleHandler.GetByID)
	saleRoutes.GET("/:id/receipt", saleHandler.GetReceipt)
	saleRoutes.POST("/:id/cancel", saleHandler.Cancel)
	saleRoutes.POST("/:id/refund", saleHandler.Refund)
	saleRoutes.GET("/:id/transactions", transactionHandler.ListBySale)

	transactionRoutes := router.NewDomainGroup("transaction", "/transactions")
	transactionRoutes.GET("", transactionHandler.List)
	transactionRoutes.POST("/sweep", transactionHandler.Sweep)
	transactionRoutes.GET("/:id", transactionHandler.GetByID)

	webhookRoutes := router.NewDomainGroup("webhook", "/webhooks")
	webhookRoutes.POST("/:gateway", webhookHandler.Receive)

	reportRoutes := router.NewDomainGroup("report", "/reports")
	reportRoutes.GET("/payments/stats", reportHandler.PaymentStats)
	reportRoutes.GET("/customers/top", reportHandler.TopCustomers)

	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/health", systemHandler.Health)
	systemRoutes.GET("/ready", systemHandler.Ready)

	r.Register(customerRoutes).
		Register(saleRoutes).
		Register(transactionRoutes).
		Register(webhookRoutes).
		Register(reportRoutes).
		Register(systemRoutes)

	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	if cfg.Sweeper.Enabled {
		go runSweeper(sweeperCtx, cfg.Sweeper, saleRepo, txRepo, checkoutService, paymentService, log)
		log.Info("Sweeper started",
			zap.Duration("interval", cfg.Sweeper.Interval),
			zap.Duration("sale_max_age", cfg.Sweeper.SaleMaxAge),
			zap.Duration("tx_max_age", cfg.Sweeper.TxMaxAge),
		)
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	stopSweeper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// runSweeper periodically cancels sales and transactions stuck in an
// open state. Each pass is scoped per tenant so optimistic-lock
// conflicts on one tenant never stall the others.
func runSweeper(
	ctx context.Context,
	cfg config.SweeperConfig,
	saleRepo *persistence.GormSaleRepository,
	txRepo *persistence.GormTransactionRepository,
	checkoutService *checkoutapp.Service,
	paymentService *paymentapp.Service,
	log *zap.Logger,
) {
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepOnce(ctx, cfg, saleRepo, txRepo, checkoutService, paymentService, log)
		}
	}
}

func sweepOnce(
	ctx context.Context,
	cfg config.SweeperConfig,
	saleRepo *persistence.GormSaleRepository,
	txRepo *persistence.GormTransactionRepository,
	checkoutService *checkoutapp.Service,
	paymentService *paymentapp.Service,
	log *zap.Logger,
) {
	saleCutoff := time.Now().Add(-cfg.SaleMaxAge)
	tenants, err := saleRepo.TenantsWithOpen(ctx, saleCutoff)
	if err != nil {
		log.Error("Sweeper failed to list tenants with stale sales", zap.Error(err))
	} else {
		for _, tenantID := range tenants {
			if _, err := checkoutService.SweepStale(ctx, tenantID, cfg.SaleMaxAge, cfg.BatchLimit); err != nil {
				log.Error("Sale sweep failed",
					zap.String("tenant_id", tenantID.String()),
					zap.Error(err))
			}
		}
	}

	txCutoff := time.Now().Add(-cfg.TxMaxAge)
	tenants, err = txRepo.TenantsWithOpen(ctx, txCutoff)
	if err != nil {
		log.Error("Sweeper failed to list tenants with stale transactions", zap.Error(err))
		return
	}
	for _, tenantID := range tenants {
		if _, err := paymentService.SweepPending(ctx, tenantID, cfg.TxMaxAge, cfg.BatchLimit); err != nil {
			log.Error("Transaction sweep failed",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err))
		}
	}
}
