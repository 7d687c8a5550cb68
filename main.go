package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tournament-wallet-service/config"
	"tournament-wallet-service/handlers"
	"tournament-wallet-service/metrics"
	"tournament-wallet-service/middleware"
	"tournament-wallet-service/services"
	"tournament-wallet-service/store"
	"tournament-wallet-service/utils"
	"tournament-wallet-service/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	log := utils.Log

	cfg, envFileLoaded, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration: ", err)
	}
	utils.ConfigureLogger(cfg.LogLevel, cfg.LogFormat)
	if !envFileLoaded {
		log.Warn("⚠️  No .env file found, reading environment variables directly")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := openStore(cfg)

	var objects services.ObjectStore
	if cfg.R2.Enabled() {
		r2, err := utils.NewR2Store(ctx, cfg.R2.AccountID, cfg.R2.AccessKeyID, cfg.R2.AccessKeySecret, cfg.R2.Bucket, cfg.R2.CDNBaseURL)
		if err != nil {
			log.Fatal("failed to initialize R2 client: ", err)
		}
		objects = r2
	} else {
		log.Warn("⚠️  R2 not configured, KYC images and screenshots must be sent as URLs")
	}

	gateway := services.NewPaymentGatewayClient(cfg.PaymentGatewayURL, cfg.PaymentGatewayToken, cfg.PaymentTimeout, cfg.PaymentRPS, cfg.PaymentBurst)

	walletService := services.NewWalletService(st, gateway, cfg.PaymentTimeout)
	kycService := services.NewKycService(st, objects)
	tournamentService := services.NewTournamentService(st, cfg.JoinableWindow)
	matchService := services.NewMatchService(st, objects)
	userService := services.NewUserService(st)

	sched, err := tournamentService.StartLifecycleScheduler(cfg.LifecycleInterval)
	if err != nil {
		log.Fatal("failed to start lifecycle scheduler: ", err)
	}

	settlement := workers.NewSettlementWorker(st, gateway, walletService, cfg.SettlementInterval, cfg.PaymentTimeout)
	go settlement.PollSettlements(ctx)

	if cfg.SyncServiceURL != "" {
		workers.NewUserSyncWorker(st, cfg.SyncServiceURL, "/api/v1/public/profiles", cfg.ServiceToken, cfg.UserSyncInterval).Start(ctx)
	} else {
		log.Warn("⚠️  SYNC_SERVICE_URL not set, user sync worker disabled")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 2 * utils.MaxUploadBytes,
	})

	// Probes stay reachable without the gateway token.
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-Service-Token, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))
	app.Use(middleware.MetricsMiddleware())

	// 🔐❗ Only gateway requests past this point
	app.Use(middleware.GatewayAuthMiddleware(cfg.ServiceToken))
	app.Use(middleware.UserContextMiddleware())

	handlers.SetupRoutes(app, handlers.Services{
		Wallet:      walletService,
		Kyc:         kycService,
		Tournaments: tournamentService,
		Matches:     matchService,
		Users:       st,
		Directory:   userService,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Errorf("Server error: %v", err)
			stop()
		}
	}()

	log.Infof("✅ Server running on http://localhost:%s (store: %s)", cfg.Port, cfg.StoreDriver)
	log.Infof("✅ Settlement polling every %s, lifecycle pass every %s", cfg.SettlementInterval, cfg.LifecycleInterval)
	log.Infof("✅ CORS configured for origins: %s", strings.Join(cfg.AllowedOrigins, ","))

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.WithError(err).Warn("server shutdown")
	}
	if err := sched.Shutdown(); err != nil {
		log.WithError(err).Warn("scheduler shutdown")
	}
}

func openStore(cfg *config.Config) store.Store {
	if cfg.StoreDriver == config.StoreDriverMemory {
		utils.Log.Warn("⚠️  Using in-memory store, data is lost on restart")
		return store.NewMemoryStore()
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		utils.Log.Fatal("failed to connect to database: ", err)
	}
	gs := store.NewGormStore(db)
	if err := gs.Migrate(); err != nil {
		utils.Log.Fatal("failed to migrate database: ", err)
	}
	return gs
}
