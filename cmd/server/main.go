package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"autobuy_panel_echo/internal/bot"
	"autobuy_panel_echo/internal/config"
	"autobuy_panel_echo/internal/handlers"
	authMiddleware "autobuy_panel_echo/internal/middleware"
	"autobuy_panel_echo/internal/models"
	"autobuy_panel_echo/internal/services"
	"autobuy_panel_echo/internal/store"
	"autobuy_panel_echo/internal/tasks"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	records, err := openRecordStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open record store: %v", err)
	}

	var cache services.Cache
	if cfg.RedisURL != "" {
		redisCache, err := services.NewRedisCache(cfg.RedisURL, "autobuy")
		if err != nil {
			log.Printf("Warning: Redis unavailable, egg lookups will not be cached: %v", err)
		} else {
			defer redisCache.Close()
			cache = redisCache
		}
	}

	var botAPI *tgbotapi.BotAPI
	if cfg.Telegram.BotToken != "" {
		botAPI, err = tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
		if err != nil {
			log.Printf("Warning: Telegram bot initialization failed: %v", err)
		} else {
			log.Printf("Authorized on account %s", botAPI.Self.UserName)
		}
	}
	notifier := buildNotifier(cfg, botAPI)

	// Services
	catalog := models.NewCatalog(cfg.Prices)
	gateway := buildGateway(cfg)
	panel := services.NewPterodactylService(cfg.Panel.Domain, cfg.Panel.AppKey, cfg.Panel.Location, cfg.Panel.Nest, cfg.Panel.Egg, cache)
	transactionService := services.NewTransactionService(services.NewTransactionStore(), gateway, panel, notifier, catalog, services.NewPNGQRRenderer())
	userService := services.NewUserService(records)
	couponService := services.NewCouponService(records, notifier)
	orderService := services.NewOrderService(transactionService, couponService, userService)

	// Background jobs
	registry := tasks.NewRegistry()
	tasks.DefineTasks(registry, transactionService, couponService)
	scheduler := tasks.NewScheduler(registry)
	if err := scheduler.Schedule(tasks.SweepTransactionsTaskID, cfg.Schedule.SweepTransactions); err != nil {
		log.Fatalf("Failed to schedule %s: %v", tasks.SweepTransactionsTaskID, err)
	}
	if err := scheduler.Schedule(tasks.CleanupDiscountsTaskID, cfg.Schedule.CleanupDiscounts); err != nil {
		log.Fatalf("Failed to schedule %s: %v", tasks.CleanupDiscountsTaskID, err)
	}
	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer scheduler.Stop()

	if botAPI != nil {
		adminBot := bot.New(botAPI, cfg.Telegram.AdminID, userService, couponService, transactionService)
		go func() {
			if err := adminBot.Run(ctx); err != nil {
				log.Printf("Telegram bot stopped: %v", err)
			}
		}()
	}

	// Admin routes stay open when Firebase is not configured
	requireAdmin := authMiddleware.RequireAdmin(nil, cfg.AdminEmail)
	if cfg.FirebaseCredentialsPath != "" {
		authClient, err := services.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			log.Printf("Warning: Firebase initialization failed: %v", err)
			log.Println("Admin routes will reject every request until valid credentials are provided")
			requireAdmin = denyAll
		} else {
			requireAdmin = authMiddleware.RequireAdmin(authClient, cfg.AdminEmail)
		}
	} else {
		log.Println("Warning: FIREBASE_CREDENTIALS_PATH not set, admin routes are unauthenticated")
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = authMiddleware.CustomErrorHandler

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Static file serving
	e.Static("/static", "web/static")

	handlers.RegisterRoutes(e, handlers.Handlers{
		Public:  handlers.NewPublicHandler(catalog, transactionService),
		Orders:  handlers.NewOrderHandler(orderService, transactionService),
		Users:   handlers.NewUserHandler(userService),
		Coupons: handlers.NewCouponHandler(couponService),
		Admin:   handlers.NewAdminHandler(scheduler),
	}, requireAdmin)

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown failed: %v", err)
	}
}

func openRecordStore(cfg config.Config) (store.Store, error) {
	if cfg.DatabaseURL == "" {
		log.Printf("DATABASE_URL not set, storing records in %s", cfg.DataDir)
		return store.NewFileStore(cfg.DataDir)
	}

	db, err := store.InitDB(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := store.AutoMigrate(db); err != nil {
		return nil, err
	}
	return store.NewGormStore(db), nil
}

func buildGateway(cfg config.Config) services.PaymentGateway {
	if cfg.Payment.Provider == config.ProviderMidtrans {
		log.Println("Using Midtrans QRIS gateway")
		return services.NewMidtransGateway(cfg.Payment.MidtransServerKey, cfg.Payment.MidtransClientKey, cfg.Payment.MidtransAcquirer, cfg.Payment.MidtransIsProd)
	}
	log.Println("Using Atlantic QRIS gateway")
	return services.NewAtlanticGateway(cfg.Payment.AtlanticBaseURL, cfg.Payment.AtlanticAPIKey)
}

func buildNotifier(cfg config.Config, botAPI *tgbotapi.BotAPI) services.Notifier {
	var sinks services.MultiNotifier
	if botAPI != nil && cfg.Telegram.AdminID != 0 {
		sinks = append(sinks, services.NewTelegramNotifier(botAPI, cfg.Telegram.AdminID))
	}
	if cfg.AdminEmail != "" {
		email := services.NewEmailNotifier(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From, cfg.AdminEmail)
		if email.Configured() {
			sinks = append(sinks, email)
		}
	}
	if len(sinks) == 0 {
		log.Println("Warning: no notification channel configured, admin notifications are dropped")
		return services.NopNotifier{}
	}
	return sinks
}

func denyAll(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "admin authentication unavailable")
	}
}
