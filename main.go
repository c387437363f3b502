package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"toto-stream/handlers"
	"toto-stream/middleware"
	"toto-stream/services"
	"toto-stream/store"
	"toto-stream/utils"
	"toto-stream/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 20 * 1024 * 1024, // thumbnails and logos only
	})

	// 🔐 GLOBAL: only Gateway requests allowed
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(allowedOriginsList, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Name, X-User-Avatar, X-User-Roles, Cache-Control",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	if err := utils.InitR2(); err != nil {
		if errors.Is(err, utils.ErrUploadsDisabled) {
			log.Println("⚠️  R2 credentials not set, asset uploads disabled")
		} else {
			log.Fatal("failed to initialize R2 client:", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The production backing store is Postgres; without DATABASE_URL the
	// service runs the offline revision, an in-memory shim with demo data
	// and no durability, satisfying the same store contract.
	var st store.Store
	offline := false
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			log.Fatal("failed to connect to database:", err)
		}
		gs := store.NewGormStore(db)
		if err := gs.AutoMigrate(); err != nil {
			log.Fatal("failed to migrate database:", err)
		}
		st = gs
	} else {
		log.Println("⚠️  DATABASE_URL not set, running the offline in-memory revision (no durability)")
		mem := store.NewMemStore()
		mem.SeedDemo()
		st = mem
		offline = true
	}

	hub := services.NewLiveHub(st)
	settingsService := services.NewSettingsService(st)
	userService := services.NewUserService(st, hub)
	matchService := services.NewMatchService(st, hub)
	chatService := services.NewChatService(st, hub)
	accrualService := services.NewAccrualService(userService)

	// Without an identity provider the personal SSE stream degrades to 503;
	// everything else authenticates through the gateway headers.
	var identityClient *services.IdentityClient
	if identityURL := os.Getenv("IDENTITY_PROVIDER_URL"); identityURL != "" {
		identityClient = services.NewIdentityClient(identityURL, os.Getenv("STREAM_SERVICE_TOKEN"))
	} else {
		log.Println("⚠️  IDENTITY_PROVIDER_URL not set, /user/stream disabled")
	}

	go accrualService.Run(ctx)

	if !offline {
		// In-process writes publish to the hub directly; the poller covers
		// writes committed by other replicas.
		poller := workers.NewChangePoller(st, hub, 2*time.Second)
		go poller.Run(ctx)
	}

	sched := services.StartMaintenanceScheduler(matchService, chatService, accrualService)
	defer func() { _ = sched.Shutdown() }()

	handlers.SetupMatchRoutes(app, matchService, chatService)
	handlers.SetupUserRoutes(app, userService, settingsService)
	handlers.SetupChatRoutes(app, userService, chatService, accrualService)
	handlers.SetupStreamRoutes(app, hub, identityClient, userService)
	handlers.SetupAdminRoutes(app, matchService, settingsService, userService)
	handlers.SetupIdentityRoutes(app, userService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ XP accrual loop running (30s interval, +5 XP)")
	log.Println("✅ GatewayAuthMiddleware enforced globally, all requests must come from Gateway")

	<-ctx.Done()
	log.Println("Shutting down server...")
	_ = app.ShutdownWithTimeout(5 * time.Second)
}
