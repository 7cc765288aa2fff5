package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/utils"

	"lurnex_backend/internals/configs"
	database "lurnex_backend/internals/databases"
	scheduler "lurnex_backend/internals/features/users/auth/scheduler"
	authService "lurnex_backend/internals/features/users/auth/service"
	"lurnex_backend/internals/helpers/events"
	"lurnex_backend/internals/helpers/meeting"
	"lurnex_backend/internals/helpers/notify"
	middlewares "lurnex_backend/internals/middlewares"
	routes "lurnex_backend/internals/route"
	"lurnex_backend/internals/seeds"
)

func main() {
	cfg := configs.LoadEnv()

	app := fiber.New(fiber.Config{
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"},
	})

	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New())

	// Request-ID + per-request timeout (matches statement_timeout in the DSN)
	app.Use(func(c *fiber.Ctx) error {
		id := c.Get("X-Request-ID")
		if id == "" {
			id = utils.UUID()
		}
		c.Set("X-Request-ID", id)
		c.Locals("reqid", id)
		start := time.Now()
		ctx, cancel := context.WithTimeout(c.Context(), 15*time.Second)
		defer cancel()
		c.SetUserContext(ctx)
		err := c.Next()
		log.Printf("[REQ] id=%s %s %s status=%d dur=%s", id, c.Method(), c.OriginalURL(), c.Response().StatusCode(), time.Since(start))
		return err
	})

	middlewares.SetupMiddlewares(app, cfg)

	// DB connect + pool + migrations + warm-up
	db := database.ConnectDB(cfg.DB)
	database.TunePool(cfg.DB)
	if cfg.DB.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			log.Fatalf("❌ migrate: %v", err)
		}
	}
	if path := configs.GetEnv("SEED_FILE"); path != "" {
		seeds.RunAllSeeds(db, path)
	}
	database.WarmUpQueries()

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer bootCancel()

	var meetings meeting.Provider = meeting.Unavailable{}
	if cfg.Zoom.Enabled() {
		meetings = meeting.NewZoomClient(context.Background(), cfg.Zoom)
	}

	var notifier notify.Dispatcher = notify.LogDispatcher{}
	if cfg.SMTP.Enabled() {
		loc, err := time.LoadLocation(cfg.SessionTZ)
		if err != nil {
			log.Printf("⚠️ SESSION_TIMEZONE %q invalid, notices use UTC: %v", cfg.SessionTZ, err)
			loc = time.UTC
		}
		notifier = notify.NewSMTPDispatcher(cfg.SMTP, loc)
	}

	var publisher events.Publisher = events.LogPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopicBase)
		if err != nil {
			log.Printf("⚠️ kafka disabled: %v", err)
		} else {
			publisher = kp
		}
	}

	var revocations authService.RevocationStore
	if cfg.RedisURL != "" {
		client, err := authService.ConnectRedis(bootCtx, cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️ redis unavailable, revocations stored in DB: %v", err)
		} else {
			revocations = authService.NewRedisRevocationStore(client)
			defer client.Close()
		}
	}

	// scheduler after DB is ready
	cleanup, err := scheduler.StartRevokedTokenCleanup(db, cfg.CleanupSpec)
	if err != nil {
		log.Fatalf("❌ cleanup scheduler: %v", err)
	}

	routes.SetupRoutes(app, routes.Deps{
		DB:          db,
		Config:      cfg,
		Meetings:    meetings,
		Notifier:    notifier,
		Events:      publisher,
		Revocations: revocations,
	})

	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	go func() {
		log.Printf("✅ Listening on :%s", cfg.Port)
		if err := app.Listen("0.0.0.0:" + cfg.Port); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)

	<-cleanup.Stop().Done()
	if err := publisher.Close(); err != nil {
		log.Printf("publisher close: %v", err)
	}
	database.Close()
}
