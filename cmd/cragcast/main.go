package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/cragcast/cragcast/internal/alert"
	httpapi "github.com/cragcast/cragcast/internal/api/http"
	"github.com/cragcast/cragcast/internal/catalog"
	"github.com/cragcast/cragcast/internal/config"
	"github.com/cragcast/cragcast/internal/discovery"
	"github.com/cragcast/cragcast/internal/forecast"
	"github.com/cragcast/cragcast/internal/mail"
	"github.com/cragcast/cragcast/internal/scheduler"
	"github.com/cragcast/cragcast/internal/store"
	"github.com/cragcast/cragcast/internal/subscribe"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Static catalog of crags per origin city.
	cat, err := catalog.Load(cfg.CatalogDir)
	if err != nil {
		log.Fatalf("failed to load catalog: %v", err)
	}

	// Subscription store: Postgres when configured, in-memory otherwise.
	var subStore store.Store
	if cfg.DBURI != "" {
		pg, err := store.NewPostgresStore(cfg.DBURI)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer pg.Close()

		if err := pg.EnsureSchema(context.Background()); err != nil {
			log.Fatalf("failed to prepare database: %v", err)
		}
		subStore = pg
	} else {
		log.Println("INFO: DB_URI not set; subscriptions are kept in memory only")
		subStore = store.NewMemoryStore()
	}

	// Mail sender: SMTP relay when configured, log fallback otherwise.
	var sender mail.Sender
	if cfg.Mail.Configured() {
		sender = mail.NewSMTPSender(cfg.Mail)
	} else {
		log.Println("INFO: SMTP relay not configured; mail goes to the log")
		sender = mail.LogSender{}
	}

	forecastClient := forecast.NewOpenWeatherClient(httpClient, cfg.WeatherAPIKey)

	discoveryService := discovery.NewService(cat, forecastClient)
	subscribeService := subscribe.NewService(subStore, sender)
	scanner := alert.NewScanner(subStore, forecastClient, sender)

	// Scheduler that periodically runs the alert scan.
	sched := scheduler.New(scanner, cfg.CheckInterval)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "cragcast",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "cragcast",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, discoveryService, subscribeService, scanner)

	// Start server with graceful shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
