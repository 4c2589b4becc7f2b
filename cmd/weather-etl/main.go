package main

import (
	"context"
	"net/http"
	"net/url"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	log "github.com/sirupsen/logrus"

	httpapi "github.com/i474232898/weather-etl-pipeline/internal/api/http"
	"github.com/i474232898/weather-etl-pipeline/internal/collector"
	"github.com/i474232898/weather-etl-pipeline/internal/config"
	"github.com/i474232898/weather-etl-pipeline/internal/logging"
	"github.com/i474232898/weather-etl-pipeline/internal/scheduler"
	"github.com/i474232898/weather-etl-pipeline/internal/storage"
	"github.com/i474232898/weather-etl-pipeline/internal/transformer"
	"github.com/i474232898/weather-etl-pipeline/internal/weather/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := logging.Init(cfg.LogLevel); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	var store storage.ObjectStore
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		store = memoryStore()
	default:
		store, err = storage.NewS3StoreFromEnv(context.Background(), cfg.Storage.ForcePathStyle)
		if err != nil {
			log.Fatalf("failed to create S3 client: %v", err)
		}
	}

	httpClient := &http.Client{Timeout: cfg.Weather.HTTPTimeout}
	provider := providers.NewWeatherAPIProvider(httpClient, cfg.Weather.APIKey, cfg.Weather.BaseURL, providers.WeatherAPIOptions{
		MaxRetries:       cfg.Weather.MaxRetries,
		BreakerThreshold: cfg.Weather.BreakerThreshold,
	})

	coll := collector.New(provider, store, collector.Config{
		Bucket:    cfg.Storage.Bucket,
		RawPrefix: cfg.Storage.RawPrefix,
		Locations: cfg.Weather.Locations,
		Delay:     cfg.Weather.RequestDelay,
	})
	trans := transformer.New(store, transformer.Config{
		RawPrefix:       cfg.Storage.RawPrefix,
		ProcessedPrefix: cfg.Storage.ProcessedPrefix,
	})

	if ms, ok := store.(*storage.MemoryStore); ok {
		ms.Subscribe(notifyTransformer(trans, cfg.Storage.RawPrefix))
	}

	sched := scheduler.New(cfg.Server.CollectSchedule, coll)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-etl",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
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

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-etl",
			"storage": cfg.Storage.Backend,
		})
	})

	httpapi.RegisterRoutes(app, httpapi.Deps{
		Collector:   coll,
		Transformer: trans,
		Store:       store,
		Bucket:      cfg.Storage.Bucket,
	})

	go func() {
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Errorf("fiber server stopped: %v", err)
		}
	}()
	log.Infof("weather-etl listening on :%s (storage=%s)", cfg.Server.Port, cfg.Storage.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Errorf("error during shutdown: %v", err)
	}
}

func memoryStore() *storage.MemoryStore {
	log.Warn("using in-memory storage; objects are lost on exit")
	return storage.NewMemoryStore()
}

// notifyTransformer emulates the S3 ObjectCreated trigger filtered on the raw prefix.
// Keys are encoded the way S3 encodes them in notifications.
func notifyTransformer(t *transformer.Transformer, rawPrefix string) storage.CreatedFunc {
	prefix := strings.Trim(rawPrefix, "/") + "/"
	return func(bucket, key string) {
		if !strings.HasPrefix(key, prefix) {
			return
		}
		event := events.S3Event{
			Records: []events.S3EventRecord{{
				EventSource: "aws:s3",
				EventName:   "ObjectCreated:Put",
				S3: events.S3Entity{
					Bucket: events.S3Bucket{Name: bucket},
					Object: events.S3Object{Key: encodeKey(key)},
				},
			}},
		}
		resp := t.Run(context.Background(), event)
		log.Infof("local trigger for %s: %d %s", key, resp.StatusCode, resp.Body)
	}
}

func encodeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.QueryEscape(p)
	}
	return strings.Join(parts, "/")
}
