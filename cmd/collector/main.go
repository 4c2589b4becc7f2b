package main

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/lambda"
	log "github.com/sirupsen/logrus"

	"github.com/i474232898/weather-etl-pipeline/internal/collector"
	"github.com/i474232898/weather-etl-pipeline/internal/config"
	"github.com/i474232898/weather-etl-pipeline/internal/logging"
	"github.com/i474232898/weather-etl-pipeline/internal/storage"
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
	if err := cfg.ValidateCollector(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	// Clients live for the whole execution environment and are reused across invocations.
	store, err := storage.NewS3StoreFromEnv(context.Background(), cfg.Storage.ForcePathStyle)
	if err != nil {
		log.Fatalf("failed to create S3 client: %v", err)
	}

	httpClient := &http.Client{Timeout: cfg.Weather.HTTPTimeout}
	provider := providers.NewWeatherAPIProvider(httpClient, cfg.Weather.APIKey, cfg.Weather.BaseURL, providers.WeatherAPIOptions{
		MaxRetries:       cfg.Weather.MaxRetries,
		BreakerThreshold: cfg.Weather.BreakerThreshold,
	})

	c := collector.New(provider, store, collector.Config{
		Bucket:    cfg.Storage.Bucket,
		RawPrefix: cfg.Storage.RawPrefix,
		Locations: cfg.Weather.Locations,
		Delay:     cfg.Weather.RequestDelay,
	})

	log.Infof("collector: ready for %d locations, writing to s3://%s/%s", len(cfg.Weather.Locations), cfg.Storage.Bucket, cfg.Storage.RawPrefix)
	lambda.Start(c.Handle)
}
