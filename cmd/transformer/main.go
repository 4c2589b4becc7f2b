package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	log "github.com/sirupsen/logrus"

	"github.com/i474232898/weather-etl-pipeline/internal/config"
	"github.com/i474232898/weather-etl-pipeline/internal/logging"
	"github.com/i474232898/weather-etl-pipeline/internal/storage"
	"github.com/i474232898/weather-etl-pipeline/internal/transformer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := logging.Init(cfg.LogLevel); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	if err := cfg.ValidateTransformer(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	store, err := storage.NewS3StoreFromEnv(context.Background(), cfg.Storage.ForcePathStyle)
	if err != nil {
		log.Fatalf("failed to create S3 client: %v", err)
	}

	t := transformer.New(store, transformer.Config{
		RawPrefix:       cfg.Storage.RawPrefix,
		ProcessedPrefix: cfg.Storage.ProcessedPrefix,
	})

	lambda.Start(t.Handle)
}
