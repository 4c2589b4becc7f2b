package transformer

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus"

	"github.com/i474232898/weather-etl-pipeline/internal/logging"
	"github.com/i474232898/weather-etl-pipeline/internal/pipeline"
	"github.com/i474232898/weather-etl-pipeline/internal/storage"
)

// ErrNoRecordsInEvent is returned for a notification without any record.
var ErrNoRecordsInEvent = errors.New("event contains no records")

// Config holds the key convention shared with the collector.
type Config struct {
	RawPrefix       string
	ProcessedPrefix string
	Separator       string
}

// Transformer converts one raw JSON document into a CSV table and removes the source.
type Transformer struct {
	store storage.ObjectStore
	cfg   Config
}

// New creates a new Transformer.
func New(store storage.ObjectStore, cfg Config) *Transformer {
	if cfg.RawPrefix == "" {
		cfg.RawPrefix = pipeline.DefaultRawPrefix
	}
	if cfg.ProcessedPrefix == "" {
		cfg.ProcessedPrefix = pipeline.DefaultProcessedPrefix
	}
	if cfg.Separator == "" {
		cfg.Separator = DefaultSeparator
	}
	return &Transformer{store: store, cfg: cfg}
}

// Handle is the Lambda entry point for S3 ObjectCreated notifications. The outcome is
// always reported through the response, never as an error.
func (t *Transformer) Handle(ctx context.Context, event events.S3Event) (pipeline.Response, error) {
	return t.Run(ctx, event), nil
}

// Run processes the first record of the notification.
func (t *Transformer) Run(ctx context.Context, event events.S3Event) pipeline.Response {
	log := logging.ForRun("transformer")

	if len(event.Records) == 0 {
		log.Error("transformer: received an event without records")
		return pipeline.Failure("an error occurred", ErrNoRecordsInEvent)
	}
	if len(event.Records) > 1 {
		log.Warnf("transformer: event carries %d records; only the first is processed", len(event.Records))
	}

	rec := event.Records[0].S3
	bucket := rec.Bucket.Name
	key, err := pipeline.DecodeKey(rec.Object.Key)
	if err != nil {
		log.WithError(err).Errorf("transformer: cannot decode key %q", rec.Object.Key)
		return pipeline.Failure("an error occurred", fmt.Errorf("decode key: %w", err))
	}

	log = log.WithFields(logrus.Fields{"bucket": bucket, "key": key})
	log.Info("transformer: processing file")

	if _, err := t.process(ctx, log, bucket, key); err != nil {
		log.WithError(err).Error("transformer: an error occurred")
		return pipeline.Failure("an error occurred", err)
	}

	return pipeline.OK("data processed and dumped to storage, raw file deleted")
}

// Process reads bucket/key, writes the flattened CSV and deletes the source. It
// returns the key of the processed object.
//
// Any failure before the write leaves the source untouched. A failed delete is
// reported even though the processed object already exists.
func (t *Transformer) Process(ctx context.Context, bucket, key string) (string, error) {
	log := logging.ForRun("transformer").WithFields(logrus.Fields{"bucket": bucket, "key": key})
	return t.process(ctx, log, bucket, key)
}

func (t *Transformer) process(ctx context.Context, log *logrus.Entry, bucket, key string) (string, error) {
	raw, err := t.store.GetObject(ctx, bucket, key)
	if err != nil {
		return "", fmt.Errorf("read raw document: %w", err)
	}

	table, err := Flatten(raw, t.cfg.Separator)
	if err != nil {
		return "", fmt.Errorf("parse raw document: %w", err)
	}
	rows, cols := table.Shape()
	log.Infof("transformer: data has been flattened, shape (%d, %d)", rows, cols)

	out, err := table.CSV()
	if err != nil {
		return "", fmt.Errorf("encode csv: %w", err)
	}

	outKey := pipeline.ProcessedKey(t.cfg.RawPrefix, t.cfg.ProcessedPrefix, key)
	if err := t.store.PutObject(ctx, bucket, outKey, out, pipeline.ContentTypeCSV); err != nil {
		return "", fmt.Errorf("write processed table: %w", err)
	}
	log.Infof("transformer: dumped processed data to s3://%s/%s", bucket, outKey)

	if err := t.store.DeleteObject(ctx, bucket, key); err != nil {
		return outKey, fmt.Errorf("delete raw document (processed copy kept at %s): %w", outKey, err)
	}
	log.Info("transformer: deleted raw JSON file")

	return outKey, nil
}
