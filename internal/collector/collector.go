package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/i474232898/weather-etl-pipeline/internal/logging"
	"github.com/i474232898/weather-etl-pipeline/internal/pipeline"
	"github.com/i474232898/weather-etl-pipeline/internal/storage"
	"github.com/i474232898/weather-etl-pipeline/internal/weather"
)

// ErrNoRecords is returned when every location failed to fetch.
var ErrNoRecords = errors.New("failed to retrieve weather data")

// Config holds the collector's fixed inputs.
type Config struct {
	Bucket    string
	RawPrefix string
	Locations []weather.Location

	// Delay is the fixed spacing between provider requests. Zero disables it.
	Delay time.Duration
}

// Collector fetches current weather for every configured location and persists
// the successful responses as one raw JSON document per day.
type Collector struct {
	fetcher weather.Fetcher
	store   storage.ObjectStore
	cfg     Config
	limiter *rate.Limiter
	now     func() time.Time
}

// New creates a new Collector.
func New(fetcher weather.Fetcher, store storage.ObjectStore, cfg Config) *Collector {
	if cfg.RawPrefix == "" {
		cfg.RawPrefix = pipeline.DefaultRawPrefix
	}

	limit := rate.Inf
	if cfg.Delay > 0 {
		limit = rate.Every(cfg.Delay)
	}

	return &Collector{
		fetcher: fetcher,
		store:   store,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		now:     time.Now,
	}
}

// Handle is the Lambda entry point. The scheduled event payload is ignored and the
// outcome is always reported through the response, never as an error.
func (c *Collector) Handle(ctx context.Context, _ json.RawMessage) (pipeline.Response, error) {
	return c.Run(ctx), nil
}

// Run performs one collection: fetch all locations, then write the batch.
func (c *Collector) Run(ctx context.Context) pipeline.Response {
	log := logging.ForRun("collector")

	batch, err := c.collect(ctx, log)
	if err != nil {
		log.WithError(err).Error("collector: nothing to store")
		return pipeline.Failure("failed to retrieve weather data", unwrapNoRecords(err))
	}

	key := pipeline.RawKey(c.cfg.RawPrefix, c.now())
	body, err := batch.Marshal()
	if err != nil {
		log.WithError(err).Error("collector: failed to serialize batch")
		return pipeline.Failure("error serializing weather data", err)
	}

	if err := c.store.PutObject(ctx, c.cfg.Bucket, key, body, pipeline.ContentTypeJSON); err != nil {
		log.WithError(err).WithField("key", key).Error("collector: failed to write raw batch")
		return pipeline.Failure("error dumping JSON to storage", err)
	}

	location := fmt.Sprintf("s3://%s/%s", c.cfg.Bucket, key)
	log.WithFields(logrus.Fields{
		"records": len(batch),
		"bytes":   len(body),
	}).Infof("collector: dumped raw batch to %s", location)

	return pipeline.OK("JSON dumped to " + location)
}

// Collect fetches every configured location and returns the successful records in
// configuration order. ErrNoRecords is returned when none succeeded.
func (c *Collector) Collect(ctx context.Context) (weather.Batch, error) {
	return c.collect(ctx, logging.ForRun("collector"))
}

func (c *Collector) collect(ctx context.Context, log *logrus.Entry) (weather.Batch, error) {
	batch := make(weather.Batch, 0, len(c.cfg.Locations))

	for _, loc := range c.cfg.Locations {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait canceled: %w", err)
		}

		log.Debugf("collector: fetching data for %s", loc.Query())
		rec, err := c.fetcher.Fetch(ctx, loc)
		if err != nil {
			log.WithError(err).Warnf("collector: %s fetch failed for %s; skipping", c.fetcher.Name(), loc.Key())
			continue
		}
		batch = append(batch, rec)
	}

	log.Infof("collector: fetched %d of %d locations", len(batch), len(c.cfg.Locations))

	if len(batch) == 0 {
		return nil, ErrNoRecords
	}
	return batch, nil
}

// unwrapNoRecords keeps the failure body stable for the total-failure case.
func unwrapNoRecords(err error) error {
	if errors.Is(err, ErrNoRecords) {
		return nil
	}
	return err
}
