package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/weather-etl-pipeline/internal/pipeline"
	"github.com/i474232898/weather-etl-pipeline/internal/weather"
	"github.com/i474232898/weather-etl-pipeline/internal/weather/providers"
)

const (
	BackendS3     = "s3"
	BackendMemory = "memory"
)

// DefaultCities is the location list used when none is configured.
var DefaultCities = []string{
	"Mumbai", "New Delhi", "Bangalore", "Chennai",
	"Kolkata", "Hyderabad", "Ahmedabad", "Pune",
}

var validate = validator.New()

// WeatherConfig configures the collector's provider calls.
type WeatherConfig struct {
	APIKey     string             `validate:"required"`
	BaseURL    string             `validate:"required,url"`
	Locations  []weather.Location `validate:"required,min=1,dive"`
	MaxRetries int                `validate:"gte=0"`

	// BreakerThreshold opens the provider circuit after that many consecutive
	// failures. Zero keeps it closed so no location is ever skipped by it.
	BreakerThreshold int `validate:"gte=0"`

	// RequestDelay is the fixed spacing between consecutive provider requests.
	RequestDelay time.Duration `validate:"gte=0"`
	HTTPTimeout  time.Duration `validate:"gte=0"`
}

// StorageConfig configures where objects live.
type StorageConfig struct {
	// Bucket is where the collector writes; the transformer takes its bucket from the event.
	Bucket          string `validate:"required"`
	RawPrefix       string `validate:"required"`
	ProcessedPrefix string `validate:"required,nefield=RawPrefix"`
	ForcePathStyle  bool
	Backend         string `validate:"oneof=s3 memory"`
}

// ServerConfig configures the local runner.
type ServerConfig struct {
	Port            string `validate:"required,numeric"`
	CollectSchedule string
}

type AppConfig struct {
	Weather  WeatherConfig
	Storage  StorageConfig
	Server   ServerConfig
	LogLevel string
}

// Load reads configuration from environment with sensible defaults.
// A .env file in the working directory is loaded first when present.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debugf("config: no .env file loaded: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Weather.APIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.Weather.BaseURL = getenvDefault("WEATHERAPI_BASE_URL", providers.DefaultWeatherAPIBaseURL)
	retries, err := getenvInt("WEATHERAPI_MAX_RETRIES", 0)
	if err != nil {
		return nil, err
	}
	cfg.Weather.MaxRetries = retries

	threshold, err := getenvInt("WEATHERAPI_BREAKER_THRESHOLD", 0)
	if err != nil {
		return nil, err
	}
	cfg.Weather.BreakerThreshold = threshold

	delay, err := getenvDuration("REQUEST_DELAY", "1s")
	if err != nil {
		return nil, err
	}
	cfg.Weather.RequestDelay = delay

	timeout, err := getenvDuration("HTTP_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	cfg.Weather.HTTPTimeout = timeout

	locs, err := loadLocations()
	if err != nil {
		return nil, err
	}
	cfg.Weather.Locations = locs

	cfg.Storage.Bucket = os.Getenv("S3_BUCKET")
	cfg.Storage.RawPrefix = strings.Trim(getenvDefault("RAW_PREFIX", pipeline.DefaultRawPrefix), "/")
	cfg.Storage.ProcessedPrefix = strings.Trim(getenvDefault("PROCESSED_PREFIX", pipeline.DefaultProcessedPrefix), "/")
	cfg.Storage.ForcePathStyle = getenvBool("S3_FORCE_PATH_STYLE", false)
	cfg.Storage.Backend = strings.ToLower(getenvDefault("STORAGE_BACKEND", BackendS3))

	cfg.Server.Port = getenvDefault("PORT", "8080")
	cfg.Server.CollectSchedule = getenvDefault("COLLECT_SCHEDULE", "0 6 * * *")

	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")

	return cfg, nil
}

// ValidateCollector checks everything the collector needs to run.
func (c *AppConfig) ValidateCollector() error {
	if err := validate.Struct(c.Weather); err != nil {
		return fmt.Errorf("invalid weather config: %w", err)
	}
	if err := validate.Struct(c.Storage); err != nil {
		return fmt.Errorf("invalid storage config: %w", err)
	}
	return nil
}

// ValidateTransformer checks the key convention only; bucket and key arrive with the event.
func (c *AppConfig) ValidateTransformer() error {
	if err := validate.StructPartial(c.Storage, "RawPrefix", "ProcessedPrefix", "Backend"); err != nil {
		return fmt.Errorf("invalid storage config: %w", err)
	}
	return nil
}

// ValidateServer checks the local runner settings on top of both functions.
func (c *AppConfig) ValidateServer() error {
	if err := c.ValidateCollector(); err != nil {
		return err
	}
	if err := validate.Struct(c.Server); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}
	return nil
}

type locationsFile struct {
	Locations []weather.Location `yaml:"locations"`
}

// loadLocations prefers LOCATIONS_FILE, then the comma separated
// WEATHER_LOCATION_CITY / WEATHER_LOCATION_COUNTRY pair, then DefaultCities.
func loadLocations() ([]weather.Location, error) {
	if path := os.Getenv("LOCATIONS_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read LOCATIONS_FILE: %w", err)
		}
		var f locationsFile
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("parse LOCATIONS_FILE: %w", err)
		}
		return f.Locations, nil
	}

	city := os.Getenv("WEATHER_LOCATION_CITY")
	if city == "" {
		locs := make([]weather.Location, 0, len(DefaultCities))
		for _, c := range DefaultCities {
			locs = append(locs, weather.Location{City: c})
		}
		return locs, nil
	}

	cities := splitList(city)
	var countries []string
	if country := os.Getenv("WEATHER_LOCATION_COUNTRY"); country != "" {
		countries = splitList(country)
		if len(cities) != len(countries) {
			return nil, fmt.Errorf("number of cities and countries must be the same")
		}
	}

	var locs []weather.Location
	for i := range cities {
		loc := weather.Location{City: cities[i]}
		if countries != nil {
			loc.Country = countries[i]
		}
		locs = append(locs, loc)
	}

	return locs, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
