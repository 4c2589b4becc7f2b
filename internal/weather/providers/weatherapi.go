package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/i474232898/weather-etl-pipeline/internal/weather"
	"github.com/sony/gobreaker"
)

// DefaultWeatherAPIBaseURL is the WeatherAPI.com v1 root.
const DefaultWeatherAPIBaseURL = "https://api.weatherapi.com/v1"

var errInvalidPayload = errors.New("response body is not valid JSON")

// WeatherAPIProvider implements the weather.Fetcher interface for WeatherAPI.com.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// WeatherAPIOptions tunes resilience. The zero value attempts each request once and
// never lets the circuit breaker skip a request.
type WeatherAPIOptions struct {
	MaxRetries int

	// BreakerThreshold is the number of consecutive failures that opens the circuit.
	// Zero disables the breaker.
	BreakerThreshold int
}

// NewWeatherAPIProvider builds a provider hitting <baseURL>/current.json.
// An empty baseURL falls back to DefaultWeatherAPIBaseURL.
func NewWeatherAPIProvider(client *http.Client, apiKey, baseURL string, opts WeatherAPIOptions) *WeatherAPIProvider {
	if baseURL == "" {
		baseURL = DefaultWeatherAPIBaseURL
	}

	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      opts.MaxRetries,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: newCircuitBreaker("weatherapi", opts.BreakerThreshold),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

// Fetch returns the current-conditions payload for loc untouched.
func (p *WeatherAPIProvider) Fetch(ctx context.Context, loc weather.Location) (weather.Record, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("weatherapi api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		values.Set("q", loc.Query())

		u := fmt.Sprintf("%s/current.json?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if !json.Valid(body) {
		return nil, errInvalidPayload
	}

	return weather.Record(body), nil
}
