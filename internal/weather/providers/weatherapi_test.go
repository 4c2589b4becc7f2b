package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/i474232898/weather-etl-pipeline/internal/weather"
)

// mockRoundTripper serves requests from an in-process handler.
type mockRoundTripper struct {
	handler http.Handler
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	rec := httptest.NewRecorder()
	m.handler.ServeHTTP(rec, req)
	return rec.Result(), nil
}

type failingRoundTripper struct{}

func (failingRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

func newTestProvider(handler http.Handler, maxRetries int) *WeatherAPIProvider {
	client := &http.Client{Transport: &mockRoundTripper{handler: handler}}
	p := NewWeatherAPIProvider(client, "test-key", "https://api.example.test/v1/", WeatherAPIOptions{MaxRetries: maxRetries})
	p.httpCfg.Backoff.InitialInterval = 1
	p.httpCfg.Backoff.MaxInterval = 1
	return p
}

func TestWeatherAPIFetchSendsKeyAndQuery(t *testing.T) {
	payload := `{"location":{"name":"New Delhi"},"current":{"temp_c":31.5}}`

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/current.json" {
			t.Errorf("expected path /v1/current.json, got %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("expected key=test-key, got %s", r.URL.Query().Get("key"))
		}
		if r.URL.Query().Get("q") != "New Delhi" {
			t.Errorf("expected q=New Delhi, got %s", r.URL.Query().Get("q"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	})

	rec, err := newTestProvider(handler, 0).Fetch(context.Background(), weather.Location{City: "New Delhi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(rec) != payload {
		t.Fatalf("expected raw payload %s, got %s", payload, rec)
	}
}

func TestWeatherAPIFetchNonSuccessStatus(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":1006,"message":"No matching location found."}}`))
	})

	_, err := newTestProvider(handler, 0).Fetch(context.Background(), weather.Location{City: "Atlantis"})
	if !errors.Is(err, errUnexpected) {
		t.Fatalf("expected errUnexpected, got %v", err)
	}
}

func TestWeatherAPIFetchDoesNotRetryByDefault(t *testing.T) {
	var calls int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := newTestProvider(handler, 0).Fetch(context.Background(), weather.Location{City: "Pune"})
	if !errors.Is(err, errServerError) {
		t.Fatalf("expected errServerError, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected exactly one request, got %d", got)
	}
}

func TestWeatherAPIFetchRetriesWhenConfigured(t *testing.T) {
	var calls int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	})

	rec, err := newTestProvider(handler, 2).Fetch(context.Background(), weather.Location{City: "Pune"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(rec) != `{"ok":true}` {
		t.Fatalf("unexpected payload %s", rec)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 requests, got %d", got)
	}
}

func TestWeatherAPIFetchRejectsInvalidJSON(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>maintenance</html>"))
	})

	_, err := newTestProvider(handler, 0).Fetch(context.Background(), weather.Location{City: "Pune"})
	if !errors.Is(err, errInvalidPayload) {
		t.Fatalf("expected errInvalidPayload, got %v", err)
	}
}

func TestWeatherAPIFetchNetworkError(t *testing.T) {
	client := &http.Client{Transport: failingRoundTripper{}}
	p := NewWeatherAPIProvider(client, "test-key", "", WeatherAPIOptions{})

	_, err := p.Fetch(context.Background(), weather.Location{City: "Pune"})
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected connection error, got %v", err)
	}
}

func TestWeatherAPIFetchRequiresKey(t *testing.T) {
	p := NewWeatherAPIProvider(http.DefaultClient, "", "", WeatherAPIOptions{})
	if _, err := p.Fetch(context.Background(), weather.Location{City: "Pune"}); err == nil {
		t.Fatalf("expected error for missing api key")
	}
}

func TestWeatherAPIBreakerDisabledByDefault(t *testing.T) {
	var calls int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	})
	p := newTestProvider(handler, 0)

	for i := 0; i < 20; i++ {
		_, err := p.Fetch(context.Background(), weather.Location{City: "Atlantis"})
		if errors.Is(err, errCircuitOpen) {
			t.Fatalf("request %d: breaker opened without a threshold", i)
		}
	}
	if got := atomic.LoadInt32(&calls); got != 20 {
		t.Fatalf("expected 20 requests to reach the server, got %d", got)
	}
}

func TestWeatherAPIBreakerOpensAtThreshold(t *testing.T) {
	var calls int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	client := &http.Client{Transport: &mockRoundTripper{handler: handler}}
	p := NewWeatherAPIProvider(client, "test-key", "", WeatherAPIOptions{BreakerThreshold: 3})

	for i := 0; i < 3; i++ {
		p.Fetch(context.Background(), weather.Location{City: "Pune"})
	}
	if _, err := p.Fetch(context.Background(), weather.Location{City: "Pune"}); !errors.Is(err, errCircuitOpen) {
		t.Fatalf("expected errCircuitOpen after 3 failures, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 requests before opening, got %d", got)
	}
}
