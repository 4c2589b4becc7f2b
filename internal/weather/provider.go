package weather

import "context"

// Fetcher abstracts a weather data source that returns raw payloads.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, loc Location) (Record, error)
}
