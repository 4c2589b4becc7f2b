package weather

import "encoding/json"

// Location represents a place the collector queries.
// City must be provided; Country is optional and narrows ambiguous names.
type Location struct {
	City    string `json:"city" yaml:"city" validate:"required"`
	Country string `json:"country,omitempty" yaml:"country,omitempty"`
}

// Key returns a canonical string key for logging this location.
func (l Location) Key() string {
	return l.City + ":" + l.Country
}

// Query is the free-form location string sent to the provider.
func (l Location) Query() string {
	if l.Country == "" {
		return l.City
	}
	return l.City + "," + l.Country
}

// Record is one provider response exactly as it was received.
// Its structure belongs to the provider and is never validated here.
type Record = json.RawMessage

// Batch is the ordered set of records gathered in one collector run.
type Batch []Record

// Marshal serializes the batch as a single compact JSON array.
func (b Batch) Marshal() ([]byte, error) {
	if b == nil {
		b = Batch{}
	}
	return json.Marshal([]Record(b))
}
