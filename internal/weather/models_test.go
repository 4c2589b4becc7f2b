package weather

import (
	"encoding/json"
	"testing"
)

func TestLocationQuery(t *testing.T) {
	if got := (Location{City: "Pune"}).Query(); got != "Pune" {
		t.Fatalf("expected Pune, got %q", got)
	}
	if got := (Location{City: "Paris", Country: "FR"}).Query(); got != "Paris,FR" {
		t.Fatalf("expected Paris,FR, got %q", got)
	}
}

func TestBatchMarshalKeepsRawRecords(t *testing.T) {
	batch := Batch{
		json.RawMessage(`{"location":{"name":"Pune"}}`),
		json.RawMessage(`{"location": {"name": "Mumbai"}}`),
	}

	out, err := batch.Marshal()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `[{"location":{"name":"Pune"}},{"location":{"name":"Mumbai"}}]`
	if string(out) != want {
		t.Fatalf("expected %s, got %s", want, out)
	}
}

func TestEmptyBatchMarshalsAsArray(t *testing.T) {
	out, err := Batch(nil).Marshal()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != "[]" {
		t.Fatalf("expected [], got %s", out)
	}
}
