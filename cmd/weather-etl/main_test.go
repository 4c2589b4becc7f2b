package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/i474232898/weather-etl-pipeline/internal/storage"
	"github.com/i474232898/weather-etl-pipeline/internal/transformer"
)

func TestEncodeKeyMatchesS3Notifications(t *testing.T) {
	got := encodeKey("raw_json/New Delhi+1.json")
	if got != "raw_json/New+Delhi%2B1.json" {
		t.Fatalf("unexpected encoded key %q", got)
	}
}

func TestLocalTriggerProcessesRawObjects(t *testing.T) {
	store := storage.NewMemoryStore()
	trans := transformer.New(store, transformer.Config{})
	store.Subscribe(notifyTransformer(trans, "raw_json"))

	ctx := context.Background()
	if err := store.PutObject(ctx, "bucket", "raw_json/output 1.json", []byte(`[{"a":{"b":1}}]`), "application/json"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		body, err := store.GetObject(ctx, "bucket", "processed_data/output 1.csv")
		if err == nil {
			if string(body) != "a_b\n1\n" {
				t.Fatalf("unexpected csv %q", body)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("processed object never appeared: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	// the delete follows the write; give it the same grace period
	for {
		_, err := store.GetObject(ctx, "bucket", "raw_json/output 1.json")
		if errors.Is(err, storage.ErrNotFound) {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("raw object was not deleted")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
