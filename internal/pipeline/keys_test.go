package pipeline

import (
	"errors"
	"testing"
	"time"
)

func TestRawKeyIsDeterministicPerDay(t *testing.T) {
	morning := time.Date(2025, 9, 13, 6, 0, 0, 0, time.UTC)
	evening := time.Date(2025, 9, 13, 23, 59, 0, 0, time.UTC)

	want := "raw_json/output_2025-09-13.json"
	if got := RawKey(DefaultRawPrefix, morning); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if got := RawKey(DefaultRawPrefix, evening); got != want {
		t.Fatalf("expected same-day key %q, got %q", want, got)
	}
}

func TestRawKeyUsesUTCDate(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	local := time.Date(2025, 9, 14, 2, 0, 0, 0, ist) // still the 13th in UTC

	if got := RawKey("raw_json/", local); got != "raw_json/output_2025-09-13.json" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestProcessedKey(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"raw_json/output_2025-09-13.json", "processed_data/output_2025-09-13.csv"},
		{"raw_json/2025/output.json", "processed_data/2025/output.csv"},
		{"other/output.json", "processed_data/other/output.csv"},
		{"raw_json/no_extension", "processed_data/no_extension.csv"},
		{"raw_json/my file.json", "processed_data/my file.csv"},
	}

	for _, tc := range cases {
		if got := ProcessedKey(DefaultRawPrefix, DefaultProcessedPrefix, tc.raw); got != tc.want {
			t.Errorf("ProcessedKey(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestDecodeKey(t *testing.T) {
	got, err := DecodeKey("raw_json/New+Delhi%2Bextra%20file.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "raw_json/New Delhi+extra file.json" {
		t.Fatalf("unexpected decoded key %q", got)
	}

	if _, err := DecodeKey("raw_json/%zz.json"); err == nil {
		t.Fatalf("expected error for malformed escape")
	}
}

func TestFailureEmbedsCause(t *testing.T) {
	resp := Failure("error dumping JSON", errors.New("access denied"))
	if resp.StatusCode != 500 {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if resp.Body != "error dumping JSON: access denied" {
		t.Fatalf("unexpected body %q", resp.Body)
	}
	if resp.Succeeded() {
		t.Fatalf("failure must not report success")
	}
	if !OK("done").Succeeded() {
		t.Fatalf("OK must report success")
	}
}
