package pipeline

import (
	"net/url"
	"path"
	"strings"
	"time"
)

const (
	// DefaultRawPrefix is where the collector writes raw batches.
	DefaultRawPrefix = "raw_json"
	// DefaultProcessedPrefix is where the transformer writes flattened tables.
	DefaultProcessedPrefix = "processed_data"

	ContentTypeJSON = "application/json"
	ContentTypeCSV  = "text/csv"

	rawExt       = ".json"
	processedExt = ".csv"
)

// RawKey returns the object key of the raw batch for the UTC calendar day of t.
// Two runs on the same day share the key; the later write wins.
func RawKey(prefix string, t time.Time) string {
	name := "output_" + t.UTC().Format("2006-01-02") + rawExt
	return joinKey(prefix, name)
}

// ProcessedKey derives the processed table key from a raw batch key by moving it from
// the raw prefix to the processed prefix and swapping the extension for .csv.
func ProcessedKey(rawPrefix, processedPrefix, rawKey string) string {
	rel := rawKey
	if p := strings.Trim(rawPrefix, "/"); p != "" {
		rel = strings.TrimPrefix(rel, p+"/")
	}

	if ext := path.Ext(rel); ext != "" {
		rel = strings.TrimSuffix(rel, ext)
	}

	return joinKey(processedPrefix, rel+processedExt)
}

// DecodeKey undoes the form encoding S3 applies to keys in event notifications,
// where a space arrives as "+" and other bytes as %XX. Malformed escapes such as
// "%zz" are rejected rather than passed through.
func DecodeKey(key string) (string, error) {
	return url.QueryUnescape(key)
}

func joinKey(prefix, name string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
