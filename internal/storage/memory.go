package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// CreatedFunc is invoked after an object has been written, mirroring an
// ObjectCreated notification.
type CreatedFunc func(bucket, key string)

// MemoryStore is a concurrency-safe in-memory implementation of ObjectStore.
type MemoryStore struct {
	mu sync.RWMutex

	// key: bucket, value: objects by key
	data map[string]map[string]Object

	subscribers []CreatedFunc
	now         func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]map[string]Object),
		now:  time.Now,
	}
}

// Subscribe registers fn to be called on its own goroutine after every successful put.
func (s *MemoryStore) Subscribe(fn CreatedFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// PutObject stores a copy of body, replacing any existing object at the same key.
func (s *MemoryStore) PutObject(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	obj := Object{
		Bucket:       bucket,
		Key:          key,
		Body:         append([]byte(nil), body...),
		ContentType:  contentType,
		LastModified: s.now().UTC(),
	}

	s.mu.Lock()
	objects, ok := s.data[bucket]
	if !ok {
		objects = make(map[string]Object)
		s.data[bucket] = objects
	}
	objects[key] = obj
	subs := append([]CreatedFunc(nil), s.subscribers...)
	s.mu.Unlock()

	for _, fn := range subs {
		go fn(bucket, key)
	}
	return nil
}

// GetObject returns a copy of the object body.
func (s *MemoryStore) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := s.Stat(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	return obj.Body, nil
}

// Stat returns the full object, including its content type.
func (s *MemoryStore) Stat(ctx context.Context, bucket, key string) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.data[bucket][key]
	if !ok {
		return Object{}, ErrNotFound
	}
	obj.Body = append([]byte(nil), obj.Body...)
	return obj, nil
}

// DeleteObject removes the object. Deleting a missing key is not an error, as with S3.
func (s *MemoryStore) DeleteObject(ctx context.Context, bucket, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if objects, ok := s.data[bucket]; ok {
		delete(objects, key)
	}
	return nil
}

// ListObjects returns the objects under prefix sorted by key.
func (s *MemoryStore) ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []ObjectInfo
	for key, obj := range s.data[bucket] {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		result = append(result, ObjectInfo{
			Key:          key,
			Size:         int64(len(obj.Body)),
			LastModified: obj.LastModified,
		})
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result, nil
}
