// Package docstore wraps the external document store. Documents are redis
// hashes: writes are field-level merges (HSET), numeric counters move only
// through the store's atomic increment primitive (HINCRBY), and a missing
// document is an ordinary condition, not an error.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	// ErrNotFound marks an absent document or field. Callers usually map
	// this to defaults or zero counters.
	ErrNotFound = errors.New("docstore: not found")
	// ErrUnavailable marks a transient store failure.
	ErrUnavailable = errors.New("docstore: unavailable")
)

type Store struct {
	client *redis.Client
	log    *zap.Logger
}

func New(client *redis.Client, log *zap.Logger) *Store {
	return &Store{
		client: client,
		log:    log.Named("docstore"),
	}
}

// GetAll returns every field of the document at key. An absent document
// yields an empty map and no error; HGETALL does not distinguish the two.
func (s *Store) GetAll(ctx context.Context, key string) (map[string]string, error) {
	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	return fields, nil
}

// GetInt reads a single numeric field. The second return value reports
// whether the field was present.
func (s *Store) GetInt(ctx context.Context, key, field string) (int64, bool, error) {
	raw, err := s.client.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, unavailable(err)
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("docstore: field %s.%s is not numeric: %w", key, field, err)
	}
	return value, true, nil
}

// MergeFields writes the given fields, preserving every field not named.
func (s *Store) MergeFields(ctx context.Context, key string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	if err := s.client.HSet(ctx, key, flatten(fields)...).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// IncrBy atomically adds delta to a numeric field, creating document and
// field as needed, and returns the new value.
func (s *Store) IncrBy(ctx context.Context, key, field string, delta int64) (int64, error) {
	value, err := s.client.HIncrBy(ctx, key, field, delta).Result()
	if err != nil {
		return 0, unavailable(err)
	}
	return value, nil
}

// IncrByMerge combines an atomic counter increment with a field merge in a
// single round trip. The increment stays atomic; the merged fields are
// last-write-wins by design.
func (s *Store) IncrByMerge(ctx context.Context, key, field string, delta int64, fields map[string]any) (int64, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.HIncrBy(ctx, key, field, delta)
	if len(fields) > 0 {
		pipe.HSet(ctx, key, flatten(fields)...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, unavailable(err)
	}
	return incr.Val(), nil
}

// Exists reports whether a document exists at key.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, unavailable(err)
	}
	return n > 0, nil
}

// SetIfAbsent creates the document with the given fields only when it does
// not exist yet. Two concurrent callers may both observe "absent" and both
// write; that race is benign because they write the identical payload.
func (s *Store) SetIfAbsent(ctx context.Context, key string, fields map[string]any) (bool, error) {
	exists, err := s.Exists(ctx, key)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := s.MergeFields(ctx, key, fields); err != nil {
		return false, err
	}
	return true, nil
}

// ScanKeys lists every document key matching pattern.
func (s *Store) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, unavailable(err)
	}
	return keys, nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %s", ErrUnavailable, err)
}

func flatten(fields map[string]any) []any {
	flat := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		flat = append(flat, k, v)
	}
	return flat
}
