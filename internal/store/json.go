package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// LoadJSON decodes the document under key into dst. It reports false with a
// nil error when the key is absent, leaving dst untouched.
func LoadJSON(ctx context.Context, kv KV, key string, dst any) (bool, error) {
	raw, err := kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}

// EncodeJSON serializes v into a batch entry for key.
func EncodeJSON(key string, v any) (Entry, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Entry{}, fmt.Errorf("encoding %s: %w", key, err)
	}
	return Entry{Key: key, Value: raw}, nil
}

// SaveJSON serializes v and stores it under key.
func SaveJSON(ctx context.Context, kv KV, key string, v any) error {
	e, err := EncodeJSON(key, v)
	if err != nil {
		return err
	}
	return kv.Set(ctx, e.Key, e.Value)
}
