// Package kvstore is the key/value persistence behind the payment ledger and
// the dashboard preferences.
package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
)

// Store keeps opaque values under string keys and announces every Set to the
// key's subscribers.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	// Subscribe streams values written to key after the call until ctx is done.
	Subscribe(ctx context.Context, key string) (<-chan []byte, error)
}

// GetJSON decodes the value under key into dest. It reports false when the
// key has never been written.
func GetJSON(ctx context.Context, s Store, key string, dest interface{}) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func SetJSON(ctx context.Context, s Store, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}
