package advisorycache

import (
	"context"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/travel-advisor/internal/domain/advisory"
)

// ValkeyStore persists the bulletin snapshot in a Valkey-compatible database.
type ValkeyStore struct {
	client valkey.Client
	key    string
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, key string) *ValkeyStore {
	return &ValkeyStore{client: client, key: normalizeKey(key)}
}

func (s *ValkeyStore) Get(ctx context.Context) (advisory.CacheEntry, bool, error) {
	cmd := s.client.B().Get().Key(s.key).Build()
	payload, err := s.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return advisory.CacheEntry{}, false, nil
		}
		return advisory.CacheEntry{}, false, err
	}
	entry, err := decodeEntry(payload)
	if err != nil {
		return advisory.CacheEntry{}, false, err
	}
	return entry, true, nil
}

// Set overwrites the snapshot. No TTL is attached; freshness is judged by the
// resolver from the embedded timestamp.
func (s *ValkeyStore) Set(ctx context.Context, entry advisory.CacheEntry) error {
	payload, err := encodeEntry(entry)
	if err != nil {
		return err
	}
	cmd := s.client.B().Set().Key(s.key).Value(valkey.BinaryString(payload)).Build()
	return s.client.Do(ctx, cmd).Error()
}

var _ advisory.Cache = (*ValkeyStore)(nil)
