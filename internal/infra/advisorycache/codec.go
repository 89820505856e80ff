package advisorycache

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yanqian/travel-advisor/internal/domain/advisory"
	apperrors "github.com/yanqian/travel-advisor/pkg/errors"
)

// DefaultKey is the fixed key the bulletin snapshot lives under.
const DefaultKey = "travel_advisories_cache"

func encodeEntry(entry advisory.CacheEntry) ([]byte, error) {
	if entry.Bulletins == nil {
		entry.Bulletins = []advisory.Bulletin{}
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("encode cache entry: %w", err)
	}
	return payload, nil
}

// decodeEntry parses the stored {"timestamp","data"} document. Anything that
// does not parse, or carries no timestamp, is reported as cache_corrupt.
func decodeEntry(payload []byte) (advisory.CacheEntry, error) {
	var wire struct {
		Timestamp *int64              `json:"timestamp"`
		Data      []advisory.Bulletin `json:"data"`
	}
	if err := json.Unmarshal(payload, &wire); err != nil {
		return advisory.CacheEntry{}, apperrors.Wrap(advisory.CodeCacheCorrupt, "decode cached bulletins", err)
	}
	if wire.Timestamp == nil {
		return advisory.CacheEntry{}, apperrors.Wrap(advisory.CodeCacheCorrupt, "decode cached bulletins", errors.New("timestamp missing"))
	}
	if wire.Data == nil {
		wire.Data = []advisory.Bulletin{}
	}
	return advisory.CacheEntry{FetchedAt: *wire.Timestamp, Bulletins: wire.Data}, nil
}

func normalizeKey(key string) string {
	if key == "" {
		return DefaultKey
	}
	return key
}
