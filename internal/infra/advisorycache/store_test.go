package advisorycache

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/travel-advisor/internal/domain/advisory"
	apperrors "github.com/yanqian/travel-advisor/pkg/errors"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore("")
	ctx := context.Background()

	_, found, err := store.Get(ctx)
	require.NoError(t, err)
	require.False(t, found)

	entry := advisory.CacheEntry{
		FetchedAt: 1710406800000,
		Bulletins: []advisory.Bulletin{
			{Title: "Chad Level 4", Summary: "<p>x</p>", Link: "https://x/chad"},
			{Title: "France Level 2"},
		},
	}
	require.NoError(t, store.Set(ctx, entry))

	got, found, err := store.Get(ctx)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, entry, got)
}

func TestMemoryStoreOverwrites(t *testing.T) {
	store := NewMemoryStore("k")
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, advisory.CacheEntry{FetchedAt: 1}))
	require.NoError(t, store.Set(ctx, advisory.CacheEntry{FetchedAt: 2, Bulletins: []advisory.Bulletin{{Title: "Peru"}}}))

	got, found, err := store.Get(ctx)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int64(2), got.FetchedAt)
	require.Len(t, got.Bulletins, 1)
}

func TestMemoryStoreCorruptPayload(t *testing.T) {
	store := NewMemoryStore("")
	store.SetRaw([]byte(`{"timestamp":`))

	_, found, err := store.Get(context.Background())
	require.Error(t, err)
	require.False(t, found)
	require.True(t, apperrors.IsCode(err, advisory.CodeCacheCorrupt))
}

func TestMemoryStoreConcurrentWritersLastWins(t *testing.T) {
	store := NewMemoryStore("")
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		wg.Add(1)
		go func(ts int64) {
			defer wg.Done()
			_ = store.Set(ctx, advisory.CacheEntry{FetchedAt: ts})
		}(int64(i))
	}
	wg.Wait()

	got, found, err := store.Get(ctx)
	require.NoError(t, err)
	require.True(t, found)
	require.GreaterOrEqual(t, got.FetchedAt, int64(1))
	require.LessOrEqual(t, got.FetchedAt, int64(8))
}

func TestEncodeEntryWireFormat(t *testing.T) {
	payload, err := encodeEntry(advisory.CacheEntry{FetchedAt: 42})
	require.NoError(t, err)
	require.JSONEq(t, `{"timestamp":42,"data":[]}`, string(payload))

	payload, err = encodeEntry(advisory.CacheEntry{FetchedAt: 7, Bulletins: []advisory.Bulletin{{Title: "T", Summary: "S", Link: "L"}}})
	require.NoError(t, err)
	require.JSONEq(t, `{"timestamp":7,"data":[{"Title":"T","Summary":"S","Link":"L"}]}`, string(payload))
}

func TestDecodeEntry(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		corrupt bool
		want    advisory.CacheEntry
	}{
		{name: "valid", payload: `{"timestamp":5,"data":[{"Title":"A"}]}`, want: advisory.CacheEntry{FetchedAt: 5, Bulletins: []advisory.Bulletin{{Title: "A"}}}},
		{name: "null data", payload: `{"timestamp":5,"data":null}`, want: advisory.CacheEntry{FetchedAt: 5, Bulletins: []advisory.Bulletin{}}},
		{name: "missing timestamp", payload: `{"data":[]}`, corrupt: true},
		{name: "not json", payload: `travel`, corrupt: true},
		{name: "wrong shape", payload: `{"timestamp":"yesterday","data":[]}`, corrupt: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decodeEntry([]byte(tc.payload))
			if tc.corrupt {
				require.True(t, apperrors.IsCode(err, advisory.CodeCacheCorrupt))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestObjectNameAndEndpoint(t *testing.T) {
	require.Equal(t, "travel_advisories_cache.json", objectName(DefaultKey))
	require.Equal(t, "snap.json", objectName("snap.json"))
	require.Equal(t, "account.r2.cloudflarestorage.com", sanitizeEndpoint("https://account.r2.cloudflarestorage.com/bucket"))
	require.Equal(t, "localhost:9000", sanitizeEndpoint("http://localhost:9000"))
	require.Equal(t, "", sanitizeEndpoint("  "))
}
