package advisory

import "context"

// CodeCacheCorrupt marks a cached payload that could not be decoded.
const CodeCacheCorrupt = "cache_corrupt"

// CodeUpstream marks a failed bulletin fetch.
const CodeUpstream = "upstream_error"

// BulletinSource fetches the complete bulletin list in one shot.
type BulletinSource interface {
	FetchBulletins(ctx context.Context) ([]Bulletin, error)
}

// Cache persists the single bulletin snapshot between resolutions.
// Get reports false when nothing has been stored yet.
type Cache interface {
	Get(ctx context.Context) (CacheEntry, bool, error)
	Set(ctx context.Context, entry CacheEntry) error
}
