package advisorycache

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yanqian/travel-advisor/internal/domain/advisory"
)

// ObjectStore keeps the snapshot as one JSON object in an S3-compatible
// bucket (Cloudflare R2, MinIO, S3).
type ObjectStore struct {
	client *minio.Client
	bucket string
	key    string
	logger *slog.Logger
}

// ObjectStoreOptions carries the bucket connection settings.
type ObjectStoreOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
}

// NewObjectStore constructs the storage adapter.
func NewObjectStore(opts ObjectStoreOptions, key string, logger *slog.Logger) (*ObjectStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	useSSL := !strings.HasPrefix(strings.ToLower(strings.TrimSpace(opts.Endpoint)), "http://")
	client, err := minio.New(sanitizeEndpoint(opts.Endpoint), &minio.Options{
		Creds:        credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure:       useSSL,
		Region:       opts.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init object store client: %w", err)
	}
	return &ObjectStore{
		client: client,
		bucket: opts.Bucket,
		key:    objectName(normalizeKey(key)),
		logger: logger.With("component", "advisorycache.object"),
	}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *ObjectStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err == nil && exists {
		return nil
	}
	err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "BucketAlreadyOwnedByYou" {
		return err
	}
	s.logger.Info("advisory cache bucket ready", "bucket", s.bucket)
	return nil
}

// Get reads and decodes the snapshot object.
func (s *ObjectStore) Get(ctx context.Context) (advisory.CacheEntry, bool, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key, minio.GetObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return advisory.CacheEntry{}, false, nil
		}
		return advisory.CacheEntry{}, false, err
	}
	defer obj.Close()

	payload, err := io.ReadAll(obj)
	if err != nil {
		if isNotFound(err) {
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

// Set uploads the snapshot, replacing the previous object.
func (s *ObjectStore) Set(ctx context.Context, entry advisory.CacheEntry) error {
	payload, err := encodeEntry(entry)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, s.bucket, s.key, bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{
		ContentType:      "application/json",
		DisableMultipart: true,
	})
	return err
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NoSuchBucket"
}

func objectName(key string) string {
	return strings.TrimSuffix(key, ".json") + ".json"
}

// sanitizeEndpoint removes schemes and paths to satisfy minio.New expectations.
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if idx := strings.Index(raw, "/"); idx >= 0 {
		raw = raw[:idx]
	}
	return raw
}

var _ advisory.Cache = (*ObjectStore)(nil)
