package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/jvetere1999/passion-os-sub009/logger"
)

const (
	// audioKeyPrefix namespaces track blobs inside the bucket.
	audioKeyPrefix = "audio/"

	// playableURLTTL bounds how long a handed-out URL stays valid.
	playableURLTTL = 1 * time.Hour
)

// BlobMetadata describes a stored blob without fetching its bytes.
type BlobMetadata struct {
	ID          string    `json:"id"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType"`
	StoredAt    time.Time `json:"storedAt"`
}

// BlobStore persists user audio blobs addressed by track id.
type BlobStore struct {
	client *minio.Client
	bucket string
}

// NewBlobStore wraps a connected client for the given bucket.
func NewBlobStore(client *minio.Client, bucket string) *BlobStore {
	return &BlobStore{client: client, bucket: bucket}
}

// ObjectKey returns the bucket key a track id maps to.
func (s *BlobStore) ObjectKey(id string) string {
	return audioKeyPrefix + id
}

// Store writes the blob bytes together with their mime type. Storing
// under an existing id replaces the previous blob.
func (s *BlobStore) Store(ctx context.Context, id string, r io.Reader, size int64, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, s.bucket, s.ObjectKey(id), r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to store blob %s: %w", id, err)
	}
	logger.Debug("blob stored",
		logger.String("id", id),
		logger.String("size", FormatSize(size)),
		logger.String("contentType", contentType))
	return nil
}

// PlayableURL mints a fresh presigned URL for the blob. Each call
// returns a new URL; old ones simply age out after their TTL.
func (s *BlobStore) PlayableURL(ctx context.Context, id string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, s.ObjectKey(id), playableURLTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign blob %s: %w", id, err)
	}
	return u.String(), nil
}

// Metadata stats the blob without downloading it.
func (s *BlobStore) Metadata(ctx context.Context, id string) (*BlobMetadata, error) {
	info, err := s.client.StatObject(ctx, s.bucket, s.ObjectKey(id), minio.StatObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to stat blob %s: %w", id, err)
	}
	return &BlobMetadata{
		ID:          id,
		Size:        info.Size,
		ContentType: info.ContentType,
		StoredAt:    info.LastModified,
	}, nil
}

// Fetch reads the full blob into memory.
func (s *BlobStore) Fetch(ctx context.Context, id string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.ObjectKey(id), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open blob %s: %w", id, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", id, err)
	}
	return data, nil
}

// Delete removes a single blob. Deleting an absent id is not an error.
func (s *BlobStore) Delete(ctx context.Context, id string) error {
	err := s.client.RemoveObject(ctx, s.bucket, s.ObjectKey(id), minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete blob %s: %w", id, err)
	}
	return nil
}

// DeleteMany removes a batch of blobs in one pass.
func (s *BlobStore) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	objectsCh := make(chan minio.ObjectInfo, len(ids))
	go func() {
		defer close(objectsCh)
		for _, id := range ids {
			objectsCh <- minio.ObjectInfo{Key: s.ObjectKey(id)}
		}
	}()

	var failed int
	for result := range s.client.RemoveObjects(ctx, s.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if result.Err != nil {
			failed++
			logger.Warn("failed to delete blob",
				logger.String("key", result.ObjectName),
				logger.ErrorField(result.Err))
		}
	}
	if failed > 0 {
		return fmt.Errorf("failed to delete %d of %d blobs", failed, len(ids))
	}
	return nil
}

// ListIDs returns the ids of every stored blob.
func (s *BlobStore) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    audioKeyPrefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return nil, fmt.Errorf("failed to list blobs: %w", object.Err)
		}
		ids = append(ids, strings.TrimPrefix(object.Key, audioKeyPrefix))
	}
	return ids, nil
}

// TotalBytes sums the size of every stored blob.
func (s *BlobStore) TotalBytes(ctx context.Context) (int64, error) {
	var total int64
	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    audioKeyPrefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return 0, fmt.Errorf("failed to list blobs: %w", object.Err)
		}
		total += object.Size
	}
	return total, nil
}

// ClearAll removes every stored blob.
func (s *BlobStore) ClearAll(ctx context.Context) error {
	ids, err := s.ListIDs(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	if err := s.DeleteMany(ctx, ids); err != nil {
		return err
	}
	logger.Info("cleared blob storage", logger.Int("count", len(ids)))
	return nil
}
