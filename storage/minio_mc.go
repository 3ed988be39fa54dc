package storage

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// BucketStats summarizes a bucket listing.
type BucketStats struct {
	TotalObjects int64
	TotalSize    int64
	LastModified time.Time
}

// MinioClient wraps a bucket for command-line inspection. The server
// side goes through BlobStore; this client exists for the admin CLI.
type MinioClient struct {
	client     *minio.Client
	bucketName string
}

// NewMinioClient creates a standalone client for the given bucket.
func NewMinioClient(endpoint, accessKey, secretKey, bucketName string, useSSL bool) (*MinioClient, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinioClient{
		client:     client,
		bucketName: bucketName,
	}, nil
}

func (m *MinioClient) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", m.bucketName)
	}
	return nil
}

func (m *MinioClient) collect(ctx context.Context, prefix string) ([]minio.ObjectInfo, *BucketStats, error) {
	stats := &BucketStats{}
	var objects []minio.ObjectInfo

	objectCh := m.client.ListObjects(ctx, m.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})
	for object := range objectCh {
		if object.Err != nil {
			return nil, nil, fmt.Errorf("failed to list objects: %w", object.Err)
		}
		stats.TotalObjects++
		stats.TotalSize += object.Size
		if object.LastModified.After(stats.LastModified) {
			stats.LastModified = object.LastModified
		}
		objects = append(objects, object)
	}

	return objects, stats, nil
}

// ListObjects prints every object under the prefix with a summary line.
func (m *MinioClient) ListObjects(prefix string) error {
	ctx := context.Background()

	if err := m.ensureBucket(ctx); err != nil {
		return err
	}

	objects, stats, err := m.collect(ctx, prefix)
	if err != nil {
		return err
	}

	fmt.Printf("Bucket: %s\n", m.bucketName)
	fmt.Printf("Objects: %d\n", stats.TotalObjects)
	fmt.Printf("Total size: %s\n", FormatSize(stats.TotalSize))
	if !stats.LastModified.IsZero() {
		fmt.Printf("Last modified: %s\n", stats.LastModified.Format(time.RFC3339))
	}
	fmt.Println()

	for _, object := range objects {
		fmt.Printf("%-12s %s  %s\n",
			FormatSize(object.Size),
			object.LastModified.Format("2006-01-02 15:04:05"),
			object.Key)
	}

	return nil
}

// PrintBucketStats prints an object-count histogram keyed by extension.
func (m *MinioClient) PrintBucketStats() error {
	ctx := context.Background()

	if err := m.ensureBucket(ctx); err != nil {
		return err
	}

	objects, stats, err := m.collect(ctx, "")
	if err != nil {
		return err
	}

	typeStats := make(map[string]int64)
	for _, object := range objects {
		typeStats[fileExtension(object.Key)]++
	}

	fmt.Printf("=== Bucket stats ===\n")
	fmt.Printf("Bucket: %s\n", m.bucketName)
	fmt.Printf("Objects: %d\n", stats.TotalObjects)
	fmt.Printf("Total size: %s\n", FormatSize(stats.TotalSize))
	if !stats.LastModified.IsZero() {
		fmt.Printf("Last modified: %s\n", stats.LastModified.Format(time.RFC3339))
	}

	fmt.Printf("\nBy extension:\n")
	var exts []string
	for ext := range typeStats {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	for _, ext := range exts {
		fmt.Printf("  %-10s %d\n", ext, typeStats[ext])
	}

	return nil
}

// ListObjectsRecursive prints the bucket as a directory tree.
func (m *MinioClient) ListObjectsRecursive(prefix string) error {
	ctx := context.Background()

	if err := m.ensureBucket(ctx); err != nil {
		return err
	}

	objects, stats, err := m.collect(ctx, prefix)
	if err != nil {
		return err
	}

	fmt.Printf("Bucket: %s\n", m.bucketName)
	fmt.Printf("Objects: %d, total %s\n\n", stats.TotalObjects, FormatSize(stats.TotalSize))

	dirs := make(map[string][]minio.ObjectInfo)
	var roots []minio.ObjectInfo
	for _, object := range objects {
		idx := strings.LastIndex(object.Key, "/")
		if idx < 0 {
			roots = append(roots, object)
			continue
		}
		dir := object.Key[:idx]
		dirs[dir] = append(dirs[dir], object)
	}

	var sortedDirs []string
	for dir := range dirs {
		sortedDirs = append(sortedDirs, dir)
	}
	sort.Strings(sortedDirs)

	for _, object := range roots {
		fmt.Printf("%s (%s)\n", object.Key, FormatSize(object.Size))
	}
	for _, dir := range sortedDirs {
		fmt.Printf("%s/\n", dir)
		for _, object := range dirs[dir] {
			fmt.Printf("  %s (%s)\n", strings.TrimPrefix(object.Key, dir+"/"), FormatSize(object.Size))
		}
	}

	return nil
}

// DeleteDirectory removes every object under the prefix.
func (m *MinioClient) DeleteDirectory(prefix string) error {
	ctx := context.Background()

	if err := m.ensureBucket(ctx); err != nil {
		return err
	}

	objects, _, err := m.collect(ctx, prefix)
	if err != nil {
		return err
	}
	if len(objects) == 0 {
		return fmt.Errorf("prefix %s is empty or does not exist", prefix)
	}

	objectsCh := make(chan minio.ObjectInfo, len(objects))
	go func() {
		defer close(objectsCh)
		for _, object := range objects {
			objectsCh <- object
		}
	}()

	errorCh := m.client.RemoveObjects(ctx, m.bucketName, objectsCh, minio.RemoveObjectsOptions{})
	for result := range errorCh {
		if result.Err != nil {
			return fmt.Errorf("failed to delete object %s: %w", result.ObjectName, result.Err)
		}
	}

	log.Printf("Deleted %d objects under %s", len(objects), prefix)
	return nil
}

func fileExtension(key string) string {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == '.' {
			return key[i+1:]
		}
		if key[i] == '/' {
			break
		}
	}
	return "none"
}
