package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"jsoncache/core/storage"

	"github.com/minio/minio-go/v7"
)

// ObjectScheme prefixes source paths served from object storage.
const ObjectScheme = "s3://"

// Fetcher reads the raw bytes of a source. Implementations map their failures onto
// ErrFileNotFound, ErrFileTooLarge and ErrLoad. A limit of zero disables the size check.
type Fetcher interface {
	Fetch(ctx context.Context, path string, limit int64) ([]byte, error)
}

// FileFetcher reads sources from the local filesystem.
type FileFetcher struct{}

// Fetch implements Fetcher.
func (FileFetcher) Fetch(_ context.Context, path string, limit int64) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrLoad, path)
	}
	if limit > 0 && info.Size() > limit {
		return nil, fmt.Errorf("%w: %s is %d bytes (limit %d)", ErrFileTooLarge, path, info.Size(), limit)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	// The file may have grown between Stat and ReadFile.
	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s is %d bytes (limit %d)", ErrFileTooLarge, path, len(data), limit)
	}
	return data, nil
}

// ObjectFetcher reads s3://bucket/object sources through a storage client.
type ObjectFetcher struct {
	Client storage.Client
}

// Fetch implements Fetcher.
func (f ObjectFetcher) Fetch(ctx context.Context, path string, limit int64) ([]byte, error) {
	bucket, object, err := ParseObjectURL(path)
	if err != nil {
		return nil, err
	}

	rc, err := f.Client.GetObject(ctx, bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, objectError(path, err)
	}
	defer rc.Close()

	var r io.Reader = rc
	if limit > 0 {
		r = io.LimitReader(rc, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, objectError(path, err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrFileTooLarge, path, limit)
	}
	return data, nil
}

func objectError(path string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	return fmt.Errorf("%w: %s: %v", ErrLoad, path, err)
}

// ParseObjectURL splits s3://bucket/object into its bucket and object name.
func ParseObjectURL(path string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(path, ObjectScheme)
	if !ok {
		return "", "", fmt.Errorf("%w: %q is not an %s URL", ErrLoad, path, ObjectScheme)
	}
	bucket, object, _ = strings.Cut(rest, "/")
	if bucket == "" || object == "" {
		return "", "", fmt.Errorf("%w: %q must name a bucket and an object", ErrLoad, path)
	}
	return bucket, object, nil
}

// IsObjectPath reports whether path is served from object storage.
func IsObjectPath(path string) bool {
	return strings.HasPrefix(path, ObjectScheme)
}

// RoutingFetcher sends object URLs to Objects and every other path to Files.
type RoutingFetcher struct {
	Files   Fetcher
	Objects Fetcher
}

// Fetch implements Fetcher.
func (f RoutingFetcher) Fetch(ctx context.Context, path string, limit int64) ([]byte, error) {
	if IsObjectPath(path) {
		if f.Objects == nil {
			return nil, fmt.Errorf("%w: object storage is not configured for %s", ErrLoad, path)
		}
		return f.Objects.Fetch(ctx, path, limit)
	}
	if f.Files == nil {
		return FileFetcher{}.Fetch(ctx, path, limit)
	}
	return f.Files.Fetch(ctx, path, limit)
}
