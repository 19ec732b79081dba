package storage

import (
	"context"
	"errors"
	"fmt"
)

// CheckBuckets verifies that every named bucket is reachable and exists. All buckets
// are checked and the failures are joined.
func CheckBuckets(ctx context.Context, client Client, buckets []string) error {
	var errs []error
	for _, bucket := range buckets {
		exists, err := client.BucketExists(ctx, bucket)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("bucket %q: %w", bucket, err))
		case !exists:
			errs = append(errs, fmt.Errorf("bucket %q does not exist", bucket))
		}
	}
	return errors.Join(errs...)
}
