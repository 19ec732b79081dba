// Package storage connects to S3-compatible object storage for sources declared as
// s3://bucket/object.
//
// It wraps the MinIO Go client behind the small Client interface, which works against
// both AWS S3 and self-hosted MinIO. The interface is mocked in core/storage/mocks so
// object-backed sources can be tested without a server.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	fetcher := cache.ObjectFetcher{Client: client}
package storage
