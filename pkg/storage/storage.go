// Package storage archives episode audio in S3-compatible object storage.
//
// The transcription worker downloads an episode once, stores it under a
// stable key and hands the speech-to-text service a presigned URL:
//
//	store, err := storage.New(cfg)
//	info, err := store.Put(ctx, storage.AudioKey(episodeID, ct), f, size, ct)
//	url, err := store.URL(ctx, info.Key, 30*time.Minute)
package storage

import (
	"context"
	"io"
	"time"
)

// Storage is the object store surface the application needs.
type Storage interface {
	// Put uploads size bytes from r under key.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*FileInfo, error)
	// Get opens the object. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Stat returns the object's metadata or ErrNotFound.
	Stat(ctx context.Context, key string) (*FileInfo, error)
	// Delete removes the object.
	Delete(ctx context.Context, key string) error
	// URL returns a presigned GET URL valid for expiry.
	URL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// Config is loaded with the S3_ prefix.
type Config struct {
	Bucket    string `env:"BUCKET"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	// Endpoint is set for MinIO, R2 or Supabase storage.
	Endpoint  string `env:"ENDPOINT"`
	Region    string `env:"REGION" envDefault:"us-east-1"`
	PathStyle bool   `env:"PATH_STYLE"`
	// MaxDownloadSize caps audio downloads, in bytes.
	MaxDownloadSize int64 `env:"MAX_DOWNLOAD_SIZE" envDefault:"524288000"`
}

// Enabled reports whether a bucket is configured.
func (c Config) Enabled() bool {
	return c.Bucket != ""
}

// FileInfo describes a stored object.
type FileInfo struct {
	Key         string
	ContentType string
	Size        int64
}

const (
	DefaultRegion          = "us-east-1"
	DefaultMaxDownloadSize = 500 << 20
	DefaultURLExpiry       = 15 * time.Minute
)

func (c *Config) applyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.MaxDownloadSize <= 0 {
		c.MaxDownloadSize = DefaultMaxDownloadSize
	}
}

func (c *Config) validate() error {
	if c.Bucket == "" || c.AccessKey == "" || c.SecretKey == "" {
		return ErrInvalidConfig
	}
	return nil
}
