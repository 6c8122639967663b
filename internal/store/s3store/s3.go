// Package s3store keeps one object per collection key in an S3 bucket.
package s3store

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/mentordesk/mentordesk/internal/collection"
)

// Config carries the S3 connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	Prefix    string
}

// Store is a collection.Repository over minio-go.
type Store struct {
	client *minio.Client
	bucket string
	region string
	prefix string
}

// New creates the minio client. It does not contact the server.
func New(cfg Config) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3store: init minio: %w", err)
	}
	return &Store{client: client, bucket: cfg.Bucket, region: cfg.Region, prefix: cfg.Prefix}, nil
}

// EnsureBucket makes sure the bucket exists before use.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("s3store: check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("s3store: make bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *Store) object(key string) string {
	return s.prefix + key + ".json"
}

// Load downloads the object for key.
func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.object(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("s3store: get %s: %w", key, err)
	}
	defer obj.Close()
	payload, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, collection.ErrNotFound
		}
		return nil, fmt.Errorf("s3store: read %s: %w", key, err)
	}
	return payload, nil
}

// Save uploads the object for key.
func (s *Store) Save(ctx context.Context, key string, payload []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.object(key), bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("s3store: put %s: %w", key, err)
	}
	return nil
}
